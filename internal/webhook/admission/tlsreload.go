package admission

import (
	"context"
	"crypto/tls"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
)

// certHolder makes the currently active certificate available to
// tls.Config.GetCertificate behind an atomic pointer, so a hot reload
// never blocks or races against an in-flight handshake.
type certHolder struct {
	current atomic.Pointer[tls.Certificate]
}

func newCertHolder() *certHolder {
	return &certHolder{}
}

func (h *certHolder) load(certPath, keyPath string) error {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return err
	}
	h.current.Store(&cert)
	return nil
}

func (h *certHolder) getCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return h.current.Load(), nil
}

// tlsReloadWatcher watches the certificate and key files for changes and
// reloads certHolder after they settle, debounced so that the several
// discrete writes a Secret-volume projection or "kubectl cp" performs
// don't each trigger their own reload attempt against a half-written
// file. Grounded on the teacher's internal/certs/reload.go
// ReloadSignaler idiom: that package watches for a condition (a new
// certificate hash) and reacts to it exactly once per change; this
// watcher applies the same "observe an event, debounce, act once" shape
// to a filesystem change instead of a Kubernetes object change.
type tlsReloadWatcher struct {
	logger   logr.Logger
	holder   *certHolder
	certPath string
	keyPath  string
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

func newTLSReloadWatcher(logger logr.Logger, holder *certHolder, certPath, keyPath string, debounce time.Duration) (*tlsReloadWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Secret-volume projections replace the directory's symlink atomically
	// rather than editing the files in place, so the directory (not the
	// file) is what must be watched to observe the swap.
	for _, dir := range uniqueDirs(certPath, keyPath) {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	return &tlsReloadWatcher{
		logger:   logger,
		holder:   holder,
		certPath: certPath,
		keyPath:  keyPath,
		debounce: debounce,
		fsw:      fsw,
	}, nil
}

func (w *tlsReloadWatcher) run(ctx context.Context) {
	defer func() { _ = w.fsw.Close() }()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error(err, "tls reload watcher error")
		case <-timerC:
			timerC = nil
			if err := w.holder.load(w.certPath, w.keyPath); err != nil {
				w.logger.Error(err, "reloading tls certificate")
				continue
			}
			w.logger.Info("reloaded tls certificate")
		}
	}
}

func uniqueDirs(paths ...string) []string {
	seen := make(map[string]struct{}, len(paths))
	var dirs []string
	for _, p := range paths {
		dir := filepath.Dir(p)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	return dirs
}
