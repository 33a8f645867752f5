package admission

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/kaniop/kaniop/internal/kaniopcontext"
)

// Server is the standalone Admission Validator HTTPS server described in
// spec §4.7. Unlike the teacher's webhook, which runs embedded in the
// manager process via controller-runtime's webhook.Server, this binary
// is its own process so the operator's restarts (e.g. on a CRD schema
// upgrade) never take the validating webhook down with it.
type Server struct {
	logger    logr.Logger
	validator *Validator
	certs     *certHolder

	httpServer *http.Server
}

// Config holds the Admission Validator's process-surface flags (spec
// §4.7: --listen-address, --tls-cert, --tls-key, --tls-reload-debounce).
type Config struct {
	ListenAddress     string
	TLSCertPath       string
	TLSKeyPath        string
	TLSReloadDebounce time.Duration
}

const DefaultTLSReloadDebounce = 5 * time.Second

// NewServer loads the initial certificate from disk, wires the four
// entity-kind handlers plus /livez and /readyz, and starts the fsnotify
// watcher that keeps the certificate fresh across rotation.
func NewServer(ctx context.Context, logger logr.Logger, stores *kaniopcontext.Stores, cfg Config) (*Server, error) {
	holder := newCertHolder()
	if err := holder.load(cfg.TLSCertPath, cfg.TLSKeyPath); err != nil {
		return nil, err
	}

	debounce := cfg.TLSReloadDebounce
	if debounce <= 0 {
		debounce = DefaultTLSReloadDebounce
	}
	watcher, err := newTLSReloadWatcher(logger, holder, cfg.TLSCertPath, cfg.TLSKeyPath, debounce)
	if err != nil {
		return nil, err
	}
	go watcher.run(ctx)

	validator := NewValidator(stores)

	mux := http.NewServeMux()
	mux.Handle("/validate-kanidmgroup", handler(validator, logger, groupDecode))
	mux.Handle("/validate-kanidmpersonaccount", handler(validator, logger, personDecode))
	mux.Handle("/validate-kanidmoauth2client", handler(validator, logger, oauth2ClientDecode))
	mux.Handle("/validate-kanidmserviceaccount", handler(validator, logger, serviceAccountDecode))
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !validator.Ready() {
			http.Error(w, "stores not yet synced", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	s := &Server{
		logger:    logger,
		validator: validator,
		certs:     holder,
	}
	s.httpServer = &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: mux,
		TLSConfig: &tls.Config{
			GetCertificate: holder.getCertificate,
			MinVersion:     tls.VersionTLS12,
		},
	}
	return s, nil
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		// ListenAndServeTLS with empty paths uses the server's TLSConfig
		// (GetCertificate) rather than loading a static file pair, which
		// is what lets a rotated certificate take effect without a
		// restart.
		errCh <- s.httpServer.ListenAndServeTLS("", "")
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
