// Package errors implements the error taxonomy described in spec §7:
// each reconcile failure is classified into one of a small number of
// kinds that determine whether (and how) it is retried.
package errors

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Kind identifies one of the taxonomy's error classes.
type Kind string

const (
	KindInvalid   Kind = "Invalid"
	KindNotFound  Kind = "NotFound"
	KindConflict  Kind = "Conflict"
	KindAuthFailed Kind = "AuthFailed"
	KindRemote    Kind = "Remote"
	KindNetwork   Kind = "Network"
	KindTimeout   Kind = "Timeout"
	KindFatal     Kind = "Fatal"
)

// Sentinel errors, one per kind, wrapped via fmt.Errorf("%w: %w", ...) the
// same way the teacher's internal/errors package layers its two
// transient/permanent sentinels.
var (
	// ErrInvalid marks a spec that violates an invariant (§3.3). Terminal:
	// no retry until the spec changes.
	ErrInvalid = errors.New("invalid spec")
	// ErrNotFound marks a referenced resource (parent Kanidm, Secret, ...)
	// that does not exist yet. Retryable.
	ErrNotFound = errors.New("referenced resource not found")
	// ErrConflict marks an optimistic-concurrency conflict on a write.
	// Retried immediately once, then backed off.
	ErrConflict = errors.New("optimistic concurrency conflict")
	// ErrAuthFailed marks a Kanidm authentication failure. The session is
	// invalidated and the call retried once before backoff.
	ErrAuthFailed = errors.New("kanidm authentication failed")
	// ErrRemote marks a non-2xx response from the Kanidm API.
	ErrRemote = errors.New("kanidm remote error")
	// ErrNetwork marks a transport-level failure reaching the Kanidm API
	// or the Kubernetes API.
	ErrNetwork = errors.New("network error")
	// ErrTimeout marks a call that exceeded its deadline.
	ErrTimeout = errors.New("timeout")
	// ErrFatal marks a programmer error. It is not retried: reconcilers
	// return without an error and without a requeue, and no worker is
	// crashed or restarted.
	ErrFatal = errors.New("fatal error")
)

// RemoteError carries the HTTP status and body of a non-2xx Kanidm
// response, as named in spec §4.4 (Remote(status, body)).
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("kanidm remote error: status=%d body=%s", e.Status, truncate(e.Body, 256))
}

func (e *RemoteError) Unwrap() error { return ErrRemote }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}

func wrap(sentinel, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

func WrapInvalid(err error) error    { return wrap(ErrInvalid, err) }
func WrapNotFound(err error) error   { return wrap(ErrNotFound, err) }
func WrapConflict(err error) error   { return wrap(ErrConflict, err) }
func WrapAuthFailed(err error) error { return wrap(ErrAuthFailed, err) }
func WrapNetwork(err error) error    { return wrap(ErrNetwork, err) }
func WrapTimeout(err error) error    { return wrap(ErrTimeout, err) }
func WrapFatal(err error) error      { return wrap(ErrFatal, err) }

// WrapRemote wraps a non-2xx Kanidm response as a *RemoteError.
func WrapRemote(status int, body string) error {
	return &RemoteError{Status: status, Body: body}
}

// ClassifyNetwork inspects an arbitrary error returned by net/http and
// reclassifies it as Network or Timeout, mirroring the teacher's
// IsTransientConnection pattern-matching approach for errors that don't
// already carry a sentinel.
func ClassifyNetwork(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout) {
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return WrapTimeout(err)
	}

	lower := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"context deadline exceeded", "i/o timeout", "timeout",
	} {
		if strings.Contains(lower, pattern) {
			return WrapTimeout(err)
		}
	}

	for _, pattern := range []string{
		"connection refused", "connection reset", "no such host",
		"network is unreachable", "dial tcp", "connection closed", "broken pipe", "eof",
	} {
		if strings.Contains(lower, pattern) {
			return WrapNetwork(err)
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return WrapNetwork(err)
	}

	return err
}

// KindOf classifies err into one of the taxonomy's kinds. Unclassified
// errors default to KindFatal so that callers do not silently treat an
// unknown error as retryable forever.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrInvalid):
		return KindInvalid
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrAuthFailed):
		return KindAuthFailed
	case errors.Is(err, ErrRemote):
		return KindRemote
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrFatal):
		return KindFatal
	default:
		return KindFatal
	}
}

// ShouldRequeue determines whether an error should trigger a requeue and,
// if so, an initial suggested delay. The Backoff Coordinator
// (internal/backoff) is the authority for the actual delay used on the
// second and later attempts; this is only consulted for the immediate
// classification (e.g. Conflict retries immediately once).
func ShouldRequeue(err error) (bool, time.Duration) {
	if err == nil {
		return false, 0
	}

	switch KindOf(err) {
	case KindInvalid:
		return false, 0
	case KindConflict:
		return true, 0
	case KindNotFound, KindAuthFailed, KindRemote, KindNetwork, KindTimeout:
		return true, time.Second
	case KindFatal:
		return false, 0
	default:
		return true, 0
	}
}

// IsCRDMissingError reports whether err indicates that a CRD is not
// installed in the cluster, ported verbatim from the teacher's
// classification because the underlying apiserver error strings are
// identical regardless of the caller's domain.
func IsCRDMissingError(err error) bool {
	if err == nil {
		return false
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "no matches for kind") ||
		strings.Contains(lower, "no kind is registered for the type") ||
		strings.Contains(lower, "could not find the requested resource")
}
