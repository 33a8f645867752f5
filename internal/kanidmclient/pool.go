package kanidmclient

import (
	"context"
	"fmt"
	"sync"

	controllermetrics "github.com/kaniop/kaniop/internal/controller"
	kaniopserrors "github.com/kaniop/kaniop/internal/errors"
)

// session is one cached authenticated Kanidm client for a cluster, plus
// the construction lock that serializes logins under a reconcile
// thundering herd (spec §4.4).
type session struct {
	constructMu sync.Mutex
	client      *Client
}

// Pool is the Kanidm Client Pool of spec §4.4: a mapping from
// ClusterIdentity to a lazily-constructed authenticated session. It is
// the Kanidm-domain counterpart of the teacher's ClientManager, reduced
// to the single with_session entry point the spec calls out, since
// nothing outside this package is expected to hold a *Client directly.
type Pool struct {
	mu       sync.RWMutex
	sessions map[ClusterIdentity]*session

	// resolve fetches the current ClientConfig (base URL, CA, admin
	// credentials) for a cluster. It is called on every construction or
	// reconstruction so that a credential rotation in the bootstrap Secret
	// takes effect without an explicit pool invalidation.
	resolve func(ctx context.Context, cluster ClusterIdentity) (ClientConfig, error)
}

// New returns a Pool that resolves per-cluster connection details via
// resolve.
func New(resolve func(ctx context.Context, cluster ClusterIdentity) (ClientConfig, error)) *Pool {
	return &Pool{
		sessions: make(map[ClusterIdentity]*session),
		resolve:  resolve,
	}
}

func (p *Pool) sessionFor(cluster ClusterIdentity) *session {
	p.mu.RLock()
	if s, ok := p.sessions[cluster]; ok {
		p.mu.RUnlock()
		return s
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[cluster]; ok {
		return s
	}
	s := &session{}
	p.sessions[cluster] = s
	return s
}

// Invalidate discards the cached client for cluster, forcing the next
// WithSession call to reconstruct it.
func (p *Pool) Invalidate(cluster ClusterIdentity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, cluster)
}

// Forget drops all pool and smart-client state for cluster, used on
// Kanidm CR deletion.
func (p *Pool) Forget(cluster ClusterIdentity) {
	p.Invalidate(cluster)
	dropSmartState(cluster)
}

func (p *Pool) construct(ctx context.Context, s *session, cluster ClusterIdentity) (*Client, error) {
	s.constructMu.Lock()
	defer s.constructMu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	cfg, err := p.resolve(ctx, cluster)
	if err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	cfg.Cluster = cluster

	token, err := authenticate(ctx, cfg)
	if err != nil {
		return nil, err
	}

	base, err := newUnauthenticated(cfg)
	if err != nil {
		return nil, err
	}
	client := base.withToken(token)
	s.client = client
	return client, nil
}

// WithSession implements spec §4.4's with_session(cluster_id, fn): it
// guarantees either a successful call under a fresh session or one of
// the typed errors (NotFound, AuthFailed, Remote, Network) the pool
// contract promises. On an AuthFailed response from fn, the session is
// invalidated and fn is retried exactly once under a freshly constructed
// session; fn MUST therefore be idempotent (spec §9).
func (p *Pool) WithSession(ctx context.Context, cluster ClusterIdentity, fn func(ctx context.Context, client *Client) error) error {
	metrics := controllermetrics.NewClientPoolMetrics(cluster.Namespace, cluster.Name)
	s := p.sessionFor(cluster)

	client, err := p.construct(ctx, s, cluster)
	if err != nil {
		metrics.RecordRequest(requestOutcome(err))
		return err
	}

	err = fn(ctx, client)
	if err == nil {
		metrics.RecordRequest(requestOutcome(nil))
		return nil
	}
	if kaniopserrors.KindOf(err) != kaniopserrors.KindAuthFailed {
		metrics.RecordRequest(requestOutcome(err))
		return err
	}

	p.Invalidate(cluster)
	s = p.sessionFor(cluster)
	client, constructErr := p.construct(ctx, s, cluster)
	if constructErr != nil {
		metrics.RecordRequest(requestOutcome(constructErr))
		return fmt.Errorf("reauthenticate cluster %s after auth failure: %w", cluster, constructErr)
	}

	err = fn(ctx, client)
	metrics.RecordRequest(requestOutcome(err))
	return err
}

// requestOutcome maps a WithSession call's terminal error to the
// low-cardinality outcome label ClientPoolMetrics.RecordRequest expects.
func requestOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch kaniopserrors.KindOf(err) {
	case kaniopserrors.KindAuthFailed:
		return "auth_failed"
	case kaniopserrors.KindNetwork, kaniopserrors.KindTimeout:
		return "network_error"
	default:
		return "remote_error"
	}
}
