package kanidmclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	controllermetrics "github.com/kaniop/kaniop/internal/controller"
	kaniopserrors "github.com/kaniop/kaniop/internal/errors"
	"golang.org/x/time/rate"
)

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

type circuitBreaker struct {
	failures         int
	state            circuitState
	openUntil        time.Time
	halfOpenInFlight bool
}

// smartState rate-limits and circuit-breaks outbound calls to one
// Kanidm cluster's API, adapted from the teacher's smartClientState: one
// shared rate.Limiter per cluster plus a breaker per (host, method, path)
// bucket, so a single misbehaving endpoint does not trip calls to the
// rest of the API.
type smartState struct {
	cluster ClusterIdentity
	limiter *rate.Limiter

	mu       sync.Mutex
	breakers map[string]*circuitBreaker

	failureThreshold int
	openDuration     time.Duration
}

var smartStates sync.Map // map[ClusterIdentity]*smartState

func getOrCreateSmartState(cfg ClientConfig) *smartState {
	key := cfg.Cluster
	if existing, ok := smartStates.Load(key); ok {
		return existing.(*smartState)
	}

	state := &smartState{
		cluster:          cfg.Cluster,
		limiter:          rate.NewLimiter(rate.Limit(cfg.RateLimitQPS), cfg.RateLimitBurst),
		breakers:         make(map[string]*circuitBreaker),
		failureThreshold: cfg.CircuitBreakerFailureThreshold,
		openDuration:     cfg.CircuitBreakerOpenDuration,
	}

	actual, _ := smartStates.LoadOrStore(key, state)
	return actual.(*smartState)
}

// dropSmartState discards rate-limit and circuit-breaker state for a
// cluster, used when the Kanidm CR is deleted so a recreated cluster of
// the same name starts with a clean breaker.
func dropSmartState(cluster ClusterIdentity) {
	smartStates.Delete(cluster)
}

func requestKey(req *http.Request) string {
	if req == nil || req.URL == nil {
		return "unknown"
	}
	return fmt.Sprintf("%s %s", req.Method, req.URL.Path)
}

func (s *smartState) allow(ctx context.Context, req *http.Request) error {
	if s == nil {
		return nil
	}

	key := requestKey(req)
	now := time.Now()

	s.mu.Lock()
	br := s.breakers[key]
	if br == nil {
		br = &circuitBreaker{state: circuitClosed}
		s.breakers[key] = br
	}

	switch br.state {
	case circuitOpen:
		if now.Before(br.openUntil) {
			until := br.openUntil
			s.mu.Unlock()
			return kaniopserrors.WrapNetwork(
				fmt.Errorf("kanidm circuit breaker open for %s (retry after %s)", key, time.Until(until).Truncate(time.Second)),
			)
		}
		br.state = circuitHalfOpen
		br.halfOpenInFlight = false
	case circuitHalfOpen:
		if br.halfOpenInFlight {
			s.mu.Unlock()
			return kaniopserrors.WrapNetwork(fmt.Errorf("kanidm circuit breaker half-open (probe in-flight) for %s", key))
		}
	case circuitClosed:
	}

	wasProbe := br.state == circuitHalfOpen
	if wasProbe {
		br.halfOpenInFlight = true
	}
	s.mu.Unlock()

	if err := s.limiter.Wait(ctx); err != nil {
		if wasProbe {
			s.mu.Lock()
			br.halfOpenInFlight = false
			s.mu.Unlock()
		}
		return err
	}
	return nil
}

func (s *smartState) after(req *http.Request, success bool) {
	if s == nil {
		return
	}

	key := requestKey(req)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	br := s.breakers[key]
	if br == nil {
		br = &circuitBreaker{state: circuitClosed}
		s.breakers[key] = br
	}

	switch br.state {
	case circuitHalfOpen:
		br.halfOpenInFlight = false
		if success {
			br.state = circuitClosed
			br.failures = 0
			br.openUntil = time.Time{}
			return
		}
		br.state = circuitOpen
		br.failures = s.failureThreshold
		br.openUntil = now.Add(s.openDuration)
		controllermetrics.NewClientPoolMetrics(s.cluster.Namespace, s.cluster.Name).RecordCircuitBreakerOpen()
	case circuitOpen:
		if success {
			br.state = circuitClosed
			br.failures = 0
			br.openUntil = time.Time{}
		}
	case circuitClosed:
		if success {
			br.failures = 0
			return
		}
		br.failures++
		if br.failures >= s.failureThreshold {
			br.state = circuitOpen
			br.openUntil = now.Add(s.openDuration)
			controllermetrics.NewClientPoolMetrics(s.cluster.Namespace, s.cluster.Name).RecordCircuitBreakerOpen()
		}
	}
}
