// Package store implements the Object Store Layer described in spec §4.1:
// a live, consistent in-memory mirror of a watched Kubernetes kind, backed
// by a client-go SharedIndexInformer the way the retrieval pack's
// vmware-tanzu-pinniped internal/controllerlib wires its informers, kept
// as an explicit component here (rather than delegating entirely to
// controller-runtime's implicit cache) because the Admission Validator
// (§4.7) needs a store whose "initial list complete" readiness signal it
// can observe directly, across every watched kind, before it starts
// answering admission requests.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/cache"
)

// ChangeKind identifies the kind of change delivered on a Store's
// notification channel.
type ChangeKind int

const (
	Added ChangeKind = iota
	Updated
	Deleted
)

// Change is one change notification (spec §4.1: "emitting change
// events").
type Change struct {
	Kind      ChangeKind
	Namespace string
	Name      string
}

// Store mirrors spec §4.1's contract: Get, List and a change
// notification channel, fed by a Kubernetes watch stream that
// transparently re-lists-then-watches on disconnect.
type Store[T runtime.Object] struct {
	informer cache.SharedIndexInformer
	indexer  cache.Indexer

	mu       sync.RWMutex
	healthy  bool
	changes  chan Change
}

// New wraps an already-constructed SharedIndexInformer (obtained from a
// client-go informers.SharedInformerFactory) as a typed Store. The
// informer is expected to already be registered with the factory; New
// only attaches the event handlers used to drive the Store's change feed
// and health flag.
func New[T runtime.Object](informer cache.SharedIndexInformer) *Store[T] {
	s := &Store[T]{
		informer: informer,
		indexer:  informer.GetIndexer(),
		changes:  make(chan Change, 256),
	}

	_, _ = informer.AddEventHandler(cache.ResourceEventHandlerFuncs{
		AddFunc: func(obj interface{}) {
			s.emit(Added, obj)
		},
		UpdateFunc: func(_, obj interface{}) {
			s.emit(Updated, obj)
		},
		DeleteFunc: func(obj interface{}) {
			s.emit(Deleted, obj)
		},
	})

	informer.SetWatchErrorHandler(func(_ *cache.Reflector, err error) { //nolint:errcheck
		s.mu.Lock()
		s.healthy = false
		s.mu.Unlock()
	})

	return s
}

func (s *Store[T]) emit(kind ChangeKind, obj interface{}) {
	key, err := cache.DeletionHandlingMetaNamespaceKeyFunc(obj)
	if err != nil {
		return
	}
	ns, name, err := cache.SplitMetaNamespaceKey(key)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.healthy = true
	s.mu.Unlock()

	select {
	case s.changes <- Change{Kind: kind, Namespace: ns, Name: name}:
	default:
		// The channel is a best-effort notification hint; a full channel
		// means a consumer is falling behind a List()-driven resync will
		// still observe the change, so dropping it here is safe (spec
		// §4.1: "updates may coalesce").
	}
}

// Changes returns the store's change notification channel.
func (s *Store[T]) Changes() <-chan Change { return s.changes }

// Get returns the object for (namespace, name), or ok=false if absent.
func (s *Store[T]) Get(namespace, name string) (T, bool) {
	var zero T
	key := name
	if namespace != "" {
		key = namespace + "/" + name
	}
	obj, exists, err := s.indexer.GetByKey(key)
	if err != nil || !exists {
		return zero, false
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// List returns a snapshot of every object currently in the store.
func (s *Store[T]) List() []T {
	items := s.indexer.List()
	out := make([]T, 0, len(items))
	for _, item := range items {
		if typed, ok := item.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// HasSynced reports whether the informer has completed its initial list.
// The Admission Validator (§4.7) gates readiness on this across every
// store it depends on.
func (s *Store[T]) HasSynced() bool {
	return s.informer.HasSynced()
}

// Healthy reports whether the store's underlying watch is currently
// connected. It goes false on a permanent auth failure (spec §4.1
// "Failure semantics") and back to true once an event is observed again.
func (s *Store[T]) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.healthy
}

// WaitForSync blocks until HasSynced is true or ctx is cancelled.
func (s *Store[T]) WaitForSync(ctx context.Context) error {
	if !cache.WaitForCacheSync(ctx.Done(), s.informer.HasSynced) {
		return fmt.Errorf("store: context cancelled waiting for initial list")
	}
	return nil
}

// ObjectMeta is a small helper for callers that only need metadata
// (namespace/name/labels) without type-asserting the full object.
func ObjectMeta(obj interface{}) (metav1.Object, error) {
	return meta.Accessor(obj)
}

// resyncPeriod is the informer resync interval; the Store relies on this
// (rather than a hand-rolled timer) to periodically re-deliver Update
// events as a safety net against missed watch events, matching spec
// §4.1's "MUST not lose events between disconnect and relist".
const resyncPeriod = 10 * time.Minute

// ResyncPeriod exposes the chosen resync interval for callers constructing
// the underlying SharedInformerFactory.
func ResyncPeriod() time.Duration { return resyncPeriod }
