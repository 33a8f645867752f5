package kaniopcontext

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/tools/cache"
	"sigs.k8s.io/controller-runtime/pkg/client"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/store"
)

// storeResync is the informer resync period for every production Store;
// store.Store itself documents why a periodic resync matters even with a
// live watch connection.
const storeResync = 10 * time.Minute

// watchInformer builds a SharedIndexInformer whose ListWatch is backed by
// a real controller-runtime watch client instead of the fixed in-memory
// fixture internal/webhook/admission's tests hand-roll with
// cache.NewSharedIndexInformer directly; this is the same
// cache.ListWatch-plus-SharedIndexInformer shape, generalized from an
// in-memory List/Watch pair to one that round-trips through the API
// server.
func watchInformer(wc client.WithWatch, example client.Object, newList func() client.ObjectList) cache.SharedIndexInformer {
	lw := &cache.ListWatch{
		ListFunc: func(opts metav1.ListOptions) (runtime.Object, error) {
			list := newList()
			if err := wc.List(context.Background(), list, &client.ListOptions{Raw: &opts}); err != nil {
				return nil, err
			}
			return list, nil
		},
		WatchFunc: func(opts metav1.ListOptions) (watch.Interface, error) {
			list := newList()
			return wc.Watch(context.Background(), list, &client.ListOptions{Raw: &opts})
		},
	}
	return cache.NewSharedIndexInformer(lw, example, storeResync, cache.Indexers{})
}

// StoreKind selects which Object Store Layer cache NewStores starts; the
// webhook process and the operator process each start a different subset
// (kaniopcontext.Context's own doc comment: "the webhook process only
// needs Secrets and Kanidm, not the four entity kinds" plus whatever a
// given validator handler additionally keys duplicate detection on).
type StoreKind int

const (
	StoreSecrets StoreKind = iota
	StoreKanidm
	StoreGroups
	StorePersons
	StoreOAuth2
	StoreSvcAcct
)

// NewStores starts an informer-backed Store for each requested kind
// against wc, blocks until every one's initial list has completed (or ctx
// is cancelled), and returns the populated Stores.
func NewStores(ctx context.Context, wc client.WithWatch, kinds ...StoreKind) (*Stores, error) {
	stores := &Stores{}
	var started []interface {
		WaitForSync(context.Context) error
	}

	for _, kind := range kinds {
		switch kind {
		case StoreSecrets:
			informer := watchInformer(wc, &corev1.Secret{}, func() client.ObjectList { return &corev1.SecretList{} })
			s := store.New[*corev1.Secret](informer)
			go informer.Run(ctx.Done())
			stores.Secrets = s
			started = append(started, s)
		case StoreKanidm:
			informer := watchInformer(wc, &kaniopv1beta1.Kanidm{}, func() client.ObjectList { return &kaniopv1beta1.KanidmList{} })
			s := store.New[*kaniopv1beta1.Kanidm](informer)
			go informer.Run(ctx.Done())
			stores.Kanidm = s
			started = append(started, s)
		case StoreGroups:
			informer := watchInformer(wc, &kaniopv1beta1.KanidmGroup{}, func() client.ObjectList { return &kaniopv1beta1.KanidmGroupList{} })
			s := store.New[*kaniopv1beta1.KanidmGroup](informer)
			go informer.Run(ctx.Done())
			stores.Groups = s
			started = append(started, s)
		case StorePersons:
			informer := watchInformer(wc, &kaniopv1beta1.KanidmPersonAccount{}, func() client.ObjectList { return &kaniopv1beta1.KanidmPersonAccountList{} })
			s := store.New[*kaniopv1beta1.KanidmPersonAccount](informer)
			go informer.Run(ctx.Done())
			stores.Persons = s
			started = append(started, s)
		case StoreOAuth2:
			informer := watchInformer(wc, &kaniopv1beta1.KanidmOAuth2Client{}, func() client.ObjectList { return &kaniopv1beta1.KanidmOAuth2ClientList{} })
			s := store.New[*kaniopv1beta1.KanidmOAuth2Client](informer)
			go informer.Run(ctx.Done())
			stores.OAuth2 = s
			started = append(started, s)
		case StoreSvcAcct:
			informer := watchInformer(wc, &kaniopv1beta1.KanidmServiceAccount{}, func() client.ObjectList { return &kaniopv1beta1.KanidmServiceAccountList{} })
			s := store.New[*kaniopv1beta1.KanidmServiceAccount](informer)
			go informer.Run(ctx.Done())
			stores.SvcAcct = s
			started = append(started, s)
		default:
			return nil, fmt.Errorf("kaniopcontext: unknown store kind %d", kind)
		}
	}

	for _, s := range started {
		if err := s.WaitForSync(ctx); err != nil {
			return nil, err
		}
	}
	return stores, nil
}
