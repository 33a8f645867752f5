package controller

import (
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/event"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
)

func TestKanidmPredicateIgnoresStatusOnlyUpdate(t *testing.T) {
	p := KanidmPredicate()

	oldObj := &kaniopv1beta1.Kanidm{ObjectMeta: metav1.ObjectMeta{Generation: 1}}
	newObj := &kaniopv1beta1.Kanidm{ObjectMeta: metav1.ObjectMeta{Generation: 1}}
	newObj.Status.ObservedGeneration = 1

	if p.Update(event.UpdateEvent{ObjectOld: oldObj, ObjectNew: newObj}) {
		t.Fatal("expected status-only update to be filtered out")
	}
}

func TestKanidmPredicateReactsToGenerationChange(t *testing.T) {
	p := KanidmPredicate()

	oldObj := &kaniopv1beta1.Kanidm{ObjectMeta: metav1.ObjectMeta{Generation: 1}}
	newObj := &kaniopv1beta1.Kanidm{ObjectMeta: metav1.ObjectMeta{Generation: 2}}

	if !p.Update(event.UpdateEvent{ObjectOld: oldObj, ObjectNew: newObj}) {
		t.Fatal("expected generation change to trigger reconciliation")
	}
}

func TestKanidmPredicateReactsToFinalizerChange(t *testing.T) {
	p := KanidmPredicate()

	oldObj := &kaniopv1beta1.Kanidm{ObjectMeta: metav1.ObjectMeta{Generation: 1}}
	newObj := &kaniopv1beta1.Kanidm{ObjectMeta: metav1.ObjectMeta{Generation: 1, Finalizers: []string{"kaniop.rs/kanidm-finalizer"}}}

	if !p.Update(event.UpdateEvent{ObjectOld: oldObj, ObjectNew: newObj}) {
		t.Fatal("expected finalizer change to trigger reconciliation")
	}
}

func TestEntityPredicateIgnoresStatusOnlyUpdate(t *testing.T) {
	p := EntityPredicate()

	oldObj := &kaniopv1beta1.KanidmGroup{ObjectMeta: metav1.ObjectMeta{Generation: 3}}
	newObj := &kaniopv1beta1.KanidmGroup{ObjectMeta: metav1.ObjectMeta{Generation: 3}}
	newObj.Status.ObservedGeneration = 3

	if p.Update(event.UpdateEvent{ObjectOld: oldObj, ObjectNew: newObj}) {
		t.Fatal("expected status-only update to be filtered out")
	}
}

func TestEntityPredicateReactsToAnnotationChange(t *testing.T) {
	p := EntityPredicate()

	oldObj := &kaniopv1beta1.KanidmServiceAccount{ObjectMeta: metav1.ObjectMeta{Generation: 1}}
	newObj := &kaniopv1beta1.KanidmServiceAccount{ObjectMeta: metav1.ObjectMeta{
		Generation:  1,
		Annotations: map[string]string{"kaniop.rs/force-rotate": "true"},
	}}

	if !p.Update(event.UpdateEvent{ObjectOld: oldObj, ObjectNew: newObj}) {
		t.Fatal("expected annotation change to trigger reconciliation")
	}
}

func TestResourceGenerationChangedPredicate(t *testing.T) {
	p := ResourceGenerationChangedPredicate()

	oldObj := &kaniopv1beta1.KanidmOAuth2Client{ObjectMeta: metav1.ObjectMeta{Generation: 1}}
	sameGen := &kaniopv1beta1.KanidmOAuth2Client{ObjectMeta: metav1.ObjectMeta{Generation: 1}}
	higherGen := &kaniopv1beta1.KanidmOAuth2Client{ObjectMeta: metav1.ObjectMeta{Generation: 2}}

	if p.Update(event.UpdateEvent{ObjectOld: oldObj, ObjectNew: sameGen}) {
		t.Fatal("expected unchanged generation to be filtered out")
	}
	if !p.Update(event.UpdateEvent{ObjectOld: oldObj, ObjectNew: higherGen}) {
		t.Fatal("expected generation bump to trigger reconciliation")
	}
}

func TestCreateDeleteGenericAlwaysReconcile(t *testing.T) {
	for _, p := range []interface {
		Create(event.CreateEvent) bool
		Delete(event.DeleteEvent) bool
		Generic(event.GenericEvent) bool
	}{KanidmPredicate(), EntityPredicate(), ResourceGenerationChangedPredicate()} {
		obj := &kaniopv1beta1.KanidmGroup{}
		if !p.Create(event.CreateEvent{Object: obj}) {
			t.Fatal("expected Create to always reconcile")
		}
		if !p.Delete(event.DeleteEvent{Object: obj}) {
			t.Fatal("expected Delete to always reconcile")
		}
		if !p.Generic(event.GenericEvent{Object: obj}) {
			t.Fatal("expected Generic to always reconcile")
		}
	}
}
