/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package controller

import (
	"k8s.io/apimachinery/pkg/api/equality"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/predicate"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
)

// KanidmPredicate filters Kanidm events to only reconcile on meaningful
// changes, so status-only updates (replica counts, conditions) don't
// cause the operator to wake up for nothing.
func KanidmPredicate() predicate.Predicate {
	return predicate.Funcs{
		CreateFunc: func(e event.CreateEvent) bool { return true },
		DeleteFunc: func(e event.DeleteEvent) bool { return true },
		UpdateFunc: func(e event.UpdateEvent) bool {
			oldObj, ok := e.ObjectOld.(*kaniopv1beta1.Kanidm)
			if !ok {
				return true
			}
			newObj, ok := e.ObjectNew.(*kaniopv1beta1.Kanidm)
			if !ok {
				return true
			}
			return commonMetaChanged(oldObj, newObj)
		},
		GenericFunc: func(e event.GenericEvent) bool { return true },
	}
}

// EntityPredicate filters the four identity-entity CR types (KanidmGroup,
// KanidmPersonAccount, KanidmOAuth2Client, KanidmServiceAccount) to only
// reconcile on meaningful changes. All four share the same shape of
// status-only noise (conditions, observedGeneration), so one predicate
// serves them all.
func EntityPredicate() predicate.Predicate {
	return predicate.Funcs{
		CreateFunc: func(e event.CreateEvent) bool { return true },
		DeleteFunc: func(e event.DeleteEvent) bool { return true },
		UpdateFunc: func(e event.UpdateEvent) bool {
			oldObj, ok := e.ObjectOld.(metav1.Object)
			if !ok {
				return true
			}
			newObj, ok := e.ObjectNew.(metav1.Object)
			if !ok {
				return true
			}
			return commonMetaChanged(oldObj, newObj)
		},
		GenericFunc: func(e event.GenericEvent) bool { return true },
	}
}

// commonMetaChanged reports whether two objects differ in any way that
// should trigger reconciliation: generation, deletion timestamp,
// finalizers, labels, or annotations. Status-only changes return false.
func commonMetaChanged(oldObj, newObj metav1.Object) bool {
	if oldObj.GetGeneration() != newObj.GetGeneration() {
		return true
	}
	oldDel, newDel := oldObj.GetDeletionTimestamp(), newObj.GetDeletionTimestamp()
	if !oldDel.Equal(newDel) {
		return true
	}
	if !equality.Semantic.DeepEqual(oldObj.GetFinalizers(), newObj.GetFinalizers()) {
		return true
	}
	if !equality.Semantic.DeepEqual(oldObj.GetLabels(), newObj.GetLabels()) {
		return true
	}
	if !equality.Semantic.DeepEqual(oldObj.GetAnnotations(), newObj.GetAnnotations()) {
		return true
	}
	return false
}

// ResourceGenerationChangedPredicate filters update events to only
// trigger reconciliation when Generation changes, for any resource that
// follows the standard Kubernetes spec/generation convention.
func ResourceGenerationChangedPredicate() predicate.Predicate {
	return predicate.Funcs{
		CreateFunc: func(e event.CreateEvent) bool { return true },
		DeleteFunc: func(e event.DeleteEvent) bool { return true },
		UpdateFunc: func(e event.UpdateEvent) bool {
			oldObj, ok := e.ObjectOld.(metav1.Object)
			if !ok {
				return true
			}
			newObj, ok := e.ObjectNew.(metav1.Object)
			if !ok {
				return true
			}
			return oldObj.GetGeneration() != newObj.GetGeneration()
		},
		GenericFunc: func(e event.GenericEvent) bool { return true },
	}
}
