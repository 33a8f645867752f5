// Package diff implements the generic attribute-diffing primitive used
// by every identity-entity controller (spec §4.6, "idempotent attribute
// diffing"): comparing a desired set of values against Kanidm's current
// set and producing the minimal add/remove operations, the way the
// original reconcilers compute set differences before issuing
// idm_*_add_origin / idm_*_remove_origin-style calls (e.g. redirect URLs,
// OAuth2 scope maps).
package diff

// SetDiff is the result of comparing a desired set of comparable values
// against the current set: what must be added and what must be removed
// to converge current into desired.
type SetDiff[T comparable] struct {
	Add    []T
	Remove []T
}

// Empty reports whether no changes are required.
func (d SetDiff[T]) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// Sets computes the minimal add/remove operations to turn current into
// desired, in O(n) using one index and one pass (a Go generics
// generalization of the original's BTreeSet::difference calls).
func Sets[T comparable](current, desired []T) SetDiff[T] {
	currentSet := toSet(current)
	desiredSet := toSet(desired)

	var d SetDiff[T]
	for v := range desiredSet {
		if !currentSet[v] {
			d.Add = append(d.Add, v)
		}
	}
	for v := range currentSet {
		if !desiredSet[v] {
			d.Remove = append(d.Remove, v)
		}
	}
	return d
}

func toSet[T comparable](values []T) map[T]bool {
	set := make(map[T]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// Equal reports whether two sets contain the same elements regardless of
// order or duplicates, used by controllers to short-circuit a
// reconcile step when Kanidm's current attribute already matches the
// desired spec.
func Equal[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		setA, setB := toSet(a), toSet(b)
		if len(setA) != len(setB) {
			return false
		}
		for v := range setA {
			if !setB[v] {
				return false
			}
		}
		return true
	}
	setA := toSet(a)
	for _, v := range b {
		if !setA[v] {
			return false
		}
	}
	return true
}

// KeyedDiff is the result of comparing a desired map of keyed entries
// against the current map: entries to upsert (new or changed) and keys
// to remove, generalizing the original's per-group scope-map and
// claim-map diffing.
type KeyedDiff[K comparable, V any] struct {
	Upsert map[K]V
	Remove []K
}

// Maps computes the minimal upsert/remove operations to turn current
// into desired, using equal to decide whether an existing entry's value
// has changed.
func Maps[K comparable, V any](current, desired map[K]V, equal func(a, b V) bool) KeyedDiff[K, V] {
	d := KeyedDiff[K, V]{Upsert: make(map[K]V)}
	for k, v := range desired {
		existing, ok := current[k]
		if !ok || !equal(existing, v) {
			d.Upsert[k] = v
		}
	}
	for k := range current {
		if _, ok := desired[k]; !ok {
			d.Remove = append(d.Remove, k)
		}
	}
	return d
}
