package person

import (
	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/backoff"
	"github.com/kaniop/kaniop/internal/constants"
)

func backoffKeyFor(person *kaniopv1beta1.KanidmPersonAccount) backoff.Key {
	return backoff.Key{Controller: constants.ControllerNamePerson, Namespace: person.Namespace, Name: person.Name}
}
