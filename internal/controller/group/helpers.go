package group

import (
	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/backoff"
	"github.com/kaniop/kaniop/internal/constants"
)

func backoffKeyFor(group *kaniopv1beta1.KanidmGroup) backoff.Key {
	return backoff.Key{Controller: constants.ControllerNameGroup, Namespace: group.Namespace, Name: group.Name}
}
