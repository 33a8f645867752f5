package serviceaccount

import (
	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/backoff"
	"github.com/kaniop/kaniop/internal/constants"
)

func backoffKeyFor(sa *kaniopv1beta1.KanidmServiceAccount) backoff.Key {
	return backoff.Key{Controller: constants.ControllerNameServiceAccount, Namespace: sa.Namespace, Name: sa.Name}
}
