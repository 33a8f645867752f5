package oauth2client

import (
	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/backoff"
	"github.com/kaniop/kaniop/internal/constants"
)

func backoffKeyFor(client *kaniopv1beta1.KanidmOAuth2Client) backoff.Key {
	return backoff.Key{Controller: constants.ControllerNameOAuth2Client, Namespace: client.Namespace, Name: client.Name}
}
