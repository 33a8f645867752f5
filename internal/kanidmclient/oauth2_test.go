package kanidmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuth2ClientLifecycleMethods(t *testing.T) {
	var deleted bool
	var scopeMapGroup, claimMapGroup string
	var removedOrigin string
	var strictFlagSet bool

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/_basic", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/v1/oauth2/app", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(OAuth2Client{Name: "app", DisplayName: "App"})
		case http.MethodDelete:
			deleted = true
		}
	})
	mux.HandleFunc("/v1/oauth2/app/_basic_secret", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"secret": "topsecret"})
	})
	mux.HandleFunc("/v1/oauth2/app/_attr/oauth2_rs_origin_landing/", func(w http.ResponseWriter, r *http.Request) {
		removedOrigin = "https://old.example.com"
	})
	mux.HandleFunc("/v1/oauth2/app/_scopemap/admins", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			return
		}
		var body struct {
			Group string `json:"group"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		scopeMapGroup = body.Group
	})
	mux.HandleFunc("/v1/oauth2/app/_claimmap/department/admins", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Group string `json:"group"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		claimMapGroup = body.Group
	})
	mux.HandleFunc("/v1/oauth2/app/_attr/oauth2_strict_redirect_uri", func(w http.ResponseWriter, r *http.Request) {
		strictFlagSet = r.Method == http.MethodPut
	})

	withAuthenticatedClient(t, mux, func(ctx context.Context, c *Client) error {
		client, err := c.GetOAuth2Client(ctx, "app")
		require.NoError(t, err)
		assert.Equal(t, "App", client.DisplayName)

		require.NoError(t, c.CreateBasicOAuth2Client(ctx, "app", "App", "https://app.example.com"))

		secret, err := c.GetOAuth2ClientSecret(ctx, "app")
		require.NoError(t, err)
		assert.Equal(t, "topsecret", secret)

		require.NoError(t, c.RemoveOAuth2RedirectOrigin(ctx, "app", "https://old.example.com"))
		require.NoError(t, c.UpdateOAuth2ScopeMap(ctx, "app", "admins", []string{"openid"}))
		require.NoError(t, c.UpdateOAuth2ClaimMap(ctx, "app", "department", "admins", []string{"eng"}))
		require.NoError(t, c.SetOAuth2StrictRedirectURL(ctx, "app", true))
		require.NoError(t, c.DeleteOAuth2Client(ctx, "app"))
		return nil
	})

	assert.True(t, deleted)
	assert.Equal(t, "admins", scopeMapGroup)
	assert.Equal(t, "admins", claimMapGroup)
	assert.Equal(t, "https://old.example.com", removedOrigin)
	assert.True(t, strictFlagSet)
}
