package kanidmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceAccountLifecycleMethods(t *testing.T) {
	var deleted, unixExtended bool
	var destroyedTokenID string
	var issuedLabel string
	var issuedReadWrite bool

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/service_account", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/v1/service_account/bot", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(ServiceAccount{Name: "bot", DisplayName: "Bot"})
		case http.MethodDelete:
			deleted = true
		}
	})
	mux.HandleFunc("/v1/service_account/bot/_unix", func(w http.ResponseWriter, r *http.Request) { unixExtended = true })
	mux.HandleFunc("/v1/service_account/bot/_api_token", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Label     string `json:"label"`
			ReadWrite bool   `json:"read_write"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		issuedLabel = body.Label
		issuedReadWrite = body.ReadWrite
		_ = json.NewEncoder(w).Encode(APIToken{TokenID: "tok-1", Token: "secret-tok-1"})
	})
	mux.HandleFunc("/v1/service_account/bot/_api_token/", func(w http.ResponseWriter, r *http.Request) {
		destroyedTokenID = r.URL.Path[len("/v1/service_account/bot/_api_token/"):]
	})
	mux.HandleFunc("/v1/service_account/bot/_generate_password", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode("generated-password")
	})

	withAuthenticatedClient(t, mux, func(ctx context.Context, c *Client) error {
		sa, err := c.GetServiceAccount(ctx, "bot")
		require.NoError(t, err)
		assert.Equal(t, "Bot", sa.DisplayName)

		require.NoError(t, c.CreateServiceAccount(ctx, "bot", "Bot"))
		require.NoError(t, c.UpdateServiceAccount(ctx, "bot", map[string]any{"displayname": []string{"Bot v2"}}))

		token, err := c.GenerateAPIToken(ctx, "bot", "ci", nil, true)
		require.NoError(t, err)
		assert.Equal(t, "secret-tok-1", token.Token)

		require.NoError(t, c.DestroyAPIToken(ctx, "bot", "tok-1"))
		require.NoError(t, c.UnixExtendServiceAccount(ctx, "bot", nil))

		password, err := c.GenerateServiceAccountPassword(ctx, "bot")
		require.NoError(t, err)
		assert.Equal(t, "generated-password", password)

		require.NoError(t, c.DeleteServiceAccount(ctx, "bot"))
		return nil
	})

	assert.True(t, deleted)
	assert.True(t, unixExtended)
	assert.Equal(t, "ci", issuedLabel)
	assert.True(t, issuedReadWrite)
	assert.Equal(t, "tok-1", destroyedTokenID)
}
