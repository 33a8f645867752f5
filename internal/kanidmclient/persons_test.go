package kanidmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonLifecycleMethods(t *testing.T) {
	var deleted, unixExtended bool
	var patchedAttrs map[string]any
	var issuedTTL int64

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/person", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/v1/person/alice", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(Person{Name: "alice", DisplayName: "Alice"})
		case http.MethodPatch:
			var body struct {
				Attrs map[string]any `json:"attrs"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			patchedAttrs = body.Attrs
		case http.MethodDelete:
			deleted = true
		}
	})
	mux.HandleFunc("/v1/person/alice/_unix", func(w http.ResponseWriter, r *http.Request) { unixExtended = true })
	mux.HandleFunc("/v1/person/alice/_credential/_update_intent", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TTL int64 `json:"ttl"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		issuedTTL = body.TTL
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "reset-abc"})
	})
	mux.HandleFunc("/v1/person/alice/_credential/_status", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(CredentialStatus{CredentialType: "password"})
	})

	withAuthenticatedClient(t, mux, func(ctx context.Context, c *Client) error {
		p, err := c.GetPerson(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "Alice", p.DisplayName)

		require.NoError(t, c.CreatePerson(ctx, "alice", "Alice"))
		require.NoError(t, c.UpdatePerson(ctx, "alice", map[string]any{"legalname": []string{"Alice Smith"}}))

		token, err := c.IssueCredentialResetToken(ctx, "alice", 3600)
		require.NoError(t, err)
		assert.Equal(t, "reset-abc", token)

		status, err := c.GetPersonCredentialStatus(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "password", status.CredentialType)

		require.NoError(t, c.UnixExtendPerson(ctx, "alice", nil, "/bin/zsh"))
		require.NoError(t, c.DeletePerson(ctx, "alice"))
		return nil
	})

	assert.True(t, deleted)
	assert.True(t, unixExtended)
	assert.Equal(t, int64(3600), issuedTTL)
	require.NotNil(t, patchedAttrs)
	assert.Equal(t, []any{"Alice Smith"}, patchedAttrs["legalname"])
}
