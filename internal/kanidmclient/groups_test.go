package kanidmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withAuthenticatedClient(t *testing.T, mux *http.ServeMux, fn func(ctx context.Context, c *Client) error) {
	t.Helper()
	mux.HandleFunc("/v1/auth", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-KANIDM-AUTH-SESSION-ID", "session-token")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"state":     map[string]any{"success": "ok"},
			"sessionid": "session-token",
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	pool, cluster := testPool(t, server)
	require.NoError(t, pool.WithSession(context.Background(), cluster, fn))
}

func TestGroupLifecycleMethods(t *testing.T) {
	var deleted, membersSet, mailPurged bool
	var lastGID *int64

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/group", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/v1/group/eng", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deleted = true
			return
		}
		_ = json.NewEncoder(w).Encode(Group{Name: "eng", UUID: "abc"})
	})
	mux.HandleFunc("/v1/group/eng/_attr/member", func(w http.ResponseWriter, r *http.Request) { membersSet = true })
	mux.HandleFunc("/v1/group/eng/_attr/mail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			mailPurged = true
		}
	})
	mux.HandleFunc("/v1/group/eng/_unix", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GIDNumber *int64 `json:"gidnumber"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		lastGID = body.GIDNumber
	})

	withAuthenticatedClient(t, mux, func(ctx context.Context, c *Client) error {
		g, err := c.GetGroup(ctx, "eng")
		require.NoError(t, err)
		assert.Equal(t, "abc", g.UUID)

		require.NoError(t, c.CreateGroup(ctx, "eng", ""))
		require.NoError(t, c.SetGroupMembers(ctx, "eng", []string{"alice@idm.example.com"}))
		require.NoError(t, c.PurgeGroupMail(ctx, "eng"))

		gid := int64(1234)
		require.NoError(t, c.UnixExtendGroup(ctx, "eng", &gid))
		require.NoError(t, c.DeleteGroup(ctx, "eng"))
		return nil
	})

	assert.True(t, deleted)
	assert.True(t, membersSet)
	assert.True(t, mailPurged)
	require.NotNil(t, lastGID)
	assert.Equal(t, int64(1234), *lastGID)
}

func TestGetGroupNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/group/nope", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	withAuthenticatedClient(t, mux, func(ctx context.Context, c *Client) error {
		_, err := c.GetGroup(ctx, "nope")
		assert.Error(t, err)
		return nil
	})
}
