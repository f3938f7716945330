package igdb

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	guard := NewTokenGuard(&countingExchanger{}, 2*time.Minute, "", nil)
	require.NoError(t, guard.EnsureValid(context.Background()))

	client := NewClient("test-client-id", guard, 5*time.Second, nil)
	client.SetBaseURL(server.URL)
	t.Cleanup(client.Close)
	return client
}

func TestClient_Search(t *testing.T) {
	var gotBody, gotClientID, gotAuth string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/games", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(body)
		gotClientID = r.Header.Get("Client-ID")
		gotAuth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck // Test handler
		_, _ = w.Write([]byte(`[{"id":1020,"name":"Red Dead Redemption 2","slug":"red-dead-redemption-2","total_rating":93.4,"genres":[{"id":12,"name":"Adventure"}]}]`))
	})

	games, err := client.Search(context.Background(), SearchQuery("Red Dead  Redemption 2"))
	require.NoError(t, err)

	require.Len(t, games, 1)
	assert.Equal(t, int64(1020), games[0].ID)
	assert.Equal(t, "red-dead-redemption-2", games[0].Slug)
	require.Len(t, games[0].Genres, 1)
	assert.Equal(t, "Adventure", games[0].Genres[0].Name)

	assert.Contains(t, gotBody, `search "red dead redemption 2";`)
	assert.True(t, strings.HasPrefix(gotBody, "fields "), "default fields must be injected")
	assert.Equal(t, "test-client-id", gotClientID)
	assert.Equal(t, "Bearer token-1", gotAuth)
}

func TestClient_GetGame(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "where id = 1020;")

		//nolint:errcheck // Test handler
		_, _ = w.Write([]byte(`[{"id":1020,"name":"Red Dead Redemption 2","slug":"red-dead-redemption-2"}]`))
	})

	game, err := client.GetGame(context.Background(), 1020)
	require.NoError(t, err)
	assert.Equal(t, "Red Dead Redemption 2", game.Name)
}

func TestClient_GetGame_UnknownID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		//nolint:errcheck // Test handler
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.GetGame(context.Background(), 999999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_ServerErrorSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := client.Search(context.Background(), SearchQuery("anything"))
	assert.ErrorIs(t, err, ErrServer)
}

func TestClient_CredentialRejectedSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	})

	_, err := client.Search(context.Background(), SearchQuery("anything"))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"collapses whitespace", "  Red   Dead\tRedemption ", "red dead redemption"},
		{"lowercases", "HADES", "hades"},
		{"compatibility fold", "Ｈａｄｅｓ", "hades"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeQuery(tt.input))
		})
	}
}

func TestSearchQuery_StableCacheKey(t *testing.T) {
	assert.Equal(t, SearchQuery("Hades  II"), SearchQuery("hades ii"),
		"equivalent queries must build the identical body")
	assert.Contains(t, SearchQuery(`he said "hi"`), `\"hi\"`)
}
