package api

import (
	"context"
	"encoding/hex"
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/Vaalley/kohai/internal/auth"
	"github.com/Vaalley/kohai/internal/config"
	"github.com/Vaalley/kohai/internal/igdb"
	"github.com/Vaalley/kohai/internal/moderation"
	"github.com/Vaalley/kohai/internal/service"
	"github.com/Vaalley/kohai/internal/store"
)

// testEnvelope mirrors the wire envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// testErrorEnvelope mirrors the coded error envelope.
type testErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api           humatest.TestAPI
	upstreamCalls *atomic.Int64
}

// fakeExchanger hands out a long-lived fake catalog credential.
type fakeExchanger struct{}

func (fakeExchanger) Exchange(_ context.Context) (igdb.Credential, error) {
	return igdb.Credential{AccessToken: "test-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

// setupTestServer creates a fully wired server backed by a temp store and
// a fake catalog upstream that replies with the given JSON payload.
func setupTestServer(t *testing.T, upstreamPayload string) *testServer {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		//nolint:errcheck // Best-effort cleanup
		_ = st.Close()
	})

	authKey, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	var upstreamCalls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		upstreamCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck // Test handler
		_, _ = w.Write([]byte(upstreamPayload))
	}))
	t.Cleanup(upstream.Close)

	guard := igdb.NewTokenGuard(fakeExchanger{}, 2*time.Minute, "", nil)
	client := igdb.NewClient("test-client", guard, 5*time.Second, nil)
	client.SetBaseURL(upstream.URL)
	t.Cleanup(client.Close)

	sessionService := service.NewSessionService(st, tokenService, logger)
	authService := service.NewAuthService(st, tokenService, sessionService, logger)
	userService := service.NewUserService(st, logger)
	contributionService := service.NewContributionService(st, moderation.NewFilter(nil), logger)
	catalogService := service.NewCatalogService(
		client,
		guard,
		igdb.NewCache[[]igdb.Game](50, 10*time.Minute),
		igdb.NewCache[*igdb.Game](50, 10*time.Minute),
		logger,
	)

	services := &Services{
		Auth:         authService,
		Session:      sessionService,
		User:         userService,
		Contribution: contributionService,
		Catalog:      catalogService,
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			Name:        "Kohai Test",
			CORSOrigins: []string{"*"},
		},
	}

	s := NewServer(st, services, cfg, logger)
	t.Cleanup(s.Close)

	return &testServer{
		Server:        s,
		api:           humatest.Wrap(t, s.api),
		upstreamCalls: &upstreamCalls,
	}
}

// registerUser creates a user and returns the auth payload.
func (ts *testServer) registerUser(t *testing.T, username, email string) AuthResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": username,
		"email":    email,
		"password": "a-strong-password",
	})
	require.Equal(t, http.StatusOK, resp.Code, "registration failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}
