package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/Vaalley/kohai/internal/errors"
	"github.com/Vaalley/kohai/internal/igdb"
)

// staticExchanger hands out a long-lived fake credential.
type staticExchanger struct{}

func (staticExchanger) Exchange(_ context.Context) (igdb.Credential, error) {
	return igdb.Credential{AccessToken: "test-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func newCatalogService(t *testing.T, handler http.HandlerFunc) (*CatalogService, *atomic.Int64) {
	t.Helper()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	guard := igdb.NewTokenGuard(staticExchanger{}, 2*time.Minute, "", nil)
	client := igdb.NewClient("test-client", guard, 5*time.Second, nil)
	client.SetBaseURL(server.URL)
	t.Cleanup(client.Close)

	svc := NewCatalogService(
		client,
		guard,
		igdb.NewCache[[]igdb.Game](50, 10*time.Minute),
		igdb.NewCache[*igdb.Game](50, 10*time.Minute),
		testLogger(),
	)
	return svc, &calls
}

func gamesHandler(payload string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck // Test handler
		_, _ = w.Write([]byte(payload))
	}
}

func TestSearch_CacheHitSkipsUpstream(t *testing.T) {
	svc, calls := newCatalogService(t, gamesHandler(`[{"id":1,"name":"Hades","slug":"hades"}]`))
	ctx := context.Background()

	first, err := svc.Search(ctx, "Hades")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, int64(1), calls.Load())

	// Same logical query, different spacing and case: same cache entry.
	second, err := svc.Search(ctx, "  hades ")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), calls.Load(), "a cache hit must not call upstream")
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	svc, calls := newCatalogService(t, gamesHandler(`[]`))

	_, err := svc.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Equal(t, int64(0), calls.Load())
}

func TestSearch_UpstreamFailureNotCached(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)

	svc, calls := newCatalogService(t, func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		gamesHandler(`[{"id":1,"name":"Hades","slug":"hades"}]`)(w, nil)
	})
	ctx := context.Background()

	_, err := svc.Search(ctx, "hades")
	assert.ErrorIs(t, err, domainerrors.ErrUpstreamUnavailable)

	// Upstream recovers; the failure must not have poisoned the cache.
	fail.Store(false)
	games, err := svc.Search(ctx, "hades")
	require.NoError(t, err)
	assert.Len(t, games, 1)
	assert.Equal(t, int64(2), calls.Load())
}

func TestSearch_ConcurrentMissesCoalesce(t *testing.T) {
	svc, calls := newCatalogService(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(30 * time.Millisecond)
		gamesHandler(`[{"id":1,"name":"Hades","slug":"hades"}]`)(w, r)
	})
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			games, err := svc.Search(ctx, "hades")
			assert.NoError(t, err)
			assert.Len(t, games, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "concurrent identical misses share one upstream call")
}

func TestGetDetail_CachedSeparatelyFromSearch(t *testing.T) {
	svc, calls := newCatalogService(t, gamesHandler(`[{"id":1020,"name":"Red Dead Redemption 2","slug":"red-dead-redemption-2"}]`))
	ctx := context.Background()

	game, err := svc.GetDetail(ctx, 1020)
	require.NoError(t, err)
	assert.Equal(t, "red-dead-redemption-2", game.Slug)

	_, err = svc.GetDetail(ctx, 1020)
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestGetDetail_NotFound(t *testing.T) {
	svc, _ := newCatalogService(t, gamesHandler(`[]`))

	_, err := svc.GetDetail(context.Background(), 999)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestGetDetail_InvalidID(t *testing.T) {
	svc, calls := newCatalogService(t, gamesHandler(`[]`))

	_, err := svc.GetDetail(context.Background(), 0)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Equal(t, int64(0), calls.Load())
}
