package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	domainerrors "github.com/Vaalley/kohai/internal/errors"
	"github.com/Vaalley/kohai/internal/igdb"
)

// CatalogService fronts the IGDB catalog with the token guard and the
// two bounded caches. Concurrent misses on the same key are coalesced
// into one upstream call per cache via singleflight.
type CatalogService struct {
	client      *igdb.Client
	guard       *igdb.TokenGuard
	searchCache *igdb.Cache[[]igdb.Game]
	detailCache *igdb.Cache[*igdb.Game]
	group       singleflight.Group
	logger      *slog.Logger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(client *igdb.Client, guard *igdb.TokenGuard, searchCache *igdb.Cache[[]igdb.Game], detailCache *igdb.Cache[*igdb.Game], logger *slog.Logger) *CatalogService {
	return &CatalogService{
		client:      client,
		guard:       guard,
		searchCache: searchCache,
		detailCache: detailCache,
		logger:      logger,
	}
}

// Search runs a free-text catalog search, served from cache when a fresh
// entry exists. The cache key is the exact query body sent upstream.
func (s *CatalogService) Search(ctx context.Context, query string) ([]igdb.Game, error) {
	if igdb.NormalizeQuery(query) == "" {
		return nil, domainerrors.Validation("search query cannot be empty")
	}

	key := igdb.SearchQuery(query)
	if games, ok := s.searchCache.Get(key); ok {
		return games, nil
	}

	result, err, _ := s.group.Do("search:"+key, func() (any, error) {
		// Re-check: a coalesced waiter may arrive after the leader
		// already populated the cache.
		if games, ok := s.searchCache.Get(key); ok {
			return games, nil
		}

		if err := s.guard.EnsureValid(ctx); err != nil {
			return nil, s.upstreamError(err)
		}

		games, err := s.client.Search(ctx, key)
		if err != nil {
			return nil, s.upstreamError(err)
		}

		s.searchCache.Set(key, games)
		return games, nil
	})
	if err != nil {
		return nil, err
	}

	games, ok := result.([]igdb.Game)
	if !ok {
		return nil, fmt.Errorf("unexpected search result type %T", result)
	}
	return games, nil
}

// GetDetail returns one game by IGDB ID, served from the detail cache
// when a fresh entry exists.
func (s *CatalogService) GetDetail(ctx context.Context, gameID int64) (*igdb.Game, error) {
	if gameID <= 0 {
		return nil, domainerrors.Validation("game id must be positive")
	}

	key := strconv.FormatInt(gameID, 10)
	if game, ok := s.detailCache.Get(key); ok {
		return game, nil
	}

	result, err, _ := s.group.Do("detail:"+key, func() (any, error) {
		if game, ok := s.detailCache.Get(key); ok {
			return game, nil
		}

		if err := s.guard.EnsureValid(ctx); err != nil {
			return nil, s.upstreamError(err)
		}

		game, err := s.client.GetGame(ctx, gameID)
		if err != nil {
			if errors.Is(err, igdb.ErrNotFound) {
				return nil, domainerrors.NotFoundf("game %d not found", gameID)
			}
			return nil, s.upstreamError(err)
		}

		s.detailCache.Set(key, game)
		return game, nil
	})
	if err != nil {
		return nil, err
	}

	game, ok := result.(*igdb.Game)
	if !ok {
		return nil, fmt.Errorf("unexpected detail result type %T", result)
	}
	return game, nil
}

// CredentialValid reports whether a usable upstream credential is held
// right now. A false answer is not fatal: the next catalog call refreshes
// the credential on demand.
func (s *CatalogService) CredentialValid() bool {
	return s.guard.IsValid()
}

// upstreamError maps catalog failures onto the temporarily-unavailable
// condition callers can distinguish. Failures never poison the cache.
func (s *CatalogService) upstreamError(err error) error {
	s.logger.Warn("catalog upstream failure", "error", err)
	return domainerrors.UpstreamUnavailable("game catalog is temporarily unavailable").WithCause(err)
}
