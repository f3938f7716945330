package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Vaalley/kohai/internal/igdb"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchGames",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/search",
		Summary:     "Search games",
		Description: "Free-text search against the IGDB catalog, served from cache when possible",
		Tags:        []string{"Catalog"},
	}, s.handleSearchGames)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGame",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{id}",
		Summary:     "Get game",
		Description: "Returns one game by its IGDB ID, served from cache when possible",
		Tags:        []string{"Catalog"},
	}, s.handleGetGame)
}

// === DTOs ===

// SearchGamesInput carries the free-text search query.
type SearchGamesInput struct {
	Query string `query:"q" required:"true" maxLength:"200" doc:"Free-text search query"`
}

// SearchGamesResponse contains catalog search results.
type SearchGamesResponse struct {
	Games []igdb.Game `json:"games" doc:"Matching games, at most 20"`
}

// SearchGamesOutput wraps search results for Huma.
type SearchGamesOutput struct {
	Body SearchGamesResponse
}

// GameIDInput carries a game ID path parameter.
type GameIDInput struct {
	ID int64 `path:"id" minimum:"1" doc:"IGDB game ID"`
}

// GameOutput wraps one game for Huma.
type GameOutput struct {
	Body igdb.Game
}

// === Handlers ===

func (s *Server) handleSearchGames(ctx context.Context, input *SearchGamesInput) (*SearchGamesOutput, error) {
	games, err := s.services.Catalog.Search(ctx, input.Query)
	if err != nil {
		return nil, err
	}

	return &SearchGamesOutput{Body: SearchGamesResponse{Games: games}}, nil
}

func (s *Server) handleGetGame(ctx context.Context, input *GameIDInput) (*GameOutput, error) {
	game, err := s.services.Catalog.GetDetail(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &GameOutput{Body: *game}, nil
}
