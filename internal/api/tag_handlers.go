package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Vaalley/kohai/internal/service"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "submitTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/media/{type}/{slug}/tags",
		Summary:     "Submit tags",
		Description: "Replaces the authenticated user's live tags for a media item. At most three tags are kept, resolved by recency.",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSubmitTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMediaTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/media/{type}/{slug}/tags",
		Summary:     "Get media tags",
		Description: "Returns a media item's community tags with live contribution counts",
		Tags:        []string{"Tags"},
	}, s.handleGetMediaTags)
}

// === DTOs ===

// SubmitTagsBody is the request body for a tag submission.
type SubmitTagsBody struct {
	Tags []string `json:"tags" minItems:"1" maxItems:"3" doc:"Desired tag set, one to three tags"`
}

// SubmitTagsInput wraps a tag submission for Huma.
type SubmitTagsInput struct {
	MediaType string `path:"type" doc:"Media type (game)"`
	MediaSlug string `path:"slug" maxLength:"100" doc:"Media slug"`
	Body      SubmitTagsBody
}

// TagSetResponse is the media-wide distinct tag set after a submission.
type TagSetResponse struct {
	MediaType string    `json:"media_type" doc:"Media type"`
	MediaSlug string    `json:"media_slug" doc:"Media slug"`
	Tags      []string  `json:"tags" doc:"Distinct live tags, sorted"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last recomputation timestamp"`
}

// TagSetOutput wraps the tag set response for Huma.
type TagSetOutput struct {
	Body TagSetResponse
}

// GetMediaTagsInput identifies a media item and an optional result limit.
type GetMediaTagsInput struct {
	MediaType string `path:"type" doc:"Media type (game)"`
	MediaSlug string `path:"slug" maxLength:"100" doc:"Media slug"`
	Limit     int    `query:"limit" minimum:"0" doc:"Maximum tags to return, 0 for all"`
}

// TagCountResponse pairs a tag with its live contribution count.
type TagCountResponse struct {
	Tag   string `json:"tag" doc:"Canonical tag text"`
	Count int    `json:"count" doc:"Live contributions bearing this tag"`
}

// MediaTagsResponse contains a media item's counted tags.
type MediaTagsResponse struct {
	Tags []TagCountResponse `json:"tags" doc:"Tags sorted by count descending, then tag ascending"`
}

// MediaTagsOutput wraps the counted tags for Huma.
type MediaTagsOutput struct {
	Body MediaTagsResponse
}

// === Handlers ===

func (s *Server) handleSubmitTags(ctx context.Context, input *SubmitTagsInput) (*TagSetOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tagSet, err := s.services.Contribution.SubmitTags(ctx, userID, service.SubmitTagsRequest{
		MediaType: input.MediaType,
		MediaSlug: input.MediaSlug,
		Tags:      input.Body.Tags,
	})
	if err != nil {
		return nil, err
	}

	return &TagSetOutput{
		Body: TagSetResponse{
			MediaType: string(tagSet.MediaType),
			MediaSlug: string(tagSet.MediaSlug),
			Tags:      tagSet.Tags,
			UpdatedAt: tagSet.UpdatedAt,
		},
	}, nil
}

func (s *Server) handleGetMediaTags(ctx context.Context, input *GetMediaTagsInput) (*MediaTagsOutput, error) {
	counts, err := s.services.Contribution.GetTags(ctx, input.MediaType, input.MediaSlug, input.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]TagCountResponse, 0, len(counts))
	for _, tc := range counts {
		out = append(out, TagCountResponse{Tag: tc.Tag, Count: tc.Count})
	}

	return &MediaTagsOutput{Body: MediaTagsResponse{Tags: out}}, nil
}
