package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Vaalley/kohai/internal/domain"
	domainerrors "github.com/Vaalley/kohai/internal/errors"
	"github.com/Vaalley/kohai/internal/id"
	"github.com/Vaalley/kohai/internal/moderation"
	"github.com/Vaalley/kohai/internal/store"
)

// ContributionService is the write and read path for community tags:
// moderation, reconciliation against the submitter's live rows, and the
// media-wide aggregate.
type ContributionService struct {
	store  *store.Store
	filter *moderation.Filter
	logger *slog.Logger
}

// NewContributionService creates a contribution service.
func NewContributionService(s *store.Store, filter *moderation.Filter, logger *slog.Logger) *ContributionService {
	return &ContributionService{
		store:  s,
		filter: filter,
		logger: logger,
	}
}

// SubmitTagsRequest is one user's desired tag set for one media item.
type SubmitTagsRequest struct {
	MediaType string   `json:"media_type" validate:"required"`
	MediaSlug string   `json:"media_slug" validate:"required"`
	Tags      []string `json:"tags" validate:"required,min=1,max=3,dive,min=1,max=30"`
}

// SubmitTags reconciles a user's submission against their live rows and
// recomputes the media's aggregate. The whole submission is atomic: one
// blocked tag rejects everything, and no partial state is written.
func (s *ContributionService) SubmitTags(ctx context.Context, userID string, req SubmitTagsRequest) (*domain.MediaTagSet, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	mediaType, err := domain.ParseMediaType(req.MediaType)
	if err != nil {
		return nil, err
	}
	slug, err := domain.NewMediaSlug(req.MediaSlug)
	if err != nil {
		return nil, err
	}

	submitted := make([]domain.TagText, 0, len(req.Tags))
	for _, raw := range req.Tags {
		tag, err := domain.NewTagText(raw)
		if err != nil {
			return nil, err
		}
		if s.filter.IsBlocked(string(tag)) {
			s.logger.Info("blocked tag submission",
				"user_id", userID, "media_slug", slug)
			return nil, domainerrors.BlockedContent("tag contains blocked content")
		}
		submitted = append(submitted, tag)
	}

	existing, err := s.store.ListUserMediaContributions(ctx, mediaType, slug, userID)
	if err != nil {
		return nil, fmt.Errorf("load live contributions: %w", err)
	}

	now := time.Now()
	result := domain.Reconcile(existing, submitted, now)

	for _, c := range result.ToInsert {
		contribID, err := id.Generate("contrib")
		if err != nil {
			return nil, fmt.Errorf("generate contribution ID: %w", err)
		}
		c.ID = contribID
		c.UserID = userID
		c.MediaSlug = slug
		c.MediaType = mediaType
	}

	tagSet, err := s.store.ApplyReconcile(ctx, mediaType, slug, result, now)
	if err != nil {
		if errors.Is(err, store.ErrTxnConflict) {
			return nil, domainerrors.Conflict("concurrent submission, please retry").WithCause(err)
		}
		return nil, fmt.Errorf("persist submission: %w", err)
	}

	s.logger.Info("tags submitted",
		"user_id", userID,
		"media_slug", slug,
		"inserted", len(result.ToInsert),
		"refreshed", len(result.ToRefresh),
		"deleted", len(result.ToDelete))

	return tagSet, nil
}

// GetTags returns a media item's tags with live contribution counts,
// sorted by count descending then tag ascending. A media item nobody has
// tagged yields an empty list, not an error. A positive limit truncates
// the list.
func (s *ContributionService) GetTags(ctx context.Context, mediaTypeRaw, slugRaw string, limit int) ([]domain.TagCount, error) {
	mediaType, err := domain.ParseMediaType(mediaTypeRaw)
	if err != nil {
		return nil, err
	}
	slug, err := domain.NewMediaSlug(slugRaw)
	if err != nil {
		return nil, err
	}

	tagSet, err := s.store.GetMediaTagSet(ctx, mediaType, slug)
	if err != nil {
		if errors.Is(err, store.ErrTagSetNotFound) {
			return []domain.TagCount{}, nil
		}
		return nil, fmt.Errorf("load tag set: %w", err)
	}

	contributions, err := s.store.ListMediaContributions(ctx, mediaType, slug)
	if err != nil {
		return nil, fmt.Errorf("load contributions: %w", err)
	}

	// Counting is restricted to the aggregate's current tags so a tag
	// evicted by every user cannot reappear through a count race.
	return domain.CountTags(contributions, tagSet.Tags, limit), nil
}

// ListUserContributions returns a user's live contributions across all
// media, most recently touched first.
func (s *ContributionService) ListUserContributions(ctx context.Context, userID string) ([]*domain.Contribution, error) {
	contributions, err := s.store.ListUserContributions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}

	slices.SortStableFunc(contributions, func(a, b *domain.Contribution) int {
		switch {
		case a.UpdatedAt.After(b.UpdatedAt):
			return -1
		case b.UpdatedAt.After(a.UpdatedAt):
			return 1
		default:
			return 0
		}
	})

	return contributions, nil
}
