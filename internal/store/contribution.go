package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Vaalley/kohai/internal/domain"
)

// txnRetries is how many times a write transaction is retried after an
// optimistic concurrency conflict before giving up.
const txnRetries = 3

// ListUserMediaContributions returns one user's live contribution rows on
// a media item, in key order (tag ascending).
func (s *Store) ListUserMediaContributions(ctx context.Context, mediaType domain.MediaType, slug domain.MediaSlug, userID string) ([]*domain.Contribution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := contributionUserMediaPrefix(string(mediaType), string(slug), userID)
	return s.scanContributions(prefix)
}

// ListMediaContributions returns every live contribution row on a media
// item, across all users.
func (s *Store) ListMediaContributions(ctx context.Context, mediaType domain.MediaType, slug domain.MediaSlug) ([]*domain.Contribution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := contributionMediaPrefix(string(mediaType), string(slug))
	return s.scanContributions(prefix)
}

// ListUserContributions returns every live contribution row a user has,
// across all media, via the per-user mirror index.
func (s *Store) ListUserContributions(ctx context.Context, userID string) ([]*domain.Contribution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := contributionUserScanPrefix(userID)
	var contributions []*domain.Contribution

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// The mirror value is the primary row key.
			var primaryKey []byte
			err := it.Item().Value(func(val []byte) error {
				primaryKey = append([]byte(nil), val...)
				return nil
			})
			if err != nil {
				return err
			}

			item, err := txn.Get(primaryKey)
			if errors.Is(err, badger.ErrKeyNotFound) {
				// Orphaned mirror entry, skip it.
				continue
			}
			if err != nil {
				return err
			}

			var c domain.Contribution
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			}); err != nil {
				return err
			}
			contributions = append(contributions, &c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list user contributions: %w", err)
	}

	return contributions, nil
}

// ApplyReconcile applies a reconcile result for one (user, media) pair
// and recomputes the media's aggregated tag set, all in a single
// transaction. The transaction is retried on optimistic conflicts so
// concurrent submissions against the same media serialize cleanly.
// ToInsert rows must have their IDs assigned by the caller.
func (s *Store) ApplyReconcile(ctx context.Context, mediaType domain.MediaType, slug domain.MediaSlug, res domain.ReconcileResult, now time.Time) (*domain.MediaTagSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tagSet *domain.MediaTagSet
	var err error
	for attempt := 0; attempt < txnRetries; attempt++ {
		tagSet, err = s.applyReconcileOnce(mediaType, slug, res, now)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		if s.logger != nil {
			s.logger.Debug("reconcile transaction conflict, retrying",
				"media_type", mediaType, "slug", slug, "attempt", attempt+1)
		}
	}
	if errors.Is(err, badger.ErrConflict) {
		return nil, ErrTxnConflict.WithCause(err)
	}
	if err != nil {
		return nil, fmt.Errorf("apply reconcile: %w", err)
	}

	return tagSet, nil
}

func (s *Store) applyReconcileOnce(mediaType domain.MediaType, slug domain.MediaSlug, res domain.ReconcileResult, now time.Time) (*domain.MediaTagSet, error) {
	var tagSet *domain.MediaTagSet

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, c := range res.ToDelete {
			if err := deleteContributionRow(txn, c); err != nil {
				return err
			}
		}

		for _, c := range res.ToRefresh {
			if err := writeContributionRow(txn, c); err != nil {
				return err
			}
		}
		for _, c := range res.ToInsert {
			if err := writeContributionRow(txn, c); err != nil {
				return err
			}
		}

		var err error
		tagSet, err = recomputeTagSet(txn, mediaType, slug, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	return tagSet, nil
}

// GetMediaTagSet returns the aggregated tag set of a media item.
// Returns ErrTagSetNotFound when no live contributions exist for it.
func (s *Store) GetMediaTagSet(ctx context.Context, mediaType domain.MediaType, slug domain.MediaSlug) (*domain.MediaTagSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tagSet domain.MediaTagSet
	err := s.get(mediaTagsKey(string(mediaType), string(slug)), &tagSet)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrTagSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media tag set: %w", err)
	}

	return &tagSet, nil
}

// DeleteUserContributions removes every contribution row a user has and
// recomputes the aggregates of each affected media item. Used when a
// user account is deleted. Returns the number of rows removed.
func (s *Store) DeleteUserContributions(ctx context.Context, userID string) (int, error) {
	rows, err := s.ListUserContributions(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	// Group rows by media so each media's aggregate is recomputed once.
	type mediaKey struct {
		mediaType domain.MediaType
		slug      domain.MediaSlug
	}
	byMedia := make(map[mediaKey][]*domain.Contribution)
	for _, c := range rows {
		k := mediaKey{c.MediaType, c.MediaSlug}
		byMedia[k] = append(byMedia[k], c)
	}

	now := time.Now()
	for k, group := range byMedia {
		res := domain.ReconcileResult{ToDelete: group}
		if _, err := s.ApplyReconcile(ctx, k.mediaType, k.slug, res, now); err != nil {
			return 0, fmt.Errorf("delete contributions on %s/%s: %w", k.mediaType, k.slug, err)
		}
	}

	return len(rows), nil
}

// scanContributions collects all contribution rows under a key prefix.
func (s *Store) scanContributions(prefix []byte) ([]*domain.Contribution, error) {
	var contributions []*domain.Contribution

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var c domain.Contribution
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			})
			if err != nil {
				return err
			}
			contributions = append(contributions, &c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan contributions: %w", err)
	}

	return contributions, nil
}

func writeContributionRow(txn *badger.Txn, c *domain.Contribution) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal contribution: %w", err)
	}

	key := contributionKey(string(c.MediaType), string(c.MediaSlug), c.UserID, string(c.Tag))
	if err := txn.Set(key, data); err != nil {
		return err
	}

	mirror := contributionUserKey(c.UserID, string(c.MediaType), string(c.MediaSlug), string(c.Tag))
	return txn.Set(mirror, key)
}

func deleteContributionRow(txn *badger.Txn, c *domain.Contribution) error {
	key := contributionKey(string(c.MediaType), string(c.MediaSlug), c.UserID, string(c.Tag))
	if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}

	mirror := contributionUserKey(c.UserID, string(c.MediaType), string(c.MediaSlug), string(c.Tag))
	if err := txn.Delete(mirror); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	return nil
}

// recomputeTagSet rebuilds a media's aggregated tag set from its live
// contribution rows inside the same transaction, so the aggregate can
// never drift from the rows it summarizes. The iterator sees the
// transaction's own pending writes.
func recomputeTagSet(txn *badger.Txn, mediaType domain.MediaType, slug domain.MediaSlug, now time.Time) (*domain.MediaTagSet, error) {
	prefix := contributionMediaPrefix(string(mediaType), string(slug))

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	var rows []*domain.Contribution
	it := txn.NewIterator(opts)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var c domain.Contribution
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &c)
		})
		if err != nil {
			it.Close()
			return nil, err
		}
		rows = append(rows, &c)
	}
	it.Close()

	key := mediaTagsKey(string(mediaType), string(slug))

	tags := domain.AggregateTags(rows)
	if len(tags) == 0 {
		// No live contributions left, drop the aggregate entirely.
		if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return nil, err
		}
		return &domain.MediaTagSet{MediaSlug: slug, MediaType: mediaType, UpdatedAt: now}, nil
	}

	tagSet := &domain.MediaTagSet{
		MediaSlug: slug,
		MediaType: mediaType,
		Tags:      tags,
		UpdatedAt: now,
	}

	data, err := json.Marshal(tagSet)
	if err != nil {
		return nil, fmt.Errorf("marshal tag set: %w", err)
	}
	if err := txn.Set(key, data); err != nil {
		return nil, err
	}

	return tagSet, nil
}
