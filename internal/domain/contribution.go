package domain

import (
	"slices"
	"strings"
	"time"
)

// MaxLiveTags is the maximum number of live contributions a user may hold
// for one media item. Submissions beyond this are resolved by recency.
const MaxLiveTags = 3

// Contribution is one user's claim of one tag on one media item.
// At most MaxLiveTags rows exist per (user, media slug, media type).
type Contribution struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	MediaSlug MediaSlug `json:"media_slug"`
	MediaType MediaType `json:"media_type"`
	Tag       TagText   `json:"tag"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch refreshes the contribution's recency.
func (c *Contribution) Touch(now time.Time) {
	c.UpdatedAt = now
}

// MediaTagSet is the derived, distinct union of all live tags across all
// users for one media item. It is never written directly: the aggregation
// step recomputes it from contributions after every submission. An empty
// set is represented by the absence of the record, never by empty tags.
type MediaTagSet struct {
	MediaSlug MediaSlug `json:"media_slug"`
	MediaType MediaType `json:"media_type"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TagCount pairs a tag with the number of live contributions bearing it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ReconcileResult describes the storage writes needed to bring a user's
// live contributions in line with a submission.
type ReconcileResult struct {
	ToInsert  []*Contribution // new rows to create
	ToRefresh []*Contribution // live rows whose UpdatedAt must be persisted
	ToDelete  []*Contribution // rows evicted or superseded
}

// Reconcile computes the writes for one submission against a user's
// existing live contributions for a single media item. Pure function:
// no I/O, fully deterministic for a given now.
//
// Semantics:
//  1. Submitted tags already live keep their row and get UpdatedAt=now.
//  2. Submitted tags not yet live become new rows (CreatedAt=UpdatedAt=now).
//  3. The candidate set (kept + new) is sorted by UpdatedAt descending,
//     ties broken by lexicographic tag order, and truncated to MaxLiveTags.
//  4. Existing rows absent from the truncated final set are deleted.
//
// New rows carry an empty ID; the caller assigns IDs before persisting.
func Reconcile(existing []*Contribution, submitted []TagText, now time.Time) ReconcileResult {
	byTag := make(map[TagText]*Contribution, len(existing))
	for _, c := range existing {
		byTag[c.Tag] = c
	}

	var result ReconcileResult
	candidates := make([]*Contribution, 0, len(submitted))
	seen := make(map[TagText]bool, len(submitted))

	for _, tag := range submitted {
		if seen[tag] {
			continue
		}
		seen[tag] = true

		if live, ok := byTag[tag]; ok {
			// Already live: refresh recency, keep the original CreatedAt.
			refreshed := *live
			refreshed.Touch(now)
			candidates = append(candidates, &refreshed)
			continue
		}

		candidates = append(candidates, &Contribution{
			Tag:       tag,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	// Most-recently-touched first; lexicographic tag order breaks ties so
	// eviction is deterministic when timestamps collide.
	slices.SortStableFunc(candidates, func(a, b *Contribution) int {
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			if a.UpdatedAt.After(b.UpdatedAt) {
				return -1
			}
			return 1
		}
		return strings.Compare(string(a.Tag), string(b.Tag))
	})

	if len(candidates) > MaxLiveTags {
		candidates = candidates[:MaxLiveTags]
	}

	final := make(map[TagText]bool, len(candidates))
	for _, c := range candidates {
		final[c.Tag] = true
		if c.ID == "" {
			result.ToInsert = append(result.ToInsert, c)
		} else {
			result.ToRefresh = append(result.ToRefresh, c)
		}
	}

	for _, c := range existing {
		if !final[c.Tag] {
			result.ToDelete = append(result.ToDelete, c)
		}
	}

	return result
}

// AggregateTags derives the distinct tag set from live contributions,
// sorted lexicographically. Returns nil when no contributions remain,
// which callers must translate into deleting the MediaTagSet record.
func AggregateTags(contributions []*Contribution) []string {
	if len(contributions) == 0 {
		return nil
	}

	distinct := make(map[string]bool, len(contributions))
	for _, c := range contributions {
		distinct[string(c.Tag)] = true
	}

	tags := make([]string, 0, len(distinct))
	for tag := range distinct {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// CountTags tallies live contributions per tag, restricted to the tags in
// the media's current tag set, sorted by count descending then tag
// ascending. A non-positive limit means no truncation.
func CountTags(contributions []*Contribution, activeTags []string, limit int) []TagCount {
	active := make(map[string]bool, len(activeTags))
	for _, tag := range activeTags {
		active[tag] = true
	}

	counts := make(map[string]int)
	for _, c := range contributions {
		if active[string(c.Tag)] {
			counts[string(c.Tag)]++
		}
	}

	result := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		result = append(result, TagCount{Tag: tag, Count: count})
	}

	slices.SortStableFunc(result, func(a, b TagCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Tag, b.Tag)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
