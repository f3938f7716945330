package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tag(t *testing.T, raw string) TagText {
	t.Helper()
	tt, err := NewTagText(raw)
	require.NoError(t, err)
	return tt
}

func tags(t *testing.T, raws ...string) []TagText {
	t.Helper()
	out := make([]TagText, 0, len(raws))
	for _, r := range raws {
		out = append(out, tag(t, r))
	}
	return out
}

func liveRow(t *testing.T, userID, raw string, touched time.Time) *Contribution {
	t.Helper()
	return &Contribution{
		ID:        "contrib-" + raw,
		UserID:    userID,
		MediaSlug: "rdr2",
		MediaType: MediaTypeGame,
		Tag:       tag(t, raw),
		CreatedAt: touched,
		UpdatedAt: touched,
	}
}

func finalTags(r ReconcileResult) map[string]bool {
	out := make(map[string]bool)
	for _, c := range r.ToInsert {
		out[string(c.Tag)] = true
	}
	for _, c := range r.ToRefresh {
		out[string(c.Tag)] = true
	}
	return out
}

func TestReconcile_FirstSubmission(t *testing.T) {
	now := time.Now()

	result := Reconcile(nil, tags(t, "story", "action", "western"), now)

	assert.Len(t, result.ToInsert, 3)
	assert.Empty(t, result.ToRefresh)
	assert.Empty(t, result.ToDelete)
	for _, c := range result.ToInsert {
		assert.Equal(t, now, c.CreatedAt)
		assert.Equal(t, now, c.UpdatedAt)
	}
}

func TestReconcile_ResubmitRefreshesRecency(t *testing.T) {
	t0 := time.Now()
	existing := []*Contribution{
		liveRow(t, "user-a", "story", t0),
		liveRow(t, "user-a", "action", t0),
	}
	now := t0.Add(time.Minute)

	result := Reconcile(existing, tags(t, "story", "action"), now)

	assert.Empty(t, result.ToInsert)
	assert.Empty(t, result.ToDelete)
	require.Len(t, result.ToRefresh, 2)
	for _, c := range result.ToRefresh {
		assert.Equal(t, now, c.UpdatedAt, "resubmission must refresh recency")
		assert.Equal(t, t0, c.CreatedAt, "resubmission must not alter creation time")
		assert.NotEmpty(t, c.ID, "kept rows keep their identity")
	}
}

// Reproduces the rdr2 scenario: a follow-up submission supersedes rows the
// user no longer claims, bringing the row count back down.
func TestReconcile_SupersededRowsAreDeleted(t *testing.T) {
	t0 := time.Now()
	existing := []*Contribution{
		liveRow(t, "user-a", "story", t0),
		liveRow(t, "user-a", "action", t0),
		liveRow(t, "user-a", "western", t0),
	}
	now := t0.Add(time.Minute)

	result := Reconcile(existing, tags(t, "story", "bandits"), now)

	final := finalTags(result)
	assert.Equal(t, map[string]bool{"story": true, "bandits": true}, final)

	deleted := make(map[string]bool)
	for _, c := range result.ToDelete {
		deleted[string(c.Tag)] = true
	}
	assert.Equal(t, map[string]bool{"action": true, "western": true}, deleted)
}

func TestReconcile_NeverExceedsMaxLiveTags(t *testing.T) {
	now := time.Now()
	existing := []*Contribution{
		liveRow(t, "user-a", "story", now.Add(-3*time.Minute)),
		liveRow(t, "user-a", "action", now.Add(-2*time.Minute)),
		liveRow(t, "user-a", "western", now.Add(-time.Minute)),
	}

	for _, submitted := range [][]TagText{
		tags(t, "open-world"),
		tags(t, "open-world", "horses"),
		tags(t, "open-world", "horses", "outlaws"),
	} {
		result := Reconcile(existing, submitted, now)
		assert.LessOrEqual(t, len(result.ToInsert)+len(result.ToRefresh), MaxLiveTags)
	}
}

func TestReconcile_OversizedSubmissionKeepsMostRecent(t *testing.T) {
	t0 := time.Now()
	existing := []*Contribution{
		liveRow(t, "user-a", "story", t0),
	}
	now := t0.Add(time.Minute)

	// Four distinct submitted tags: the refreshed row and new rows all share
	// UpdatedAt=now, so the lexicographic tiebreak decides survival.
	result := Reconcile(existing, tags(t, "story", "action", "western", "bandits"), now)

	final := finalTags(result)
	assert.Len(t, final, MaxLiveTags)
	assert.Equal(t, map[string]bool{"action": true, "bandits": true, "story": true}, final)
}

func TestReconcile_TiebreakIsDeterministic(t *testing.T) {
	now := time.Now()

	first := Reconcile(nil, tags(t, "zulu", "alpha", "mike", "echo"), now)
	second := Reconcile(nil, tags(t, "zulu", "alpha", "mike", "echo"), now)

	assert.Equal(t, finalTags(first), finalTags(second))
	assert.Equal(t, map[string]bool{"alpha": true, "echo": true, "mike": true}, finalTags(first))
}

func TestReconcile_DuplicateSubmittedTagsCollapse(t *testing.T) {
	now := time.Now()

	result := Reconcile(nil, tags(t, "story", "story", "story"), now)

	assert.Len(t, result.ToInsert, 1)
}

func TestAggregateTags(t *testing.T) {
	now := time.Now()
	contributions := []*Contribution{
		liveRow(t, "user-a", "story", now),
		liveRow(t, "user-b", "story", now),
		liveRow(t, "user-b", "western", now),
	}

	assert.Equal(t, []string{"story", "western"}, AggregateTags(contributions))
}

func TestAggregateTags_EmptyMeansNil(t *testing.T) {
	assert.Nil(t, AggregateTags(nil))
	assert.Nil(t, AggregateTags([]*Contribution{}))
}

func TestCountTags(t *testing.T) {
	now := time.Now()
	contributions := []*Contribution{
		liveRow(t, "user-a", "story", now),
		liveRow(t, "user-b", "story", now),
		liveRow(t, "user-b", "western", now),
		liveRow(t, "user-c", "story", now),
	}

	counts := CountTags(contributions, []string{"story", "western"}, 0)

	require.Len(t, counts, 2)
	assert.Equal(t, TagCount{Tag: "story", Count: 3}, counts[0])
	assert.Equal(t, TagCount{Tag: "western", Count: 1}, counts[1])
}

func TestCountTags_RestrictedToActiveSet(t *testing.T) {
	now := time.Now()
	contributions := []*Contribution{
		liveRow(t, "user-a", "story", now),
		liveRow(t, "user-b", "stale", now),
	}

	// "stale" rows exist but the tag left the active set; it must not appear.
	counts := CountTags(contributions, []string{"story"}, 0)

	require.Len(t, counts, 1)
	assert.Equal(t, "story", counts[0].Tag)
}

func TestCountTags_LimitAndTiebreak(t *testing.T) {
	now := time.Now()
	contributions := []*Contribution{
		liveRow(t, "user-a", "western", now),
		liveRow(t, "user-b", "action", now),
		liveRow(t, "user-c", "story", now),
		liveRow(t, "user-d", "story", now),
	}

	counts := CountTags(contributions, []string{"story", "western", "action"}, 2)

	require.Len(t, counts, 2)
	assert.Equal(t, "story", counts[0].Tag)
	// Equal counts fall back to lexicographic order.
	assert.Equal(t, "action", counts[1].Tag)
}
