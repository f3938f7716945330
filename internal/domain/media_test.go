package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaType(t *testing.T) {
	mt, err := ParseMediaType(" Game ")
	require.NoError(t, err)
	assert.Equal(t, MediaTypeGame, mt)

	_, err = ParseMediaType("movie")
	assert.Error(t, err)
}

func TestNewMediaSlug(t *testing.T) {
	slug, err := NewMediaSlug("  Red-Dead-Redemption-2 ")
	require.NoError(t, err)
	assert.Equal(t, MediaSlug("red-dead-redemption-2"), slug)
}

func TestNewMediaSlug_Invalid(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"slug with spaces",
		"slug/with/slashes",
		strings.Repeat("a", 101),
	}
	for _, raw := range cases {
		_, err := NewMediaSlug(raw)
		assert.Error(t, err, "slug %q should be rejected", raw)
	}
}

func TestNewTagText(t *testing.T) {
	got, err := NewTagText("  Open World ")
	require.NoError(t, err)
	assert.Equal(t, TagText("open world"), got)
}

func TestNewTagText_Invalid(t *testing.T) {
	_, err := NewTagText("   ")
	assert.Error(t, err)

	_, err = NewTagText(strings.Repeat("x", 31))
	assert.Error(t, err)
}
