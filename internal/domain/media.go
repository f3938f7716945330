// Package domain contains the core types for the Kohai tagging system.
package domain

import (
	"strings"

	domainerrors "github.com/Vaalley/kohai/internal/errors"
)

// MediaType identifies the kind of media a tag applies to.
// Games are the only supported type today; the type exists so storage
// keys and API paths stay stable if other media kinds are added.
type MediaType string

const (
	// MediaTypeGame is a video game from the IGDB catalog.
	MediaTypeGame MediaType = "game"
)

// ParseMediaType validates a raw media type string.
func ParseMediaType(raw string) (MediaType, error) {
	switch MediaType(strings.ToLower(strings.TrimSpace(raw))) {
	case MediaTypeGame:
		return MediaTypeGame, nil
	default:
		return "", domainerrors.Validationf("unknown media type %q", raw)
	}
}

const (
	maxSlugLength = 100
	maxTagLength  = 30
)

// MediaSlug is the canonical identifier of a media item, as used by the
// upstream catalog (e.g. "red-dead-redemption-2"). Constructed once at the
// boundary so the rest of the system never sees untrimmed input.
type MediaSlug string

// NewMediaSlug validates and canonicalizes a raw slug.
func NewMediaSlug(raw string) (MediaSlug, error) {
	slug := strings.ToLower(strings.TrimSpace(raw))
	if slug == "" {
		return "", domainerrors.Validation("media slug cannot be empty")
	}
	if len(slug) > maxSlugLength {
		return "", domainerrors.Validationf("media slug exceeds %d characters", maxSlugLength)
	}
	for _, r := range slug {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return "", domainerrors.Validationf("media slug contains invalid character %q", r)
		}
	}
	return MediaSlug(slug), nil
}

// String returns the slug as a plain string.
func (s MediaSlug) String() string { return string(s) }

// TagText is a single descriptive tag as entered by a user, lowercased
// and trimmed. Tags are compared byte-for-byte, so canonical form matters.
type TagText string

// NewTagText validates and canonicalizes a raw tag.
func NewTagText(raw string) (TagText, error) {
	tag := strings.ToLower(strings.TrimSpace(raw))
	if tag == "" {
		return "", domainerrors.Validation("tag cannot be empty")
	}
	if len(tag) > maxTagLength {
		return "", domainerrors.Validationf("tag exceeds %d characters", maxTagLength)
	}
	return TagText(tag), nil
}

// String returns the tag as a plain string.
func (t TagText) String() string { return string(t) }
