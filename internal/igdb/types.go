// Package igdb is a rate-limited client for the IGDB game catalog API,
// including the shared bearer credential guard and response caches.
package igdb

import "time"

// Game is a catalog entry as returned by the IGDB /v4/games endpoint.
// Only the fields the default field set requests are populated.
type Game struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Slug             string  `json:"slug"`
	Summary          string  `json:"summary,omitempty"`
	FirstReleaseDate int64   `json:"first_release_date,omitempty"`
	TotalRating      float64 `json:"total_rating,omitempty"`
	Cover            *Cover  `json:"cover,omitempty"`
	Genres           []Genre `json:"genres,omitempty"`
	Platforms        []Named `json:"platforms,omitempty"`
}

// Cover is a game's cover image reference.
type Cover struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// Genre is a game genre.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Named is a generic id/name pair used by several expanded IGDB fields.
type Named struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Credential is the shared bearer credential for the catalog API.
type Credential struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UsableAt reports whether the credential is usable at the given instant
// with the given safety margin before expiry.
func (c Credential) UsableAt(now time.Time, margin time.Duration) bool {
	if c.AccessToken == "" {
		return false
	}
	return now.Before(c.ExpiresAt.Add(-margin))
}
