package store

import "strings"

// Key prefixes. Every record type lives under its own prefix so prefix
// scans never cross record types.
const (
	userPrefix = "user:"

	sessionPrefix        = "session:"
	sessionByTokenPrefix = "session-token:"
	sessionByUserPrefix  = "session-user:"

	// Contribution rows: contrib:{mediaType}:{slug}:{userID}:{tag}
	contributionPrefix = "contrib:"

	// Per-user mirror of contribution rows, for the profile view:
	// contrib-user:{userID}:{mediaType}:{slug}:{tag}
	contributionByUserPrefix = "contrib-user:"

	// Aggregated tag sets: mediatags:{mediaType}:{slug}
	mediaTagsPrefix = "mediatags:"
)

// contributionKey builds the primary key of a contribution row.
func contributionKey(mediaType, slug, userID, tag string) []byte {
	return joinKey(contributionPrefix, mediaType, slug, userID, tag)
}

// contributionMediaPrefix is the scan prefix covering every contribution
// row of one media item, across all users.
func contributionMediaPrefix(mediaType, slug string) []byte {
	return joinKey(contributionPrefix, mediaType, slug, "")
}

// contributionUserMediaPrefix is the scan prefix covering one user's rows
// on one media item.
func contributionUserMediaPrefix(mediaType, slug, userID string) []byte {
	return joinKey(contributionPrefix, mediaType, slug, userID, "")
}

// contributionUserKey builds the per-user mirror key of a contribution row.
func contributionUserKey(userID, mediaType, slug, tag string) []byte {
	return joinKey(contributionByUserPrefix, userID, mediaType, slug, tag)
}

// contributionUserScanPrefix covers all of a user's contribution rows.
func contributionUserScanPrefix(userID string) []byte {
	return joinKey(contributionByUserPrefix, userID, "")
}

// mediaTagsKey builds the key of a media item's aggregated tag set.
func mediaTagsKey(mediaType, slug string) []byte {
	return joinKey(mediaTagsPrefix, mediaType, slug)
}

// joinKey joins a prefix and parts with ":" separators. Parts are
// validated upstream (slugs and tags can't contain ":"), so the result
// is unambiguous.
func joinKey(prefix string, parts ...string) []byte {
	var b strings.Builder
	b.Grow(len(prefix) + 16*len(parts))
	b.WriteString(prefix)
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(p)
	}
	return []byte(b.String())
}
