package igdb

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// defaultFields is the field set requested for every query. IGDB returns
// nothing useful without an explicit fields clause, so queries built here
// always carry one.
const defaultFields = "fields name,slug,summary,cover.url,genres.name,platforms.name,first_release_date,total_rating;"

// defaultSearchLimit caps how many results a search query asks for.
const defaultSearchLimit = 20

// SearchQuery builds an apicalypse query body for a free-text search.
// The returned string is also the cache key for the search cache, so the
// same logical query must always produce the same body.
func SearchQuery(text string) string {
	escaped := strings.ReplaceAll(NormalizeQuery(text), `"`, `\"`)
	return fmt.Sprintf("%s search \"%s\"; limit %d;", defaultFields, escaped, defaultSearchLimit)
}

// DetailQuery builds an apicalypse query body for a single game lookup.
func DetailQuery(id int64) string {
	return fmt.Sprintf("%s where id = %d; limit 1;", defaultFields, id)
}

// NormalizeQuery canonicalizes free-text search input: Unicode
// compatibility normalization, lowercase, collapsed whitespace. Two
// visually-equivalent queries normalize to the same string and therefore
// share one cache entry.
func NormalizeQuery(text string) string {
	folded := norm.NFKC.String(text)
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
