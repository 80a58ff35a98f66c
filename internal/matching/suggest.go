package matching

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"hexfm/internal/identity"
	"hexfm/internal/ledger"
)

// DefaultThreshold is the minimum similarity score a suggestion must reach.
const DefaultThreshold = 60

// DefaultLimit caps how many suggestions a lookup returns.
const DefaultLimit = 5

// Suggestion pairs a catalog track with its similarity score in [0, 100].
type Suggestion struct {
	Track ledger.CatalogTrack
	Score int
}

// TokenSortRatio scores two strings by sorting their lowercase tokens and
// comparing the joined forms with normalized Levenshtein similarity. Token
// sorting makes "Artist --- Album --- Track" robust against reordered or
// shuffled fields.
func TokenSortRatio(a, b string) int {
	similarity := strutil.Similarity(tokenSort(a), tokenSort(b), metrics.NewLevenshtein())
	return int(similarity * 100)
}

func tokenSort(value string) string {
	tokens := strings.Fields(identity.FoldKey(value))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// Suggest ranks catalog tracks by similarity to the key, strongest first,
// dropping everything under the threshold and capping at limit.
func Suggest(key string, tracks []ledger.CatalogTrack, threshold, limit int) []Suggestion {
	var suggestions []Suggestion
	for _, track := range tracks {
		score := TokenSortRatio(key, track.ConcatKey)
		if score < threshold {
			continue
		}
		suggestions = append(suggestions, Suggestion{Track: track, Score: score})
	}
	sort.SliceStable(suggestions, func(a, b int) bool {
		return suggestions[a].Score > suggestions[b].Score
	})
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}
