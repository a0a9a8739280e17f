package saved

import (
	"strings"

	"github.com/mmcdole/arcade/internal/domain"
	"github.com/sahilm/fuzzy"
)

// Match is a saved item that matched a local filter query.
type Match struct {
	Item           domain.SavedItem
	MatchedIndexes []int // Byte offsets into Item.Name (for highlighting)
}

type savedNames []domain.SavedItem

func (n savedNames) String(i int) string { return strings.ToLower(n[i].Name) }
func (n savedNames) Len() int            { return len(n) }

// Filter fuzzy-matches items by name. A blank query keeps every item in its
// original order; otherwise the best matches come first.
func Filter(items []domain.SavedItem, query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]Match, len(items))
		for i, item := range items {
			out[i] = Match{Item: item}
		}
		return out
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), savedNames(items))
	out := make([]Match, len(matches))
	for i, m := range matches {
		out[i] = Match{Item: items[m.Index], MatchedIndexes: m.MatchedIndexes}
	}
	return out
}
