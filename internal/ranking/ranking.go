// Package ranking orders a day's entries and answers rank lookups.
package ranking

import (
	"slices"
	"strings"

	"daily-leaderboard/internal/domain"

	"golang.org/x/text/cases"
)

// Rank sorts entries by amount, highest first, keeping input order for equal
// amounts, and numbers them 1..N. Ranks carried on the input are ignored.
func Rank(entries []domain.Entry) []domain.RankedEntry {
	ranked := make([]domain.RankedEntry, len(entries))
	for i, e := range entries {
		ranked[i] = domain.RankedEntry{Entry: e}
	}

	slices.SortStableFunc(ranked, func(a, b domain.RankedEntry) int {
		return b.Amount.Cmp(a.Amount)
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

func TopN(ranked []domain.RankedEntry, n int) []domain.RankedEntry {
	if n <= 0 {
		return ranked[:0]
	}
	return ranked[:min(n, len(ranked))]
}

// FindRank returns the 1-based position of name in the full ranked sequence,
// matching case-insensitively after trimming surrounding spaces.
func FindRank(ranked []domain.RankedEntry, name string) (int, bool) {
	want := normalize(name)
	if want == "" {
		return 0, false
	}
	for i, r := range ranked {
		if normalize(r.Name) == want {
			return i + 1, true
		}
	}
	return 0, false
}

func normalize(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
