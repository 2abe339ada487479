package stats

import (
	"sort"

	"github.com/verte-zerg/cwkeyer/internal/model"
)

// TopChars returns the n most frequently keyed characters. n <= 0 returns
// all of them.
func TopChars(counts []model.CharCount, n int) []string {
	if len(counts) == 0 {
		return nil
	}
	items := make([]model.CharCount, len(counts))
	copy(items, counts)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Char < items[j].Char
		}
		return items[i].Count > items[j].Count
	})
	if n <= 0 || n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i].Char)
	}
	return out
}
