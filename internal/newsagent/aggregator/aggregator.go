// Package aggregator merges article batches into one deduplicated,
// newest-first list.
package aggregator

import (
	"sort"

	"github.com/RobinCoderZhao/newsagent/internal/newsagent/sources"
)

// Aggregate concatenates batches in order, drops later articles whose URL was
// already seen, then sorts by publish time, newest first. Equal timestamps keep
// their merge order and articles without a timestamp go last.
func Aggregate(batches ...[]sources.Article) []sources.Article {
	seen := make(map[string]bool)
	merged := make([]sources.Article, 0)
	for _, batch := range batches {
		for _, a := range batch {
			if seen[a.URL] {
				continue
			}
			seen[a.URL] = true
			merged = append(merged, a)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return newer(merged[i], merged[j])
	})
	return merged
}

func newer(a, b sources.Article) bool {
	switch {
	case a.PublishedAt.IsZero():
		return false
	case b.PublishedAt.IsZero():
		return true
	default:
		return a.PublishedAt.After(b.PublishedAt)
	}
}
