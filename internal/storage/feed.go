package storage

import (
	"sort"
	"time"

	"reelserver/internal/reel"
)

// sortFeed orders items by their datecreated metadata, newest first. Items
// whose date is missing or unparseable sort last; the sort is stable so ties
// keep their listing order.
func sortFeed(items []reel.FeedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, okI := parseCreated(items[i].Metadata)
		tj, okJ := parseCreated(items[j].Metadata)
		if okI != okJ {
			return okI
		}
		return ti.After(tj)
	})
}

func parseCreated(metadata map[string]string) (time.Time, bool) {
	raw, ok := metadata[reel.MetaDateCreated]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Paginate slices items into the requested page. Pages are 1-based; a page
// beyond the available data yields an empty slice, never an error.
func Paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return []T{}
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
