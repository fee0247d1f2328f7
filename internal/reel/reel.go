// Package reel holds the domain model shared across the generation pipeline:
// subject info and generated assets, stored-video metadata, and the feed types
// served to clients.
package reel

import (
	"fmt"
	"time"
)

// Canonical metadata keys. All metadata is normalized to lowercase keys
// before upload; S3 lowercases user metadata on the wire anyway, so keeping
// one casing end to end means the feed always sorts on a key that exists.
const (
	MetaAthleteName = "athletename"
	MetaAthletePath = "athletepath"
	MetaDateCreated = "datecreated"
	MetaContentType = "contenttype"
	MetaType        = "type"
	MetaFormat      = "format"
	MetaResolution  = "resolution"
	MetaSource      = "source"
)

// SubjectInfo is the research result produced for one subject: a short
// narration text plus candidate image URLs.
type SubjectInfo struct {
	Description string   `json:"description"`
	ImageURLs   []string `json:"imageUrls"`
}

// Image is one downloaded image keyed by its position in the original URL
// list. Indices are preserved so the encoder names inputs after the slots
// that actually succeeded.
type Image struct {
	Index int
	Data  []byte
}

// Video is a stored video object together with its access URL and metadata.
type Video struct {
	Key      string
	VideoURL string
	Metadata map[string]string
}

// FeedItem is the projection of a stored video served in the reels feed.
type FeedItem struct {
	VideoURL string            `json:"videoUrl"`
	Metadata map[string]string `json:"metadata"`
}

// Pagination describes the slice of the feed returned to the client.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// VideoKey derives the storage key for a subject's video from the subject
// slug and the creation timestamp in epoch milliseconds.
func VideoKey(subjectName string, createdAt time.Time) string {
	return fmt.Sprintf("%s-%d.mp4", Slug(subjectName), createdAt.UnixMilli())
}
