// Package storage persists finished videos and reconstructs the reels feed.
// Two backends implement the same contract: S3 for production and the local
// filesystem for development and tests.
package storage

import (
	"context"
	"strings"
	"time"

	"reelserver/internal/reel"
)

// DefaultSignedURLTTL is how long access URLs stay valid when the caller
// does not specify a TTL.
const DefaultSignedURLTTL = time.Hour

// VideoStore is the narrow storage contract the handlers and the pipeline
// depend on.
type VideoStore interface {
	// Upload persists a video under key with the given content type and
	// metadata, returning the key. Metadata keys are normalized to
	// lowercase and an athletepath slug is injected when an athletename
	// entry is present.
	Upload(ctx context.Context, data []byte, key, contentType string, metadata map[string]string) (string, error)

	// SignedURL returns a time-limited access URL for key. The URL is
	// recomputed on every call; nothing is cached.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// ListVideos enumerates every stored video with its metadata and a
	// fresh access URL, in the backend's listing order.
	ListVideos(ctx context.Context) ([]reel.Video, error)

	// Feed projects ListVideos to feed items sorted by creation date,
	// newest first.
	Feed(ctx context.Context) ([]reel.FeedItem, error)
}

// normalizeMetadata lowercases metadata keys and injects the athletepath
// slug derived from athletename. The input map is not modified.
func normalizeMetadata(metadata map[string]string) map[string]string {
	out := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		out[strings.ToLower(k)] = v
	}
	if name := out[reel.MetaAthleteName]; name != "" {
		out[reel.MetaAthletePath] = reel.Slug(name)
	}
	return out
}
