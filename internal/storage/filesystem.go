package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"reelserver/internal/reel"
)

const metaSuffix = ".meta.json"

// FileStore persists videos onto the local filesystem. It is intended for
// development and test environments where an object storage service is not
// available. Metadata lives in a sidecar JSON file next to each video.
type FileStore struct {
	basePath string
	logger   zerolog.Logger
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string, logger zerolog.Logger) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{
		basePath: basePath,
		logger:   logger.With().Str("component", "filestore").Logger(),
	}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Upload writes data under key together with a metadata sidecar file.
func (s *FileStore) Upload(ctx context.Context, data []byte, key, contentType string, metadata map[string]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty video payload", reel.ErrStorage)
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", reel.ErrStorage, err)
	}

	md := normalizeMetadata(metadata)
	if contentType != "" {
		md[reel.MetaContentType] = contentType
	}

	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("%w: ensure directory: %v", reel.ErrStorage, err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: write file: %v", reel.ErrStorage, err)
	}

	raw, err := json.Marshal(md)
	if err != nil {
		return "", fmt.Errorf("%w: encode metadata: %v", reel.ErrStorage, err)
	}
	if err := os.WriteFile(fullPath+metaSuffix, raw, 0o644); err != nil {
		return "", fmt.Errorf("%w: write metadata: %v", reel.ErrStorage, err)
	}

	s.logger.Info().Str("key", cleanKey).Int("size", len(data)).Msg("video written")
	return cleanKey, nil
}

// SignedURL returns a file URL for key. Local files need no expiry; ttl is
// accepted for interface parity and ignored.
func (s *FileStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", reel.ErrStorage, err)
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if _, err := os.Stat(fullPath); err != nil {
		return "", fmt.Errorf("%w: stat %s: %v", reel.ErrStorage, cleanKey, err)
	}
	return "file://" + filepath.ToSlash(fullPath), nil
}

// ListVideos walks the storage root and returns every video with its sidecar
// metadata, ordered by key.
func (s *FileStore) ListVideos(ctx context.Context) ([]reel.Video, error) {
	var keys []string
	err := filepath.WalkDir(s.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk storage root: %v", reel.ErrStorage, err)
	}
	sort.Strings(keys)

	videos := make([]reel.Video, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		md, err := s.readMetadata(key)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("skipping video without metadata")
			continue
		}
		url, err := s.SignedURL(ctx, key, 0)
		if err != nil {
			return nil, err
		}
		videos = append(videos, reel.Video{Key: key, VideoURL: url, Metadata: md})
	}
	return videos, nil
}

// Feed projects ListVideos to feed items sorted newest first.
func (s *FileStore) Feed(ctx context.Context) ([]reel.FeedItem, error) {
	videos, err := s.ListVideos(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]reel.FeedItem, len(videos))
	for i, v := range videos {
		items[i] = reel.FeedItem{VideoURL: v.VideoURL, Metadata: v.Metadata}
	}
	sortFeed(items)
	return items, nil
}

func (s *FileStore) readMetadata(key string) (map[string]string, error) {
	raw, err := os.ReadFile(filepath.Join(s.basePath, filepath.FromSlash(key)) + metaSuffix)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	md := map[string]string{}
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return md, nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("invalid key")
	}
	return cleaned, nil
}
