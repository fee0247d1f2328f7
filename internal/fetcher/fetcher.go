// Package fetcher downloads the remote images referenced by a generation
// result. Individual failures are tolerated; the batch never aborts.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"reelserver/internal/reel"
)

const defaultTimeout = 30 * time.Second

// Fetcher downloads image bytes over HTTP.
type Fetcher struct {
	client *http.Client
	logger zerolog.Logger
}

// New constructs a Fetcher. A nil client gets a default with a bounded
// timeout.
func New(client *http.Client, logger zerolog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Fetcher{client: client, logger: logger}
}

// Fetch downloads each URL in order. Failed items (network error, non-2xx
// status, empty body) are logged and skipped; the returned slice preserves
// the relative order of successes and carries each item's original index.
func (f *Fetcher) Fetch(ctx context.Context, urls []string) []reel.Image {
	images := make([]reel.Image, 0, len(urls))
	for i, u := range urls {
		data, err := f.fetchOne(ctx, u)
		if err != nil {
			f.logger.Warn().Err(err).Int("index", i).Str("url", u).Msg("fetcher: skipping image")
			continue
		}
		images = append(images, reel.Image{Index: i, Data: data})
	}
	return images
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty response body")
	}
	return data, nil
}
