package handlers

import (
	"net/http"
	"strconv"

	"reelserver/internal/reel"
	"reelserver/internal/storage"
)

const (
	defaultReelsLimit = 2
	defaultReelsPage  = 1
)

type reelsResponse struct {
	Data       []reel.FeedItem `json:"data"`
	Pagination reel.Pagination `json:"pagination"`
}

// Reels serves the paginated feed, newest first. The feed is recomputed
// from storage on every request; pagination happens after sorting so page
// boundaries stay stable as new videos arrive only at the front.
func (a *App) Reels(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultReelsLimit)
	page := queryInt(r, "page", defaultReelsPage)

	feed, err := a.Store.Feed(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("feed listing failed")
		a.error(w, http.StatusInternalServerError, "Failed to fetch reels")
		return
	}

	items := storage.Paginate(feed, page, limit)
	a.json(w, http.StatusOK, reelsResponse{
		Data: items,
		Pagination: reel.Pagination{
			CurrentPage:  page,
			TotalItems:   len(feed),
			ItemsPerPage: limit,
		},
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
