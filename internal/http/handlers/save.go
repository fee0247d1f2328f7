package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"reelserver/internal/reel"
)

type saveRequest struct {
	VideoData   string            `json:"videoData"`
	ContentType string            `json:"contentType"`
	Metadata    map[string]string `json:"metadata"`
}

type saveData struct {
	VideoID     string            `json:"videoId"`
	VideoURL    string            `json:"videoUrl"`
	Metadata    map[string]string `json:"metadata"`
	AthletePath string            `json:"athletePath"`
}

// Save accepts the client-encoded MP4 as base64 plus its metadata and
// uploads it to storage. The object key is derived from the athlete slug
// and the upload time, so repeat saves never collide.
func (a *App) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	metadata := make(map[string]string, len(req.Metadata)+4)
	for k, v := range req.Metadata {
		metadata[strings.ToLower(k)] = v
	}
	name := strings.TrimSpace(metadata[reel.MetaAthleteName])
	if name == "" {
		a.error(w, http.StatusBadRequest, "Athlete name is required")
		return
	}

	video, err := base64.StdEncoding.DecodeString(req.VideoData)
	if err != nil || len(video) == 0 {
		a.error(w, http.StatusBadRequest, "Invalid video data")
		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}
	createdAt := time.Now().UTC()
	metadata[reel.MetaAthleteName] = name
	metadata[reel.MetaDateCreated] = createdAt.Format(time.RFC3339)
	metadata[reel.MetaContentType] = contentType
	metadata[reel.MetaType] = "sports-reel"
	metadata[reel.MetaFormat] = "mp4"

	key := reel.VideoKey(name, createdAt)
	if _, err := a.Store.Upload(r.Context(), video, key, contentType, metadata); err != nil {
		a.Logger.Error().Err(err).Str("key", key).Msg("video upload failed")
		a.error(w, http.StatusInternalServerError, "Failed to save video")
		return
	}
	url, err := a.Store.SignedURL(r.Context(), key, 0)
	if err != nil {
		a.Logger.Error().Err(err).Str("key", key).Msg("signing uploaded video failed")
		a.error(w, http.StatusInternalServerError, "Failed to save video")
		return
	}

	a.json(w, http.StatusOK, map[string]any{"data": saveData{
		VideoID:     key,
		VideoURL:    url,
		Metadata:    metadata,
		AthletePath: reel.Slug(name),
	}})
}
