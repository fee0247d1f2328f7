package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

type generateRequest struct {
	AthleteName string `json:"athleteName"`
}

type generateData struct {
	Description     string   `json:"description"`
	ImageURLs       []string `json:"imageUrls"`
	AudioBufferData string   `json:"audioBufferData"`
}

// Generate researches the athlete and returns the description, image URLs
// and narration audio the client needs to encode a reel. The audio is
// returned base64-encoded; the MP4 itself is assembled client-side.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Athlete name is required")
		return
	}
	name := strings.TrimSpace(req.AthleteName)
	if name == "" {
		a.error(w, http.StatusBadRequest, "Athlete name is required")
		return
	}

	info, err := a.Generator.GenerateSubjectInfo(r.Context(), name)
	if err != nil {
		a.Logger.Error().Err(err).Str("athlete", name).Msg("subject info generation failed")
		a.error(w, http.StatusInternalServerError, "Failed to generate content")
		return
	}

	audio, err := a.Generator.GenerateVoice(r.Context(), info.Description)
	if err != nil {
		a.Logger.Error().Err(err).Str("athlete", name).Msg("voice generation failed")
		a.error(w, http.StatusInternalServerError, "Failed to generate content")
		return
	}

	a.json(w, http.StatusOK, map[string]any{"data": generateData{
		Description:     info.Description,
		ImageURLs:       info.ImageURLs,
		AudioBufferData: base64.StdEncoding.EncodeToString(audio),
	}})
}
