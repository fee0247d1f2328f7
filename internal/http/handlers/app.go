// Package handlers implements the HTTP routes of the reel API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"reelserver/internal/reel"
	"reelserver/internal/storage"
)

// GenerationProvider produces a subject's description, image URLs and
// narration audio.
type GenerationProvider interface {
	GenerateSubjectInfo(ctx context.Context, subjectName string) (*reel.SubjectInfo, error)
	GenerateVoice(ctx context.Context, text string) ([]byte, error)
}

// App carries the dependencies every handler needs.
type App struct {
	Logger    zerolog.Logger
	Generator GenerationProvider
	Store     storage.VideoStore
}

func NewApp(logger zerolog.Logger, gen GenerationProvider, store storage.VideoStore) *App {
	return &App{Logger: logger, Generator: gen, Store: store}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error writes the client-facing error shape. Provider detail never goes to
// the client; it is logged at the call site instead.
func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}
