// Package pipeline drives a reel from athlete name to stored video. It
// chains generation, asset fetching, encoding and upload, tracking the
// current stage so callers can observe and test progress.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"reelserver/internal/encoder"
	"reelserver/internal/reel"
	"reelserver/internal/storage"
)

// State names the stage the orchestrator is currently in.
type State string

const (
	StateIdle              State = "idle"
	StateSubmitting        State = "submitting"
	StateGeneratingContent State = "generating_content"
	StateFetchingAssets    State = "fetching_assets"
	StateEncoding          State = "encoding"
	StateUploading         State = "uploading"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// Stage timeouts. Generation covers the LLM tool loop plus speech synthesis
// and dominates the budget.
const (
	defaultGenerateTimeout = 2 * time.Minute
	defaultFetchTimeout    = 30 * time.Second
	defaultEncodeTimeout   = 2 * time.Minute
	defaultUploadTimeout   = time.Minute
)

// ContentGenerator produces the reel's description, image URLs and narration.
type ContentGenerator interface {
	GenerateSubjectInfo(ctx context.Context, subjectName string) (*reel.SubjectInfo, error)
	GenerateVoice(ctx context.Context, text string) ([]byte, error)
}

// AssetFetcher downloads candidate images, skipping the ones that fail.
type AssetFetcher interface {
	Fetch(ctx context.Context, urls []string) []reel.Image
}

// SlideshowEncoder turns images plus narration audio into an MP4.
type SlideshowEncoder interface {
	EncodeSlideshow(ctx context.Context, job encoder.Job) ([]byte, error)
}

// Result is the outcome of a completed run.
type Result struct {
	Key         string
	VideoURL    string
	Description string
	Metadata    map[string]string
}

// Orchestrator runs the full reel pipeline. It is safe for one run at a
// time; concurrent runs are serialized by the encoder underneath.
type Orchestrator struct {
	gen    ContentGenerator
	fetch  AssetFetcher
	enc    SlideshowEncoder
	store  storage.VideoStore
	logger zerolog.Logger

	state        State
	onTransition func(from, to State)

	now func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTransitionHook registers fn to be called on every state change.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(o *Orchestrator) { o.onTransition = fn }
}

// New assembles an orchestrator from its stages.
func New(gen ContentGenerator, fetch AssetFetcher, enc SlideshowEncoder, store storage.VideoStore, logger zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gen:    gen,
		fetch:  fetch,
		enc:    enc,
		store:  store,
		logger: logger.With().Str("component", "pipeline").Logger(),
		state:  StateIdle,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State reports the current stage.
func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) transition(to State) {
	from := o.state
	o.state = to
	o.logger.Info().Str("from", string(from)).Str("to", string(to)).Msg("pipeline transition")
	if o.onTransition != nil {
		o.onTransition(from, to)
	}
}

// Run executes the pipeline for subjectName and returns the stored video.
// On any stage failure the orchestrator ends in StateFailed and the stage's
// error is returned unwrapped from the taxonomy sentinel it carries.
func (o *Orchestrator) Run(ctx context.Context, subjectName string) (*Result, error) {
	o.transition(StateSubmitting)
	if subjectName == "" {
		o.transition(StateFailed)
		return nil, fmt.Errorf("%w: subject name is required", reel.ErrValidation)
	}

	o.transition(StateGeneratingContent)
	genCtx, cancel := context.WithTimeout(ctx, defaultGenerateTimeout)
	info, err := o.gen.GenerateSubjectInfo(genCtx, subjectName)
	if err != nil {
		cancel()
		o.transition(StateFailed)
		return nil, err
	}
	audio, err := o.gen.GenerateVoice(genCtx, info.Description)
	cancel()
	if err != nil {
		o.transition(StateFailed)
		return nil, err
	}

	o.transition(StateFetchingAssets)
	fetchCtx, cancel := context.WithTimeout(ctx, defaultFetchTimeout)
	images := o.fetch.Fetch(fetchCtx, info.ImageURLs)
	cancel()
	if len(images) == 0 {
		o.transition(StateFailed)
		return nil, fmt.Errorf("%w: no usable images for %q", reel.ErrNoAssets, subjectName)
	}

	o.transition(StateEncoding)
	encCtx, cancel := context.WithTimeout(ctx, defaultEncodeTimeout)
	video, err := o.enc.EncodeSlideshow(encCtx, encoder.Job{Images: images, Audio: audio})
	cancel()
	if err != nil {
		o.transition(StateFailed)
		return nil, err
	}

	o.transition(StateUploading)
	createdAt := o.now().UTC()
	key := reel.VideoKey(subjectName, createdAt)
	metadata := map[string]string{
		reel.MetaAthleteName: subjectName,
		reel.MetaDateCreated: createdAt.Format(time.RFC3339),
		reel.MetaContentType: "video/mp4",
		reel.MetaType:        "sports-reel",
		reel.MetaFormat:      "mp4",
		reel.MetaResolution:  "1080p",
		reel.MetaSource:      "ai-generated",
	}
	upCtx, cancel := context.WithTimeout(ctx, defaultUploadTimeout)
	defer cancel()
	if _, err := o.store.Upload(upCtx, video, key, "video/mp4", metadata); err != nil {
		o.transition(StateFailed)
		return nil, err
	}
	url, err := o.store.SignedURL(upCtx, key, storage.DefaultSignedURLTTL)
	if err != nil {
		o.transition(StateFailed)
		return nil, err
	}

	o.transition(StateDone)
	return &Result{
		Key:         key,
		VideoURL:    url,
		Description: info.Description,
		Metadata:    metadata,
	}, nil
}
