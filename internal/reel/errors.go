package reel

import "errors"

// Pipeline error taxonomy. Stage errors wrap one of these sentinels so the
// HTTP layer can classify failures without inspecting provider detail.
var (
	// ErrValidation indicates the caller's input was rejected before any
	// provider was called.
	ErrValidation = errors.New("invalid input")

	// ErrGeneration indicates the upstream model call failed or returned
	// output that could not be parsed.
	ErrGeneration = errors.New("content generation failed")

	// ErrSynthesis indicates the text-to-speech provider failed.
	ErrSynthesis = errors.New("speech synthesis failed")

	// ErrNoAssets indicates every image download failed; the pipeline must
	// abort before the encoder is invoked.
	ErrNoAssets = errors.New("no assets were successfully downloaded")

	// ErrEncode indicates the local encoder failed.
	ErrEncode = errors.New("video encode failed")

	// ErrStorage indicates an object-storage upload, listing, or signing
	// call failed.
	ErrStorage = errors.New("storage operation failed")
)
