// Package speech wraps AWS Polly text-to-speech.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
)

const defaultVoice = types.VoiceIdJoanna

// SynthesizeAPI is the slice of the Polly client the synthesizer uses.
type SynthesizeAPI interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// Synthesizer converts narration text into MP3 audio with a fixed neural
// voice.
type Synthesizer struct {
	api   SynthesizeAPI
	voice types.VoiceId
}

// NewSynthesizer builds a Synthesizer backed by a real Polly client.
func NewSynthesizer(cfg aws.Config, voice string) *Synthesizer {
	return NewSynthesizerWithAPI(polly.NewFromConfig(cfg), voice)
}

// NewSynthesizerWithAPI builds a Synthesizer over any SynthesizeAPI, which
// lets tests substitute a fake.
func NewSynthesizerWithAPI(api SynthesizeAPI, voice string) *Synthesizer {
	v := types.VoiceId(strings.TrimSpace(voice))
	if v == "" {
		v = defaultVoice
	}
	return &Synthesizer{api: api, voice: v}
}

// Synthesize renders text as MP3 bytes.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("speech: text is required")
	}

	out, err := s.api.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		OutputFormat: types.OutputFormatMp3,
		VoiceId:      s.voice,
		Engine:       types.EngineNeural,
	})
	if err != nil {
		return nil, fmt.Errorf("speech: synthesize: %w", err)
	}
	defer out.AudioStream.Close()

	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("speech: read audio stream: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("speech: empty audio stream")
	}
	return audio, nil
}
