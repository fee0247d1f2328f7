// Package generation produces the raw material for one reel: a short
// narration about a subject, a list of candidate image URLs researched
// through web search, and the narration rendered as speech.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"reelserver/internal/providers/genai"
	"reelserver/internal/providers/search"
	"reelserver/internal/reel"
)

const maxImageURLs = 5

const searchResultsPerQuery = 3

const imageFinderSystem = `Your role is sport celebrity image link finder.
Use the webSearch tool to find real, publicly reachable image URLs.
Output ONLY a JSON array of image URL strings, no categories and no other text.
Example: ["https://example.com/photos/a.jpg","https://example.com/photos/b.jpg"]`

// textGenerator is the slice of the Gemini client the service uses.
type textGenerator interface {
	GenerateText(ctx context.Context, req genai.TextRequest) (string, error)
	GenerateJSON(ctx context.Context, prompt string, out any) error
}

// searcher runs web searches on behalf of the model's tool calls.
type searcher interface {
	Search(ctx context.Context, query string, numResults int) ([]search.Result, error)
}

// synthesizer renders narration text as audio bytes.
type synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Service is the content generation client. All upstream failures map to
// reel.ErrGeneration or reel.ErrSynthesis; there is no retry.
type Service struct {
	text   textGenerator
	search searcher
	speech synthesizer
	logger zerolog.Logger
}

// NewService wires the three provider clients together.
func NewService(text textGenerator, searchClient searcher, speech synthesizer, logger zerolog.Logger) *Service {
	return &Service{
		text:   text,
		search: searchClient,
		speech: speech,
		logger: logger,
	}
}

// GenerateSubjectInfo researches a subject and returns a ~20-word description
// plus up to five image URLs. The image list comes from a tool-augmented
// model call; a response that does not parse as a JSON array of strings is a
// hard failure, not a retry.
func (s *Service) GenerateSubjectInfo(ctx context.Context, subjectName string) (*reel.SubjectInfo, error) {
	text, err := s.text.GenerateText(ctx, genai.TextRequest{
		System:   imageFinderSystem,
		Prompt:   imagePrompt(subjectName),
		Tools:    []genai.Tool{s.webSearchTool()},
		MaxSteps: 4,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: image search: %v", reel.ErrGeneration, err)
	}

	urls, err := parseImageURLs(text)
	if err != nil {
		s.logger.Warn().Err(err).Str("subject", subjectName).Msg("generation: image url output unparseable")
		return nil, fmt.Errorf("%w: %v", reel.ErrGeneration, err)
	}

	var described struct {
		ShortDescription string `json:"shortDescription"`
	}
	if err := s.text.GenerateJSON(ctx, descriptionPrompt(subjectName), &described); err != nil {
		return nil, fmt.Errorf("%w: description: %v", reel.ErrGeneration, err)
	}
	if strings.TrimSpace(described.ShortDescription) == "" {
		return nil, fmt.Errorf("%w: empty description", reel.ErrGeneration)
	}

	return &reel.SubjectInfo{
		Description: strings.TrimSpace(described.ShortDescription),
		ImageURLs:   urls,
	}, nil
}

// GenerateVoice converts narration text to MP3 audio.
func (s *Service) GenerateVoice(ctx context.Context, text string) ([]byte, error) {
	audio, err := s.speech.Synthesize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reel.ErrSynthesis, err)
	}
	return audio, nil
}

func (s *Service) webSearchTool() genai.Tool {
	return genai.Tool{
		Name:        "webSearch",
		Description: "Search the web for up-to-date information",
		Parameters: &genai.Schema{
			Type: "object",
			Properties: map[string]*genai.Schema{
				"query": {Type: "string", Description: "The search query"},
			},
			Required: []string{"query"},
		},
		Execute: func(ctx context.Context, args json.RawMessage) (any, error) {
			var parsed struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal(args, &parsed); err != nil {
				return nil, fmt.Errorf("decode webSearch args: %w", err)
			}
			results, err := s.search.Search(ctx, parsed.Query, searchResultsPerQuery)
			if err != nil {
				return nil, err
			}
			out := make([]map[string]string, 0, len(results))
			for _, r := range results {
				out = append(out, map[string]string{
					"image": r.Image,
					"url":   r.URL,
					"title": r.Title,
				})
			}
			return out, nil
		},
	}
}

func imagePrompt(subjectName string) string {
	return fmt.Sprintf("Find 5 images of %s covering categories such as training, family moments, charity, fitness routines and winning moments.", subjectName)
}

func descriptionPrompt(subjectName string) string {
	return fmt.Sprintf(`Get information about %s. Respond with JSON of the form {"shortDescription": "..."} where shortDescription is a 20 word short description.`, subjectName)
}

// parseImageURLs strips a Markdown code fence if present and decodes the
// remainder as a JSON array of URL strings, capped at maxImageURLs.
func parseImageURLs(text string) ([]string, error) {
	cleaned := stripCodeFence(text)
	var urls []string
	if err := json.Unmarshal([]byte(cleaned), &urls); err != nil {
		return nil, fmt.Errorf("image url list is not a JSON string array: %w", err)
	}
	if len(urls) > maxImageURLs {
		urls = urls[:maxImageURLs]
	}
	return urls, nil
}

func stripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
