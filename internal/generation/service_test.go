package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"reelserver/internal/providers/genai"
	"reelserver/internal/providers/search"
	"reelserver/internal/reel"
)

type fakeText struct {
	text    string
	textErr error
	jsonFn  func(out any) error
}

func (f fakeText) GenerateText(ctx context.Context, req genai.TextRequest) (string, error) {
	return f.text, f.textErr
}

func (f fakeText) GenerateJSON(ctx context.Context, prompt string, out any) error {
	if f.jsonFn != nil {
		return f.jsonFn(out)
	}
	return errors.New("json generation not implemented")
}

type fakeSearch struct {
	results []search.Result
	err     error
}

func (f fakeSearch) Search(ctx context.Context, query string, numResults int) ([]search.Result, error) {
	return f.results, f.err
}

type fakeSpeech struct {
	audio []byte
	err   error
}

func (f fakeSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return f.audio, f.err
}

func descriptionJSON(desc string) func(out any) error {
	return func(out any) error {
		v, ok := out.(*struct {
			ShortDescription string `json:"shortDescription"`
		})
		if !ok {
			return errors.New("unexpected output type")
		}
		v.ShortDescription = desc
		return nil
	}
}

func newService(text fakeText) *Service {
	return NewService(text, fakeSearch{}, fakeSpeech{}, zerolog.Nop())
}

func TestGenerateSubjectInfo(t *testing.T) {
	svc := newService(fakeText{
		text:   `["https://a.example/1.jpg","https://a.example/2.jpg"]`,
		jsonFn: descriptionJSON("A short description."),
	})

	info, err := svc.GenerateSubjectInfo(context.Background(), "Test Athlete")
	if err != nil {
		t.Fatalf("GenerateSubjectInfo returned error: %v", err)
	}
	if info.Description != "A short description." {
		t.Fatalf("Description = %q", info.Description)
	}
	if len(info.ImageURLs) != 2 || info.ImageURLs[0] != "https://a.example/1.jpg" {
		t.Fatalf("ImageURLs = %v", info.ImageURLs)
	}
}

func TestGenerateSubjectInfoStripsCodeFence(t *testing.T) {
	svc := newService(fakeText{
		text:   "```json\n[\"https://a.example/1.jpg\"]\n```",
		jsonFn: descriptionJSON("desc"),
	})

	info, err := svc.GenerateSubjectInfo(context.Background(), "Test Athlete")
	if err != nil {
		t.Fatalf("GenerateSubjectInfo returned error: %v", err)
	}
	if len(info.ImageURLs) != 1 {
		t.Fatalf("ImageURLs = %v", info.ImageURLs)
	}
}

func TestGenerateSubjectInfoCapsURLList(t *testing.T) {
	svc := newService(fakeText{
		text:   `["u1","u2","u3","u4","u5","u6","u7"]`,
		jsonFn: descriptionJSON("desc"),
	})
	info, err := svc.GenerateSubjectInfo(context.Background(), "Test Athlete")
	if err != nil {
		t.Fatalf("GenerateSubjectInfo returned error: %v", err)
	}
	if len(info.ImageURLs) != 5 {
		t.Fatalf("len(ImageURLs) = %d, want 5", len(info.ImageURLs))
	}
}

func TestGenerateSubjectInfoMalformedListIsGenerationError(t *testing.T) {
	svc := newService(fakeText{
		text:   `here are the images: u1, u2`,
		jsonFn: descriptionJSON("desc"),
	})
	_, err := svc.GenerateSubjectInfo(context.Background(), "Test Athlete")
	if !errors.Is(err, reel.ErrGeneration) {
		t.Fatalf("err = %v, want ErrGeneration", err)
	}
}

func TestGenerateSubjectInfoUpstreamFailureIsGenerationError(t *testing.T) {
	svc := newService(fakeText{textErr: errors.New("model unavailable")})
	_, err := svc.GenerateSubjectInfo(context.Background(), "Test Athlete")
	if !errors.Is(err, reel.ErrGeneration) {
		t.Fatalf("err = %v, want ErrGeneration", err)
	}
}

func TestGenerateSubjectInfoEmptyDescriptionFails(t *testing.T) {
	svc := newService(fakeText{
		text:   `["u1"]`,
		jsonFn: descriptionJSON("   "),
	})
	_, err := svc.GenerateSubjectInfo(context.Background(), "Test Athlete")
	if !errors.Is(err, reel.ErrGeneration) {
		t.Fatalf("err = %v, want ErrGeneration", err)
	}
}

func TestGenerateVoice(t *testing.T) {
	svc := NewService(fakeText{}, fakeSearch{}, fakeSpeech{audio: []byte("mp3")}, zerolog.Nop())
	audio, err := svc.GenerateVoice(context.Background(), "narration")
	if err != nil {
		t.Fatalf("GenerateVoice returned error: %v", err)
	}
	if string(audio) != "mp3" {
		t.Fatalf("audio = %q", audio)
	}
}

func TestGenerateVoiceFailureIsSynthesisError(t *testing.T) {
	svc := NewService(fakeText{}, fakeSearch{}, fakeSpeech{err: errors.New("polly down")}, zerolog.Nop())
	_, err := svc.GenerateVoice(context.Background(), "narration")
	if !errors.Is(err, reel.ErrSynthesis) {
		t.Fatalf("err = %v, want ErrSynthesis", err)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no fence", input: `["a"]`, want: `["a"]`},
		{name: "json fence", input: "```json\n[\"a\"]\n```", want: `["a"]`},
		{name: "bare fence", input: "```\n[\"a\"]\n```", want: `["a"]`},
		{name: "fence with padding", input: "  ```json\n[\"a\"]\n```  ", want: `["a"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.input); got != tt.want {
				t.Fatalf("stripCodeFence(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
