package handlers

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"reelserver/internal/reel"
)

type fakeGenerator struct {
	info     *reel.SubjectInfo
	infoErr  error
	audio    []byte
	audioErr error
}

func (f *fakeGenerator) GenerateSubjectInfo(ctx context.Context, subjectName string) (*reel.SubjectInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.info, nil
}

func (f *fakeGenerator) GenerateVoice(ctx context.Context, text string) ([]byte, error) {
	if f.audioErr != nil {
		return nil, f.audioErr
	}
	return f.audio, nil
}

type fakeVideoStore struct {
	uploadErr error
	signErr   error
	feedErr   error
	feed      []reel.FeedItem

	uploads  int
	key      string
	data     []byte
	metadata map[string]string
}

func (f *fakeVideoStore) Upload(ctx context.Context, data []byte, key, contentType string, metadata map[string]string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads++
	f.key = key
	f.data = data
	f.metadata = metadata
	return key, nil
}

func (f *fakeVideoStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://signed/" + key, nil
}

func (f *fakeVideoStore) ListVideos(ctx context.Context) ([]reel.Video, error) {
	return nil, nil
}

func (f *fakeVideoStore) Feed(ctx context.Context) ([]reel.FeedItem, error) {
	if f.feedErr != nil {
		return nil, f.feedErr
	}
	return f.feed, nil
}

func newTestApp(gen GenerationProvider, store *fakeVideoStore) *App {
	return NewApp(zerolog.New(io.Discard), gen, store)
}
