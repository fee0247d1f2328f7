package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"reelserver/internal/reel"
)

type fakeS3 struct {
	objects map[string]map[string]string
	order   []string
	pageLen int

	putErr  error
	headErr error
	listErr error

	lastPut *s3.PutObjectInput
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]map[string]string{}}
}

func (f *fakeS3) add(key string, metadata map[string]string) {
	f.objects[key] = metadata
	f.order = append(f.order, key)
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.lastPut = params
	f.add(aws.ToString(params.Key), params.Metadata)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	md, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{Metadata: md}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	start := 0
	if params.ContinuationToken != nil {
		fmt.Sscanf(*params.ContinuationToken, "%d", &start)
	}
	end := len(f.order)
	if f.pageLen > 0 && start+f.pageLen < end {
		end = start + f.pageLen
	}
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(f.order))}
	for _, key := range f.order[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	if end < len(f.order) {
		out.NextContinuationToken = aws.String(fmt.Sprintf("%d", end))
	}
	return out, nil
}

type fakePresigner struct {
	err error
}

func (f *fakePresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{
		URL:    "https://signed.example.com/" + aws.ToString(params.Key),
		Method: "GET",
	}, nil
}

func newTestStore(api *fakeS3, presigner *fakePresigner) *S3Store {
	return newS3StoreWithAPI(api, presigner, "reels", zerolog.New(io.Discard))
}

func TestS3UploadNormalizesMetadata(t *testing.T) {
	api := newFakeS3()
	store := newTestStore(api, &fakePresigner{})

	key, err := store.Upload(context.Background(), []byte("mp4"), "test-athlete-1.mp4", "video/mp4", map[string]string{
		"athleteName": "Test Athlete",
		"dateCreated": "2026-01-01T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if key != "test-athlete-1.mp4" {
		t.Fatalf("key = %q", key)
	}

	md := api.lastPut.Metadata
	if md["athletename"] != "Test Athlete" {
		t.Fatalf("athletename = %q", md["athletename"])
	}
	if md["datecreated"] != "2026-01-01T10:00:00Z" {
		t.Fatalf("datecreated = %q", md["datecreated"])
	}
	if md["athletepath"] != "test-athlete" {
		t.Fatalf("athletepath = %q", md["athletepath"])
	}
	if _, mixed := md["athleteName"]; mixed {
		t.Fatal("mixed-case metadata key leaked through")
	}
	if api.lastPut.ACL != types.ObjectCannedACLPrivate {
		t.Fatalf("ACL = %q, want private", api.lastPut.ACL)
	}
	if aws.ToString(api.lastPut.ContentType) != "video/mp4" {
		t.Fatalf("content type = %q", aws.ToString(api.lastPut.ContentType))
	}
}

func TestS3UploadRejectsEmptyPayload(t *testing.T) {
	store := newTestStore(newFakeS3(), &fakePresigner{})

	if _, err := store.Upload(context.Background(), nil, "k.mp4", "video/mp4", nil); !errors.Is(err, reel.ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
	if _, err := store.Upload(context.Background(), []byte("x"), "", "video/mp4", nil); !errors.Is(err, reel.ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
}

func TestS3UploadWrapsProviderError(t *testing.T) {
	api := newFakeS3()
	api.putErr = errors.New("boom")
	store := newTestStore(api, &fakePresigner{})

	_, err := store.Upload(context.Background(), []byte("x"), "k.mp4", "video/mp4", nil)
	if !errors.Is(err, reel.ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
}

func TestS3SignedURL(t *testing.T) {
	store := newTestStore(newFakeS3(), &fakePresigner{})

	url, err := store.SignedURL(context.Background(), "a.mp4", 0)
	if err != nil {
		t.Fatalf("SignedURL: %v", err)
	}
	if url != "https://signed.example.com/a.mp4" {
		t.Fatalf("url = %q", url)
	}
}

func TestS3ListVideosKeepsListingOrder(t *testing.T) {
	api := newFakeS3()
	api.add("b.mp4", map[string]string{"athletename": "B"})
	api.add("a.mp4", map[string]string{"athletename": "A"})
	api.add("c.mp4", map[string]string{"athletename": "C"})
	api.pageLen = 2
	store := newTestStore(api, &fakePresigner{})

	videos, err := store.ListVideos(context.Background())
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if len(videos) != 3 {
		t.Fatalf("len = %d", len(videos))
	}
	want := []string{"b.mp4", "a.mp4", "c.mp4"}
	for i, key := range want {
		if videos[i].Key != key {
			t.Fatalf("videos[%d].Key = %q, want %q", i, videos[i].Key, key)
		}
		if videos[i].VideoURL == "" {
			t.Fatalf("videos[%d] missing signed URL", i)
		}
	}
}

func TestS3ListVideosSurfacesHeadError(t *testing.T) {
	api := newFakeS3()
	api.add("a.mp4", nil)
	api.headErr = errors.New("denied")
	store := newTestStore(api, &fakePresigner{})

	if _, err := store.ListVideos(context.Background()); !errors.Is(err, reel.ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
}

func TestS3FeedSortsNewestFirst(t *testing.T) {
	api := newFakeS3()
	api.add("old.mp4", map[string]string{"athletename": "Old", "datecreated": "2026-01-01T00:00:00Z"})
	api.add("new.mp4", map[string]string{"athletename": "New", "datecreated": "2026-06-01T00:00:00Z"})
	store := newTestStore(api, &fakePresigner{})

	items, err := store.Feed(context.Background())
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d", len(items))
	}
	if items[0].Metadata[reel.MetaAthleteName] != "New" {
		t.Fatalf("items[0] = %q, want newest first", items[0].Metadata[reel.MetaAthleteName])
	}
}
