package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"reelserver/internal/reel"
)

// listConcurrency bounds the per-object metadata and presign fan-out when
// building the feed.
const listConcurrency = 8

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type s3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store stores videos as private objects in a single S3 bucket. The feed
// is reconstructed from the bucket on every request; object metadata is the
// only source of truth.
type S3Store struct {
	client    s3API
	presigner s3Presigner
	bucket    string
	logger    zerolog.Logger
}

// NewS3Store wires an S3Store over a configured S3 client.
func NewS3Store(client *s3.Client, bucket string, logger zerolog.Logger) (*S3Store, error) {
	if bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		logger:    logger.With().Str("component", "s3store").Logger(),
	}, nil
}

func newS3StoreWithAPI(client s3API, presigner s3Presigner, bucket string, logger zerolog.Logger) *S3Store {
	return &S3Store{client: client, presigner: presigner, bucket: bucket, logger: logger}
}

// Upload writes data under key as a private object with normalized metadata.
func (s *S3Store) Upload(ctx context.Context, data []byte, key, contentType string, metadata map[string]string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty video payload", reel.ErrStorage)
	}
	if key == "" {
		return "", fmt.Errorf("%w: empty object key", reel.ErrStorage)
	}

	md := normalizeMetadata(metadata)
	input := &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		Body:     bytes.NewReader(data),
		Metadata: md,
		ACL:      types.ObjectCannedACLPrivate,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("%w: put object %s: %v", reel.ErrStorage, key, err)
	}

	s.logger.Info().Str("key", key).Int("size", len(data)).Msg("video uploaded")
	return key, nil
}

// SignedURL presigns a GET for key valid for ttl.
func (s *S3Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("%w: presign %s: %v", reel.ErrStorage, key, err)
	}
	return req.URL, nil
}

// ListVideos walks the whole bucket and resolves each object's metadata and
// a fresh signed URL. Results keep the bucket's listing order.
func (s *S3Store) ListVideos(ctx context.Context) ([]reel.Video, error) {
	keys, err := s.listKeys(ctx)
	if err != nil {
		return nil, err
	}

	videos := make([]reel.Video, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, key := range keys {
		g.Go(func() error {
			head, err := s.client.HeadObject(gctx, &s3.HeadObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return fmt.Errorf("%w: head object %s: %v", reel.ErrStorage, key, err)
			}
			url, err := s.SignedURL(gctx, key, DefaultSignedURLTTL)
			if err != nil {
				return err
			}
			videos[i] = reel.Video{
				Key:      key,
				VideoURL: url,
				Metadata: normalizeMetadata(head.Metadata),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return videos, nil
}

// Feed projects the bucket to feed items sorted newest first.
func (s *S3Store) Feed(ctx context.Context) ([]reel.FeedItem, error) {
	videos, err := s.ListVideos(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]reel.FeedItem, len(videos))
	for i, v := range videos {
		items[i] = reel.FeedItem{VideoURL: v.VideoURL, Metadata: v.Metadata}
	}
	sortFeed(items)
	return items, nil
}

func (s *S3Store) listKeys(ctx context.Context) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: list objects: %v", reel.ErrStorage, err)
		}
		for _, obj := range out.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			return keys, nil
		}
		token = out.NextContinuationToken
	}
}
