package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	gobreaker "github.com/sony/gobreaker/v2"

	"recipehub/internal/config"
	"recipehub/internal/logging"
	"recipehub/internal/metrics"
)

// objectAPI is the subset of *s3.Client used by S3Store.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store is an ImageStore backed by S3. Calls go through a circuit breaker
// so an unavailable bucket fails uploads fast instead of stalling requests.
type S3Store struct {
	client  objectAPI
	bucket  string
	baseURL string
	cb      *gobreaker.CircuitBreaker[any]
}

var _ ImageStore = (*S3Store)(nil)

// NewS3Store builds an S3 client from cfg. Static credentials are used when
// an access key is configured, otherwise the default AWS credential chain.
func NewS3Store(ctx context.Context, cfg config.S3Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Store(client, cfg), nil
}

func newS3Store(client objectAPI, cfg config.S3Config) *S3Store {
	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg),
		cb:      newBreaker(),
	}
}

func newBreaker() *gobreaker.CircuitBreaker[any] {
	metrics.ImageStoreBreakerState.Set(0)
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "image-store",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.ImageStoreBreakerState.Set(float64(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
}

func publicBaseURL(cfg config.S3Config) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// Put uploads an image and returns its object key.
func (s *S3Store) Put(ctx context.Context, upload Upload) (string, error) {
	upload, err := Sniff(upload)
	if err != nil {
		return "", err
	}
	key := newObjectKey(upload.Filename, upload.ContentType)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        upload.Body,
		ContentType: aws.String(upload.ContentType),
	}
	if upload.Size > 0 {
		input.ContentLength = aws.Int64(upload.Size)
	}

	if _, err := s.cb.Execute(func() (any, error) {
		return s.client.PutObject(ctx, input)
	}); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

// Delete removes an object. Deleting an empty key is a no-op.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if _, err := s.cb.Execute(func() (any, error) {
		return s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL of key, or "" for an empty key.
func (s *S3Store) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + "/" + key
}
