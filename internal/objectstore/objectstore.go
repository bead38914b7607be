// Package objectstore downloads uploaded resumes from Cloudflare R2 or any
// S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jonathan/resume-reviewer/internal/config"
)

// MaxObjectSize bounds how much of an object is read into memory
const MaxObjectSize = 20 << 20

// ErrObjectNotFound is returned for missing keys
var ErrObjectNotFound = errors.New("object not found")

// ErrObjectTooLarge is returned when an object exceeds MaxObjectSize
var ErrObjectTooLarge = errors.New("object exceeds maximum size")

// getObjectAPI is the part of *s3.Client the store calls
type getObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store reads objects from a single bucket.
type Store struct {
	client getObjectAPI
	bucket string
}

// New builds an S3 client for cfg. Without an explicit endpoint the R2
// account endpoint is used.
func New(ctx context.Context, cfg config.R2Config) (*Store, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("object storage is not configured")
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load object storage config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		// MinIO and most self-hosted stores need path-style addressing
		o.UsePathStyle = cfg.Endpoint != ""
	})

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// NewWithClient wraps an existing client
func NewWithClient(client getObjectAPI, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Bucket returns the bucket objects are read from
func (s *Store) Bucket() string {
	return s.bucket
}

// Get downloads the object stored under key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	n, err := io.Copy(buf, io.LimitReader(out.Body, MaxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	if n > MaxObjectSize {
		return nil, fmt.Errorf("%w: %s", ErrObjectTooLarge, key)
	}
	return buf.Bytes(), nil
}
