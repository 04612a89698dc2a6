// Package storage implements event image storage on S3-compatible object
// stores. Clients upload directly through presigned URLs; the API never
// proxies image bytes.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/upfrom/backend/internal/domain"
)

const presignExpiry = 15 * time.Minute

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// presigner and objectClient are interfaces for testability.
type presigner interface {
	PresignPutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.PresignOptions)) (string, error)
}

type objectClient interface {
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Storage struct {
	presigner presigner
	client    objectClient
	cfg       S3Config
}

// sdkPresigner adapts s3.PresignClient to the presigner interface.
type sdkPresigner struct {
	inner *s3.PresignClient
}

func (p *sdkPresigner) PresignPutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.PresignOptions)) (string, error) {
	req, err := p.inner.PresignPutObject(ctx, input, opts...)
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// NewS3Storage returns a FileStorage backed by an S3-compatible bucket.
func NewS3Storage(cfg S3Config) domain.FileStorage {
	client := newS3Client(cfg)
	return &s3Storage{
		cfg:       cfg,
		presigner: &sdkPresigner{inner: s3.NewPresignClient(client)},
		client:    client,
	}
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (s *s3Storage) PresignUpload(ctx context.Context, key string) (string, error) {
	url, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = presignExpiry
	})
	if err != nil {
		return "", fmt.Errorf("presign put for %q: %w", key, err)
	}
	return url, nil
}

// PublicURL returns the canonical read URL for a stored object. Path-style
// addressing keeps it working against MinIO and the like in development.
func (s *s3Storage) PublicURL(key string) string {
	if s.cfg.Endpoint != "" {
		return strings.TrimSuffix(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
