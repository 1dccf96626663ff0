package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ilask/weather-data/system"
)

// ObjectStorage persists backup, archive and export artifacts and returns a
// download URL for each uploaded object.
type ObjectStorage interface {
	Enabled() bool
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// S3Storage stores objects in an S3 bucket. A custom endpoint switches the
// client to path-style addressing for S3-compatible stores.
type S3Storage struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
}

// NewS3Storage creates a new S3Storage. Static credentials are used when
// provided, otherwise the default provider chain applies.
func NewS3Storage(region, accessKeyID, secretAccessKey, bucket, endpoint string) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:   client,
		bucket:   bucket,
		region:   region,
		endpoint: endpoint,
	}, nil
}

// Enabled reports whether a target bucket is configured.
func (s *S3Storage) Enabled() bool {
	return s.bucket != ""
}

// Upload puts one object and returns its download URL.
func (s *S3Storage) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	system.RecordUpstreamCall("s3", err)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key), nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}
