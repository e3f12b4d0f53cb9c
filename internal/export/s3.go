package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/starford/mealtime/internal/apperr"
)

// S3Config holds S3-compatible object storage settings.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

// Complete reports whether every field needed to connect is set.
func (c S3Config) Complete() bool {
	return c.Endpoint != "" && c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// S3Sink uploads artifacts to an S3-compatible bucket.
type S3Sink struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Sink builds an S3 client with static credentials and a custom endpoint.
func NewS3Sink(ctx context.Context, c S3Config) (*S3Sink, error) {
	if !c.Complete() {
		return nil, fmt.Errorf("export: s3 configuration incomplete: endpoint, bucket, access key and secret are required")
	}
	region := strings.TrimSpace(c.Region)
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("export: load s3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.Endpoint)
		o.UsePathStyle = true
	})

	return &S3Sink{
		client: client,
		bucket: c.Bucket,
		prefix: strings.Trim(c.Prefix, "/"),
	}, nil
}

// Write uploads data and returns an s3://bucket/key locator.
func (s *S3Sink) Write(ctx context.Context, name string, data []byte) (string, error) {
	key := name
	if s.prefix != "" {
		key = path.Join(s.prefix, name)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("export: put object %s: %w", key, err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

// Read downloads the object behind an s3:// locator in the sink's bucket.
// Other locators wrap apperr.ErrValidation.
func (s *S3Sink) Read(ctx context.Context, locator string) ([]byte, error) {
	bucket, key, ok := splitS3Locator(locator)
	if !ok || bucket != s.bucket {
		return nil, fmt.Errorf("export: %s is not an object in bucket %s: %w", locator, s.bucket, apperr.ErrValidation)
	}
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("export: get object %s: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("export: read object body: %w", err)
	}
	return data, nil
}
