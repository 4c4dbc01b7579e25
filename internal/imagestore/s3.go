package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config configures an S3-compatible bucket (AWS S3 or MinIO).
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional custom endpoint
	PathStyle       bool
	AccessKeyID     string // optional, falls back to the default credentials chain
	SecretAccessKey string
	Prefix          string
	HTTPClient      *http.Client
}

// S3 uploads images to a bucket and returns their object URL.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
	base   string
}

// NewS3 creates an S3 image store.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "ap-south-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})

	base := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	if cfg.Endpoint != "" {
		base = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix == "" {
		prefix = "pest-images"
	}
	return &S3{client: client, bucket: cfg.Bucket, prefix: prefix, base: base}, nil
}

// Save uploads the image under <prefix>/<user>/<uuid><ext>.
func (s *S3) Save(ctx context.Context, userID string, image []byte, mimeType string) (string, error) {
	key := fmt.Sprintf("%s/%s/%s%s", s.prefix, userID, uuid.NewString(), extension(mimeType))
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(image),
	}
	if mimeType != "" {
		input.ContentType = aws.String(mimeType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.base + "/" + key, nil
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
