package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	appconfig "direct-chat-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Uploader stores message images in S3 and hands back durable URLs
type Uploader struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewUploader creates an S3-backed uploader
func NewUploader(ctx context.Context, cfg appconfig.AWSConfig) (*Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.Region)
	if cfg.Endpoint != "" {
		baseURL = fmt.Sprintf("%s/%s", strings.TrimRight(cfg.Endpoint, "/"), cfg.S3Bucket)
	}

	return &Uploader{
		client:  client,
		bucket:  cfg.S3Bucket,
		baseURL: baseURL,
	}, nil
}

// Upload decodes a base64 image payload, writes it to the bucket and returns
// the object's public URL
func (u *Uploader) Upload(ctx context.Context, userID, data string) (string, error) {
	contentType, raw, err := decodeImagePayload(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode image payload: %w", err)
	}

	key := fmt.Sprintf("messages/%s/%s%s", userID, uuid.New().String(), extensionFor(contentType))

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	return u.baseURL + "/" + key, nil
}

// decodeImagePayload accepts either a data URL ("data:image/png;base64,...")
// or a bare base64 string, which is treated as JPEG
func decodeImagePayload(data string) (string, []byte, error) {
	contentType := "image/jpeg"
	payload := data

	if strings.HasPrefix(data, "data:") {
		meta, rest, ok := strings.Cut(data[len("data:"):], ",")
		if !ok {
			return "", nil, fmt.Errorf("malformed data URL")
		}
		encoding := ""
		if ct, enc, hasEnc := strings.Cut(meta, ";"); hasEnc {
			contentType, encoding = ct, enc
		} else {
			contentType = meta
		}
		if encoding != "base64" {
			return "", nil, fmt.Errorf("unsupported data URL encoding %q", encoding)
		}
		payload = rest
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	if len(raw) == 0 {
		return "", nil, fmt.Errorf("empty image payload")
	}

	return contentType, raw, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
