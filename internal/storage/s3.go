// Package storage archives receipt images in S3 so the original scan stays
// retrievable after the classifier has consumed its OCR output.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/effectmoe/ai-accounting-system-sub019/internal/config"
)

// ReceiptArchive stores and retrieves receipt images by object key.
type ReceiptArchive interface {
	Put(ctx context.Context, receiptID, contentType string, body io.Reader) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

// S3Archive implements ReceiptArchive against an S3 bucket.
type S3Archive struct {
	client *s3.Client
	bucket string
	now    func() time.Time
}

// NewS3Archive creates an S3-backed receipt archive.
func NewS3Archive(ctx context.Context, cfg appconfig.StorageConfig) (*S3Archive, error) {
	var awsCfg aws.Config
	var err error

	if cfg.AWSProfile != "" {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.S3Region),
			config.WithSharedConfigProfile(cfg.AWSProfile),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.S3Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3Archive{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.S3Bucket,
		now:    time.Now,
	}, nil
}

// Put uploads a receipt image and returns the object key. Keys are prefixed
// with the upload date so lifecycle rules can expire old scans by prefix.
func (a *S3Archive) Put(ctx context.Context, receiptID, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("receipts/%s/%s%s",
		a.now().UTC().Format("2006/01/02"), receiptID, extensionFor(contentType))

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("putting receipt image to S3: %w", err)
	}
	return key, nil
}

// Get streams a stored receipt image. The caller closes the reader.
func (a *S3Archive) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	result, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt image from S3: %w", err)
	}
	contentType := "application/octet-stream"
	if result.ContentType != nil {
		contentType = *result.ContentType
	}
	return result.Body, contentType, nil
}

// Delete removes a stored receipt image.
func (a *S3Archive) Delete(ctx context.Context, key string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting receipt image from S3: %w", err)
	}
	return nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
