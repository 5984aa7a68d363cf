package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// BucketWriter writes objects into a single bucket through a dedicated storage client.
// It owns the client; Close releases it.
type BucketWriter struct {
	client *storage.Client
	bucket string
}

// NewBucketWriter opens a storage client bound to the given service-account key file.
// An empty credentialsFile falls back to application default credentials.
func NewBucketWriter(ctx context.Context, bucket, credentialsFile string) (*BucketWriter, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket must be provided to create a bucket writer")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &BucketWriter{client: client, bucket: bucket}, nil
}

// WriteObject stores body under objectName, replacing any existing object with that name.
func (b *BucketWriter) WriteObject(ctx context.Context, objectName, contentType string, body []byte) error {
	writer := b.client.Bucket(b.bucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(body)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

// Close releases the underlying storage client.
func (b *BucketWriter) Close() error {
	return b.client.Close()
}

// URI returns the gs:// address of objectName in this writer's bucket.
func (b *BucketWriter) URI(objectName string) string {
	return fmt.Sprintf("gs://%s/%s", b.bucket, objectName)
}

// DescribeError turns a storage failure into a short, user-facing explanation.
func DescribeError(err error) string {
	if err == nil {
		return ""
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			return fmt.Sprintf("storage rejected the credentials: %s", gerr.Message)
		case http.StatusForbidden:
			return fmt.Sprintf("permission denied on the upload bucket: %s", gerr.Message)
		case http.StatusNotFound:
			return fmt.Sprintf("upload bucket not found: %s", gerr.Message)
		}
		return fmt.Sprintf("storage error %d: %s", gerr.Code, gerr.Message)
	}
	if errors.Is(err, storage.ErrBucketNotExist) {
		return "upload bucket not found"
	}
	return err.Error()
}
