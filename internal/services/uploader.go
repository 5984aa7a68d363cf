package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/Lllllllleong/documentinsights/internal/gcp"
	"github.com/Lllllllleong/documentinsights/internal/models"
)

// ObjectStore is a connection to the upload bucket that lives for a single upload.
type ObjectStore interface {
	WriteObject(ctx context.Context, objectName, contentType string, body []byte) error
	URI(objectName string) string
	Close() error
}

// StoreOpener establishes a new ObjectStore connection.
type StoreOpener func(ctx context.Context) (ObjectStore, error)

// UploaderConfig holds configuration for the upload hand-off.
type UploaderConfig struct {
	Bucket          string
	CredentialsFile string
}

// Uploader stages files into the bucket that feeds the processing pipeline.
type Uploader struct {
	open StoreOpener
}

// NewUploader creates an Uploader that opens a fresh GCS client for every upload.
func NewUploader(config UploaderConfig) *Uploader {
	return NewUploaderWithOpener(func(ctx context.Context) (ObjectStore, error) {
		return gcp.NewBucketWriter(ctx, config.Bucket, config.CredentialsFile)
	})
}

// NewUploaderWithOpener creates an Uploader backed by an arbitrary store.
func NewUploaderWithOpener(open StoreOpener) *Uploader {
	return &Uploader{open: open}
}

// Upload writes the payload under its filename and returns as soon as the object is stored.
// It does not wait for downstream processing. Failures come back as a rejected outcome.
func (u *Uploader) Upload(ctx context.Context, req models.UploadRequest) (outcome models.UploadOutcome) {
	if !req.Selected {
		return models.UploadOutcome{Reason: "Please choose a file before starting processing."}
	}
	key := ObjectKey(req.Key)
	if key == "" {
		return models.UploadOutcome{Reason: "The selected file has no usable name."}
	}
	if len(req.Payload) == 0 {
		return models.UploadOutcome{Reason: fmt.Sprintf("The selected file %q is empty.", key)}
	}

	logCtx := slog.With("object", key, "size", len(req.Payload))
	logCtx.Info("Staging upload.")

	store, err := u.open(ctx)
	if err != nil {
		logCtx.Error("Failed to connect to storage", "error", err)
		return models.UploadOutcome{Reason: "Upload failed: " + gcp.DescribeError(err)}
	}
	defer func() {
		if err := store.Close(); err != nil {
			logCtx.Warn("Failed to close storage connection", "error", err)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			logCtx.Error("Upload panicked", "panic", r)
			outcome = models.UploadOutcome{Reason: fmt.Sprintf("Upload failed: %v", r)}
		}
	}()

	if err := store.WriteObject(ctx, key, ContentTypeFor(key, req.ContentType), req.Payload); err != nil {
		logCtx.Error("Failed to stage upload", "error", err)
		return models.UploadOutcome{Reason: "Upload failed: " + gcp.DescribeError(err)}
	}

	uri := store.URI(key)
	logCtx.Info("Upload staged.", "uri", uri)
	return models.UploadOutcome{Accepted: true, Object: uri}
}

// ObjectKey reduces a client-supplied filename to its base name.
func ObjectKey(filename string) string {
	name := strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

var imageContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// ContentTypeFor picks the object content type, preferring the declared one.
func ContentTypeFor(key, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if ct, ok := imageContentTypes[strings.ToLower(path.Ext(key))]; ok {
		return ct
	}
	return "application/octet-stream"
}
