package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/documentinsights/internal/gcp"
	"github.com/Lllllllleong/documentinsights/internal/models"
)

// GatewayConfig holds configuration for the results gateway.
type GatewayConfig struct {
	ProjectID      string
	CollectionName string
}

// GatewayFunction serves the processed results stored in Firestore.
type GatewayFunction struct {
	firestoreClient *firestore.Client
	config          GatewayConfig
}

// NewGateway creates a new GatewayFunction instance.
func NewGateway(ctx context.Context) (*GatewayFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := GatewayConfig{
		ProjectID:      projectID,
		CollectionName: gcp.GetEnv("FIRESTORE_COLLECTION", "invoices"),
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	slog.Info("Results gateway initialized.", "collection", config.CollectionName)
	return &GatewayFunction{
		firestoreClient: firestoreClient,
		config:          config,
	}, nil
}

// Process returns every stored result as a wire record.
func (f *GatewayFunction) Process(ctx context.Context) ([]map[string]any, error) {
	logCtx := slog.With("collection", f.config.CollectionName)

	docs, err := gcp.ReadCollection(ctx, f.firestoreClient, f.config.CollectionName)
	if err != nil {
		logCtx.Error("Failed to read results", "error", err)
		return nil, err
	}

	records := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		records = append(records, ToWireRecord(doc))
	}
	logCtx.Info("Served results.", "recordCount", len(records))
	return records, nil
}

// ToWireRecord copies a stored document's fields and fills InvoiceId from the document ID
// when the document does not carry one.
func ToWireRecord(doc gcp.StoredDocument) map[string]any {
	out := make(map[string]any, len(doc.Data)+1)
	for k, v := range doc.Data {
		out[k] = v
	}
	if v, ok := out[models.KeyInvoiceID]; !ok || v == nil {
		out[models.KeyInvoiceID] = doc.ID
	}
	return out
}
