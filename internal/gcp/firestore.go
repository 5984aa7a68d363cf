package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// StoredDocument is a single Firestore document reduced to its ID and field data.
type StoredDocument struct {
	ID   string
	Data map[string]any
}

// ReadCollection returns every document in the named collection, in the order Firestore yields them.
func ReadCollection(ctx context.Context, client *firestore.Client, collection string) ([]StoredDocument, error) {
	it := client.Collection(collection).Documents(ctx)
	defer it.Stop()

	var docs []StoredDocument
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read collection %s: %w", collection, err)
		}
		docs = append(docs, StoredDocument{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}
