package services

import (
	"testing"

	"github.com/Lllllllleong/documentinsights/internal/gcp"
)

func TestToWireRecord(t *testing.T) {
	t.Run("fills id from document", func(t *testing.T) {
		got := ToWireRecord(gcp.StoredDocument{ID: "doc-1", Data: map[string]any{"Sentiment": "NEGATIVE"}})
		if got["InvoiceId"] != "doc-1" {
			t.Errorf("InvoiceId = %v, want doc-1", got["InvoiceId"])
		}
		if got["Sentiment"] != "NEGATIVE" {
			t.Errorf("Sentiment = %v", got["Sentiment"])
		}
	})

	t.Run("keeps stored id", func(t *testing.T) {
		data := map[string]any{"InvoiceId": "INV-9"}
		got := ToWireRecord(gcp.StoredDocument{ID: "doc-1", Data: data})
		if got["InvoiceId"] != "INV-9" {
			t.Errorf("InvoiceId = %v, want INV-9", got["InvoiceId"])
		}
		got["InvoiceId"] = "changed"
		if data["InvoiceId"] != "INV-9" {
			t.Error("ToWireRecord mutated the stored document")
		}
	})

	t.Run("nil data", func(t *testing.T) {
		got := ToWireRecord(gcp.StoredDocument{ID: "doc-2"})
		if len(got) != 1 || got["InvoiceId"] != "doc-2" {
			t.Errorf("got %v", got)
		}
	})
}
