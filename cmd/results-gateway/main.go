package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/documentinsights/internal/services"
)

var (
	gatewayInstance *services.GatewayFunction
	once            sync.Once
	initErr         error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleListResults", handleListResults)
}

// main is required by the Go Functions Framework.
func main() {}

// handleListResults serves every processed document as a JSON array.
func handleListResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	once.Do(func() {
		gatewayInstance, initErr = services.NewGateway(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: Gateway initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	records, err := gatewayInstance.Process(r.Context())
	if err != nil {
		// Error is already logged with context in the Process method.
		http.Error(w, "Internal Server Error: failed to read results", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		slog.Error("Failed to write response", "error", err, "recordCount", len(records))
	}
}
