package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// FetchKind classifies the result of one read against the results endpoint.
type FetchKind int

const (
	FetchSuccess FetchKind = iota
	FetchEmpty
	FetchTransportError
)

func (k FetchKind) String() string {
	switch k {
	case FetchSuccess:
		return "success"
	case FetchEmpty:
		return "empty"
	case FetchTransportError:
		return "transport_error"
	}
	return "unknown"
}

// FetchOutcome is the classified result of Fetch. Records is set only for FetchSuccess;
// StatusCode and Err only for FetchTransportError.
type FetchOutcome struct {
	Kind       FetchKind
	Records    []map[string]any
	StatusCode int
	Err        error
}

// Message returns the text shown to the user for this outcome.
func (o FetchOutcome) Message() string {
	switch o.Kind {
	case FetchEmpty:
		return "No results are available yet. Upload documents to the bucket first."
	case FetchTransportError:
		if o.StatusCode != 0 {
			return fmt.Sprintf("Connection error: the results endpoint responded with status %d.", o.StatusCode)
		}
		if o.Err != nil {
			return fmt.Sprintf("An error occurred while loading the results: %v", o.Err)
		}
		return "An error occurred while loading the results."
	}
	return ""
}

// StatusError is returned for a non-2xx response from the results endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Fetcher reads the full result set from a single HTTP endpoint.
type Fetcher struct {
	endpoint   string
	httpClient *http.Client
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// NewFetcher creates a Fetcher for endpoint. The default client sets no timeout;
// the request context is the only bound on the call.
func NewFetcher(endpoint string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		endpoint:   endpoint,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// maxErrorBody caps how much of a failed response body is kept for diagnostics.
const maxErrorBody = 512

// Fetch issues one GET and classifies the outcome. It never returns an error;
// every failure is carried in the outcome.
func (f *Fetcher) Fetch(ctx context.Context) FetchOutcome {
	logCtx := slog.With("endpoint", f.endpoint)
	logCtx.Info("Fetching results.")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		logCtx.Error("Failed to build request", "error", err)
		return FetchOutcome{Kind: FetchTransportError, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		logCtx.Error("Request to results endpoint failed", "error", err)
		return FetchOutcome{Kind: FetchTransportError, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logCtx.Error("Failed to read response body", "error", err, "status", resp.StatusCode)
		return FetchOutcome{Kind: FetchTransportError, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := string(body)
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		logCtx.Warn("Results endpoint returned a non-success status", "status", resp.StatusCode)
		return FetchOutcome{
			Kind:       FetchTransportError,
			StatusCode: resp.StatusCode,
			Err:        &StatusError{StatusCode: resp.StatusCode, Body: excerpt},
		}
	}

	records, err := decodeRecords(body)
	if err != nil {
		logCtx.Error("Failed to decode results", "error", err)
		return FetchOutcome{Kind: FetchTransportError, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(records) == 0 {
		logCtx.Info("Results endpoint returned no records.")
		return FetchOutcome{Kind: FetchEmpty}
	}

	logCtx.Info("Fetched results.", "recordCount", len(records))
	return FetchOutcome{Kind: FetchSuccess, Records: records}
}

// decodeRecords parses a JSON array of record objects. An empty body, null, or an empty
// non-array value such as {} decodes to no records. Array elements that are not objects
// become records with no known fields.
func decodeRecords(body []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}

	switch v := payload.(type) {
	case nil:
		return nil, nil
	case []any:
		records := make([]map[string]any, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				m = map[string]any{}
			}
			records = append(records, m)
		}
		return records, nil
	default:
		if isEmptyValue(v) {
			return nil, nil
		}
		return nil, fmt.Errorf("expected a JSON array, got %T", payload)
	}
}

// isEmptyValue reports whether a non-array JSON value carries nothing: {}, "", false or 0.
func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case map[string]any:
		return len(val) == 0
	case string:
		return val == ""
	case bool:
		return !val
	case json.Number:
		f, err := val.Float64()
		return err == nil && f == 0
	}
	return false
}
