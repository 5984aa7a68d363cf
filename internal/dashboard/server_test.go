package dashboard

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Lllllllleong/documentinsights/internal/models"
	"github.com/Lllllllleong/documentinsights/internal/presenter"
	"github.com/Lllllllleong/documentinsights/internal/services"
)

type fakeFetcher struct {
	outcome services.FetchOutcome
	calls   int
}

func (f *fakeFetcher) Fetch(context.Context) services.FetchOutcome {
	f.calls++
	return f.outcome
}

type fakeUploader struct {
	outcome  models.UploadOutcome
	requests []models.UploadRequest
}

func (u *fakeUploader) Upload(_ context.Context, req models.UploadRequest) models.UploadOutcome {
	u.requests = append(u.requests, req)
	return u.outcome
}

func newTestDashboard(t *testing.T, fetcher ResultsFetcher, uploader DocumentUploader) (*httptest.Server, *http.Client) {
	t.Helper()
	p, err := presenter.New()
	if err != nil {
		t.Fatalf("presenter.New failed: %v", err)
	}
	s := NewServer(fetcher, uploader, p, Options{Title: "Insights", TruncateLimit: 500, SessionTTL: time.Hour})
	server := httptest.NewServer(s.Routes())
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New failed: %v", err)
	}
	return server, &http.Client{Jar: jar}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, b)
	}
	return string(b)
}

func successOutcome() services.FetchOutcome {
	return services.FetchOutcome{
		Kind:    services.FetchSuccess,
		Records: []map[string]any{{"InvoiceId": "A1", "Sentiment": "POSITIVE", "RawText": "hello"}},
	}
}

func TestIndex_AutoFetchOnFirstVisitOnly(t *testing.T) {
	fetcher := &fakeFetcher{outcome: successOutcome()}
	server, client := newTestDashboard(t, fetcher, nil)

	resp, err := client.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	body := readBody(t, resp)
	if fetcher.calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", fetcher.calls)
	}
	for _, want := range []string{"ID: A1", "POSITIVE", "hello", `data-state="populated"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}

	resp, err = client.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("second GET / failed: %v", err)
	}
	body = readBody(t, resp)
	if fetcher.calls != 1 {
		t.Errorf("fetch calls after revisit = %d, want 1", fetcher.calls)
	}
	if !strings.Contains(body, `data-state="idle"`) {
		t.Error("revisit should render the idle state")
	}
}

func TestRefresh_AlwaysFetches(t *testing.T) {
	fetcher := &fakeFetcher{outcome: successOutcome()}
	server, client := newTestDashboard(t, fetcher, nil)

	for i := 1; i <= 2; i++ {
		resp, err := client.Post(server.URL+"/refresh", "application/x-www-form-urlencoded", nil)
		if err != nil {
			t.Fatalf("POST /refresh failed: %v", err)
		}
		readBody(t, resp)
		if fetcher.calls != i {
			t.Errorf("fetch calls = %d, want %d", fetcher.calls, i)
		}
	}
}

func TestRefresh_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		outcome services.FetchOutcome
		want    []string
		notWant []string
	}{
		{
			name:    "empty",
			outcome: services.FetchOutcome{Kind: services.FetchEmpty},
			want:    []string{`data-state="empty"`, "No results are available yet."},
			notWant: []string{"<svg", `class="metric"`},
		},
		{
			name:    "server error",
			outcome: services.FetchOutcome{Kind: services.FetchTransportError, StatusCode: 500},
			want:    []string{`data-state="error"`, "500", `action="/refresh"`},
			notWant: []string{"<svg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, client := newTestDashboard(t, &fakeFetcher{outcome: tt.outcome}, nil)
			resp, err := client.Post(server.URL+"/refresh", "application/x-www-form-urlencoded", nil)
			if err != nil {
				t.Fatalf("POST /refresh failed: %v", err)
			}
			body := readBody(t, resp)
			for _, s := range tt.want {
				if !strings.Contains(body, s) {
					t.Errorf("body missing %q", s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(body, s) {
					t.Errorf("body unexpectedly contains %q", s)
				}
			}
		})
	}
}

func TestRefresh_UsesRealFetcherAgainstFailingEndpoint(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer endpoint.Close()

	server, client := newTestDashboard(t, services.NewFetcher(endpoint.URL), nil)
	resp, err := client.Post(server.URL+"/refresh", "", nil)
	if err != nil {
		t.Fatalf("POST /refresh failed: %v", err)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, "status 500") {
		t.Error("error message should carry the status code")
	}
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write(content)
	} else {
		mw.WriteField("note", "no file")
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUpload_NoFileSelected(t *testing.T) {
	fetcher := &fakeFetcher{outcome: successOutcome()}
	uploader := &fakeUploader{}
	server, client := newTestDashboard(t, fetcher, uploader)

	body, contentType := multipartBody(t, "", nil)
	resp, err := client.Post(server.URL+"/upload", contentType, body)
	if err != nil {
		t.Fatalf("POST /upload failed: %v", err)
	}
	page := readBody(t, resp)
	if len(uploader.requests) != 0 {
		t.Errorf("uploader called %d times, want 0", len(uploader.requests))
	}
	if fetcher.calls != 0 {
		t.Errorf("fetch calls = %d, want 0", fetcher.calls)
	}
	if !strings.Contains(page, "Please choose a file first.") {
		t.Error("missing no-file warning")
	}
}

func TestUpload_Accepted(t *testing.T) {
	uploader := &fakeUploader{outcome: models.UploadOutcome{Accepted: true, Object: "gs://staging/scan.png"}}
	fetcher := &fakeFetcher{outcome: successOutcome()}
	server, client := newTestDashboard(t, fetcher, uploader)

	body, contentType := multipartBody(t, "scan.png", []byte("png-bytes"))
	resp, err := client.Post(server.URL+"/upload", contentType, body)
	if err != nil {
		t.Fatalf("POST /upload failed: %v", err)
	}
	page := readBody(t, resp)
	if len(uploader.requests) != 1 {
		t.Fatalf("uploader called %d times, want 1", len(uploader.requests))
	}
	req := uploader.requests[0]
	if req.Key != "scan.png" || string(req.Payload) != "png-bytes" || !req.Selected {
		t.Errorf("request = %+v", req)
	}
	if fetcher.calls != 0 {
		t.Errorf("upload should not trigger a fetch, got %d calls", fetcher.calls)
	}
	if !strings.Contains(page, "gs://staging/scan.png") || !strings.Contains(page, "notice-success") {
		t.Error("missing success notice")
	}
}

func TestUpload_Rejected(t *testing.T) {
	uploader := &fakeUploader{outcome: models.UploadOutcome{Reason: "Upload failed: permission denied"}}
	server, client := newTestDashboard(t, &fakeFetcher{}, uploader)

	body, contentType := multipartBody(t, "scan.png", []byte("x"))
	resp, err := client.Post(server.URL+"/upload", contentType, body)
	if err != nil {
		t.Fatalf("POST /upload failed: %v", err)
	}
	page := readBody(t, resp)
	if !strings.Contains(page, "Upload failed: permission denied") {
		t.Error("missing rejection reason")
	}
}

func TestUpload_DisabledRouteIsAbsent(t *testing.T) {
	server, client := newTestDashboard(t, &fakeFetcher{}, nil)

	body, contentType := multipartBody(t, "scan.png", []byte("x"))
	resp, err := client.Post(server.URL+"/upload", contentType, body)
	if err != nil {
		t.Fatalf("POST /upload failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed && resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 or 405", resp.StatusCode)
	}
}

func TestHealthzAndStatic(t *testing.T) {
	server, client := newTestDashboard(t, &fakeFetcher{}, nil)

	for _, path := range []string{"/healthz", "/static/style.css"} {
		resp, err := client.Get(server.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		readBody(t, resp)
		if resp.Header.Get("X-Request-Id") == "" {
			t.Errorf("%s: missing X-Request-Id", path)
		}
	}
}

func TestBuildPage_TruncatesCards(t *testing.T) {
	p, err := presenter.New()
	if err != nil {
		t.Fatalf("presenter.New failed: %v", err)
	}
	fetcher := &fakeFetcher{outcome: services.FetchOutcome{
		Kind:    services.FetchSuccess,
		Records: []map[string]any{{"RawText": strings.Repeat("a", 12)}, {}},
	}}
	s := NewServer(fetcher, nil, p, Options{TruncateLimit: 10})

	sess, _ := s.sessions.Get("")
	page := s.BuildPage(context.Background(), RenderState{Session: sess, Trigger: TriggerRefresh})
	if page.State != presenter.StatePopulated {
		t.Fatalf("State = %v, want populated", page.State)
	}
	if len(page.Cards) != 2 {
		t.Fatalf("len(Cards) = %d, want 2", len(page.Cards))
	}
	if page.Cards[0].Excerpt != strings.Repeat("a", 10)+services.TruncationMarker {
		t.Errorf("Excerpt = %q", page.Cards[0].Excerpt)
	}
	if page.Cards[1].ID != models.DefaultID {
		t.Errorf("Cards[1].ID = %q, want %q", page.Cards[1].ID, models.DefaultID)
	}
	if page.Summary.Total != 2 {
		t.Errorf("Total = %d, want 2", page.Summary.Total)
	}
}
