package dashboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Lllllllleong/documentinsights/internal/models"
	"github.com/Lllllllleong/documentinsights/internal/presenter"
	"github.com/Lllllllleong/documentinsights/internal/services"
	"github.com/go-chi/chi/v5"
)

const (
	sessionCookie  = "insights_session"
	maxUploadBytes = 32 << 20
)

// PipelineCaption describes the processing chain behind the results endpoint.
const PipelineCaption = "Architecture: Cloud Storage -> text extraction -> sentiment analysis -> key-value store -> HTTP gateway -> dashboard"

// ResultsFetcher reads the latest result set.
type ResultsFetcher interface {
	Fetch(ctx context.Context) services.FetchOutcome
}

// DocumentUploader stages a file for processing.
type DocumentUploader interface {
	Upload(ctx context.Context, req models.UploadRequest) models.UploadOutcome
}

// Options configures page rendering.
type Options struct {
	Title         string
	Location      string
	TruncateLimit int
	SessionTTL    time.Duration
}

// Trigger is the user action that caused a page render.
type Trigger int

const (
	TriggerPageLoad Trigger = iota
	TriggerRefresh
	TriggerUpload
)

// RenderState is the explicit input to one page build.
type RenderState struct {
	Session *Session
	Trigger Trigger
	Upload  *models.UploadRequest
}

// Server hosts the dashboard.
type Server struct {
	fetcher   ResultsFetcher
	uploader  DocumentUploader
	presenter *presenter.Presenter
	sessions  *SessionStore
	opts      Options
}

// NewServer wires the dashboard. A nil uploader hides the upload controls.
func NewServer(fetcher ResultsFetcher, uploader DocumentUploader, p *presenter.Presenter, opts Options) *Server {
	return &Server{
		fetcher:   fetcher,
		uploader:  uploader,
		presenter: p,
		sessions:  NewSessionStore(opts.SessionTTL),
		opts:      opts,
	}
}

// Routes returns the HTTP handler for the dashboard.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(recoverMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(presenter.Static()))))

	r.Get("/", s.handleIndex)
	r.Post("/refresh", s.handleRefresh)
	if s.uploader != nil {
		r.Post("/upload", s.handleUpload)
	}
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, RenderState{Session: s.session(w, r), Trigger: TriggerPageLoad})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, RenderState{Session: s.session(w, r), Trigger: TriggerRefresh})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	req, err := readUpload(w, r)
	state := RenderState{Session: s.session(w, r), Trigger: TriggerUpload, Upload: &req}
	if err != nil {
		slog.WarnContext(r.Context(), "Could not parse upload form", "error", err)
		state.Upload = nil
	}
	s.serve(w, r, state)
}

// readUpload extracts the selected file from a multipart form. A form without a file
// yields a request with Selected set to false.
func readUpload(w http.ResponseWriter, r *http.Request) (models.UploadRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return models.UploadRequest{}, nil
		}
		return models.UploadRequest{}, err
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return models.UploadRequest{}, nil
	}
	if err != nil {
		return models.UploadRequest{}, err
	}
	defer file.Close()

	if header.Filename == "" {
		return models.UploadRequest{}, nil
	}

	payload, err := io.ReadAll(file)
	if err != nil {
		return models.UploadRequest{}, err
	}
	return models.UploadRequest{
		Key:         header.Filename,
		Payload:     payload,
		ContentType: header.Header.Get("Content-Type"),
		Selected:    true,
	}, nil
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	sess, created := s.sessions.Get(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, state RenderState) {
	page := s.BuildPage(r.Context(), state)

	var buf bytes.Buffer
	if err := s.presenter.RenderPage(&buf, page); err != nil {
		slog.ErrorContext(r.Context(), "Failed to render page", "error", err)
		http.Error(w, "Internal Server Error: failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		slog.WarnContext(r.Context(), "Failed to write page", "error", err)
	}
}

// BuildPage runs the network operation the trigger calls for, if any, and returns the
// page view-model. It holds the session lock for the whole call.
func (s *Server) BuildPage(ctx context.Context, state RenderState) presenter.Page {
	page := presenter.Page{
		Title:         s.opts.Title,
		Caption:       PipelineCaption,
		Location:      s.opts.Location,
		UploadEnabled: s.uploader != nil,
		State:         presenter.StateIdle,
	}

	sess := state.Session
	sess.Lock()
	defer sess.Unlock()
	firstVisit := sess.MarkVisited()

	switch state.Trigger {
	case TriggerPageLoad:
		if firstVisit {
			s.fill(ctx, &page)
		}
	case TriggerRefresh:
		s.fill(ctx, &page)
	case TriggerUpload:
		page.UploadNotice = s.upload(ctx, state.Upload)
	}
	return page
}

func (s *Server) fill(ctx context.Context, page *presenter.Page) {
	outcome := s.fetcher.Fetch(ctx)
	switch outcome.Kind {
	case services.FetchSuccess:
		normalized := services.Normalize(outcome.Records)
		page.State = presenter.StatePopulated
		page.Summary = normalized.Summary
		page.Distribution = normalized.Distribution
		page.Cards = services.Cards(normalized.Table, s.opts.TruncateLimit)
	case services.FetchEmpty:
		page.State = presenter.StateEmpty
		page.Message = outcome.Message()
	default:
		page.State = presenter.StateError
		page.Message = outcome.Message()
	}
}

func (s *Server) upload(ctx context.Context, req *models.UploadRequest) *presenter.Notice {
	if s.uploader == nil {
		return nil
	}
	if req == nil {
		return &presenter.Notice{Level: "error", Text: "Upload failed: the submitted form could not be read."}
	}
	if !req.Selected {
		return &presenter.Notice{Level: "warning", Text: "Please choose a file first."}
	}

	outcome := s.uploader.Upload(ctx, *req)
	if !outcome.Accepted {
		return &presenter.Notice{Level: "error", Text: outcome.Reason}
	}
	return &presenter.Notice{
		Level: "success",
		Text:  "File uploaded to " + outcome.Object + ". Processing takes a few seconds; press \"Refresh data\" afterwards to see the results.",
	}
}
