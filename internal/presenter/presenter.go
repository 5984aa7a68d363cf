// Package presenter renders the dashboard page and its three result views as HTML.
package presenter

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/Lllllllleong/documentinsights/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// BodyState is the state of the page body after a request has been handled.
// Loading is shown client-side while a trigger form is in flight.
type BodyState int

const (
	StateIdle BodyState = iota
	StatePopulated
	StateEmpty
	StateError
)

func (s BodyState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePopulated:
		return "populated"
	case StateEmpty:
		return "empty"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Notice is a message shown in the side panel.
type Notice struct {
	Level string // info, success, warning or error
	Text  string
}

// Page is everything needed to render the dashboard once.
type Page struct {
	Title         string
	Caption       string
	Location      string
	UploadEnabled bool
	UploadNotice  *Notice

	State        BodyState
	Message      string
	Summary      models.Summary
	Distribution models.Distribution
	Cards        []models.Card
}

// Presenter holds the parsed templates.
type Presenter struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Presenter, error) {
	tmpl, err := template.New("dashboard").Funcs(template.FuncMap{
		"chart": BuildChart,
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Presenter{tmpl: tmpl}, nil
}

// RenderSummary writes the total, positive and negative tiles.
func (p *Presenter) RenderSummary(w io.Writer, s models.Summary) error {
	return p.tmpl.ExecuteTemplate(w, "summary", s)
}

// RenderDistribution writes the sentiment donut chart. Nothing is written for an empty distribution.
func (p *Presenter) RenderDistribution(w io.Writer, d models.Distribution) error {
	chart := BuildChart(d)
	if chart == nil {
		return nil
	}
	return p.tmpl.ExecuteTemplate(w, "distribution", chart)
}

// RenderDetailCards writes one card per record, in order.
func (p *Presenter) RenderDetailCards(w io.Writer, cards []models.Card) error {
	return p.tmpl.ExecuteTemplate(w, "cards", cards)
}

// RenderPage writes the full HTML document.
func (p *Presenter) RenderPage(w io.Writer, page Page) error {
	return p.tmpl.ExecuteTemplate(w, "page", page)
}

// Static returns the stylesheet and other assets served under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// IsPopulated reports whether the body shows a fetched result set.
func (p Page) IsPopulated() bool { return p.State == StatePopulated }

// IsEmpty reports whether the last fetch returned no records.
func (p Page) IsEmpty() bool { return p.State == StateEmpty }

// IsError reports whether the last fetch failed.
func (p Page) IsError() bool { return p.State == StateError }
