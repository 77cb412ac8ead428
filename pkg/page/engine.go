package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// View carries everything a page needs to talk to the API.
type View struct {
	Title           string
	APIURL          string
	PollInterval    time.Duration
	MaxPollInterval time.Duration
	// WithForm renders the submission form and the refresh button.
	WithForm bool
}

type Engine struct {
	tmpl *template.Template
}

func NewEngine() (*Engine, error) {
	funcMap := sprig.FuncMap()
	funcMap["millis"] = func(d time.Duration) int64 { return d.Milliseconds() }

	tmpl, err := template.New("page").
		Funcs(funcMap).
		ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Engine{tmpl: tmpl}, nil
}

// Render writes the full page. Output is buffered so a template error never
// produces a half-written response.
func (e *Engine) Render(w io.Writer, view View) error {
	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, "page.html.tmpl", view); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	return nil
}
