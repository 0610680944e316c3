package rendering

import (
	"embed"
	"html/template"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/jonathan/resume-builder/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var loadTemplates = sync.OnceValues(func() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, &TemplateError{Message: "failed to parse templates", Cause: err}
	}
	return tmpl, nil
})

// FormData fills the input form. Values re-populate the fields after a failed submit.
type FormData struct {
	Values types.Submission
	Errors []string
}

// PreviewData is the generated resume shown after a submit.
type PreviewData struct {
	Document
	Source types.BulletSource
}

// Fallback reports whether the bullets came from the template fallback.
func (p PreviewData) Fallback() bool {
	return p.Source == types.SourceFallback
}

// HasScore reports whether a keyword score is available.
func (d Document) HasScore() bool {
	return d.Score != nil
}

// ScoreText formats the score with one decimal, or "" when there is none.
func (d Document) ScoreText() string {
	if d.Score == nil {
		return ""
	}
	return strconv.FormatFloat(*d.Score, 'f', 1, 64)
}

// RenderForm writes the input form page.
func RenderForm(w io.Writer, data FormData) error {
	return execute(w, "form.html", data)
}

// RenderPreview writes the generated bullets, score and resume preview page.
func RenderPreview(w io.Writer, data PreviewData) error {
	return execute(w, "preview.html", data)
}

func execute(w io.Writer, name string, data any) error {
	tmpl, err := loadTemplates()
	if err != nil {
		return err
	}
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		return &TemplateError{Message: "failed to execute " + name, Cause: err}
	}
	return nil
}
