package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathan/resume-builder/internal/ingestion"
	"github.com/jonathan/resume-builder/internal/pipeline"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/scoring"
	"github.com/jonathan/resume-builder/internal/types"
)

const (
	// maxBodyBytes caps form and JSON request bodies.
	maxBodyBytes int64 = 256 << 10
	// maxPDFBullets matches the bullets limit of the PDF request schema.
	maxPDFBullets = 20
)

// GenerateResponse is the JSON body returned by /api/generate.
type GenerateResponse struct {
	RunID string `json:"run_id"`
	types.GenerationResult
	types.ScoreResult
	JobDescriptionSource ingestion.Origin `json:"job_description_source,omitempty"`
}

func newGenerateResponse(result *pipeline.Result) GenerateResponse {
	resp := GenerateResponse{
		RunID:            result.RunID,
		GenerationResult: result.GenerationResult,
		ScoreResult:      result.ScoreResult,
	}
	if !result.Posting.Empty() {
		resp.JobDescriptionSource = result.Posting.Origin
	}
	return resp
}

type pipelineRequest struct {
	submission types.Submission
	onProgress pipeline.ProgressCallback
}

// handleIndex serves the empty input form
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.htmlResponse(w, r, http.StatusOK, func(buf io.Writer) error {
		return rendering.RenderForm(buf, rendering.FormData{})
	})
}

// handleGenerate runs the pipeline for a form submission and shows the preview
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sub, err := s.parseForm(w, r)
	if err != nil {
		s.formError(w, r, sub, err)
		return
	}

	result, err := s.runPipeline(r.Context(), pipelineRequest{submission: sub})
	if err != nil {
		s.formError(w, r, sub, err)
		return
	}

	s.htmlResponse(w, r, http.StatusOK, func(buf io.Writer) error {
		return rendering.RenderPreview(buf, rendering.PreviewData{
			Document: result.Document(),
			Source:   result.Source,
		})
	})
}

// handleResumePDF returns the PDF for a form submission. Bullets posted with the
// form (from the preview page) are printed as-is; without them bullets are generated.
func (s *Server) handleResumePDF(w http.ResponseWriter, r *http.Request) {
	sub, err := s.parseForm(w, r)
	if err != nil {
		s.formError(w, r, sub, err)
		return
	}

	doc, err := s.documentFor(r, sub, formBullets(r.PostForm))
	if err != nil {
		s.formError(w, r, sub, err)
		return
	}
	s.pdfResponse(w, r, doc)
}

// handleAPIGenerate runs the pipeline for a JSON submission
func (s *Server) handleAPIGenerate(w http.ResponseWriter, r *http.Request) {
	var sub types.Submission
	if err := s.readJSON(w, r, schemas.GenerateRequest, &sub); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := sub.Validate(); err != nil {
		s.errorResponse(w, r, &ErrValidation{Messages: types.ValidationMessages(err)})
		return
	}

	result, err := s.runPipeline(r.Context(), pipelineRequest{submission: sub})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newGenerateResponse(result))
}

// handleAPIGenerateStream runs the pipeline and streams progress via SSE
func (s *Server) handleAPIGenerateStream(w http.ResponseWriter, r *http.Request) {
	var sub types.Submission
	if err := s.readJSON(w, r, schemas.GenerateRequest, &sub); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := sub.Validate(); err != nil {
		s.errorResponse(w, r, &ErrValidation{Messages: types.ValidationMessages(err)})
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	result, err := s.runPipeline(r.Context(), pipelineRequest{
		submission: sub,
		onProgress: func(event pipeline.ProgressEvent) {
			if err := sse.WriteEvent(EventProgress, event); err != nil {
				s.logger.DebugContext(r.Context(), "error writing SSE event", slog.Any("error", err))
			}
		},
	})
	if err != nil {
		sse.WriteError(err.Error())
		return
	}
	sse.WriteResult(newGenerateResponse(result))
}

// handleAPIScore scores existing bullets against a job description
func (s *Server) handleAPIScore(w http.ResponseWriter, r *http.Request) {
	var req types.ScoreRequest
	if err := s.readJSON(w, r, schemas.ScoreRequest, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, scoring.Analyze(req.Bullets, req.JobDescription, scoring.DefaultKeywordCount))
}

// handleAPIPDF renders the PDF for a JSON submission
func (s *Server) handleAPIPDF(w http.ResponseWriter, r *http.Request) {
	var req types.PDFRequest
	if err := s.readJSON(w, r, schemas.PDFRequest, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, r, &ErrValidation{Messages: types.ValidationMessages(err)})
		return
	}

	doc, err := s.documentFor(r, req.Submission, req.Bullets)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.pdfResponse(w, r, doc)
}

// documentFor builds the resume document, generating bullets when none are given.
func (s *Server) documentFor(r *http.Request, sub types.Submission, bullets []string) (rendering.Document, error) {
	if len(bullets) == 0 {
		result, err := s.runPipeline(r.Context(), pipelineRequest{submission: sub})
		if err != nil {
			return rendering.Document{}, err
		}
		return result.Document(), nil
	}

	profile := sub.Profile()
	return rendering.Document{
		Name:      sub.Name,
		Email:     sub.Email,
		Summary:   profile.Summary,
		Education: profile.Education,
		Skills:    profile.Skills,
		Projects:  profile.Projects,
		Bullets:   bullets,
	}, nil
}

// parseForm reads and validates a form submission. The returned submission
// holds whatever was posted, even when err is set.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) (types.Submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return types.Submission{}, &ErrBodyTooLarge{Limit: maxErr.Limit}
		}
		return types.Submission{}, &ErrValidation{Messages: []string{"could not read form: " + err.Error()}}
	}

	sub := submissionFromForm(r.PostForm)
	if err := sub.Validate(); err != nil {
		return sub, &ErrValidation{Messages: types.ValidationMessages(err)}
	}
	return sub, nil
}

func submissionFromForm(form url.Values) types.Submission {
	return types.Submission{
		Name:               strings.TrimSpace(form.Get("name")),
		Email:              strings.TrimSpace(form.Get("email")),
		Summary:            form.Get("summary"),
		Education:          form.Get("education"),
		Skills:             form.Get("skills"),
		ProjectTitle:       form.Get("project_title"),
		ProjectDescription: form.Get("project_description"),
		TargetRole:         form.Get("target_role"),
		JobDescription:     form.Get("job_description"),
		JobURL:             strings.TrimSpace(form.Get("job_url")),
	}
}

// formBullets returns the non-blank "bullet" fields, at most maxPDFBullets.
func formBullets(form url.Values) []string {
	var bullets []string
	for _, b := range form["bullet"] {
		if b = strings.TrimSpace(b); b != "" {
			bullets = append(bullets, b)
		}
		if len(bullets) == maxPDFBullets {
			break
		}
	}
	return bullets
}

// readJSON reads a size-limited body, validates it against the named schema and decodes it into dst.
func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, schema string, dst any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &ErrBodyTooLarge{Limit: maxErr.Limit}
		}
		return &ErrValidation{Messages: []string{"could not read body: " + err.Error()}}
	}

	if err := schemas.Validate(schema, data); err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &ErrValidation{Messages: []string{"invalid JSON: " + err.Error()}}
	}
	return nil
}

// formError re-renders the form with the error messages.
func (s *Server) formError(w http.ResponseWriter, r *http.Request, sub types.Submission, err error) {
	status := HTTPStatus(err)
	messages := errorMessages(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.ErrorContext(r.Context(), "form request failed", slog.Any("error", err))
		messages = []string{"Something went wrong while building your resume. Please try again."}
	}
	s.htmlResponse(w, r, status, func(buf io.Writer) error {
		return rendering.RenderForm(buf, rendering.FormData{Values: sub, Errors: messages})
	})
}

// htmlResponse renders into a buffer first so template failures become a clean 500.
func (s *Server) htmlResponse(w http.ResponseWriter, r *http.Request, status int, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to render page", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.DebugContext(r.Context(), "error writing page", slog.Any("error", err))
	}
}

// pdfResponse renders doc and sends it as a download.
func (s *Server) pdfResponse(w http.ResponseWriter, r *http.Request, doc rendering.Document) {
	data, err := rendering.RenderPDF(doc)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", contentDisposition(rendering.DownloadFilename(doc.Name)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.DebugContext(r.Context(), "error writing PDF", slog.Any("error", err))
	}
}

// contentDisposition quotes plain ASCII filenames directly and falls back to
// RFC 2231 encoding for anything else.
func contentDisposition(filename string) string {
	plain := true
	for _, c := range filename {
		if c < 0x20 || c > 0x7e || c == '"' || c == '\\' {
			plain = false
			break
		}
	}
	if plain {
		return `attachment; filename="` + filename + `"`
	}
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return `attachment; filename="resume.pdf"`
}
