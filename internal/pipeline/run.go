// Package pipeline runs one resume submission end to end: bullet generation,
// job description resolution and keyword scoring.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-builder/internal/bullets"
	"github.com/jonathan/resume-builder/internal/ingestion"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/scoring"
	"github.com/jonathan/resume-builder/internal/types"
)

// Step names reported in progress events.
const (
	StepGenerate       = "generate_bullets"
	StepJobDescription = "job_description"
	StepScore          = "score"
)

// Step categories.
const (
	CategoryGeneration = "generation"
	CategoryIngestion  = "ingestion"
	CategoryScoring    = "scoring"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs.
// It may be called from more than one goroutine, never concurrently.
type ProgressCallback func(event ProgressEvent)

// Result is the outcome of one run. It always carries bullets.
type Result struct {
	RunID   string        `json:"run_id"`
	Name    string        `json:"name,omitempty"`
	Email   string        `json:"email,omitempty"`
	Role    string        `json:"role"`
	Profile types.Profile `json:"profile"`

	types.GenerationResult
	types.ScoreResult

	// Posting is the resolved job description; nil or empty when none was given
	// or fetching it failed.
	Posting *ingestion.Posting `json:"-"`
}

// Document returns the preview/PDF view of the result.
func (r *Result) Document() rendering.Document {
	return rendering.Document{
		Name:            r.Name,
		Email:           r.Email,
		Summary:         r.Profile.Summary,
		Education:       r.Profile.Education,
		Skills:          r.Profile.Skills,
		Projects:        r.Profile.Projects,
		Bullets:         r.Bullets,
		Score:           r.Score,
		MatchedKeywords: r.MatchedKeywords,
		MissingKeywords: r.MissingKeywords,
	}
}

// Pipeline wires the generator, job description ingestion and scoring together.
type Pipeline struct {
	generator    *bullets.Generator
	ingest       *ingestion.Options
	logger       *slog.Logger
	keywordCount int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithIngestionOptions sets how job posting URLs are fetched.
func WithIngestionOptions(opts *ingestion.Options) Option {
	return func(p *Pipeline) { p.ingest = opts }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithKeywordCount sets how many job description keywords are reported.
func WithKeywordCount(n int) Option {
	return func(p *Pipeline) { p.keywordCount = n }
}

// New creates a Pipeline around generator.
func New(generator *bullets.Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		generator:    generator,
		logger:       slog.Default(),
		keywordCount: scoring.DefaultKeywordCount,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.ingest == nil {
		p.ingest = &ingestion.Options{Logger: p.logger}
	}
	return p
}

// Run processes one submission. Generation, fetch and scoring failures degrade
// the result (fallback bullets, no score) instead of failing the run.
func (p *Pipeline) Run(ctx context.Context, sub types.Submission, onProgress ProgressCallback) *Result {
	result := &Result{
		RunID:   uuid.NewString(),
		Name:    sub.Name,
		Email:   sub.Email,
		Role:    sub.Role(),
		Profile: sub.Profile(),
	}
	logger := p.logger.With(slog.String("run_id", result.RunID))

	var progressMu sync.Mutex
	emit := func(step, category, message string, content any) {
		if onProgress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		onProgress(ProgressEvent{
			Step:     step,
			Category: category,
			Message:  message,
			RunID:    result.RunID,
			Content:  content,
		})
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		result.GenerationResult = p.generator.Generate(gCtx, result.Profile, result.Role)
		emit(StepGenerate, CategoryGeneration,
			fmt.Sprintf("Produced %d %s bullets", len(result.Bullets), result.Source), result.GenerationResult)
		return nil
	})

	g.Go(func() error {
		posting, err := ingestion.JobDescription(gCtx, sub.JobDescription, sub.JobURL, p.ingest)
		if err != nil {
			logger.WarnContext(ctx, "job description unavailable, skipping score",
				slog.String("url", sub.JobURL), slog.Any("error", err))
			emit(StepJobDescription, CategoryIngestion, "Job description unavailable: "+err.Error(), nil)
			return nil
		}
		result.Posting = posting
		if !posting.Empty() {
			emit(StepJobDescription, CategoryIngestion,
				fmt.Sprintf("Resolved %s job description (%d chars)", posting.Origin, len(posting.Text)), nil)
		}
		return nil
	})

	// Neither branch returns an error.
	_ = g.Wait()

	if !result.Posting.Empty() {
		result.ScoreResult = scoring.Analyze(result.Bullets, result.Posting.Text, p.keywordCount)
		if result.HasScore() {
			emit(StepScore, CategoryScoring,
				fmt.Sprintf("Keyword match score: %.1f%%", *result.Score), result.ScoreResult)
		}
	}

	logger.InfoContext(ctx, "run complete",
		slog.String("source", string(result.Source)),
		slog.Int("bullets", len(result.Bullets)),
		slog.Bool("scored", result.HasScore()))
	return result
}
