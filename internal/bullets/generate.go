package bullets

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/types"
)

// Outcome is the typed result of one generation attempt: either bullets or the
// reason none could be produced.
type Outcome struct {
	Bullets []string
	Err     error
}

// OK reports whether the attempt produced bullets.
func (o Outcome) OK() bool {
	return o.Err == nil && len(o.Bullets) > 0
}

// Generator produces resume bullets with an injected LLM client.
// The caller owns the client and closes it.
type Generator struct {
	client llm.Client
	tier   llm.ModelTier
	logger *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithTier selects the model tier used for generation.
func WithTier(tier llm.ModelTier) Option {
	return func(g *Generator) { g.tier = tier }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// NewGenerator creates a Generator. A nil client is allowed; every attempt then
// fails and Generate returns the fallback bullets.
func NewGenerator(client llm.Client, opts ...Option) *Generator {
	g := &Generator{
		client: client,
		tier:   llm.TierLite,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Attempt calls the model once and parses its output.
func (g *Generator) Attempt(ctx context.Context, profile types.Profile, role string) Outcome {
	if g.client == nil {
		return Outcome{Err: &GenerationError{Message: "no text generator configured"}}
	}

	prompt, err := BuildPrompt(profile, role)
	if err != nil {
		return Outcome{Err: &GenerationError{Message: "failed to build prompt", Cause: err}}
	}

	text, err := g.client.GenerateContent(ctx, prompt, g.tier)
	if err != nil {
		return Outcome{Err: &GenerationError{Message: "text generation failed", Cause: err}}
	}

	bullets := ParseOutput(text)
	if len(bullets) == 0 {
		return Outcome{Err: ErrNoBullets}
	}
	return Outcome{Bullets: bullets}
}

// Resolve turns an outcome into the final result, substituting Fallback on failure.
func Resolve(outcome Outcome, profile types.Profile, role string) types.GenerationResult {
	if outcome.OK() {
		return types.GenerationResult{
			Bullets: capBullets(outcome.Bullets),
			Source:  types.SourceGenerated,
		}
	}

	result := types.GenerationResult{
		Bullets: Fallback(profile, role),
		Source:  types.SourceFallback,
	}
	if outcome.Err != nil {
		result.Reason = outcome.Err.Error()
	}
	return result
}

// Generate returns 1 to MaxBullets bullets for profile and role. It never fails:
// generation errors and empty output are replaced by the fallback bullets.
func (g *Generator) Generate(ctx context.Context, profile types.Profile, role string) types.GenerationResult {
	outcome := g.Attempt(ctx, profile, role)
	if !outcome.OK() {
		if errors.Is(outcome.Err, ErrNoBullets) {
			g.logger.DebugContext(ctx, "model output had no bullets, using fallback bullets")
		} else {
			g.logger.WarnContext(ctx, "generation error, using fallback bullets", slog.Any("error", outcome.Err))
		}
	}
	return Resolve(outcome, profile, role)
}
