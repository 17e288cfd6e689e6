package rewriter

import (
	"context"
	"fmt"
	"log/slog"

	"slidecast/internal/llmjson"
	"slidecast/internal/logging"
	"slidecast/internal/retry"
	"slidecast/internal/services/gemini"
)

// TextGenerator is the model surface the rewriter needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, req gemini.Request) (string, error)
}

// Slide carries the inputs for one rewrite call.
type Slide struct {
	Ordinal      int
	ImagePNG     []byte
	OriginalText string
}

// Option configures the rewriter.
type Option func(*Rewriter)

// WithLogger attaches a logger for per-slide diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rewriter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Rewriter turns one rendered slide into normalized descriptive text via the
// model. Callers always receive a plain string regardless of the shape the
// model answered with.
type Rewriter struct {
	generator TextGenerator
	policy    *retry.Policy
	logger    *slog.Logger
}

// New constructs a rewriter around a model client and retry policy.
func New(generator TextGenerator, policy *retry.Policy, opts ...Option) *Rewriter {
	r := &Rewriter{
		generator: generator,
		policy:    policy,
		logger:    logging.NewNop(),
	}
	if r.policy == nil {
		r.policy = retry.New()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rewrite produces normalized descriptive text for a single slide. The model
// response is repair-parsed and the rewritten_content field coerced to a
// string; list values are joined with newlines.
func (r *Rewriter) Rewrite(ctx context.Context, slide Slide, tone, audience string) (string, error) {
	req := gemini.Request{
		Prompt:   buildPrompt(len(slide.ImagePNG) > 0, slide.OriginalText, tone, audience),
		ImagePNG: slide.ImagePNG,
	}

	var content string
	operation := fmt.Sprintf("rewrite slide %d", slide.Ordinal)
	err := r.policy.Do(ctx, operation, func(ctx context.Context) error {
		raw, err := r.generator.GenerateText(ctx, req)
		if err != nil {
			return err
		}
		payload, err := llmjson.DecodeObject(raw)
		if err != nil {
			return err
		}
		content = llmjson.CoerceString(payload["rewritten_content"])
		return nil
	})
	if err != nil {
		return "", err
	}

	r.logger.Debug("slide rewritten",
		logging.Int("slide", slide.Ordinal),
		logging.Int("content_chars", len(content)))
	return content, nil
}
