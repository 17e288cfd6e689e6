package narration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"slidecast/internal/llmjson"
	"slidecast/internal/logging"
	"slidecast/internal/queue"
	"slidecast/internal/retry"
	"slidecast/internal/services/gemini"
)

// TextGenerator is the model surface narration generation needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, req gemini.Request) (string, error)
}

// Progress is invoked after each slide's narration completes.
type Progress func(completed, total int)

// Option configures the generator.
type Option func(*Generator)

// WithLogger attaches a logger for per-slide diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Generator produces one narration per slide, strictly in slide order. Each
// call is conditioned on the trailing window of previously generated
// narrations, so the loop cannot be parallelized: slide i's prompt contains
// slide i-1's output.
type Generator struct {
	generator TextGenerator
	policy    *retry.Policy
	logger    *slog.Logger
}

// NewGenerator constructs a narration generator.
func NewGenerator(generator TextGenerator, policy *retry.Policy, opts ...Option) *Generator {
	g := &Generator{
		generator: generator,
		policy:    policy,
		logger:    logging.NewNop(),
	}
	if g.policy == nil {
		g.policy = retry.New()
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns one narration string per slide, index-aligned with the
// input. A slide whose model call fails falls back to its rewritten content
// so the deck still narrates end to end. The returned slice is always exactly
// len(slides) long; a mismatch after the loop is repaired and logged as a
// data-integrity warning.
func (g *Generator) Generate(ctx context.Context, slides []queue.SlideRecord, settings Settings, progress Progress) []string {
	total := len(slides)
	narrations := make([]string, 0, total)

	for i, slide := range slides {
		notes := ""
		if settings.IncludeSpeakerNotes {
			notes = slide.SpeakerNotes
		}

		narration, err := g.generateOne(ctx, slide.RewrittenContent, notes, narrations, i+1, total, settings)
		if err != nil {
			g.logger.Warn("narration generation failed; falling back to rewritten content",
				logging.Int("slide", i+1),
				logging.Error(err))
			narration = slide.RewrittenContent
		}
		narrations = append(narrations, narration)

		if progress != nil {
			progress(i+1, total)
		}
	}

	return alignToSlideCount(narrations, total, g.logger)
}

func (g *Generator) generateOne(ctx context.Context, content, notes string, previous []string, slideNumber, totalSlides int, settings Settings) (string, error) {
	req := gemini.Request{
		Prompt: buildNarrationPrompt(settings, content, notes, previous, slideNumber, totalSlides),
	}

	var narration string
	operation := fmt.Sprintf("narrate slide %d", slideNumber)
	err := g.policy.Do(ctx, operation, func(ctx context.Context) error {
		raw, err := g.generator.GenerateText(ctx, req)
		if err != nil {
			return err
		}
		payload, err := llmjson.DecodeObject(raw)
		if err != nil {
			return err
		}
		narration = unescapeBreaks(llmjson.CoerceString(payload["narration"]))
		return nil
	})
	if err != nil {
		return "", err
	}
	return narration, nil
}

// unescapeBreaks converts the doubly escaped break sequences the prompt asks
// for into real whitespace.
func unescapeBreaks(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, `\n\n`, "\n\n")
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = strings.ReplaceAll(text, `\t`, "\t")
	return text
}

// alignToSlideCount pads or truncates the narration list to exactly total
// entries. Triggering it means an upstream invariant broke, so it logs loudly.
func alignToSlideCount(narrations []string, total int, logger *slog.Logger) []string {
	if len(narrations) == total {
		return narrations
	}
	logger.Error("narration count does not match slide count; repairing alignment",
		logging.Int("narrations", len(narrations)),
		logging.Int("slides", total))
	for len(narrations) < total {
		narrations = append(narrations, "")
	}
	return narrations[:total]
}
