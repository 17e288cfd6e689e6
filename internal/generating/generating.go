package generating

import (
	"context"
	"fmt"
	"log/slog"

	"slidecast/internal/config"
	"slidecast/internal/logging"
	"slidecast/internal/narration"
	"slidecast/internal/preflight"
	"slidecast/internal/queue"
	"slidecast/internal/retry"
	"slidecast/internal/services"
	"slidecast/internal/stage"
)

// Narrator is the sequential narration surface this stage needs.
type Narrator interface {
	Generate(ctx context.Context, slides []queue.SlideRecord, settings narration.Settings, progress narration.Progress) []string
}

// Handler produces one narration per slide, feeding each call the most recent
// narrations so the script flows as a single continuous talk.
type Handler struct {
	cfg      *config.Config
	narrator Narrator
	logger   *slog.Logger
}

// New constructs the generating stage handler around a shared model client.
func New(cfg *config.Config, generator narration.TextGenerator, logger *slog.Logger) *Handler {
	policy := retry.FromSettings(
		cfg.Gemini.MaxAttempts,
		cfg.Gemini.BaseDelaySeconds,
		cfg.Gemini.MaxDelaySeconds,
		retry.WithLogger(logger),
	)
	return NewWithNarrator(cfg, logger, narration.NewGenerator(generator, policy, narration.WithLogger(logger)))
}

// NewWithNarrator allows injecting the narrator (used in tests).
func NewWithNarrator(cfg *config.Config, logger *slog.Logger, narrator Narrator) *Handler {
	if logger != nil {
		logger = logger.With(logging.String("component", "generating"))
	} else {
		logger = logging.NewNop()
	}
	return &Handler{cfg: cfg, narrator: narrator, logger: logger}
}

// Execute generates narrations for every slide in deck order and stores them
// on the slide records. Generation itself never fails the run; slides whose
// model calls fail fall back to their rewritten content.
func (h *Handler) Execute(ctx context.Context, run *queue.Run) error {
	logger := logging.WithContext(ctx, h.logger)

	slides, err := run.Slides()
	if err != nil {
		return services.Wrap(services.ErrValidation, "generating", "load slides", "decode slide records", err)
	}
	if len(slides) == 0 {
		return services.Wrap(services.ErrValidation, "generating", "load slides", "run has no slides to narrate", nil)
	}

	opts, err := run.NarrationOptions()
	if err != nil {
		return services.Wrap(services.ErrValidation, "generating", "load options", "decode narration options", err)
	}
	settings := narration.ResolveSettings(h.cfg.Narration, opts)

	narrations := h.narrator.Generate(ctx, slides, settings, func(completed, total int) {
		stage.Report(ctx, float64(completed)/float64(total)*100,
			fmt.Sprintf("Generated narration for slide %d of %d", completed, total))
	})
	if err := ctx.Err(); err != nil {
		return err
	}

	for i := range slides {
		slides[i].Narration = narrations[i]
	}
	if err := run.SetSlides(slides); err != nil {
		return services.Wrap(services.ErrValidation, "generating", "store slides", "encode slide records", err)
	}

	logger.Info("narrations generated", logging.Int("slides", len(slides)))
	stage.Report(ctx, 100, "Narration generation complete")
	return nil
}

// HealthCheck verifies model credentials are configured.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	const name = "generating"
	if result := preflight.CheckGeminiKeys(h.cfg); !result.Passed {
		return stage.Unhealthy(name, result.Detail)
	}
	return stage.Healthy(name)
}
