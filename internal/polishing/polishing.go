package polishing

import (
	"context"
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

// Refiner is the batch refinement surface this stage needs.
type Refiner interface {
	Refine(ctx context.Context, narrations []string, ordinals []int, settings narration.Settings) []string
}

// Handler runs the whole narration script through one refinement pass to
// smooth transitions between slides. The stage is optional and best-effort;
// a failed refinement leaves the generated narrations untouched.
type Handler struct {
	cfg     *config.Config
	refiner Refiner
	logger  *slog.Logger
}

// New constructs the polishing stage handler around a shared model client.
func New(cfg *config.Config, generator narration.TextGenerator, logger *slog.Logger) *Handler {
	policy := retry.FromSettings(
		cfg.Gemini.MaxAttempts,
		cfg.Gemini.BaseDelaySeconds,
		cfg.Gemini.MaxDelaySeconds,
		retry.WithLogger(logger),
	)
	return NewWithRefiner(cfg, logger, narration.NewRefiner(generator, policy, narration.WithRefinerLogger(logger)))
}

// NewWithRefiner allows injecting the refiner (used in tests).
func NewWithRefiner(cfg *config.Config, logger *slog.Logger, r Refiner) *Handler {
	if logger != nil {
		logger = logger.With(logging.String("component", "polishing"))
	} else {
		logger = logging.NewNop()
	}
	return &Handler{cfg: cfg, refiner: r, logger: logger}
}

// Execute refines the full narration sequence in one batch call. When
// polishing is disabled for the run the stage is a no-op.
func (h *Handler) Execute(ctx context.Context, run *queue.Run) error {
	logger := logging.WithContext(ctx, h.logger)

	slides, err := run.Slides()
	if err != nil {
		return services.Wrap(services.ErrValidation, "polishing", "load slides", "decode slide records", err)
	}
	if len(slides) == 0 {
		return services.Wrap(services.ErrValidation, "polishing", "load slides", "run has no slides to polish", nil)
	}

	opts, err := run.NarrationOptions()
	if err != nil {
		return services.Wrap(services.ErrValidation, "polishing", "load options", "decode narration options", err)
	}
	settings := narration.ResolveSettings(h.cfg.Narration, opts)
	if !settings.EnablePolishing {
		logger.Info("polishing disabled for run, skipping")
		stage.Report(ctx, 100, "Polishing skipped")
		return nil
	}

	stage.Report(ctx, 20, "Refining narration flow")
	narrations := make([]string, len(slides))
	ordinals := make([]int, len(slides))
	for i, slide := range slides {
		narrations[i] = slide.Narration
		ordinals[i] = slide.Ordinal
	}

	refined := h.refiner.Refine(ctx, narrations, ordinals, settings)
	if err := ctx.Err(); err != nil {
		return err
	}
	for i := range slides {
		slides[i].Narration = refined[i]
	}
	if err := run.SetSlides(slides); err != nil {
		return services.Wrap(services.ErrValidation, "polishing", "store slides", "encode slide records", err)
	}

	logger.Info("narration polished", logging.Int("slides", len(slides)))
	stage.Report(ctx, 100, "Narration polish complete")
	return nil
}

// HealthCheck verifies model credentials are configured.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	const name = "polishing"
	if result := preflight.CheckGeminiKeys(h.cfg); !result.Passed {
		return stage.Unhealthy(name, result.Detail)
	}
	return stage.Healthy(name)
}
