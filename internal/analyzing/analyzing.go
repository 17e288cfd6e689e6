package analyzing

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"slidecast/internal/config"
	"slidecast/internal/logging"
	"slidecast/internal/narration"
	"slidecast/internal/preflight"
	"slidecast/internal/queue"
	"slidecast/internal/retry"
	"slidecast/internal/rewriter"
	"slidecast/internal/services"
	"slidecast/internal/stage"
)

const defaultFailureRatio = 0.5

// Rewriter is the per-slide analysis surface this stage needs.
type Rewriter interface {
	Rewrite(ctx context.Context, slide rewriter.Slide, tone, audience string) (string, error)
}

// Handler rewrites each slide's content into clean descriptive text the
// narration stage can build on. Individual slide failures are tolerated up to
// the configured failure ratio.
type Handler struct {
	cfg      *config.Config
	rewriter Rewriter
	logger   *slog.Logger
}

// New constructs the analyzing stage handler around a shared model client.
func New(cfg *config.Config, generator rewriter.TextGenerator, logger *slog.Logger) *Handler {
	policy := retry.FromSettings(
		cfg.Gemini.MaxAttempts,
		cfg.Gemini.BaseDelaySeconds,
		cfg.Gemini.MaxDelaySeconds,
		retry.WithLogger(logger),
	)
	return NewWithRewriter(cfg, logger, rewriter.New(generator, policy, rewriter.WithLogger(logger)))
}

// NewWithRewriter allows injecting the rewriter (used in tests).
func NewWithRewriter(cfg *config.Config, logger *slog.Logger, r Rewriter) *Handler {
	if logger != nil {
		logger = logger.With(logging.String("component", "analyzing"))
	} else {
		logger = logging.NewNop()
	}
	return &Handler{cfg: cfg, rewriter: r, logger: logger}
}

// Execute rewrites every slide in order. A failed slide keeps its record with
// empty rewritten content and a failed status; the run only fails when the
// failure ratio is exceeded.
func (h *Handler) Execute(ctx context.Context, run *queue.Run) error {
	logger := logging.WithContext(ctx, h.logger)

	slides, err := run.Slides()
	if err != nil {
		return services.Wrap(services.ErrValidation, "analyzing", "load slides", "decode slide records", err)
	}
	if len(slides) == 0 {
		return services.Wrap(services.ErrValidation, "analyzing", "load slides", "run has no slides to analyze", nil)
	}

	opts, err := run.NarrationOptions()
	if err != nil {
		return services.Wrap(services.ErrValidation, "analyzing", "load options", "decode narration options", err)
	}
	settings := narration.ResolveSettings(h.cfg.Narration, opts)

	failures := 0
	for i := range slides {
		if err := ctx.Err(); err != nil {
			return err
		}
		slide := &slides[i]
		stage.Report(ctx, float64(i)/float64(len(slides))*100,
			fmt.Sprintf("Analyzing slide %d of %d", slide.Ordinal, len(slides)))

		content, err := h.rewriter.Rewrite(ctx, rewriter.Slide{
			Ordinal:      slide.Ordinal,
			ImagePNG:     h.readImage(logger, slide),
			OriginalText: slide.OriginalText,
		}, settings.Tone, settings.Audience)
		if err != nil {
			failures++
			slide.Status = queue.SlideFailed
			slide.RewrittenContent = ""
			logger.Warn("slide analysis failed",
				logging.Int("slide", slide.Ordinal),
				logging.Error(err))
			continue
		}
		slide.Status = queue.SlideSuccess
		slide.RewrittenContent = content
	}

	if err := run.SetSlides(slides); err != nil {
		return services.Wrap(services.ErrValidation, "analyzing", "store slides", "encode slide records", err)
	}

	ratio := h.cfg.Narration.FailureRatio
	if ratio <= 0 {
		ratio = defaultFailureRatio
	}
	if float64(failures) > ratio*float64(len(slides)) {
		message := fmt.Sprintf("%d of %d slides failed analysis", failures, len(slides))
		return services.Wrap(services.ErrTooManyFailures, "analyzing", "analyze slides", message, nil)
	}

	logger.Info("deck analyzed",
		logging.Int("slides", len(slides)),
		logging.Int("failed", failures))
	stage.Report(ctx, 100, "Slide analysis complete")
	return nil
}

// HealthCheck verifies model credentials are configured.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	const name = "analyzing"
	if result := preflight.CheckGeminiKeys(h.cfg); !result.Passed {
		return stage.Unhealthy(name, result.Detail)
	}
	return stage.Healthy(name)
}

// readImage loads the rendered slide image if one exists. A read failure
// degrades that slide to text-only analysis.
func (h *Handler) readImage(logger *slog.Logger, slide *queue.SlideRecord) []byte {
	if slide.ImagePath == "" {
		return nil
	}
	data, err := os.ReadFile(slide.ImagePath)
	if err != nil {
		logger.Warn("slide image unreadable, falling back to text",
			logging.Int("slide", slide.Ordinal),
			logging.Error(err))
		return nil
	}
	return data
}
