package converting

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"slidecast/internal/config"
	"slidecast/internal/fileutil"
	"slidecast/internal/logging"
	"slidecast/internal/preflight"
	"slidecast/internal/queue"
	"slidecast/internal/renderer"
	"slidecast/internal/services"
	"slidecast/internal/stage"
)

// Renderer is the conversion surface this stage needs.
type Renderer interface {
	Render(ctx context.Context, sourcePath, workDir string) (renderer.Deck, error)
}

// Handler converts the source deck into per-slide artifacts and seeds the
// run's slide records.
type Handler struct {
	cfg      *config.Config
	renderer Renderer
	logger   *slog.Logger
}

// New constructs the converting stage handler.
func New(cfg *config.Config, logger *slog.Logger) (*Handler, error) {
	r, err := renderer.New(
		cfg.SofficeBinary(),
		cfg.PdftoppmBinary(),
		cfg.Renderer.RenderDPI,
		cfg.Renderer.RenderWidth,
		cfg.Renderer.ConvertTimeout,
		renderer.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return NewWithRenderer(cfg, logger, r), nil
}

// NewWithRenderer allows injecting the renderer (used in tests).
func NewWithRenderer(cfg *config.Config, logger *slog.Logger, r Renderer) *Handler {
	if logger != nil {
		logger = logger.With(logging.String("component", "converting"))
	} else {
		logger = logging.NewNop()
	}
	return &Handler{cfg: cfg, renderer: r, logger: logger}
}

// Execute renders the deck and seeds one pending SlideRecord per slide. A
// degraded render (no images) still succeeds; the analyzing stage works from
// extracted text instead.
func (h *Handler) Execute(ctx context.Context, run *queue.Run) error {
	logger := logging.WithContext(ctx, h.logger)
	if strings.TrimSpace(run.SourcePath) == "" {
		return services.Wrap(services.ErrValidation, "converting", "validate inputs", "run has no source document", nil)
	}
	if _, err := os.Stat(run.SourcePath); err != nil {
		return services.Wrap(services.ErrValidation, "converting", "validate inputs", "source document missing", err)
	}

	if strings.TrimSpace(run.DeckTitle) == "" {
		run.DeckTitle = renderer.DeriveDeckTitle(run.SourcePath)
	}

	// Render from a staged copy so a deck removed from the inbox mid-run
	// cannot break the conversion.
	workDir := WorkDir(h.cfg, run)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return services.Wrap(services.ErrRendering, "converting", "prepare workspace", "create staging directory", err)
	}
	stagedPath := filepath.Join(workDir, filepath.Base(run.SourcePath))
	if err := fileutil.CopyFileVerified(run.SourcePath, stagedPath); err != nil {
		return services.Wrap(services.ErrRendering, "converting", "stage source", "copy deck into staging", err)
	}

	stage.Report(ctx, 10, "Converting slides to images")
	deck, err := h.renderer.Render(ctx, stagedPath, workDir)
	if err != nil {
		return err
	}

	slides := make([]queue.SlideRecord, 0, deck.SlideCount())
	for i, text := range deck.Texts {
		slide := queue.SlideRecord{
			Ordinal:      i + 1,
			OriginalText: text,
			Status:       queue.SlidePending,
		}
		if i < len(deck.Notes) {
			slide.SpeakerNotes = deck.Notes[i]
		}
		if i < len(deck.Images) {
			slide.ImagePath = deck.Images[i]
		}
		slides = append(slides, slide)
	}
	if err := run.SetSlides(slides); err != nil {
		return services.Wrap(services.ErrValidation, "converting", "store slides", "encode slide records", err)
	}

	logger.Info("deck converted",
		logging.String("deck_title", run.DeckTitle),
		logging.Int("slides", len(slides)),
		logging.Bool("images_available", len(deck.Images) > 0))
	stage.Report(ctx, 100, "Deck converted")
	return nil
}

// HealthCheck verifies the external conversion tools are present.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	const name = "converting"
	for _, result := range preflight.CheckRenderTools(h.cfg) {
		if !result.Passed {
			return stage.Unhealthy(name, result.Detail)
		}
	}
	return stage.Healthy(name)
}

// WorkDir returns the staging workspace owned by one run.
func WorkDir(cfg *config.Config, run *queue.Run) string {
	return filepath.Join(cfg.Paths.StagingDir, run.ID)
}

// CleanupWorkspace removes the run's staging workspace with its staged deck
// copy and rendering artifacts. Failures are logged and swallowed; a leftover
// workspace never changes a run's outcome.
func CleanupWorkspace(cfg *config.Config, logger *slog.Logger, run *queue.Run) {
	workDir := WorkDir(cfg, run)
	if workDir == "" || workDir == cfg.Paths.StagingDir {
		return
	}
	if err := os.RemoveAll(workDir); err != nil {
		logger.Warn("staging cleanup failed",
			logging.String("path", workDir),
			logging.Error(err))
	}
}
