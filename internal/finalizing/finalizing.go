package finalizing

import (
	"context"
	"log/slog"
	"path/filepath"

	"slidecast/internal/config"
	"slidecast/internal/converting"
	"slidecast/internal/logging"
	"slidecast/internal/outputs"
	"slidecast/internal/preflight"
	"slidecast/internal/queue"
	"slidecast/internal/services"
	"slidecast/internal/stage"
)

// ScriptWriter is the document emission surface this stage needs.
type ScriptWriter interface {
	Write(run *queue.Run, destDir string) ([]outputs.Document, error)
}

// Handler writes the finished narration script in every configured format and
// removes the run's staging workspace.
type Handler struct {
	cfg    *config.Config
	writer ScriptWriter
	logger *slog.Logger
}

// New constructs the finalizing stage handler.
func New(cfg *config.Config, logger *slog.Logger) *Handler {
	return NewWithWriter(cfg, logger, outputs.NewWriter(cfg.Outputs.Formats, outputs.WithLogger(logger)))
}

// NewWithWriter allows injecting the script writer (used in tests).
func NewWithWriter(cfg *config.Config, logger *slog.Logger, writer ScriptWriter) *Handler {
	if logger != nil {
		logger = logger.With(logging.String("component", "finalizing"))
	} else {
		logger = logging.NewNop()
	}
	return &Handler{cfg: cfg, writer: writer, logger: logger}
}

// Execute emits the narration documents into a per-run output directory,
// records the location on the run, and clears the staging workspace.
func (h *Handler) Execute(ctx context.Context, run *queue.Run) error {
	logger := logging.WithContext(ctx, h.logger)

	slides, err := run.Slides()
	if err != nil {
		return services.Wrap(services.ErrValidation, "finalizing", "load slides", "decode slide records", err)
	}
	if len(slides) == 0 {
		return services.Wrap(services.ErrValidation, "finalizing", "load slides", "run has no narration to write", nil)
	}

	stage.Report(ctx, 20, "Writing narration scripts")
	destDir := filepath.Join(h.cfg.Paths.OutputDir, run.ID)
	documents, err := h.writer.Write(run, destDir)
	if err != nil {
		return err
	}
	run.OutputDir = destDir

	converting.CleanupWorkspace(h.cfg, logger, run)

	for _, doc := range documents {
		logger.Info("narration script written",
			logging.String("format", doc.Format),
			logging.String("path", doc.Path))
	}
	stage.Report(ctx, 100, "Run finalized")
	return nil
}

// HealthCheck verifies the output directory is writable.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	const name = "finalizing"
	if result := preflight.CheckDirectoryAccess("output directory", h.cfg.Paths.OutputDir); !result.Passed {
		return stage.Unhealthy(name, result.Detail)
	}
	return stage.Healthy(name)
}

