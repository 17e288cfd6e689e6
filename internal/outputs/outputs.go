package outputs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"slidecast/internal/logging"
	"slidecast/internal/queue"
	"slidecast/internal/textutil"
)

// Document describes one written narration script file.
type Document struct {
	Format string `json:"format"`
	Path   string `json:"path"`
}

// Option configures the writer.
type Option func(*Writer)

// WithLogger attaches a logger for write diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Writer renders a finalized run into the configured script formats.
type Writer struct {
	formats []string
	logger  *slog.Logger
}

// NewWriter constructs a writer for the given formats (txt, json, docx).
func NewWriter(formats []string, opts ...Option) *Writer {
	w := &Writer{
		formats: formats,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write emits one file per configured format into destDir and returns the
// documents written. Formats fail independently: a docx failure does not lose
// the txt and json scripts, but at least one format must succeed.
func (w *Writer) Write(run *queue.Run, destDir string) ([]Document, error) {
	if run == nil {
		return nil, fmt.Errorf("run required")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	slides, err := run.Slides()
	if err != nil {
		return nil, fmt.Errorf("load slides: %w", err)
	}

	base := baseName(run)
	var documents []Document
	var lastErr error
	for _, format := range w.formats {
		var path string
		var writeErr error
		switch format {
		case "txt":
			path = filepath.Join(destDir, base+"_narration.txt")
			writeErr = writeText(path, run.DeckTitle, slides)
		case "json":
			path = filepath.Join(destDir, base+"_narration.json")
			writeErr = writeJSON(path, run, slides)
		case "docx":
			path = filepath.Join(destDir, base+"_narration.docx")
			writeErr = writeDocx(path, run.DeckTitle, slides)
		default:
			w.logger.Warn("skipping unknown output format", logging.String("format", format))
			continue
		}
		if writeErr != nil {
			w.logger.Error("failed to write narration script",
				logging.String("format", format),
				logging.Error(writeErr))
			lastErr = writeErr
			continue
		}
		documents = append(documents, Document{Format: format, Path: path})
	}
	if len(documents) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("no output written: %w", lastErr)
		}
		return nil, fmt.Errorf("no output formats configured")
	}
	return documents, nil
}

func baseName(run *queue.Run) string {
	name := textutil.SanitizeFileName(run.DeckTitle)
	if name == "" {
		name = textutil.SanitizeFileName(strings.TrimSuffix(filepath.Base(run.SourcePath), filepath.Ext(run.SourcePath)))
	}
	if name == "" {
		name = run.ID
	}
	return name
}

func writeText(path, title string, slides []queue.SlideRecord) error {
	var b strings.Builder
	rule := strings.Repeat("=", 50)
	fmt.Fprintf(&b, "Narration Script for %s\n%s\n\n", title, rule)
	for _, slide := range slides {
		fmt.Fprintf(&b, "Slide %d\n%s\n", slide.Ordinal, strings.Repeat("-", 20))
		fmt.Fprintf(&b, "Narration:\n%s\n\n", slide.Narration)
		if slide.SpeakerNotes != "" {
			fmt.Fprintf(&b, "Notes:\n%s\n\n", slide.SpeakerNotes)
		}
		fmt.Fprintf(&b, "%s\n\n", rule)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

type jsonScript struct {
	RunID                 string              `json:"run_id"`
	DeckTitle             string              `json:"deck_title"`
	TotalSlides           int                 `json:"total_slides"`
	ProcessedSuccessfully int                 `json:"processed_successfully"`
	FailedSlides          []int               `json:"failed_slides"`
	Slides                []queue.SlideRecord `json:"slides"`
}

func writeJSON(path string, run *queue.Run, slides []queue.SlideRecord) error {
	script := jsonScript{
		RunID:                 run.ID,
		DeckTitle:             run.DeckTitle,
		TotalSlides:           len(slides),
		ProcessedSuccessfully: queue.SuccessCount(slides),
		FailedSlides:          queue.FailedOrdinals(slides),
		Slides:                slides,
	}
	payload, err := json.MarshalIndent(script, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(payload, '\n'), 0o644)
}
