package renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"slidecast/internal/logging"
	"slidecast/internal/services"
)

// Deck holds the per-slide artifacts produced from one source document.
// The three slices are index-aligned by slide ordinal; Images may be empty
// when rasterization failed but notes and text extraction succeeded.
type Deck struct {
	Images []string
	Notes  []string
	Texts  []string
}

// SlideCount reports the number of slides discovered in the source document.
func (d Deck) SlideCount() int {
	return len(d.Texts)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// Option configures the renderer.
type Option func(*Renderer)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Renderer) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithLogger attaches a logger for render diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer converts a pptx document into per-slide PNG images plus
// speaker notes and extracted slide text.
type Renderer struct {
	soffice        string
	pdftoppm       string
	dpi            int
	width          int
	convertTimeout time.Duration
	exec           Executor
	logger         *slog.Logger
}

// New constructs a renderer around the external conversion tools.
func New(sofficeBinary, pdftoppmBinary string, dpi, width, convertTimeoutSeconds int, opts ...Option) (*Renderer, error) {
	sofficeBinary = strings.TrimSpace(sofficeBinary)
	pdftoppmBinary = strings.TrimSpace(pdftoppmBinary)
	if sofficeBinary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "renderer", "configure", "soffice binary required", nil)
	}
	if pdftoppmBinary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "renderer", "configure", "pdftoppm binary required", nil)
	}
	if dpi <= 0 {
		dpi = 150
	}
	if width <= 0 {
		width = 1280
	}
	r := &Renderer{
		soffice:        sofficeBinary,
		pdftoppm:       pdftoppmBinary,
		dpi:            dpi,
		width:          width,
		convertTimeout: time.Duration(convertTimeoutSeconds) * time.Second,
		exec:           commandExecutor{},
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Render converts sourcePath into per-slide artifacts under workDir. Notes and
// slide text come from the pptx package itself; images come from the external
// soffice and pdftoppm tools. A rasterization failure degrades to an empty
// image list so callers can continue text-only, while a document that yields
// no slides at all is an error.
func (r *Renderer) Render(ctx context.Context, sourcePath, workDir string) (Deck, error) {
	if strings.TrimSpace(sourcePath) == "" {
		return Deck{}, services.Wrap(services.ErrValidation, "renderer", "render", "source path required", nil)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Deck{}, fmt.Errorf("create work directory: %w", err)
	}

	notes, texts, err := extractSlides(sourcePath)
	if err != nil {
		return Deck{}, services.Wrap(services.ErrRendering, "renderer", "extract", "read slide content", err)
	}
	if len(texts) == 0 {
		return Deck{}, services.Wrap(services.ErrRendering, "renderer", "extract", "document contains no slides", nil)
	}

	deck := Deck{Notes: notes, Texts: texts}

	images, err := r.rasterize(ctx, sourcePath, workDir, len(texts))
	if err != nil {
		r.logger.Warn("slide rasterization failed; continuing text-only",
			slog.String("source", sourcePath),
			logging.Error(err))
		return deck, nil
	}
	deck.Images = images
	return deck, nil
}

func (r *Renderer) rasterize(ctx context.Context, sourcePath, workDir string, slideCount int) ([]string, error) {
	if r.convertTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.convertTimeout)
		defer cancel()
	}

	pdfDir := filepath.Join(workDir, "pdf")
	pngDir := filepath.Join(workDir, "png")
	for _, dir := range []string{pdfDir, pngDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create render directory: %w", err)
		}
	}

	sofficeArgs := []string{
		"--headless",
		"--nologo",
		"--nolockcheck",
		"--nodefault",
		"--norestore",
		"--convert-to", "pdf:impress_pdf_Export",
		"--outdir", pdfDir,
		sourcePath,
	}
	if err := r.exec.Run(ctx, r.soffice, sofficeArgs, nil); err != nil {
		return nil, fmt.Errorf("soffice convert: %w", err)
	}

	pdfPath, err := findPDF(pdfDir)
	if err != nil {
		return nil, err
	}

	pdftoppmArgs := []string{
		"-png",
		"-r", strconv.Itoa(r.dpi),
		"-scale-to-x", strconv.Itoa(r.width),
		"-scale-to-y", "-1",
		pdfPath,
		filepath.Join(pngDir, "slide"),
	}
	if err := r.exec.Run(ctx, r.pdftoppm, pdftoppmArgs, nil); err != nil {
		return nil, fmt.Errorf("pdftoppm rasterize: %w", err)
	}

	images, err := collectImages(pngDir)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, errors.New("pdftoppm produced no images")
	}
	if len(images) > slideCount {
		for _, extra := range images[slideCount:] {
			_ = os.Remove(extra)
		}
		images = images[:slideCount]
	}
	return images, nil
}

func findPDF(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("inspect pdf output: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", errors.New("soffice produced no pdf")
}

// trailingDigits captures the last run of digits in a filename stem so
// slide-2.png sorts before slide-10.png.
var trailingDigits = regexp.MustCompile(`(\d+)\D*$`)

func collectImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("inspect png output: %w", err)
	}
	images := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".png") {
			images = append(images, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Slice(images, func(i, j int) bool {
		return imageSortKey(images[i]) < imageSortKey(images[j])
	})
	return images, nil
}

func imageSortKey(path string) int {
	match := trailingDigits.FindStringSubmatch(filepath.Base(path))
	if match == nil {
		return 0
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return n
}
