package inbox

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"slidecast/internal/api"
	"slidecast/internal/logging"
	"slidecast/internal/services"
)

const defaultSettleDelay = 500 * time.Millisecond

// Submitter enqueues one deck for processing.
type Submitter interface {
	Submit(ctx context.Context, req api.SubmitRequest) (api.RunView, error)
}

// Option configures the watcher.
type Option func(*Watcher)

// WithSettleDelay overrides how long the watcher waits after a create event
// before submitting, so partially copied decks are not picked up.
func WithSettleDelay(delay time.Duration) Option {
	return func(w *Watcher) {
		if delay >= 0 {
			w.settleDelay = delay
		}
	}
}

// Watcher monitors the inbox directory and enqueues every new .pptx deck.
type Watcher struct {
	dir         string
	submitter   Submitter
	logger      *slog.Logger
	watcher     *fsnotify.Watcher
	settleDelay time.Duration
}

// New constructs a watcher over the inbox directory.
func New(dir string, submitter Submitter, logger *slog.Logger, opts ...Option) (*Watcher, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("inbox directory is required")
	}
	if submitter == nil {
		return nil, errors.New("inbox submitter is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		dir:         dir,
		submitter:   submitter,
		logger:      logging.NewComponentLogger(logger, "inbox"),
		watcher:     fsWatcher,
		settleDelay: defaultSettleDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start consumes filesystem events until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("watching inbox for decks", logging.String("dir", w.dir))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("inbox watcher events channel closed")
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if !w.isDeck(event.Name) {
				continue
			}
			w.settle(ctx)
			w.submit(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("inbox watcher errors channel closed")
			}
			w.logger.Warn("inbox watcher error", logging.Error(err))
		}
	}
}

// Stop closes the underlying filesystem watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) submit(ctx context.Context, path string) {
	view, err := w.submitter.Submit(ctx, api.SubmitRequest{SourcePath: path})
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			w.logger.Debug("inbox file skipped",
				logging.String("path", path),
				logging.Error(err))
			return
		}
		w.logger.Error("inbox submission failed",
			logging.String("path", path),
			logging.Error(err))
		return
	}
	w.logger.Info("deck enqueued from inbox",
		logging.String(logging.FieldRunID, view.ID),
		logging.String("path", path))
}

// isDeck filters out non-pptx files and the ~$ lock files that presentation
// editors leave next to an open deck.
func (w *Watcher) isDeck(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".pptx")
}

func (w *Watcher) settle(ctx context.Context) {
	if w.settleDelay <= 0 {
		return
	}
	timer := time.NewTimer(w.settleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
