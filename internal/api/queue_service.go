package api

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"slidecast/internal/progress"
	"slidecast/internal/queue"
	"slidecast/internal/services"
)

// QueueService exposes run-queue operations to the CLI and the HTTP API.
type QueueService struct {
	store   *queue.Store
	tracker *progress.Tracker
}

// NewQueueService constructs the service. The tracker is optional; without
// one, progress queries fall back to the persisted run fields.
func NewQueueService(store *queue.Store, tracker *progress.Tracker) *QueueService {
	return &QueueService{store: store, tracker: tracker}
}

// Submit validates a deck file and enqueues a new run. Re-submitting a source
// that already has an active run is rejected so the inbox watcher cannot
// double-enqueue a deck.
func (s *QueueService) Submit(ctx context.Context, req SubmitRequest) (RunView, error) {
	sourcePath := strings.TrimSpace(req.SourcePath)
	if sourcePath == "" {
		return RunView{}, services.Wrap(services.ErrValidation, "api", "submit", "source path is required", nil)
	}
	absolute, err := filepath.Abs(sourcePath)
	if err != nil {
		return RunView{}, services.Wrap(services.ErrValidation, "api", "submit", "resolve source path", err)
	}
	if strings.ToLower(filepath.Ext(absolute)) != ".pptx" {
		return RunView{}, services.Wrap(services.ErrValidation, "api", "submit", "only .pptx decks are supported", nil)
	}
	info, err := os.Stat(absolute)
	if err != nil {
		return RunView{}, services.Wrap(services.ErrValidation, "api", "submit", "source deck not found", err)
	}
	if info.IsDir() {
		return RunView{}, services.Wrap(services.ErrValidation, "api", "submit", "source path is a directory", nil)
	}

	if existing, err := s.store.FindBySourcePath(ctx, absolute); err != nil {
		return RunView{}, err
	} else if existing != nil && !existing.IsTerminal() {
		return RunView{}, services.Wrap(services.ErrValidation, "api", "submit",
			"deck already queued as run "+existing.ID, nil)
	}

	run, err := s.store.NewRun(ctx, absolute, strings.TrimSpace(req.DeckTitle), req.Options)
	if err != nil {
		return RunView{}, err
	}
	return runView(run), nil
}

// List returns runs optionally filtered by status, oldest first.
func (s *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]RunView, error) {
	runs, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	views := make([]RunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, runView(run))
	}
	return views, nil
}

// Describe returns the full detail for one run, including slide results.
func (s *QueueService) Describe(ctx context.Context, id string) (RunDetail, error) {
	run, err := s.lookup(ctx, id)
	if err != nil {
		return RunDetail{}, err
	}
	return runDetail(run)
}

// Progress returns the live progress snapshot for one run. The volatile
// tracker is authoritative while the daemon is working; once its entry has
// been evicted the persisted run fields answer instead. An identifier neither
// side recognizes yields the unknown sentinel rather than a lookup error.
func (s *QueueService) Progress(ctx context.Context, id string) (ProgressView, error) {
	if s.tracker != nil {
		if entry := s.tracker.Get(id); entry.Status != progress.StatusUnknown {
			return ProgressView{
				RunID:     id,
				Status:    entry.Status,
				Percent:   entry.Percent,
				Detail:    entry.Detail,
				UpdatedAt: entry.UpdatedAt,
			}, nil
		}
	}

	run, err := s.lookup(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return ProgressView{RunID: id, Status: progress.StatusUnknown}, nil
		}
		return ProgressView{}, err
	}
	return ProgressView{
		RunID:     id,
		Status:    string(run.Status),
		Percent:   int(run.ProgressPercent),
		Detail:    run.ProgressMessage,
		UpdatedAt: run.UpdatedAt,
	}, nil
}

// Retry moves failed runs back to queued. With no identifiers every failed
// run is retried.
func (s *QueueService) Retry(ctx context.Context, ids ...string) (int64, error) {
	retried, err := s.store.RetryFailed(ctx, ids...)
	if err != nil {
		return 0, err
	}
	if s.tracker != nil {
		for _, id := range ids {
			s.tracker.Clear(id)
		}
	}
	return retried, nil
}

// Remove deletes one run.
func (s *QueueService) Remove(ctx context.Context, id string) error {
	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return services.Wrap(services.ErrNotFound, "api", "remove", "run "+id+" not found", nil)
	}
	if s.tracker != nil {
		s.tracker.Clear(id)
	}
	return nil
}

// Clear removes runs by scope: "all", "completed", or "failed".
func (s *QueueService) Clear(ctx context.Context, scope string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(scope)) {
	case "", "all":
		return s.store.Clear(ctx)
	case "completed":
		return s.store.ClearCompleted(ctx)
	case "failed":
		return s.store.ClearFailed(ctx)
	default:
		return 0, services.Wrap(services.ErrValidation, "api", "clear",
			"unknown scope "+scope+" (expected all, completed, or failed)", nil)
	}
}

// Stats returns run counts per status.
func (s *QueueService) Stats(ctx context.Context) (map[queue.Status]int, error) {
	return s.store.Stats(ctx)
}

func (s *QueueService) lookup(ctx context.Context, id string) (*queue.Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, "api", "lookup", "run identifier is required", nil)
	}
	run, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, services.Wrap(services.ErrNotFound, "api", "lookup", "run "+id+" not found", nil)
	}
	return run, nil
}
