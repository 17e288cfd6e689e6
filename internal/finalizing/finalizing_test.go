package finalizing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"slidecast/internal/converting"
	"slidecast/internal/logging"
	"slidecast/internal/outputs"
	"slidecast/internal/queue"
	"slidecast/internal/services"
	"slidecast/internal/testsupport"
)

type fakeWriter struct {
	destDir string
	docs    []outputs.Document
	err     error
}

func (f *fakeWriter) Write(_ *queue.Run, destDir string) ([]outputs.Document, error) {
	f.destDir = destDir
	return f.docs, f.err
}

func seededRun(t *testing.T) *queue.Run {
	t.Helper()
	run := &queue.Run{ID: "run-1", DeckTitle: "Demo", Status: queue.StatusFinalizing}
	err := run.SetSlides([]queue.SlideRecord{
		{Ordinal: 1, Narration: "hello", Status: queue.SlideSuccess},
	})
	if err != nil {
		t.Fatalf("seed slides: %v", err)
	}
	return run
}

func TestExecuteWritesOutputsAndCleansStaging(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := &fakeWriter{docs: []outputs.Document{{Format: "txt", Path: "/out/demo.txt"}}}
	handler := NewWithWriter(cfg, logging.NewNop(), fake)

	run := seededRun(t)
	workDir := converting.WorkDir(cfg, run)
	if err := os.MkdirAll(filepath.Join(workDir, "png"), 0o755); err != nil {
		t.Fatalf("seed staging: %v", err)
	}

	if err := handler.Execute(context.Background(), run); err != nil {
		t.Fatalf("execute: %v", err)
	}

	wantDest := filepath.Join(cfg.Paths.OutputDir, "run-1")
	if fake.destDir != wantDest {
		t.Fatalf("writer dest %q, want %q", fake.destDir, wantDest)
	}
	if run.OutputDir != wantDest {
		t.Fatalf("run output dir %q, want %q", run.OutputDir, wantDest)
	}
	if _, err := os.Stat(workDir); !os.IsNotExist(err) {
		t.Fatalf("staging workspace not removed: %v", err)
	}
}

func TestExecutePropagatesWriterError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeErr := services.Wrap(services.ErrValidation, "outputs", "write", "no usable formats", nil)
	handler := NewWithWriter(cfg, logging.NewNop(), &fakeWriter{err: writeErr})

	run := seededRun(t)
	if err := handler.Execute(context.Background(), run); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected writer error, got %v", err)
	}
	if run.OutputDir != "" {
		t.Fatalf("output dir set despite failure: %q", run.OutputDir)
	}
}

func TestExecuteEmptyRunFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	handler := NewWithWriter(cfg, logging.NewNop(), &fakeWriter{})

	err := handler.Execute(context.Background(), &queue.Run{ID: "run-empty"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHealthCheckRequiresWritableOutputDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.OutputDir = filepath.Join(t.TempDir(), "does", "not", "exist")
	handler := NewWithWriter(cfg, logging.NewNop(), &fakeWriter{})

	if health := handler.HealthCheck(context.Background()); health.Ready {
		t.Fatalf("expected unhealthy result, got %+v", health)
	}
}
