package inbox

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"slidecast/internal/api"
	"slidecast/internal/logging"
	"slidecast/internal/services"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	paths []string
	errs  map[string]error
	seen  chan string
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{seen: make(chan string, 8), errs: make(map[string]error)}
}

func (f *fakeSubmitter) Submit(_ context.Context, req api.SubmitRequest) (api.RunView, error) {
	f.mu.Lock()
	f.paths = append(f.paths, req.SourcePath)
	err := f.errs[filepath.Base(req.SourcePath)]
	f.mu.Unlock()
	f.seen <- req.SourcePath
	if err != nil {
		return api.RunView{}, err
	}
	return api.RunView{ID: "run-1", SourcePath: req.SourcePath}, nil
}

func (f *fakeSubmitter) submitted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func startWatcher(t *testing.T, dir string, submitter Submitter) {
	t.Helper()
	watcher, err := New(dir, submitter, logging.NewNop(), WithSettleDelay(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = watcher.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		_ = watcher.Stop()
		<-done
	})
}

func TestWatcherSubmitsNewDecks(t *testing.T) {
	dir := t.TempDir()
	submitter := newFakeSubmitter()
	startWatcher(t, dir, submitter)

	deckPath := filepath.Join(dir, "kickoff.pptx")
	if err := os.WriteFile(deckPath, []byte("pptx"), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}

	select {
	case got := <-submitter.seen:
		if got != deckPath {
			t.Fatalf("submitted %q, want %q", got, deckPath)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("deck was not submitted")
	}
}

func TestWatcherIgnoresNonDeckFiles(t *testing.T) {
	dir := t.TempDir()
	submitter := newFakeSubmitter()
	startWatcher(t, dir, submitter)

	for _, name := range []string{"notes.txt", "~$kickoff.pptx", ".hidden.pptx"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	deckPath := filepath.Join(dir, "real.pptx")
	if err := os.WriteFile(deckPath, []byte("pptx"), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}

	select {
	case got := <-submitter.seen:
		if got != deckPath {
			t.Fatalf("submitted %q before the real deck", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("real deck was not submitted")
	}
	if len(submitter.submitted()) != 1 {
		t.Fatalf("unexpected submissions: %v", submitter.submitted())
	}
}

func TestWatcherSurvivesRejectedSubmission(t *testing.T) {
	dir := t.TempDir()
	submitter := newFakeSubmitter()
	submitter.errs["dupe.pptx"] = services.Wrap(services.ErrValidation, "api", "submit", "deck already queued", nil)
	startWatcher(t, dir, submitter)

	if err := os.WriteFile(filepath.Join(dir, "dupe.pptx"), []byte("pptx"), 0o644); err != nil {
		t.Fatalf("write dupe: %v", err)
	}
	<-submitter.seen

	deckPath := filepath.Join(dir, "next.pptx")
	if err := os.WriteFile(deckPath, []byte("pptx"), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	select {
	case got := <-submitter.seen:
		if got != deckPath {
			t.Fatalf("submitted %q, want %q", got, deckPath)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher stopped after rejected submission")
	}
}
