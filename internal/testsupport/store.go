package testsupport

import (
	"context"
	"testing"

	"slidecast/internal/config"
	"slidecast/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRun creates a queued run for tests using the provided store.
func NewRun(t testing.TB, store *queue.Store, sourcePath, deckTitle string) *queue.Run {
	t.Helper()

	run, err := store.NewRun(context.Background(), sourcePath, deckTitle, queue.Options{})
	if err != nil {
		t.Fatalf("store.NewRun: %v", err)
	}
	return run
}
