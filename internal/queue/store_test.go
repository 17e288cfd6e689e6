package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"slidecast/internal/queue"
	"slidecast/internal/testsupport"
)

func TestOpenCreatesSchemaAndInsertsRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	run, err := store.NewRun(ctx, "/decks/quarterly.pptx", "Quarterly Review", queue.Options{Tone: "casual"})
	if err != nil {
		t.Fatalf("NewRun failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected run ID to be assigned")
	}
	if run.Status != queue.StatusQueued {
		t.Fatalf("expected queued status, got %q", run.Status)
	}

	fetched, err := store.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.DeckTitle != "Quarterly Review" {
		t.Fatalf("unexpected fetched run: %#v", fetched)
	}

	opts, err := fetched.NarrationOptions()
	if err != nil {
		t.Fatalf("NarrationOptions failed: %v", err)
	}
	if opts.Tone != "casual" {
		t.Fatalf("expected tone override to round-trip, got %q", opts.Tone)
	}

	found, err := store.FindBySourcePath(ctx, "/decks/quarterly.pptx")
	if err != nil {
		t.Fatalf("FindBySourcePath failed: %v", err)
	}
	if found == nil || found.ID != run.ID {
		t.Fatalf("expected to find inserted run, got %#v", found)
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	run, err := store.GetByID(context.Background(), "no-such-run")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if run != nil {
		t.Fatalf("expected nil for unknown id, got %#v", run)
	}
}

func TestSlidesRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	run := testsupport.NewRun(t, store, "/decks/a.pptx", "Deck A")

	slides := []queue.SlideRecord{
		{Ordinal: 1, OriginalText: "intro", RewrittenContent: "Introduction", Status: queue.SlideSuccess},
		{Ordinal: 2, OriginalText: "body", Status: queue.SlideFailed},
		{Ordinal: 3, OriginalText: "close", Narration: "Thanks for listening.", Status: queue.SlideSuccess},
	}
	if err := run.SetSlides(slides); err != nil {
		t.Fatalf("SetSlides failed: %v", err)
	}
	run.Status = queue.StatusCompleted
	if err := store.Update(ctx, run); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.TotalSlides != 3 {
		t.Fatalf("expected total slides 3, got %d", fetched.TotalSlides)
	}
	decoded, err := fetched.Slides()
	if err != nil {
		t.Fatalf("Slides failed: %v", err)
	}
	if len(decoded) != 3 || decoded[2].Narration != "Thanks for listening." {
		t.Fatalf("unexpected decoded slides: %#v", decoded)
	}
	if got := queue.SuccessCount(decoded); got != 2 {
		t.Fatalf("expected 2 successes, got %d", got)
	}
	if got := queue.FailedOrdinals(decoded); len(got) != 1 || got[0] != 2 {
		t.Fatalf("unexpected failed ordinals: %v", got)
	}
}

func TestClaimNextQueuedIsExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewRun(t, store, "/decks/first.pptx", "First")
	testsupport.NewRun(t, store, "/decks/second.pptx", "Second")

	claimed, err := store.ClaimNextQueued(ctx)
	if err != nil {
		t.Fatalf("ClaimNextQueued failed: %v", err)
	}
	if claimed == nil || claimed.ID != first.ID {
		t.Fatalf("expected oldest queued run, got %#v", claimed)
	}
	if claimed.Status != queue.StatusConverting {
		t.Fatalf("expected converting status, got %q", claimed.Status)
	}

	second, err := store.ClaimNextQueued(ctx)
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	if second == nil || second.ID == first.ID {
		t.Fatalf("expected second run, got %#v", second)
	}

	third, err := store.ClaimNextQueued(ctx)
	if err != nil {
		t.Fatalf("third claim failed: %v", err)
	}
	if third != nil {
		t.Fatalf("expected empty queue, got %#v", third)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	statuses := []queue.Status{
		queue.StatusConverting,
		queue.StatusAnalyzing,
		queue.StatusGenerating,
		queue.StatusPolishing,
		queue.StatusFinalizing,
	}
	var ids []string
	for i, status := range statuses {
		run := testsupport.NewRun(t, store, fmt.Sprintf("/decks/%d.pptx", i), string(status))
		run.Status = status
		if err := store.Update(ctx, run); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, run.ID)
	}
	completed := testsupport.NewRun(t, store, "/decks/done.pptx", "Done")
	completed.Status = queue.StatusCompleted
	if err := store.Update(ctx, completed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reset, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if reset != int64(len(statuses)) {
		t.Fatalf("expected %d resets, got %d", len(statuses), reset)
	}

	for _, id := range ids {
		run, err := store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if run.Status != queue.StatusQueued {
			t.Fatalf("expected queued after reset, got %q", run.Status)
		}
	}

	untouched, err := store.GetByID(ctx, completed.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if untouched.Status != queue.StatusCompleted {
		t.Fatalf("expected completed run untouched, got %q", untouched.Status)
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	stale := testsupport.NewRun(t, store, "/decks/stale.pptx", "Stale")
	stale.Status = queue.StatusGenerating
	staleBeat := time.Now().Add(-10 * time.Minute)
	stale.LastHeartbeat = &staleBeat
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fresh := testsupport.NewRun(t, store, "/decks/fresh.pptx", "Fresh")
	fresh.Status = queue.StatusGenerating
	freshBeat := time.Now()
	fresh.LastHeartbeat = &freshBeat
	if err := store.Update(ctx, fresh); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reclaimed, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing failed: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected 1 reclaim, got %d", reclaimed)
	}

	staleAfter, _ := store.GetByID(ctx, stale.ID)
	if staleAfter.Status != queue.StatusQueued {
		t.Fatalf("expected stale run requeued, got %q", staleAfter.Status)
	}
	freshAfter, _ := store.GetByID(ctx, fresh.ID)
	if freshAfter.Status != queue.StatusGenerating {
		t.Fatalf("expected fresh run untouched, got %q", freshAfter.Status)
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	failed := testsupport.NewRun(t, store, "/decks/failed.pptx", "Failed")
	failed.SetFailed("rendering failed")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	retried, err := store.RetryFailed(ctx, failed.ID)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if retried != 1 {
		t.Fatalf("expected 1 retried run, got %d", retried)
	}

	after, _ := store.GetByID(ctx, failed.ID)
	if after.Status != queue.StatusQueued {
		t.Fatalf("expected queued after retry, got %q", after.Status)
	}
	if after.ErrorMessage != "" {
		t.Fatalf("expected cleared error, got %q", after.ErrorMessage)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	queued := testsupport.NewRun(t, store, "/decks/q.pptx", "Queued")
	_ = queued

	generating := testsupport.NewRun(t, store, "/decks/g.pptx", "Generating")
	generating.Status = queue.StatusGenerating
	if err := store.Update(ctx, generating); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	done := testsupport.NewRun(t, store, "/decks/d.pptx", "Done")
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatusQueued] != 1 || stats[queue.StatusGenerating] != 1 || stats[queue.StatusCompleted] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 3 || health.Queued != 1 || health.Processing != 1 || health.Completed != 1 {
		t.Fatalf("unexpected health summary: %#v", health)
	}

	dbHealth, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !dbHealth.DatabaseExists || !dbHealth.TableExists || !dbHealth.IntegrityCheck {
		t.Fatalf("unexpected database health: %#v", dbHealth)
	}
	if len(dbHealth.MissingColumns) != 0 {
		t.Fatalf("unexpected missing columns: %v", dbHealth.MissingColumns)
	}
	if dbHealth.TotalRuns != 3 {
		t.Fatalf("expected 3 runs, got %d", dbHealth.TotalRuns)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Generating "); !ok || status != queue.StatusGenerating {
		t.Fatalf("unexpected parse result: %q %v", status, ok)
	}
	if _, ok := queue.ParseStatus("ripping"); ok {
		t.Fatal("expected unknown status to fail")
	}
}
