package progress

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestGetReturnsUnknownSentinel(t *testing.T) {
	tracker := NewTracker()
	entry := tracker.Get("missing")
	if entry.Status != StatusUnknown {
		t.Fatalf("expected unknown status, got %q", entry.Status)
	}
	if entry.Percent != 0 {
		t.Fatalf("expected zero percent, got %d", entry.Percent)
	}
}

func TestUpdateOverwritesEntry(t *testing.T) {
	tracker := NewTracker()
	tracker.Update("run-1", "converting", 10, "rendering slides")
	tracker.Update("run-1", "generating", 60, "narrating slide 3 of 5")

	entry := tracker.Get("run-1")
	if entry.Status != "generating" {
		t.Fatalf("unexpected status: %q", entry.Status)
	}
	if entry.Percent != 60 {
		t.Fatalf("unexpected percent: %d", entry.Percent)
	}
	if entry.Detail != "narrating slide 3 of 5" {
		t.Fatalf("unexpected detail: %q", entry.Detail)
	}
	if entry.UpdatedAt.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
}

func TestPercentNeverDecreases(t *testing.T) {
	tracker := NewTracker()
	tracker.Update("run-1", "generating", 70, "")
	tracker.Update("run-1", "polishing", 40, "late write")

	entry := tracker.Get("run-1")
	if entry.Percent != 70 {
		t.Fatalf("expected high-water percent 70, got %d", entry.Percent)
	}
	if entry.Status != "polishing" {
		t.Fatalf("expected status refresh, got %q", entry.Status)
	}
}

func TestPercentClampedToRange(t *testing.T) {
	tracker := NewTracker()
	tracker.Update("run-1", "queued", -5, "")
	if got := tracker.Get("run-1").Percent; got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	tracker.Update("run-1", "finalizing", 250, "")
	if got := tracker.Get("run-1").Percent; got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestClearRemovesEntry(t *testing.T) {
	tracker := NewTracker()
	tracker.Update("run-1", "completed", 100, "")
	tracker.Clear("run-1")
	if entry := tracker.Get("run-1"); entry.Status != StatusUnknown {
		t.Fatalf("expected unknown after clear, got %q", entry.Status)
	}
}

func TestSweepEvictsStaleEntries(t *testing.T) {
	current := time.Now()
	tracker := NewTracker()
	tracker.now = func() time.Time { return current }

	tracker.Update("stale", "generating", 50, "")
	current = current.Add(2 * time.Hour)
	tracker.Update("fresh", "converting", 10, "")

	removed := tracker.Sweep(time.Hour)
	if removed != 1 {
		t.Fatalf("expected 1 eviction, got %d", removed)
	}
	if tracker.Get("stale").Status != StatusUnknown {
		t.Fatal("expected stale entry to be evicted")
	}
	if tracker.Get("fresh").Status != "converting" {
		t.Fatal("expected fresh entry to survive")
	}
}

func TestConcurrentWritersAndReaders(t *testing.T) {
	tracker := NewTracker()
	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			runID := fmt.Sprintf("run-%d", worker)
			for percent := 0; percent <= 100; percent += 5 {
				tracker.Update(runID, "generating", percent, "")
				got := tracker.Get(runID)
				if got.Percent < percent {
					t.Errorf("observed percent decrease: %d < %d", got.Percent, percent)
					return
				}
			}
		}(worker)
	}
	wg.Wait()

	if tracker.Len() != 8 {
		t.Fatalf("expected 8 tracked runs, got %d", tracker.Len())
	}
}
