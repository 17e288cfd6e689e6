package progress

import (
	"sync"
	"time"
)

// StatusUnknown is returned by Get for run identifiers with no entry.
const StatusUnknown = "unknown"

// Entry is the current progress snapshot for one run. Entries are
// best-effort and volatile; the durable result lives in the queue store.
type Entry struct {
	Status    string    `json:"status"`
	Percent   int       `json:"percentage"`
	Detail    string    `json:"detail"`
	UpdatedAt time.Time `json:"timestamp"`
}

// Tracker is a concurrency-safe keyed progress map shared by every active
// run. One background worker writes per run; arbitrary polling requests read.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// NewTracker constructs an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Update overwrites the entry for the run. The completion percentage never
// moves backwards within one run's lifecycle; a lower value keeps the
// previous high-water mark while still refreshing status and detail.
func (t *Tracker) Update(runID, status string, percent int, detail string) {
	if runID == "" {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.entries[runID]; ok && existing.Percent > percent {
		percent = existing.Percent
	}
	t.entries[runID] = Entry{
		Status:    status,
		Percent:   percent,
		Detail:    detail,
		UpdatedAt: t.now(),
	}
}

// Get returns the current entry for the run, or an unknown sentinel entry
// when the identifier has never reported progress (or has been evicted).
func (t *Tracker) Get(runID string) Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if entry, ok := t.entries[runID]; ok {
		return entry
	}
	return Entry{Status: StatusUnknown}
}

// Clear removes the entry for the run.
func (t *Tracker) Clear(runID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, runID)
}

// Sweep evicts entries not updated within ttl and reports how many were
// removed. The daemon runs this periodically so finished or abandoned runs
// do not accumulate forever.
func (t *Tracker) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := t.now().Add(-ttl)

	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for runID, entry := range t.entries {
		if entry.UpdatedAt.Before(cutoff) {
			delete(t.entries, runID)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked runs.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
