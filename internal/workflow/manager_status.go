package workflow

import (
	"context"

	"slidecast/internal/logging"
	"slidecast/internal/queue"
	"slidecast/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	Workers     int
	LastError   string
	LastRun     *queue.Run
	QueueStats  map[queue.Status]int
	StageHealth map[string]stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastRun := m.lastRun
	stages := m.stages
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	health := make(map[string]stage.Health, len(stages))
	for _, st := range stages {
		if st.handler == nil {
			continue
		}
		result := st.handler.HealthCheck(ctx)
		health[result.Name] = result
	}

	summary := StatusSummary{
		Running:     running,
		Workers:     m.workers,
		QueueStats:  stats,
		StageHealth: health,
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastRun != nil {
		copied := *lastRun
		summary.LastRun = &copied
	}
	return summary
}

// Healthy reports whether every stage handler passes its health check.
func (s StatusSummary) Healthy() bool {
	for _, health := range s.StageHealth {
		if !health.Ready {
			return false
		}
	}
	return true
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastRun(run *queue.Run) {
	m.mu.Lock()
	if run != nil {
		copied := *run
		m.lastRun = &copied
	} else {
		m.lastRun = nil
	}
	m.mu.Unlock()
}
