package workflow

import (
	"context"
	"errors"
	"time"

	"slidecast/internal/logging"
	"slidecast/internal/queue"
)

// Start begins background processing. Runs left in a processing state by a
// previous daemon are re-queued before the workers come up.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	for _, st := range m.stages {
		if st.handler == nil {
			m.mu.Unlock()
			return errors.New("workflow stages not configured")
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	if reset, err := m.store.ResetStuckProcessing(runCtx); err != nil {
		m.logger.Warn("reset stuck runs failed", logging.Error(err))
	} else if reset > 0 {
		m.logger.Info("re-queued runs from previous session", logging.Int64("count", reset))
	}

	m.wg.Add(m.workers + 2)
	for i := 0; i < m.workers; i++ {
		go m.runWorker(runCtx, i+1)
	}
	go m.runReclaimer(runCtx)
	go m.runSweeper(runCtx)
	return nil
}

// Stop terminates background processing, waits for workers to drain, and
// fails any runs still marked as processing so they do not look alive.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()

	ctx, cancelFail := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFail()
	if failed, err := m.store.FailProcessing(ctx, queue.DaemonStopReason); err != nil {
		m.logger.Warn("fail in-flight runs on shutdown failed", logging.Error(err))
	} else if failed > 0 {
		m.logger.Info("failed in-flight runs on shutdown", logging.Int64("count", failed))
	}
}

// Running reports whether the manager has active workers.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()
	logger := m.logger.With(logging.Int("worker", id))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		run, err := m.store.ClaimNextQueued(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			logger.Error("failed to claim next run",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue database access"))
			m.waitForRunOrShutdown(ctx, m.errorRetryInterval())
			continue
		}
		if run == nil {
			m.waitForRunOrShutdown(ctx, m.pollInterval)
			continue
		}

		if err := m.processRun(ctx, logger, run); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) runReclaimer(ctx context.Context) {
	defer m.wg.Done()
	interval := m.heartbeat.heartbeatInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.heartbeat.ReclaimStale(ctx); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Warn("reclaim stale runs failed, stuck runs may remain",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check queue database access"))
			}
		}
	}
}

func (m *Manager) runSweeper(ctx context.Context) {
	defer m.wg.Done()
	ttl := time.Duration(m.cfg.Workflow.ProgressTTLMinutes) * time.Minute
	if ttl <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.tracker.Sweep(ttl); removed > 0 {
				m.logger.Debug("swept expired progress entries", logging.Int("count", removed))
			}
		}
	}
}

func (m *Manager) errorRetryInterval() time.Duration {
	if m.cfg.Workflow.ErrorRetryInterval > 0 {
		return time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second
	}
	return m.pollInterval
}

func (m *Manager) waitForRunOrShutdown(ctx context.Context, wait time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}
