package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"slidecast/internal/converting"
	"slidecast/internal/logging"
	"slidecast/internal/queue"
	"slidecast/internal/services"
	"slidecast/internal/stage"
)

// stageLabels are the operator-facing names stored on run progress fields.
var stageLabels = map[queue.Status]string{
	queue.StatusConverting: "Converting",
	queue.StatusAnalyzing:  "Analyzing",
	queue.StatusGenerating: "Generating",
	queue.StatusPolishing:  "Polishing",
	queue.StatusFinalizing: "Finalizing",
	queue.StatusCompleted:  "Completed",
}

func deriveStageLabel(status queue.Status) string {
	if label, ok := stageLabels[status]; ok {
		return label
	}
	return string(status)
}

// processRun walks one claimed run through the full stage chain. Any stage
// error fails the run; a context cancellation leaves it for reclamation.
func (m *Manager) processRun(ctx context.Context, workerLogger *slog.Logger, run *queue.Run) error {
	runCtx := services.WithRunID(ctx, run.ID)
	runCtx = services.WithRequestID(runCtx, uuid.NewString())
	runLogger := logging.WithContext(runCtx, workerLogger)

	runStart := time.Now()
	runLogger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("deck_title", strings.TrimSpace(run.DeckTitle)),
		logging.String("source_file", strings.TrimSpace(run.SourcePath)))
	m.setLastRun(run)

	for _, st := range m.stages {
		if err := m.executeStage(runCtx, runLogger, st, run); err != nil {
			return err
		}
	}

	run.Status = queue.StatusCompleted
	run.LastHeartbeat = nil
	run.SetProgress(deriveStageLabel(queue.StatusCompleted), "Narration ready", 100)
	if err := m.store.Update(runCtx, run); err != nil {
		wrapped := fmt.Errorf("persist completed run: %w", err)
		runLogger.Error("failed to persist completed run", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	m.tracker.Update(run.ID, string(queue.StatusCompleted), 100, "Narration ready")
	m.setLastRun(run)

	runLogger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("output_dir", run.OutputDir),
		logging.Duration("run_duration", time.Since(runStart)))
	if err := m.notifier.NotifyRunCompleted(runCtx, run.DeckTitle, run.TotalSlides, time.Since(runStart)); err != nil {
		runLogger.Warn("completion notification failed", logging.Error(err))
	}
	return nil
}

func (m *Manager) executeStage(ctx context.Context, runLogger *slog.Logger, st pipelineStage, run *queue.Run) error {
	stageCtx := services.WithStage(ctx, string(st.status))
	stageLogger := logging.WithContext(stageCtx, runLogger)
	label := deriveStageLabel(st.status)

	now := time.Now().UTC()
	run.Status = st.status
	run.ErrorMessage = ""
	run.LastHeartbeat = &now
	run.SetProgress(label, fmt.Sprintf("%s started", label), st.percentStart)
	if err := m.store.Update(stageCtx, run); err != nil {
		wrapped := fmt.Errorf("persist stage transition: %w", err)
		stageLogger.Error("failed to transition run", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	m.tracker.Update(run.ID, string(st.status), int(st.percentStart), fmt.Sprintf("%s started", label))
	m.setLastRun(run)

	stageStart := time.Now()
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	progressCtx := stage.WithProgress(stageCtx, func(percent float64, message string) {
		scaled := st.percentStart + percent/100*(st.percentEnd-st.percentStart)
		run.SetProgress(label, message, scaled)
		m.tracker.Update(run.ID, string(st.status), int(scaled), message)
	})
	execErr := m.executeWithHeartbeat(progressCtx, st.handler, run)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(stageCtx, stageLogger, run, execErr)
		m.setLastError(execErr)
		return execErr
	}

	run.SetProgress(label, fmt.Sprintf("%s finished", label), st.percentEnd)
	if err := m.store.Update(stageCtx, run); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	m.tracker.Update(run.ID, string(st.status), int(st.percentEnd), fmt.Sprintf("%s finished", label))
	m.setLastRun(run)

	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)))
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, run *queue.Run) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, run.ID)

	execErr := handler.Execute(ctx, run)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) handleStageFailure(ctx context.Context, stageLogger *slog.Logger, run *queue.Run, execErr error) {
	message := execErr.Error()
	run.SetFailed(message)
	if err := m.store.Update(ctx, run); err != nil {
		stageLogger.Error("failed to persist run failure", logging.Error(err))
	}
	m.tracker.Update(run.ID, string(queue.StatusFailed), int(run.ProgressPercent), message)
	m.setLastRun(run)
	converting.CleanupWorkspace(m.cfg, stageLogger, run)
	stageLogger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failed"),
		logging.Error(execErr))
	if err := m.notifier.NotifyRunFailed(ctx, run.DeckTitle, message); err != nil {
		stageLogger.Warn("failure notification failed", logging.Error(err))
	}
}
