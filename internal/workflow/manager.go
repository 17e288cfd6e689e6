package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"slidecast/internal/analyzing"
	"slidecast/internal/config"
	"slidecast/internal/converting"
	"slidecast/internal/finalizing"
	"slidecast/internal/generating"
	"slidecast/internal/logging"
	"slidecast/internal/notifications"
	"slidecast/internal/polishing"
	"slidecast/internal/progress"
	"slidecast/internal/queue"
	"slidecast/internal/services/gemini"
	"slidecast/internal/stage"
)

// pipelineStage binds a processing status to its handler and the share of
// overall completion the stage covers.
type pipelineStage struct {
	status       queue.Status
	handler      stage.Handler
	percentStart float64
	percentEnd   float64
}

// Stages carries one handler per pipeline stage, in chain order.
type Stages struct {
	Converting stage.Handler
	Analyzing  stage.Handler
	Generating stage.Handler
	Polishing  stage.Handler
	Finalizing stage.Handler
}

// Manager coordinates queue processing across a pool of workers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	tracker      *progress.Tracker
	logger       *slog.Logger
	stages       []pipelineStage
	pollInterval time.Duration
	workers      int

	heartbeat *HeartbeatMonitor
	notifier  notifications.Service

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastRun *queue.Run
}

// NewManager constructs a workflow manager with the production stage
// handlers, sharing one model client across the stages that call the API.
func NewManager(cfg *config.Config, store *queue.Store, tracker *progress.Tracker, logger *slog.Logger) (*Manager, error) {
	client, err := gemini.New(gemini.Config{
		APIKeys:        cfg.Gemini.APIKeys,
		Model:          cfg.Gemini.Model,
		TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
	}, gemini.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	convertingHandler, err := converting.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	return NewManagerWithStages(cfg, store, tracker, logger, Stages{
		Converting: convertingHandler,
		Analyzing:  analyzing.New(cfg, client, logger),
		Generating: generating.New(cfg, client, logger),
		Polishing:  polishing.New(cfg, client, logger),
		Finalizing: finalizing.New(cfg, logger),
	}), nil
}

// NewManagerWithStages constructs a manager around explicit stage handlers
// (used in tests).
func NewManagerWithStages(cfg *config.Config, store *queue.Store, tracker *progress.Tracker, logger *slog.Logger, stages Stages) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if tracker == nil {
		tracker = progress.NewTracker()
	}
	workers := cfg.Workflow.Workers
	if workers <= 0 {
		workers = 1
	}
	pollInterval := time.Duration(cfg.Workflow.QueuePollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Manager{
		cfg:     cfg,
		store:   store,
		tracker: tracker,
		logger:  logging.NewComponentLogger(logger, "workflow"),
		stages: []pipelineStage{
			{queue.StatusConverting, stages.Converting, 0, 20},
			{queue.StatusAnalyzing, stages.Analyzing, 20, 55},
			{queue.StatusGenerating, stages.Generating, 55, 85},
			{queue.StatusPolishing, stages.Polishing, 85, 95},
			{queue.StatusFinalizing, stages.Finalizing, 95, 100},
		},
		pollInterval: pollInterval,
		workers:      workers,
		notifier:     notifications.NewService(cfg),
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
}

// Tracker exposes the in-memory progress tracker shared with the API layer.
func (m *Manager) Tracker() *progress.Tracker {
	return m.tracker
}
