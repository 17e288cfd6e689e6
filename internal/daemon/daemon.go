package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"slidecast/internal/api"
	"slidecast/internal/config"
	"slidecast/internal/daemonctl"
	"slidecast/internal/inbox"
	"slidecast/internal/logging"
	"slidecast/internal/queue"
	"slidecast/internal/workflow"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	queueSvc *api.QueueService

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	inbox   *inbox.Watcher
	server  *apiServer
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
	APIBind      string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, wf *workflow.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, and workflow manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := daemonctl.LockPath(cfg)
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		queueSvc: api.NewQueueService(store, wf.Tracker()),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.server = server
	return d, nil
}

// QueueService exposes the run-queue service backing this daemon.
func (d *Daemon) QueueService() *api.QueueService {
	return d.queueSvc
}

// Start acquires the daemon lock and launches the workflow manager, inbox
// watcher, and HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another slidecast daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.workflow.Start(runCtx); err != nil {
		d.teardown()
		return fmt.Errorf("start workflow: %w", err)
	}

	if err := d.startInbox(runCtx); err != nil {
		d.workflow.Stop()
		d.teardown()
		return fmt.Errorf("start inbox watcher: %w", err)
	}

	if d.server != nil {
		if err := d.server.start(runCtx); err != nil {
			d.stopInbox()
			d.workflow.Stop()
			d.teardown()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("slidecast daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.server != nil {
		d.server.stop()
	}
	d.stopInbox()
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("slidecast daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon has started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// APIAddr returns the bound HTTP API address, empty when the API is disabled
// or not yet listening.
func (d *Daemon) APIAddr() string {
	if d.server == nil {
		return ""
	}
	return d.server.addr()
}

// Status returns daemon runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		Workflow:     d.workflow.Status(ctx),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		APIBind:      d.APIAddr(),
	}
}

func (d *Daemon) startInbox(ctx context.Context) error {
	dir := d.cfg.Paths.InboxDir
	if dir == "" {
		return nil
	}
	watcher, err := inbox.New(dir, d.queueSvc, d.logger)
	if err != nil {
		return err
	}
	d.inbox = watcher
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("inbox watcher exited", logging.Error(err))
		}
	}()
	return nil
}

func (d *Daemon) stopInbox() {
	if d.inbox == nil {
		return
	}
	if err := d.inbox.Stop(); err != nil {
		d.logger.Warn("failed to stop inbox watcher", logging.Error(err))
	}
	d.wg.Wait()
	d.inbox = nil
}

func (d *Daemon) teardown() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	_ = d.lock.Unlock()
}
