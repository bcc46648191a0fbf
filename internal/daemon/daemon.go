package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"platen/internal/config"
	"platen/internal/history"
	"platen/internal/logging"
	"platen/internal/workflow"
)

// Daemon coordinates the monitor loop and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	ledger   *history.Store
	workflow *workflow.Manager
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	Workflow      workflow.StatusSummary
	HistoryDBPath string
	LockFilePath  string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, ledger *history.Store, logger *slog.Logger, manager *workflow.Manager, logPath string) (*Daemon, error) {
	if cfg == nil || ledger == nil || manager == nil {
		return nil, errors.New("daemon requires config, ledger, and workflow manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "platend.lock")
	if logPath == "" {
		logPath = filepath.Join(cfg.Paths.LogDir, "platen.log")
	}
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		ledger:   ledger,
		workflow: manager,
		logPath:  logPath,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the monitor loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another platen daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("platen daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts the monitor loop and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("platen daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.ledger != nil {
		return d.ledger.Close()
	}
	return nil
}

// ProcessArchive runs the pipeline once for a single archive, outside the
// monitor loop. The caller must ensure the loop is not running so the
// one-in-flight-per-identifier rule holds.
func (d *Daemon) ProcessArchive(ctx context.Context, archivePath string) (workflow.ItemResult, error) {
	if d.workflow.Running() {
		return workflow.ItemResult{}, errors.New("monitor loop is running; stop it before one-shot processing")
	}
	return d.workflow.ProcessArchive(ctx, archivePath), nil
}

// RecentOutcomes lists the most recent item outcomes from the ledger.
func (d *Daemon) RecentOutcomes(ctx context.Context, limit int) ([]history.Record, error) {
	if d.ledger == nil {
		return nil, errors.New("history ledger unavailable")
	}
	return d.ledger.RecentOutcomes(ctx, limit)
}

// HistorySummary aggregates ledger totals for status output.
func (d *Daemon) HistorySummary(ctx context.Context) (history.Summary, error) {
	if d.ledger == nil {
		return history.Summary{}, errors.New("history ledger unavailable")
	}
	return d.ledger.Summary(ctx)
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary := d.workflow.Status(ctx)
	dbPath := ""
	if d.ledger != nil {
		dbPath = d.ledger.Path()
	}
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		Workflow:      summary,
		HistoryDBPath: dbPath,
		LockFilePath:  d.lockPath,
	}
}
