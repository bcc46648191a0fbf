package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"platen/internal/config"
	"platen/internal/history"
	"platen/internal/logging"
	"platen/internal/printing"
)

// Manager owns the drop folder monitor loop and the stage handlers it feeds.
type Manager struct {
	cfg     *config.Config
	logger  *slog.Logger
	printer printing.Printer
	ledger  *history.Store
	stages  []pipelineStage

	pollInterval time.Duration
	retryDelay   time.Duration
	maxAttempts  int

	mu         sync.RWMutex
	running    bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	phase      string
	lastErr    error
	lastResult *ItemResult
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithPrinter overrides the print sink (used in tests).
func WithPrinter(printer printing.Printer) ManagerOption {
	return func(m *Manager) {
		m.printer = printer
	}
}

// WithHistory attaches an outcome ledger. Without one, outcomes are only
// logged.
func WithHistory(store *history.Store) ManagerOption {
	return func(m *Manager) {
		m.ledger = store
	}
}

// NewManager constructs a workflow manager wired to the configured pipeline.
func NewManager(cfg *config.Config, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "workflow-manager"),
		pollInterval: time.Duration(cfg.Processing.PollInterval) * time.Second,
		retryDelay:   time.Duration(cfg.Processing.RetryDelay) * time.Second,
		maxAttempts:  cfg.Processing.MaxAttempts,
		phase:        PhaseIdle,
	}
	if m.pollInterval <= 0 {
		m.pollInterval = time.Second
	}
	if m.maxAttempts < 1 {
		m.maxAttempts = 1
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.printer == nil {
		popts := []printing.Option{printing.WithLogger(logger)}
		if cfg.Printing.Timeout > 0 {
			popts = append(popts, printing.WithTimeout(time.Duration(cfg.Printing.Timeout)*time.Second))
		}
		m.printer = printing.NewCommandPrinter(cfg.Printing.Command, popts...)
	}
	m.stages = []pipelineStage{
		{name: "extract", handler: &extractStage{cfg: cfg, logger: logger}},
		{name: "compose", handler: &composeStage{cfg: cfg, logger: logger}},
		{name: "stamp", handler: &stampStage{cfg: cfg, logger: logger}},
		{name: "impose", handler: &imposeStage{cfg: cfg, logger: logger}},
		{name: "print", handler: &printStage{cfg: cfg, printer: m.printer, logger: logger}},
		{name: "archive", handler: &archiveStage{cfg: cfg, logger: logger}},
	}
	return m
}

func (m *Manager) setPhase(phase string) {
	m.mu.Lock()
	m.phase = phase
	m.mu.Unlock()
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastResult(result ItemResult) {
	m.mu.Lock()
	m.lastResult = &result
	if !result.Completed && !result.Aborted && result.Err != "" {
		m.lastErr = stageFailureError(result)
	}
	m.mu.Unlock()
}
