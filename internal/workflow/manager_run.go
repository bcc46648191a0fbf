package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"platen/internal/ident"
	"platen/internal/logging"
	"platen/internal/retention"
)

// Start begins the monitor loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("monitor already running")
	}
	if len(m.stages) == 0 {
		m.mu.Unlock()
		return errors.New("pipeline stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.runLoop(runCtx)
	return nil
}

// Stop terminates the monitor loop and waits for the in-flight item, if any,
// to settle.
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
}

// Running reports whether the monitor loop is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) runLoop(ctx context.Context) {
	defer m.wg.Done()
	defer m.setPhase(PhaseIdle)

	m.logger.Info("drop folder monitor started",
		logging.String(logging.FieldEventType, "monitor_start"),
		logging.String("inbox", m.cfg.Paths.InboxDir),
		logging.Duration("poll_interval", m.pollInterval),
	)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("drop folder monitor stopped",
				logging.String(logging.FieldEventType, "monitor_stop"),
			)
			return
		default:
		}

		m.runCycle(ctx)
		m.waitForWorkOrShutdown(ctx)
	}
}

// runCycle drains the inbox once and sweeps the working directories at the
// end. A failed item stays in the inbox and is retried no sooner than the
// next cycle.
func (m *Manager) runCycle(ctx context.Context) {
	archives, err := m.discoverArchives()
	if err != nil {
		m.setLastError(err)
		logging.WarnWithContext(m.logger, "inbox scan failed", "inbox_scan_failed",
			logging.Error(err),
			logging.String("inbox", m.cfg.Paths.InboxDir),
			logging.String(logging.FieldErrorHint, "check that paths.inbox_dir exists and is readable"),
			logging.String(logging.FieldImpact, "no new work is picked up"),
		)
		return
	}

	for _, archivePath := range archives {
		if ctx.Err() != nil {
			return
		}
		m.setPhase(ident.Identifier(archivePath))
		result := m.processArchive(ctx, archivePath)
		m.setLastResult(result)
		if result.Aborted {
			return
		}
	}

	m.sweepWorkDirs(ctx)
}

// discoverArchives lists inbox archives in name order, which keeps processing
// order stable across cycles.
func (m *Manager) discoverArchives() ([]string, error) {
	entries, err := os.ReadDir(m.cfg.Paths.InboxDir)
	if err != nil {
		return nil, err
	}
	var archives []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".zip") {
			continue
		}
		archives = append(archives, filepath.Join(m.cfg.Paths.InboxDir, entry.Name()))
	}
	return archives, nil
}

func (m *Manager) waitForWorkOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}

// sweepWorkDirs ages out extracted, stamped, and imposed intermediates. It
// only runs between items so a sweep never races an in-flight attempt.
func (m *Manager) sweepWorkDirs(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	maxAge := time.Duration(m.cfg.Processing.RetentionDays) * 24 * time.Hour
	if maxAge <= 0 {
		return
	}
	m.setPhase(PhaseSweeping)
	defer m.setPhase(PhaseIdle)

	for _, dir := range m.cfg.WorkDirs() {
		result := retention.Sweep(m.logger, dir, maxAge)
		if result.Removed > 0 || result.Failed > 0 {
			m.logger.Info("retention sweep finished",
				logging.String(logging.FieldEventType, "retention_sweep"),
				logging.String("directory", dir),
				logging.Int("examined", result.Examined),
				logging.Int("removed", result.Removed),
				logging.Int("failed", result.Failed),
			)
		}
	}
}
