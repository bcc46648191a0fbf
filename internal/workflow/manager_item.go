package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"platen/internal/history"
	"platen/internal/ident"
	"platen/internal/logging"
	"platen/internal/services"
	"platen/internal/stage"
)

// ProcessArchive runs the full pipeline for a single archive outside the
// monitor loop, honoring the configured retry policy. The daemon loop and the
// one-shot process command both funnel through this path.
func (m *Manager) ProcessArchive(ctx context.Context, archivePath string) ItemResult {
	result := m.processArchive(ctx, archivePath)
	m.setLastResult(result)
	return result
}

func (m *Manager) processArchive(ctx context.Context, archivePath string) ItemResult {
	identifier := ident.Identifier(archivePath)
	result := ItemResult{
		Identifier:  identifier,
		ArchiveName: filepath.Base(archivePath),
		DateToken:   ident.DateToken(identifier),
		StartedAt:   time.Now(),
	}

	itemCtx := services.WithItemID(ctx, identifier)
	logger := logging.WithContext(itemCtx, m.logger)

	if m.cfg.Stamp.Enabled && !ident.HasEmbeddedDate(identifier) {
		logging.WarnWithContext(logger, "archive name carries no date token", "date_token_fallback",
			logging.String("date_token", result.DateToken),
			logging.String(logging.FieldErrorHint, "name archives P_YYYYMMDD_NNNN.zip to control the stamped date"),
			logging.String(logging.FieldImpact, "output is stamped with the processing date"),
		)
	}

	logger.Info("item processing started",
		logging.String(logging.FieldEventType, "item_start"),
		logging.String("archive", result.ArchiveName),
		logging.String("date_token", result.DateToken),
		logging.Int("max_attempts", m.maxAttempts),
	)

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				result.Aborted = true
				logger.Info("retry abandoned by shutdown",
					logging.String(logging.FieldEventType, "item_aborted"),
					logging.Int(logging.FieldAttempt, attempt),
				)
				return result
			case <-time.After(m.retryDelay):
			}
		}

		record := m.runAttempt(itemCtx, attempt, archivePath, &result)
		result.Attempts = append(result.Attempts, record)
		if record.Err == "" {
			result.Completed = true
			break
		}
		if ctx.Err() != nil {
			result.Aborted = true
			break
		}
		if attempt < m.maxAttempts {
			logging.WarnWithContext(logger, "attempt failed; retrying", "attempt_failed",
				logging.Int(logging.FieldAttempt, attempt),
				logging.String("failed_stage", record.Stage),
				logging.Duration("retry_delay", m.retryDelay),
				logging.String(logging.FieldImpact, "item stays in the inbox until an attempt succeeds"),
			)
		}
	}

	result.FinishedAt = time.Now()
	m.concludeItem(itemCtx, logger, &result)
	return result
}

func (m *Manager) runAttempt(ctx context.Context, attempt int, archivePath string, result *ItemResult) AttemptRecord {
	record := AttemptRecord{Attempt: attempt, StartedAt: time.Now()}

	attemptCtx := services.WithAttempt(ctx, attempt)
	attemptCtx = services.WithRequestID(attemptCtx, uuid.NewString())

	item := &stage.Item{
		Identifier:  result.Identifier,
		ArchiveName: result.ArchiveName,
		ArchivePath: archivePath,
		DateToken:   result.DateToken,
		Attempt:     attempt,
		Paths:       stage.ItemPaths(m.cfg, result.Identifier),
	}

	err := m.runStages(attemptCtx, item)
	record.Duration = time.Since(record.StartedAt)
	if err != nil {
		record.Stage = services.FailureStage(err)
		record.Err = err.Error()
		return record
	}
	result.OutputPath = item.OutputPath
	return record
}

// runStages executes the stage sequence for one attempt. Every attempt
// restarts from extraction; nothing carries over from a failed attempt except
// overwritable intermediates.
func (m *Manager) runStages(ctx context.Context, item *stage.Item) error {
	logger := logging.WithContext(ctx, m.logger)
	defer m.removeTransientOverlay(logger, item)

	for _, stg := range m.stages {
		stageCtx := services.WithStage(ctx, stg.name)
		stageLogger := logging.WithContext(stageCtx, m.logger)
		if aware, ok := stg.handler.(stage.LoggerAware); ok {
			aware.SetLogger(stageLogger)
		}

		stageStart := time.Now()
		stageLogger.Info("stage started",
			logging.String(logging.FieldEventType, "stage_start"),
			logging.String("archive", item.ArchiveName),
		)

		err := stg.handler.Prepare(stageCtx, item)
		if err == nil {
			err = stg.handler.Execute(stageCtx, item)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				stageLogger.Debug("stage interrupted by shutdown")
				return err
			}
			m.logStageFailure(stageLogger, stg.name, err)
			return err
		}

		stageLogger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("stage_duration", time.Since(stageStart)),
		)
	}
	return nil
}

func (m *Manager) logStageFailure(stageLogger *slog.Logger, stageName string, err error) {
	logging.ErrorWithContext(stageLogger, "stage failed", "stage_failure",
		logging.String("failed_stage", stageName),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, failureHint(err)),
	)
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrAssetMissing):
		return "check that paths.overlay_asset points at a readable PNG"
	case errors.Is(err, services.ErrPrintTimeout):
		return "check the printer; raise printing.timeout if jobs are slow"
	case errors.Is(err, services.ErrPrintFailure):
		return "check printing.command and the printer queue"
	case errors.Is(err, services.ErrMove):
		return "check library_dir permissions and free space"
	case errors.Is(err, services.ErrExtraction):
		return "inspect the archive contents; it may be truncated or empty"
	default:
		return "check logs for details"
	}
}

// removeTransientOverlay deletes the per-item composed overlay after an
// attempt, whatever its outcome. The configured base asset lives elsewhere
// and is never touched; when stamping is disabled no transient overlay exists
// and the removal is a no-op.
func (m *Manager) removeTransientOverlay(logger *slog.Logger, item *stage.Item) {
	if err := os.Remove(item.Paths.OverlayPNG); err != nil && !os.IsNotExist(err) {
		logging.WarnWithContext(logger, "could not remove transient overlay", "overlay_cleanup_failed",
			logging.String("path", item.Paths.OverlayPNG),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale overlay remains until the retention sweep"),
		)
	}
}

func (m *Manager) concludeItem(ctx context.Context, logger *slog.Logger, result *ItemResult) {
	if result.Aborted {
		logger.Info("item processing interrupted by shutdown",
			logging.String(logging.FieldEventType, "item_aborted"),
			logging.Int("attempts", len(result.Attempts)),
		)
		return
	}

	if result.Completed {
		logger.Info("item processing completed",
			logging.String(logging.FieldEventType, "item_complete"),
			logging.Int("attempts", len(result.Attempts)),
			logging.String("output", result.OutputPath),
			logging.Duration("item_duration", result.FinishedAt.Sub(result.StartedAt)),
		)
	} else {
		last := result.Attempts[len(result.Attempts)-1]
		result.FailedStage = last.Stage
		result.Err = last.Err
		logging.ErrorWithContext(logger, "item permanently failed for this cycle", "item_failed",
			logging.Int("attempts", len(result.Attempts)),
			logging.String("failed_stage", result.FailedStage),
			logging.String("error_detail", result.Err),
			logging.String(logging.FieldErrorHint, "archive stays in the inbox and is reconsidered next scan"),
		)
	}

	m.recordOutcome(ctx, result)
}

func (m *Manager) recordOutcome(ctx context.Context, result *ItemResult) {
	if m.ledger == nil {
		return
	}
	rec := history.Record{
		Identifier:  result.Identifier,
		ArchiveName: result.ArchiveName,
		DateToken:   result.DateToken,
		Attempts:    len(result.Attempts),
		Outcome:     history.OutcomeCompleted,
		OutputPath:  result.OutputPath,
		FinishedAt:  result.FinishedAt,
	}
	if !result.Completed {
		rec.Outcome = history.OutcomeFailed
		rec.ErrorDetail = result.Err
	}
	if _, err := m.ledger.RecordOutcome(ctx, rec); err != nil {
		logging.WarnWithContext(m.logger, "could not record item outcome", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldItemID, result.Identifier),
			logging.String(logging.FieldImpact, "the history command will not show this item"),
		)
	}
}

func stageFailureError(result ItemResult) error {
	return fmt.Errorf("item %s failed at %s: %s", result.Identifier, result.FailedStage, result.Err)
}
