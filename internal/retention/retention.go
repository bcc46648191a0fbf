// Package retention prunes aged entries from the transient library
// directories.
package retention

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"platen/internal/logging"
)

// Result summarizes one sweep of a directory.
type Result struct {
	Examined int
	Removed  int
	Failed   int
}

// Sweep deletes every top-level entry of dir (file or subtree) whose
// modification time is older than now minus maxAge. Per-entry failures are
// logged and skipped. A missing dir or non-positive maxAge is a no-op.
func Sweep(logger *slog.Logger, dir string, maxAge time.Duration) Result {
	var result Result
	if maxAge <= 0 {
		return result
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) && logger != nil {
			logging.WarnWithContext(logger, "retention sweep cannot read directory", "retention_sweep_failed",
				logging.String("dir", dir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "aged intermediates remain on disk"),
			)
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		result.Examined++
		info, err := entry.Info()
		if err != nil {
			result.Failed++
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		fullPath := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(fullPath); err != nil {
			result.Failed++
			if logger != nil {
				logging.WarnWithContext(logger, "retention sweep remove failed; entry remains", "retention_sweep_failed",
					logging.String("path", fullPath),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check library directory permissions"),
					logging.String(logging.FieldImpact, "aged intermediate remains on disk"),
				)
			}
			continue
		}
		result.Removed++
		if logger != nil {
			logger.Debug("aged entry removed",
				logging.String("path", fullPath),
			)
		}
	}
	return result
}
