package preflight

import (
	"strings"

	"platen/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks gated by a feature toggle are only run when the feature is enabled.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Inbox directory", cfg.Paths.InboxDir))
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	// The compose stage reads the overlay asset even when stamping is
	// disabled, so it is always checked.
	results = append(results, CheckFileReadable("Overlay asset", cfg.Paths.OverlayAsset))

	if cfg.Stamp.Enabled && strings.TrimSpace(cfg.Stamp.FontPath) != "" {
		results = append(results, CheckFontAsset(cfg.Stamp.FontPath))
	}

	if cfg.Printing.AutoPrint {
		results = append(results, CheckPrintCommand(cfg.Printing.Command))
	}

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return true
		}
	}
	return false
}
