// Package stage defines the contract between the orchestrator and the
// pipeline stages, and the per-item state threaded through them.
package stage

import (
	"path/filepath"

	"platen/internal/config"
	"platen/internal/extract"
)

// Item carries one inbox archive through a processing attempt. Stages read
// the fields earlier stages populated and fill in their own results.
type Item struct {
	Identifier  string // archive stem, NFC-normalized
	ArchiveName string // base name of the archive file
	ArchivePath string // absolute path in the inbox
	DateToken   string // YYYYMMDD rendered onto the overlay
	Attempt     int    // 1-based attempt number

	Paths       Paths
	Documents   []extract.Document // extracted pages, replaced by stamped copies
	PageCount   int
	OverlayPath string // overlay applied to pages: dated copy or the raw asset
	OutputPath  string // final PDF in the output directory
}

// Paths locates the per-item intermediates and the final output. All
// intermediates are keyed by the item identifier so a retry overwrites its
// own artifacts and never another item's.
type Paths struct {
	ExtractDir string
	StampDir   string
	OverlayPNG string
	ImposedPDF string
	OutputPDF  string
}

// ItemPaths derives the artifact layout for one item from the configured
// library and output roots.
func ItemPaths(cfg *config.Config, identifier string) Paths {
	name := identifier + "_" + cfg.Imposition.OutputSuffix + ".pdf"
	return Paths{
		ExtractDir: filepath.Join(cfg.ExtractedDir(), identifier),
		StampDir:   filepath.Join(cfg.StampedDir(), identifier),
		OverlayPNG: filepath.Join(cfg.StampedDir(), identifier+".overlay.png"),
		ImposedPDF: filepath.Join(cfg.ImposedDir(), name),
		OutputPDF:  filepath.Join(cfg.Paths.OutputDir, name),
	}
}
