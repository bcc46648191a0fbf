package stage_test

import (
	"path/filepath"
	"strings"
	"testing"

	"platen/internal/config"
	"platen/internal/stage"
)

func TestItemPathsKeyedByIdentifier(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LibraryDir = "/library"
	cfg.Paths.OutputDir = "/output"

	paths := stage.ItemPaths(&cfg, "P_20250908_0001")

	if paths.ExtractDir != filepath.Join("/library", "extracted", "P_20250908_0001") {
		t.Errorf("ExtractDir = %s", paths.ExtractDir)
	}
	if paths.StampDir != filepath.Join("/library", "stamped", "P_20250908_0001") {
		t.Errorf("StampDir = %s", paths.StampDir)
	}
	if paths.OverlayPNG != filepath.Join("/library", "stamped", "P_20250908_0001.overlay.png") {
		t.Errorf("OverlayPNG = %s", paths.OverlayPNG)
	}
	if paths.ImposedPDF != filepath.Join("/library", "imposed", "P_20250908_0001_2up.pdf") {
		t.Errorf("ImposedPDF = %s", paths.ImposedPDF)
	}
	if paths.OutputPDF != filepath.Join("/output", "P_20250908_0001_2up.pdf") {
		t.Errorf("OutputPDF = %s", paths.OutputPDF)
	}
}

func TestItemPathsHonorsSuffix(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LibraryDir = "/library"
	cfg.Paths.OutputDir = "/output"
	cfg.Imposition.OutputSuffix = "duplex"

	paths := stage.ItemPaths(&cfg, "batch")
	if !strings.HasSuffix(paths.OutputPDF, "batch_duplex.pdf") {
		t.Errorf("OutputPDF = %s, want suffix batch_duplex.pdf", paths.OutputPDF)
	}
	if !strings.HasSuffix(paths.ImposedPDF, "batch_duplex.pdf") {
		t.Errorf("ImposedPDF = %s, want suffix batch_duplex.pdf", paths.ImposedPDF)
	}
}

func TestHealthConstructors(t *testing.T) {
	healthy := stage.Healthy("print")
	if !healthy.Ready || healthy.Name != "print" || healthy.Detail != "" {
		t.Errorf("Healthy = %+v", healthy)
	}
	unhealthy := stage.Unhealthy("compose", "overlay asset missing")
	if unhealthy.Ready || unhealthy.Detail == "" {
		t.Errorf("Unhealthy = %+v", unhealthy)
	}
}
