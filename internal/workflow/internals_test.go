package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"platen/internal/logging"
	"platen/internal/stage"
	"platen/internal/testsupport"
)

func TestDiscoverArchivesFiltersEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	inbox := cfg.Paths.InboxDir
	for _, name := range []string{"b_first.zip", "A_SECOND.ZIP", "notes.txt", "draft.pdf"} {
		if err := os.WriteFile(filepath.Join(inbox, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.MkdirAll(filepath.Join(inbox, "nested.zip.d"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	mgr := NewManager(cfg, logging.NewNop())
	archives, err := mgr.discoverArchives()
	if err != nil {
		t.Fatalf("discoverArchives: %v", err)
	}
	want := []string{
		filepath.Join(inbox, "A_SECOND.ZIP"),
		filepath.Join(inbox, "b_first.zip"),
	}
	if len(archives) != len(want) {
		t.Fatalf("expected %d archives, got %v", len(want), archives)
	}
	for i := range want {
		if archives[i] != want[i] {
			t.Fatalf("expected %s at index %d, got %s", want[i], i, archives[i])
		}
	}
}

func TestDiscoverArchivesMissingInbox(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.RemoveAll(cfg.Paths.InboxDir); err != nil {
		t.Fatalf("remove inbox: %v", err)
	}

	mgr := NewManager(cfg, logging.NewNop())
	if _, err := mgr.discoverArchives(); err == nil {
		t.Fatal("expected error for missing inbox")
	}
}

func TestComposeStagePassthroughWhenDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStampDisabled())

	handler := &composeStage{cfg: cfg, logger: logging.NewNop()}
	item := &stage.Item{
		Identifier: "P_20250908_0001",
		DateToken:  "20250908",
		Paths:      stage.ItemPaths(cfg, "P_20250908_0001"),
	}
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if item.OverlayPath != cfg.Paths.OverlayAsset {
		t.Fatalf("expected base asset as overlay, got %s", item.OverlayPath)
	}
	if _, err := os.Stat(item.Paths.OverlayPNG); !os.IsNotExist(err) {
		t.Fatalf("expected no composed overlay, stat err %v", err)
	}
}

func TestPrintStageHealthTracksCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAutoPrint("definitely-not-installed-anywhere"))
	handler := &printStage{cfg: cfg, logger: logging.NewNop()}

	health := handler.HealthCheck(context.Background())
	if health.Ready {
		t.Fatalf("expected unhealthy print stage, got %+v", health)
	}

	cfg.Printing.AutoPrint = false
	health = handler.HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("expected healthy print stage when disabled, got %+v", health)
	}
}
