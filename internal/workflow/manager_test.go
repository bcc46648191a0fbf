package workflow_test

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"platen/internal/history"
	"platen/internal/logging"
	"platen/internal/services"
	"platen/internal/testsupport"
	"platen/internal/workflow"
)

func writeThreePageArchive(t *testing.T, archivePath string) {
	t.Helper()
	testsupport.WriteScanArchive(t, archivePath, map[string][]byte{
		"alpha_0001.png": testsupport.PNGBytes(t, 64, 96, color.White),
		"bravo_0001.png": testsupport.PNGBytes(t, 64, 96, color.White),
		"carol_0001.png": testsupport.PNGBytes(t, 64, 96, color.White),
	})
}

func TestManagerProcessesArchiveEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ledger := testsupport.MustOpenHistory(t, cfg)
	printer := &recordingPrinter{}

	archivePath := filepath.Join(cfg.Paths.InboxDir, "P_20250908_0001.zip")
	writeThreePageArchive(t, archivePath)

	mgr := workflow.NewManager(cfg, logging.NewNop(), workflow.WithPrinter(printer), workflow.WithHistory(ledger))
	result := mgr.ProcessArchive(context.Background(), archivePath)

	if !result.Completed {
		t.Fatalf("expected completion, got %+v", result)
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("expected one attempt, got %d", len(result.Attempts))
	}
	if result.DateToken != "20250908" {
		t.Fatalf("unexpected date token %q", result.DateToken)
	}

	outputPath := filepath.Join(cfg.Paths.OutputDir, "P_20250908_0001_"+cfg.Imposition.OutputSuffix+".pdf")
	if result.OutputPath != outputPath {
		t.Fatalf("expected output %s, got %s", outputPath, result.OutputPath)
	}
	count, err := api.PageCountFile(outputPath)
	if err != nil {
		t.Fatalf("PageCountFile: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 sheets for 3 pages, got %d", count)
	}

	if _, err := os.Stat(filepath.Join(cfg.ProcessedDir(), "P_20250908_0001.zip")); err != nil {
		t.Fatalf("expected archive in processed dir: %v", err)
	}
	if _, err := os.Stat(archivePath); !os.IsNotExist(err) {
		t.Fatalf("expected archive removed from inbox, stat err %v", err)
	}
	overlayPath := filepath.Join(cfg.StampedDir(), "P_20250908_0001.overlay.png")
	if _, err := os.Stat(overlayPath); !os.IsNotExist(err) {
		t.Fatalf("expected transient overlay removed, stat err %v", err)
	}
	if _, err := os.Stat(cfg.Paths.OverlayAsset); err != nil {
		t.Fatalf("expected base overlay asset untouched: %v", err)
	}

	if printer.count() != 0 {
		t.Fatalf("expected no print calls with auto-print disabled, got %d", printer.count())
	}

	records, err := ledger.RecentOutcomes(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentOutcomes: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one history record, got %d", len(records))
	}
	rec := records[0]
	if rec.Outcome != history.OutcomeCompleted || rec.Attempts != 1 {
		t.Fatalf("unexpected history record %+v", rec)
	}
	if rec.OutputPath != outputPath {
		t.Fatalf("expected history output %s, got %s", outputPath, rec.OutputPath)
	}
}

func TestManagerInvokesPrinterOnOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAutoPrint("lp -d office"))
	printer := &recordingPrinter{}

	archivePath := filepath.Join(cfg.Paths.InboxDir, "P_20250908_0002.zip")
	testsupport.WriteDocumentArchive(t, archivePath, "alpha")

	mgr := workflow.NewManager(cfg, logging.NewNop(), workflow.WithPrinter(printer))
	result := mgr.ProcessArchive(context.Background(), archivePath)

	if !result.Completed {
		t.Fatalf("expected completion, got %+v", result)
	}
	printed := printer.printed()
	if len(printed) != 1 {
		t.Fatalf("expected one print call, got %d", len(printed))
	}
	if printed[0] != result.OutputPath {
		t.Fatalf("expected print of %s, got %s", result.OutputPath, printed[0])
	}
}

func TestManagerRetriesWithDelayUntilExhausted(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithAutoPrint("lp"),
		testsupport.WithRetryPolicy(3, 1),
	)
	ledger := testsupport.MustOpenHistory(t, cfg)
	printer := &recordingPrinter{err: services.Wrap(services.ErrPrintFailure, "print", "run_command", "printer jammed", nil)}

	archivePath := filepath.Join(cfg.Paths.InboxDir, "P_20250908_0003.zip")
	testsupport.WriteDocumentArchive(t, archivePath, "alpha")

	mgr := workflow.NewManager(cfg, logging.NewNop(), workflow.WithPrinter(printer), workflow.WithHistory(ledger))
	result := mgr.ProcessArchive(context.Background(), archivePath)

	if result.Completed || result.Aborted {
		t.Fatalf("expected permanent failure, got %+v", result)
	}
	if len(result.Attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(result.Attempts))
	}
	if printer.count() != 3 {
		t.Fatalf("expected 3 print calls, got %d", printer.count())
	}
	retryDelay := time.Duration(cfg.Processing.RetryDelay) * time.Second
	for i := 1; i < len(result.Attempts); i++ {
		gap := result.Attempts[i].StartedAt.Sub(result.Attempts[i-1].StartedAt)
		if gap < retryDelay {
			t.Fatalf("attempt %d started %v after attempt %d, want at least %v", i+1, gap, i, retryDelay)
		}
	}
	if result.FailedStage != "print" {
		t.Fatalf("expected print failure stage, got %q", result.FailedStage)
	}

	if _, err := os.Stat(archivePath); err != nil {
		t.Fatalf("expected archive to remain in inbox: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.ProcessedDir(), "P_20250908_0003.zip")); !os.IsNotExist(err) {
		t.Fatalf("expected no processed archive, stat err %v", err)
	}

	records, err := ledger.RecentOutcomes(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentOutcomes: %v", err)
	}
	if len(records) != 1 || records[0].Outcome != history.OutcomeFailed || records[0].Attempts != 3 {
		t.Fatalf("unexpected history records %+v", records)
	}
}

func TestManagerStampDisabledLeavesAssetUntouched(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStampDisabled())

	archivePath := filepath.Join(cfg.Paths.InboxDir, "P_20250908_0004.zip")
	testsupport.WriteDocumentArchive(t, archivePath, "alpha")

	mgr := workflow.NewManager(cfg, logging.NewNop(), workflow.WithPrinter(&recordingPrinter{}))
	result := mgr.ProcessArchive(context.Background(), archivePath)

	if !result.Completed {
		t.Fatalf("expected completion, got %+v", result)
	}
	if _, err := os.Stat(cfg.Paths.OverlayAsset); err != nil {
		t.Fatalf("expected base overlay asset to survive: %v", err)
	}
	overlayPath := filepath.Join(cfg.StampedDir(), "P_20250908_0004.overlay.png")
	if _, err := os.Stat(overlayPath); !os.IsNotExist(err) {
		t.Fatalf("expected no transient overlay, stat err %v", err)
	}
	if _, err := os.Stat(result.OutputPath); err != nil {
		t.Fatalf("expected output document: %v", err)
	}
}

func TestManagerZeroPageArchiveFails(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRetryPolicy(1, 0))
	printer := &recordingPrinter{}

	archivePath := filepath.Join(cfg.Paths.InboxDir, "P_20250908_0005.zip")
	testsupport.WriteScanArchive(t, archivePath, map[string][]byte{
		"notes.txt": []byte("no pages here"),
	})

	mgr := workflow.NewManager(cfg, logging.NewNop(), workflow.WithPrinter(printer))
	result := mgr.ProcessArchive(context.Background(), archivePath)

	if result.Completed {
		t.Fatal("expected failure for archive without page images")
	}
	if result.FailedStage != "extract" {
		t.Fatalf("expected extract failure stage, got %q", result.FailedStage)
	}
	if _, err := os.Stat(archivePath); err != nil {
		t.Fatalf("expected archive to remain in inbox: %v", err)
	}
	if printer.count() != 0 {
		t.Fatalf("expected no print calls, got %d", printer.count())
	}
}

func TestManagerRunLoopProcessesAndSweeps(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRetention(1))

	staleDir := filepath.Join(cfg.ExtractedDir(), "P_20200101_0001")
	if err := os.MkdirAll(staleDir, 0o755); err != nil {
		t.Fatalf("mkdir stale dir: %v", err)
	}
	old := time.Now().Add(-72 * time.Hour)
	if err := os.Chtimes(staleDir, old, old); err != nil {
		t.Fatalf("age stale dir: %v", err)
	}

	archivePath := filepath.Join(cfg.Paths.InboxDir, "P_20250908_0006.zip")
	writeThreePageArchive(t, archivePath)

	mgr := workflow.NewManager(cfg, logging.NewNop(), workflow.WithPrinter(&recordingPrinter{}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)

	if err := mgr.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail")
	}

	processedPath := filepath.Join(cfg.ProcessedDir(), "P_20250908_0006.zip")
	waitFor(t, 30*time.Second, "archive to be processed", func() bool {
		_, err := os.Stat(processedPath)
		return err == nil
	})
	waitFor(t, 30*time.Second, "stale intermediates to be swept", func() bool {
		_, err := os.Stat(staleDir)
		return os.IsNotExist(err)
	})

	freshDir := filepath.Join(cfg.ExtractedDir(), "P_20250908_0006")
	if _, err := os.Stat(freshDir); err != nil {
		t.Fatalf("expected fresh extraction dir to survive the sweep: %v", err)
	}

	if !mgr.Running() {
		t.Fatal("expected manager to report running")
	}
	mgr.Stop()
	if mgr.Running() {
		t.Fatal("expected manager to report stopped")
	}
	status := mgr.Status(context.Background())
	if status.Running {
		t.Fatal("expected status to report stopped")
	}
	if status.Phase != workflow.PhaseIdle {
		t.Fatalf("expected idle phase after stop, got %q", status.Phase)
	}
	if status.LastItem == nil || !status.LastItem.Completed {
		t.Fatalf("expected completed last item, got %+v", status.LastItem)
	}
}

func TestManagerShutdownAbandonsRetryWait(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithAutoPrint("lp"),
		testsupport.WithRetryPolicy(3, 60),
	)
	ledger := testsupport.MustOpenHistory(t, cfg)
	printer := &recordingPrinter{err: errors.New("offline")}

	archivePath := filepath.Join(cfg.Paths.InboxDir, "P_20250908_0007.zip")
	testsupport.WriteDocumentArchive(t, archivePath, "alpha")

	mgr := workflow.NewManager(cfg, logging.NewNop(), workflow.WithPrinter(printer), workflow.WithHistory(ledger))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitFor(t, 30*time.Second, "first print attempt", func() bool {
		return printer.count() >= 1
	})

	stopDone := make(chan struct{})
	go func() {
		mgr.Stop()
		close(stopDone)
	}()
	select {
	case <-stopDone:
	case <-time.After(10 * time.Second):
		t.Fatal("Stop did not return while a retry wait was pending")
	}

	if printer.count() != 1 {
		t.Fatalf("expected a single print attempt before shutdown, got %d", printer.count())
	}
	if _, err := os.Stat(archivePath); err != nil {
		t.Fatalf("expected archive to remain in inbox: %v", err)
	}
	records, err := ledger.RecentOutcomes(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentOutcomes: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no recorded outcome for an aborted item, got %+v", records)
	}
}

func TestManagerStatusReportsStageHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	mgr := workflow.NewManager(cfg, logging.NewNop(), workflow.WithPrinter(&recordingPrinter{}))

	status := mgr.Status(context.Background())
	if len(status.StageHealth) != 6 {
		t.Fatalf("expected health for 6 stages, got %d", len(status.StageHealth))
	}
	for name, health := range status.StageHealth {
		if !health.Ready {
			t.Fatalf("expected stage %s ready, got %+v", name, health)
		}
	}

	if err := os.Remove(cfg.Paths.OverlayAsset); err != nil {
		t.Fatalf("remove overlay asset: %v", err)
	}
	status = mgr.Status(context.Background())
	compose, ok := status.StageHealth["compose"]
	if !ok {
		t.Fatal("expected compose health entry")
	}
	if compose.Ready {
		t.Fatalf("expected compose to be unhealthy without the asset, got %+v", compose)
	}
	if compose.Detail == "" {
		t.Fatal("expected detail on unhealthy compose stage")
	}
}
