package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"platen/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return store
}

func TestRecordOutcomeRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	completed, err := store.RecordOutcome(ctx, history.Record{
		Identifier:  "P_20250908_0001",
		ArchiveName: "P_20250908_0001.zip",
		DateToken:   "20250908",
		Attempts:    1,
		Outcome:     history.OutcomeCompleted,
		OutputPath:  "/output/P_20250908_0001_2up.pdf",
	})
	if err != nil {
		t.Fatalf("RecordOutcome completed: %v", err)
	}
	if completed.ID == 0 {
		t.Fatal("expected assigned ID")
	}
	if completed.FinishedAt.IsZero() {
		t.Fatal("expected FinishedAt to be filled")
	}

	failed, err := store.RecordOutcome(ctx, history.Record{
		Identifier:  "P_20250908_0002",
		ArchiveName: "P_20250908_0002.zip",
		DateToken:   "20250908",
		Attempts:    3,
		Outcome:     history.OutcomeFailed,
		ErrorDetail: "extraction error: extract: open_archive: not a zip",
	})
	if err != nil {
		t.Fatalf("RecordOutcome failed item: %v", err)
	}
	if failed.ID <= completed.ID {
		t.Fatalf("IDs not monotonic: %d then %d", completed.ID, failed.ID)
	}

	records, err := store.RecentOutcomes(ctx, 10)
	if err != nil {
		t.Fatalf("RecentOutcomes: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Identifier != "P_20250908_0002" {
		t.Errorf("newest first: got %s", records[0].Identifier)
	}
	if records[0].ErrorDetail == "" || records[0].OutputPath != "" {
		t.Errorf("failed record fields wrong: %+v", records[0])
	}
	if records[1].OutputPath != "/output/P_20250908_0001_2up.pdf" {
		t.Errorf("output path lost: %+v", records[1])
	}
	if records[1].Attempts != 1 || records[0].Attempts != 3 {
		t.Errorf("attempt counts lost: %+v", records)
	}
}

func TestRecentOutcomesLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := store.RecordOutcome(ctx, history.Record{
			Identifier:  "item",
			ArchiveName: "item.zip",
			DateToken:   "20250101",
			Attempts:    1,
			Outcome:     history.OutcomeCompleted,
		}); err != nil {
			t.Fatalf("RecordOutcome %d: %v", i, err)
		}
	}
	records, err := store.RecentOutcomes(ctx, 2)
	if err != nil {
		t.Fatalf("RecentOutcomes: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
}

func TestSummaryCounts(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	empty, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary on empty ledger: %v", err)
	}
	if empty.Total != 0 || empty.LastIdentifier != "" {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}

	base := time.Date(2025, 9, 8, 12, 0, 0, 0, time.UTC)
	outcomes := []string{history.OutcomeCompleted, history.OutcomeCompleted, history.OutcomeFailed}
	for i, outcome := range outcomes {
		if _, err := store.RecordOutcome(ctx, history.Record{
			Identifier:  "item" + string(rune('1'+i)),
			ArchiveName: "item.zip",
			DateToken:   "20250908",
			Attempts:    1,
			Outcome:     outcome,
			FinishedAt:  base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("RecordOutcome %d: %v", i, err)
		}
	}

	summary, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Total != 3 || summary.Completed != 2 || summary.Failed != 1 {
		t.Fatalf("counts wrong: %+v", summary)
	}
	if summary.LastIdentifier != "item3" || summary.LastOutcome != history.OutcomeFailed {
		t.Fatalf("last fields wrong: %+v", summary)
	}
	if !summary.LastFinishedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("last finished at wrong: %v", summary.LastFinishedAt)
	}
}

func TestOpenPathSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.OpenPath(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := store.RecordOutcome(context.Background(), history.Record{
		Identifier: "item", ArchiveName: "item.zip", DateToken: "20250101",
		Attempts: 1, Outcome: history.OutcomeCompleted,
	}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := history.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	records, err := reopened.RecentOutcomes(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentOutcomes after reopen: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records after reopen, want 1", len(records))
	}
	if errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatal("unexpected schema mismatch")
	}
}
