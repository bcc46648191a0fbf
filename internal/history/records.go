package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"platen/internal/services"
)

// Outcome values recorded for a concluded item.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Record is one concluded item in the ledger.
type Record struct {
	ID          int64
	Identifier  string
	ArchiveName string
	DateToken   string
	Attempts    int
	Outcome     string
	ErrorDetail string
	OutputPath  string
	FinishedAt  time.Time
}

// Summary aggregates ledger counts for status reporting.
type Summary struct {
	Total          int
	Completed      int
	Failed         int
	LastIdentifier string
	LastOutcome    string
	LastFinishedAt time.Time
}

// RecordOutcome appends one concluded item. A zero FinishedAt is filled with
// the current time. The stored record is returned with its assigned ID.
func (s *Store) RecordOutcome(ctx context.Context, rec Record) (Record, error) {
	finished := rec.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO item_outcomes (
            identifier, archive_name, date_token, attempts, outcome,
            error_detail, output_path, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Identifier,
		rec.ArchiveName,
		rec.DateToken,
		rec.Attempts,
		rec.Outcome,
		nullableString(rec.ErrorDetail),
		nullableString(rec.OutputPath),
		finished.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return Record{}, services.Wrap(services.ErrDatabase, "history", "record_outcome", "insert outcome", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, services.Wrap(services.ErrDatabase, "history", "record_outcome", "last insert id", err)
	}
	rec.ID = id
	rec.FinishedAt = finished.UTC()
	return rec, nil
}

// RecentOutcomes returns the most recently concluded items, newest first.
// A non-positive limit selects a default page of 20.
func (s *Store) RecentOutcomes(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, identifier, archive_name, date_token, attempts, outcome,
            error_detail, output_path, finished_at
        FROM item_outcomes ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrDatabase, "history", "recent_outcomes", "query outcomes", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrDatabase, "history", "recent_outcomes", "scan outcome", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "history", "recent_outcomes", "iterate outcomes", err)
	}
	return records, nil
}

// Summary reports ledger totals and the most recent conclusion.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	ctx = ensureContext(ctx)
	var summary Summary
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
            COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0)
        FROM item_outcomes`,
		OutcomeCompleted, OutcomeFailed,
	).Scan(&summary.Total, &summary.Completed, &summary.Failed)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrDatabase, "history", "summary", "count outcomes", err)
	}

	var (
		identifier string
		outcome    string
		finishedAt string
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT identifier, outcome, finished_at FROM item_outcomes ORDER BY id DESC LIMIT 1`,
	).Scan(&identifier, &outcome, &finishedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return summary, nil
	case err != nil:
		return Summary{}, services.Wrap(services.ErrDatabase, "history", "summary", "read last outcome", err)
	}
	summary.LastIdentifier = identifier
	summary.LastOutcome = outcome
	if parsed, parseErr := time.Parse(time.RFC3339Nano, finishedAt); parseErr == nil {
		summary.LastFinishedAt = parsed
	}
	return summary, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		rec         Record
		errorDetail sql.NullString
		outputPath  sql.NullString
		finishedAt  string
	)
	if err := rows.Scan(
		&rec.ID,
		&rec.Identifier,
		&rec.ArchiveName,
		&rec.DateToken,
		&rec.Attempts,
		&rec.Outcome,
		&errorDetail,
		&outputPath,
		&finishedAt,
	); err != nil {
		return Record{}, err
	}
	rec.ErrorDetail = errorDetail.String
	rec.OutputPath = outputPath.String
	parsed, err := time.Parse(time.RFC3339Nano, finishedAt)
	if err != nil {
		return Record{}, fmt.Errorf("parse finished_at %q: %w", finishedAt, err)
	}
	rec.FinishedAt = parsed
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
