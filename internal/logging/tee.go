package logging

import (
	"context"
	"log/slog"
)

// teeHandler forwards each record to every branch. Enabled when any branch
// is; Handle reports the first branch error after all branches have run.
type teeHandler struct {
	branches []slog.Handler
}

func newTeeHandler(handlers ...slog.Handler) slog.Handler {
	branches := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			branches = append(branches, h)
		}
	}
	switch len(branches) {
	case 0:
		return NoopHandler{}
	case 1:
		return branches[0]
	}
	return &teeHandler{branches: branches}
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, branch := range t.branches {
		if branch.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	last := len(t.branches) - 1
	for i, branch := range t.branches {
		if !branch.Enabled(ctx, record.Level) {
			continue
		}
		// Branches may mutate shared record state; every branch but the
		// final one gets its own clone.
		rec := record
		if i < last {
			rec = record.Clone()
		}
		if err := branch.Handle(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	branches := make([]slog.Handler, len(t.branches))
	for i, branch := range t.branches {
		branches[i] = branch.WithAttrs(attrs)
	}
	return &teeHandler{branches: branches}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	branches := make([]slog.Handler, len(t.branches))
	for i, branch := range t.branches {
		branches[i] = branch.WithGroup(name)
	}
	return &teeHandler{branches: branches}
}

// TeeLogger returns a logger that writes through base and every extra handler.
// A nil base tees across the extra handlers alone.
func TeeLogger(base *slog.Logger, handlers ...slog.Handler) *slog.Logger {
	if base == nil {
		return slog.New(newTeeHandler(handlers...))
	}
	all := append([]slog.Handler{base.Handler()}, handlers...)
	return slog.New(newTeeHandler(all...))
}

// TeeHandler combines handlers into one that forwards records to each of them.
func TeeHandler(handlers ...slog.Handler) slog.Handler {
	return newTeeHandler(handlers...)
}
