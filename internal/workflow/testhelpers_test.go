package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"
)

// recordingPrinter captures print invocations and returns a canned error.
type recordingPrinter struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (p *recordingPrinter) Print(_ context.Context, documentPath string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, documentPath)
	return p.err
}

func (p *recordingPrinter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *recordingPrinter) printed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		default:
			time.Sleep(25 * time.Millisecond)
		}
	}
}
