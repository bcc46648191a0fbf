package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// EventArchive journals every published log event as a JSON line so that
// consumers can replay history after the in-memory stream has rolled over.
// One archive exists per daemon run; opening truncates any previous journal
// at the same path.
type EventArchive struct {
	path string

	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewEventArchive opens the journal at path, truncating prior contents. An
// empty path disables archiving and yields a nil archive, which every method
// accepts.
func NewEventArchive(path string) (*EventArchive, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	if err := ensureParentDir(path); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	return &EventArchive{path: path, file: file, enc: json.NewEncoder(file)}, nil
}

// Append journals evt. Failures are swallowed: the archive is an aid, and a
// full disk must not take logging down with it.
func (a *EventArchive) Append(evt LogEvent) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enc == nil && !a.reopen() {
		return
	}
	_ = a.enc.Encode(evt)
}

// reopen re-establishes the writer after Close or a prior open failure.
// Caller holds the mutex. Reopening never truncates.
func (a *EventArchive) reopen() bool {
	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return false
	}
	a.file = file
	a.enc = json.NewEncoder(file)
	return true
}

// ReadSince returns the journaled events with sequence greater than since, at
// most limit of them (limit 0 means no bound), plus the highest sequence
// among the rows it decoded.
func (a *EventArchive) ReadSince(since uint64, limit int) ([]LogEvent, uint64, error) {
	if a == nil || a.path == "" {
		return nil, since, nil
	}
	file, err := os.Open(a.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, since, nil
		}
		return nil, since, fmt.Errorf("open archive %s: %w", a.path, err)
	}
	defer file.Close()

	hint := 512
	if limit > 0 && limit < hint {
		hint = limit
	}
	events := make([]LogEvent, 0, hint)
	highest := since

	dec := json.NewDecoder(file)
	for dec.More() {
		var evt LogEvent
		if err := dec.Decode(&evt); err != nil {
			return events, highest, fmt.Errorf("decode archive %s: %w", a.path, err)
		}
		if evt.Sequence > highest {
			highest = evt.Sequence
		}
		if evt.Sequence <= since {
			continue
		}
		events = append(events, evt)
		if limit > 0 && len(events) >= limit {
			break
		}
	}
	return events, highest, nil
}

// Close releases the file handle. Append after Close reopens in append mode.
func (a *EventArchive) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var err error
	if a.file != nil {
		err = a.file.Close()
	}
	a.file = nil
	a.enc = nil
	return err
}

// Path reports where the journal lives, or "" for a disabled archive.
func (a *EventArchive) Path() string {
	if a == nil {
		return ""
	}
	return a.path
}
