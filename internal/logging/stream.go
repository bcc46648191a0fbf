package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogEvent is one structured log line as published to the stream hub and the
// event archive.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     time.Time         `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	Stage         string            `json:"stage,omitempty"`
	ItemID        string            `json:"item_id,omitempty"`
	Attempt       int               `json:"attempt,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// LogEventSink receives every event the hub publishes, after the hub's own
// buffer has been updated. The event archive is the usual sink.
type LogEventSink interface {
	Append(LogEvent)
}

// StreamHub keeps the most recent log events in a fixed-size ring and wakes
// blocked readers whenever a new event lands. Sequence numbers are assigned
// at publish time and are contiguous, so the buffered window is always
// [lastSeq-count+1, lastSeq].
type StreamHub struct {
	mu    sync.Mutex
	cond  *sync.Cond
	ring  []LogEvent
	head  int // ring index of the oldest buffered event
	count int
	last  uint64 // sequence of the most recently published event
	sinks []LogEventSink
}

// NewStreamHub builds a hub holding up to capacity events; capacity at or
// below zero selects 512.
func NewStreamHub(capacity int) *StreamHub {
	if capacity <= 0 {
		capacity = 512
	}
	h := &StreamHub{ring: make([]LogEvent, capacity)}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// AddSink registers sink for all future events.
func (h *StreamHub) AddSink(sink LogEventSink) {
	if h == nil || sink == nil {
		return
	}
	h.mu.Lock()
	h.sinks = append(h.sinks, sink)
	h.mu.Unlock()
}

// Publish assigns evt the next sequence number, stores it, wakes waiters,
// and forwards it to the sinks. Sinks run outside the hub lock.
func (h *StreamHub) Publish(evt LogEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.last++
	evt.Sequence = h.last
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	h.ring[(h.head+h.count)%len(h.ring)] = evt
	if h.count == len(h.ring) {
		h.head = (h.head + 1) % len(h.ring)
	} else {
		h.count++
	}
	sinks := append([]LogEventSink(nil), h.sinks...)
	h.cond.Broadcast()
	h.mu.Unlock()

	for _, sink := range sinks {
		sink.Append(evt)
	}
}

// Fetch returns buffered events with sequence greater than since, at most
// limit of them, plus the latest sequence. With wait set and nothing to
// return, Fetch blocks until an event arrives or ctx ends.
func (h *StreamHub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]LogEvent, uint64, error) {
	if h == nil {
		return nil, since, nil
	}

	var stopWatch chan struct{}
	if wait && ctx != nil && ctx.Done() != nil {
		// cond.Wait cannot watch a context, so a helper goroutine turns
		// cancellation into a broadcast.
		stopWatch = make(chan struct{})
		defer close(stopWatch)
		go func() {
			select {
			case <-ctx.Done():
				h.cond.Broadcast()
			case <-stopWatch:
			}
		}()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > len(h.ring) {
		limit = len(h.ring)
	}
	for {
		events := h.collectLocked(since, limit)
		if len(events) > 0 || !wait {
			return events, h.last, ctxErr(ctx)
		}
		if err := ctxErr(ctx); err != nil {
			return nil, h.last, err
		}
		h.cond.Wait()
		if err := ctxErr(ctx); err != nil {
			return nil, h.last, err
		}
	}
}

// Tail returns up to limit of the most recent events without blocking,
// together with the latest sequence.
func (h *StreamHub) Tail(limit int) ([]LogEvent, uint64) {
	if h == nil {
		return nil, 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > h.count {
		limit = h.count
	}
	if limit == 0 {
		return nil, h.last
	}
	return h.collectLocked(h.last-uint64(limit), limit), h.last
}

// FirstSequence reports the oldest sequence still buffered, or the latest
// sequence when the buffer is empty.
func (h *StreamHub) FirstSequence() uint64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 {
		return h.last
	}
	return h.last - uint64(h.count) + 1
}

// collectLocked copies out events with sequence in (since, since+limit].
// Caller holds the mutex.
func (h *StreamHub) collectLocked(since uint64, limit int) []LogEvent {
	if h.count == 0 || since >= h.last {
		return nil
	}
	oldest := h.last - uint64(h.count) + 1
	from := since + 1
	if from < oldest {
		from = oldest
	}
	n := int(h.last - from + 1)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]LogEvent, n)
	base := h.head + int(from-oldest)
	for i := range out {
		out[i] = h.ring[(base+i)%len(h.ring)]
	}
	return out
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

// streamHandler publishes a LogEvent for every record before delegating to
// the wrapped handler. WithAttrs attributes are carried along so events keep
// the component and item context attached by derived loggers.
type streamHandler struct {
	next   slog.Handler
	hub    *StreamHub
	preset []slog.Attr
}

func newStreamHandler(next slog.Handler, hub *StreamHub) slog.Handler {
	if hub == nil || next == nil {
		return next
	}
	return &streamHandler{next: next, hub: hub}
}

func (h *streamHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *streamHandler) Handle(ctx context.Context, record slog.Record) error {
	h.hub.Publish(buildEvent(record, h.preset))
	return h.next.Handle(ctx, record.Clone())
}

func (h *streamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	preset := make([]slog.Attr, 0, len(h.preset)+len(attrs))
	preset = append(preset, h.preset...)
	preset = append(preset, attrs...)
	return &streamHandler{next: h.next.WithAttrs(attrs), hub: h.hub, preset: preset}
}

func (h *streamHandler) WithGroup(name string) slog.Handler {
	return &streamHandler{next: h.next.WithGroup(name), hub: h.hub}
}

// buildEvent converts a record plus preset attributes into a LogEvent.
// Preset attrs land first so call-site attrs win when keys repeat.
func buildEvent(record slog.Record, preset []slog.Attr) LogEvent {
	evt := LogEvent{
		Timestamp: record.Time,
		Level:     strings.ToUpper(record.Level.String()),
		Message:   strings.TrimSpace(record.Message),
	}
	for _, attr := range preset {
		evt.absorb(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		evt.absorb(attr)
		return true
	})
	return evt
}

// absorb routes one attribute either into the event's dedicated fields or
// into the free-form Fields map.
func (e *LogEvent) absorb(attr slog.Attr) {
	key := strings.TrimSpace(attr.Key)
	if key == "" {
		return
	}
	switch key {
	case FieldItemID:
		e.ItemID = valueText(attr.Value)
	case FieldStage:
		e.Stage = valueText(attr.Value)
	case FieldAttempt:
		if v := attr.Value.Resolve(); v.Kind() == slog.KindInt64 {
			e.Attempt = int(v.Int64())
		}
	case FieldCorrelationID:
		e.CorrelationID = valueText(attr.Value)
	case FieldComponent:
		e.Component = valueText(attr.Value)
	default:
		if e.Fields == nil {
			e.Fields = make(map[string]string)
		}
		e.Fields[key] = valueText(attr.Value)
	}
}
