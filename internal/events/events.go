package events

import (
	"sync"
	"time"
)

// Kind classifies messages emitted during a run.
type Kind string

const (
	KindProgress Kind = "progress"
	KindStatus   Kind = "status"
	KindInfo     Kind = "info"
	KindError    Kind = "error"
	// KindReady tells the consumer that user controls may be enabled again.
	KindReady Kind = "ready"
	KindDone  Kind = "done"
)

// Event is a sequenced payload consumed by the single UI-side reader.
type Event struct {
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"runId,omitempty"`
	Kind      Kind      `json:"kind"`
	Completed int       `json:"completed,omitempty"`
	Total     int       `json:"total,omitempty"`
	Percent   float64   `json:"percent,omitempty"`
	Label     string    `json:"label,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Bus carries events from worker, watcher and supervisor goroutines to one
// consumer. Publishing blocks while the buffer is full, so the consumer must
// keep draining until Close.
type Bus struct {
	mu      sync.Mutex
	ch      chan Event
	nextSeq int64
	closed  bool
}

// NewBus creates a bus with the given buffer size.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{ch: make(chan Event, buffer)}
}

// Publish stamps and enqueues one event. A nil or closed bus drops it.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	b.ch <- event
}

// Events returns the receive side for the consumer loop.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Close stops accepting events and closes the channel once. Safe to call twice.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.ch)
}

// Progress reports a completed/total counter update.
func (b *Bus) Progress(runID string, completed, total int, label string) {
	var pct float64
	if total > 0 {
		pct = float64(completed) / float64(total) * 100
	}
	b.Publish(Event{RunID: runID, Kind: KindProgress, Completed: completed, Total: total, Percent: pct, Label: label})
}

// Percent reports a percentage update with a descriptive label.
func (b *Bus) Percent(runID string, percent float64, label string) {
	b.Publish(Event{RunID: runID, Kind: KindProgress, Percent: percent, Label: label})
}

// Status replaces the status line.
func (b *Bus) Status(runID, message string) {
	b.Publish(Event{RunID: runID, Kind: KindStatus, Message: message})
}

// Error surfaces a user-visible failure.
func (b *Bus) Error(runID, message string) {
	b.Publish(Event{RunID: runID, Kind: KindError, Message: message})
}

// Info surfaces a user-visible notice.
func (b *Bus) Info(runID, message string) {
	b.Publish(Event{RunID: runID, Kind: KindInfo, Message: message})
}

// Ready signals that controls can be re-enabled.
func (b *Bus) Ready(runID string) {
	b.Publish(Event{RunID: runID, Kind: KindReady})
}
