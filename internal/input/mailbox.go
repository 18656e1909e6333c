package input

import (
	"sync"
	"sync/atomic"

	"github.com/smazurov/lightpilot/internal/metrics"
)

// Mailbox holds at most one undelivered event. Posting over an unread
// event replaces it and counts the overwrite.
type Mailbox struct {
	mu      sync.Mutex
	ch      chan InputEvent
	dropped atomic.Uint64
	onDrop  func(lost InputEvent, total uint64)
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{ch: make(chan InputEvent, 1)}
}

// OnDrop registers a callback for overwritten events. It runs on the
// posting goroutine.
func (m *Mailbox) OnDrop(fn func(lost InputEvent, total uint64)) {
	m.mu.Lock()
	m.onDrop = fn
	m.mu.Unlock()
}

// Post stores ev, replacing an unread event. It never blocks.
func (m *Mailbox) Post(ev InputEvent) {
	m.mu.Lock()
	var (
		lost    InputEvent
		dropped bool
	)
	select {
	case lost = <-m.ch:
		dropped = true
	default:
	}
	m.ch <- ev
	fn := m.onDrop
	m.mu.Unlock()

	if dropped {
		total := m.dropped.Add(1)
		metrics.IncEventsDropped()
		if fn != nil {
			fn(lost, total)
		}
	}
}

// C returns the receive side for the single consumer.
func (m *Mailbox) C() <-chan InputEvent {
	return m.ch
}

// TryReceive returns the pending event, if any.
func (m *Mailbox) TryReceive() (InputEvent, bool) {
	select {
	case ev := <-m.ch:
		return ev, true
	default:
		return InputEvent{}, false
	}
}

// Dropped returns the number of overwritten events.
func (m *Mailbox) Dropped() uint64 {
	return m.dropped.Load()
}
