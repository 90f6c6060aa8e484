// Package overlay plays the click feedback ring without ever blocking the
// frame loop.
//
// The frame loop posts ring requests into a single-slot Mailbox. One
// Animator goroutine consumes them and drives a Renderer. Requests that
// arrive while a ring is on screen are coalesced into it.
package overlay

import (
	"image"
	"sync"
)

// MailboxStats counts ring requests.
type MailboxStats struct {
	Triggers  uint64 `json:"triggers"`
	Played    uint64 `json:"played"`
	Coalesced uint64 `json:"coalesced"`
}

// Mailbox is a single-slot, overwrite-on-post handoff between the frame
// loop and the animator. Trigger never blocks.
type Mailbox struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pos     image.Point
	pending bool
	closed  bool
	stats   MailboxStats
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Trigger posts a ring request at pos. An unconsumed earlier request is
// replaced. Triggers after Close are dropped.
func (m *Mailbox) Trigger(pos image.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.stats.Triggers++
	if m.pending {
		m.stats.Coalesced++
	}
	m.pos = pos
	m.pending = true
	m.cond.Signal()
}

// Wait blocks until a request is pending and consumes it. It returns false
// once the mailbox is closed.
func (m *Mailbox) Wait() (image.Point, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for !m.pending && !m.closed {
		m.cond.Wait()
	}
	if m.closed {
		return image.Point{}, false
	}

	m.pending = false
	m.stats.Played++
	return m.pos, true
}

// discard drops a request that arrived while a ring was playing.
func (m *Mailbox) discard() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending {
		m.pending = false
		m.stats.Coalesced++
	}
}

// Close wakes a blocked Wait and makes it return false. Idempotent.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.cond.Broadcast()
}

// Stats returns the request counters.
func (m *Mailbox) Stats() MailboxStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
