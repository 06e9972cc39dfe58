package watcher

import (
	"log/slog"
	"sync"
	"time"
)

// Coalescer merges rapid file events for the same path to tame event
// storms. Events within the window are merged according to these rules:
//   - CREATE + MODIFY = CREATE (file is still new)
//   - CREATE + DELETE = nothing (file never really existed)
//   - MODIFY + DELETE = DELETE (file is gone)
//   - DELETE + CREATE = MODIFY (file was replaced)
type Coalescer struct {
	window  time.Duration
	pending map[string]*pendingEvent
	mu      sync.Mutex
	output  chan Event
	timer   *time.Timer
	stopped bool
}

type pendingEvent struct {
	event   Event
	firstOp Op // first operation seen, drives the merge rules
}

// NewCoalescer creates a coalescer with the given window duration.
func NewCoalescer(window time.Duration) *Coalescer {
	return &Coalescer{
		window:  window,
		pending: make(map[string]*pendingEvent),
		output:  make(chan Event, 64),
	}
}

// Add submits an event for coalescing.
func (c *Coalescer) Add(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	path := event.Path
	if existing, ok := c.pending[path]; ok {
		merged := c.merge(existing, event)
		if merged == nil {
			// Events cancelled each other out (CREATE + DELETE)
			delete(c.pending, path)
		} else {
			existing.event = *merged
		}
	} else {
		c.pending[path] = &pendingEvent{
			event:   event,
			firstOp: event.Op,
		}
	}

	c.scheduleFlush()
}

// merge combines two events per the coalescing rules.
// Returns nil when the events cancel each other out.
func (c *Coalescer) merge(existing *pendingEvent, next Event) *Event {
	switch existing.firstOp {
	case OpCreate:
		switch next.Op {
		case OpModify:
			// CREATE + MODIFY = CREATE (keep original)
			return &existing.event
		case OpDelete:
			return nil
		default:
			return &next
		}

	case OpModify:
		return &next

	case OpDelete:
		if next.Op == OpCreate {
			// DELETE + CREATE = MODIFY (file was replaced)
			result := next
			result.Op = OpModify
			return &result
		}
		return &next

	default:
		return &next
	}
}

// scheduleFlush arms the flush timer for the coalesce window.
func (c *Coalescer) scheduleFlush() {
	if c.timer != nil {
		c.timer.Stop()
	}

	c.timer = time.AfterFunc(c.window, c.flush)
}

// flush emits all pending events.
func (c *Coalescer) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || len(c.pending) == 0 {
		return
	}

	for path, pe := range c.pending {
		select {
		case c.output <- pe.event:
		default:
			slog.Warn("coalescer output full, dropping event",
				slog.String("path", path),
			)
		}
	}
	c.pending = make(map[string]*pendingEvent)
}

// Output returns the channel of coalesced events.
func (c *Coalescer) Output() <-chan Event {
	return c.output
}

// Stop stops the coalescer and closes the output channel.
// Safe to call multiple times.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
	}
	close(c.output)
}
