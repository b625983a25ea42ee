package events

import (
	"context"
	"sync"
)

// MemoryPublisher records published events in order. Used by tests and
// single-process runs that have no broker.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryPublisher creates an empty in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, evt Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

// Events returns a copy of everything published so far, in order.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
