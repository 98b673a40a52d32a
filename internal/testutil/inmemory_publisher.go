package testutil

import (
	"context"
	"sync"

	"github.com/coursebill/coursebill/internal/publisher"
)

// PublishedEvent records one event accepted by the in-memory publisher
type PublishedEvent struct {
	EventName string
	Payload   interface{}
}

// InMemoryEventPublisher records published events for assertions
type InMemoryEventPublisher struct {
	mu     sync.RWMutex
	events []PublishedEvent
}

var _ publisher.EventPublisher = (*InMemoryEventPublisher)(nil)

// NewInMemoryEventPublisher creates a new in-memory event publisher
func NewInMemoryEventPublisher() *InMemoryEventPublisher {
	return &InMemoryEventPublisher{
		events: make([]PublishedEvent, 0),
	}
}

func (p *InMemoryEventPublisher) Publish(ctx context.Context, eventName string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{EventName: eventName, Payload: payload})
	return nil
}

func (p *InMemoryEventPublisher) Close() error {
	return nil
}

// Events returns all published events
func (p *InMemoryEventPublisher) Events() []PublishedEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	events := make([]PublishedEvent, len(p.events))
	copy(events, p.events)
	return events
}

// EventNames returns the names of all published events in order
func (p *InMemoryEventPublisher) EventNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, len(p.events))
	for i, event := range p.events {
		names[i] = event.EventName
	}
	return names
}

// CountByName returns the number of published events with the given name
func (p *InMemoryEventPublisher) CountByName(name string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	count := 0
	for _, event := range p.events {
		if event.EventName == name {
			count++
		}
	}
	return count
}

// Clear removes all recorded events
func (p *InMemoryEventPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = make([]PublishedEvent, 0)
}
