package storage

import (
	"context"
	"sync"
)

const subscriberBuffer = 64

type memoryBus struct {
	mu   sync.Mutex
	data map[string]string
	subs map[chan Event]string
}

// Memory is an in-process Storage. Handles created with Sibling share data
// and see each other's events.
type Memory struct {
	bus    *memoryBus
	origin string
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		bus:    &memoryBus{data: map[string]string{}, subs: map[chan Event]string{}},
		origin: newOrigin(),
	}
}

// Sibling returns another handle on the same data, like a second tab.
func (m *Memory) Sibling() *Memory {
	return &Memory{bus: m.bus, origin: newOrigin()}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.bus.mu.Lock()
	defer m.bus.mu.Unlock()
	v, ok := m.bus.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.bus.mu.Lock()
	defer m.bus.mu.Unlock()
	m.bus.data[key] = value
	m.publishLocked(Event{Key: key, NewValue: value, Origin: m.origin})
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.bus.mu.Lock()
	defer m.bus.mu.Unlock()
	if _, ok := m.bus.data[key]; !ok {
		return nil
	}
	delete(m.bus.data, key)
	m.publishLocked(Event{Key: key, Removed: true, Origin: m.origin})
	return nil
}

func (m *Memory) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, subscriberBuffer)
	m.bus.mu.Lock()
	m.bus.subs[ch] = m.origin
	m.bus.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.bus.mu.Lock()
		delete(m.bus.subs, ch)
		close(ch)
		m.bus.mu.Unlock()
	}()
	return ch, nil
}

// publishLocked drops events for subscribers whose buffer is full rather
// than blocking writers.
func (m *Memory) publishLocked(ev Event) {
	for ch, origin := range m.bus.subs {
		if origin == ev.Origin {
			continue
		}
		select {
		case ch <- ev:
		default:
		}
	}
}
