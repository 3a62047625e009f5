package events

import (
	"context"
	"sync"

	"github.com/amoria-labs/walletauth/core"
	"github.com/amoria-labs/walletauth/ports"
)

// Bus is an in-process EventPublisher that fans events out to subscriber
// channels. Subscribers register explicitly and get an unsubscribe func back;
// there are no callbacks into subscriber code.
type Bus struct {
	subscribers map[int]chan core.Event
	nextID      int
	mu          sync.Mutex
}

// NewBus creates a new in-process event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[int]chan core.Event),
	}
}

var _ ports.EventPublisher = (*Bus)(nil)

// Subscribe registers a new subscriber with the given channel buffer. The
// returned func deregisters it and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan core.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan core.Event, buffer)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

// Publish delivers the event to every subscriber. A subscriber whose buffer
// is full misses the event rather than blocking the auth flow.
func (b *Bus) Publish(ctx context.Context, event core.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}
