// Package events publishes auth state transitions, either cross-process via
// watermill or in-process via a channel bus.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/amoria-labs/walletauth/core"
	"github.com/amoria-labs/walletauth/ports"
)

// Topic carries every auth state transition; consumers filter by event type.
const Topic = "auth.events"

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     Topic,
	}
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

// Publish emits the event as a JSON message.
func (p *WatermillPublisher) Publish(ctx context.Context, event core.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_type", string(event.Type))

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
