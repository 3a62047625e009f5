package ports

import (
	"context"

	"github.com/amoria-labs/walletauth/core"
)

// EventPublisher fans out auth state transitions to interested parties.
type EventPublisher interface {
	Publish(ctx context.Context, event core.Event) error
}
