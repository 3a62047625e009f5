package core

import "time"

// EventType identifies a discrete auth state transition.
type EventType string

const (
	EventLogin          EventType = "auth.login"
	EventAccountCreated EventType = "auth.account_created"
	EventWalletLinked   EventType = "auth.wallet_linked"
)

// Event is published on every auth state transition so other components can
// react without callbacks into this package.
type Event struct {
	Type    EventType `json:"type"`
	UserID  string    `json:"user_id"`
	Address string    `json:"address"`
	At      time.Time `json:"at"`
}
