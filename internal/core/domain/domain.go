package domain

import (
	"strings"
	"time"
)

// EventKind is the platform surface an inbound event arrived on.
type EventKind string

const (
	EventKindMessage EventKind = "message"
	EventKindEdit    EventKind = "edit"
	EventKindAction  EventKind = "action"
	EventKindRaw     EventKind = "raw"
)

// Sender represents the resolved author of a message.
type Sender struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	Bot       bool
}

// DisplayName joins first and last name.
func (s Sender) DisplayName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// InboundEvent is a single update pushed by the Telegram client.
// It is read-only and consumed once.
type InboundEvent struct {
	Kind EventKind
	// TypeName is the platform type of the update, e.g. "updateNewChannelMessage".
	TypeName  string
	ChatID    int64
	HasChatID bool
	ChatType  string
	MessageID int
	Text      string
	Date      time.Time
	EditDate  time.Time
	Media     Media
	// Sender is nil when the author could not be resolved.
	Sender   *Sender
	Action   string
	Buttons  []string
	Outgoing bool
}

// Payload is a flat JSON-compatible record delivered to the webhook sink.
type Payload map[string]any

// Event returns the event tag of the payload.
func (p Payload) Event() string {
	event, _ := p["event"].(string)

	return event
}
