package forward

import (
	"time"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
)

// Classified is one of PlainMessage, EditedMessage, MembershipAction or Unclassified.
type Classified interface {
	classified()
}

// PlainMessage is a newly created message with a resolved sender.
type PlainMessage struct {
	ChatID    int64
	ChatType  string
	MessageID int
	Text      string
	Date      time.Time
	Sender    domain.Sender
	Media     domain.Media
	Buttons   []string
}

// EditedMessage carries the new text of an edited message.
type EditedMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	EditDate  time.Time
}

// MembershipAction is a service message such as a join, leave or title change.
type MembershipAction struct {
	ChatID    int64
	MessageID int
	Action    string
}

// Unclassified is any event the forwarder cannot interpret.
type Unclassified struct {
	Kind      string
	ChatID    int64
	HasChatID bool
}

func (PlainMessage) classified()     {}
func (EditedMessage) classified()    {}
func (MembershipAction) classified() {}
func (Unclassified) classified()     {}

// Classify maps ev to exactly one variant. It is total: events with missing
// identifiers or an unresolved sender become Unclassified.
func Classify(ev domain.InboundEvent) (c Classified) {
	defer func() {
		if recover() != nil {
			c = unclassified(ev)
		}
	}()

	switch ev.Kind {
	case domain.EventKindMessage:
		if !ev.HasChatID || ev.MessageID == 0 || ev.Sender == nil {
			return unclassified(ev)
		}

		return PlainMessage{
			ChatID:    ev.ChatID,
			ChatType:  ev.ChatType,
			MessageID: ev.MessageID,
			Text:      ev.Text,
			Date:      ev.Date,
			Sender:    *ev.Sender,
			Media:     ev.Media,
			Buttons:   ev.Buttons,
		}
	case domain.EventKindEdit:
		if !ev.HasChatID || ev.MessageID == 0 {
			return unclassified(ev)
		}

		return EditedMessage{
			ChatID:    ev.ChatID,
			MessageID: ev.MessageID,
			Text:      ev.Text,
			EditDate:  ev.EditDate,
		}
	case domain.EventKindAction:
		if !ev.HasChatID || ev.Action == "" {
			return unclassified(ev)
		}

		return MembershipAction{
			ChatID:    ev.ChatID,
			MessageID: ev.MessageID,
			Action:    ev.Action,
		}
	default:
		return unclassified(ev)
	}
}

func unclassified(ev domain.InboundEvent) Unclassified {
	kind := ev.TypeName
	if kind == "" {
		kind = string(ev.Kind)
	}

	if kind == "" {
		kind = "unknown"
	}

	u := Unclassified{Kind: kind}
	if ev.HasChatID {
		u.ChatID = ev.ChatID
		u.HasChatID = true
	}

	return u
}
