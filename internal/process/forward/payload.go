package forward

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
)

// Event tags written to the "event" field.
const (
	EventGroupMessage = "group_message"
	EventEdited       = "message_edited"
	EventChatAction   = "chat_action"
	EventRaw          = "raw_telegram_event"
	EventOtherChat    = "other_chat_message"
	EventStartup      = "startup"
)

const (
	messageInfoMaxRunes = 200
	buttonsInfoMaxRunes = 100
	otherChatMaxRunes   = 100
	noTextPlaceholder   = "[no text]"
	emptyMessageInfo    = "[no text or media]"
)

// Builder assembles payloads. It performs no I/O.
type Builder struct {
	group domain.GroupIdentity
	clock clockwork.Clock
}

func NewBuilder(group domain.GroupIdentity, clock clockwork.Clock) *Builder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Builder{group: group, clock: clock}
}

// Build produces the payload for a target-group event. media may be nil.
func (b *Builder) Build(c Classified, media *domain.MediaDescriptor, match domain.MatchType) domain.Payload {
	switch v := c.(type) {
	case PlainMessage:
		return b.groupMessage(v, media, match)
	case EditedMessage:
		return b.withGroup(domain.Payload{
			"event":      EventEdited,
			"timestamp":  b.now(),
			"chat_id":    v.ChatID,
			"message_id": v.MessageID,
			"text":       v.Text,
			"edit_date":  formatTime(v.EditDate),
		}, match)
	case MembershipAction:
		return b.withGroup(domain.Payload{
			"event":      EventChatAction,
			"timestamp":  b.now(),
			"chat_id":    v.ChatID,
			"message_id": v.MessageID,
			"action":     v.Action,
		}, match)
	case Unclassified:
		p := domain.Payload{
			"event":      EventRaw,
			"timestamp":  b.now(),
			"event_type": v.Kind,
		}
		if v.HasChatID {
			p["chat_id"] = v.ChatID
		}

		return b.withGroup(p, match)
	default:
		return b.withGroup(domain.Payload{
			"event":      EventRaw,
			"timestamp":  b.now(),
			"event_type": fmt.Sprintf("%T", c),
		}, match)
	}
}

// OtherChat produces the diagnostic record for a message outside the target group.
func (b *Builder) OtherChat(m PlainMessage) domain.Payload {
	message := noTextPlaceholder
	if m.Text != "" {
		message = truncateRunes(m.Text, otherChatMaxRunes)
	}

	return domain.Payload{
		"event":           EventOtherChat,
		"timestamp":       b.now(),
		"chat_id":         m.ChatID,
		"chat_type":       m.ChatType,
		"message":         message,
		"sender_id":       m.Sender.ID,
		"is_target_group": false,
	}
}

// Startup announces that the forwarder is logged in and listening.
func (b *Builder) Startup(clientID int64, clientName string) domain.Payload {
	return domain.Payload{
		"event":        EventStartup,
		"timestamp":    b.now(),
		"client_id":    clientID,
		"client_name":  clientName,
		"group_id":     b.group.ID(),
		"abs_group_id": b.group.AbsID(),
	}
}

func (b *Builder) groupMessage(m PlainMessage, media *domain.MediaDescriptor, match domain.MatchType) domain.Payload {
	hasButtons := len(m.Buttons) > 0
	buttonsInfo := ""

	if hasButtons {
		buttonsInfo = truncateRunes(fmt.Sprint(m.Buttons), buttonsInfoMaxRunes)
	}

	p := domain.Payload{
		"event":           EventGroupMessage,
		"timestamp":       b.now(),
		"chat_id":         m.ChatID,
		"chat_id_abs":     domain.Abs(m.ChatID),
		"message_id":      m.MessageID,
		"date":            formatTime(m.Date),
		"text":            m.Text,
		"message_info":    messageInfo(m),
		"has_buttons":     hasButtons,
		"buttons_info":    buttonsInfo,
		"sender_id":       m.Sender.ID,
		"sender_name":     m.Sender.DisplayName(),
		"sender_username": m.Sender.Username,
		"is_bot":          m.Sender.Bot,
		"has_media":       m.Media != nil,
	}

	if media != nil && media.Kind != domain.MediaNone {
		details := media.Details
		if details == nil {
			details = map[string]any{}
		}

		p["media_type"] = string(media.Kind)
		p["media_details"] = details

		if media.Base64 != "" {
			p["media_base64"] = media.Base64
		}

		if media.MimeType != "" {
			p["mime_type"] = media.MimeType
		}

		if media.FileExt != "" {
			p["file_ext"] = media.FileExt
		}
	}

	return b.withGroup(p, match)
}

func (b *Builder) withGroup(p domain.Payload, match domain.MatchType) domain.Payload {
	p["group_id"] = b.group.ID()
	p["group_id_abs"] = b.group.AbsID()
	p["match_type"] = string(match)

	return p
}

func (b *Builder) now() string {
	return b.clock.Now().UTC().Format(time.RFC3339Nano)
}

func messageInfo(m PlainMessage) string {
	switch {
	case m.Text != "":
		return truncateRunes(m.Text, messageInfoMaxRunes)
	case m.Media != nil:
		return fmt.Sprintf("[media: %s]", m.Media.Kind())
	default:
		return emptyMessageInfo
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}
