package reader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
)

// converter turns MTProto updates into inbound events. Binary media only get
// a lazy fetcher. Authors missing from the batch go through senders.
type converter struct {
	self    *tg.User
	fetcher func(loc tg.InputFileLocationClass) domain.Fetcher
	senders senderResolver
	logger  *zerolog.Logger
}

// convertUpdates flattens an updates container into one event per update.
// Short message updates are expected to arrive already expanded into
// UpdateShort by the gaps manager.
func (c *converter) convertUpdates(ctx context.Context, u tg.UpdatesClass) []domain.InboundEvent {
	switch v := u.(type) {
	case *tg.Updates:
		return c.convertBatch(ctx, v.Updates, newEntities(v.Users, v.Chats))
	case *tg.UpdatesCombined:
		return c.convertBatch(ctx, v.Updates, newEntities(v.Users, v.Chats))
	case *tg.UpdateShort:
		return []domain.InboundEvent{c.convertUpdate(ctx, v.Update, newEntities(nil, nil))}
	default:
		return []domain.InboundEvent{{Kind: domain.EventKindRaw, TypeName: u.TypeName()}}
	}
}

func (c *converter) convertBatch(ctx context.Context, updates []tg.UpdateClass, ents entities) []domain.InboundEvent {
	events := make([]domain.InboundEvent, 0, len(updates))

	for _, upd := range updates {
		events = append(events, c.convertUpdate(ctx, upd, ents))
	}

	return events
}

func (c *converter) convertUpdate(ctx context.Context, u tg.UpdateClass, ents entities) domain.InboundEvent {
	switch v := u.(type) {
	case *tg.UpdateNewMessage:
		return c.newMessage(ctx, v.TypeName(), v.Message, ents)
	case *tg.UpdateNewChannelMessage:
		return c.newMessage(ctx, v.TypeName(), v.Message, ents)
	case *tg.UpdateEditMessage:
		return c.editedMessage(v.TypeName(), v.Message)
	case *tg.UpdateEditChannelMessage:
		return c.editedMessage(v.TypeName(), v.Message)
	default:
		return rawEvent(u)
	}
}

func (c *converter) newMessage(ctx context.Context, typeName string, msg tg.MessageClass, ents entities) domain.InboundEvent {
	ev := domain.InboundEvent{TypeName: typeName}

	switch m := msg.(type) {
	case *tg.Message:
		ev.Kind = domain.EventKindMessage
		ev.ChatID, ev.ChatType, ev.HasChatID = markedPeerID(m.PeerID)
		ev.MessageID = m.ID
		ev.Text = m.Message
		ev.Date = unixTime(m.Date)
		ev.Outgoing = m.Out
		ev.Sender = c.messageSender(ctx, m, ents)
		ev.Buttons = buttonLabels(m.ReplyMarkup)

		if media, ok := m.GetMedia(); ok {
			ev.Media = c.convertMedia(media)
		}
	case *tg.MessageService:
		ev.Kind = domain.EventKindAction
		ev.ChatID, ev.ChatType, ev.HasChatID = markedPeerID(m.PeerID)
		ev.MessageID = m.ID
		ev.Date = unixTime(m.Date)
		ev.Outgoing = m.Out
		ev.Action = describeAction(m.Action, ents)
	default:
		ev.Kind = domain.EventKindRaw
		ev.TypeName = msg.TypeName()

		if empty, ok := msg.(*tg.MessageEmpty); ok {
			if peer, ok := empty.GetPeerID(); ok {
				ev.ChatID, ev.ChatType, ev.HasChatID = markedPeerID(peer)
			}
		}
	}

	return ev
}

func (c *converter) editedMessage(typeName string, msg tg.MessageClass) domain.InboundEvent {
	m, ok := msg.(*tg.Message)
	if !ok {
		return domain.InboundEvent{Kind: domain.EventKindRaw, TypeName: typeName}
	}

	ev := domain.InboundEvent{
		Kind:      domain.EventKindEdit,
		TypeName:  typeName,
		MessageID: m.ID,
		Text:      m.Message,
		Date:      unixTime(m.Date),
		Outgoing:  m.Out,
	}
	ev.ChatID, ev.ChatType, ev.HasChatID = markedPeerID(m.PeerID)

	ev.EditDate = ev.Date
	if edited, ok := m.GetEditDate(); ok {
		ev.EditDate = unixTime(edited)
	}

	return ev
}

// messageSender prefers the explicit author. Without one the message was
// posted by the peer itself (private chats and channel posts), or by us.
// It returns nil only when neither the batch nor the lookup knows the author.
func (c *converter) messageSender(ctx context.Context, m *tg.Message, ents entities) *domain.Sender {
	from, ok := m.GetFromID()
	if !ok {
		if m.Out && c.self != nil {
			return userSender(c.self)
		}

		from = m.PeerID
	}

	if u, ok := from.(*tg.PeerUser); ok && c.self != nil && u.UserID == c.self.ID {
		return userSender(c.self)
	}

	if s := ents.sender(from); s != nil {
		return s
	}

	if c.senders == nil {
		return nil
	}

	s, err := c.senders.resolveSender(ctx, m, from)
	if err != nil {
		c.logger.Warn().Err(err).Int("message_id", m.ID).Msg("failed to resolve message sender")

		return nil
	}

	return s
}

// rawEvent reports an update the forwarder does not interpret. Only updates
// scoped to a chat by a chat_id carry one; peer and channel scoped updates
// (read receipts, views, typing in channels, difference hints) stay chatless
// so they never reach the webhook as raw events.
func rawEvent(u tg.UpdateClass) domain.InboundEvent {
	ev := domain.InboundEvent{Kind: domain.EventKindRaw, TypeName: u.TypeName()}

	if v, ok := u.(interface{ GetChatID() int64 }); ok {
		ev.ChatID, ev.ChatType, ev.HasChatID = -v.GetChatID(), chatTypeChat, true
	}

	return ev
}

func buttonLabels(markup tg.ReplyMarkupClass) []string {
	var rows []tg.KeyboardButtonRow

	switch m := markup.(type) {
	case *tg.ReplyInlineMarkup:
		rows = m.Rows
	case *tg.ReplyKeyboardMarkup:
		rows = m.Rows
	default:
		return nil
	}

	var labels []string

	for _, row := range rows {
		for _, b := range row.Buttons {
			if t, ok := b.(interface{ GetText() string }); ok {
				labels = append(labels, t.GetText())
			}
		}
	}

	return labels
}

func describeAction(action tg.MessageActionClass, ents entities) string {
	switch a := action.(type) {
	case *tg.MessageActionChatAddUser:
		return "users added: " + userNames(a.Users, ents)
	case *tg.MessageActionChatJoinedByLink:
		return "user joined by link"
	case *tg.MessageActionChatJoinedByRequest:
		return "user joined by request"
	case *tg.MessageActionChatDeleteUser:
		return "user left: " + userNames([]int64{a.UserID}, ents)
	case *tg.MessageActionChatEditTitle:
		return fmt.Sprintf("title changed to %q", a.Title)
	case *tg.MessageActionChatEditPhoto:
		return "photo changed"
	case *tg.MessageActionChatDeletePhoto:
		return "photo removed"
	case *tg.MessageActionPinMessage:
		return "message pinned"
	case *tg.MessageActionChatCreate:
		return fmt.Sprintf("group %q created", a.Title)
	case *tg.MessageActionChannelCreate:
		return fmt.Sprintf("channel %q created", a.Title)
	case *tg.MessageActionChatMigrateTo:
		return fmt.Sprintf("migrated to channel %d", markedChannelID(a.ChannelID))
	case nil:
		return ""
	default:
		return action.TypeName()
	}
}

func userNames(ids []int64, ents entities) string {
	names := make([]string, 0, len(ids))

	for _, id := range ids {
		if u, ok := ents.users[id]; ok {
			if name := userSender(u).DisplayName(); name != "" {
				names = append(names, name)

				continue
			}
		}

		names = append(names, fmt.Sprint(id))
	}

	return strings.Join(names, ", ")
}

func unixTime(ts int) time.Time {
	if ts == 0 {
		return time.Time{}
	}

	return time.Unix(int64(ts), 0).UTC()
}
