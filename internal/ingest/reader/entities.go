package reader

import (
	"github.com/gotd/td/tg"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
)

const (
	chatTypeUser    = "User"
	chatTypeChat    = "Chat"
	chatTypeChannel = "Channel"
)

// entities indexes the users and chats attached to an updates batch.
type entities struct {
	users    map[int64]*tg.User
	chats    map[int64]*tg.Chat
	channels map[int64]*tg.Channel
}

func newEntities(users []tg.UserClass, chats []tg.ChatClass) entities {
	e := entities{
		users:    make(map[int64]*tg.User, len(users)),
		chats:    make(map[int64]*tg.Chat),
		channels: make(map[int64]*tg.Channel),
	}

	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			e.users[user.ID] = user
		}
	}

	for _, c := range chats {
		switch chat := c.(type) {
		case *tg.Chat:
			e.chats[chat.ID] = chat
		case *tg.Channel:
			e.channels[chat.ID] = chat
		}
	}

	return e
}

// markedPeerID returns the signed chat identifier used throughout the forwarder:
// users keep their id, basic groups are negated and channels get the -100 prefix.
func markedPeerID(peer tg.PeerClass) (int64, string, bool) {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return p.UserID, chatTypeUser, true
	case *tg.PeerChat:
		return -p.ChatID, chatTypeChat, true
	case *tg.PeerChannel:
		return markedChannelID(p.ChannelID), chatTypeChannel, true
	default:
		return 0, "", false
	}
}

func markedChannelID(id int64) int64 {
	return -(domain.ChannelIDOffset + id)
}

// sender resolves peer to a message author. Channels and basic groups
// posting as themselves are reported with their title as first name.
func (e entities) sender(peer tg.PeerClass) *domain.Sender {
	switch p := peer.(type) {
	case *tg.PeerUser:
		u, ok := e.users[p.UserID]
		if !ok {
			return nil
		}

		return userSender(u)
	case *tg.PeerChannel:
		ch, ok := e.channels[p.ChannelID]
		if !ok {
			return nil
		}

		return &domain.Sender{ID: markedChannelID(ch.ID), FirstName: ch.Title, Username: ch.Username}
	case *tg.PeerChat:
		ch, ok := e.chats[p.ChatID]
		if !ok {
			return nil
		}

		return &domain.Sender{ID: -ch.ID, FirstName: ch.Title}
	default:
		return nil
	}
}

func userSender(u *tg.User) *domain.Sender {
	return &domain.Sender{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Bot:       u.Bot,
	}
}
