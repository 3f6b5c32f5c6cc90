package reader

import (
	"context"
	"fmt"

	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/tg"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
)

// senderResolver looks up message authors the update batch did not carry.
type senderResolver interface {
	resolveSender(ctx context.Context, msg *tg.Message, from tg.PeerClass) (*domain.Sender, error)
}

// peerLookup resolves authors through the gotd peer manager. The manager's
// update hook caches every entity seen in updates, so only authors never
// seen before cost a users.getUsers call.
type peerLookup struct {
	peers *peers.Manager
}

func newPeerLookup(m *peers.Manager) *peerLookup {
	return &peerLookup{peers: m}
}

func (l *peerLookup) resolveSender(ctx context.Context, msg *tg.Message, from tg.PeerClass) (*domain.Sender, error) {
	switch p := from.(type) {
	case *tg.PeerUser:
		return l.user(ctx, msg, p.UserID)
	case *tg.PeerChat:
		chat, err := l.peers.ResolveChatID(ctx, p.ChatID)
		if err != nil {
			return nil, fmt.Errorf("resolve chat %d: %w", p.ChatID, err)
		}

		return &domain.Sender{ID: -chat.ID(), FirstName: chat.VisibleName()}, nil
	case *tg.PeerChannel:
		ch, err := l.peers.ResolveChannelID(ctx, p.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("resolve channel %d: %w", p.ChannelID, err)
		}

		raw := ch.Raw()

		return &domain.Sender{ID: markedChannelID(raw.ID), FirstName: raw.Title, Username: raw.Username}, nil
	default:
		return nil, fmt.Errorf("unsupported peer %T", from)
	}
}

// user tries the stored access hash first and falls back to addressing the
// author through the message that mentions them.
func (l *peerLookup) user(ctx context.Context, msg *tg.Message, userID int64) (*domain.Sender, error) {
	u, err := l.peers.ResolveUserID(ctx, userID)
	if err == nil {
		return userSender(u.Raw()), nil
	}

	chat, chatErr := l.inputPeer(ctx, msg.PeerID)
	if chatErr != nil {
		return nil, fmt.Errorf("resolve user %d: %w", userID, err)
	}

	u, err = l.peers.GetUser(ctx, &tg.InputUserFromMessage{Peer: chat, MsgID: msg.ID, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("resolve user %d from message %d: %w", userID, msg.ID, err)
	}

	return userSender(u.Raw()), nil
}

func (l *peerLookup) inputPeer(ctx context.Context, peer tg.PeerClass) (tg.InputPeerClass, error) {
	switch p := peer.(type) {
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: p.ChatID}, nil
	case *tg.PeerChannel:
		ch, err := l.peers.ResolveChannelID(ctx, p.ChannelID)
		if err != nil {
			return nil, err
		}

		return ch.InputPeer(), nil
	case *tg.PeerUser:
		u, err := l.peers.ResolveUserID(ctx, p.UserID)
		if err != nil {
			return nil, err
		}

		return u.InputPeer(), nil
	default:
		return nil, fmt.Errorf("unsupported peer %T", peer)
	}
}
