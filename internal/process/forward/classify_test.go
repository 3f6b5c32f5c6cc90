package forward

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
)

func TestClassify(t *testing.T) {
	sender := &domain.Sender{ID: 42, FirstName: "Ana"}
	date := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ev   domain.InboundEvent
		want Classified
	}{
		{
			name: "plain message",
			ev: domain.InboundEvent{
				Kind: domain.EventKindMessage, ChatID: -100, HasChatID: true, ChatType: "Channel",
				MessageID: 7, Text: "hi", Date: date, Sender: sender,
			},
			want: PlainMessage{ChatID: -100, ChatType: "Channel", MessageID: 7, Text: "hi", Date: date, Sender: *sender},
		},
		{
			name: "message without sender",
			ev:   domain.InboundEvent{Kind: domain.EventKindMessage, TypeName: "updateNewMessage", ChatID: -100, HasChatID: true, MessageID: 7},
			want: Unclassified{Kind: "updateNewMessage", ChatID: -100, HasChatID: true},
		},
		{
			name: "message without chat",
			ev:   domain.InboundEvent{Kind: domain.EventKindMessage, MessageID: 7, Sender: sender},
			want: Unclassified{Kind: "message"},
		},
		{
			name: "edit",
			ev:   domain.InboundEvent{Kind: domain.EventKindEdit, ChatID: 5, HasChatID: true, MessageID: 9, Text: "fixed", EditDate: date},
			want: EditedMessage{ChatID: 5, MessageID: 9, Text: "fixed", EditDate: date},
		},
		{
			name: "edit without message id",
			ev:   domain.InboundEvent{Kind: domain.EventKindEdit, ChatID: 5, HasChatID: true},
			want: Unclassified{Kind: "edit", ChatID: 5, HasChatID: true},
		},
		{
			name: "action",
			ev:   domain.InboundEvent{Kind: domain.EventKindAction, ChatID: 5, HasChatID: true, MessageID: 3, Action: "user joined"},
			want: MembershipAction{ChatID: 5, MessageID: 3, Action: "user joined"},
		},
		{
			name: "action without description",
			ev:   domain.InboundEvent{Kind: domain.EventKindAction, ChatID: 5, HasChatID: true},
			want: Unclassified{Kind: "action", ChatID: 5, HasChatID: true},
		},
		{
			name: "raw",
			ev:   domain.InboundEvent{Kind: domain.EventKindRaw, TypeName: "updateUserStatus"},
			want: Unclassified{Kind: "updateUserStatus"},
		},
		{
			name: "zero value",
			ev:   domain.InboundEvent{},
			want: Unclassified{Kind: "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.ev))
		})
	}
}

func TestClassify_IsTotal(t *testing.T) {
	kinds := []domain.EventKind{domain.EventKindMessage, domain.EventKindEdit, domain.EventKindAction, domain.EventKindRaw, "bogus"}
	chatIDs := []int64{0, 1, -1, math.MaxInt64, math.MinInt64}

	for _, kind := range kinds {
		for _, chatID := range chatIDs {
			ev := domain.InboundEvent{Kind: kind, ChatID: chatID, HasChatID: chatID != 0}

			require.NotPanics(t, func() {
				assert.NotNil(t, Classify(ev))
			})
		}
	}
}
