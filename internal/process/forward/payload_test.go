package forward

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
)

var testNow = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

func newTestBuilder(groupID int64) (*Builder, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(testNow)

	return NewBuilder(domain.NewGroupIdentity(groupID), clock), clock
}

func TestBuild_GroupMessage(t *testing.T) {
	b, _ := newTestBuilder(1234567890)

	m := PlainMessage{
		ChatID:    -1001234567890,
		ChatType:  "Channel",
		MessageID: 55,
		Text:      "olá",
		Date:      testNow.Add(-time.Minute),
		Sender:    domain.Sender{ID: 9, FirstName: "Ana", LastName: "Souza", Username: "ana", Bot: false},
	}

	p := b.Build(m, nil, domain.MatchAbsolute)

	assert.Equal(t, EventGroupMessage, p["event"])
	assert.Equal(t, "2024-05-01T12:30:00Z", p["timestamp"])
	assert.Equal(t, int64(-1001234567890), p["chat_id"])
	assert.Equal(t, int64(1001234567890), p["chat_id_abs"])
	assert.Equal(t, 55, p["message_id"])
	assert.Equal(t, "2024-05-01T12:29:00Z", p["date"])
	assert.Equal(t, "olá", p["text"])
	assert.Equal(t, "olá", p["message_info"])
	assert.Equal(t, false, p["has_buttons"])
	assert.Equal(t, "", p["buttons_info"])
	assert.Equal(t, int64(9), p["sender_id"])
	assert.Equal(t, "Ana Souza", p["sender_name"])
	assert.Equal(t, "ana", p["sender_username"])
	assert.Equal(t, false, p["is_bot"])
	assert.Equal(t, int64(1234567890), p["group_id"])
	assert.Equal(t, int64(1234567890), p["group_id_abs"])
	assert.Equal(t, "abs_match", p["match_type"])
	assert.Equal(t, false, p["has_media"])
	assert.NotContains(t, p, "media_type")
}

func TestBuild_GroupMessageWithoutText(t *testing.T) {
	b, _ := newTestBuilder(1)

	p := b.Build(PlainMessage{ChatID: 1, MessageID: 1}, nil, domain.MatchAbsolute)

	assert.Equal(t, "", p["text"])
	assert.Equal(t, "[no text or media]", p["message_info"])

	body, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"text":""`)
}

func TestBuild_GroupMessageWithMedia(t *testing.T) {
	b, _ := newTestBuilder(1)

	m := PlainMessage{ChatID: 1, MessageID: 1, Media: domain.Photo{ID: 3}}
	desc := &domain.MediaDescriptor{
		Kind:     domain.MediaPhoto,
		Details:  map[string]any{},
		Base64:   "AAEC",
		MimeType: "image/jpeg",
		FileExt:  "jpg",
	}

	p := b.Build(m, desc, domain.MatchAbsolute)

	assert.Equal(t, true, p["has_media"])
	assert.Equal(t, "[media: photo]", p["message_info"])
	assert.Equal(t, "photo", p["media_type"])
	assert.Equal(t, map[string]any{}, p["media_details"])
	assert.Equal(t, "AAEC", p["media_base64"])
	assert.Equal(t, "image/jpeg", p["mime_type"])
	assert.Equal(t, "jpg", p["file_ext"])
}

func TestBuild_GroupMessageWithFailedMedia(t *testing.T) {
	b, _ := newTestBuilder(1)

	m := PlainMessage{ChatID: 1, MessageID: 1, Text: "see attached", Media: domain.Document{}}
	desc := &domain.MediaDescriptor{
		Kind:    domain.MediaDocument,
		Details: map[string]any{"filename": "a.pdf", domain.DetailError: "download media: timeout"},
	}

	p := b.Build(m, desc, domain.MatchAbsolute)

	assert.Equal(t, "document", p["media_type"])
	assert.Equal(t, desc.Details, p["media_details"])
	assert.NotContains(t, p, "media_base64")
	assert.NotContains(t, p, "mime_type")
	assert.NotContains(t, p, "file_ext")
	assert.Equal(t, "see attached", p["text"])
}

func TestBuild_TruncatesInfoFields(t *testing.T) {
	b, _ := newTestBuilder(1)

	long := strings.Repeat("é", 250)
	buttons := make([]string, 0, 40)

	for range 40 {
		buttons = append(buttons, "button")
	}

	p := b.Build(PlainMessage{ChatID: 1, MessageID: 1, Text: long, Buttons: buttons}, nil, domain.MatchAbsolute)

	assert.Equal(t, long, p["text"])
	assert.Len(t, []rune(p["message_info"].(string)), 200)
	assert.Equal(t, true, p["has_buttons"])
	assert.Len(t, []rune(p["buttons_info"].(string)), 100)
}

func TestBuild_Edited(t *testing.T) {
	b, _ := newTestBuilder(-100)

	p := b.Build(EditedMessage{ChatID: -100, MessageID: 4, Text: "new", EditDate: testNow}, nil, domain.MatchAbsolute)

	assert.Equal(t, domain.Payload{
		"event":        EventEdited,
		"timestamp":    "2024-05-01T12:30:00Z",
		"chat_id":      int64(-100),
		"message_id":   4,
		"text":         "new",
		"edit_date":    "2024-05-01T12:30:00Z",
		"group_id":     int64(-100),
		"group_id_abs": int64(100),
		"match_type":   "abs_match",
	}, p)
}

func TestBuild_ChatAction(t *testing.T) {
	b, _ := newTestBuilder(-100)

	p := b.Build(MembershipAction{ChatID: 100, MessageID: 2, Action: "user joined"}, nil, domain.MatchAbsolute)

	assert.Equal(t, EventChatAction, p["event"])
	assert.Equal(t, "user joined", p["action"])
	assert.Equal(t, int64(100), p["chat_id"])
}

func TestBuild_Raw(t *testing.T) {
	b, _ := newTestBuilder(-100)

	withChat := b.Build(Unclassified{Kind: "updateChannelTooLong", ChatID: -100, HasChatID: true}, nil, domain.MatchTargetList)
	assert.Equal(t, EventRaw, withChat["event"])
	assert.Equal(t, "updateChannelTooLong", withChat["event_type"])
	assert.Equal(t, int64(-100), withChat["chat_id"])
	assert.Equal(t, "target_list_match", withChat["match_type"])

	withoutChat := b.Build(Unclassified{Kind: "updateUserStatus"}, nil, domain.MatchAbsolute)
	assert.NotContains(t, withoutChat, "chat_id")
}

func TestBuild_IsIdempotent(t *testing.T) {
	b, _ := newTestBuilder(1234567890)

	m := PlainMessage{
		ChatID: -1001234567890, MessageID: 1, Text: "same",
		Sender:  domain.Sender{ID: 1},
		Buttons: []string{"a", "b"},
	}
	desc := &domain.MediaDescriptor{Kind: domain.MediaLocation, Details: map[string]any{"latitude": 1.5, "longitude": 2.5}}

	first, err := json.Marshal(b.Build(m, desc, domain.MatchAbsolute))
	require.NoError(t, err)

	second, err := json.Marshal(b.Build(m, desc, domain.MatchAbsolute))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestBuild_TimestampFollowsClock(t *testing.T) {
	b, clock := newTestBuilder(1)

	first := b.Build(EditedMessage{ChatID: 1, MessageID: 1}, nil, domain.MatchAbsolute)

	clock.Advance(90 * time.Second)

	second := b.Build(EditedMessage{ChatID: 1, MessageID: 1}, nil, domain.MatchAbsolute)

	assert.Equal(t, "2024-05-01T12:30:00Z", first["timestamp"])
	assert.Equal(t, "2024-05-01T12:31:30Z", second["timestamp"])

	delete(first, "timestamp")
	delete(second, "timestamp")
	assert.Equal(t, first, second)
}

func TestOtherChat(t *testing.T) {
	b, _ := newTestBuilder(1)

	p := b.OtherChat(PlainMessage{ChatID: 777, ChatType: "User", Sender: domain.Sender{ID: 5}})

	assert.Equal(t, domain.Payload{
		"event":           EventOtherChat,
		"timestamp":       "2024-05-01T12:30:00Z",
		"chat_id":         int64(777),
		"chat_type":       "User",
		"message":         "[no text]",
		"sender_id":       int64(5),
		"is_target_group": false,
	}, p)

	long := b.OtherChat(PlainMessage{ChatID: 777, Text: strings.Repeat("x", 150)})
	assert.Len(t, long["message"], 100)
}

func TestStartup(t *testing.T) {
	b, _ := newTestBuilder(-1234567890)

	p := b.Startup(99, "Forwarder Bot")

	assert.Equal(t, domain.Payload{
		"event":        EventStartup,
		"timestamp":    "2024-05-01T12:30:00Z",
		"client_id":    int64(99),
		"client_name":  "Forwarder Bot",
		"group_id":     int64(-1234567890),
		"abs_group_id": int64(1234567890),
	}, p)
}
