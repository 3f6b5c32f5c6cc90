package reader

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gotd/td/tg"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/output/webhook"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/config"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/worker"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/process/forward"
)

type capturingDeliverer struct {
	mu       sync.Mutex
	payloads []domain.Payload
}

func (d *capturingDeliverer) Deliver(_ context.Context, p domain.Payload) webhook.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.payloads = append(d.payloads, p)

	return webhook.Result{Attempts: 1, StatusCode: 200}
}

type noMedia struct{}

func (noMedia) Resolve(_ context.Context, m domain.Media) domain.MediaDescriptor {
	return domain.MediaDescriptor{Kind: m.Kind(), Details: map[string]any{}}
}

func newForwardingReader(groupID int64, conv *converter, opts forward.Options) (*Reader, *forward.Forwarder, *capturingDeliverer) {
	logger := zerolog.Nop()
	group := domain.NewGroupIdentity(groupID)
	builder := forward.NewBuilder(group, clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	d := &capturingDeliverer{}

	fwd := forward.New(group, builder, noMedia{}, d, worker.NewTasks(&logger), opts, &logger)

	r := New(config.Telegram{}, fwd, &logger)
	r.conv.Store(conv)

	return r, fwd, d
}

func TestHandleUpdates_BasicGroupMessageForwarded(t *testing.T) {
	senders := &stubSenders{users: map[int64]*domain.Sender{
		7: {ID: 7, FirstName: "Bruno", LastName: "Lima", Username: "bruno"},
	}}

	r, fwd, d := newForwardingReader(-555, testConverterWith(senders), forward.Options{})

	require.NoError(t, r.handleUpdates(context.Background(), shortChatUpdate(555, 7, "hello basic group")))
	fwd.Wait()

	require.Len(t, d.payloads, 1)

	p := d.payloads[0]
	assert.Equal(t, forward.EventGroupMessage, p["event"])
	assert.Equal(t, "hello basic group", p["text"])
	assert.Equal(t, int64(-555), p["chat_id"])
	assert.Equal(t, int64(7), p["sender_id"])
	assert.Equal(t, "Bruno Lima", p["sender_name"])
	assert.Equal(t, "bruno", p["sender_username"])
}

func TestHandleUpdates_UnresolvedSenderFallsBackToRaw(t *testing.T) {
	r, fwd, d := newForwardingReader(-555, testConverterWith(&stubSenders{}), forward.Options{ForwardRawEvents: true})

	require.NoError(t, r.handleUpdates(context.Background(), shortChatUpdate(555, 7, "x")))
	fwd.Wait()

	require.Len(t, d.payloads, 1)
	assert.Equal(t, forward.EventRaw, d.payloads[0]["event"])
}

func TestHandleUpdates_ChannelNoiseNotForwarded(t *testing.T) {
	r, fwd, d := newForwardingReader(1234567890, testConverter(), forward.Options{ForwardRawEvents: true})

	noise := &tg.Updates{Updates: []tg.UpdateClass{
		&tg.UpdateChannelMessageViews{ChannelID: 1234567890, ID: 3, Views: 10},
		&tg.UpdateReadChannelInbox{ChannelID: 1234567890, MaxID: 3},
	}}

	require.NoError(t, r.handleUpdates(context.Background(), noise))
	fwd.Wait()

	assert.Empty(t, d.payloads)
}
