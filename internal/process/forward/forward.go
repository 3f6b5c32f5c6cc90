// Package forward decides what, if anything, is sent to the webhook for each
// inbound Telegram event and builds the payload.
//
// Every event goes through Handle, which matches the chat against the target
// group, classifies the event and picks exactly one outcome. Media resolution,
// payload building and delivery then continue in a background task so the
// update loop is never blocked by a slow sink.
package forward

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/output/webhook"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/observability"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/worker"
)

const (
	reasonOtherChat   = "other_chat"
	reasonRawDisabled = "raw_disabled"
	reasonNoChat      = "no_chat"
)

// Deliverer sends a payload to the sink, retrying as configured.
type Deliverer interface {
	Deliver(ctx context.Context, p domain.Payload) webhook.Result
}

// MediaResolver turns an attachment into a descriptor.
type MediaResolver interface {
	Resolve(ctx context.Context, m domain.Media) domain.MediaDescriptor
}

// Options toggle the optional outputs.
type Options struct {
	ForwardOtherChats bool
	ForwardRawEvents  bool
}

type Forwarder struct {
	group     domain.GroupIdentity
	builder   *Builder
	resolver  MediaResolver
	deliverer Deliverer
	tasks     *worker.Tasks
	opts      Options
	logger    *zerolog.Logger
}

func New(
	group domain.GroupIdentity,
	builder *Builder,
	resolver MediaResolver,
	deliverer Deliverer,
	tasks *worker.Tasks,
	opts Options,
	logger *zerolog.Logger,
) *Forwarder {
	return &Forwarder{
		group:     group,
		builder:   builder,
		resolver:  resolver,
		deliverer: deliverer,
		tasks:     tasks,
		opts:      opts,
		logger:    logger,
	}
}

// Handle routes ev and returns without waiting for delivery.
func (f *Forwarder) Handle(ctx context.Context, ev domain.InboundEvent) {
	observability.EventsReceived.WithLabelValues(string(ev.Kind)).Inc()

	c := Classify(ev)

	match, isTarget := domain.MatchNone, false
	if ev.HasChatID {
		match, isTarget = f.group.Match(ev.ChatID)
	}

	if isTarget {
		f.handleTarget(ctx, ev, c, match)

		return
	}

	f.handleOther(ctx, ev, c)
}

// Wait blocks until all background deliveries started by Handle are done.
func (f *Forwarder) Wait() {
	f.tasks.Wait()
}

func (f *Forwarder) handleTarget(ctx context.Context, ev domain.InboundEvent, c Classified, match domain.MatchType) {
	switch v := c.(type) {
	case PlainMessage:
		f.logger.Info().
			Int64("chat_id", v.ChatID).
			Int("message_id", v.MessageID).
			Bool("outgoing", ev.Outgoing).
			Str("match_type", string(match)).
			Msg("group message received")

		f.tasks.Go(ctx, "forward group message", func(ctx context.Context) {
			var desc *domain.MediaDescriptor

			if v.Media != nil {
				resolved := f.resolver.Resolve(ctx, v.Media)
				desc = &resolved
			}

			f.send(ctx, f.builder.Build(v, desc, match))
		})
	case Unclassified:
		if !f.opts.ForwardRawEvents {
			observability.EventsIgnored.WithLabelValues(reasonRawDisabled).Inc()

			return
		}

		f.logger.Debug().Str("event_type", v.Kind).Msg("raw event in target group")
		f.submit(ctx, f.builder.Build(v, nil, match))
	default:
		f.submit(ctx, f.builder.Build(v, nil, match))
	}
}

func (f *Forwarder) handleOther(ctx context.Context, ev domain.InboundEvent, c Classified) {
	m, ok := c.(PlainMessage)

	switch {
	case !ev.HasChatID:
		observability.EventsIgnored.WithLabelValues(reasonNoChat).Inc()
	case !ok || !f.opts.ForwardOtherChats:
		observability.EventsIgnored.WithLabelValues(reasonOtherChat).Inc()
	default:
		f.logger.Debug().Int64("chat_id", m.ChatID).Msg("message outside target group")
		f.submit(ctx, f.builder.OtherChat(m))
	}
}

func (f *Forwarder) submit(ctx context.Context, p domain.Payload) {
	f.tasks.Go(ctx, "forward "+p.Event(), func(ctx context.Context) {
		f.send(ctx, p)
	})
}

func (f *Forwarder) send(ctx context.Context, p domain.Payload) {
	observability.EventsForwarded.WithLabelValues(p.Event()).Inc()

	res := f.deliverer.Deliver(ctx, p)
	if !res.OK() {
		f.logger.Warn().Err(res.Err).Str("event", p.Event()).Msg("payload not delivered")
	}
}
