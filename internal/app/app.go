// Package app wires the forwarder together and runs it.
//
// A single Run starts three things side by side:
//
//   - the Telegram reader, which feeds every update to the forwarder
//   - the heartbeat scheduler, which pings the webhook every interval
//   - the health server exposing /healthz, /readyz and /metrics
//
// The reader owns the lifetime: when it stops, everything else is canceled.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/ingest/reader"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/output/heartbeat"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/output/webhook"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/config"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/observability"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/worker"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/process/forward"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/process/media"
)

// App holds the application dependencies.
type App struct {
	cfg    *config.Config
	clock  clockwork.Clock
	logger *zerolog.Logger
}

func New(cfg *config.Config, logger *zerolog.Logger) *App {
	return &App{cfg: cfg, clock: clockwork.NewRealClock(), logger: logger}
}

// Run forwards group activity to the webhook until ctx is canceled or the
// Telegram session fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group := domain.NewGroupIdentity(a.cfg.GroupID)
	tasks := worker.NewTasks(a.logger)

	client := webhook.New(webhook.Config(a.cfg.WebhookCfg()), a.logger)
	dispatcher := webhook.NewDispatcher(client, tasks)
	builder := forward.NewBuilder(group, a.clock)
	resolver := media.NewResolver(media.Config(a.cfg.MediaCfg()), a.logger)

	fwdCfg := a.cfg.ForwardCfg()
	fwd := forward.New(group, builder, resolver, client, tasks, forward.Options{
		ForwardOtherChats: fwdCfg.OtherChats,
		ForwardRawEvents:  fwdCfg.RawEvents,
	}, a.logger)

	rd := reader.New(a.cfg.Telegram, fwd, a.logger)
	rd.OnReady(func(ctx context.Context, userID int64, name string) {
		a.logger.Info().
			Int64("group_id", group.ID()).
			Int64("abs_group_id", group.AbsID()).
			Msg("Monitoring group")
		dispatcher.Submit(ctx, builder.Startup(userID, name))
	})

	health := observability.NewServer(rd, a.cfg.HealthPort, a.logger)
	go func() {
		if err := health.Start(ctx); err != nil {
			a.logger.Error().Err(err).Msg("health check server error")
		}
	}()

	hb := heartbeat.New(a.cfg.HeartbeatInterval, a.clock, dispatcher, a.logger)
	tasks.Go(ctx, "heartbeat", func(ctx context.Context) {
		if err := hb.Run(ctx); err != nil {
			a.logger.Error().Err(err).Msg("heartbeat stopped")
		}
	})

	a.logger.Info().
		Int64("group_id", group.ID()).
		Str("webhook", a.cfg.WebhookURL).
		Dur("heartbeat", a.cfg.HeartbeatInterval).
		Msg("Starting forwarder")

	if err := rd.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("reader: %w", err)
	}

	return nil
}

// Verify reports whether the stored Telegram session is authorized.
func Verify(ctx context.Context, cfg config.Telegram, logger *zerolog.Logger) (reader.Status, error) {
	status, err := reader.New(cfg, nil, logger).Verify(ctx)
	if err != nil {
		return reader.Status{}, fmt.Errorf("verify telegram credentials: %w", err)
	}

	return status, nil
}
