// Package heartbeat periodically tells the webhook sink that the forwarder is alive.
package heartbeat

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/observability"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/worker"
)

const (
	EventHeartbeat  = "heartbeat"
	statusRunning   = "running"
	defaultInterval = 60 * time.Second
)

// Submitter hands a payload to background delivery.
type Submitter interface {
	Submit(ctx context.Context, p domain.Payload)
}

type Scheduler struct {
	interval  time.Duration
	clock     clockwork.Clock
	submitter Submitter
	logger    *zerolog.Logger
}

func New(interval time.Duration, clock clockwork.Clock, submitter Submitter, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}

	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Scheduler{
		interval:  interval,
		clock:     clock,
		submitter: submitter,
		logger:    logger,
	}
}

// Run emits a heartbeat every interval until ctx is canceled.
// The first heartbeat is sent one full interval after Run starts.
func (s *Scheduler) Run(ctx context.Context) error {
	err := worker.SingleTickerLoop(ctx, worker.SingleTickerConfig{
		Name:     "heartbeat",
		Interval: s.interval,
		Clock:    s.clock,
		OnTick:   s.beat,
		Logger:   s.logger,
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// Payload builds the heartbeat record for the current time.
func (s *Scheduler) Payload() domain.Payload {
	return domain.Payload{
		"event":     EventHeartbeat,
		"timestamp": s.clock.Now().UTC().Format(time.RFC3339Nano),
		"status":    statusRunning,
	}
}

func (s *Scheduler) beat(ctx context.Context) {
	defer worker.RecoverPanic(s.logger, "heartbeat")

	s.logger.Debug().Msg("sending heartbeat")
	s.submitter.Submit(ctx, s.Payload())
	observability.HeartbeatsSent.WithLabelValues("submitted").Inc()
}
