// Package webhook delivers forwarding payloads to the configured HTTP sink.
//
// Delivery is at-least-once with a bounded number of attempts: each attempt
// POSTs the JSON payload with its own timeout, failures are retried with
// exponential backoff, and a payload is dropped (and logged) once all
// attempts are exhausted. There is no dead-letter queue.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
	coreerrors "github.com/lueurxax/telegram-webhook-forwarder/internal/core/errors"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/observability"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/worker"
)

const (
	defaultTimeout        = 10 * time.Second
	defaultMaxAttempts    = 3
	defaultInitialBackoff = time.Second
	backoffMultiplier     = 2
	maxDrainBytes         = 64 * 1024
	userAgent             = "TelegramWebhookForwarder/1.0"
	limiterBurst          = 5

	headerDeliveryID = "X-Delivery-ID"
	logFieldEvent    = "event"
	logFieldAttempt  = "attempt"
)

// Config configures the webhook client.
type Config struct {
	URL            string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	// RPS limits outgoing requests per second. Zero disables the limit.
	RPS float64
}

// Result describes the outcome of one delivery.
type Result struct {
	DeliveryID string
	Attempts   int
	StatusCode int
	Err        error
}

// OK reports whether the sink accepted the payload.
func (r Result) OK() bool {
	return r.Err == nil && r.Attempts > 0
}

// Client posts payloads to a single webhook sink.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	wait    func(ctx context.Context, d time.Duration) error
	logger  *zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithWait replaces the backoff sleep.
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.wait = wait
	}
}

func New(cfg Config, logger *zerolog.Logger, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}

	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		wait:   worker.Wait,
		logger: logger,
	}

	if cfg.RPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), limiterBurst)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Deliver sends p to the sink, retrying failed attempts with exponential backoff.
// Failures are logged and reported through Result, never returned as a panic.
func (c *Client) Deliver(ctx context.Context, p domain.Payload) Result {
	start := time.Now()
	res := Result{DeliveryID: uuid.NewString()}

	defer func() {
		observability.WebhookDuration.Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(p)
	if err != nil {
		res.Err = fmt.Errorf("%w: %w", coreerrors.ErrEncodePayload, err)
		c.logger.Error().Err(res.Err).Str(logFieldEvent, p.Event()).Msg("dropping webhook payload")
		observability.WebhookDeliveries.WithLabelValues("dropped").Inc()

		return res
	}

	delay := c.cfg.InitialBackoff

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		res.Attempts = attempt
		res.StatusCode, res.Err = c.post(ctx, body, res.DeliveryID)

		if res.Err == nil {
			observability.WebhookAttempts.WithLabelValues("success").Inc()
			observability.WebhookDeliveries.WithLabelValues("delivered").Inc()
			c.logger.Info().
				Str(logFieldEvent, p.Event()).
				Int("status", res.StatusCode).
				Int(logFieldAttempt, attempt).
				Msg("webhook delivered")

			return res
		}

		observability.WebhookAttempts.WithLabelValues("failure").Inc()
		c.logger.Warn().
			Err(res.Err).
			Str(logFieldEvent, p.Event()).
			Int(logFieldAttempt, attempt).
			Int("max_attempts", c.cfg.MaxAttempts).
			Msg("webhook attempt failed")

		if attempt == c.cfg.MaxAttempts {
			break
		}

		if err := c.wait(ctx, delay); err != nil {
			res.Err = fmt.Errorf("retry interrupted: %w", err)

			break
		}

		delay *= backoffMultiplier
	}

	observability.WebhookDeliveries.WithLabelValues("dropped").Inc()
	c.logger.Error().
		Err(res.Err).
		Str(logFieldEvent, p.Event()).
		Str("delivery_id", res.DeliveryID).
		Int("attempts", res.Attempts).
		Msg("webhook delivery failed, dropping payload")

	return res
}

func (c *Client) post(ctx context.Context, body []byte, deliveryID string) (int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(headerDeliveryID, deliveryID)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, fmt.Errorf("%w: %d", coreerrors.ErrUnexpectedStatus, resp.StatusCode)
	}

	return resp.StatusCode, nil
}
