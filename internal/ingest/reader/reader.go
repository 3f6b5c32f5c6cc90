// Package reader connects to Telegram as a user account and turns every
// incoming update into a domain.InboundEvent.
package reader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/telegram/updates"
	updhook "github.com/gotd/td/telegram/updates/hook"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
	coreerrors "github.com/lueurxax/telegram-webhook-forwarder/internal/core/errors"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/config"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/observability"
)

const sessionDirPerm = 0o700

// EventHandler receives converted events. Handle must not block.
type EventHandler interface {
	Handle(ctx context.Context, ev domain.InboundEvent)
}

// ReadyFunc is called once the session is authorized and updates are flowing.
type ReadyFunc func(ctx context.Context, userID int64, name string)

// Status reports the state of the stored session.
type Status struct {
	Authorized bool
	UserID     int64
	Name       string
}

type Reader struct {
	cfg        config.Telegram
	handler    EventHandler
	logger     *zerolog.Logger
	in         io.Reader
	out        io.Writer
	onReady    ReadyFunc
	authorized atomic.Bool
	conv       atomic.Pointer[converter]
}

func New(cfg config.Telegram, handler EventHandler, logger *zerolog.Logger) *Reader {
	r := &Reader{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		in:      os.Stdin,
		out:     os.Stdout,
	}
	r.conv.Store(&converter{logger: logger})

	return r
}

// OnReady registers fn to run after login.
func (r *Reader) OnReady(fn ReadyFunc) {
	r.onReady = fn
}

// Authorized reports whether the session is logged in and receiving updates.
func (r *Reader) Authorized() bool {
	return r.authorized.Load()
}

// Run logs in and streams updates to the handler until ctx is canceled.
// A failed login is returned wrapped in ErrAuthFailed.
func (r *Reader) Run(ctx context.Context) error {
	if err := ensureSessionDir(r.cfg.SessionPath); err != nil {
		return err
	}

	// The peer manager sits in front of the gaps manager so it sees every
	// entity before the handler runs. Both are bound after the client exists.
	var chain telegram.UpdateHandler

	handle := func(ctx context.Context, u tg.UpdatesClass) error {
		return chain.Handle(ctx, u)
	}

	client := telegram.NewClient(r.cfg.APIID, r.cfg.APIHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{Path: r.cfg.SessionPath},
		UpdateHandler:  telegram.UpdateHandlerFunc(handle),
		Middlewares:    []telegram.Middleware{updhook.UpdateHook(handle)},
	})

	peerManager := peers.Options{Cache: &peers.InmemoryCache{}}.Build(client.API())
	gaps := updates.New(updates.Config{
		Handler:      telegram.UpdateHandlerFunc(r.handleUpdates),
		AccessHasher: peerManager,
	})
	chain = peerManager.UpdateHook(gaps)

	defer r.setAuthorized(false)

	err := client.Run(ctx, func(ctx context.Context) error {
		authenticator := newTerminalAuth(r.cfg, r.in, r.out, r.logger)
		if err := client.Auth().IfNecessary(ctx, authenticator.flow()); err != nil {
			return fmt.Errorf("%w: %w", coreerrors.ErrAuthFailed, err)
		}

		me, err := peerManager.Self(ctx)
		if err != nil {
			return fmt.Errorf("%w: fetch self: %w", coreerrors.ErrAuthFailed, err)
		}

		self := me.Raw()
		api := client.API()
		dl := downloader.NewDownloader()

		r.conv.Store(&converter{
			self: self,
			fetcher: func(loc tg.InputFileLocationClass) domain.Fetcher {
				return fileFetcher{api: api, dl: dl, loc: loc}
			},
			senders: newPeerLookup(peerManager),
			logger:  r.logger,
		})

		name := userSender(self).DisplayName()
		r.logger.Info().Int64("user_id", self.ID).Str("name", name).Msg("Successfully authenticated as user")

		return gaps.Run(ctx, api, self.ID, updates.AuthOptions{
			OnStart: func(ctx context.Context) {
				r.setAuthorized(true)
				r.logger.Info().Msg("Listening for updates")

				if r.onReady != nil {
					r.onReady(ctx, self.ID, name)
				}
			},
		})
	})
	if err != nil {
		return fmt.Errorf("telegram client: %w", err)
	}

	return nil
}

// Verify connects with the configured credentials and reports whether the
// stored session is authorized. It never starts a login.
func (r *Reader) Verify(ctx context.Context) (Status, error) {
	client := telegram.NewClient(r.cfg.APIID, r.cfg.APIHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{Path: r.cfg.SessionPath},
	})

	var status Status

	err := client.Run(ctx, func(ctx context.Context) error {
		s, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status: %w", err)
		}

		status.Authorized = s.Authorized
		if s.User != nil {
			status.UserID = s.User.ID
			status.Name = userSender(s.User).DisplayName()
		}

		return nil
	})
	if err != nil {
		return Status{}, fmt.Errorf("telegram connect: %w", err)
	}

	return status, nil
}

func (r *Reader) handleUpdates(ctx context.Context, u tg.UpdatesClass) error {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Interface("panic", rec).Msg("failed to convert update")
		}
	}()

	for _, ev := range r.conv.Load().convertUpdates(ctx, u) {
		r.logger.Debug().
			Str("kind", string(ev.Kind)).
			Str("type", ev.TypeName).
			Int64("chat_id", ev.ChatID).
			Msg("update received")

		r.handler.Handle(ctx, ev)
	}

	return nil
}

func (r *Reader) setAuthorized(ok bool) {
	r.authorized.Store(ok)

	if ok {
		observability.TelegramAuthorized.Set(1)
	} else {
		observability.TelegramAuthorized.Set(0)
	}
}

func ensureSessionDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, sessionDirPerm); err != nil {
		return fmt.Errorf("create session directory %s: %w", dir, err)
	}

	return nil
}
