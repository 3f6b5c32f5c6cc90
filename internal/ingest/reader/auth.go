package reader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"

	coreerrors "github.com/lueurxax/telegram-webhook-forwarder/internal/core/errors"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/config"
)

const minPhoneLength = 10

// terminalAuth answers the login flow from configuration, prompting on the
// terminal only for the login code and any missing secret.
type terminalAuth struct {
	cfg    config.Telegram
	in     *bufio.Reader
	out    io.Writer
	logger *zerolog.Logger
}

func newTerminalAuth(cfg config.Telegram, in io.Reader, out io.Writer, logger *zerolog.Logger) *terminalAuth {
	return &terminalAuth{cfg: cfg, in: bufio.NewReader(in), out: out, logger: logger}
}

func (a *terminalAuth) flow() auth.Flow {
	return auth.NewFlow(a, auth.SendCodeOptions{})
}

func (a *terminalAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	code, err := a.prompt("Enter code: ")
	if err != nil {
		return "", fmt.Errorf("failed to read auth code: %w", err)
	}

	return code, nil
}

func (a *terminalAuth) Phone(_ context.Context) (string, error) {
	phone := a.cfg.Phone

	if phone == "" {
		var err error

		phone, err = a.prompt("Enter phone: ")
		if err != nil {
			return "", fmt.Errorf("failed to read phone number: %w", err)
		}
	}

	phone = sanitizePhone(phone)
	a.logger.Info().Str("phone", maskPhone(phone)).Msg("Using phone number")

	if len(phone) < minPhoneLength {
		a.logger.Warn().Int("length", len(phone)).Msg("Phone number seems too short, it might be invalid. Ensure it includes country code (e.g. +1...)")
	}

	return phone, nil
}

func (a *terminalAuth) Password(_ context.Context) (string, error) {
	if a.cfg.Password != "" {
		return a.cfg.Password, nil
	}

	password, err := a.prompt("Enter 2FA password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read 2FA password: %w", err)
	}

	return password, nil
}

func (a *terminalAuth) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func (a *terminalAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, coreerrors.ErrSignupNotSupported
}

func (a *terminalAuth) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)

	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

func sanitizePhone(phone string) string {
	var sb strings.Builder

	phone = strings.TrimSpace(phone)

	if strings.HasPrefix(phone, "+") {
		sb.WriteByte('+')

		phone = phone[1:]
	}

	for _, char := range phone {
		if char >= '0' && char <= '9' {
			sb.WriteRune(char)
		}
	}

	return sb.String()
}

func maskPhone(phone string) string {
	if len(phone) < 7 {
		return "****"
	}

	return phone[:3] + "****" + phone[len(phone)-2:]
}
