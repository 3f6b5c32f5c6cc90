package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	coreerrors "github.com/lueurxax/telegram-webhook-forwarder/internal/core/errors"
)

// Telegram holds the MTProto credentials and session location.
type Telegram struct {
	APIID       int    `env:"TG_API_ID,required"`
	APIHash     string `env:"TG_API_HASH,required"`
	Phone       string `env:"TG_PHONE"`
	Password    string `env:"TG_2FA_PASSWORD"`
	SessionPath string `env:"TG_SESSION_PATH" envDefault:"./telegram_session/tg.session"`
}

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Telegram Telegram

	GroupID int64 `env:"GROUP_ID,required"`

	// Webhook sink
	WebhookURL            string        `env:"WEBHOOK_URL,required"`
	WebhookTimeout        time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s"`
	WebhookMaxAttempts    int           `env:"WEBHOOK_MAX_ATTEMPTS" envDefault:"3"`
	WebhookInitialBackoff time.Duration `env:"WEBHOOK_INITIAL_BACKOFF" envDefault:"1s"`
	WebhookRPS            float64       `env:"WEBHOOK_RPS" envDefault:"0"`

	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"60s"`

	ForwardOtherChats bool `env:"FORWARD_OTHER_CHATS" envDefault:"false"`

	// Raw events are only forwarded for chat-scoped updates of the target group.
	ForwardRawEvents bool `env:"FORWARD_RAW_EVENTS" envDefault:"true"`

	MediaMaxBytes            int64 `env:"MEDIA_MAX_BYTES" envDefault:"20971520"`
	MediaDownloadConcurrency int   `env:"MEDIA_DOWNLOAD_CONCURRENCY" envDefault:"5"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

// legacyAliases maps variable names of the original deployment to the current ones.
var legacyAliases = map[string]string{
	"API_ID":       "TG_API_ID",
	"API_HASH":     "TG_API_HASH",
	"PHONE_NUMBER": "TG_PHONE",
}

// Load reads the full forwarder configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadTelegram reads only the Telegram credentials.
func LoadTelegram() (*Telegram, error) {
	cfg := &Telegram{}
	if err := parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parse(v any) error {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	if err := env.ParseWithOptions(v, env.Options{Environment: environment()}); err != nil {
		return fmt.Errorf("%w: parsing environment config: %w", coreerrors.ErrMissingConfig, err)
	}

	return nil
}

func environment() map[string]string {
	vars := env.ToMap(os.Environ())

	for legacy, current := range legacyAliases {
		if _, ok := vars[current]; ok {
			continue
		}

		if value, ok := vars[legacy]; ok {
			vars[current] = value
		}
	}

	return vars
}

func (c *Config) validate() error {
	if c.Telegram.Phone == "" {
		return fmt.Errorf("%w: TG_PHONE", coreerrors.ErrMissingConfig)
	}

	u, err := url.Parse(c.WebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: WEBHOOK_URL %q is not an http(s) URL", coreerrors.ErrInvalidConfig, c.WebhookURL)
	}

	if c.WebhookMaxAttempts < 1 {
		return fmt.Errorf("%w: WEBHOOK_MAX_ATTEMPTS must be at least 1", coreerrors.ErrInvalidConfig)
	}

	if c.WebhookTimeout <= 0 {
		return fmt.Errorf("%w: WEBHOOK_TIMEOUT must be positive", coreerrors.ErrInvalidConfig)
	}

	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("%w: HEARTBEAT_INTERVAL must be positive", coreerrors.ErrInvalidConfig)
	}

	if c.MediaDownloadConcurrency < 1 {
		c.MediaDownloadConcurrency = 1
	}

	return nil
}
