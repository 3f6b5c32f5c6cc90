package config

import "time"

// WebhookConfig holds the delivery settings for the webhook sink.
type WebhookConfig struct {
	URL            string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	RPS            float64
}

// MediaConfig bounds media downloads.
type MediaConfig struct {
	MaxBytes    int64
	Concurrency int
}

// ForwardConfig toggles the optional outputs.
type ForwardConfig struct {
	OtherChats bool
	RawEvents  bool
}

// WebhookCfg returns the webhook configuration extracted from Config.
func (c *Config) WebhookCfg() WebhookConfig {
	return WebhookConfig{
		URL:            c.WebhookURL,
		Timeout:        c.WebhookTimeout,
		MaxAttempts:    c.WebhookMaxAttempts,
		InitialBackoff: c.WebhookInitialBackoff,
		RPS:            c.WebhookRPS,
	}
}

// MediaCfg returns the media download configuration.
func (c *Config) MediaCfg() MediaConfig {
	return MediaConfig{
		MaxBytes:    c.MediaMaxBytes,
		Concurrency: c.MediaDownloadConcurrency,
	}
}

// ForwardCfg returns the forwarding toggles.
func (c *Config) ForwardCfg() ForwardConfig {
	return ForwardConfig{
		OtherChats: c.ForwardOtherChats,
		RawEvents:  c.ForwardRawEvents,
	}
}
