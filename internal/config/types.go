package config

// Config is the runtime settings file. Credentials never live here; they come
// from the secrets provider (environment or the managed secret store).
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Secrets   SecretsConfig   `json:"secrets"`
	Notion    NotionConfig    `json:"notion"`
	Telegram  TelegramConfig  `json:"telegram"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Metrics   MetricsConfig   `json:"metrics"`
	Sentry    SentryConfig    `json:"sentry"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SecretsConfig selects where credentials are read from.
//
// Source is "env", "aws" or empty. Empty defers to the ENVIRONMENT variable
// ("lambda" selects aws, anything else env).
type SecretsConfig struct {
	Source   string `json:"source,omitempty"`
	SecretID string `json:"secret_id,omitempty"`
	Region   string `json:"region,omitempty"`
}

type NotionConfig struct {
	BaseURL string `json:"base_url,omitempty"`
	Version string `json:"version,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

type TelegramConfig struct {
	APIURL              string `json:"api_url,omitempty"`
	ParseMode           string `json:"parse_mode,omitempty"`
	Timeout             string `json:"timeout,omitempty"`
	RatePerSec          int    `json:"rate_per_sec,omitempty"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
}

// SchedulerConfig controls daemon mode triggering.
//
// Schedule accepts a cron expression ("0 7 * * *", "@daily") or an interval
// ("24h", "every:12h").
type SchedulerConfig struct {
	Schedule string `json:"schedule,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// MetricsConfig controls the optional Prometheus-format listener.
//
// Prefer binding to localhost (default "127.0.0.1:9108").
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
	Pprof   bool   `json:"pprof,omitempty"`
}

type SentryConfig struct {
	DSN         string `json:"dsn,omitempty"`
	Environment string `json:"environment,omitempty"`
}

const (
	DefaultSecretID        = "lambda/notion-telegram-event-reminder"
	DefaultRegion          = "eu-north-1"
	DefaultNotionBaseURL   = "https://api.notion.com/v1"
	DefaultNotionVersion   = "2022-06-28"
	DefaultTelegramAPIURL  = "https://api.telegram.org"
	DefaultParseMode       = "Markdown"
	DefaultSchedule        = "0 7 * * *"
	DefaultTimezone        = "America/New_York"
	DefaultMetricsAddr     = "127.0.0.1:9108"
	DefaultTimeout         = "10s"
	DefaultTelegramRateSec = 1
)

// Default returns the settings used when no file is given.
func Default() *Config {
	cfg := &Config{
		Logging: LoggingConfig{Level: "info", Console: true},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields in place.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Secrets.SecretID == "" {
		c.Secrets.SecretID = DefaultSecretID
	}
	if c.Notion.BaseURL == "" {
		c.Notion.BaseURL = DefaultNotionBaseURL
	}
	if c.Notion.Version == "" {
		c.Notion.Version = DefaultNotionVersion
	}
	if c.Notion.Timeout == "" {
		c.Notion.Timeout = DefaultTimeout
	}
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = DefaultTelegramAPIURL
	}
	if c.Telegram.ParseMode == "" {
		c.Telegram.ParseMode = DefaultParseMode
	}
	if c.Telegram.Timeout == "" {
		c.Telegram.Timeout = DefaultTimeout
	}
	if c.Telegram.RatePerSec <= 0 {
		c.Telegram.RatePerSec = DefaultTelegramRateSec
	}
	if c.Scheduler.Schedule == "" {
		c.Scheduler.Schedule = DefaultSchedule
	}
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = DefaultTimezone
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
}
