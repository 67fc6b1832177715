package config

import (
	"fmt"
	"net/url"
	"strings"

	"notion-reminder/internal/task/scheduler"
)

// Validate rejects settings that would fail later at wiring time.
// It runs on load and before every hot-reload commit.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Secrets.Source)) {
	case "", "env", "aws":
	default:
		return fmt.Errorf("secrets.source: unknown source %q (want env or aws)", cfg.Secrets.Source)
	}
	if _, err := ParseDurationField("notion.timeout", cfg.Notion.Timeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("telegram.timeout", cfg.Telegram.Timeout); err != nil {
		return err
	}
	if cfg.Telegram.RatePerSec < 0 {
		return fmt.Errorf("telegram.rate_per_sec must be >= 0")
	}
	for path, raw := range map[string]string{
		"notion.base_url":  cfg.Notion.BaseURL,
		"telegram.api_url": cfg.Telegram.APIURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s: invalid url %q", path, raw)
		}
	}
	if err := scheduler.Validate(scheduler.Config{
		Schedule: cfg.Scheduler.Schedule,
		Timezone: cfg.Scheduler.Timezone,
	}); err != nil {
		return err
	}
	return nil
}
