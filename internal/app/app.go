package app

import (
	"context"
	"fmt"
	"time"

	"notion-reminder/internal/config"
	"notion-reminder/internal/notion"
	"notion-reminder/internal/observability/errreport"
	"notion-reminder/internal/reminder"
	"notion-reminder/internal/secrets"
	"notion-reminder/internal/telegram"
	logx "notion-reminder/pkg/logx"
)

const flushTimeout = 2 * time.Second

type Options struct {
	// ConfigPath is the optional settings file (JSON or YAML).
	ConfigPath string
	// DotEnv files are loaded before reading credentials from the environment.
	DotEnv []string
	// Release tags error reports.
	Release string
	// Credentials overrides the secrets source selected by the settings.
	Credentials secrets.Source
}

// App owns the process-wide collaborators: settings, logging, the cached
// credentials and error reporting. Clients are built per run from the
// current settings.
type App struct {
	cfgm   *config.Manager
	logs   *logx.Service
	log    logx.Logger
	creds  secrets.Source
	report *errreport.Reporter
}

func New(ctx context.Context, opt Options) (*App, error) {
	cfgm := config.NewManager(opt.ConfigPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logs, log := logx.New(logConfig(cfg))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	log = log.With(logx.String("comp", "app"))

	report, err := errreport.New(errreport.Config{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		Release:     opt.Release,
	}, log.With(logx.String("comp", "errreport")))
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	creds := opt.Credentials
	if creds == nil {
		mode := secrets.ResolveMode(cfg.Secrets.Source)
		src, err := secrets.NewSource(ctx, secrets.Options{
			Mode:     mode,
			SecretID: cfg.Secrets.SecretID,
			Region:   secrets.ResolveRegion(cfg.Secrets.Region, config.DefaultRegion),
			DotEnv:   opt.DotEnv,
		})
		if err != nil {
			_ = logs.Close()
			return nil, err
		}
		creds = src
		log.Debug("credentials source selected", logx.String("source", src.Name()))
	}

	return &App{cfgm: cfgm, logs: logs, log: log, creds: creds, report: report}, nil
}

func (a *App) Logger() logx.Logger { return a.log }

func (a *App) Reporter() *errreport.Reporter { return a.report }

// RunOnce performs one full run with the current settings. It fails only
// when the run cannot start (missing credentials, bad settings); selector
// failures are logged and reported in the returned Report.
func (a *App) RunOnce(ctx context.Context) (Report, error) {
	o, err := a.orchestrator(ctx, a.cfgm.Get())
	if err != nil {
		a.log.Error("run aborted", logx.Err(err))
		a.report.CaptureError(err, map[string]string{"stage": "startup"})
		return Report{}, err
	}
	return o.Run(ctx)
}

func (a *App) orchestrator(ctx context.Context, cfg *config.Config) (*Orchestrator, error) {
	creds, err := a.creds.Load(ctx)
	if err != nil {
		return nil, err
	}

	notionTimeout, err := config.ParseDurationOrDefault("notion.timeout", cfg.Notion.Timeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	tgTimeout, err := config.ParseDurationOrDefault("telegram.timeout", cfg.Telegram.Timeout, 10*time.Second)
	if err != nil {
		return nil, err
	}

	records := notion.New(notion.Config{
		Token:   creds.NotionToken,
		BaseURL: cfg.Notion.BaseURL,
		Version: cfg.Notion.Version,
		Timeout: notionTimeout,
	}, a.log.With(logx.String("comp", "notion")))

	var extra map[string]any
	if cfg.Telegram.DisableNotification {
		extra = map[string]any{"disable_notification": true}
	}
	sender, err := telegram.New(telegram.Config{
		Token:      creds.BotToken,
		ChatID:     creds.ChatID,
		APIURL:     cfg.Telegram.APIURL,
		ParseMode:  cfg.Telegram.ParseMode,
		Timeout:    tgTimeout,
		RatePerSec: cfg.Telegram.RatePerSec,
		Extra:      extra,
	}, a.log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	defs := reminder.Definitions()
	selectors := make([]reminder.Selector, 0, len(defs))
	for _, def := range defs {
		selectors = append(selectors, reminder.New(def, records, creds.DatabaseID))
	}
	return NewOrchestrator(selectors, sender, a.log.With(logx.String("comp", "reminder")), a.report), nil
}

// Close flushes error reports and closes log sinks.
func (a *App) Close() error {
	a.report.Flush(flushTimeout)
	return a.logs.Close()
}

func logConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}
