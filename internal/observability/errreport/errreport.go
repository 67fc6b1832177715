// Package errreport forwards unexpected failures to Sentry when a DSN is
// configured. A nil or disabled Reporter is a no-op.
package errreport

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	logx "notion-reminder/pkg/logx"
)

type Config struct {
	DSN         string
	Environment string
	Release     string
}

type Reporter struct {
	hub *sentry.Hub
	log logx.Logger
}

type beforeSendFunc func(*sentry.Event, *sentry.EventHint) *sentry.Event

// New returns a disabled Reporter when cfg.DSN is empty.
func New(cfg Config, log logx.Logger) (*Reporter, error) {
	return newReporter(cfg, log, nil)
}

func newReporter(cfg Config, log logx.Logger, before beforeSendFunc) (*Reporter, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	r := &Reporter{log: log}
	if cfg.DSN == "" {
		log.Debug("error reporting disabled")
		return r, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		AttachStacktrace: true,
		BeforeSend: func(ev *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if ev.Tags == nil {
				ev.Tags = map[string]string{}
			}
			ev.Tags["service"] = "notion-reminder"
			if before != nil {
				return before(ev, hint)
			}
			return ev
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init sentry: %w", err)
	}
	r.hub = sentry.NewHub(client, sentry.NewScope())
	log.Info("error reporting enabled", logx.String("environment", cfg.Environment))
	return r, nil
}

func (r *Reporter) Enabled() bool { return r != nil && r.hub != nil }

// CaptureError reports err with tags attached to the event.
func (r *Reporter) CaptureError(err error, tags map[string]string) {
	if err == nil || !r.Enabled() {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTags(tags)
		r.hub.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic value.
func (r *Reporter) CapturePanic(v any, tags map[string]string) {
	if v == nil || !r.Enabled() {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelFatal)
		scope.SetTags(tags)
		scope.SetContext("panic", sentry.Context{"recovered_value": fmt.Sprint(v)})
		r.hub.CaptureException(fmt.Errorf("panic recovered: %v", v))
	})
}

// Flush waits for queued events, bounded by timeout.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if !r.Enabled() {
		return true
	}
	ok := r.hub.Flush(timeout)
	if !ok {
		r.log.Warn("error reporting flush timed out", logx.Duration("timeout", timeout))
	}
	return ok
}
