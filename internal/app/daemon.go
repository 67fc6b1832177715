package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"notion-reminder/internal/config"
	"notion-reminder/internal/observability/metrics"
	"notion-reminder/internal/runtime/supervisor"
	"notion-reminder/internal/task/scheduler"
	logx "notion-reminder/pkg/logx"
)

const stopTimeout = 30 * time.Second

// metricsSlot holds the live metrics server. The reload loop swaps it while
// the stop path may read it.
type metricsSlot struct {
	mu  sync.Mutex
	srv *metrics.Server
}

func (m *metricsSlot) get() *metrics.Server {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.srv
}

func (m *metricsSlot) set(srv *metrics.Server) {
	m.mu.Lock()
	m.srv = srv
	m.mu.Unlock()
}

// RunDaemon keeps the process alive and runs on the configured schedule until
// ctx is done. The settings file is watched; logging, schedule and metrics
// changes apply without a restart.
func (a *App) RunDaemon(ctx context.Context) error {
	// Missing credentials are fatal before the first trigger.
	if _, err := a.creds.Load(ctx); err != nil {
		return err
	}

	cfg := a.cfgm.Get()
	sup := supervisor.NewSupervisor(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	sched := scheduler.New(schedulerConfig(cfg), a.tick, a.log.With(logx.String("comp", "scheduler")))
	if err := sched.Start(sup.Context()); err != nil {
		sup.Cancel()
		return err
	}

	msrv := &metricsSlot{srv: metrics.NewServer(metricsConfig(cfg), a.log.With(logx.String("comp", "metrics")))}
	if err := msrv.get().Start(sup.Context()); err != nil {
		_ = sched.Stop(context.Background())
		sup.Cancel()
		return fmt.Errorf("metrics: %w", err)
	}

	sub := a.cfgm.Subscribe(4)
	sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		last := cfg
		for {
			select {
			case <-c.Done():
				return
			case next, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(c, last, next, sched, msrv)
				last = next
			}
		}
	})
	sup.Go("config.watch", a.cfgm.Watch)

	notify(a.log, daemon.SdNotifyReady)
	a.log.Info("daemon started", logx.String("config", a.cfgm.Path()), logx.Any("next_run", sched.Next()))

	<-sup.Context().Done()

	notify(a.log, daemon.SdNotifyStopping)
	a.log.Info("stopping")
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		a.log.Warn("scheduler stop", logx.Err(err))
	}
	err := sup.Wait(stopCtx)
	if serr := msrv.get().Stop(stopCtx); serr != nil {
		a.log.Warn("metrics stop", logx.Err(serr))
	}
	a.log.Info("stopped")
	return err
}

func (a *App) tick(ctx context.Context) {
	rep, err := a.RunOnce(ctx)
	if err != nil {
		return
	}
	if n := rep.Failed(); n > 0 {
		a.log.Warn("run finished with failures", logx.String("run_id", rep.RunID), logx.Int("failed", n))
	}
}

func (a *App) applyConfig(ctx context.Context, prev, next *config.Config, sched *scheduler.Service, msrv *metricsSlot) {
	a.logs.Apply(logConfig(next))

	if err := sched.Apply(schedulerConfig(next)); err != nil {
		a.log.Warn("invalid scheduler config; keeping previous", logx.Err(err))
	} else if prev.Scheduler != next.Scheduler {
		a.log.Info("schedule updated",
			logx.String("schedule", next.Scheduler.Schedule),
			logx.String("tz", next.Scheduler.Timezone),
			logx.Any("next_run", sched.Next()),
		)
	}

	if prev.Metrics != next.Metrics {
		stopCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := msrv.get().Stop(stopCtx); err != nil {
			a.log.Warn("metrics stop", logx.Err(err))
		}
		cancel()
		srv := metrics.NewServer(metricsConfig(next), a.log.With(logx.String("comp", "metrics")))
		if err := srv.Start(ctx); err != nil {
			a.log.Warn("metrics restart failed", logx.Err(err))
		}
		msrv.set(srv)
	}

	if prev.Secrets != next.Secrets || prev.Sentry != next.Sentry {
		a.log.Warn("secrets/sentry settings changed; restart required for changes to take effect")
	}
}

func notify(log logx.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent {
		log.Debug("sd_notify sent", logx.String("state", state))
	}
}

func schedulerConfig(cfg *config.Config) scheduler.Config {
	return scheduler.Config{Schedule: cfg.Scheduler.Schedule, Timezone: cfg.Scheduler.Timezone}
}

func metricsConfig(cfg *config.Config) metrics.Config {
	return metrics.Config{Enabled: cfg.Metrics.Enabled, Addr: cfg.Metrics.Addr, Pprof: cfg.Metrics.Pprof}
}
