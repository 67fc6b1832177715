package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "notion-reminder/pkg/logx"
)

type Config struct {
	Schedule string
	Timezone string
}

// Job is the work triggered on every tick.
type Job func(ctx context.Context)

// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks a config without applying it.
func Validate(cfg Config) error {
	_, _, err := compile(cfg)
	return err
}

func compile(cfg Config) (cron.Schedule, *time.Location, error) {
	loc := time.Local
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, nil, fmt.Errorf("scheduler.timezone: invalid %q: %w", tz, err)
		}
		loc = l
	}
	spec, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return nil, nil, fmt.Errorf("scheduler.schedule: %w", err)
	}
	if spec.Kind == SpecInterval {
		return cron.Every(spec.Every), loc, nil
	}
	sched, err := parser.Parse(spec.Cron)
	if err != nil {
		return nil, nil, fmt.Errorf("scheduler.schedule: invalid cron %q: %w", spec.Cron, err)
	}
	return sched, loc, nil
}

type Service struct {
	mu  sync.Mutex
	cfg Config
	log logx.Logger
	job Job

	// runDone is non-nil while a job runs. It spans cron instances so a
	// schedule swap never overlaps runs.
	runDone chan struct{}
	stopped bool

	c      *cron.Cron
	entry  cron.EntryID
	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg Config, job Job, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, log: log, job: job}
}

// Start begins triggering. Jobs receive a context derived from ctx.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.stopped = false
	return s.startLocked()
}

func (s *Service) startLocked() error {
	sched, loc, err := compile(s.cfg)
	if err != nil {
		return err
	}
	c := cron.New(cron.WithParser(parser), cron.WithLocation(loc))
	ctx := s.ctx
	s.entry = c.Schedule(sched, cron.FuncJob(func() { s.fire(ctx) }))
	c.Start()
	s.c = c
	s.log.Info("scheduler started",
		logx.String("schedule", s.cfg.Schedule),
		logx.String("tz", loc.String()),
		logx.Any("next", c.Entry(s.entry).Next),
	)
	return nil
}

func (s *Service) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if s.runDone != nil {
		s.mu.Unlock()
		s.log.Warn("previous run still in progress; skipping trigger")
		return
	}
	done := make(chan struct{})
	s.runDone = done
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.runDone = nil
		s.mu.Unlock()
		close(done)
	}()
	s.job(ctx)
}

// Apply swaps the schedule. An invalid config is rejected and the running
// schedule is kept. A job in flight keeps running and blocks new triggers
// until it returns.
func (s *Service) Apply(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := Validate(cfg); err != nil {
		return err
	}
	if cfg == s.cfg {
		return nil
	}
	s.cfg = cfg
	if s.c == nil {
		return nil
	}
	s.stopLocked()
	return s.startLocked()
}

// Next reports the next trigger time, or zero when not running.
func (s *Service) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return time.Time{}
	}
	return s.c.Entry(s.entry).Next
}

func (s *Service) stopLocked() {
	if s.c == nil {
		return
	}
	s.c.Stop()
	s.c = nil
}

// Stop stops triggering and waits for a running job, bounded by ctx.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopLocked()
	s.stopped = true
	cancel, done := s.cancel, s.runDone
	s.mu.Unlock()

	if cancel != nil {
		defer cancel()
	}
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
