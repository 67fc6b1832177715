package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"notion-reminder/internal/observability/errreport"
	"notion-reminder/internal/observability/metrics"
	"notion-reminder/internal/reminder"
	"notion-reminder/internal/runtime/supervisor"
	logx "notion-reminder/pkg/logx"
)

var ErrNoSelectors = errors.New("no selectors to run")

// Result is the outcome of one selector pipeline.
type Result struct {
	Selector string
	Outcome  reminder.Outcome
	Err      error
}

// Report collects every selector result of one run.
type Report struct {
	RunID    string
	Results  []Result
	Duration time.Duration
}

// Failed reports how many pipelines ended with an error.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Orchestrator runs every selector pipeline concurrently. A failing pipeline
// is logged and recorded in the Report; it never stops its siblings and never
// makes Run fail.
type Orchestrator struct {
	selectors []reminder.Selector
	sender    reminder.Sender
	log       logx.Logger
	report    *errreport.Reporter
}

func NewOrchestrator(selectors []reminder.Selector, sender reminder.Sender, log logx.Logger, report *errreport.Reporter) *Orchestrator {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Orchestrator{selectors: selectors, sender: sender, log: log, report: report}
}

func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	if len(o.selectors) == 0 || o.sender == nil {
		return Report{}, ErrNoSelectors
	}

	started := time.Now()
	metrics.RunStarted()
	defer metrics.RunFinished(started)

	runID := uuid.NewString()
	log := o.log.With(logx.String("run_id", runID))
	log.Info("run started", logx.Int("selectors", len(o.selectors)))

	var (
		mu      sync.Mutex
		results = make(map[string]*Result, len(o.selectors))
	)
	for _, sel := range o.selectors {
		results[sel.Name()] = &Result{Selector: sel.Name()}
	}

	// Panics and errors are already isolated per goroutine; the callback only
	// records them.
	sup := supervisor.NewSupervisor(ctx,
		supervisor.WithLogger(log),
		supervisor.WithOnDone(func(name string, err error) {
			if err == nil {
				return
			}
			mu.Lock()
			results[name].Err = err
			mu.Unlock()
			metrics.SelectorResult(name, metrics.ResultFailed)
			log.Error("selector failed", logx.String("selector", name), logx.Err(err))
			o.report.CaptureError(err, map[string]string{"selector": name, "run_id": runID})
		}),
	)

	for _, sel := range o.selectors {
		sel := sel
		slog := log.With(logx.String("selector", sel.Name()))
		sup.Go(sel.Name(), func(ctx context.Context) error {
			out, err := reminder.Process(ctx, sel, o.sender)
			mu.Lock()
			results[sel.Name()].Outcome = out
			mu.Unlock()
			if err != nil {
				return err
			}
			if !out.Sent {
				metrics.SelectorResult(sel.Name(), metrics.ResultEmpty)
				slog.Info("no events to send", logx.Int("fetched", out.Fetched))
				return nil
			}
			metrics.SelectorResult(sel.Name(), metrics.ResultSent)
			slog.Info("digest sent", logx.Int("fetched", out.Fetched), logx.Int("events", out.Selected))
			return nil
		})
	}

	_ = sup.Wait(context.Background())
	sup.Cancel()

	rep := Report{RunID: runID, Duration: time.Since(started)}
	for _, sel := range o.selectors {
		rep.Results = append(rep.Results, *results[sel.Name()])
	}
	log.Info("run finished",
		logx.Int("failed", rep.Failed()),
		logx.Duration("took", rep.Duration),
	)
	return rep, nil
}
