// Package metrics records run and delivery counters in Prometheus text format.
package metrics

import (
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Selector pipeline outcomes.
const (
	ResultSent   = "sent"
	ResultEmpty  = "empty"
	ResultFailed = "failed"
)

const runsTotal = `reminder_runs_total`

func RunStarted() { metrics.GetOrCreateCounter(runsTotal).Inc() }

func RunFinished(started time.Time) {
	metrics.GetOrCreateSummary(`reminder_run_duration_seconds`).UpdateDuration(started)
}

func SelectorResult(selector, result string) {
	metrics.GetOrCreateCounter(`reminder_selector_runs_total{selector="` + selector + `",result="` + result + `"}`).Inc()
}

func RecordsFetched(selector string, n int) {
	metrics.GetOrCreateCounter(`reminder_records_fetched_total{selector="` + selector + `"}`).Add(n)
}

func FetchFailed() { metrics.GetOrCreateCounter(`reminder_fetch_failures_total`).Inc() }

func MessageSent(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	metrics.GetOrCreateCounter(`reminder_messages_sent_total{result="` + result + `"}`).Inc()
}

// Count returns the current value of a counter.
func Count(name string) uint64 { return metrics.GetOrCreateCounter(name).Get() }
