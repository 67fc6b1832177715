package errreport

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "notion-reminder/pkg/logx"
)

func TestDisabledWithoutDSN(t *testing.T) {
	r, err := New(Config{}, logx.Nop())
	require.NoError(t, err)
	assert.False(t, r.Enabled())

	r.CaptureError(errors.New("boom"), nil)
	r.CapturePanic("boom", nil)
	assert.True(t, r.Flush(time.Millisecond))
}

func TestNilReporterIsNoop(t *testing.T) {
	var r *Reporter
	assert.False(t, r.Enabled())
	r.CaptureError(errors.New("boom"), nil)
	assert.True(t, r.Flush(time.Millisecond))
}

func TestCaptureErrorTagsEvent(t *testing.T) {
	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	r, err := newReporter(Config{DSN: "https://public@example.invalid/1", Environment: "test"}, logx.Nop(),
		func(ev *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
			return nil
		})
	require.NoError(t, err)
	require.True(t, r.Enabled())

	r.CaptureError(errors.New("query failed"), map[string]string{"selector": "upcoming"})
	r.CapturePanic("kaboom", map[string]string{"selector": "recurring"})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, "upcoming", events[0].Tags["selector"])
	assert.Equal(t, "notion-reminder", events[0].Tags["service"])
	assert.Equal(t, "test", events[0].Environment)
	assert.Equal(t, sentry.LevelFatal, events[1].Level)
	assert.Equal(t, "recurring", events[1].Tags["selector"])
}

func TestInvalidDSN(t *testing.T) {
	_, err := New(Config{DSN: "not a dsn"}, logx.Nop())
	assert.Error(t, err)
}
