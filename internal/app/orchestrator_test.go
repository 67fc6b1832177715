package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notion-reminder/internal/notion"
	"notion-reminder/internal/reminder"
	logx "notion-reminder/pkg/logx"
)

// fakeRecords answers by the filtered property so each selector sees its own rows.
type fakeRecords struct {
	byProperty map[string][]notion.Page
	panicOn    string
}

func (f *fakeRecords) Query(_ context.Context, _ string, filter notion.Filter, _ []notion.Sort) []notion.Page {
	if filter.Property == f.panicOn {
		panic("records exploded")
	}
	return f.byProperty[filter.Property]
}

type fakeSender struct {
	mu    sync.Mutex
	texts []string
	fail  func(text string) error
}

func (f *fakeSender) Send(_ context.Context, text string) error {
	if f.fail != nil {
		if err := f.fail(text); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	return nil
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func event(daysField string, days float64, name string) notion.Page {
	return notion.Page{Properties: map[string]notion.Property{
		daysField:        {Type: "formula", Formula: &notion.Formula{Type: "number", Number: &days}},
		reminder.PropName: {Type: "title", Title: []notion.RichText{{PlainText: name}}},
	}}
}

func selectors(records reminder.Records) []reminder.Selector {
	var out []reminder.Selector
	for _, def := range reminder.Definitions() {
		out = append(out, reminder.New(def, records, "db"))
	}
	return out
}

func resultFor(t *testing.T, rep Report, name string) Result {
	t.Helper()
	for _, r := range rep.Results {
		if r.Selector == name {
			return r
		}
	}
	t.Fatalf("no result for %s", name)
	return Result{}
}

func TestRunSendsOneDigestPerSelector(t *testing.T) {
	records := &fakeRecords{byProperty: map[string][]notion.Page{
		reminder.PropRecurring: {event(reminder.PropDaysRecurring, 1, "Rent")},
		reminder.PropPast:      {event(reminder.PropDays, 2, "Dentist"), event(reminder.PropDays, 9, "Trip")},
	}}
	sender := &fakeSender{}

	rep, err := NewOrchestrator(selectors(records), sender, logx.Nop(), nil).Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, rep.RunID)
	assert.Zero(t, rep.Failed())

	texts := sender.sent()
	require.Len(t, texts, 2)
	joined := strings.Join(texts, "\n")
	assert.Contains(t, joined, "*Rent* is in `1` days.")
	assert.Contains(t, joined, "*Dentist* is in `2` days.")
	assert.NotContains(t, joined, "Trip")

	up := resultFor(t, rep, "upcoming")
	assert.Equal(t, 2, up.Outcome.Fetched)
	assert.Equal(t, 1, up.Outcome.Selected)
	assert.True(t, up.Outcome.Sent)
}

func TestRunEmptySelectorLogsNoEvents(t *testing.T) {
	records := &fakeRecords{byProperty: map[string][]notion.Page{
		reminder.PropPast: {event(reminder.PropDays, 0, "Today")},
	}}
	sender := &fakeSender{}
	buf := &syncBuffer{}

	rep, err := NewOrchestrator(selectors(records), sender, logx.NewWriter(buf, "debug"), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, sender.sent(), 1)
	assert.False(t, resultFor(t, rep, "recurring").Outcome.Sent)
	assert.True(t, resultFor(t, rep, "upcoming").Outcome.Sent)

	out := buf.String()
	assert.Contains(t, out, "no events to send")
	assert.Contains(t, out, `"selector":"recurring"`)
	assert.Contains(t, out, "digest sent")
	assert.Contains(t, out, `"run_id":"`+rep.RunID+`"`)
}

func TestRunDeliveryErrorDoesNotAffectSibling(t *testing.T) {
	records := &fakeRecords{byProperty: map[string][]notion.Page{
		reminder.PropRecurring: {event(reminder.PropDaysRecurring, 1, "Rent")},
		reminder.PropPast:      {event(reminder.PropDays, 2, "Dentist")},
	}}
	boom := errors.New("chat not found")
	sender := &fakeSender{fail: func(text string) error {
		if strings.Contains(text, "Rent") {
			return boom
		}
		return nil
	}}

	rep, err := NewOrchestrator(selectors(records), sender, logx.Nop(), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failed())

	rec := resultFor(t, rep, "recurring")
	assert.ErrorIs(t, rec.Err, boom)
	assert.False(t, rec.Outcome.Sent)

	texts := sender.sent()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Dentist")
}

func TestRunRecoversSelectorPanic(t *testing.T) {
	records := &fakeRecords{
		panicOn: reminder.PropRecurring,
		byProperty: map[string][]notion.Page{
			reminder.PropPast: {event(reminder.PropDays, 3, "Boundary")},
		},
	}
	sender := &fakeSender{}

	rep, err := NewOrchestrator(selectors(records), sender, logx.Nop(), nil).Run(context.Background())
	require.NoError(t, err)

	rec := resultFor(t, rep, "recurring")
	require.Error(t, rec.Err)
	assert.Contains(t, rec.Err.Error(), "records exploded")

	texts := sender.sent()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "*Boundary* is in `3` days.")
}

func TestRunNothingQualifiesSendsNothing(t *testing.T) {
	sender := &fakeSender{}
	rep, err := NewOrchestrator(selectors(&fakeRecords{}), sender, logx.Nop(), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sender.sent())
	assert.Len(t, rep.Results, 2)
	assert.Zero(t, rep.Failed())
}

func TestRunWithoutSelectors(t *testing.T) {
	_, err := NewOrchestrator(nil, &fakeSender{}, logx.Nop(), nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoSelectors)
}
