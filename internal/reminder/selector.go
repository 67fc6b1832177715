package reminder

import (
	"context"

	"notion-reminder/internal/notion"
	"notion-reminder/internal/observability/metrics"
)

// Database property names.
const (
	PropRecurring     = "Recurring"
	PropDaysRecurring = "Days Recurring"
	PropPast          = "Past"
	PropDays          = "Days"
	PropRemindIn      = "Remind In"
	PropName          = "Name"
)

const (
	Header       = "⏰ *Events:*\n"
	DefaultGlyph = "👉"
)

// Definition is the constant configuration of one selector.
type Definition struct {
	Name      string
	Filter    notion.Filter
	Sorts     []notion.Sort
	DaysField string
	Header    string
	Fallback  string
}

// Recurring selects rows flagged as recurring, ordered by days to the next occurrence.
var Recurring = Definition{
	Name:      "recurring",
	Filter:    notion.CheckboxEquals(PropRecurring, true),
	Sorts:     []notion.Sort{{Property: PropDaysRecurring, Direction: notion.Ascending}},
	DaysField: PropDaysRecurring,
	Header:    Header,
	Fallback:  DefaultGlyph,
}

// Upcoming selects rows not yet in the past, ordered by days until the event.
var Upcoming = Definition{
	Name:      "upcoming",
	Filter:    notion.CheckboxEquals(PropPast, false),
	Sorts:     []notion.Sort{{Property: PropDays, Direction: notion.Ascending}},
	DaysField: PropDays,
	Header:    Header,
	Fallback:  DefaultGlyph,
}

// Definitions lists every selector, in the order they are started.
func Definitions() []Definition { return []Definition{Recurring, Upcoming} }

// Records is the records store query used by selectors.
type Records interface {
	Query(ctx context.Context, databaseID string, filter notion.Filter, sorts []notion.Sort) []notion.Page
}

// Selector is one digest category.
type Selector interface {
	Name() string
	Fetch(ctx context.Context) []notion.Page
	Filter(pages []notion.Page) []notion.Page
	Format(pages []notion.Page) string
}

// EventSelector implements Selector for a Definition.
type EventSelector struct {
	def        Definition
	records    Records
	databaseID string
}

func New(def Definition, records Records, databaseID string) *EventSelector {
	return &EventSelector{def: def, records: records, databaseID: databaseID}
}

func (s *EventSelector) Name() string { return s.def.Name }

func (s *EventSelector) Fetch(ctx context.Context) []notion.Page {
	pages := s.records.Query(ctx, s.databaseID, s.def.Filter, s.def.Sorts)
	metrics.RecordsFetched(s.def.Name, len(pages))
	return pages
}

func (s *EventSelector) Filter(pages []notion.Page) []notion.Page {
	return Filter(pages, s.def.DaysField)
}

func (s *EventSelector) Format(pages []notion.Page) string {
	return Format(pages, s.def.DaysField, s.def.Header, s.def.Fallback)
}
