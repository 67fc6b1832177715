// Package reminder turns Notion reminder rows into Telegram digests.
//
// Two selectors exist, Recurring and Upcoming. Each is a fixed Definition
// (query filter, sort, days property, header, fallback glyph) run through the
// same fetch → filter → format pipeline.
package reminder
