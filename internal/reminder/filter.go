package reminder

import (
	"strconv"
	"strings"

	"notion-reminder/internal/notion"
)

// NearTermDays is the inclusive window in which every row is reported.
const NearTermDays = 3

// Filter keeps, in order, the pages that should appear in a digest.
// The input is not modified.
func Filter(pages []notion.Page, daysField string) []notion.Page {
	out := make([]notion.Page, 0, len(pages))
	for _, p := range pages {
		if Include(p, daysField) {
			out = append(out, p)
		}
	}
	return out
}

// Include reports whether a page is due within the near-term window, or its
// days value is listed in its "Remind In" property.
func Include(p notion.Page, daysField string) bool {
	days, ok := p.Number(daysField)
	if !ok {
		return false
	}
	if days <= NearTermDays {
		return true
	}
	text, ok := p.Text(PropRemindIn)
	if !ok {
		return false
	}
	for _, v := range ParseReminderList(text) {
		if v == days {
			return true
		}
	}
	return false
}

// ParseReminderList parses a comma-separated list of day offsets.
// Blank items count as 0; items that are not numbers are skipped.
// Integer literals with a 0x, 0o or 0b prefix are accepted.
func ParseReminderList(s string) []float64 {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			out = append(out, 0)
			continue
		}
		if v, err := strconv.ParseFloat(part, 64); err == nil {
			out = append(out, v)
			continue
		}
		if n, err := strconv.ParseInt(part, 0, 64); err == nil {
			out = append(out, float64(n))
		}
	}
	return out
}
