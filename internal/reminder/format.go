package reminder

import (
	"strconv"
	"strings"

	"notion-reminder/internal/notion"
)

const (
	UnnamedEvent = "Unnamed Event"
	UnknownDays  = "?"
)

// Format renders the digest: header, then one line per page.
func Format(pages []notion.Page, daysField, header, fallback string) string {
	var b strings.Builder
	b.WriteString(header)
	for _, p := range pages {
		b.WriteString("\n")
		b.WriteString(Line(p, daysField, fallback))
	}
	return b.String()
}

// Line renders a single page as "<glyph> *<name>* is in `<days>` days.".
func Line(p notion.Page, daysField, fallback string) string {
	glyph, ok := p.Emoji()
	if !ok {
		glyph = fallback
	}
	name, ok := p.Title(PropName)
	if !ok {
		name = UnnamedEvent
	}
	days := UnknownDays
	if d, ok := p.Number(daysField); ok {
		days = strconv.FormatFloat(d, 'f', -1, 64)
	}
	return glyph + " *" + name + "* is in `" + days + "` days."
}
