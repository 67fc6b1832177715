package reminder

import "context"

// Sender delivers one digest.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Outcome summarises one pipeline run.
type Outcome struct {
	Fetched  int
	Selected int
	Sent     bool
}

// Process runs fetch → filter → format → send for one selector. Nothing is
// sent when no page qualifies.
func Process(ctx context.Context, sel Selector, sender Sender) (Outcome, error) {
	pages := sel.Fetch(ctx)
	selected := sel.Filter(pages)
	out := Outcome{Fetched: len(pages), Selected: len(selected)}
	if len(selected) == 0 {
		return out, nil
	}
	if err := sender.Send(ctx, sel.Format(selected)); err != nil {
		return out, err
	}
	out.Sent = true
	return out, nil
}
