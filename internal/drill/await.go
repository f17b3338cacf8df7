package drill

import (
	"context"
	"strings"
	"time"

	"wordrill/internal/types"
)

// Outcome is how a wait for an event ended.
type Outcome int

const (
	Matched Outcome = iota
	TimedOut
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case TimedOut:
		return "timed out"
	default:
		return "cancelled"
	}
}

// awaitEvent consumes events until one satisfies match or the deadline
// passes. The stop keyword from any participant, or ctx ending, cancels the
// wait. Non-matching events are dropped. Events still queued once the
// deadline has passed never match.
func (c *Controller) awaitEvent(ctx context.Context, events <-chan types.Event, match func(types.Event) bool, deadline time.Time) (types.Event, Outcome) {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return types.Event{}, Cancelled
		}
		if !time.Now().Before(deadline) {
			return types.Event{}, TimedOut
		}
		select {
		case <-ctx.Done():
			return types.Event{}, Cancelled
		case <-timer.C:
			return types.Event{}, TimedOut
		case ev := <-events:
			if c.isStop(ev.Text) {
				return ev, Cancelled
			}
			if match(ev) {
				return ev, Matched
			}
		}
	}
}

func (c *Controller) isStop(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), c.stopKeyword)
}

// pause waits out d while still honouring the stop keyword.
func (c *Controller) pause(ctx context.Context, s *Session, d time.Duration) error {
	never := func(types.Event) bool { return false }
	if _, out := c.awaitEvent(ctx, s.events, never, time.Now().Add(d)); out == Cancelled {
		return errCancelled
	}
	return nil
}
