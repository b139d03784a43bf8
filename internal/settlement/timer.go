// Package settlement projects an order's settlement deadline into a display
// state. It is a pure function of its inputs and holds no authority over the
// deadline itself — the escrow contract owns that.
package settlement

import (
	"fmt"
	"time"
)

type State int

const (
	// StateHidden: deadline not set, nothing to display.
	StateHidden State = iota
	// StateCountdown: window open, remaining time is meaningful.
	StateCountdown
	// StateAwaitingReview: window lapsed but a proof was submitted. A late
	// proof may still be accepted by a reviewer, so this is NOT the same as
	// the window simply closing.
	StateAwaitingReview
	// StateWindowClosed: window lapsed with no proof.
	StateWindowClosed
)

func (s State) String() string {
	switch s {
	case StateHidden:
		return "hidden"
	case StateCountdown:
		return "countdown"
	case StateAwaitingReview:
		return "awaiting_review"
	case StateWindowClosed:
		return "window_closed"
	default:
		return "unknown"
	}
}

// Project computes the settlement window state at the given instant.
// deadline is epoch seconds, 0 = window not activated. The remaining
// duration is only meaningful for StateCountdown.
func Project(deadline uint64, proofSubmitted bool, now time.Time) (State, time.Duration) {
	if deadline == 0 {
		return StateHidden, 0
	}

	remaining := time.Unix(int64(deadline), 0).Sub(now)
	if remaining > 0 {
		return StateCountdown, remaining
	}
	if proofSubmitted {
		return StateAwaitingReview, 0
	}
	return StateWindowClosed, 0
}

// FormatRemaining renders a countdown like "26h 03m 12s".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
