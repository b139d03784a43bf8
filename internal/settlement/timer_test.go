package settlement

import (
	"testing"
	"time"
)

func TestProject(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name      string
		deadline  uint64
		proof     bool
		state     State
		remaining time.Duration
	}{
		{"unset deadline hidden", 0, false, StateHidden, 0},
		{"unset deadline hidden even with proof", 0, true, StateHidden, 0},
		{"window open", 1_700_003_600, false, StateCountdown, time.Hour},
		{"window open with proof still counts down", 1_700_003_600, true, StateCountdown, time.Hour},
		{"lapsed without proof", 1_699_999_999, false, StateWindowClosed, 0},
		{"lapsed with proof awaits review", 1_699_999_999, true, StateAwaitingReview, 0},
		{"exactly at deadline without proof", 1_700_000_000, false, StateWindowClosed, 0},
		{"exactly at deadline with proof", 1_700_000_000, true, StateAwaitingReview, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, remaining := Project(tt.deadline, tt.proof, now)
			if state != tt.state {
				t.Errorf("state = %s, want %s", state, tt.state)
			}
			if remaining != tt.remaining {
				t.Errorf("remaining = %s, want %s", remaining, tt.remaining)
			}
		})
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{26*time.Hour + 3*time.Minute + 12*time.Second, "26h 03m 12s"},
		{time.Hour, "1h 00m 00s"},
		{5*time.Minute + 7*time.Second, "5m 07s"},
		{42 * time.Second, "42s"},
		{0, "0s"},
		{-time.Minute, "0s"},
	}

	for _, tt := range tests {
		if got := FormatRemaining(tt.d); got != tt.want {
			t.Errorf("FormatRemaining(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
