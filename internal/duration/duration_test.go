package duration_test

import (
	"testing"
	"time"

	"github.com/jensholdgaard/discord-auction-bot/internal/duration"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"1d 2h 30m", 26*time.Hour + 30*time.Minute},
		{"5m", 5 * time.Minute},
		{"90s", 90 * time.Second},
		{"1 hour", time.Hour},
		{"2 hours", 2 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
		{"2 weeks 3 days", 17 * 24 * time.Hour},
		{"30M", 30 * time.Minute},
		{"1HR", time.Hour},
		{"10 mins", 10 * time.Minute},
		{"3 sec", 3 * time.Second},
		// Order and repetition are unconstrained.
		{"30m 1d", 24*time.Hour + 30*time.Minute},
		{"1h 1h", 2 * time.Hour},
	}
	for _, tt := range tests {
		if got := duration.Parse(tt.in); got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParse_Unmatched(t *testing.T) {
	for _, in := range []string{"", "soon", "h", "five minutes", "1 fortnight"} {
		if got := duration.Parse(in); got != 0 {
			t.Errorf("Parse(%q) = %v, want 0", in, got)
		}
	}
}

func TestParse_IgnoresUnknownTokens(t *testing.T) {
	if got := duration.Parse("1h and a bit, say 10m"); got != time.Hour+10*time.Minute {
		t.Errorf("Parse() = %v, want 1h10m", got)
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "less than a minute"},
		{5 * time.Minute, "5 minutes"},
		{2*time.Hour + 30*time.Minute, "2 hours 30 minutes"},
		{26 * time.Hour, "1 days 2 hours"},
		{8 * 24 * time.Hour, "1 weeks 1 days"},
		{-time.Minute, "less than a minute"},
	}
	for _, tt := range tests {
		if got := duration.FormatRemaining(tt.in); got != tt.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
