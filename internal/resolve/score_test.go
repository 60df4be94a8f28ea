package resolve

import (
	"testing"
	"time"
)

func TestRecencyScore(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	day := int64(24 * 60 * 60)

	tests := []struct {
		name   string
		lastAt int64
		want   int
	}{
		{"just now", now.Unix(), 100},
		{"fifteen days ago", now.Unix() - 15*day, 50},
		{"at the window edge", now.Unix() - 30*day, 0},
		{"beyond the window", now.Unix() - 45*day, 0},
		{"upcoming event", now.Unix() + 3*day, 100},
		{"unknown timestamp", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recencyScore(tt.lastAt, now, 30)
			if got != tt.want {
				t.Errorf("recencyScore(%d) = %d, want %d", tt.lastAt, got, tt.want)
			}
		})
	}
}

func TestRecencyScoreRounds(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	// 10.4 days into a 30-day window: 100 - 34.67 rounds to 65
	lastAt := now.Unix() - int64(10.4*24*60*60)
	if got := recencyScore(lastAt, now, 30); got != 65 {
		t.Errorf("score = %d, want 65", got)
	}
}

func TestRecencyScoreZeroWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	if got := recencyScore(now.Unix(), now, 0); got != 0 {
		t.Errorf("score with zero window = %d, want 0", got)
	}
}
