package resolve

import (
	"math"
	"time"
)

// recencyScore maps a last-interaction timestamp to a 0-100 freshness
// score: 100 for an interaction happening now, decaying linearly to 0 at
// windowDays. Future interactions (upcoming calendar events) and a
// missing timestamp clamp to 100 and 0 respectively.
func recencyScore(lastInteractionAt int64, now time.Time, windowDays int) int {
	if lastInteractionAt <= 0 || windowDays <= 0 {
		return 0
	}

	days := now.Sub(time.Unix(lastInteractionAt, 0)).Hours() / 24
	if days < 0 {
		days = 0
	}

	score := math.Round(100 - days/float64(windowDays)*100)
	if score < 0 {
		return 0
	}
	return int(score)
}
