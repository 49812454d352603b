// Package timefmt renders durations the way the status display shows them.
package timefmt

import (
	"fmt"
	"time"
)

// DailyGoal is the display-only daily blocked-time target.
const DailyGoal = 4 * time.Hour

// Clock formats a duration as "1H 05M" once there are whole hours, and
// "05:30" (minutes:seconds) below that.
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%dH %02dM", hours, minutes)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// GoalProgress returns the fraction of the daily goal reached, in [0, 1].
func GoalProgress(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	p := float64(d) / float64(DailyGoal)
	if p > 1 {
		return 1
	}
	return p
}
