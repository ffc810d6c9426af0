package util

import (
	"fmt"
	"time"
)

// DefaultActivityWindow is how recent a heartbeat must be to count as active.
const DefaultActivityWindow = 30 * time.Second

// FormatTimeAgo renders the time elapsed between t and now in a single unit:
// seconds below a minute, minutes below an hour, hours below a day, else days.
// Values are floored; a t in the future renders as "0s ago" and a zero t,
// such as a missing timestamp, as "never".
func FormatTimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}

	seconds := int64(now.Sub(t) / time.Second)
	if seconds < 0 {
		seconds = 0
	}

	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds ago", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	default:
		return fmt.Sprintf("%dd ago", seconds/86400)
	}
}

// IsRecentlyActive returns true if the heartbeat is at most maxAge old.
func IsRecentlyActive(heartbeat, now time.Time, maxAge time.Duration) bool {
	return now.Sub(heartbeat) <= maxAge
}

// ShortID truncates an id to its first 8 characters for display.
func ShortID(id string) string {
	runes := []rune(id)
	if len(runes) <= 8 {
		return id
	}
	return string(runes[:8]) + "..."
}
