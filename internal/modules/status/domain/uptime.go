package domain

import (
	"fmt"
	"strings"
	"time"
)

// UptimeResult represents how long the bot has been running.
type UptimeResult struct {
	Uptime time.Duration
}

// NewUptimeResult creates an UptimeResult for the given start time.
func NewUptimeResult(start, now time.Time) *UptimeResult {
	uptime := now.Sub(start)
	if uptime < 0 {
		uptime = 0
	}
	return &UptimeResult{Uptime: uptime}
}

// Format renders the uptime as a compact human-readable string,
// e.g. "3d 4h 12m 5s". Leading zero units are omitted.
func (r *UptimeResult) Format() string {
	total := int64(r.Uptime / time.Second)

	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var sb strings.Builder
	if days > 0 {
		fmt.Fprintf(&sb, "%dd ", days)
	}
	if hours > 0 || days > 0 {
		fmt.Fprintf(&sb, "%dh ", hours)
	}
	if minutes > 0 || hours > 0 || days > 0 {
		fmt.Fprintf(&sb, "%dm ", minutes)
	}
	fmt.Fprintf(&sb, "%ds", seconds)

	return sb.String()
}
