package application

import (
	"time"

	"github.com/dkozyrev/jambot/internal/modules/status/domain"
)

// UptimeInteractor handles the uptime use case.
type UptimeInteractor struct {
	start time.Time
	now   func() time.Time
}

// NewUptimeInteractor creates an UptimeInteractor anchored at the given
// start time.
func NewUptimeInteractor(start time.Time) *UptimeInteractor {
	return &UptimeInteractor{
		start: start,
		now:   time.Now,
	}
}

// Execute computes the current uptime.
func (u *UptimeInteractor) Execute() *domain.UptimeResult {
	return domain.NewUptimeResult(u.start, u.now())
}
