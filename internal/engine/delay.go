package engine

import (
	"time"

	"muezzin_reminder_bot/internal/prayer"
)

// NextAlert is the outcome of one delay computation
type NextAlert struct {
	// Delay until the alert should fire. May be negative when the lead
	// window has already started; the caller clamps it to zero.
	Delay time.Duration

	// NextIndex is the index of the upcoming prayer.
	NextIndex int

	// Cursor is the index of the prayer considered "current" until the
	// upcoming one fires: NextIndex - 1.
	Cursor int

	// Rollover is set when every prayer has already passed today. Delay
	// then covers the remaining time until local midnight plus a grace
	// period, and no alert is armed for this iteration.
	Rollover bool
}

// ComputeNextAlert scans the timetable for the first prayer strictly later
// than now and returns the delay until its alert should fire, accounting
// for the configured lead time.
func ComputeNextAlert(tt prayer.Timetable, now time.Time, lead, grace time.Duration) (NextAlert, error) {
	for i, entry := range tt {
		at, err := entry.At(now)
		if err != nil {
			return NextAlert{}, err
		}
		if at.After(now) {
			return NextAlert{
				Delay:     at.Sub(now) - lead,
				NextIndex: i,
				Cursor:    i - 1,
			}, nil
		}
	}

	// All of today's prayers have passed. Wait out the rest of the day and
	// refetch fresh data after midnight instead of alerting on stale times.
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)

	return NextAlert{
		Delay:     midnight.Sub(now) + grace,
		NextIndex: 0,
		Cursor:    -1,
		Rollover:  true,
	}, nil
}
