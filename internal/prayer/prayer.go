package prayer

import (
	"fmt"
	"strings"
	"time"
)

// Count is the number of daily prayers tracked by the bot.
const Count = 5

// Names lists the five daily prayers in chronological order.
var Names = [Count]string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}

// Canonical resolves a user-supplied prayer name to its canonical form.
// Matching is case-insensitive.
func Canonical(name string) (string, bool) {
	for _, p := range Names {
		if strings.EqualFold(p, name) {
			return p, true
		}
	}
	return "", false
}

// Index returns the position of a canonical prayer name, or -1.
func Index(name string) int {
	for i, p := range Names {
		if p == name {
			return i
		}
	}
	return -1
}

// Entry is a single prayer with its local clock time for "today"
type Entry struct {
	Name string `json:"name"`
	Time string `json:"time"` // HH:MM, local clock time
}

// At combines the entry's clock time with the date of day, in day's location.
func (e Entry) At(day time.Time) (time.Time, error) {
	clock, err := time.Parse("15:04", e.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid prayer time %q: %w", e.Time, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), 0, 0, day.Location()), nil
}

// Timetable is one day's prayer times, exactly one entry per prayer,
// in chronological order.
type Timetable [Count]Entry

// IsZero reports whether the timetable has not been populated.
func (t Timetable) IsZero() bool {
	for _, e := range t {
		if e.Time != "" {
			return false
		}
	}
	return true
}

// Format renders the timetable as a human-readable list.
func (t Timetable) Format() string {
	var b strings.Builder
	for i, e := range t {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", e.Name, e.Time)
	}
	return b.String()
}
