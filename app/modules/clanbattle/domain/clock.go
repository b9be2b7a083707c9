package clanbattledomain

import (
	"fmt"
	"time"
)

// Clock derives cycle keys and day indexes in the event's civil timezone.
type Clock struct {
	now          func() time.Time
	loc          *time.Location
	boundaryHour int
}

// NewClock returns a Clock for a fixed UTC offset. A nil now uses time.Now.
func NewClock(utcOffsetHours, boundaryHour int, now func() time.Time) Clock {
	if now == nil {
		now = time.Now
	}
	return Clock{
		now:          now,
		loc:          time.FixedZone(fmt.Sprintf("UTC%+d", utcOffsetHours), utcOffsetHours*3600),
		boundaryHour: boundaryHour,
	}
}

// DefaultClock is JST with the 05:00 day boundary.
func DefaultClock() Clock {
	return NewClock(9, 5, nil)
}

// Now returns the current instant in the event timezone.
func (c Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// IsZero reports whether the Clock was never constructed.
func (c Clock) IsZero() bool { return c.now == nil }

// CurrentCycleKey returns the year+month of the current local time, e.g. "202411".
func (c Clock) CurrentCycleKey() string {
	return c.CycleKeyAt(c.now())
}

// CurrentDayIndex returns the YYYYMMDD of the current battle day.
func (c Clock) CurrentDayIndex() int {
	return c.DayIndexAt(c.now())
}

func (c Clock) CycleKeyAt(t time.Time) string {
	return t.In(c.loc).Format("200601")
}

// DayIndexAt treats any instant before the boundary hour as part of the
// previous calendar day.
func (c Clock) DayIndexAt(t time.Time) int {
	shifted := t.In(c.loc).Add(-time.Duration(c.boundaryHour) * time.Hour)
	y, m, d := shifted.Date()
	return y*10000 + int(m)*100 + d
}

// NextDayBoundary returns the first boundary instant strictly after t.
func (c Clock) NextDayBoundary(t time.Time) time.Time {
	local := t.In(c.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), c.boundaryHour, 0, 0, 0, c.loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// FormatDayIndex renders 20241105 as "2024/11/05".
func FormatDayIndex(day int) string {
	return fmt.Sprintf("%04d/%02d/%02d", day/10000, day/100%100, day%100)
}
