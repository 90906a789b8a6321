// Package tzclock computes "now", civil dates and day boundaries for one
// configured timezone. All boundary arithmetic in the service goes through it.
//
// Instants returned by Now and NextBoundary are in the zone's wall frame: a
// UTC-tagged time whose fields read as the zone's wall clock. Subtracting two
// wall-frame instants yields the wall-clock distance between them.
package tzclock

import (
	"time"
	_ "time/tzdata"

	"daily-leaderboard/internal/domain"

	"github.com/jonboulle/clockwork"
)

type Clock struct {
	clock  clockwork.Clock
	loc    *time.Location
	window domain.Window
}

func New(clock clockwork.Clock, loc *time.Location, window domain.Window) *Clock {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{clock: clock, loc: loc, window: window}
}

func (c *Clock) Location() *time.Location { return c.loc }

func (c *Clock) Window() domain.Window { return c.window }

// Offset is the zone's distance from UTC at t. It is derived by reading t's
// civil fields in UTC and in the zone and subtracting the two readouts, so it
// is recomputed on every call and follows DST changes.
func (c *Clock) Offset(t time.Time) time.Duration {
	return fieldsAsUTC(t.In(c.loc)).Sub(fieldsAsUTC(t.UTC()))
}

func fieldsAsUTC(t time.Time) time.Time {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), time.UTC)
}

// Now returns the current wall-frame instant.
func (c *Clock) Now() time.Time {
	now := c.clock.Now()
	return now.UTC().Add(c.Offset(now))
}

// CivilDate renders the zone's calendar day for a physical instant.
func (c *Clock) CivilDate(t time.Time) domain.CalendarDate {
	return domain.DateOf(t.UTC().Add(c.Offset(t)))
}

func (c *Clock) Today() domain.CalendarDate {
	return c.CivilDate(c.clock.Now())
}

func (c *Clock) Yesterday() domain.CalendarDate {
	return c.Today().AddDays(-1)
}

// NextBoundary returns the next wall-frame midnight inside the window. Before
// the window opens it is the start day's midnight; once today is past the
// window end it reports false.
func (c *Clock) NextBoundary() (time.Time, bool) {
	target, _, ok := c.boundaryAt(c.Now())
	return target, ok
}

// Remaining is the wall-clock time left until NextBoundary, taken from a
// single clock reading. Inside the window it stays below 24h, so a reading
// exactly on midnight shows 23:59:59 rather than a full day.
func (c *Clock) Remaining() (time.Duration, bool) {
	now := c.Now()
	target, inWindow, ok := c.boundaryAt(now)
	if !ok {
		return 0, false
	}
	d := target.Sub(now)
	if inWindow && d >= 24*time.Hour {
		d = 24*time.Hour - time.Second
	}
	return d, true
}

func (c *Clock) boundaryAt(now time.Time) (target time.Time, inWindow, ok bool) {
	today := domain.DateOf(now)
	switch {
	case today.Before(c.window.Start):
		return c.window.Start.Midnight(), false, true
	case today.After(c.window.End):
		return time.Time{}, false, false
	default:
		return today.AddDays(1).Midnight(), true, true
	}
}
