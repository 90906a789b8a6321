package domain

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// CalendarDate is a civil day in YYYY-MM-DD form. The layout is fixed width so
// plain string comparison orders dates chronologically.
type CalendarDate string

func ParseCalendarDate(s string) (CalendarDate, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil || t.Format(DateLayout) != s {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return CalendarDate(s), nil
}

func DateOf(t time.Time) CalendarDate {
	return CalendarDate(t.Format(DateLayout))
}

func (d CalendarDate) String() string { return string(d) }

func (d CalendarDate) Valid() bool {
	_, err := ParseCalendarDate(string(d))
	return err == nil
}

func (d CalendarDate) Compare(other CalendarDate) int {
	return strings.Compare(string(d), string(other))
}

func (d CalendarDate) Before(other CalendarDate) bool { return d.Compare(other) < 0 }

func (d CalendarDate) After(other CalendarDate) bool { return d.Compare(other) > 0 }

// Midnight returns 00:00 of d as a UTC instant. Callers working in a zone's
// wall frame compare it against wall-frame instants only.
func (d CalendarDate) Midnight() time.Time {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays shifts d by n calendar days. Invalid dates are returned unchanged.
func (d CalendarDate) AddDays(n int) CalendarDate {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return d
	}
	return DateOf(t.AddDate(0, 0, n))
}

// Window is an inclusive range of calendar dates.
type Window struct {
	Start CalendarDate `json:"start"`
	End   CalendarDate `json:"end"`
}

func (w Window) Validate() error {
	if !w.Start.Valid() {
		return fmt.Errorf("invalid window start: %w", ErrInvalidDate)
	}
	if !w.End.Valid() {
		return fmt.Errorf("invalid window end: %w", ErrInvalidDate)
	}
	if w.End.Before(w.Start) {
		return fmt.Errorf("window end %s precedes start %s", w.End, w.Start)
	}
	return nil
}

func (w Window) Clamp(d CalendarDate) CalendarDate {
	if d.Before(w.Start) {
		return w.Start
	}
	if d.After(w.End) {
		return w.End
	}
	return d
}

func (w Window) Contains(d CalendarDate) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// MonthWindow spans the first to the last day of a "YYYY-MM" period key.
func MonthWindow(periodKey string) (Window, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(periodKey))
	if err != nil {
		return Window{}, fmt.Errorf("invalid period key %q: %w", periodKey, err)
	}
	return Window{
		Start: DateOf(t),
		End:   DateOf(t.AddDate(0, 1, -1)),
	}, nil
}
