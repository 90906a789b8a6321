package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDate = errors.New("invalid calendar date")
	ErrEmptyQuery  = errors.New("empty search query")
)

// LoadError reports a transport or decode failure for a month document.
type LoadError struct {
	MonthKey string
	Source   string
	Status   int // 0 when no response was received
	Err      error
}

func (e *LoadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("unable to load %s: status %d", e.Source, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("unable to load %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("unable to load %s", e.Source)
}

func (e *LoadError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Date CalendarDate
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no results for %s", e.Date)
}

// SearchMissError is informational: the day resolved but the name is absent.
type SearchMissError struct {
	Name string
	Date CalendarDate
}

func (e *SearchMissError) Error() string {
	return fmt.Sprintf("no exact match for %q on %s", e.Name, e.Date)
}
