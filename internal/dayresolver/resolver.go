// Package dayresolver picks the day record to display for a requested date.
package dayresolver

import (
	"slices"

	"daily-leaderboard/internal/domain"
)

// Resolve returns, in order of preference, the day matching target exactly,
// the closest day before target, or the latest day in the dataset. It reports
// false only when the dataset has no days. Callers clamp target to the event
// window beforehand.
func Resolve(dataset *domain.MonthDataset, target domain.CalendarDate) (domain.DayRecord, bool) {
	if dataset == nil || len(dataset.Days) == 0 {
		return domain.DayRecord{}, false
	}

	days := slices.Clone(dataset.Days)
	slices.SortStableFunc(days, func(a, b domain.DayRecord) int {
		return b.Date.Compare(a.Date)
	})

	for _, d := range days {
		if d.Date == target {
			return d, true
		}
	}
	for _, d := range days {
		if !d.Date.After(target) {
			return d, true
		}
	}
	return days[0], true
}
