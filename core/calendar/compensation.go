package calendar

import "time"

// Pair links a weekday taken off for a public holiday with the weekend day
// worked in exchange.
type Pair struct {
	Holiday time.Time
	Workday time.Time
}

// Official holiday adjustment days, keyed by year. The table follows the
// State Council holiday arrangement announcements and needs a yearly update.
var compensationTable = map[int][]Pair{
	2024: {
		{Holiday: date(2024, 2, 15), Workday: date(2024, 2, 4)},
		{Holiday: date(2024, 2, 16), Workday: date(2024, 2, 18)},
		{Holiday: date(2024, 4, 5), Workday: date(2024, 4, 7)},
		{Holiday: date(2024, 5, 2), Workday: date(2024, 4, 28)},
		{Holiday: date(2024, 5, 3), Workday: date(2024, 5, 11)},
		{Holiday: date(2024, 6, 10), Workday: date(2024, 6, 8)},
		{Holiday: date(2024, 9, 16), Workday: date(2024, 9, 14)},
		{Holiday: date(2024, 10, 4), Workday: date(2024, 9, 29)},
		{Holiday: date(2024, 10, 7), Workday: date(2024, 10, 12)},
	},
	2025: {
		{Holiday: date(2025, 1, 28), Workday: date(2025, 1, 26)},
		{Holiday: date(2025, 2, 4), Workday: date(2025, 2, 8)},
		{Holiday: date(2025, 5, 5), Workday: date(2025, 4, 27)},
		{Holiday: date(2025, 10, 7), Workday: date(2025, 9, 28)},
		{Holiday: date(2025, 10, 8), Workday: date(2025, 10, 11)},
	},
	2026: {
		{Holiday: date(2026, 2, 20), Workday: date(2026, 2, 15)},
		{Holiday: date(2026, 2, 23), Workday: date(2026, 2, 28)},
		{Holiday: date(2026, 7, 1), Workday: date(2026, 6, 28)},
		{Holiday: date(2026, 10, 1), Workday: date(2026, 9, 27)},
		{Holiday: date(2026, 10, 8), Workday: date(2026, 10, 10)},
	},
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Pairs returns the holiday/workday pairs of a year in calendar order.
// Unknown years yield an empty slice.
func Pairs(year int) []Pair {
	pairs := compensationTable[year]
	out := make([]Pair, len(pairs))
	copy(out, pairs)
	return out
}

// CompensationFromHoliday returns the make-up workday exchanged for the given
// holiday, or false when the date is not an adjusted holiday.
func CompensationFromHoliday(d time.Time) (time.Time, bool) {
	for _, p := range compensationTable[d.Year()] {
		if sameDate(p.Holiday, d) {
			return p.Workday, true
		}
	}
	return time.Time{}, false
}

// CompensationFromWorkday returns the holiday a make-up workday stands in
// for, or false when the date is a regular day.
func CompensationFromWorkday(d time.Time) (time.Time, bool) {
	for _, p := range compensationTable[d.Year()] {
		if sameDate(p.Workday, d) {
			return p.Holiday, true
		}
	}
	return time.Time{}, false
}
