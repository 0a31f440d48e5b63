package core

import "sort"

const (
	// FilterAll disables mode filtering; MonthAll disables month filtering.
	FilterAll ModeFilter = "ALL"
	MonthAll             = "ALL"

	FilterStandard  = ModeFilter(ModeStandard)
	FilterDailyRate = ModeFilter(ModeDailyRate)

	// DefaultSeriesLength is the chart tail used by the dashboard.
	DefaultSeriesLength = 7
)

type (
	// ModeFilter selects records by pay mode in history views.
	ModeFilter string

	// SeriesPoint is one bar of the recent-earnings chart.
	SeriesPoint struct {
		Date  Date
		Total Money
	}

	// MonthGroup is one month section of the history view: the records of
	// that calendar month in date-descending order, with their subtotal.
	MonthGroup struct {
		Key      string // YYYY-MM
		Records  []WorkRecord
		Subtotal Money
		Count    int
	}
)

// MonthlyTotal sums earnings over records whose date falls in the given
// calendar month. Calendar membership, never a rolling 30-day window.
func MonthlyTotal(records []WorkRecord, year, month int) Money {
	var total Money
	for _, r := range records {
		if r.Meta().Date.InMonth(year, month) {
			total = total.Add(r.Meta().Total)
		}
	}
	return total
}

// MonthlyParcelCount sums parcels over the same calendar-month set.
func MonthlyParcelCount(records []WorkRecord, year, month int) int {
	sum := 0
	for _, r := range records {
		if r.Meta().Date.InMonth(year, month) {
			sum += r.Parcels()
		}
	}
	return sum
}

// MonthlyRecordCount counts records in the calendar month. It feeds
// AveragePerDay, which deliberately divides by records rather than distinct
// active days (two entries on one day count twice).
func MonthlyRecordCount(records []WorkRecord, year, month int) int {
	n := 0
	for _, r := range records {
		if r.Meta().Date.InMonth(year, month) {
			n++
		}
	}
	return n
}

// AveragePerDay divides a monthly total by the month's record count. A zero
// count yields zero, not an error.
func AveragePerDay(total Money, activeRecords int) Money {
	if activeRecords <= 0 {
		return Money{}
	}
	n := int64(activeRecords)
	return Money{Cents: (total.Cents + n/2) / n}
}

// RecentSeries returns the chronological tail of the collection: all records
// sorted ascending by date, then the last n (DefaultSeriesLength when n <= 0).
// Records sharing a date keep a stable order via CreatedAt, falling back to
// input order.
func RecentSeries(records []WorkRecord, n int) []SeriesPoint {
	if n <= 0 {
		n = DefaultSeriesLength
	}
	sorted := make([]WorkRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Meta(), sorted[j].Meta()
		if a.Date.ISO() != b.Date.ISO() {
			return a.Date.ISO() < b.Date.ISO()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	out := make([]SeriesPoint, len(sorted))
	for i, r := range sorted {
		out[i] = SeriesPoint{Date: r.Meta().Date, Total: r.Meta().Total}
	}
	return out
}

// FilterAndGroup filters by mode and month, sorts date-descending (equal
// dates keep input order), and groups into month sections. Groups come back
// already ordered by key descending, which for YYYY-MM keys is reverse
// chronological.
func FilterAndGroup(records []WorkRecord, mode ModeFilter, month string) []MonthGroup {
	filtered := make([]WorkRecord, 0, len(records))
	for _, r := range records {
		if mode != FilterAll && ModeFilter(r.Mode()) != mode {
			continue
		}
		if month != MonthAll && r.Meta().Date.MonthKey() != month {
			continue
		}
		filtered = append(filtered, r)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Meta().Date.ISO() > filtered[j].Meta().Date.ISO()
	})

	var groups []MonthGroup
	index := map[string]int{}
	for _, r := range filtered {
		key := r.Meta().Date.MonthKey()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, MonthGroup{Key: key})
		}
		groups[i].Records = append(groups[i].Records, r)
		groups[i].Subtotal = groups[i].Subtotal.Add(r.Meta().Total)
		groups[i].Count++
	}
	return groups
}

// DistinctMonths lists every month present in the collection exactly once,
// newest first. Feeds the month-selector dropdown.
func DistinctMonths(records []WorkRecord) []string {
	seen := map[string]struct{}{}
	var months []string
	for _, r := range records {
		key := r.Meta().Date.MonthKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		months = append(months, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}
