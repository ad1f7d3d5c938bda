// Package summary computes the dashboard aggregation: income, expense
// and net totals for a period compared against the immediately
// preceding period of equal length, a top-category breakdown, and a
// gap-filled daily series for charting.
package summary

import "time"

// Number of categories retained verbatim before the rest collapse into
// a synthetic "Other" entry.
const topCategoryCount = 3

// OtherCategoryName labels the synthetic bucket for categories outside
// the top spenders.
const OtherCategoryName = "Other"

type (
	// Totals are period sums in milliunits: Income is the sum of
	// positive amounts, Expenses the sum of negative amounts, Remaining
	// the sum of all.
	Totals struct {
		Income    int64
		Expenses  int64
		Remaining int64
	}

	// CategoryValue is one category's absolute expense total.
	CategoryValue struct {
		Name  string `json:"name"`
		Value int64  `json:"value"`
	}

	// DayTotals are one calendar day's income and expense sums.
	DayTotals struct {
		Date     time.Time `json:"date"`
		Income   int64     `json:"income"`
		Expenses int64     `json:"expenses"`
	}
)

// PercentChange reports the relative change from previous to current.
// A zero baseline is special-cased: 0 when current is also zero, 100
// otherwise — a finite sentinel rather than a true infinite ratio.
// Callers depend on these exact values.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		if current == previous {
			return 0
		}
		return 100
	}
	return (current - previous) / previous * 100
}

// TopCategories keeps the three largest entries of a list already
// sorted by descending value and collapses the remainder into one
// "Other" entry. With three or fewer categories the input is returned
// as-is.
func TopCategories(categories []CategoryValue) []CategoryValue {
	if len(categories) <= topCategoryCount {
		return categories
	}
	out := make([]CategoryValue, topCategoryCount, topCategoryCount+1)
	copy(out, categories[:topCategoryCount])

	var otherSum int64
	for _, c := range categories[topCategoryCount:] {
		otherSum += c.Value
	}
	return append(out, CategoryValue{Name: OtherCategoryName, Value: otherSum})
}

// FillMissingDays produces one entry per calendar day in [start, end]
// in ascending order, synthesizing zero totals for days absent from
// active. An empty input short-circuits to an empty output: a range
// with no transactions at all charts as no data, not as a flat line.
func FillMissingDays(active []DayTotals, start, end time.Time) []DayTotals {
	if len(active) == 0 {
		return nil
	}

	byDay := make(map[time.Time]DayTotals, len(active))
	for _, d := range active {
		key := time.Date(d.Date.Year(), d.Date.Month(), d.Date.Day(), 0, 0, 0, 0, time.UTC)
		byDay[key] = d
	}

	var out []DayTotals
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		if found, ok := byDay[day]; ok {
			out = append(out, found)
		} else {
			out = append(out, DayTotals{Date: day})
		}
	}
	return out
}

// PeriodLength is the inclusive span of a period in days.
func PeriodLength(start, end time.Time) int {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(endDay.Sub(startDay).Hours()/24) + 1
}

// PriorPeriod returns the equal-length span immediately preceding
// [start, end].
func PriorPeriod(start, end time.Time) (time.Time, time.Time) {
	length := PeriodLength(start, end)
	return start.AddDate(0, 0, -length), end.AddDate(0, 0, -length)
}
