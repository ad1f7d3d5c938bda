package summary

import (
	"context"
	"testing"
	"time"
)

// fakeSource returns canned aggregates and records the ranges it was
// asked for.
type fakeSource struct {
	totals     map[string]Totals // keyed by from date
	categories []CategoryValue
	days       []DayTotals
	calls      []string
}

func (f *fakeSource) PeriodTotals(_ context.Context, _, _ string, from, _ time.Time) (Totals, error) {
	key := from.Format("2006-01-02")
	f.calls = append(f.calls, key)
	return f.totals[key], nil
}

func (f *fakeSource) CategorySpending(context.Context, string, string, time.Time, time.Time) ([]CategoryValue, error) {
	return f.categories, nil
}

func (f *fakeSource) ActiveDays(context.Context, string, string, time.Time, time.Time) ([]DayTotals, error) {
	return f.days, nil
}

func TestServiceOverview(t *testing.T) {
	from := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	src := &fakeSource{
		totals: map[string]Totals{
			// Current period and the 10 days before it.
			"2024-01-11": {Income: 150000, Expenses: -50000, Remaining: 100000},
			"2024-01-01": {Income: 100000, Expenses: -100000, Remaining: 0},
		},
		categories: []CategoryValue{
			{Name: "Food", Value: 100},
			{Name: "Rent", Value: 80},
			{Name: "Fun", Value: 50},
			{Name: "Gas", Value: 20},
			{Name: "Misc", Value: 10},
		},
		days: []DayTotals{
			{Date: time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), Income: 5, Expenses: -3},
		},
	}

	got, err := NewService(src).Overview(context.Background(), "user-1", "", from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.IncomeAmount != 150000 || got.IncomeChange != 50 {
		t.Fatalf("income: %+v", got)
	}
	if got.ExpensesAmount != -50000 || got.ExpensesChange != -50 {
		t.Fatalf("expenses: %+v", got)
	}
	if got.RemainingAmount != 100000 || got.RemainingChange != 100 {
		t.Fatalf("remaining with zero baseline should use the sentinel: %+v", got)
	}
	if len(got.Categories) != 4 || got.Categories[3].Name != OtherCategoryName || got.Categories[3].Value != 30 {
		t.Fatalf("categories: %+v", got.Categories)
	}
	// 10-day period, one active day, the rest zero-filled.
	if len(got.Days) != 10 {
		t.Fatalf("expected 10 days, got %d", len(got.Days))
	}
}

func TestServiceOverviewEmptyRange(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{totals: map[string]Totals{}}

	got, err := NewService(src).Overview(context.Background(), "user-1", "", from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IncomeChange != 0 || got.ExpensesChange != 0 || got.RemainingChange != 0 {
		t.Fatalf("zero against zero should report 0 change: %+v", got)
	}
	if len(got.Days) != 0 {
		t.Fatalf("no active days should produce no series, got %d", len(got.Days))
	}
}
