package summary

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// DataSource is the persistence contract the aggregator consumes. Every
// query is scoped to the requesting user; accountID narrows to one
// account when non-empty.
type DataSource interface {
	// PeriodTotals returns income/expense/remaining sums for the range.
	PeriodTotals(ctx context.Context, userID, accountID string, from, to time.Time) (Totals, error)
	// CategorySpending returns per-category absolute expense totals,
	// descending.
	CategorySpending(ctx context.Context, userID, accountID string, from, to time.Time) ([]CategoryValue, error)
	// ActiveDays returns per-day income/expense totals, ascending, for
	// days that have at least one transaction.
	ActiveDays(ctx context.Context, userID, accountID string, from, to time.Time) ([]DayTotals, error)
}

// Result is the assembled dashboard summary. Changes are percentage
// deltas against the prior period of equal length.
type Result struct {
	RemainingAmount int64           `json:"remainingAmount"`
	RemainingChange float64         `json:"remainingChange"`
	IncomeAmount    int64           `json:"incomeAmount"`
	IncomeChange    float64         `json:"incomeChange"`
	ExpensesAmount  int64           `json:"expensesAmount"`
	ExpensesChange  float64         `json:"expensesChange"`
	Categories      []CategoryValue `json:"categories"`
	Days            []DayTotals     `json:"days"`
}

// Service computes summaries against a DataSource.
type Service struct {
	src DataSource
}

func NewService(src DataSource) *Service {
	return &Service{src: src}
}

// Overview aggregates the requested period and its prior period. The
// four storage queries are independent, so they run concurrently.
func (s *Service) Overview(ctx context.Context, userID, accountID string, from, to time.Time) (Result, error) {
	priorFrom, priorTo := PriorPeriod(from, to)

	var (
		current    Totals
		previous   Totals
		categories []CategoryValue
		activeDays []DayTotals
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.src.PeriodTotals(gctx, userID, accountID, from, to)
		if err != nil {
			return fmt.Errorf("current period totals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		previous, err = s.src.PeriodTotals(gctx, userID, accountID, priorFrom, priorTo)
		if err != nil {
			return fmt.Errorf("prior period totals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = s.src.CategorySpending(gctx, userID, accountID, from, to)
		if err != nil {
			return fmt.Errorf("category spending: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		activeDays, err = s.src.ActiveDays(gctx, userID, accountID, from, to)
		if err != nil {
			return fmt.Errorf("active days: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	return Result{
		RemainingAmount: current.Remaining,
		RemainingChange: PercentChange(float64(current.Remaining), float64(previous.Remaining)),
		IncomeAmount:    current.Income,
		IncomeChange:    PercentChange(float64(current.Income), float64(previous.Income)),
		ExpensesAmount:  current.Expenses,
		ExpensesChange:  PercentChange(float64(current.Expenses), float64(previous.Expenses)),
		Categories:      TopCategories(categories),
		Days:            FillMissingDays(activeDays, from, to),
	}, nil
}
