package storage

import (
	"context"
	"fmt"
	"time"

	"finboard/internal/summary"
)

// PeriodTotals sums signed amounts in [from, to]: income counts rows
// with amount >= 0, expenses rows with amount < 0. Expenses keep
// their negative sign.
func (r *SQLiteRepository) PeriodTotals(ctx context.Context, userID, accountID string, from, to time.Time) (summary.Totals, error) {
	query := `SELECT
	            COALESCE(SUM(CASE WHEN t.amount >= 0 THEN t.amount ELSE 0 END), 0),
	            COALESCE(SUM(CASE WHEN t.amount < 0 THEN t.amount ELSE 0 END), 0),
	            COALESCE(SUM(t.amount), 0)
	          FROM transactions t
	          JOIN accounts a ON t.account_id = a.id
	          WHERE a.user_id = ? AND t.date >= ? AND t.date <= ?`
	args := []any{userID, from.Format(dateLayout), to.Format(dateLayout)}
	if accountID != "" {
		query += ` AND t.account_id = ?`
		args = append(args, accountID)
	}

	var totals summary.Totals
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&totals.Income, &totals.Expenses, &totals.Remaining)
	if err != nil {
		return summary.Totals{}, fmt.Errorf("period totals: %w", err)
	}
	return totals, nil
}

// CategorySpending groups expense rows by category name, largest
// spender first. Uncategorized expenses fall under a blank name so
// callers can label them however they like.
func (r *SQLiteRepository) CategorySpending(ctx context.Context, userID, accountID string, from, to time.Time) ([]summary.CategoryValue, error) {
	query := `SELECT COALESCE(c.name, ''), SUM(ABS(t.amount))
	          FROM transactions t
	          JOIN accounts a ON t.account_id = a.id
	          LEFT JOIN categories c ON t.category_id = c.id
	          WHERE a.user_id = ? AND t.amount < 0 AND t.date >= ? AND t.date <= ?`
	args := []any{userID, from.Format(dateLayout), to.Format(dateLayout)}
	if accountID != "" {
		query += ` AND t.account_id = ?`
		args = append(args, accountID)
	}
	query += ` GROUP BY COALESCE(c.name, '') ORDER BY SUM(ABS(t.amount)) DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category spending: %w", err)
	}
	defer rows.Close()

	var out []summary.CategoryValue
	for rows.Next() {
		var cv summary.CategoryValue
		if err := rows.Scan(&cv.Name, &cv.Value); err != nil {
			return nil, fmt.Errorf("scan category spending: %w", err)
		}
		out = append(out, cv)
	}
	return out, rows.Err()
}

// ActiveDays returns per-day income and expense totals for days that
// have at least one transaction, ascending by date. Expenses come
// back as absolute values.
func (r *SQLiteRepository) ActiveDays(ctx context.Context, userID, accountID string, from, to time.Time) ([]summary.DayTotals, error) {
	query := `SELECT t.date,
	                 COALESCE(SUM(CASE WHEN t.amount >= 0 THEN t.amount ELSE 0 END), 0),
	                 COALESCE(SUM(CASE WHEN t.amount < 0 THEN ABS(t.amount) ELSE 0 END), 0)
	          FROM transactions t
	          JOIN accounts a ON t.account_id = a.id
	          WHERE a.user_id = ? AND t.date >= ? AND t.date <= ?`
	args := []any{userID, from.Format(dateLayout), to.Format(dateLayout)}
	if accountID != "" {
		query += ` AND t.account_id = ?`
		args = append(args, accountID)
	}
	query += ` GROUP BY t.date ORDER BY t.date`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("active days: %w", err)
	}
	defer rows.Close()

	var out []summary.DayTotals
	for rows.Next() {
		var date string
		var dt summary.DayTotals
		if err := rows.Scan(&date, &dt.Income, &dt.Expenses); err != nil {
			return nil, fmt.Errorf("scan active day: %w", err)
		}
		if dt.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", date, err)
		}
		out = append(out, dt)
	}
	return out, rows.Err()
}
