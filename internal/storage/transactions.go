package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finboard/internal/core"
)

// TransactionDetail is a transaction joined with its account and
// category names for the list view.
type TransactionDetail struct {
	core.Transaction
	Account  string
	Category string
}

// ownsAccount verifies the account belongs to the user. Inserts go
// through this check so a caller can never attach a transaction to
// someone else's account.
func (r *SQLiteRepository) ownsAccount(ctx context.Context, userID, accountID string) error {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM accounts WHERE id = ? AND user_id = ?`, accountID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check account ownership: %w", err)
	}
	return nil
}

// ownsCategory behaves like ownsAccount for the optional category
// reference.
func (r *SQLiteRepository) ownsCategory(ctx context.Context, userID, categoryID string) error {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM categories WHERE id = ? AND user_id = ?`, categoryID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check category ownership: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	if err := r.ownsAccount(ctx, userID, t.AccountID); err != nil {
		return core.Transaction{}, err
	}
	if t.CategoryID != "" {
		if err := r.ownsCategory(ctx, userID, t.CategoryID); err != nil {
			return core.Transaction{}, err
		}
	}
	if t.ID == "" {
		t.ID = core.NewID()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, amount, payee, notes, date, account_id, category_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Amount, t.Payee, nullable(t.Notes), t.Date.Format(dateLayout),
		t.AccountID, nullable(t.CategoryID))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

// BulkCreateTransactions inserts all transactions in one database
// transaction; either the whole batch lands or none of it does.
func (r *SQLiteRepository) BulkCreateTransactions(ctx context.Context, userID string, txs []core.Transaction) ([]core.Transaction, error) {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk create: %w", err)
	}
	defer dbtx.Rollback()

	stmt, err := dbtx.PrepareContext(ctx,
		`INSERT INTO transactions (id, amount, payee, notes, date, account_id, category_id)
		 SELECT ?, ?, ?, ?, ?, a.id, ?
		 FROM accounts a WHERE a.id = ? AND a.user_id = ?`)
	if err != nil {
		return nil, fmt.Errorf("prepare bulk create: %w", err)
	}
	defer stmt.Close()

	created := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.ID == "" {
			t.ID = core.NewID()
		}
		res, err := stmt.ExecContext(ctx,
			t.ID, t.Amount, t.Payee, nullable(t.Notes), t.Date.Format(dateLayout),
			nullable(t.CategoryID), t.AccountID, userID)
		if err != nil {
			return nil, fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrNotFound
		}
		created = append(created, t)
	}

	if err := dbtx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk create: %w", err)
	}
	return created, nil
}

// UpsertTransactions inserts transactions keyed by an external id,
// skipping rows already present. Used by the bank sync worker, where
// the aggregator may hand back transactions we have seen before.
func (r *SQLiteRepository) UpsertTransactions(ctx context.Context, txs []core.Transaction) (int, error) {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer dbtx.Rollback()

	stmt, err := dbtx.PrepareContext(ctx,
		`INSERT INTO transactions (id, amount, payee, notes, date, account_id, category_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, t := range txs {
		res, err := stmt.ExecContext(ctx,
			t.ID, t.Amount, t.Payee, nullable(t.Notes), t.Date.Format(dateLayout),
			t.AccountID, nullable(t.CategoryID))
		if err != nil {
			return inserted, fmt.Errorf("upsert transaction %s: %w", t.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := dbtx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return inserted, nil
}

// ListTransactions returns the user's transactions within [from, to],
// newest first, optionally narrowed to one account. Category may be
// absent; account is mandatory by schema.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID, accountID string, from, to time.Time) ([]TransactionDetail, error) {
	query := `SELECT t.id, t.amount, t.payee, COALESCE(t.notes, ''), t.date,
	                 t.account_id, a.name, COALESCE(t.category_id, ''), COALESCE(c.name, '')
	          FROM transactions t
	          JOIN accounts a ON t.account_id = a.id
	          LEFT JOIN categories c ON t.category_id = c.id
	          WHERE a.user_id = ? AND t.date >= ? AND t.date <= ?`
	args := []any{userID, from.Format(dateLayout), to.Format(dateLayout)}
	if accountID != "" {
		query += ` AND t.account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY t.date DESC, t.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []TransactionDetail
	for rows.Next() {
		d, err := scanTransactionDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.amount, t.payee, COALESCE(t.notes, ''), t.date, t.account_id, COALESCE(t.category_id, '')
		 FROM transactions t
		 JOIN accounts a ON t.account_id = a.id
		 WHERE t.id = ? AND a.user_id = ?`, id, userID)

	var t core.Transaction
	var date string
	err := row.Scan(&t.ID, &t.Amount, &t.Payee, &t.Notes, &date, &t.AccountID, &t.CategoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if t.Date, err = time.Parse(dateLayout, date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	if err := r.ownsAccount(ctx, userID, t.AccountID); err != nil {
		return core.Transaction{}, err
	}
	if t.CategoryID != "" {
		if err := r.ownsCategory(ctx, userID, t.CategoryID); err != nil {
			return core.Transaction{}, err
		}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET amount = ?, payee = ?, notes = ?, date = ?, account_id = ?, category_id = ?
		 WHERE id = ? AND account_id IN (SELECT id FROM accounts WHERE user_id = ?)`,
		t.Amount, t.Payee, nullable(t.Notes), t.Date.Format(dateLayout),
		t.AccountID, nullable(t.CategoryID), t.ID, userID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, ErrNotFound
	}
	return r.GetTransaction(ctx, userID, t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions
		 WHERE id = ? AND account_id IN (SELECT id FROM accounts WHERE user_id = ?)`,
		id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) BulkDeleteTransactions(ctx context.Context, userID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(
		`DELETE FROM transactions
		 WHERE id IN (%s)
		   AND account_id IN (SELECT id FROM accounts WHERE user_id = ?)
		 RETURNING id`, placeholders(len(ids)))
	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, userID)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bulk delete transactions: %w", err)
	}
	defer rows.Close()

	var deleted []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan deleted id: %w", err)
		}
		deleted = append(deleted, id)
	}
	return deleted, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransactionDetail(rows rowScanner) (TransactionDetail, error) {
	var d TransactionDetail
	var date string
	err := rows.Scan(&d.ID, &d.Amount, &d.Payee, &d.Notes, &date,
		&d.AccountID, &d.Account, &d.CategoryID, &d.Category)
	if err != nil {
		return TransactionDetail{}, fmt.Errorf("scan transaction: %w", err)
	}
	if d.Date, err = time.Parse(dateLayout, date); err != nil {
		return TransactionDetail{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	return d, nil
}
