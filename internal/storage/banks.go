package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finboard/internal/core"
)

// SaveConnectedBank stores the user's aggregator link, replacing any
// previous one. One connected bank per user.
func (r *SQLiteRepository) SaveConnectedBank(ctx context.Context, b core.ConnectedBank) (core.ConnectedBank, error) {
	if b.ID == "" {
		b.ID = core.NewID()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO connected_banks (id, user_id, access_token)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET access_token = excluded.access_token`,
		b.ID, b.UserID, b.AccessToken)
	if err != nil {
		return core.ConnectedBank{}, fmt.Errorf("save connected bank: %w", err)
	}
	return r.GetConnectedBank(ctx, b.UserID)
}

func (r *SQLiteRepository) GetConnectedBank(ctx context.Context, userID string) (core.ConnectedBank, error) {
	var b core.ConnectedBank
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, access_token FROM connected_banks WHERE user_id = ?`, userID).
		Scan(&b.ID, &b.UserID, &b.AccessToken)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ConnectedBank{}, ErrNotFound
	}
	if err != nil {
		return core.ConnectedBank{}, fmt.Errorf("get connected bank: %w", err)
	}
	return b, nil
}

// DeleteConnectedBank removes the link together with every account,
// category and transaction the sync created for it. Rows without a
// plaid id are untouched.
func (r *SQLiteRepository) DeleteConnectedBank(ctx context.Context, userID string) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bank delete: %w", err)
	}
	defer dbtx.Rollback()

	res, err := dbtx.ExecContext(ctx,
		`DELETE FROM connected_banks WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete connected bank: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	// Transactions on synced accounts go with them via ON DELETE CASCADE.
	if _, err := dbtx.ExecContext(ctx,
		`DELETE FROM accounts WHERE user_id = ? AND plaid_id IS NOT NULL`, userID); err != nil {
		return fmt.Errorf("delete synced accounts: %w", err)
	}
	if _, err := dbtx.ExecContext(ctx,
		`DELETE FROM categories WHERE user_id = ? AND plaid_id IS NOT NULL`, userID); err != nil {
		return fmt.Errorf("delete synced categories: %w", err)
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit bank delete: %w", err)
	}
	return nil
}

// FindAccountByPlaidID looks up a synced account so repeated syncs
// reuse the row instead of creating duplicates.
func (r *SQLiteRepository) FindAccountByPlaidID(ctx context.Context, userID, plaidID string) (core.Account, error) {
	var a core.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(plaid_id, ''), name, user_id
		 FROM accounts WHERE user_id = ? AND plaid_id = ?`, userID, plaidID).
		Scan(&a.ID, &a.PlaidID, &a.Name, &a.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("find account by plaid id: %w", err)
	}
	return a, nil
}
