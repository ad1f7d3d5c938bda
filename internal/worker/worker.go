// Package worker processes the background jobs behind the dashboard:
// pulling transactions from the bank aggregator and exporting slices
// of the ledger to a spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/plaid"
	"finboard/internal/sheets"
	"finboard/internal/storage"
)

type Worker struct {
	storage      *storage.SQLiteRepository
	bank         plaid.BankClient
	exporter     sheets.Exporter
	lookbackDays int
}

func New(storage *storage.SQLiteRepository, bank plaid.BankClient, exporter sheets.Exporter, lookbackDays int) *Worker {
	return &Worker{
		storage:      storage,
		bank:         bank,
		exporter:     exporter,
		lookbackDays: lookbackDays,
	}
}

// HandleBankSync pulls accounts and recent transactions for the user
// behind the message. A missing bank link is not an error: the user
// disconnected between publish and delivery, so the message is simply
// dropped.
func (w *Worker) HandleBankSync(ctx context.Context, msg *amqp.BankSyncMessage) error {
	slog.InfoContext(ctx, "Processing bank sync", "user_id", msg.UserID)

	if w.bank == nil {
		slog.WarnContext(ctx, "Bank aggregator not configured, dropping sync", "user_id", msg.UserID)
		return nil
	}

	bank, err := w.storage.GetConnectedBank(ctx, msg.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "No connected bank for user, dropping sync", "user_id", msg.UserID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get connected bank: %w", err)
	}

	accounts, err := w.bank.GetAccounts(ctx, bank.AccessToken)
	if err != nil {
		return fmt.Errorf("fetch accounts: %w", err)
	}

	accountIDs := make(map[string]string, len(accounts))
	for _, remote := range accounts {
		local, err := w.ensureAccount(ctx, msg.UserID, remote)
		if err != nil {
			return err
		}
		accountIDs[remote.PlaidID] = local.ID
	}

	to := core.TruncateToDay(time.Now().UTC())
	from := to.AddDate(0, 0, -w.lookbackDays)

	remoteTxs, err := w.bank.GetTransactions(ctx, bank.AccessToken, from, to)
	if err != nil {
		return fmt.Errorf("fetch transactions: %w", err)
	}

	categoryIDs, err := w.categoryIndex(ctx, msg.UserID)
	if err != nil {
		return err
	}

	txs := make([]core.Transaction, 0, len(remoteTxs))
	for _, remote := range remoteTxs {
		accountID, ok := accountIDs[remote.AccountPlaidID]
		if !ok {
			slog.WarnContext(ctx, "Transaction references unknown account, skipping",
				"plaid_transaction_id", remote.PlaidID,
				"plaid_account_id", remote.AccountPlaidID)
			continue
		}

		categoryID := ""
		if remote.Category != "" {
			categoryID, err = w.ensureCategory(ctx, msg.UserID, remote.Category, categoryIDs)
			if err != nil {
				return err
			}
		}

		txs = append(txs, core.Transaction{
			ID:         remote.PlaidID,
			Amount:     remote.Amount,
			Payee:      remote.Payee,
			Date:       core.TruncateToDay(remote.Date),
			AccountID:  accountID,
			CategoryID: categoryID,
		})
	}

	inserted, err := w.storage.UpsertTransactions(ctx, txs)
	if err != nil {
		return fmt.Errorf("store synced transactions: %w", err)
	}

	slog.InfoContext(ctx, "Bank sync completed",
		"user_id", msg.UserID,
		"accounts", len(accounts),
		"fetched", len(remoteTxs),
		"inserted", inserted)
	return nil
}

func (w *Worker) ensureAccount(ctx context.Context, userID string, remote plaid.Account) (core.Account, error) {
	local, err := w.storage.FindAccountByPlaidID(ctx, userID, remote.PlaidID)
	if err == nil {
		return local, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return core.Account{}, fmt.Errorf("look up synced account: %w", err)
	}

	created, err := w.storage.CreateAccount(ctx, core.Account{
		PlaidID: remote.PlaidID,
		Name:    remote.Name,
		UserID:  userID,
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("create synced account: %w", err)
	}
	return created, nil
}

// categoryIndex maps aggregator category names to local category ids.
// Synced categories carry the remote name as their plaid id.
func (w *Worker) categoryIndex(ctx context.Context, userID string) (map[string]string, error) {
	categories, err := w.storage.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	index := make(map[string]string, len(categories))
	for _, c := range categories {
		if c.PlaidID != "" {
			index[c.PlaidID] = c.ID
		}
	}
	return index, nil
}

func (w *Worker) ensureCategory(ctx context.Context, userID, name string, index map[string]string) (string, error) {
	if id, ok := index[name]; ok {
		return id, nil
	}

	created, err := w.storage.CreateCategory(ctx, core.Category{
		PlaidID: name,
		Name:    name,
		UserID:  userID,
	})
	if err != nil {
		return "", fmt.Errorf("create synced category: %w", err)
	}
	index[name] = created.ID
	return created.ID, nil
}

// HandleSheetExport appends the user's transactions in the message's
// date range to the configured spreadsheet.
func (w *Worker) HandleSheetExport(ctx context.Context, msg *amqp.SheetExportMessage) error {
	if w.exporter == nil {
		slog.WarnContext(ctx, "No sheet exporter configured, dropping export", "user_id", msg.UserID)
		return nil
	}

	from, err := time.Parse("2006-01-02", msg.From)
	if err != nil {
		return fmt.Errorf("parse export start date %q: %w", msg.From, err)
	}
	to, err := time.Parse("2006-01-02", msg.To)
	if err != nil {
		return fmt.Errorf("parse export end date %q: %w", msg.To, err)
	}

	txs, err := w.storage.ListTransactions(ctx, msg.UserID, "", from, to)
	if err != nil {
		return fmt.Errorf("list transactions for export: %w", err)
	}
	if len(txs) == 0 {
		slog.InfoContext(ctx, "Nothing to export", "user_id", msg.UserID, "from", msg.From, "to", msg.To)
		return nil
	}

	rows, err := w.exporter.AppendTransactions(ctx, txs)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Sheet export completed",
		"user_id", msg.UserID,
		"from", msg.From,
		"to", msg.To,
		"rows", rows)
	return nil
}
