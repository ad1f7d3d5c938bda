package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/plaid"
	"finboard/internal/storage"
)

type fakeExporter struct {
	rows []storage.TransactionDetail
}

func (f *fakeExporter) AppendTransactions(_ context.Context, txs []storage.TransactionDetail) (int, error) {
	f.rows = append(f.rows, txs...)
	return len(txs), nil
}

func newTestStorage(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestHandleBankSyncCreatesAccountsAndTransactions(t *testing.T) {
	repo := newTestStorage(t)
	ctx := context.Background()

	if _, err := repo.SaveConnectedBank(ctx, core.ConnectedBank{UserID: "user-1", AccessToken: "tok"}); err != nil {
		t.Fatalf("SaveConnectedBank: %v", err)
	}

	mock := plaid.NewMockClient()
	mock.GetAccountsFn = func(_ context.Context, accessToken string) ([]plaid.Account, error) {
		if accessToken != "tok" {
			t.Errorf("access token = %q, want tok", accessToken)
		}
		return []plaid.Account{{PlaidID: "plaid-acc-1", Name: "Checking"}}, nil
	}
	mock.GetTransactionsFn = func(_ context.Context, _ string, _, _ time.Time) ([]plaid.Transaction, error) {
		return []plaid.Transaction{
			{
				PlaidID:        "plaid-tx-1",
				AccountPlaidID: "plaid-acc-1",
				Amount:         -14530,
				Payee:          "Market",
				Category:       "Food and Drink",
				Date:           core.NewDate(2024, 3, 5),
			},
			{
				PlaidID:        "plaid-tx-2",
				AccountPlaidID: "unknown-account",
				Amount:         -1000,
				Payee:          "Skipped",
				Date:           core.NewDate(2024, 3, 6),
			},
		}, nil
	}

	w := New(repo, mock, nil, 30)
	if err := w.HandleBankSync(ctx, &amqp.BankSyncMessage{UserID: "user-1"}); err != nil {
		t.Fatalf("HandleBankSync: %v", err)
	}

	account, err := repo.FindAccountByPlaidID(ctx, "user-1", "plaid-acc-1")
	if err != nil {
		t.Fatalf("synced account missing: %v", err)
	}
	if account.Name != "Checking" {
		t.Errorf("account name = %q", account.Name)
	}

	tx, err := repo.GetTransaction(ctx, "user-1", "plaid-tx-1")
	if err != nil {
		t.Fatalf("synced transaction missing: %v", err)
	}
	if tx.Amount != -14530 || tx.Payee != "Market" {
		t.Errorf("transaction = %+v", tx)
	}
	if tx.CategoryID == "" {
		t.Error("expected a synced category")
	}

	categories, err := repo.ListCategories(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(categories) != 1 || categories[0].PlaidID != "Food and Drink" {
		t.Errorf("categories = %+v", categories)
	}

	// Transaction on an unknown account is skipped, not stored.
	if _, err := repo.GetTransaction(ctx, "user-1", "plaid-tx-2"); err == nil {
		t.Error("transaction for unknown account should be skipped")
	}
}

func TestHandleBankSyncIsIdempotent(t *testing.T) {
	repo := newTestStorage(t)
	ctx := context.Background()

	if _, err := repo.SaveConnectedBank(ctx, core.ConnectedBank{UserID: "user-1", AccessToken: "tok"}); err != nil {
		t.Fatalf("SaveConnectedBank: %v", err)
	}

	mock := plaid.NewMockClient()
	mock.GetAccountsFn = func(_ context.Context, _ string) ([]plaid.Account, error) {
		return []plaid.Account{{PlaidID: "plaid-acc-1", Name: "Checking"}}, nil
	}
	mock.GetTransactionsFn = func(_ context.Context, _ string, _, _ time.Time) ([]plaid.Transaction, error) {
		return []plaid.Transaction{{
			PlaidID:        "plaid-tx-1",
			AccountPlaidID: "plaid-acc-1",
			Amount:         -1000,
			Payee:          "Shop",
			Date:           core.NewDate(2024, 3, 1),
		}}, nil
	}

	w := New(repo, mock, nil, 30)
	for i := 0; i < 2; i++ {
		if err := w.HandleBankSync(ctx, &amqp.BankSyncMessage{UserID: "user-1"}); err != nil {
			t.Fatalf("HandleBankSync #%d: %v", i+1, err)
		}
	}

	accounts, err := repo.ListAccounts(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("got %d accounts after two syncs, want 1", len(accounts))
	}

	txs, err := repo.ListTransactions(ctx, "user-1", "", core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 31))
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 1 {
		t.Errorf("got %d transactions after two syncs, want 1", len(txs))
	}
}

func TestHandleBankSyncWithoutLink(t *testing.T) {
	repo := newTestStorage(t)
	w := New(repo, plaid.NewMockClient(), nil, 30)

	// Dropped, not requeued.
	if err := w.HandleBankSync(context.Background(), &amqp.BankSyncMessage{UserID: "user-1"}); err != nil {
		t.Fatalf("HandleBankSync: %v", err)
	}
}

func TestHandleSheetExport(t *testing.T) {
	repo := newTestStorage(t)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, core.Account{Name: "Checking", UserID: "user-1"})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if _, err := repo.CreateTransaction(ctx, "user-1", core.Transaction{
		Amount: -14530, Payee: "Market", Date: core.NewDate(2024, 3, 5), AccountID: account.ID,
	}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	exporter := &fakeExporter{}
	w := New(repo, plaid.NewMockClient(), exporter, 30)

	msg := &amqp.SheetExportMessage{UserID: "user-1", From: "2024-03-01", To: "2024-03-31"}
	if err := w.HandleSheetExport(ctx, msg); err != nil {
		t.Fatalf("HandleSheetExport: %v", err)
	}
	if len(exporter.rows) != 1 || exporter.rows[0].Payee != "Market" {
		t.Errorf("exported rows = %+v", exporter.rows)
	}
}

func TestHandleSheetExportBadDates(t *testing.T) {
	repo := newTestStorage(t)
	w := New(repo, plaid.NewMockClient(), &fakeExporter{}, 30)

	msg := &amqp.SheetExportMessage{UserID: "user-1", From: "03/01/2024", To: "2024-03-31"}
	if err := w.HandleSheetExport(context.Background(), msg); err == nil {
		t.Fatal("expected error for malformed date")
	}
}
