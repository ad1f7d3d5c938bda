package plaid

import (
	"context"
	"time"
)

// BankClient defines the contract for talking to the bank aggregator.
type BankClient interface {
	CreateLinkToken(ctx context.Context, userID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (string, error)
	GetAccounts(ctx context.Context, accessToken string) ([]Account, error)
	GetTransactions(ctx context.Context, accessToken string, startDate, endDate time.Time) ([]Transaction, error)
}

// Ensure Client implements BankClient.
var _ BankClient = (*Client)(nil)
