package plaid

import (
	"context"
	"time"
)

// MockClient is a mock implementation of BankClient for testing.
type MockClient struct {
	CreateLinkTokenFn     func(ctx context.Context, userID string) (string, error)
	ExchangePublicTokenFn func(ctx context.Context, publicToken string) (string, error)
	GetAccountsFn         func(ctx context.Context, accessToken string) ([]Account, error)
	GetTransactionsFn     func(ctx context.Context, accessToken string, startDate, endDate time.Time) ([]Transaction, error)

	GetTransactionsCalls []GetTransactionsCall
	GetAccountsCalls     int
}

// GetTransactionsCall records the parameters of a GetTransactions call.
type GetTransactionsCall struct {
	AccessToken string
	StartDate   time.Time
	EndDate     time.Time
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	if m.CreateLinkTokenFn != nil {
		return m.CreateLinkTokenFn(ctx, userID)
	}
	return "link-token", nil
}

func (m *MockClient) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	if m.ExchangePublicTokenFn != nil {
		return m.ExchangePublicTokenFn(ctx, publicToken)
	}
	return "access-token", nil
}

func (m *MockClient) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	m.GetAccountsCalls++
	if m.GetAccountsFn != nil {
		return m.GetAccountsFn(ctx, accessToken)
	}
	return []Account{}, nil
}

func (m *MockClient) GetTransactions(ctx context.Context, accessToken string, startDate, endDate time.Time) ([]Transaction, error) {
	m.GetTransactionsCalls = append(m.GetTransactionsCalls, GetTransactionsCall{
		AccessToken: accessToken,
		StartDate:   startDate,
		EndDate:     endDate,
	})
	if m.GetTransactionsFn != nil {
		return m.GetTransactionsFn(ctx, accessToken, startDate, endDate)
	}
	return []Transaction{}, nil
}

// Reset clears all call tracking.
func (m *MockClient) Reset() {
	m.GetTransactionsCalls = nil
	m.GetAccountsCalls = 0
}

// Ensure MockClient implements BankClient.
var _ BankClient = (*MockClient)(nil)
