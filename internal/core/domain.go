package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidDate    = errors.New("invalid date")
	ErrEmptyPayee     = errors.New("empty payee")
	ErrEmptyName      = errors.New("empty name")
	ErrMissingAccount = errors.New("missing account")
)

type (
	// Account is a user-labeled container for transactions. PlaidID is set
	// when the account was created by the bank aggregator.
	Account struct {
		ID      string
		PlaidID string
		Name    string
		UserID  string
	}

	// Category labels transactions for spending breakdowns.
	Category struct {
		ID      string
		PlaidID string
		Name    string
		UserID  string
	}

	// Transaction is a single ledger entry. Amount is in milliunits:
	// negative for outflows, positive for inflows.
	Transaction struct {
		ID         string
		Amount     int64
		Payee      string
		Notes      string
		Date       time.Time
		AccountID  string
		CategoryID string
	}

	// ConnectedBank holds the aggregator credential for one user.
	ConnectedBank struct {
		ID          string
		UserID      string
		AccessToken string
	}
)

// NewID returns a fresh opaque entity identifier.
func NewID() string {
	return uuid.NewString()
}

// NewDate builds a calendar date at UTC midnight. Time-of-day is not
// semantically significant anywhere in the system.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// TruncateToDay drops the time-of-day component of t.
func TruncateToDay(t time.Time) time.Time {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Payee) == "" {
		return ErrEmptyPayee
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if t.AccountID == "" {
		return ErrMissingAccount
	}
	return nil
}
