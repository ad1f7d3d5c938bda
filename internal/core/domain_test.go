package core

import (
	"errors"
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:        NewID(),
		Amount:    -14530,
		Payee:     "Grocery Store",
		Date:      NewDate(2024, 1, 8),
		AccountID: "acc-1",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		tx   Transaction
		want error
	}{
		{"empty payee", Transaction{Date: NewDate(2024, 1, 8), AccountID: "a"}, ErrEmptyPayee},
		{"blank payee", Transaction{Payee: "  ", Date: NewDate(2024, 1, 8), AccountID: "a"}, ErrEmptyPayee},
		{"zero date", Transaction{Payee: "p", AccountID: "a"}, ErrInvalidDate},
		{"no account", Transaction{Payee: "p", Date: NewDate(2024, 1, 8)}, ErrMissingAccount},
	}
	for _, tc := range cases {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestTruncateToDay(t *testing.T) {
	in := time.Date(2024, 1, 8, 20, 18, 58, 123, time.UTC)
	got := TruncateToDay(in)
	if got != NewDate(2024, 1, 8) {
		t.Fatalf("expected midnight, got %v", got)
	}
}

func TestNewIDUnique(t *testing.T) {
	if NewID() == NewID() {
		t.Fatal("expected distinct ids")
	}
}
