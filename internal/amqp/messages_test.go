package amqp

import (
	"testing"
)

func TestBankSyncMessageRoundTrip(t *testing.T) {
	msg := NewBankSyncMessage("user-1")
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := BankSyncMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", got.UserID)
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestSheetExportMessageRoundTrip(t *testing.T) {
	msg := NewSheetExportMessage("user-1", "2024-03-01", "2024-03-31")
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := SheetExportMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.From != "2024-03-01" || got.To != "2024-03-31" {
		t.Errorf("range = %s..%s", got.From, got.To)
	}
}

func TestMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := BankSyncMessageFromJSON([]byte("not json")); err == nil {
		t.Error("expected error for invalid bank sync payload")
	}
	if _, err := SheetExportMessageFromJSON([]byte("{")); err == nil {
		t.Error("expected error for invalid sheet export payload")
	}
}
