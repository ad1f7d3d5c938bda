package amqp

import (
	"encoding/json"
	"time"
)

// BankSyncMessage asks the worker to pull fresh transactions from the
// bank aggregator for one user. The worker looks up the access token
// itself, so the message stays small and contains no secrets.
type BankSyncMessage struct {
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBankSyncMessage(userID string) *BankSyncMessage {
	return &BankSyncMessage{UserID: userID, Timestamp: time.Now()}
}

func (m *BankSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BankSyncMessageFromJSON(data []byte) (*BankSyncMessage, error) {
	var msg BankSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SheetExportMessage asks the worker to append the user's transactions
// in [From, To] to the configured spreadsheet. Dates use "2006-01-02".
type SheetExportMessage struct {
	UserID    string    `json:"userId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSheetExportMessage(userID, from, to string) *SheetExportMessage {
	return &SheetExportMessage{UserID: userID, From: from, To: to, Timestamp: time.Now()}
}

func (m *SheetExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SheetExportMessageFromJSON(data []byte) (*SheetExportMessage, error) {
	var msg SheetExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
