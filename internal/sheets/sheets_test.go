package sheets

import (
	"context"
	"strings"
	"testing"
)

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing spreadsheet id",
			cfg:     Config{SheetName: "Transactions", CredentialsJSON: "{}"},
			wantErr: "missing spreadsheet id",
		},
		{
			name:    "missing sheet name",
			cfg:     Config{SpreadsheetID: "sheet-123", CredentialsJSON: "{}"},
			wantErr: "missing sheet name",
		},
		{
			name:    "missing credentials",
			cfg:     Config{SpreadsheetID: "sheet-123", SheetName: "Transactions"},
			wantErr: "missing service account credentials",
		},
		{
			name: "credentials file does not exist",
			cfg: Config{
				SpreadsheetID:   "sheet-123",
				SheetName:       "Transactions",
				CredentialsFile: "/nonexistent/creds.json",
			},
			wantErr: "read service account file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(context.Background(), tt.cfg)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestAppendTransactionsRequiresService(t *testing.T) {
	c := &Client{spreadsheetID: "sheet-123", sheetName: "Transactions"}
	if _, err := c.AppendTransactions(context.Background(), nil); err == nil {
		t.Fatal("expected error for uninitialized service")
	}
}
