// Package sheets exports transactions to a Google spreadsheet. The
// worker appends rows below the last occupied one, so repeated exports
// grow the sheet instead of overwriting it.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"

	"finboard/internal/core"
	"finboard/internal/storage"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Exporter is the outbound port the worker drives.
type Exporter interface {
	AppendTransactions(ctx context.Context, txs []storage.TransactionDetail) (int, error)
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Config locates the spreadsheet and the service account credentials.
// Exactly one of CredentialsJSON and CredentialsFile must be set.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if cfg.SheetName == "" {
		return nil, errors.New("missing sheet name")
	}

	var credentialsJSON []byte
	switch {
	case cfg.CredentialsJSON != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		var err error
		credentialsJSON, err = os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
	}, nil
}

// AppendTransactions writes one row per transaction after the last
// occupied row and returns the number of rows written. Amounts are
// converted from milliunits to decimal units for the sheet.
func (c *Client) AppendTransactions(ctx context.Context, txs []storage.TransactionDetail) (int, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	if len(txs) == 0 {
		return 0, nil
	}

	// Find the next empty row from the sheet's current extent.
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get sheet dimensions for %s: %w", c.sheetName, err)
	}
	nextRow := len(resp.Values) + 1

	values := make([][]any, 0, len(txs))
	for _, t := range txs {
		values = append(values, []any{
			t.Date.Format("2006-01-02"),
			t.Payee,
			core.FromMilliunits(t.Amount),
			t.Account,
			t.Category,
			t.Notes,
		})
	}

	dataRange := fmt.Sprintf("%s!A%d:F%d", c.sheetName, nextRow, nextRow+len(values)-1)
	vr := &gsheet.ValueRange{Values: values}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("update rows in sheet %s: %w", c.sheetName, err)
	}

	return len(values), nil
}

// Ensure interface conformance
var _ Exporter = (*Client)(nil)
