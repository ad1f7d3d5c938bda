package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"finboard/internal/core"
	"finboard/internal/importer"
)

type transactionPayload struct {
	Amount     int64  `json:"amount"`
	Payee      string `json:"payee"`
	Notes      string `json:"notes"`
	Date       string `json:"date"`
	AccountID  string `json:"accountId"`
	CategoryID string `json:"categoryId"`
}

func (p transactionPayload) toTransaction() (core.Transaction, error) {
	date, err := time.Parse(dateLayout, p.Date)
	if err != nil {
		return core.Transaction{}, core.ErrInvalidDate
	}
	t := core.Transaction{
		Amount:     p.Amount,
		Payee:      strings.TrimSpace(p.Payee),
		Notes:      strings.TrimSpace(p.Notes),
		Date:       date,
		AccountID:  p.AccountID,
		CategoryID: p.CategoryID,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

type transactionResponse struct {
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	Payee      string `json:"payee"`
	Notes      string `json:"notes,omitempty"`
	Date       string `json:"date"`
	AccountID  string `json:"accountId"`
	Account    string `json:"account,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
	Category   string `json:"category,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:         t.ID,
		Amount:     t.Amount,
		Payee:      t.Payee,
		Notes:      t.Notes,
		Date:       t.Date.Format(dateLayout),
		AccountID:  t.AccountID,
		CategoryID: t.CategoryID,
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	from, to, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date range")
		return
	}

	details, err := s.repo.ListTransactions(r.Context(), userID, r.URL.Query().Get("accountId"), from, to)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(details))
	for _, d := range details {
		resp := toTransactionResponse(d.Transaction)
		resp.Account = d.Account
		resp.Category = d.Category
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := payload.toTransaction()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.repo.CreateTransaction(r.Context(), userID, t)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	t, err := s.repo.GetTransaction(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := payload.toTransaction()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	t.ID = r.PathValue("id")

	updated, err := s.repo.UpdateTransaction(r.Context(), userID, t)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.repo.DeleteTransaction(r.Context(), userID, r.PathValue("id")); err != nil {
		writeStorageError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBulkCreateTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	var payloads []transactionPayload
	if err := decodeJSON(r, &payloads); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(payloads) == 0 {
		writeError(w, http.StatusBadRequest, "transactions must not be empty")
		return
	}

	txs := make([]core.Transaction, 0, len(payloads))
	for i, payload := range payloads {
		t, err := payload.toTransaction()
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error": "invalid transaction",
				"index": i,
				"cause": err.Error(),
			})
			return
		}
		txs = append(txs, t)
	}

	created, err := s.repo.BulkCreateTransactions(r.Context(), userID, txs)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(created))
	for _, t := range created {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleBulkDeleteTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	var payload bulkDeletePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(payload.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids must not be empty")
		return
	}

	deleted, err := s.repo.BulkDeleteTransactions(r.Context(), userID, payload.IDs)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	if deleted == nil {
		deleted = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"deleted": deleted})
}

// maxImportBytes bounds the uploaded CSV.
const maxImportBytes = 8 << 20

type rowErrorResponse struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// handleImportTransactions runs the CSV import pipeline: multipart
// upload with a per-column role mapping, a header row, and a target
// account. Either every data row normalizes and the whole batch is
// inserted, or the response lists every failing row and nothing is
// persisted.
func (s *Server) handleImportTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	accountID := r.FormValue("accountId")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account id")
		return
	}

	var roles []string
	if err := json.Unmarshal([]byte(r.FormValue("mapping")), &roles); err != nil {
		writeError(w, http.StatusBadRequest, "mapping must be a JSON array of column roles")
		return
	}

	mapping := importer.NewMapping()
	for col, role := range roles {
		mapping.Assign(col, role)
	}
	if !mapping.Ready() {
		writeError(w, http.StatusUnprocessableEntity,
			"mapping must assign the amount, date and payee roles")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing csv file")
		return
	}
	defer file.Close()

	reader := csv.NewReader(io.LimitReader(file, maxImportBytes))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed csv")
		return
	}
	if len(rows) < 2 {
		writeError(w, http.StatusUnprocessableEntity, "csv has no data rows")
		return
	}

	// First row is the header; data starts below it.
	records := mapping.Materialize(rows[1:])
	normalized, failures := importer.NormalizeAll(records)
	if len(failures) > 0 {
		out := make([]rowErrorResponse, 0, len(failures))
		for _, f := range failures {
			out = append(out, rowErrorResponse{Row: f.Row, Error: f.Err.Error()})
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": "import rejected",
			"rows":  out,
		})
		return
	}

	txs := make([]core.Transaction, 0, len(normalized))
	for _, n := range normalized {
		date, err := time.Parse(dateLayout, n.Date)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid normalized date")
			return
		}
		txs = append(txs, core.Transaction{
			Amount:    n.Amount,
			Payee:     n.Payee,
			Date:      date,
			AccountID: accountID,
		})
	}

	created, err := s.repo.BulkCreateTransactions(r.Context(), userID, txs)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "CSV import completed",
		"user_id", userID,
		"account_id", accountID,
		"rows", len(rows)-1,
		"imported", len(created))
	writeJSON(w, http.StatusCreated, map[string]int{"imported": len(created)})
}

type exportPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// handleExportTransactions publishes a sheet export job for the range.
func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	if s.queue == nil {
		writeError(w, http.StatusServiceUnavailable, "export queue not configured")
		return
	}

	var payload exportPayload
	if err := decodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	to := core.TruncateToDay(time.Now().UTC())
	from := to.AddDate(0, 0, -30)
	var err error
	if payload.To != "" {
		if to, err = time.Parse(dateLayout, payload.To); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date range")
			return
		}
	}
	if payload.From != "" {
		if from, err = time.Parse(dateLayout, payload.From); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date range")
			return
		}
	}
	if from.After(to) {
		writeError(w, http.StatusBadRequest, "invalid date range")
		return
	}
	fromStr, toStr := from.Format(dateLayout), to.Format(dateLayout)

	if err := s.queue.PublishSheetExport(r.Context(), userID, fromStr, toStr); err != nil {
		slog.ErrorContext(r.Context(), "Failed to publish sheet export", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to enqueue export")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "from": fromStr, "to": toStr})
}
