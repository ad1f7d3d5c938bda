package http

import (
	"log/slog"
	"net/http"

	"finboard/internal/core"
)

func (s *Server) handleCreateLinkToken(w http.ResponseWriter, r *http.Request, userID string) {
	if s.bank == nil {
		writeError(w, http.StatusServiceUnavailable, "bank aggregator not configured")
		return
	}

	token, err := s.bank.CreateLinkToken(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Link token error", "error", err, "user_id", userID)
		writeError(w, http.StatusBadGateway, "bank aggregator error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"linkToken": token})
}

type exchangePayload struct {
	PublicToken string `json:"publicToken"`
}

// handleExchangePublicToken completes the Link flow: the public token
// becomes an access token, the link is stored, and a sync job is
// queued so transactions show up without waiting for the next
// scheduled pull.
func (s *Server) handleExchangePublicToken(w http.ResponseWriter, r *http.Request, userID string) {
	if s.bank == nil {
		writeError(w, http.StatusServiceUnavailable, "bank aggregator not configured")
		return
	}

	var payload exchangePayload
	if err := decodeJSON(r, &payload); err != nil || payload.PublicToken == "" {
		writeError(w, http.StatusBadRequest, "missing public token")
		return
	}

	accessToken, err := s.bank.ExchangePublicToken(r.Context(), payload.PublicToken)
	if err != nil {
		slog.ErrorContext(r.Context(), "Token exchange error", "error", err, "user_id", userID)
		writeError(w, http.StatusBadGateway, "bank aggregator error")
		return
	}

	bank, err := s.repo.SaveConnectedBank(r.Context(), core.ConnectedBank{
		UserID:      userID,
		AccessToken: accessToken,
	})
	if err != nil {
		writeStorageError(w, r, err)
		return
	}

	if s.queue != nil {
		if err := s.queue.PublishBankSync(r.Context(), userID); err != nil {
			// The link is saved; the next sync will pick it up.
			slog.ErrorContext(r.Context(), "Failed to queue initial bank sync", "error", err, "user_id", userID)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": bank.ID})
}

func (s *Server) handleGetConnectedBank(w http.ResponseWriter, r *http.Request, userID string) {
	bank, err := s.repo.GetConnectedBank(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	// The access token never leaves the server.
	writeJSON(w, http.StatusOK, map[string]string{"id": bank.ID})
}

func (s *Server) handleDeleteConnectedBank(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.repo.DeleteConnectedBank(r.Context(), userID); err != nil {
		writeStorageError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
