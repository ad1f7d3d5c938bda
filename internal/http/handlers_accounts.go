package http

import (
	"net/http"
	"strings"

	"finboard/internal/core"
)

type accountResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	PlaidID string `json:"plaidId,omitempty"`
}

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{ID: a.ID, Name: a.Name, PlaidID: a.PlaidID}
}

type namePayload struct {
	Name string `json:"name"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request, userID string) {
	accounts, err := s.repo.ListAccounts(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request, userID string) {
	var payload namePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name must not be empty")
		return
	}

	account, err := s.repo.CreateAccount(r.Context(), core.Account{Name: payload.Name, UserID: userID})
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request, userID string) {
	account, err := s.repo.GetAccount(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request, userID string) {
	var payload namePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name must not be empty")
		return
	}

	account, err := s.repo.UpdateAccount(r.Context(), userID, r.PathValue("id"), payload.Name)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.repo.DeleteAccount(r.Context(), userID, r.PathValue("id")); err != nil {
		writeStorageError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkDeletePayload struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleBulkDeleteAccounts(w http.ResponseWriter, r *http.Request, userID string) {
	var payload bulkDeletePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(payload.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids must not be empty")
		return
	}

	deleted, err := s.repo.BulkDeleteAccounts(r.Context(), userID, payload.IDs)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	if deleted == nil {
		deleted = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"deleted": deleted})
}
