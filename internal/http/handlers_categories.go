package http

import (
	"net/http"
	"strings"

	"finboard/internal/core"
)

type categoryResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	PlaidID string `json:"plaidId,omitempty"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, PlaidID: c.PlaidID}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, userID string) {
	categories, err := s.repo.ListCategories(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, userID string) {
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

	category, err := s.repo.CreateCategory(r.Context(), core.Category{Name: payload.Name, UserID: userID})
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request, userID string) {
	category, err := s.repo.GetCategory(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request, userID string) {
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

	category, err := s.repo.UpdateCategory(r.Context(), userID, r.PathValue("id"), payload.Name)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.repo.DeleteCategory(r.Context(), userID, r.PathValue("id")); err != nil {
		writeStorageError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBulkDeleteCategories(w http.ResponseWriter, r *http.Request, userID string) {
	var payload bulkDeletePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(payload.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids must not be empty")
		return
	}

	deleted, err := s.repo.BulkDeleteCategories(r.Context(), userID, payload.IDs)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	if deleted == nil {
		deleted = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"deleted": deleted})
}
