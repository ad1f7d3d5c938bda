package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"finboard/internal/charts"
	"finboard/internal/summary"
)

func summaryCacheKey(userID, accountID string, from, to time.Time) string {
	return userID + "|" + accountID + "|" + from.Format(dateLayout) + "|" + to.Format(dateLayout)
}

// overview serves the period aggregation through the response cache.
func (s *Server) overview(ctx context.Context, userID, accountID string, from, to time.Time) (summary.Result, error) {
	key := summaryCacheKey(userID, accountID, from, to)
	if cached, ok := s.summaryCache.Get(key); ok {
		return cached, nil
	}
	result, err := s.summary.Overview(ctx, userID, accountID, from, to)
	if err != nil {
		return summary.Result{}, err
	}
	s.summaryCache.Set(key, result)
	return result, nil
}

// invalidateSummaries drops every cached period for one user.
func (s *Server) invalidateSummaries(userID string) {
	s.summaryCache.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, userID+"|")
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, userID string) {
	from, to, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date range")
		return
	}

	result, err := s.overview(r.Context(), userID, r.URL.Query().Get("accountId"), from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary error", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSummaryChart renders the period to PNG: the income/expenses
// day series by default, the category breakdown with ?type=categories.
func (s *Server) handleSummaryChart(w http.ResponseWriter, r *http.Request, userID string) {
	from, to, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date range")
		return
	}

	result, err := s.overview(r.Context(), userID, r.URL.Query().Get("accountId"), from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary error", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var png []byte
	switch chartType := r.URL.Query().Get("type"); chartType {
	case "", "days":
		png, err = s.renderer.DaySeries(result.Days)
	case "categories":
		png, err = s.renderer.CategoryPie(result.Categories)
	default:
		writeError(w, http.StatusBadRequest, "unknown chart type")
		return
	}
	if errors.Is(err, charts.ErrNoData) {
		writeError(w, http.StatusNotFound, "no data for period")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Chart render error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
