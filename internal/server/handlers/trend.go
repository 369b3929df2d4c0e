// internal/server/handlers/trend.go

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"yapper/internal/domain/trend"
)

// TrendHandler handles trend-related HTTP requests
type TrendHandler struct {
	query      trend.Query
	calculator trend.Calculator
	logger     zerolog.Logger
}

// NewTrendHandler creates a new trend handler
func NewTrendHandler(query trend.Query, calculator trend.Calculator, logger zerolog.Logger) *TrendHandler {
	return &TrendHandler{
		query:      query,
		calculator: calculator,
		logger:     logger.With().Str("component", "trend_handler").Logger(),
	}
}

// trendResponse is the envelope for GET /trend.
type trendResponse struct {
	Data []trend.Item `json:"data"`
}

// GetTrending returns the ranked trending list for an optional category.
func (h *TrendHandler) GetTrending(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			h.respondWithError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = parsed
	}

	items, err := h.query.GetTrending(r.Context(), category, limit)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Failed to get trending list", err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, trendResponse{Data: items})
}

// Calculate triggers one trend calculation pass on demand.
func (h *TrendHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	if err := h.calculator.Run(r.Context()); err != nil {
		if errors.Is(err, trend.ErrCalculationInProgress) {
			h.respondWithError(w, http.StatusConflict, "Calculation already in progress", nil)
			return
		}
		h.respondWithError(w, http.StatusInternalServerError, "Calculation failed", err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// Helper for JSON responses
func (h *TrendHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func (h *TrendHandler) respondWithError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil && code >= 500 {
		h.logger.Error().Err(err).Int("code", code).Msg(message)
	}

	jsonResponse, _ := json.Marshal(map[string]string{"error": message})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}
