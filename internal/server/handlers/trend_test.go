// internal/server/handlers/trend_test.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yapper/internal/domain/trend"
)

type stubQuery struct {
	items    []trend.Item
	err      error
	category string
	limit    int
}

func (s *stubQuery) GetTrending(_ context.Context, category string, limit int) ([]trend.Item, error) {
	s.category = category
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func (s *stubQuery) HashtagCategories(_ context.Context, hashtags []string) map[string]string {
	labels := make(map[string]string, len(hashtags))
	for _, h := range hashtags {
		labels[h] = "Only on Yapper"
	}
	return labels
}

type stubCalculator struct {
	runErr error
	runs   int
}

func (s *stubCalculator) Start(context.Context) error { return nil }
func (s *stubCalculator) Stop(context.Context) error  { return nil }

func (s *stubCalculator) Run(context.Context) error {
	s.runs++
	return s.runErr
}

func newTestHandler(query *stubQuery, calc *stubCalculator) *TrendHandler {
	if query == nil {
		query = &stubQuery{}
	}
	if calc == nil {
		calc = &stubCalculator{}
	}
	return NewTrendHandler(query, calc, zerolog.Nop())
}

func TestGetTrendingEnvelope(t *testing.T) {
	query := &stubQuery{items: []trend.Item{
		{Text: "#launch", PostsCount: 42, TrendRank: 1, Category: "News", ReferenceID: "launch"},
		{Text: "#derby", PostsCount: 7, TrendRank: 2, Category: "Sports", ReferenceID: "derby"},
	}}
	handler := newTestHandler(query, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trend?category=News&limit=10", nil)
	rec := httptest.NewRecorder()
	handler.GetTrending(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "News", query.category)
	assert.Equal(t, 10, query.limit)

	var body trendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "#launch", body.Data[0].Text)
	assert.Equal(t, int64(42), body.Data[0].PostsCount)
	assert.Equal(t, 1, body.Data[0].TrendRank)
	assert.Equal(t, "launch", body.Data[0].ReferenceID)
}

func TestGetTrendingEmptyList(t *testing.T) {
	handler := newTestHandler(&stubQuery{items: []trend.Item{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trend", nil)
	rec := httptest.NewRecorder()
	handler.GetTrending(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestGetTrendingInvalidLimit(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trend?limit=banana", nil)
	rec := httptest.NewRecorder()
	handler.GetTrending(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid limit"}`, rec.Body.String())
}

func TestGetTrendingQueryFailure(t *testing.T) {
	handler := newTestHandler(&stubQuery{err: errors.New("store down")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trend", nil)
	rec := httptest.NewRecorder()
	handler.GetTrending(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to get trending list"}`, rec.Body.String())
}

func TestCalculateCompleted(t *testing.T) {
	calc := &stubCalculator{}
	handler := newTestHandler(nil, calc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trend/calculate", nil)
	rec := httptest.NewRecorder()
	handler.Calculate(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"completed"}`, rec.Body.String())
	assert.Equal(t, 1, calc.runs)
}

func TestCalculateAlreadyRunning(t *testing.T) {
	handler := newTestHandler(nil, &stubCalculator{runErr: trend.ErrCalculationInProgress})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trend/calculate", nil)
	rec := httptest.NewRecorder()
	handler.Calculate(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"Calculation already in progress"}`, rec.Body.String())
}

func TestCalculateFailure(t *testing.T) {
	handler := newTestHandler(nil, &stubCalculator{runErr: errors.New("store down")})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trend/calculate", nil)
	rec := httptest.NewRecorder()
	handler.Calculate(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Calculation failed"}`, rec.Body.String())
}
