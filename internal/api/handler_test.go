package api_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KpiSentinel/internal/api"
	"KpiSentinel/internal/model"
)

type mockReader struct {
	groups []model.ResultGroup
	err    error
}

func (m *mockReader) ReadResults(context.Context) ([]model.ResultGroup, error) {
	return m.groups, m.err
}

func storedGroups() []model.ResultGroup {
	newer := time.Date(2024, 3, 2, 16, 30, 0, 0, time.UTC)
	older := newer.Add(-24 * time.Hour)
	var pct model.PercentageChange
	pct.Set(model.Window10, 1.5)
	pct.Set(model.Window50, 2)
	pct.Set(model.Window100, -3)
	return []model.ResultGroup{
		{AnalysisTime: newer, Snapshots: []model.KpiSnapshot{{
			Symbol: "0700.HK", AnalysisTime: newer, CurrentPrice: 388.4,
			PercentageChanges: pct, BenchmarkComparison: pct,
			ShortTermKpi: 1, LongTermKpi: 2, ComprehensiveKpi: 1.5,
		}}},
		{AnalysisTime: older, Snapshots: []model.KpiSnapshot{{Symbol: "0005.HK", AnalysisTime: older}}},
	}
}

func do(t *testing.T, reader *mockReader, url string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := api.NewRouter(api.NewHandler(reader))
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, &mockReader{}, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListResults(t *testing.T) {
	tests := []struct {
		name           string
		reader         *mockReader
		url            string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "success: limited to newest group",
			reader:         &mockReader{groups: storedGroups()},
			url:            "/api/results?limit=1",
			expectedStatus: http.StatusOK,
			expectedBody: `[{"analysis_time":"2024-03-02 16:30:00","results":[{
				"stock_code":"0700.HK","current_price":388.4,
				"percentage_changes":{"10":1.5,"50":2,"100":-3},
				"hsi_comparison":{"10":1.5,"50":2,"100":-3},
				"kpi_short":1,"kpi_long":2,"kpi_comprehensive":1.5}]}]`,
		},
		{
			name:           "success: empty store",
			reader:         &mockReader{},
			url:            "/api/results",
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		{
			name:           "error: bad limit",
			reader:         &mockReader{},
			url:            "/api/results?limit=-1",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"limit must be a non-negative integer"}`,
		},
		{
			name:           "error: reader fails",
			reader:         &mockReader{err: errors.New("database is closed")},
			url:            "/api/results",
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"database is closed"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, tt.reader, tt.url)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestListResultsAll(t *testing.T) {
	w := do(t, &mockReader{groups: storedGroups()}, "/api/results")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "0005.HK")
}

func TestLatestResults(t *testing.T) {
	w := do(t, &mockReader{groups: storedGroups()}, "/api/results/latest")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"analysis_time":"2024-03-02 16:30:00"`)
	assert.NotContains(t, w.Body.String(), "0005.HK")

	w = do(t, &mockReader{}, "/api/results/latest")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTrend(t *testing.T) {
	w := do(t, &mockReader{groups: storedGroups()}, "/trend?kpi=short&codes=0700.HK")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "短线KPI 趋势图")
	assert.Contains(t, string(body), `"name":"0700.HK"`)
	assert.NotContains(t, string(body), `"name":"0005.HK"`)

	w = do(t, &mockReader{}, "/trend?kpi=weekly")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
