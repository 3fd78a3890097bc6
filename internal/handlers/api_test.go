package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecom-dashboard/internal/models"
	"ecom-dashboard/internal/services"
)

func newAPI(t *testing.T) *APIHandlers {
	return NewAPIHandlers(createTestAnalytics(t), testLogger())
}

func TestHandleDailyOrders(t *testing.T) {
	h := newAPI(t)

	w := get(h.HandleDailyOrders, "/api/daily-orders?start=2018-01-01&end=2018-01-02")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, cacheMaxAge, w.Header().Get("Cache-Control"))

	env := decode(t, w)
	assert.True(t, env.Success)
	var rows []struct {
		Day        string `json:"day"`
		OrderCount int    `json:"order_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].OrderCount)
	assert.Equal(t, 1, rows[1].OrderCount)
}

func TestHandlers_InvalidRange(t *testing.T) {
	h := newAPI(t)

	tests := []struct {
		name   string
		target string
	}{
		{"bad start", "/api/summary?start=yesterday"},
		{"bad end", "/api/summary?end=2018-13-01"},
		{"start after end", "/api/summary?start=2018-02-01&end=2018-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(h.HandleSummary, tt.target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		})
	}
}

func TestHandleSummary_EmptyRange(t *testing.T) {
	h := newAPI(t)

	w := get(h.HandleSummary, "/api/summary?start=2020-01-01&end=2020-01-31")
	require.Equal(t, http.StatusOK, w.Code)

	var s models.Summary
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &s))
	assert.Zero(t, s.TotalOrders)
	assert.Empty(t, s.TopCustomerCity.Name)
}

func TestHandleGeo(t *testing.T) {
	h := newAPI(t)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/geo/{dimension}", h.HandleGeo)

	serve := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w
	}

	w := serve("/api/geo/customer_state")
	require.Equal(t, http.StatusOK, w.Code)
	var rows []models.GeoCount
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &rows))
	assert.Equal(t, []models.GeoCount{{Location: "RJ", Count: 1}, {Location: "SP", Count: 2}}, rows)

	w = serve("/api/geo/customer_state?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &rows))
	assert.Equal(t, []models.GeoCount{{Location: "SP", Count: 2}}, rows)

	w = serve("/api/geo/planet")
	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
	assert.Contains(t, env.Error.Details, `"planet"`)

	assert.Equal(t, http.StatusBadRequest, serve("/api/geo/seller_city?limit=-2").Code)
}

func TestHandleDashboard(t *testing.T) {
	h := newAPI(t)

	w := get(h.HandleDashboard, "/api/dashboard")
	require.Equal(t, http.StatusOK, w.Code)

	var d services.Dashboard
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &d))
	assert.Equal(t, 3, d.RecordCount)
	assert.Len(t, d.Tables.RegionRFM, 2)
	assert.Len(t, d.Tables.CategorySales, 2)
}

func TestHandleTables(t *testing.T) {
	h := newAPI(t)

	for name, handler := range map[string]http.HandlerFunc{
		"category sales":   h.HandleCategorySales,
		"category reviews": h.HandleCategoryReviews,
		"region rfm":       h.HandleRegionRFM,
	} {
		t.Run(name, func(t *testing.T) {
			w := get(handler, "/?start=2018-01-01")
			require.Equal(t, http.StatusOK, w.Code)
			var rows []map[string]any
			require.NoError(t, json.Unmarshal(decode(t, w).Data, &rows))
			assert.Len(t, rows, 2)
		})
	}
}

func TestHandleRange(t *testing.T) {
	w := get(newAPI(t).HandleRange, "/api/range")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"start":"2018-01-01T00:00:00Z","end":"2018-01-03T00:00:00Z"}`, string(decode(t, w).Data))

	empty := NewAPIHandlers(services.NewAnalytics(services.WithLogger(testLogger())), testLogger())
	assert.Equal(t, http.StatusNotFound, get(empty.HandleRange, "/api/range").Code)
}

func TestHandleHealthAndStats(t *testing.T) {
	h := newAPI(t)

	w := get(h.HandleHealth, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	w = get(h.HandleStats, "/admin/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &stats))
	assert.EqualValues(t, 3, stats["record_count"])
	assert.Equal(t, "2018-01-03", stats["last_day"])
}
