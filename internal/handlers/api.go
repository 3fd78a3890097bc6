package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"ecom-dashboard/internal/aggregate"
	"ecom-dashboard/internal/errors"
	"ecom-dashboard/internal/observability"
	"ecom-dashboard/internal/services"
	"ecom-dashboard/internal/store"
)

const cacheMaxAge = "public, max-age=300"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// queryRange reads the start and end query parameters.
func queryRange(r *http.Request) (store.DateRange, error) {
	q := r.URL.Query()
	return store.ParseDateRange(q.Get("start"), q.Get("end"))
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) respond(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheMaxAge,
	})
}

// serve wraps a table lookup with range parsing and the response envelope.
func (h *APIHandlers) serve(get func(*http.Request, store.DateRange) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dr, err := queryRange(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		data, err := get(r, dr)
		h.respond(w, r, data, err)
	}
}

func (h *APIHandlers) HandleRange(w http.ResponseWriter, r *http.Request) {
	bounds, ok := h.analytics.Bounds()
	if !ok {
		h.fail(w, r, errors.NotFound("No records loaded"))
		return
	}
	h.respond(w, r, bounds, nil)
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	h.serve(func(r *http.Request, dr store.DateRange) (any, error) {
		return h.analytics.Dashboard(r.Context(), dr)
	})(w, r)
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	h.serve(func(r *http.Request, dr store.DateRange) (any, error) {
		return h.analytics.Summary(r.Context(), dr)
	})(w, r)
}

func (h *APIHandlers) HandleDailyOrders(w http.ResponseWriter, r *http.Request) {
	h.serve(func(r *http.Request, dr store.DateRange) (any, error) {
		return h.analytics.DailyOrders(r.Context(), dr)
	})(w, r)
}

// HandleGeo serves one geography table. ?limit=N keeps the N largest
// locations.
func (h *APIHandlers) HandleGeo(w http.ResponseWriter, r *http.Request) {
	dim, err := aggregate.ParseDimension(r.PathValue("dimension"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	limit := -1
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			h.fail(w, r, errors.Validation("limit must be a non-negative integer"))
			return
		}
	}

	h.serve(func(r *http.Request, dr store.DateRange) (any, error) {
		rows, err := h.analytics.Geo(r.Context(), dr, dim)
		if err != nil || limit < 0 {
			return rows, err
		}
		return aggregate.TopN(rows, limit), nil
	})(w, r)
}

func (h *APIHandlers) HandleCategorySales(w http.ResponseWriter, r *http.Request) {
	h.serve(func(r *http.Request, dr store.DateRange) (any, error) {
		return h.analytics.CategorySales(r.Context(), dr)
	})(w, r)
}

func (h *APIHandlers) HandleCategoryReviews(w http.ResponseWriter, r *http.Request) {
	h.serve(func(r *http.Request, dr store.DateRange) (any, error) {
		return h.analytics.CategoryReviews(r.Context(), dr)
	})(w, r)
}

func (h *APIHandlers) HandleRegionRFM(w http.ResponseWriter, r *http.Request) {
	h.serve(func(r *http.Request, dr store.DateRange) (any, error) {
		return h.analytics.RegionRFM(r.Context(), dr)
	})(w, r)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
