package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"ecom-dashboard/internal/handlers"
	"ecom-dashboard/internal/observability"
	"ecom-dashboard/internal/services"
	"ecom-dashboard/internal/store"
	"ecom-dashboard/internal/ui/format"
	"ecom-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	pageTitle     = "E-Commerce Dashboard"
)

type Server struct {
	analytics   *services.Analytics
	formatter   *format.Formatter
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

func NewServer(analytics *services.Analytics, formatter *format.Formatter, logger *slog.Logger) *Server {
	s := &Server{
		analytics:   analytics,
		formatter:   formatter,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, formatter, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", s.handleDashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/range", s.apiHandlers.HandleRange)
	s.mux.HandleFunc("GET /api/dashboard", s.apiHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/daily-orders", s.apiHandlers.HandleDailyOrders)
	s.mux.HandleFunc("GET /api/geo/{dimension}", s.apiHandlers.HandleGeo)
	s.mux.HandleFunc("GET /api/category-sales", s.apiHandlers.HandleCategorySales)
	s.mux.HandleFunc("GET /api/category-reviews", s.apiHandlers.HandleCategoryReviews)
	s.mux.HandleFunc("GET /api/region-rfm", s.apiHandlers.HandleRegionRFM)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/orders", s.sseHandlers.HandleOrders)
	s.mux.HandleFunc("GET /sse/demographics", s.sseHandlers.HandleDemographics)
	s.mux.HandleFunc("GET /sse/categories", s.sseHandlers.HandleCategories)
	s.mux.HandleFunc("GET /sse/rfm", s.sseHandlers.HandleRFM)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	props := templates.PageProps{Title: pageTitle}
	if bounds, ok := s.analytics.Bounds(); ok {
		props.MinDate = bounds.Start.Format(store.DateLayout)
		props.MaxDate = bounds.End.Format(store.DateLayout)
		props.StartDate = props.MinDate
		props.EndDate = props.MaxDate
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := templates.Dashboard(props, s.formatter).Render(ctx, w); err != nil {
		s.logger.Error("render dashboard", "error", err, "request_id", observability.GetRequestID(ctx))
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
