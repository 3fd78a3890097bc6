package handlers

import (
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"ecom-dashboard/internal/aggregate"
	"ecom-dashboard/internal/errors"
	"ecom-dashboard/internal/models"
	"ecom-dashboard/internal/observability"
	"ecom-dashboard/internal/services"
	"ecom-dashboard/internal/store"
	"ecom-dashboard/internal/ui/format"
	"ecom-dashboard/internal/ui/templates"
)

// maxLocations bounds the city and state charts.
const maxLocations = 10

// rangeSignals are the date pickers bound on the page.
type rangeSignals struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type SSEHandlers struct {
	analytics *services.Analytics
	formatter *format.Formatter
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, formatter *format.Formatter, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		formatter: formatter,
		logger:    logger,
	}
}

// section builds the cards and chart signals for one part of the page.
type section func(d *services.Dashboard, f *format.Formatter) (templ.Component, map[string]any)

func ordersSection(d *services.Dashboard, f *format.Formatter) (templ.Component, map[string]any) {
	return templates.OrdersMetrics(d.Summary, f), map[string]any{
		"dailyOrders": d.Tables.DailyOrders,
	}
}

func demographicsSection(d *services.Dashboard, f *format.Formatter) (templ.Component, map[string]any) {
	top := func(rows []models.GeoCount) []models.GeoCount {
		return aggregate.TopN(rows, maxLocations)
	}
	return templates.DemographicsMetrics(d.Summary, f), map[string]any{
		"customerCities": top(d.Tables.CustomerCities),
		"customerStates": top(d.Tables.CustomerStates),
		"sellerCities":   top(d.Tables.SellerCities),
		"sellerStates":   top(d.Tables.SellerStates),
	}
}

func categoriesSection(d *services.Dashboard, f *format.Formatter) (templ.Component, map[string]any) {
	sales, reviews := d.Tables.CategorySales, d.Tables.CategoryReviews
	return templates.CategoriesMetrics(d.Summary, f), map[string]any{
		"bestSelling":  aggregate.BestSelling(sales, aggregate.RankSize),
		"worstSelling": aggregate.WorstSelling(sales, aggregate.RankSize),
		"bestRated":    aggregate.BestRated(reviews, aggregate.RankSize),
		"worstRated":   aggregate.WorstRated(reviews, aggregate.RankSize),
	}
}

func rfmSection(d *services.Dashboard, f *format.Formatter) (templ.Component, map[string]any) {
	rfm := d.Tables.RegionRFM
	return templates.RFMMetrics(d.Summary, f), map[string]any{
		"rfmByRecency":   aggregate.RFMByRecency(rfm),
		"rfmByFrequency": aggregate.RFMByFrequency(rfm),
		"rfmByMonetary":  aggregate.RFMByMonetary(rfm),
	}
}

func (h *SSEHandlers) HandleOrders(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, false, ordersSection)
}

func (h *SSEHandlers) HandleDemographics(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, false, demographicsSection)
}

func (h *SSEHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, false, categoriesSection)
}

func (h *SSEHandlers) HandleRFM(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, false, rfmSection)
}

// HandleRefreshAll patches every section and normalizes the date pickers to
// the resolved range.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, true, ordersSection, demographicsSection, categoriesSection, rfmSection)
}

func (h *SSEHandlers) stream(w http.ResponseWriter, r *http.Request, syncRange bool, sections ...section) {
	requestID := observability.GetRequestID(r.Context())

	var signals rangeSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "Invalid signals"), requestID)
		return
	}
	dr, err := store.ParseDateRange(signals.StartDate, signals.EndDate)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	dashboard, err := h.analytics.Dashboard(r.Context(), dr)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	sse := datastar.NewSSE(w, r)

	patch := make(map[string]any)
	if syncRange && !dashboard.Range.Start.IsZero() {
		patch["startDate"] = dashboard.Range.Start.Format(store.DateLayout)
		patch["endDate"] = dashboard.Range.End.Format(store.DateLayout)
	}

	for _, build := range sections {
		cards, chartData := build(dashboard, h.formatter)
		html, err := templates.RenderString(r.Context(), cards)
		if err != nil {
			h.logger.Error("render metric cards", "error", err, "request_id", requestID)
			return
		}
		if err := sse.PatchElements(html); err != nil {
			h.logger.Warn("patch elements", "error", err, "request_id", requestID)
			return
		}
		maps.Copy(patch, chartData)
	}

	data, err := json.Marshal(patch)
	if err != nil {
		h.logger.Error("marshal chart signals", "error", err, "request_id", requestID)
		return
	}
	if err := sse.PatchSignals(data); err != nil {
		h.logger.Warn("patch signals", "error", err, "request_id", requestID)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
