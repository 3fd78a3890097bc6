package templates

import (
	"encoding/json"
	"fmt"
)

// PageProps seeds the date pickers. Dates use the YYYY-MM-DD layout.
type PageProps struct {
	Title     string
	StartDate string
	EndDate   string
	MinDate   string
	MaxDate   string
}

// chart binds a canvas to the signal holding its rows.
type chart struct {
	id, title, signal, label, value string
}

var charts = []chart{
	{"daily-orders-chart", "Daily orders", "dailyOrders", "day", "order_count"},
	{"daily-revenue-chart", "Daily revenue", "dailyOrders", "day", "revenue"},
	{"customer-state-chart", "Customers by state", "customerStates", "location", "count"},
	{"customer-city-chart", "Customers by city", "customerCities", "location", "count"},
	{"seller-state-chart", "Sellers by state", "sellerStates", "location", "count"},
	{"seller-city-chart", "Sellers by city", "sellerCities", "location", "count"},
	{"best-selling-chart", "Best selling categories", "bestSelling", "product_category_name", "quantity"},
	{"worst-selling-chart", "Worst selling categories", "worstSelling", "product_category_name", "quantity"},
	{"best-rated-chart", "Best average rating", "bestRated", "product_category_name", "review_average"},
	{"worst-rated-chart", "Worst average rating", "worstRated", "product_category_name", "review_average"},
	{"rfm-recency-chart", "By recency (days)", "rfmByRecency", "state", "recency"},
	{"rfm-frequency-chart", "By frequency", "rfmByFrequency", "state", "frequency"},
	{"rfm-monetary-chart", "By monetary", "rfmByMonetary", "state", "monetary"},
}

// Chart groups, one per page section.
var (
	orderCharts    = charts[0:2]
	geoCharts      = charts[2:6]
	categoryCharts = charts[6:10]
	rfmCharts      = charts[10:13]
)

// effect is the datastar expression redrawing the chart when its signal
// changes.
func (c chart) effect() string {
	return "dashboardChart('" + c.id + "', $" + c.signal + ", '" + c.label + "', '" + c.value + "')"
}

// initialSignals declares the date pickers and an empty row list for every
// chart signal.
func initialSignals(p PageProps) (string, error) {
	signals := map[string]any{
		"startDate": p.StartDate,
		"endDate":   p.EndDate,
	}
	for _, c := range charts {
		signals[c.signal] = []any{}
	}
	b, err := json.Marshal(signals)
	if err != nil {
		return "", fmt.Errorf("marshal signals: %w", err)
	}
	return string(b), nil
}
