package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecom-dashboard/internal/models"
	"ecom-dashboard/internal/ui/format"
)

func formatter(t *testing.T) *format.Formatter {
	t.Helper()
	f, err := format.New("R$", "es-CO")
	require.NoError(t, err)
	return f
}

func TestMetricCards_Escapes(t *testing.T) {
	html, err := RenderString(context.Background(), MetricCards("x", []Card{
		{Label: "<b>", Value: "a & b", Detail: "d"},
	}))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, `<div id="x" class="metric-row">`))
	assert.Contains(t, html, "&lt;b&gt;")
	assert.Contains(t, html, "a &amp; b")
	assert.NotContains(t, html, "<b>")
}

func TestSectionMetrics(t *testing.T) {
	f := formatter(t)
	s := models.Summary{
		TotalOrders:         2,
		TotalRevenue:        decimal.RequireFromString("130"),
		TopCustomerState:    models.Leader{Name: "SP", Value: 2},
		BestSellingCategory: models.Leader{Name: "cama_mesa_banho", Value: 9},
		AverageMonetary:     decimal.RequireFromString("90"),
	}
	ctx := context.Background()

	orders, err := RenderString(ctx, OrdersMetrics(s, f))
	require.NoError(t, err)
	assert.Contains(t, orders, `id="orders-metrics"`)
	assert.Contains(t, orders, "R$ 130,00")

	demo, err := RenderString(ctx, DemographicsMetrics(s, f))
	require.NoError(t, err)
	assert.Contains(t, demo, `id="demographics-metrics"`)
	assert.Contains(t, demo, "SP")

	cats, err := RenderString(ctx, CategoriesMetrics(s, f))
	require.NoError(t, err)
	assert.Contains(t, cats, "Cama Mesa Banho")

	rfm, err := RenderString(ctx, RFMMetrics(s, f))
	require.NoError(t, err)
	assert.Contains(t, rfm, `id="rfm-metrics"`)
	assert.Contains(t, rfm, "R$ 90,00")
}

func TestSectionMetrics_Precision(t *testing.T) {
	f := formatter(t)
	s := models.Summary{
		AverageRating:      4.0876,
		BestRatedCategory:  models.Leader{Name: "livros", Value: 4.66},
		WorstRatedCategory: models.Leader{Name: "seguros", Value: 2.5},
		AverageRecency:     12.345,
		AverageFrequency:   3.14159,
	}
	ctx := context.Background()

	cats, err := RenderString(ctx, CategoriesMetrics(s, f))
	require.NoError(t, err)
	rfm, err := RenderString(ctx, RFMMetrics(s, f))
	require.NoError(t, err)

	tests := []struct {
		name string
		html string
		want string
	}{
		{"average rating", cats, `<strong class="metric-value">4,1</strong>`},
		{"best rating", cats, `<span class="metric-detail">4,7</span>`},
		{"worst rating", cats, `<span class="metric-detail">2,5</span>`},
		{"average recency", rfm, `<strong class="metric-value">12,3</strong>`},
		{"average frequency", rfm, `<strong class="metric-value">3,14</strong>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.html, tt.want)
		})
	}
}

func TestDashboardPage(t *testing.T) {
	html, err := RenderString(context.Background(), Dashboard(PageProps{
		Title:     "E-Commerce Dashboard",
		StartDate: "2018-01-01",
		EndDate:   "2018-01-03",
		MinDate:   "2018-01-01",
		MaxDate:   "2018-01-03",
	}, formatter(t)))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(strings.ToLower(html), "<!doctype html>"))
	for _, want := range []string{
		"<title>E-Commerce Dashboard</title>",
		`data-bind="startDate"`,
		`data-bind="endDate"`,
		`min="2018-01-01"`,
		`data-init="@get(&#39;/sse/refresh-all&#39;)"`,
		`id="orders-metrics"`,
		`id="rfm-metrics"`,
		"&#34;startDate&#34;:&#34;2018-01-01&#34;",
	} {
		assert.Contains(t, html, want)
	}

	for _, c := range charts {
		assert.Contains(t, html, `id="`+c.id+`"`)
		assert.Contains(t, html, "&#34;"+c.signal+"&#34;:[]", "signal %s must be declared", c.signal)
	}
	assert.Contains(t, html, `data-effect="dashboardChart(&#39;best-selling-chart&#39;, $bestSelling, &#39;product_category_name&#39;, &#39;quantity&#39;)"`)
}

func TestDashboardPage_EscapesTitle(t *testing.T) {
	html, err := RenderString(context.Background(), Dashboard(PageProps{Title: `<script>alert("x")</script>`}, formatter(t)))
	require.NoError(t, err)

	assert.NotContains(t, html, `<script>alert`)
	assert.Contains(t, html, "&lt;script&gt;")
}
