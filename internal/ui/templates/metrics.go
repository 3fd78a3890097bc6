package templates

import (
	"github.com/a-h/templ"

	"ecom-dashboard/internal/models"
	"ecom-dashboard/internal/ui/format"
)

// Element ids patched by the SSE handlers.
const (
	OrdersMetricsID       = "orders-metrics"
	DemographicsMetricsID = "demographics-metrics"
	CategoriesMetricsID   = "categories-metrics"
	RFMMetricsID          = "rfm-metrics"
)

// Fraction digits shown for the summary averages.
const (
	ratingPlaces    = 1
	recencyPlaces   = 1
	frequencyPlaces = 2
)

type Card struct {
	Label  string
	Value  string
	Detail string
}

func OrdersMetrics(s models.Summary, f *format.Formatter) templ.Component {
	return MetricCards(OrdersMetricsID, []Card{
		{Label: "Total orders", Value: f.Int(s.TotalOrders)},
		{Label: "Total revenue", Value: f.Money(s.TotalRevenue)},
	})
}

func DemographicsMetrics(s models.Summary, f *format.Formatter) templ.Component {
	leader := func(label string, l models.Leader) Card {
		return Card{Label: label, Value: f.Place(l.Name), Detail: f.Int(int(l.Value))}
	}
	return MetricCards(DemographicsMetricsID, []Card{
		leader("Top customer city", s.TopCustomerCity),
		leader("Top customer state", s.TopCustomerState),
		leader("Top seller city", s.TopSellerCity),
		leader("Top seller state", s.TopSellerState),
	})
}

func CategoriesMetrics(s models.Summary, f *format.Formatter) templ.Component {
	rating := func(v float64) string { return f.Fixed(v, ratingPlaces) }
	return MetricCards(CategoriesMetricsID, []Card{
		{Label: "Categories", Value: f.Int(s.CategoryCount)},
		{Label: "Best selling", Value: f.Category(s.BestSellingCategory.Name), Detail: f.Int(int(s.BestSellingCategory.Value))},
		{Label: "Worst selling", Value: f.Category(s.WorstSellingCategory.Name), Detail: f.Int(int(s.WorstSellingCategory.Value))},
		{Label: "Average rating", Value: rating(s.AverageRating)},
		{Label: "Best rated", Value: f.Category(s.BestRatedCategory.Name), Detail: rating(s.BestRatedCategory.Value)},
		{Label: "Worst rated", Value: f.Category(s.WorstRatedCategory.Name), Detail: rating(s.WorstRatedCategory.Value)},
	})
}

func RFMMetrics(s models.Summary, f *format.Formatter) templ.Component {
	return MetricCards(RFMMetricsID, []Card{
		{Label: "Average recency (days)", Value: f.Fixed(s.AverageRecency, recencyPlaces)},
		{Label: "Average frequency", Value: f.Fixed(s.AverageFrequency, frequencyPlaces)},
		{Label: "Average monetary", Value: f.Money(s.AverageMonetary)},
	})
}
