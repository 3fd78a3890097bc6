package aggregate

import (
	"github.com/shopspring/decimal"

	"ecom-dashboard/internal/models"
)

// Tables is the full set of derived tables for one view.
type Tables struct {
	DailyOrders     []models.DailyOrders    `json:"daily_orders"`
	CustomerCities  []models.GeoCount       `json:"customer_city"`
	CustomerStates  []models.GeoCount       `json:"customer_state"`
	SellerCities    []models.GeoCount       `json:"seller_city"`
	SellerStates    []models.GeoCount       `json:"seller_state"`
	CategorySales   []models.CategorySales  `json:"category_sales"`
	CategoryReviews []models.CategoryReview `json:"category_reviews"`
	RegionRFM       []models.RegionRFM      `json:"region_rfm"`
}

// Geo returns the table for dim.
func (t Tables) Geo(dim Dimension) []models.GeoCount {
	switch dim {
	case CustomerCity:
		return t.CustomerCities
	case CustomerState:
		return t.CustomerStates
	case SellerCity:
		return t.SellerCities
	case SellerState:
		return t.SellerStates
	}
	return nil
}

// Summarize derives the headline metrics. Empty tables yield zero values.
func Summarize(t Tables) models.Summary {
	s := models.Summary{
		TotalRevenue:    decimal.Zero,
		AverageMonetary: decimal.Zero,
	}

	for _, d := range t.DailyOrders {
		s.TotalOrders += d.OrderCount
		s.TotalRevenue = s.TotalRevenue.Add(d.Revenue)
	}

	s.TopCustomerCity = topLocation(t.CustomerCities)
	s.TopCustomerState = topLocation(t.CustomerStates)
	s.TopSellerCity = topLocation(t.SellerCities)
	s.TopSellerState = topLocation(t.SellerStates)

	s.CategoryCount = len(t.CategorySales)
	if len(t.CategorySales) > 0 {
		best := t.CategorySales[0]
		s.BestSellingCategory = models.Leader{Name: best.Category, Value: float64(best.Quantity)}
		worst := best
		for _, c := range t.CategorySales[1:] {
			if c.Quantity < worst.Quantity {
				worst = c
			}
		}
		s.WorstSellingCategory = models.Leader{Name: worst.Category, Value: float64(worst.Quantity)}
	}

	if n := len(t.CategoryReviews); n > 0 {
		best := t.CategoryReviews[0]
		worst := best
		var sum float64
		for _, c := range t.CategoryReviews {
			sum += c.ReviewAverage
			if c.ReviewAverage < worst.ReviewAverage {
				worst = c
			}
		}
		s.AverageRating = sum / float64(n)
		s.BestRatedCategory = models.Leader{Name: best.Category, Value: best.ReviewAverage}
		s.WorstRatedCategory = models.Leader{Name: worst.Category, Value: worst.ReviewAverage}
	}

	if n := len(t.RegionRFM); n > 0 {
		var recency, frequency int
		monetary := decimal.Zero
		for _, r := range t.RegionRFM {
			recency += r.RecencyDays
			frequency += r.Frequency
			monetary = monetary.Add(r.Monetary)
		}
		s.AverageRecency = float64(recency) / float64(n)
		s.AverageFrequency = float64(frequency) / float64(n)
		s.AverageMonetary = monetary.Div(decimal.NewFromInt(int64(n))).Round(2)
	}

	return s
}

// topLocation picks the location with the highest count; ties go to the
// first in table order.
func topLocation(rows []models.GeoCount) models.Leader {
	var top models.Leader
	found := false
	for _, r := range rows {
		if !found || float64(r.Count) > top.Value {
			top = models.Leader{Name: r.Location, Value: float64(r.Count)}
			found = true
		}
	}
	return top
}
