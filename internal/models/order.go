package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusCanceled marks orders that are left out of revenue, rating and
// category aggregates.
const StatusCanceled = "canceled"

// OrderLine is one purchased item of an order, denormalized with its
// customer, seller and review.
type OrderLine struct {
	OrderID         string
	CustomerID      string
	SellerID        string
	ProductCategory string
	CustomerCity    string
	CustomerState   string
	SellerCity      string
	SellerState     string
	PurchasedAt     time.Time
	DeliveredAt     time.Time // zero when not delivered
	Status          string
	Quantity        int
	TotalPrice      decimal.Decimal
	ReviewID        string
	ReviewScore     float64
	HasReviewScore  bool
}

func (o OrderLine) Canceled() bool {
	return o.Status == StatusCanceled
}

// PurchaseDay is the calendar day of the purchase, at midnight UTC.
func (o OrderLine) PurchaseDay() time.Time {
	return Day(o.PurchasedAt)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type DailyOrders struct {
	Day        time.Time       `json:"day"`
	OrderCount int             `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type GeoCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

type CategorySales struct {
	Category string `json:"product_category_name"`
	Quantity int    `json:"quantity"`
}

type CategoryReview struct {
	Category      string  `json:"product_category_name"`
	ReviewCount   int     `json:"review_count"`
	ReviewAverage float64 `json:"review_average"`
}

type RegionRFM struct {
	State       string          `json:"state"`
	RecentOrder time.Time       `json:"recent_order"`
	Frequency   int             `json:"frequency"`
	Monetary    decimal.Decimal `json:"monetary"`
	RecencyDays int             `json:"recency"`
}

// Leader names the group holding the extreme value of a metric.
type Leader struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type Summary struct {
	TotalOrders          int             `json:"total_orders"`
	TotalRevenue         decimal.Decimal `json:"total_revenue"`
	TopCustomerCity      Leader          `json:"top_customer_city"`
	TopCustomerState     Leader          `json:"top_customer_state"`
	TopSellerCity        Leader          `json:"top_seller_city"`
	TopSellerState       Leader          `json:"top_seller_state"`
	CategoryCount        int             `json:"category_count"`
	BestSellingCategory  Leader          `json:"best_selling_category"`
	WorstSellingCategory Leader          `json:"worst_selling_category"`
	AverageRating        float64         `json:"average_rating"`
	BestRatedCategory    Leader          `json:"best_rated_category"`
	WorstRatedCategory   Leader          `json:"worst_rated_category"`
	AverageRecency       float64         `json:"average_recency"`
	AverageFrequency     float64         `json:"average_frequency"`
	AverageMonetary      decimal.Decimal `json:"average_monetary"`
}
