// Package aggregate derives the dashboard tables from order-line records.
// Every function is pure: it reads the records, never retains or modifies
// them, and returns an empty non-nil table for empty input.
package aggregate

import (
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"ecom-dashboard/internal/models"
)

const day = 24 * time.Hour

// DailyOrders counts distinct orders and sums revenue per purchase day,
// skipping canceled lines. Days without orders between the first and last
// order day are reported with zero values.
func DailyOrders(records []models.OrderLine) []models.DailyOrders {
	type bucket struct {
		orders  map[string]struct{}
		revenue decimal.Decimal
	}
	buckets := make(map[time.Time]*bucket)
	var first, last time.Time

	for _, rec := range records {
		if rec.Canceled() {
			continue
		}
		d := rec.PurchaseDay()
		b := buckets[d]
		if b == nil {
			b = &bucket{orders: make(map[string]struct{})}
			buckets[d] = b
			if first.IsZero() || d.Before(first) {
				first = d
			}
			if d.After(last) {
				last = d
			}
		}
		if rec.OrderID != "" {
			b.orders[rec.OrderID] = struct{}{}
		}
		b.revenue = b.revenue.Add(rec.TotalPrice)
	}

	result := make([]models.DailyOrders, 0, len(buckets))
	if len(buckets) == 0 {
		return result
	}
	for d := first; !d.After(last); d = d.Add(day) {
		row := models.DailyOrders{Day: d, Revenue: decimal.Zero}
		if b := buckets[d]; b != nil {
			row.OrderCount = len(b.orders)
			row.Revenue = b.revenue
		}
		result = append(result, row)
	}
	return result
}

// GeoCount counts distinct customers or sellers per location over all
// order statuses. Rows are ordered by location.
func GeoCount(records []models.OrderLine, dim Dimension) []models.GeoCount {
	groups := make(map[string]map[string]struct{})
	for _, rec := range records {
		location, id := dim.extract(rec)
		if location == "" {
			continue
		}
		ids := groups[location]
		if ids == nil {
			ids = make(map[string]struct{})
			groups[location] = ids
		}
		if id != "" {
			ids[id] = struct{}{}
		}
	}

	result := make([]models.GeoCount, 0, len(groups))
	for _, location := range sortedKeys(groups) {
		result = append(result, models.GeoCount{Location: location, Count: len(groups[location])})
	}
	return result
}

// CategorySales sums quantity per product category, skipping canceled lines,
// highest quantity first. Equal quantities keep category name order.
func CategorySales(records []models.OrderLine) []models.CategorySales {
	totals := make(map[string]int)
	for _, rec := range records {
		if rec.Canceled() || rec.ProductCategory == "" {
			continue
		}
		totals[rec.ProductCategory] += rec.Quantity
	}

	result := make([]models.CategorySales, 0, len(totals))
	for _, category := range sortedKeys(totals) {
		result = append(result, models.CategorySales{Category: category, Quantity: totals[category]})
	}
	slices.SortStableFunc(result, func(a, b models.CategorySales) int {
		return b.Quantity - a.Quantity
	})
	return result
}

// CategoryReviews reports distinct reviews and the mean review score per
// product category, skipping canceled lines, best mean first. The mean is
// taken over lines that carry a score; a category without any is omitted.
func CategoryReviews(records []models.OrderLine) []models.CategoryReview {
	type bucket struct {
		reviews map[string]struct{}
		sum     float64
		scored  int
	}
	buckets := make(map[string]*bucket)
	for _, rec := range records {
		if rec.Canceled() || rec.ProductCategory == "" {
			continue
		}
		b := buckets[rec.ProductCategory]
		if b == nil {
			b = &bucket{reviews: make(map[string]struct{})}
			buckets[rec.ProductCategory] = b
		}
		if rec.ReviewID != "" {
			b.reviews[rec.ReviewID] = struct{}{}
		}
		if rec.HasReviewScore {
			b.sum += rec.ReviewScore
			b.scored++
		}
	}

	result := make([]models.CategoryReview, 0, len(buckets))
	for _, category := range sortedKeys(buckets) {
		b := buckets[category]
		if b.scored == 0 {
			continue
		}
		result = append(result, models.CategoryReview{
			Category:      category,
			ReviewCount:   len(b.reviews),
			ReviewAverage: b.sum / float64(b.scored),
		})
	}
	slices.SortStableFunc(result, func(a, b models.CategoryReview) int {
		switch {
		case a.ReviewAverage > b.ReviewAverage:
			return -1
		case a.ReviewAverage < b.ReviewAverage:
			return 1
		default:
			return 0
		}
	})
	return result
}

// RFMOptions selects which lines feed the region RFM table.
type RFMOptions struct {
	// ExcludeCanceled drops canceled lines. By default they are counted,
	// unlike every other revenue aggregate.
	ExcludeCanceled bool
}

func (o RFMOptions) include(rec models.OrderLine) bool {
	return !o.ExcludeCanceled || !rec.Canceled()
}

// LatestDay is the most recent purchase day among the lines RegionRFM
// would group.
func LatestDay(records []models.OrderLine, opts RFMOptions) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, rec := range records {
		if !opts.include(rec) {
			continue
		}
		if d := rec.PurchaseDay(); !found || d.After(latest) {
			latest = d
			found = true
		}
	}
	return latest, found
}

// RegionRFM summarizes each customer state by the day of its last purchase,
// quantity bought (frequency) and amount spent (monetary). Recency is the
// number of days from the state's last purchase to maxDay, never negative.
func RegionRFM(records []models.OrderLine, maxDay time.Time, opts RFMOptions) []models.RegionRFM {
	groups := make(map[string]*models.RegionRFM)
	for _, rec := range records {
		if !opts.include(rec) || rec.CustomerState == "" {
			continue
		}
		g := groups[rec.CustomerState]
		if g == nil {
			g = &models.RegionRFM{State: rec.CustomerState, Monetary: decimal.Zero}
			groups[rec.CustomerState] = g
		}
		if d := rec.PurchaseDay(); d.After(g.RecentOrder) {
			g.RecentOrder = d
		}
		g.Frequency += rec.Quantity
		g.Monetary = g.Monetary.Add(rec.TotalPrice)
	}

	maxDay = models.Day(maxDay)
	result := make([]models.RegionRFM, 0, len(groups))
	for _, state := range sortedKeys(groups) {
		g := *groups[state]
		g.RecencyDays = max(0, int(maxDay.Sub(g.RecentOrder)/day))
		result = append(result, g)
	}
	return result
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
