package aggregate

import (
	"cmp"
	"slices"

	"ecom-dashboard/internal/models"
)

// RankSize is how many categories the best and worst charts show.
const RankSize = 5

// Ranked returns a copy of rows stably sorted by compare and cut to n rows.
// A negative n keeps every row. rows is never reordered.
func Ranked[T any](rows []T, n int, compare func(a, b T) int) []T {
	sorted := slices.Clone(rows)
	if sorted == nil {
		sorted = []T{}
	}
	slices.SortStableFunc(sorted, compare)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// TopN keeps the n locations with the highest count. Equal counts keep
// their input order.
func TopN(rows []models.GeoCount, n int) []models.GeoCount {
	return Ranked(rows, n, func(a, b models.GeoCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
}

func BestSelling(rows []models.CategorySales, n int) []models.CategorySales {
	return Ranked(rows, n, func(a, b models.CategorySales) int {
		return cmp.Compare(b.Quantity, a.Quantity)
	})
}

// WorstSelling lists the lowest quantities first.
func WorstSelling(rows []models.CategorySales, n int) []models.CategorySales {
	return Ranked(rows, n, func(a, b models.CategorySales) int {
		return cmp.Compare(a.Quantity, b.Quantity)
	})
}

func BestRated(rows []models.CategoryReview, n int) []models.CategoryReview {
	return Ranked(rows, n, func(a, b models.CategoryReview) int {
		return cmp.Compare(b.ReviewAverage, a.ReviewAverage)
	})
}

// WorstRated lists the lowest mean scores first.
func WorstRated(rows []models.CategoryReview, n int) []models.CategoryReview {
	return Ranked(rows, n, func(a, b models.CategoryReview) int {
		return cmp.Compare(a.ReviewAverage, b.ReviewAverage)
	})
}

// RFMByRecency puts the states that ordered most recently first.
func RFMByRecency(rows []models.RegionRFM) []models.RegionRFM {
	return Ranked(rows, -1, func(a, b models.RegionRFM) int {
		return cmp.Compare(a.RecencyDays, b.RecencyDays)
	})
}

func RFMByFrequency(rows []models.RegionRFM) []models.RegionRFM {
	return Ranked(rows, -1, func(a, b models.RegionRFM) int {
		return cmp.Compare(b.Frequency, a.Frequency)
	})
}

func RFMByMonetary(rows []models.RegionRFM) []models.RegionRFM {
	return Ranked(rows, -1, func(a, b models.RegionRFM) int {
		return b.Monetary.Cmp(a.Monetary)
	})
}
