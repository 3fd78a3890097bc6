// Package store holds the immutable order-line record set and the date-range
// views derived from it.
package store

import (
	"slices"
	"sort"
	"time"

	"ecom-dashboard/internal/models"
)

const day = 24 * time.Hour

// RecordSet is an immutable, purchase-time ordered collection of order
// lines. Filtering shares the backing array, so nothing may modify the slice
// returned by Records.
type RecordSet struct {
	records []models.OrderLine
}

// NewRecordSet copies records and orders them by purchase time. Records
// with equal timestamps keep their input order.
func NewRecordSet(records []models.OrderLine) *RecordSet {
	sorted := slices.Clone(records)
	if sorted == nil {
		sorted = []models.OrderLine{}
	}
	slices.SortStableFunc(sorted, func(a, b models.OrderLine) int {
		return a.PurchasedAt.Compare(b.PurchasedAt)
	})
	return &RecordSet{records: sorted}
}

func (s *RecordSet) Len() int {
	return len(s.records)
}

func (s *RecordSet) Records() []models.OrderLine {
	return s.records
}

// Bounds reports the first and last purchase day. ok is false for an empty
// set.
func (s *RecordSet) Bounds() (first, last time.Time, ok bool) {
	if len(s.records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s.records[0].PurchaseDay(), s.records[len(s.records)-1].PurchaseDay(), true
}

// Filter returns the records whose purchase day lies in r, both ends
// inclusive. Unset ends default to the observed bounds, so the full range is
// the identity.
func (s *RecordSet) Filter(r DateRange) *RecordSet {
	first, last, ok := s.Bounds()
	if !ok {
		return s
	}
	r = r.Resolve(first, last)
	if r.Start.After(r.End) {
		return &RecordSet{records: []models.OrderLine{}}
	}

	lo := sort.Search(len(s.records), func(i int) bool {
		return !s.records[i].PurchasedAt.Before(r.Start)
	})
	endExclusive := r.End.Add(day)
	hi := sort.Search(len(s.records), func(i int) bool {
		return !s.records[i].PurchasedAt.Before(endExclusive)
	})
	if lo == 0 && hi == len(s.records) {
		return s
	}
	return &RecordSet{records: s.records[lo:hi:hi]}
}

// View resolves r against the observed bounds and filters the set. The view
// is the only state a dashboard computation needs.
func (s *RecordSet) View(r DateRange) *View {
	if first, last, ok := s.Bounds(); ok {
		r = r.Resolve(first, last)
	}
	return &View{Range: r, set: s.Filter(r)}
}

// View is a read-only, request-scoped window over the base record set.
type View struct {
	Range DateRange
	set   *RecordSet
}

func (v *View) Records() []models.OrderLine {
	return v.set.Records()
}

func (v *View) Len() int {
	return v.set.Len()
}

// MaxDay is the most recent purchase day in the view.
func (v *View) MaxDay() (time.Time, bool) {
	_, last, ok := v.set.Bounds()
	return last, ok
}
