package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ecom-dashboard/internal/models"
)

// DateLayout is the layout of user supplied range bounds.
const DateLayout = "2006-01-02"

var ErrInvalidRange = errors.New("invalid date range")

// DateRange selects purchase days. A zero Start or End is unset.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseDateRange parses YYYY-MM-DD bounds. Empty strings leave a bound
// unset.
func ParseDateRange(start, end string) (DateRange, error) {
	var r DateRange
	var err error

	if r.Start, err = parseDay(start); err != nil {
		return DateRange{}, fmt.Errorf("%w: start: %v", ErrInvalidRange, err)
	}
	if r.End, err = parseDay(end); err != nil {
		return DateRange{}, fmt.Errorf("%w: end: %v", ErrInvalidRange, err)
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return DateRange{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, start, end)
	}
	return r, nil
}

func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return models.Day(t), nil
}

// Resolve fills unset bounds with first and last.
func (r DateRange) Resolve(first, last time.Time) DateRange {
	if r.Start.IsZero() {
		r.Start = first
	}
	if r.End.IsZero() {
		r.End = last
	}
	r.Start = models.Day(r.Start)
	r.End = models.Day(r.End)
	return r
}

// Key identifies the range in caches.
func (r DateRange) Key() string {
	return formatDay(r.Start) + ".." + formatDay(r.End)
}

func (r DateRange) String() string {
	return r.Key()
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return t.Format(DateLayout)
}
