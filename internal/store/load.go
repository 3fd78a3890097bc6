package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"ecom-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// Column names bound from the header row.
const (
	ColOrderID         = "order_id"
	ColCustomerID      = "customer_id"
	ColSellerID        = "seller_id"
	ColProductCategory = "product_category_name"
	ColCustomerCity    = "customer_city"
	ColCustomerState   = "customer_state"
	ColSellerCity      = "seller_city"
	ColSellerState     = "seller_state"
	ColPurchasedAt     = "order_purchase_timestamp"
	ColDeliveredAt     = "order_delivered_customer_date"
	ColStatus          = "order_status"
	ColQuantity        = "quantity"
	ColTotalPrice      = "total_price"
	ColReviewID        = "review_id"
	ColReviewScore     = "review_score"
)

var requiredColumns = []string{
	ColOrderID, ColCustomerID, ColSellerID, ColProductCategory,
	ColCustomerCity, ColCustomerState, ColSellerCity, ColSellerState,
	ColPurchasedAt, ColDeliveredAt, ColStatus,
	ColQuantity, ColTotalPrice, ColReviewID, ColReviewScore,
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// MalformedInputError reports input that cannot be loaded. Row is the
// 1-based line number in the file, 0 for header problems.
type MalformedInputError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *MalformedInputError) Error() string {
	switch {
	case e.Row == 0 && e.Column != "":
		return fmt.Sprintf("malformed input: header: missing columns %s", e.Column)
	case e.Row == 0:
		return fmt.Sprintf("malformed input: %v", e.Err)
	case e.Column == "":
		return fmt.Sprintf("malformed input: row %d: %v", e.Row, e.Err)
	default:
		return fmt.Sprintf("malformed input: row %d, column %q, value %q: %v", e.Row, e.Column, e.Value, e.Err)
	}
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

var errNegative = errors.New("must not be negative")

type columnIndex map[string]int

// Load parses a delimited order-line table with a header row. Any
// unparseable field fails the whole load.
func Load(ctx context.Context, r io.Reader) (*RecordSet, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &MalformedInputError{Err: errors.New("empty input")}
		}
		return nil, &MalformedInputError{Err: err}
	}
	cols, err := bindColumns(header)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	var lines []int
	for {
		if len(rows)%batchSize == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &MalformedInputError{Row: parseErr.Line, Err: parseErr.Err}
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, row)
		lines = append(lines, line)
	}

	records, err := parseRows(ctx, rows, lines, cols)
	if err != nil {
		return nil, err
	}
	return NewRecordSet(records), nil
}

func bindColumns(header []string) (columnIndex, error) {
	cols := make(columnIndex, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MalformedInputError{Column: strings.Join(missing, ", ")}
	}
	return cols, nil
}

// parseRows converts rows in parallel batches. Each batch writes its own
// slice range, so file order is kept. lines holds the file line each row
// starts on.
func parseRows(ctx context.Context, rows [][]string, lines []int, cols columnIndex) ([]models.OrderLine, error) {
	records := make([]models.OrderLine, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%1000 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				rec, err := parseRecord(rows[i], cols, lines[i])
				if err != nil {
					return err
				}
				records[i] = rec
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func parseRecord(row []string, cols columnIndex, line int) (models.OrderLine, error) {
	field := func(name string) string {
		return strings.TrimSpace(row[cols[name]])
	}
	malformed := func(name string, err error) error {
		return &MalformedInputError{Row: line, Column: name, Value: field(name), Err: err}
	}

	purchasedRaw := field(ColPurchasedAt)
	if purchasedRaw == "" {
		return models.OrderLine{}, malformed(ColPurchasedAt, errors.New("purchase timestamp is required"))
	}
	purchasedAt, err := parseTimestamp(purchasedRaw)
	if err != nil {
		return models.OrderLine{}, malformed(ColPurchasedAt, err)
	}

	var deliveredAt time.Time
	if raw := field(ColDeliveredAt); raw != "" {
		if deliveredAt, err = parseTimestamp(raw); err != nil {
			return models.OrderLine{}, malformed(ColDeliveredAt, err)
		}
	}

	quantity, err := parseQuantity(field(ColQuantity))
	if err != nil {
		return models.OrderLine{}, malformed(ColQuantity, err)
	}

	totalPrice, err := decimal.NewFromString(field(ColTotalPrice))
	if err != nil {
		return models.OrderLine{}, malformed(ColTotalPrice, err)
	}
	if totalPrice.IsNegative() {
		return models.OrderLine{}, malformed(ColTotalPrice, errNegative)
	}

	var score float64
	hasScore := false
	if raw := field(ColReviewScore); raw != "" {
		if score, err = strconv.ParseFloat(raw, 64); err != nil {
			return models.OrderLine{}, malformed(ColReviewScore, err)
		}
		hasScore = !math.IsNaN(score)
	}

	return models.OrderLine{
		OrderID:         field(ColOrderID),
		CustomerID:      field(ColCustomerID),
		SellerID:        field(ColSellerID),
		ProductCategory: field(ColProductCategory),
		CustomerCity:    field(ColCustomerCity),
		CustomerState:   field(ColCustomerState),
		SellerCity:      field(ColSellerCity),
		SellerState:     field(ColSellerState),
		PurchasedAt:     purchasedAt,
		DeliveredAt:     deliveredAt,
		Status:          strings.ToLower(field(ColStatus)),
		Quantity:        quantity,
		TotalPrice:      totalPrice,
		ReviewID:        field(ColReviewID),
		ReviewScore:     score,
		HasReviewScore:  hasScore,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// parseQuantity accepts whole numbers written as floats ("2.0"), as
// exported by dataframe tools.
func parseQuantity(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, errNegative
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("quantity %q is not a whole number", s)
	}
	if f < 0 {
		return 0, errNegative
	}
	return int(f), nil
}
