package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecom-dashboard/internal/aggregate"
	"ecom-dashboard/internal/cache"
	"ecom-dashboard/internal/store"
)

const header = "order_id,customer_id,order_status,order_purchase_timestamp,order_delivered_customer_date,customer_city,customer_state,seller_id,seller_city,seller_state,product_category_name,quantity,total_price,review_id,review_score\n"

const sampleCSV = header +
	"A,c1,delivered,2018-01-01 10:00:00,2018-01-05 12:00:00,sao paulo,SP,s1,campinas,SP,beleza_saude,2,100.00,r1,5\n" +
	"C,c3,delivered,2018-01-02 15:30:00,,rio de janeiro,RJ,s2,niteroi,RJ,informatica,3,30.00,r3,4\n" +
	"B,c2,canceled,2018-01-03 09:00:00,,sao paulo,SP,s1,campinas,SP,beleza_saude,1,50.00,,\n"

type stringOpener map[string]string

func (o stringOpener) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	s, ok := o[uri]
	if !ok {
		return nil, errors.New("no such source")
	}
	return io.NopCloser(strings.NewReader(s)), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLoaded(t *testing.T, opts ...Option) *Analytics {
	t.Helper()
	opts = append([]Option{
		WithLogger(quietLogger()),
		WithOpener(stringOpener{"sample.csv": sampleCSV}),
	}, opts...)
	a := NewAnalytics(opts...)
	require.NoError(t, a.LoadFromSource(context.Background(), "sample.csv"))
	return a
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDashboard_FullRange(t *testing.T) {
	a := newLoaded(t)

	d, err := a.Dashboard(context.Background(), store.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, store.DateRange{Start: day(2018, 1, 1), End: day(2018, 1, 3)}, d.Range)
	assert.Equal(t, 3, d.RecordCount)
	assert.Equal(t, 2, d.Summary.TotalOrders)
	assert.True(t, decimal.NewFromInt(130).Equal(d.Summary.TotalRevenue))

	require.Len(t, d.Tables.RegionRFM, 2)
	rj, sp := d.Tables.RegionRFM[0], d.Tables.RegionRFM[1]
	assert.Equal(t, "SP", sp.State)
	assert.Equal(t, 3, sp.Frequency)
	assert.Equal(t, 0, sp.RecencyDays)
	assert.Equal(t, "RJ", rj.State)
	assert.Equal(t, 1, rj.RecencyDays)

	assert.Len(t, d.Tables.CustomerStates, 2)
	assert.Len(t, d.Tables.SellerCities, 2)
}

func TestDashboard_ExcludeCanceledRFM(t *testing.T) {
	a := newLoaded(t, WithRFMOptions(aggregate.RFMOptions{ExcludeCanceled: true}))

	rfm, err := a.RegionRFM(context.Background(), store.DateRange{})
	require.NoError(t, err)
	require.Len(t, rfm, 2)
	assert.Equal(t, "RJ", rfm[0].State)
	assert.Equal(t, 0, rfm[0].RecencyDays)
	assert.Equal(t, "SP", rfm[1].State)
	assert.Equal(t, 2, rfm[1].Frequency)
	assert.True(t, decimal.NewFromInt(100).Equal(rfm[1].Monetary))
	assert.Equal(t, 1, rfm[1].RecencyDays)
}

func TestDashboard_FilteredRange(t *testing.T) {
	a := newLoaded(t)

	r, err := store.ParseDateRange("2018-01-02", "")
	require.NoError(t, err)
	d, err := a.Dashboard(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, day(2018, 1, 3), d.Range.End)
	assert.Equal(t, 2, d.RecordCount)
	assert.Equal(t, 1, d.Summary.TotalOrders)
}

func TestDashboard_EmptyRange(t *testing.T) {
	a := newLoaded(t)

	r, err := store.ParseDateRange("2019-01-01", "2019-12-31")
	require.NoError(t, err)
	d, err := a.Dashboard(context.Background(), r)
	require.NoError(t, err)

	assert.Zero(t, d.RecordCount)
	assert.Empty(t, d.Tables.DailyOrders)
	assert.Empty(t, d.Tables.CategorySales)
	assert.Empty(t, d.Tables.RegionRFM)
	assert.Zero(t, d.Summary.TotalOrders)
	assert.Empty(t, d.Summary.BestSellingCategory.Name)
}

func TestDashboard_NoRecordsLoaded(t *testing.T) {
	a := NewAnalytics(WithLogger(quietLogger()))

	d, err := a.Dashboard(context.Background(), store.DateRange{})
	require.NoError(t, err)
	assert.Zero(t, d.RecordCount)

	_, ok := a.Bounds()
	assert.False(t, ok)
}

func TestDashboard_Cached(t *testing.T) {
	a := newLoaded(t, WithCache(cache.NewLRU[*Dashboard](8, time.Hour)))
	ctx := context.Background()

	first, err := a.Dashboard(ctx, store.DateRange{})
	require.NoError(t, err)

	// an explicit full range resolves to the same key
	r, err := store.ParseDateRange("2018-01-01", "2018-01-03")
	require.NoError(t, err)
	second, err := a.Dashboard(ctx, r)
	require.NoError(t, err)

	assert.Same(t, first, second)
	stats := a.Stats()
	assert.EqualValues(t, 1, stats["dashboards_built"])
	assert.EqualValues(t, 1, stats["cache_hits"])
}

func TestSetRecords_InvalidatesCache(t *testing.T) {
	a := newLoaded(t, WithCache(cache.NewLRU[*Dashboard](8, time.Hour)))
	ctx := context.Background()

	before, err := a.Dashboard(ctx, store.DateRange{})
	require.NoError(t, err)

	a.SetRecords(store.NewRecordSet(nil))
	after, err := a.Dashboard(ctx, store.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, 3, before.RecordCount)
	assert.Zero(t, after.RecordCount)
}

func TestDashboard_SharedRedisAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	replica := func(uri, content string) *Analytics {
		a := NewAnalytics(
			WithLogger(quietLogger()),
			WithOpener(stringOpener{uri: content}),
			WithCache(cache.NewRedis[*Dashboard](client, "dashboard:", time.Hour, quietLogger())),
		)
		require.NoError(t, a.LoadFromSource(context.Background(), uri))
		return a
	}

	tests := []struct {
		name      string
		content   string
		wantBuilt int64
		wantHits  int64
		wantKeys  int
	}{
		{name: "same content hits", content: sampleCSV, wantBuilt: 0, wantHits: 1, wantKeys: 1},
		{name: "different content misses", content: strings.Replace(sampleCSV, "30.00", "35.00", 1), wantBuilt: 1, wantHits: 0, wantKeys: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr.FlushAll()
			ctx := context.Background()

			first := replica("first.csv", sampleCSV)
			built, err := first.Dashboard(ctx, store.DateRange{})
			require.NoError(t, err)

			second := replica("second.csv", tt.content)
			got, err := second.Dashboard(ctx, store.DateRange{})
			require.NoError(t, err)

			stats := second.Stats()
			assert.EqualValues(t, tt.wantBuilt, stats["dashboards_built"])
			assert.EqualValues(t, tt.wantHits, stats["cache_hits"])
			assert.Len(t, mr.Keys(), tt.wantKeys)
			assert.Equal(t, built.RecordCount, got.RecordCount)
		})
	}
}

func TestLoadFromSource_SourceMatchesRecords(t *testing.T) {
	oneRow := header + "A,c1,delivered,2018-01-01 10:00:00,,sao paulo,SP,s1,campinas,SP,beleza_saude,1,10.00,r1,5\n"
	a := NewAnalytics(
		WithLogger(quietLogger()),
		WithOpener(stringOpener{"three.csv": sampleCSV, "one.csv": oneRow}),
	)
	want := map[string]int{"three.csv": 3, "one.csv": 1}
	ctx := context.Background()
	require.NoError(t, a.LoadFromSource(ctx, "three.csv"))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			stats := a.Stats()
			src := stats["source"].(string)
			assert.Equal(t, want[src], stats["record_count"], "source %s", src)
		}
	}()

	for i := range 50 {
		uri := "three.csv"
		if i%2 == 0 {
			uri = "one.csv"
		}
		require.NoError(t, a.LoadFromSource(ctx, uri))
	}
	close(done)
	wg.Wait()
}

func TestDashboard_Concurrent(t *testing.T) {
	a := newLoaded(t, WithCache(cache.NewLRU[*Dashboard](8, time.Hour)))
	ranges := []store.DateRange{
		{},
		{Start: day(2018, 1, 2)},
		{End: day(2018, 1, 1)},
	}

	var wg sync.WaitGroup
	for i := range 30 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Dashboard(context.Background(), ranges[i%len(ranges)])
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestLoadFromSource_MalformedKeepsPreviousRecords(t *testing.T) {
	a := NewAnalytics(
		WithLogger(quietLogger()),
		WithOpener(stringOpener{
			"good.csv": sampleCSV,
			"bad.csv":  header + "A,c1,delivered,not-a-date,,x,SP,s1,y,SP,z,1,1.00,,\n",
		}),
	)
	ctx := context.Background()
	require.NoError(t, a.LoadFromSource(ctx, "good.csv"))

	err := a.LoadFromSource(ctx, "bad.csv")
	var malformed *store.MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "order_purchase_timestamp", malformed.Column)

	assert.Equal(t, "good.csv", a.Stats()["source"])
	assert.Equal(t, 3, a.View(store.DateRange{}).Len())
}

func TestLoadFromSource_OpenError(t *testing.T) {
	a := NewAnalytics(WithLogger(quietLogger()), WithOpener(stringOpener{}))
	assert.Error(t, a.LoadFromSource(context.Background(), "missing.csv"))
}

func TestAccessors(t *testing.T) {
	a := newLoaded(t)
	ctx := context.Background()
	all := store.DateRange{}

	daily, err := a.DailyOrders(ctx, all)
	require.NoError(t, err)
	assert.Len(t, daily, 2)

	geo, err := a.Geo(ctx, all, aggregate.SellerState)
	require.NoError(t, err)
	assert.Len(t, geo, 2)

	sales, err := a.CategorySales(ctx, all)
	require.NoError(t, err)
	require.NotEmpty(t, sales)
	assert.Equal(t, "informatica", sales[0].Category)

	reviews, err := a.CategoryReviews(ctx, all)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)

	summary, err := a.Summary(ctx, all)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.CategoryCount)

	bounds, ok := a.Bounds()
	require.True(t, ok)
	assert.Equal(t, day(2018, 1, 1), bounds.Start)
}

func BenchmarkDashboard(b *testing.B) {
	var sb strings.Builder
	sb.WriteString(header)
	for i := range 5000 {
		sb.WriteString("o")
		sb.WriteString(strings.Repeat("x", i%7))
		sb.WriteString(",c1,delivered,2018-01-0")
		sb.WriteByte(byte('1' + i%9))
		sb.WriteString(" 10:00:00,,sao paulo,SP,s1,campinas,SP,beleza_saude,1,10.00,r,4\n")
	}
	a := NewAnalytics(
		WithLogger(quietLogger()),
		WithOpener(stringOpener{"bench.csv": sb.String()}),
	)
	if err := a.LoadFromSource(context.Background(), "bench.csv"); err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := a.Dashboard(context.Background(), store.DateRange{}); err != nil {
			b.Fatal(err)
		}
	}
}
