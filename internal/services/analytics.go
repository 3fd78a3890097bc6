package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"ecom-dashboard/internal/aggregate"
	"ecom-dashboard/internal/cache"
	"ecom-dashboard/internal/models"
	"ecom-dashboard/internal/observability"
	"ecom-dashboard/internal/source"
	"ecom-dashboard/internal/store"
)

// Dashboard is everything the UI shows for one date range.
type Dashboard struct {
	Range       store.DateRange  `json:"range"`
	RecordCount int              `json:"record_count"`
	Summary     models.Summary   `json:"summary"`
	Tables      aggregate.Tables `json:"tables"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Opener turns a source URI into a CSV stream.
type Opener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

type Option func(*Analytics)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) { a.logger = logger }
}

// WithCache memoizes dashboards. Cached values are shared and must be
// treated as read-only.
func WithCache(c cache.Cache[*Dashboard]) Option {
	return func(a *Analytics) { a.cache = c }
}

func WithRFMOptions(opts aggregate.RFMOptions) Option {
	return func(a *Analytics) { a.rfm = opts }
}

func WithOpener(o Opener) Option {
	return func(a *Analytics) { a.opener = o }
}

type Analytics struct {
	mu       sync.RWMutex
	base     *store.RecordSet
	version  string
	source   string
	loadedAt time.Time

	cache  cache.Cache[*Dashboard]
	opener Opener
	rfm    aggregate.RFMOptions
	logger *slog.Logger

	builds atomic.Int64
	hits   atomic.Int64
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		cache:  cache.Nop[*Dashboard]{},
		opener: &source.Opener{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	empty := store.NewRecordSet(nil)
	a.base, a.version = empty, empty.Fingerprint()
	return a
}

// SetRecords replaces the base record set. Cache keys carry the content
// fingerprint, so replicas holding the same records share cached dashboards
// and entries for the previous set are never served again.
func (a *Analytics) SetRecords(set *store.RecordSet) {
	a.setRecords(set, "")
}

func (a *Analytics) setRecords(set *store.RecordSet, source string) {
	version := set.Fingerprint()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.base = set
	a.version = version
	a.source = source
	a.loadedAt = time.Now()
}

// LoadFromSource reads and validates the whole source before replacing the
// current records. A malformed source leaves the service unchanged.
func (a *Analytics) LoadFromSource(ctx context.Context, uri string) (err error) {
	ctx, span := observability.StartSpan(ctx, "load_records")
	span.SetTag("source", uri)
	defer func() {
		span.SetError(err)
		span.End(ctx, a.logger)
	}()

	start := time.Now()
	a.logger.Info("loading records", "source", uri)

	rc, err := a.opener.Open(ctx, uri)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer rc.Close()

	set, err := store.Load(ctx, rc)
	if err != nil {
		return fmt.Errorf("load %s: %w", uri, err)
	}

	a.setRecords(set, uri)

	duration := time.Since(start)
	a.logger.Info("records loaded",
		"records", set.Len(),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(set.Len())/duration.Seconds()))
	return nil
}

func (a *Analytics) snapshot() (*store.RecordSet, string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.base, a.version
}

// View is the request-scoped window for r.
func (a *Analytics) View(r store.DateRange) *store.View {
	base, _ := a.snapshot()
	return base.View(r)
}

// Bounds is the observed purchase-day range. ok is false before any record
// is loaded.
func (a *Analytics) Bounds() (store.DateRange, bool) {
	base, _ := a.snapshot()
	first, last, ok := base.Bounds()
	return store.DateRange{Start: first, End: last}, ok
}

// Dashboard computes every table and the summary for r. Results are
// memoized per resolved range.
func (a *Analytics) Dashboard(ctx context.Context, r store.DateRange) (*Dashboard, error) {
	base, version := a.snapshot()
	view := base.View(r)
	key := a.cacheKey(version, view.Range)

	if d, ok := a.cache.Get(ctx, key); ok {
		a.hits.Add(1)
		return d, nil
	}

	d, err := a.build(ctx, view)
	if err != nil {
		return nil, err
	}
	a.cache.Set(ctx, key, d)
	return d, nil
}

func (a *Analytics) cacheKey(version string, r store.DateRange) string {
	key := version + ":" + r.Key()
	if a.rfm.ExcludeCanceled {
		key += ":rfm-excl"
	}
	return key
}

func (a *Analytics) build(ctx context.Context, view *store.View) (d *Dashboard, err error) {
	ctx, span := observability.StartSpan(ctx, "build_dashboard")
	span.SetTag("range", view.Range.Key())
	defer func() {
		span.SetError(err)
		span.End(ctx, a.logger)
	}()

	a.builds.Add(1)
	records := view.Records()
	var t aggregate.Tables

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t.DailyOrders = aggregate.DailyOrders(records)
		return gctx.Err()
	})
	g.Go(func() error {
		t.CustomerCities = aggregate.GeoCount(records, aggregate.CustomerCity)
		return gctx.Err()
	})
	g.Go(func() error {
		t.CustomerStates = aggregate.GeoCount(records, aggregate.CustomerState)
		return gctx.Err()
	})
	g.Go(func() error {
		t.SellerCities = aggregate.GeoCount(records, aggregate.SellerCity)
		return gctx.Err()
	})
	g.Go(func() error {
		t.SellerStates = aggregate.GeoCount(records, aggregate.SellerState)
		return gctx.Err()
	})
	g.Go(func() error {
		t.CategorySales = aggregate.CategorySales(records)
		return gctx.Err()
	})
	g.Go(func() error {
		t.CategoryReviews = aggregate.CategoryReviews(records)
		return gctx.Err()
	})
	g.Go(func() error {
		maxDay, _ := aggregate.LatestDay(records, a.rfm)
		t.RegionRFM = aggregate.RegionRFM(records, maxDay, a.rfm)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build dashboard %s: %w", view.Range, err)
	}

	return &Dashboard{
		Range:       view.Range,
		RecordCount: view.Len(),
		Summary:     aggregate.Summarize(t),
		Tables:      t,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func (a *Analytics) Summary(ctx context.Context, r store.DateRange) (models.Summary, error) {
	d, err := a.Dashboard(ctx, r)
	if err != nil {
		return models.Summary{}, err
	}
	return d.Summary, nil
}

func (a *Analytics) DailyOrders(ctx context.Context, r store.DateRange) ([]models.DailyOrders, error) {
	d, err := a.Dashboard(ctx, r)
	if err != nil {
		return nil, err
	}
	return d.Tables.DailyOrders, nil
}

func (a *Analytics) Geo(ctx context.Context, r store.DateRange, dim aggregate.Dimension) ([]models.GeoCount, error) {
	d, err := a.Dashboard(ctx, r)
	if err != nil {
		return nil, err
	}
	return d.Tables.Geo(dim), nil
}

func (a *Analytics) CategorySales(ctx context.Context, r store.DateRange) ([]models.CategorySales, error) {
	d, err := a.Dashboard(ctx, r)
	if err != nil {
		return nil, err
	}
	return d.Tables.CategorySales, nil
}

func (a *Analytics) CategoryReviews(ctx context.Context, r store.DateRange) ([]models.CategoryReview, error) {
	d, err := a.Dashboard(ctx, r)
	if err != nil {
		return nil, err
	}
	return d.Tables.CategoryReviews, nil
}

func (a *Analytics) RegionRFM(ctx context.Context, r store.DateRange) ([]models.RegionRFM, error) {
	d, err := a.Dashboard(ctx, r)
	if err != nil {
		return nil, err
	}
	return d.Tables.RegionRFM, nil
}

func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"record_count":         a.base.Len(),
		"source":               a.source,
		"dashboards_built":     a.builds.Load(),
		"cache_hits":           a.hits.Load(),
		"rfm_exclude_canceled": a.rfm.ExcludeCanceled,
	}
	if !a.loadedAt.IsZero() {
		stats["loaded_at"] = a.loadedAt.Format(time.RFC3339)
	}
	if first, last, ok := a.base.Bounds(); ok {
		stats["first_day"] = first.Format(store.DateLayout)
		stats["last_day"] = last.Format(store.DateLayout)
	}
	return stats
}
