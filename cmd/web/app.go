package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"ecom-dashboard/internal/aggregate"
	"ecom-dashboard/internal/cache"
	"ecom-dashboard/internal/config"
	"ecom-dashboard/internal/services"
	"ecom-dashboard/internal/source"
)

const (
	redisKeyPrefix   = "ecom-dashboard:dashboard:"
	redisPingTimeout = 2 * time.Second
)

// app is the loaded analytics service and the resources it holds.
type app struct {
	analytics *services.Analytics
	close     func(ctx context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	dashboards, closeCache, err := newDashboardCache(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	analytics := services.NewAnalytics(
		services.WithLogger(logger),
		services.WithCache(dashboards),
		services.WithRFMOptions(aggregate.RFMOptions{ExcludeCanceled: cfg.Data.RFMExcludeCanceled}),
		services.WithOpener(&source.Opener{Region: cfg.Data.AWSRegion}),
	)

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Data.LoadTimeout)
	defer cancel()

	if err := analytics.LoadFromSource(loadCtx, cfg.Data.Source); err != nil {
		closeCache(context.Background())
		return nil, err
	}

	return &app{analytics: analytics, close: closeCache}, nil
}

// newDashboardCache builds the configured cache. An unreachable Redis is
// logged and used anyway; its failures are cache misses.
func newDashboardCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (cache.Cache[*services.Dashboard], func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Backend {
	case config.CacheNone:
		return cache.Nop[*services.Dashboard]{}, noop, nil
	case config.CacheMemory:
		return cache.NewLRU[*services.Dashboard](cfg.Size, cfg.TTL), noop, nil
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, dashboards will be recomputed", "addr", cfg.RedisAddr, "error", err)
		}

		closeFn := func(context.Context) error { return client.Close() }
		return cache.NewRedis[*services.Dashboard](client, redisKeyPrefix, cfg.TTL, logger), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
