// Package cache memoizes computed dashboards by key.
package cache

import "context"

// Cache stores values by key. A failing backend behaves as a miss.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, value T)
}

// Nop never stores anything.
type Nop[T any] struct{}

func (Nop[T]) Get(context.Context, string) (T, bool) {
	var zero T
	return zero, false
}

func (Nop[T]) Set(context.Context, string, T) {}
