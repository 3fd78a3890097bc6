package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"ecom-dashboard/internal/config"
)

// hookTimeout bounds each shutdown hook.
const hookTimeout = 10 * time.Second

type shutdownHook struct {
	name string
	fn   func(ctx context.Context) error
}

// GracefulServer drains in-flight requests on cancellation and then runs
// its shutdown hooks in registration order.
type GracefulServer struct {
	server *http.Server
	logger *slog.Logger
	config config.ServerConfig
	hooks  []shutdownHook
	mu     sync.Mutex
}

func NewGracefulServer(server *http.Server, logger *slog.Logger, cfg config.ServerConfig) *GracefulServer {
	return &GracefulServer{
		server: server,
		logger: logger,
		config: cfg,
	}
}

func (gs *GracefulServer) RegisterShutdownHook(name string, fn func(ctx context.Context) error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, shutdownHook{name: name, fn: fn})
}

// ListenAndServe serves until ctx is canceled, typically by a signal.
func (gs *GracefulServer) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", gs.server.Addr, err)
	}
	return gs.Serve(ctx, ln)
}

func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	serverErrors := make(chan error, 1)

	go func() {
		gs.logger.Info("starting server",
			"addr", ln.Addr().String(),
			"read_timeout", gs.config.ReadTimeout,
			"write_timeout", gs.config.WriteTimeout,
		)
		serverErrors <- gs.server.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		gs.logger.Info("shutdown signal received", "cause", context.Cause(ctx))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), gs.config.ShutdownTimeout)
		defer cancel()

		return gs.shutdown(shutdownCtx)
	}
}

func (gs *GracefulServer) shutdown(ctx context.Context) error {
	gs.logger.Info("starting graceful shutdown", "timeout", gs.config.ShutdownTimeout)

	var errs []error
	if err := gs.server.Shutdown(ctx); err != nil {
		gs.logger.Error("HTTP server shutdown failed", "error", err)
		errs = append(errs, fmt.Errorf("HTTP server shutdown failed: %w", err))
	} else {
		gs.logger.Info("HTTP server stopped gracefully")
	}

	gs.mu.Lock()
	hooks := append([]shutdownHook(nil), gs.hooks...)
	gs.mu.Unlock()

	for _, hook := range hooks {
		hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
		gs.logger.Debug("executing shutdown hook", "hook", hook.name)
		if err := hook.fn(hookCtx); err != nil {
			gs.logger.Error("shutdown hook failed", "hook", hook.name, "error", err)
			errs = append(errs, fmt.Errorf("shutdown hook %s failed: %w", hook.name, err))
		}
		cancel()
	}

	gs.logger.Info("graceful shutdown completed")
	return errors.Join(errs...)
}
