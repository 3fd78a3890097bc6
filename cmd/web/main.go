package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"ecom-dashboard/internal/config"
	"ecom-dashboard/internal/middleware"
	"ecom-dashboard/internal/observability"
	"ecom-dashboard/internal/server"
	"ecom-dashboard/internal/store"
	"ecom-dashboard/internal/ui/format"
)

const (
	version       = "1.0.0"
	sweepInterval = time.Minute
)

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var source string

	root := &cobra.Command{
		Use:          "ecom-dashboard",
		Short:        "E-commerce order analytics dashboard",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), source)
		},
	}
	root.PersistentFlags().StringVar(&source, "source", "", "CSV source: path, file:// or s3://bucket/key (overrides DATA_SOURCE)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), source)
		},
	}

	var start, end string
	report := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard for a date range as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(source)
			if err != nil {
				return err
			}
			logger := observability.NewLoggerTo(cfg.Logger, cmd.ErrOrStderr())
			return runReport(cmd.Context(), cfg, logger, cmd.OutOrStdout(), start, end)
		},
	}
	report.Flags().StringVar(&start, "start", "", "first purchase day, YYYY-MM-DD (default: earliest)")
	report.Flags().StringVar(&end, "end", "", "last purchase day, YYYY-MM-DD (default: latest)")

	root.AddCommand(serve, report)
	return root
}

func loadConfig(source string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if source != "" {
		cfg.Data.Source = source
	}
	return cfg, nil
}

func runServe(ctx context.Context, source string) error {
	cfg, err := loadConfig(source)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"config", cfg,
	)

	formatter, err := format.New(cfg.Display.Currency, cfg.Display.Locale)
	if err != nil {
		return err
	}

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to load records", "error", err)
		return err
	}

	srv := server.NewServer(app.analytics, formatter, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	go rateLimiter.Run(ctx, sweepInterval)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      middlewareChain(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)
	gracefulServer.RegisterShutdownHook("dashboard cache", app.close)

	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		return err
	}

	logger.Info("application stopped gracefully")
	return nil
}

func runReport(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, start, end string) error {
	dr, err := store.ParseDateRange(start, end)
	if err != nil {
		return err
	}

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.close(context.Background())

	dashboard, err := app.analytics.Dashboard(ctx, dr)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(dashboard)
}
