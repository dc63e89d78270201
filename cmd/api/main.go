package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mandalnilabja/grokway/internal/app"
	"github.com/mandalnilabja/grokway/internal/config"
	"github.com/mandalnilabja/grokway/internal/metrics"
	"github.com/mandalnilabja/grokway/internal/provider"
	"github.com/mandalnilabja/grokway/internal/provider/grok"
	"github.com/mandalnilabja/grokway/internal/telemetry"
	"github.com/mandalnilabja/grokway/internal/tokenizer"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler/admin"
	"github.com/mandalnilabja/grokway/internal/transport/http/middleware/ratelimit"
)

// shutdownTimeout bounds how long in-flight streams may finish on exit.
const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "grokway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if err := config.EnsureConfigFile(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration (%s): %w", config.ConfigPath(), err)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.EnableTracing {
		shutdownTracer, err := telemetry.InitTracer("grokway", logger)
		if err != nil {
			return fmt.Errorf("failed to init tracer: %w", err)
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Warn("tracer shutdown failed", "error", err)
			}
		}()
	}

	store, err := openStorage(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	if err := syncAdminPassword(store, cfg.AdminPassword, logger); err != nil {
		return err
	}

	statsCache, err := admin.NewStatsCache()
	if err != nil {
		return fmt.Errorf("failed to create stats cache: %w", err)
	}
	defer statsCache.Close()

	client := grok.NewClient(cfg.Upstream, nil)
	router := provider.NewRouter(grok.New(client, logger), cfg.Models)
	m := metrics.New()

	repo := handler.NewRepo(handler.Deps{
		Router:     router,
		Storage:    store,
		Tokenizer:  tokenizer.New(),
		Metrics:    m,
		StatsCache: statsCache,
		Logger:     logger,
	})

	limiter := ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	go runJanitor(ctx, limiter, logger)

	h := app.NewRouter(repo, &app.RouterOptions{
		Logger:         logger,
		Storage:        store,
		Limiter:        limiter,
		Metrics:        m,
		RequestTimeout: cfg.RequestTimeout,
		EnableTracing:  cfg.EnableTracing,
	})
	srv := app.NewServer(cfg, h, logger)

	printStartupBanner(cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
