package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mandalnilabja/grokway/internal/storage"
	"github.com/mandalnilabja/grokway/internal/transport/http/middleware/ratelimit"
)

// openStorage opens the SQLite database, creating its directory on first run.
func openStorage(dbPath string) (storage.Storage, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return storage.NewSQLiteStorage(dbPath)
}

// syncAdminPassword makes the stored hash follow the configured admin
// password. With none configured the admin API is locked.
func syncAdminPassword(store storage.Storage, password string, logger *slog.Logger) error {
	changed, err := storage.SyncAdminPassword(store, password)
	if err != nil {
		return fmt.Errorf("failed to sync admin password: %w", err)
	}

	switch {
	case password == "" && changed:
		logger.Info("admin API disabled: stored admin password removed")
	case password == "":
		logger.Info("admin API disabled: no admin_password configured")
	case changed:
		logger.Info("admin password updated from configuration")
	}
	return nil
}

// runJanitor sweeps expired rate-limit windows once per window until ctx ends.
func runJanitor(ctx context.Context, limiter *ratelimit.Limiter, logger *slog.Logger) {
	ticker := time.NewTicker(limiter.Period())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(); n > 0 {
				logger.Debug("swept rate limit windows", "count", n)
			}
		}
	}
}
