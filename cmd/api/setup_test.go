package main

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mandalnilabja/grokway/internal/storage"
	"github.com/mandalnilabja/grokway/internal/transport/http/middleware/auth"
)

func TestSyncAdminPassword(t *testing.T) {
	store, err := openStorage(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("openStorage() error: %v", err)
	}
	defer store.Close()

	logger := slog.New(slog.DiscardHandler)

	adminStatus := func(password string) int {
		handler := auth.AdminAuth(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, "/api/admin/info", nil)
		req.Header.Set("Authorization", "Bearer "+password)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if err := syncAdminPassword(store, "", logger); err != nil {
		t.Fatalf("syncAdminPassword() with empty password: %v", err)
	}
	if has, _ := store.HasAdminPassword(); has {
		t.Fatal("expected no admin password")
	}

	if err := syncAdminPassword(store, "old-secret", logger); err != nil {
		t.Fatalf("syncAdminPassword() error: %v", err)
	}
	hash, err := store.GetAdminPasswordHash()
	if err != nil {
		t.Fatalf("GetAdminPasswordHash() error: %v", err)
	}
	if ok, _ := storage.VerifyPassword("old-secret", hash); !ok {
		t.Error("stored hash does not verify")
	}
	if code := adminStatus("old-secret"); code != http.StatusOK {
		t.Fatalf("expected configured password to pass, got %d", code)
	}

	// Removing the password from config locks the admin API on next start.
	if err := syncAdminPassword(store, "", logger); err != nil {
		t.Fatalf("syncAdminPassword() clearing: %v", err)
	}
	if code := adminStatus("old-secret"); code != http.StatusUnauthorized {
		t.Errorf("expected 401 after removing the password, got %d", code)
	}
}
