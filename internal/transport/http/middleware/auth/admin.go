// Package auth provides authentication middleware for HTTP routes.
package auth

import (
	"net/http"
	"strings"

	"github.com/mandalnilabja/grokway/internal/storage"
	"github.com/mandalnilabja/grokway/internal/types"
)

// AdminAuth protects admin routes with the stored Argon2id password hash.
// Requests must send "Authorization: Bearer <admin password>".
func AdminAuth(store storage.Storage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			password, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || password == "" {
				writeUnauthorized(w, "authorization required")
				return
			}

			hash, err := store.GetAdminPasswordHash()
			if err != nil {
				writeUnauthorized(w, "server error")
				return
			}
			if hash == "" {
				writeUnauthorized(w, "admin not configured")
				return
			}

			valid, err := storage.VerifyPassword(password, hash)
			if err != nil || !valid {
				writeUnauthorized(w, "invalid credentials")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	types.WriteError(w, http.StatusUnauthorized, types.NewAPIError(message, types.ErrorTypeAuthentication))
}
