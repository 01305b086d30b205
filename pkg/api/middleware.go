package api

import (
	"net/http"
	"strings"

	"github.com/biointellect/caregate/pkg/portal"
)

// ActivityMiddleware refreshes the session activity timestamp on every
// authenticated request to a non-auth endpoint, so ordinary portal use
// keeps the inactivity watchdog at bay.
func ActivityMiddleware(manager *portal.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Sign-in and sign-out manage the timestamp themselves.
			if !strings.HasPrefix(r.URL.Path, "/api/v1/auth/sign") {
				manager.RecordActivity(r.Context())
			}
			next.ServeHTTP(w, r)
		})
	}
}
