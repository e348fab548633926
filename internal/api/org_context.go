package api

import (
	"context"
	"net/http"

	"github.com/ignite/mail-dispatch/internal/pkg/httputil"
)

type contextKey string

const orgIDKey contextKey = "org_id"

// RequireOrgContext extracts the caller's organization from the
// X-Organization-ID header and rejects requests without one. Verifying
// the caller's identity happens upstream (gateway/session layer); this
// middleware only carries the resolved org through the request context.
func RequireOrgContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID := r.Header.Get("X-Organization-ID")
		if orgID == "" {
			httputil.Error(w, http.StatusUnauthorized, "organization context required")
			return
		}
		ctx := context.WithValue(r.Context(), orgIDKey, orgID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OrgID returns the organization id carried in the request context.
func OrgID(ctx context.Context) string {
	id, _ := ctx.Value(orgIDKey).(string)
	return id
}
