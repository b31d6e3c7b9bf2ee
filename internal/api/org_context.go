package api

import (
	"context"
	"net/http"
)

// orgContextKey is the context key for the caller's organization id.
type orgContextKey struct{}

// OrgHeader carries the trusted organization identity, injected by the
// upstream auth layer. The engine does not re-validate it; tenant scoping
// downstream relies on it being correct.
const OrgHeader = "X-Org-ID"

// RequireOrg extracts the organization id into the request context and
// rejects requests that arrive without one.
func RequireOrg(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID := r.Header.Get(OrgHeader)
		if orgID == "" {
			http.Error(w, "missing organization identity", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), orgContextKey{}, orgID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OrgID returns the organization id stored by RequireOrg.
func OrgID(ctx context.Context) string {
	id, _ := ctx.Value(orgContextKey{}).(string)
	return id
}
