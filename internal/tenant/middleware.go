package tenant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/covenant-hq/covenant/internal/platform/httpx"
)

type contextKey struct{}

// FromContext returns the tenant resolved by Middleware.
func FromContext(ctx context.Context) (Tenant, bool) {
	t, ok := ctx.Value(contextKey{}).(Tenant)
	return t, ok
}

// Middleware resolves the {tenantID} route parameter, rejects unknown or
// disabled tenants, and stores the tenant on the request context.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "tenantID")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Tenant", "tenant id must be a positive integer")
			return
		}
		t, err := s.Require(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				httpx.RespondError(w, fmt.Errorf("%w: tenant %d", httpx.ErrNotFound, id))
			case errors.Is(err, ErrDisabled):
				httpx.RespondError(w, fmt.Errorf("%w: tenant %d is disabled", httpx.ErrForbidden, id))
			default:
				httpx.RespondError(w, err)
			}
			return
		}
		ctx := context.WithValue(r.Context(), contextKey{}, t)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
