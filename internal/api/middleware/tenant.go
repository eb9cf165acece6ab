package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/pawsuite/reserve/internal/api/response"
	"github.com/pawsuite/reserve/internal/tenant"
	"github.com/pawsuite/reserve/pkg/models"
)

// TenantHeader overrides subdomain-based resolution; API clients without a
// per-tenant hostname set it directly.
const TenantHeader = "X-Tenant"

// Resolver is the slice of the tenant resolver the middleware needs.
type Resolver interface {
	Resolve(ctx context.Context, handle string) (*models.Tenant, error)
}

// Tenant resolves the inbound tenant handle and stores the tenant id in the
// request context. An absent or unresolvable handle is an authentication
// failure; no request reaches scheduling logic without a resolved tenant.
type Tenant struct {
	resolver Resolver
}

// NewTenant creates the tenant-resolution middleware.
func NewTenant(r Resolver) *Tenant {
	return &Tenant{resolver: r}
}

func (t *Tenant) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handle := extractHandle(r)
		if handle == "" {
			response.Error(w, http.StatusUnauthorized,
				"UNKNOWN_TENANT", "Missing tenant identifier", nil)
			return
		}

		resolved, err := t.resolver.Resolve(r.Context(), handle)
		if err != nil {
			switch {
			case errors.Is(err, tenant.ErrUnknownTenant):
				response.Error(w, http.StatusUnauthorized,
					"UNKNOWN_TENANT", "Tenant could not be resolved", nil)
			case errors.Is(err, tenant.ErrTenantInactive):
				response.Error(w, http.StatusUnauthorized,
					"TENANT_INACTIVE", "Tenant is not active", nil)
			default:
				response.Error(w, http.StatusInternalServerError,
					"INTERNAL_ERROR", "Tenant resolution failed", nil)
			}
			return
		}

		ctx := SetTenantID(r.Context(), resolved.ID)
		ctx = setTenantHandle(ctx, resolved.Handle)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractHandle prefers the X-Tenant header and falls back to the first
// label of the Host ("sunnypaws.pawsuite.io" -> "sunnypaws"). A bare host
// with no subdomain yields nothing.
func extractHandle(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get(TenantHeader)); h != "" {
		return h
	}

	host := r.Host
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[0]
}
