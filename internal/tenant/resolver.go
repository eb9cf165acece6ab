// Package tenant resolves inbound tenant handles (subdomains or opaque
// identifiers) to tenant records, backed by a time-boxed cache.
package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pawsuite/reserve/internal/cache"
	"github.com/pawsuite/reserve/internal/store"
	"github.com/pawsuite/reserve/pkg/models"
)

var (
	// ErrUnknownTenant means the handle resolved to nothing.
	ErrUnknownTenant = errors.New("unknown tenant")
	// ErrTenantInactive means the tenant exists but is paused or disabled.
	ErrTenantInactive = errors.New("tenant is not active")
)

// Store is the subset of the data layer the resolver needs.
type Store interface {
	GetTenantByHandle(ctx context.Context, handle string) (*models.Tenant, error)
	UpdateTenantStatus(ctx context.Context, id uuid.UUID, status string) (*models.Tenant, error)
}

// Resolver maps external tenant handles to tenant records. Lookups hit the
// cache first; misses fall through to the store and populate the cache with
// a fixed TTL. Resolution is idempotent and safe to retry.
type Resolver struct {
	store Store
	cache cache.Cache
	ttl   time.Duration
}

// NewResolver creates a Resolver with the given cache TTL.
func NewResolver(s Store, c cache.Cache, ttl time.Duration) *Resolver {
	return &Resolver{store: s, cache: c, ttl: ttl}
}

// Resolve returns the tenant for handle. ErrUnknownTenant is returned for a
// handle that matches nothing; ErrTenantInactive for a paused or disabled
// tenant. Both are authentication failures to the caller — scheduling logic
// is never reached.
func (r *Resolver) Resolve(ctx context.Context, handle string) (*models.Tenant, error) {
	if handle == "" {
		return nil, ErrUnknownTenant
	}

	key := cache.TenantHandleKey(handle)
	if raw, found, err := r.cache.Get(ctx, key); err == nil && found {
		var t models.Tenant
		if err := json.Unmarshal(raw, &t); err == nil {
			return gate(&t)
		}
		// Corrupt entry: treat as a miss and overwrite below.
	} else if err != nil {
		// Cache failure is not fatal; resolution falls through to the store.
		slog.Warn("tenant cache read failed", "handle", handle, "error", err)
	}

	t, err := r.store.GetTenantByHandle(ctx, handle)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownTenant
	}
	if err != nil {
		return nil, fmt.Errorf("resolve tenant %q: %w", handle, err)
	}

	if raw, err := json.Marshal(t); err == nil {
		if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
			slog.Warn("tenant cache write failed", "handle", handle, "error", err)
		}
	}

	return gate(t)
}

// Invalidate drops the cache entry for handle. Called by every operation
// that mutates the tenant record, so status changes are visible before the
// TTL would expire them.
func (r *Resolver) Invalidate(ctx context.Context, handle string) error {
	return r.cache.Delete(ctx, cache.TenantHandleKey(handle))
}

// SetStatus transitions a tenant's lifecycle status and invalidates its
// cache entry.
func (r *Resolver) SetStatus(ctx context.Context, id uuid.UUID, status string) (*models.Tenant, error) {
	t, err := r.store.UpdateTenantStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if err := r.Invalidate(ctx, t.Handle); err != nil {
		slog.Warn("tenant cache invalidation failed", "handle", t.Handle, "error", err)
	}
	return t, nil
}

func gate(t *models.Tenant) (*models.Tenant, error) {
	if !t.Active() {
		return nil, fmt.Errorf("%w: %s", ErrTenantInactive, t.Status)
	}
	return t, nil
}
