package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	tenantIDKey     contextKey = "tenant_id"
	tenantHandleKey contextKey = "tenant_handle"
)

func SetTenantID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantIDKey, id)
}

func GetTenantID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(tenantIDKey).(uuid.UUID)
	return id, ok
}

func setTenantHandle(ctx context.Context, handle string) context.Context {
	return context.WithValue(ctx, tenantHandleKey, handle)
}

func GetTenantHandle(r *http.Request) (string, bool) {
	handle, ok := r.Context().Value(tenantHandleKey).(string)
	return handle, ok
}
