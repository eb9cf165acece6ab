package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func TenantHandleKey(handle string) string {
	return fmt.Sprintf("tenant:handle:%s", handle)
}

func RateLimitKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("ratelimit:%s", tenantID)
}

// NotifyQueueKey is the Redis list that reservation events are pushed onto
// for the downstream notification worker.
const NotifyQueueKey = "notify:reservation-events"
