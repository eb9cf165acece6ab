// Package notify hands committed scheduling decisions off to the external
// notification collaborator. Delivery (email/SMS) happens downstream; a
// failed hand-off never rolls back the scheduling decision.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pawsuite/reserve/internal/cache"
	"github.com/redis/go-redis/v9"
)

// Event kinds.
const (
	KindBooked    = "booked"
	KindModified  = "modified"
	KindCancelled = "cancelled"
)

// Event describes one committed reservation change.
type Event struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	Kind          string    `json:"kind"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Notifier hands events off for delivery.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

// RedisNotifier pushes events onto a Redis list consumed by the delivery
// worker.
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier creates a RedisNotifier on an existing client.
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.client.LPush(ctx, cache.NotifyQueueKey, payload).Err()
}
