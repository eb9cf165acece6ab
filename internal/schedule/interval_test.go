package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pawsuite/reserve/internal/schedule"
	"github.com/pawsuite/reserve/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var intervalBase = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func at(h int) time.Time { return intervalBase.Add(time.Duration(h) * time.Hour) }

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                   string
		s1, e1, s2, e2         time.Time
		want                   bool
	}{
		{"identical", at(0), at(24), at(0), at(24), true},
		{"contained", at(0), at(48), at(12), at(24), true},
		{"partial left", at(0), at(24), at(12), at(36), true},
		{"partial right", at(12), at(36), at(0), at(24), true},
		{"disjoint", at(0), at(24), at(48), at(72), false},
		{"touching end-to-start", at(0), at(24), at(24), at(48), false},
		{"touching start-to-end", at(24), at(48), at(0), at(24), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.Overlaps(tt.s1, tt.e1, tt.s2, tt.e2))
		})
	}
}

func acquire(t *testing.T, ix *schedule.Index, tenantID, resourceID uuid.UUID) *schedule.LockedResource {
	t.Helper()
	locked, err := ix.Acquire(context.Background(), tenantID, resourceID)
	require.NoError(t, err)
	return locked
}

func TestIndex_InsertAndQuery(t *testing.T) {
	ix := schedule.NewIndex()
	tenantID, resourceID := uuid.New(), uuid.New()

	locked := acquire(t, ix, tenantID, resourceID)
	defer locked.Release()
	locked.Hydrate(nil)

	id1, id2 := uuid.New(), uuid.New()
	// Insert out of order; the index keeps spans sorted by start.
	locked.Insert(store.Span{ReservationID: id2, StartAt: at(48), EndAt: at(72)})
	locked.Insert(store.Span{ReservationID: id1, StartAt: at(0), EndAt: at(24)})

	assert.Equal(t, []uuid.UUID{id1}, locked.Overlapping(at(12), at(36), uuid.Nil))
	assert.Equal(t, []uuid.UUID{id1, id2}, locked.Overlapping(at(0), at(72), uuid.Nil))
	assert.Empty(t, locked.Overlapping(at(24), at(48), uuid.Nil), "gap between spans is free")
}

func TestIndex_TouchingBoundariesDoNotConflict(t *testing.T) {
	ix := schedule.NewIndex()
	tenantID, resourceID := uuid.New(), uuid.New()

	locked := acquire(t, ix, tenantID, resourceID)
	defer locked.Release()
	locked.Hydrate([]store.Span{{ReservationID: uuid.New(), StartAt: at(0), EndAt: at(24)}})

	assert.Empty(t, locked.Overlapping(at(24), at(48), uuid.Nil))
}

func TestIndex_OverlappingExcludesSelf(t *testing.T) {
	ix := schedule.NewIndex()
	tenantID, resourceID := uuid.New(), uuid.New()
	own := uuid.New()

	locked := acquire(t, ix, tenantID, resourceID)
	defer locked.Release()
	locked.Hydrate([]store.Span{{ReservationID: own, StartAt: at(0), EndAt: at(24)}})

	assert.Empty(t, locked.Overlapping(at(0), at(24), own))
	assert.Len(t, locked.Overlapping(at(0), at(24), uuid.Nil), 1)
}

func TestIndex_Remove(t *testing.T) {
	ix := schedule.NewIndex()
	tenantID, resourceID := uuid.New(), uuid.New()
	id := uuid.New()

	locked := acquire(t, ix, tenantID, resourceID)
	defer locked.Release()
	locked.Hydrate([]store.Span{{ReservationID: id, StartAt: at(0), EndAt: at(24)}})

	locked.Remove(id)
	assert.Empty(t, locked.Overlapping(at(0), at(24), uuid.Nil))

	// Removing an absent id is a no-op.
	locked.Remove(uuid.New())
}

func TestIndex_ResourcesAreIsolated(t *testing.T) {
	ix := schedule.NewIndex()
	tenantID := uuid.New()
	resA, resB := uuid.New(), uuid.New()

	la := acquire(t, ix, tenantID, resA)
	la.Hydrate([]store.Span{{ReservationID: uuid.New(), StartAt: at(0), EndAt: at(24)}})
	la.Release()

	// Resource B sees nothing from resource A.
	lb := acquire(t, ix, tenantID, resB)
	defer lb.Release()
	lb.Hydrate(nil)
	assert.Empty(t, lb.Overlapping(at(0), at(24), uuid.Nil))
}

func TestIndex_TenantsAreIsolated(t *testing.T) {
	ix := schedule.NewIndex()
	resourceID := uuid.New()
	tenantA, tenantB := uuid.New(), uuid.New()

	la := acquire(t, ix, tenantA, resourceID)
	la.Hydrate([]store.Span{{ReservationID: uuid.New(), StartAt: at(0), EndAt: at(24)}})
	la.Release()

	// Same resource id under another tenant is a distinct interval set.
	lb := acquire(t, ix, tenantB, resourceID)
	defer lb.Release()
	assert.False(t, lb.Hydrated())
}

func TestIndex_AcquireTimesOut(t *testing.T) {
	ix := schedule.NewIndex()
	tenantID, resourceID := uuid.New(), uuid.New()

	held := acquire(t, ix, tenantID, resourceID)
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := ix.Acquire(ctx, tenantID, resourceID)
	assert.ErrorIs(t, err, schedule.ErrLockTimeout)
}

func TestIndex_AcquireTwoReleasesFirstOnTimeout(t *testing.T) {
	ix := schedule.NewIndex()
	tenantID := uuid.New()
	resA, resB := uuid.New(), uuid.New()

	heldB := acquire(t, ix, tenantID, resB)
	defer heldB.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err := ix.AcquireTwo(ctx, tenantID, resA, resB)
	require.ErrorIs(t, err, schedule.ErrLockTimeout)

	// The first lock must have been released on failure.
	la, err := ix.Acquire(context.Background(), tenantID, resA)
	require.NoError(t, err)
	la.Release()
}

func TestIndex_AcquireTwoOrderIndependent(t *testing.T) {
	ix := schedule.NewIndex()
	tenantID := uuid.New()
	resA, resB := uuid.New(), uuid.New()

	// Acquiring (A, B) and (B, A) concurrently must not deadlock.
	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		first, second := resA, resB
		if i == 1 {
			first, second = resB, resA
		}
		go func() {
			for j := 0; j < 50; j++ {
				l1, l2, err := ix.AcquireTwo(context.Background(), tenantID, first, second)
				if err == nil {
					l2.Release()
					l1.Release()
				}
			}
			done <- struct{}{}
		}()
	}

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("deadlock: AcquireTwo did not complete")
		}
	}
}
