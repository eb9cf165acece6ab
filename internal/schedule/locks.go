package schedule

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Acquire locks the interval set for (tenantID, resourceID). It blocks until
// the lock is free or ctx is done; a timed-out acquisition fails with
// ErrLockTimeout having applied nothing.
func (ix *Index) Acquire(ctx context.Context, tenantID, resourceID uuid.UUID) (*LockedResource, error) {
	e := ix.entryFor(indexKey{tenantID: tenantID, resourceID: resourceID})
	select {
	case e.lock <- struct{}{}:
		return &LockedResource{entry: e}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: resource %s", ErrLockTimeout, resourceID)
	}
}

// AcquireTwo locks two resources of the same tenant in a stable global
// order, so concurrent cross-resource moves cannot deadlock. The resources
// must be distinct.
func (ix *Index) AcquireTwo(ctx context.Context, tenantID, first, second uuid.UUID) (*LockedResource, *LockedResource, error) {
	a, b := first, second
	swapped := false
	if keyLess(second, first) {
		a, b = second, first
		swapped = true
	}

	la, err := ix.Acquire(ctx, tenantID, a)
	if err != nil {
		return nil, nil, err
	}
	lb, err := ix.Acquire(ctx, tenantID, b)
	if err != nil {
		la.Release()
		return nil, nil, err
	}

	if swapped {
		return lb, la, nil
	}
	return la, lb, nil
}

func keyLess(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
