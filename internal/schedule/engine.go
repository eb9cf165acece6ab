package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pawsuite/reserve/internal/config"
	"github.com/pawsuite/reserve/internal/notify"
	"github.com/pawsuite/reserve/internal/pricing"
	"github.com/pawsuite/reserve/internal/store"
	"github.com/pawsuite/reserve/pkg/models"
)

// storeRetryAttempts bounds automatic retries of transient storage failures.
// Overlap, duplicate, and not-found outcomes are never retried.
const storeRetryAttempts = 3

// Engine is the scheduling core. It serializes all read-then-write
// sequences per (tenant, resource) through the interval index locks and
// keeps the index and the persistent store in step: the store commit
// happens under the resource lock, and the index is only mutated after the
// commit succeeds.
type Engine struct {
	store    store.Store
	index    *Index
	notifier notify.Notifier

	noticeWindow time.Duration
	lockTimeout  time.Duration
	now          func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(s store.Store, ix *Index, n notify.Notifier, cfg config.ScheduleConfig) *Engine {
	return &Engine{
		store:        s,
		index:        ix,
		notifier:     n,
		noticeWindow: cfg.ModificationNotice,
		lockTimeout:  cfg.LockTimeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CreateParams describes a booking request.
type CreateParams struct {
	PetID      uuid.UUID
	CustomerID uuid.UUID
	StartAt    time.Time
	EndAt      time.Time

	// ResourceID selects a specific resource. Leave it zero and set
	// ResourceType instead to request any available resource of that type.
	ResourceID   uuid.UUID
	ResourceType string

	// ExternalID marks a reservation migrated from an external system;
	// such reservations are created already confirmed.
	ExternalID *string
	Actor      string
}

// ModifyParams describes a date and/or resource change. Nil and zero fields
// keep the current value.
type ModifyParams struct {
	NewStartAt    *time.Time
	NewEndAt      *time.Time
	NewResourceID uuid.UUID
	Actor         string
}

// ModifyResult carries the updated reservation and the price difference.
// A positive delta is owed by the customer, a negative one is a refund;
// the engine never applies it — settling is the caller's concern.
type ModifyResult struct {
	Reservation     *models.Reservation
	PriceDeltaCents int64
}

// CancelResult reports the refund computed at cancellation time. Executing
// the payment refund is an external collaborator's job.
type CancelResult struct {
	Reservation       *models.Reservation
	RefundPercent     int
	RefundAmountCents int64
}

// CreateReservation admits a new reservation. With an explicit ResourceID
// the request fails on conflict, reporting the conflicting reservation ids.
// With a ResourceType the engine walks active resources of that type in
// name order and takes the first one free for the span (first-fit), failing
// with ErrCapacityExhausted when none qualifies.
func (e *Engine) CreateReservation(ctx context.Context, tenantID uuid.UUID, p CreateParams) (*models.Reservation, error) {
	if !p.StartAt.Before(p.EndAt) {
		return nil, ErrInvalidSpan
	}

	if _, err := e.store.GetCustomer(ctx, p.CustomerID, tenantID); err != nil {
		return nil, err
	}
	pet, err := e.store.GetPet(ctx, p.PetID, tenantID)
	if err != nil {
		return nil, err
	}
	if pet.CustomerID != p.CustomerID {
		return nil, store.ErrNotFound
	}

	// All pricing inputs are fetched before any resource lock is taken.
	rules, err := e.store.GetRateRules(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	explicit := p.ResourceID != uuid.Nil
	var candidates []*models.Resource
	if explicit {
		res, err := e.store.GetResource(ctx, p.ResourceID, tenantID)
		if err != nil {
			return nil, err
		}
		if !res.Active {
			return nil, store.ErrNotFound
		}
		candidates = []*models.Resource{res}
	} else {
		candidates, err = e.store.ListActiveResources(ctx, tenantID, p.ResourceType)
		if err != nil {
			return nil, err
		}
	}

	nights := pricing.Nights(p.StartAt, p.EndAt)
	status := models.ReservationStatusPending
	if p.ExternalID != nil {
		status = models.ReservationStatusConfirmed
	}

	for _, res := range candidates {
		r, err := e.tryReserve(ctx, tenantID, res, p, nights, rules, status)
		if err != nil {
			var conflict *ConflictError
			if errors.As(err, &conflict) && !explicit {
				continue // first-fit: try the next resource
			}
			return nil, err
		}
		e.publish(ctx, r.ID, tenantID, notify.KindBooked)
		return r, nil
	}

	return nil, ErrCapacityExhausted
}

// tryReserve runs the check-then-commit sequence for one resource under its
// lock: overlap query, store insert, index insert.
func (e *Engine) tryReserve(ctx context.Context, tenantID uuid.UUID, res *models.Resource,
	p CreateParams, nights int, rules []models.RateRule, status string) (*models.Reservation, error) {

	locked, err := e.acquire(ctx, tenantID, res.ID)
	if err != nil {
		return nil, err
	}
	defer locked.Release()

	if err := e.hydrate(ctx, locked, tenantID, res.ID); err != nil {
		return nil, err
	}

	if ids := locked.Overlapping(p.StartAt, p.EndAt, uuid.Nil); len(ids) > 0 {
		return nil, &ConflictError{ResourceID: res.ID, ConflictingIDs: ids}
	}

	now := e.now()
	r := &models.Reservation{
		ID:              uuid.New(),
		TenantID:        tenantID,
		ResourceID:      res.ID,
		PetID:           p.PetID,
		CustomerID:      p.CustomerID,
		ExternalID:      p.ExternalID,
		StartAt:         p.StartAt.UTC(),
		EndAt:           p.EndAt.UTC(),
		Status:          status,
		TotalPriceCents: pricing.ComputePrice(nights, res.BaseRateCents, rules),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := e.createWithRetry(ctx, r); err != nil {
		if errors.Is(err, store.ErrOverlap) {
			// A writer outside this process committed first.
			return nil, &ConflictError{ResourceID: res.ID}
		}
		return nil, err
	}

	locked.Insert(store.Span{ReservationID: r.ID, StartAt: r.StartAt, EndAt: r.EndAt})
	return r, nil
}

// ModifyReservation changes a reservation's dates and/or resource. The
// reservation must be pending or confirmed, and the request must arrive
// more than the notice window before the *current* start — what the new
// dates would be does not matter. The original interval is only released
// when the new one has committed; a failed check leaves everything as it
// was.
func (e *Engine) ModifyReservation(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, p ModifyParams) (*ModifyResult, error) {
	r, err := e.store.GetReservation(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if r.Status != models.ReservationStatusPending && r.Status != models.ReservationStatusConfirmed {
		return nil, &PolicyViolationError{Reason: fmt.Sprintf("reservation in status %s cannot be modified", r.Status)}
	}

	deadline := r.StartAt.Add(-e.noticeWindow)
	if !e.now().Before(deadline) {
		return nil, &PolicyViolationError{Reason: "modification requested inside the notice window", Deadline: deadline}
	}

	newStart, newEnd := r.StartAt, r.EndAt
	if p.NewStartAt != nil {
		newStart = p.NewStartAt.UTC()
	}
	if p.NewEndAt != nil {
		newEnd = p.NewEndAt.UTC()
	}
	if !newStart.Before(newEnd) {
		return nil, ErrInvalidSpan
	}

	targetID := r.ResourceID
	if p.NewResourceID != uuid.Nil {
		targetID = p.NewResourceID
	}
	target, err := e.store.GetResource(ctx, targetID, tenantID)
	if err != nil {
		return nil, err
	}
	if targetID != r.ResourceID && !target.Active {
		return nil, store.ErrNotFound
	}

	rules, err := e.store.GetRateRules(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	newPrice := pricing.ComputePrice(pricing.Nights(newStart, newEnd), target.BaseRateCents, rules)

	actor := p.Actor
	if actor == "" {
		actor = models.ActorCustomer
	}
	move := store.ReservationMove{
		NewResourceID: targetID,
		NewStartAt:    newStart,
		NewEndAt:      newEnd,
		NewPriceCents: newPrice,
		Actor:         actor,
	}

	if targetID == r.ResourceID {
		err = e.moveWithinResource(ctx, tenantID, r, move)
	} else {
		err = e.moveAcrossResources(ctx, tenantID, r, move)
	}
	if err != nil {
		return nil, err
	}

	delta := newPrice - r.TotalPriceCents
	r.ResourceID = targetID
	r.StartAt = newStart
	r.EndAt = newEnd
	r.TotalPriceCents = newPrice

	e.publish(ctx, r.ID, tenantID, notify.KindModified)
	return &ModifyResult{Reservation: r, PriceDeltaCents: delta}, nil
}

func (e *Engine) moveWithinResource(ctx context.Context, tenantID uuid.UUID, r *models.Reservation, move store.ReservationMove) error {
	locked, err := e.acquire(ctx, tenantID, r.ResourceID)
	if err != nil {
		return err
	}
	defer locked.Release()

	if err := e.hydrate(ctx, locked, tenantID, r.ResourceID); err != nil {
		return err
	}

	// The reservation's own interval is excluded from the conflict set.
	if ids := locked.Overlapping(move.NewStartAt, move.NewEndAt, r.ID); len(ids) > 0 {
		return &ConflictError{ResourceID: r.ResourceID, ConflictingIDs: ids}
	}

	if err := e.store.MoveReservation(ctx, r.ID, tenantID, move); err != nil {
		if errors.Is(err, store.ErrOverlap) {
			return &ConflictError{ResourceID: move.NewResourceID}
		}
		return err
	}

	locked.Remove(r.ID)
	locked.Insert(store.Span{ReservationID: r.ID, StartAt: move.NewStartAt, EndAt: move.NewEndAt})
	return nil
}

func (e *Engine) moveAcrossResources(ctx context.Context, tenantID uuid.UUID, r *models.Reservation, move store.ReservationMove) error {
	lockCtx, cancel := context.WithTimeout(ctx, e.lockTimeout)
	defer cancel()

	lockedOld, lockedNew, err := e.index.AcquireTwo(lockCtx, tenantID, r.ResourceID, move.NewResourceID)
	if err != nil {
		return err
	}
	defer lockedOld.Release()
	defer lockedNew.Release()

	if err := e.hydrate(ctx, lockedOld, tenantID, r.ResourceID); err != nil {
		return err
	}
	if err := e.hydrate(ctx, lockedNew, tenantID, move.NewResourceID); err != nil {
		return err
	}

	if ids := lockedNew.Overlapping(move.NewStartAt, move.NewEndAt, r.ID); len(ids) > 0 {
		return &ConflictError{ResourceID: move.NewResourceID, ConflictingIDs: ids}
	}

	if err := e.store.MoveReservation(ctx, r.ID, tenantID, move); err != nil {
		if errors.Is(err, store.ErrOverlap) {
			return &ConflictError{ResourceID: move.NewResourceID}
		}
		return err
	}

	lockedOld.Remove(r.ID)
	lockedNew.Insert(store.Span{ReservationID: r.ID, StartAt: move.NewStartAt, EndAt: move.NewEndAt})
	return nil
}

// CancelReservation cancels a pending or confirmed reservation, releases
// its interval, and returns the refund selected from the tenant's
// cancellation policy for the notice actually given. The reservation row
// is kept for audit; only the interval is freed.
func (e *Engine) CancelReservation(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, reason, actor string) (*CancelResult, error) {
	r, err := e.store.GetReservation(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if r.Status != models.ReservationStatusPending && r.Status != models.ReservationStatusConfirmed {
		return nil, &PolicyViolationError{Reason: fmt.Sprintf("reservation in status %s cannot be cancelled", r.Status)}
	}

	tiers, err := e.store.GetRefundTiers(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	percent := pricing.ComputeRefund(r.StartAt.Sub(e.now()), tiers)
	amount := pricing.RefundAmount(r.TotalPriceCents, percent)

	if actor == "" {
		actor = models.ActorCustomer
	}

	locked, err := e.acquire(ctx, tenantID, r.ResourceID)
	if err != nil {
		return nil, err
	}
	defer locked.Release()

	if err := e.store.UpdateReservationStatus(ctx, id, tenantID, models.ReservationStatusCancelled, actor); err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			return nil, &PolicyViolationError{Reason: "reservation can no longer be cancelled"}
		}
		return nil, err
	}

	if locked.Hydrated() {
		locked.Remove(id)
	}

	r.Status = models.ReservationStatusCancelled
	slog.Info("reservation cancelled",
		"tenant_id", tenantID, "reservation_id", id, "reason", reason, "refund_percent", percent)

	e.publish(ctx, id, tenantID, notify.KindCancelled)
	return &CancelResult{Reservation: r, RefundPercent: percent, RefundAmountCents: amount}, nil
}

// CheckIn transitions a reservation to checked_in. It requires status
// confirmed — or pending with a staff override — and that today is on or
// after the reservation's start date.
func (e *Engine) CheckIn(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, staffOverride bool) (*models.Reservation, error) {
	r, err := e.store.GetReservation(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	switch r.Status {
	case models.ReservationStatusConfirmed:
	case models.ReservationStatusPending:
		if !staffOverride {
			return nil, &PolicyViolationError{Reason: "pending reservation requires a staff override to check in"}
		}
	default:
		return nil, &PolicyViolationError{Reason: fmt.Sprintf("reservation in status %s cannot check in", r.Status)}
	}

	if dateOf(e.now()).Before(dateOf(r.StartAt)) {
		return nil, &PolicyViolationError{Reason: "cannot check in before the reservation start date"}
	}

	if err := e.store.UpdateReservationStatus(ctx, id, tenantID, models.ReservationStatusCheckedIn, models.ActorStaff); err != nil {
		return nil, err
	}
	r.Status = models.ReservationStatusCheckedIn
	return r, nil
}

// CheckOut transitions a checked-in reservation to checked_out and releases
// its interval: a checked-out stay no longer blocks the resource.
func (e *Engine) CheckOut(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*models.Reservation, error) {
	r, err := e.store.GetReservation(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if r.Status != models.ReservationStatusCheckedIn {
		return nil, &PolicyViolationError{Reason: fmt.Sprintf("reservation in status %s cannot check out", r.Status)}
	}

	locked, err := e.acquire(ctx, tenantID, r.ResourceID)
	if err != nil {
		return nil, err
	}
	defer locked.Release()

	if err := e.store.UpdateReservationStatus(ctx, id, tenantID, models.ReservationStatusCheckedOut, models.ActorStaff); err != nil {
		return nil, err
	}
	if locked.Hydrated() {
		locked.Remove(id)
	}

	r.Status = models.ReservationStatusCheckedOut
	return r, nil
}

// QueryOverlap returns the ids of interval-holding reservations on the
// given resource that overlap [start, end).
func (e *Engine) QueryOverlap(ctx context.Context, tenantID uuid.UUID, resourceID uuid.UUID, start, end time.Time) ([]uuid.UUID, error) {
	if !start.Before(end) {
		return nil, ErrInvalidSpan
	}
	if _, err := e.store.GetResource(ctx, resourceID, tenantID); err != nil {
		return nil, err
	}

	locked, err := e.acquire(ctx, tenantID, resourceID)
	if err != nil {
		return nil, err
	}
	defer locked.Release()

	if err := e.hydrate(ctx, locked, tenantID, resourceID); err != nil {
		return nil, err
	}
	return locked.Overlapping(start, end, uuid.Nil), nil
}

// --- internals ---

func (e *Engine) acquire(ctx context.Context, tenantID, resourceID uuid.UUID) (*LockedResource, error) {
	lockCtx, cancel := context.WithTimeout(ctx, e.lockTimeout)
	defer cancel()
	return e.index.Acquire(lockCtx, tenantID, resourceID)
}

func (e *Engine) hydrate(ctx context.Context, locked *LockedResource, tenantID, resourceID uuid.UUID) error {
	if locked.Hydrated() {
		return nil
	}
	spans, err := e.store.ListActiveSpans(ctx, tenantID, resourceID)
	if err != nil {
		return err
	}
	locked.Hydrate(spans)
	return nil
}

// createWithRetry retries transient storage failures with a short backoff.
// Definite outcomes (overlap, duplicate, not found) are returned as-is.
func (e *Engine) createWithRetry(ctx context.Context, r *models.Reservation) error {
	var err error
	for attempt := 0; attempt < storeRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err = e.store.CreateReservation(ctx, r)
		if err == nil ||
			errors.Is(err, store.ErrOverlap) ||
			errors.Is(err, store.ErrDuplicateKey) ||
			errors.Is(err, store.ErrNotFound) {
			return err
		}
		slog.Warn("transient reservation write failure",
			"reservation_id", r.ID, "attempt", attempt+1, "error", err)
	}
	return err
}

func (e *Engine) publish(ctx context.Context, reservationID, tenantID uuid.UUID, kind string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Publish(ctx, notify.Event{
		ReservationID: reservationID,
		TenantID:      tenantID,
		Kind:          kind,
	}); err != nil {
		slog.Warn("notification hand-off failed",
			"reservation_id", reservationID, "kind", kind, "error", err)
	}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
