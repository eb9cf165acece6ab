package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pawsuite/reserve/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Tenants ---

func (s *PostgresStore) GetTenantByHandle(ctx context.Context, handle string) (*models.Tenant, error) {
	var t models.Tenant
	err := s.pool.QueryRow(ctx,
		`SELECT id, handle, name, status, created_at, updated_at FROM tenants WHERE handle = $1`, handle,
	).Scan(&t.ID, &t.Handle, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant by handle: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var t models.Tenant
	err := s.pool.QueryRow(ctx,
		`SELECT id, handle, name, status, created_at, updated_at FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Handle, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) UpdateTenantStatus(ctx context.Context, id uuid.UUID, status string) (*models.Tenant, error) {
	if !models.ValidTenantStatus(status) {
		return nil, fmt.Errorf("unknown tenant status %q", status)
	}
	var t models.Tenant
	err := s.pool.QueryRow(ctx,
		`UPDATE tenants SET status = $2, updated_at = NOW() WHERE id = $1
		 RETURNING id, handle, name, status, created_at, updated_at`, id, status,
	).Scan(&t.ID, &t.Handle, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update tenant status: %w", err)
	}
	return &t, nil
}

// --- Resources ---

const resourceColumns = `id, tenant_id, name, type, capacity, base_rate_cents, active, created_at, updated_at`

func scanResource(row pgx.Row) (*models.Resource, error) {
	var r models.Resource
	err := row.Scan(&r.ID, &r.TenantID, &r.Name, &r.Type, &r.Capacity,
		&r.BaseRateCents, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListActiveResources returns the tenant's active resources, optionally
// restricted to one type, ordered by name. The ordering is what makes
// "any available" selection deterministic.
func (s *PostgresStore) ListActiveResources(ctx context.Context, tenantID uuid.UUID, resourceType string) ([]*models.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE tenant_id = $1 AND active`
	args := []any{tenantID}
	if resourceType != "" {
		query += ` AND type = $2`
		args = append(args, resourceType)
	}
	query += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active resources: %w", err)
	}
	defer rows.Close()

	var resources []*models.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

func (s *PostgresStore) ListResources(ctx context.Context, tenantID uuid.UUID) ([]*models.Resource, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var resources []*models.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

func (s *PostgresStore) GetResource(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Resource, error) {
	r, err := scanResource(s.pool.QueryRow(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = $1 AND tenant_id = $2`, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) GetResourceByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Resource, error) {
	r, err := scanResource(s.pool.QueryRow(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE tenant_id = $1 AND name = $2`, tenantID, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get resource by name: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) CreateResource(ctx context.Context, resource *models.Resource) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO resources (id, tenant_id, name, type, capacity, base_rate_cents, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		resource.ID, resource.TenantID, resource.Name, resource.Type, resource.Capacity,
		resource.BaseRateCents, resource.Active, resource.CreatedAt, resource.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// --- Reservations ---

const reservationColumns = `id, tenant_id, resource_id, pet_id, customer_id, external_id,
	start_at, end_at, status, total_price_cents, created_at, updated_at`

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var r models.Reservation
	err := row.Scan(&r.ID, &r.TenantID, &r.ResourceID, &r.PetID, &r.CustomerID, &r.ExternalID,
		&r.StartAt, &r.EndAt, &r.Status, &r.TotalPriceCents, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) CreateReservation(ctx context.Context, reservation *models.Reservation) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reservations (id, tenant_id, resource_id, pet_id, customer_id, external_id,
		   start_at, end_at, status, total_price_cents, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		reservation.ID, reservation.TenantID, reservation.ResourceID, reservation.PetID,
		reservation.CustomerID, reservation.ExternalID, reservation.StartAt, reservation.EndAt,
		reservation.Status, reservation.TotalPriceCents, reservation.CreatedAt, reservation.UpdatedAt)
	if err != nil {
		if isExclusionError(err) {
			return ErrOverlap
		}
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReservation(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Reservation, error) {
	r, err := scanReservation(s.pool.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1 AND tenant_id = $2`, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListReservations(ctx context.Context, filter ReservationFilter) ([]*models.Reservation, int, error) {
	// Build WHERE clause dynamically
	conditions := []string{"tenant_id = $1"}
	args := []any{filter.TenantID}
	argIdx := 2

	if filter.ResourceID != uuid.Nil {
		conditions = append(conditions, fmt.Sprintf("resource_id = $%d", argIdx))
		args = append(args, filter.ResourceID)
		argIdx++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("end_at > $%d", argIdx))
		args = append(args, filter.From)
		argIdx++
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("start_at < $%d", argIdx))
		args = append(args, filter.To)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM reservations WHERE " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}

	// Normalize pagination
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	dataQuery := fmt.Sprintf(
		`SELECT `+reservationColumns+` FROM reservations WHERE %s ORDER BY start_at LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	return reservations, total, rows.Err()
}

// ListActiveSpans returns the intervals of all interval-holding reservations
// on one resource, ordered by start. Used to hydrate the interval index.
func (s *PostgresStore) ListActiveSpans(ctx context.Context, tenantID uuid.UUID, resourceID uuid.UUID) ([]Span, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, start_at, end_at FROM reservations
		 WHERE tenant_id = $1 AND resource_id = $2
		   AND status IN ('pending', 'confirmed', 'checked_in')
		 ORDER BY start_at`, tenantID, resourceID)
	if err != nil {
		return nil, fmt.Errorf("list active spans: %w", err)
	}
	defer rows.Close()

	var spans []Span
	for rows.Next() {
		var sp Span
		if err := rows.Scan(&sp.ReservationID, &sp.StartAt, &sp.EndAt); err != nil {
			return nil, fmt.Errorf("scan span: %w", err)
		}
		spans = append(spans, sp)
	}
	return spans, rows.Err()
}

// MoveReservation commits a modification: the reservation's placement and
// price are updated and the audit records are written in one transaction.
// The exclusion constraint re-checks the new interval, so a racing write
// cannot slip an overlap through.
func (s *PostgresStore) MoveReservation(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, move ReservationMove) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin move reservation: %w", err)
	}
	defer tx.Rollback(ctx)

	var old models.Reservation
	err = tx.QueryRow(ctx,
		`SELECT resource_id, start_at, end_at FROM reservations
		 WHERE id = $1 AND tenant_id = $2 FOR UPDATE`, id, tenantID,
	).Scan(&old.ResourceID, &old.StartAt, &old.EndAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock reservation for move: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE reservations
		 SET resource_id = $3, start_at = $4, end_at = $5, total_price_cents = $6, updated_at = NOW()
		 WHERE id = $1 AND tenant_id = $2`,
		id, tenantID, move.NewResourceID, move.NewStartAt, move.NewEndAt, move.NewPriceCents)
	if err != nil {
		if isExclusionError(err) {
			return ErrOverlap
		}
		return fmt.Errorf("move reservation: %w", err)
	}

	now := time.Now().UTC()
	if !old.StartAt.Equal(move.NewStartAt) || !old.EndAt.Equal(move.NewEndAt) {
		if err := insertModification(ctx, tx, tenantID, id, models.ModifiedFieldSpan,
			formatSpan(old.StartAt, old.EndAt), formatSpan(move.NewStartAt, move.NewEndAt), move.Actor, now); err != nil {
			return err
		}
	}
	if old.ResourceID != move.NewResourceID {
		if err := insertModification(ctx, tx, tenantID, id, models.ModifiedFieldResource,
			old.ResourceID.String(), move.NewResourceID.String(), move.Actor, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit move reservation: %w", err)
	}
	return nil
}

// UpdateReservationStatus validates and applies a lifecycle transition,
// writing the audit record in the same transaction.
func (s *PostgresStore) UpdateReservationStatus(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, status string, actor string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentStatus string
	err = tx.QueryRow(ctx,
		`SELECT status FROM reservations WHERE id = $1 AND tenant_id = $2 FOR UPDATE`, id, tenantID,
	).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get reservation status: %w", err)
	}

	if !models.ValidReservationTransition(currentStatus, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, currentStatus, status)
	}

	_, err = tx.Exec(ctx,
		`UPDATE reservations SET status = $3, updated_at = NOW() WHERE id = $1 AND tenant_id = $2`,
		id, tenantID, status)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}

	if err := insertModification(ctx, tx, tenantID, id, models.ModifiedFieldStatus,
		currentStatus, status, actor, time.Now().UTC()); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListModificationRecords(ctx context.Context, reservationID uuid.UUID, tenantID uuid.UUID) ([]*models.ModificationRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, reservation_id, field, old_value, new_value, actor, created_at
		 FROM modification_records
		 WHERE reservation_id = $1 AND tenant_id = $2 ORDER BY created_at`, reservationID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list modification records: %w", err)
	}
	defer rows.Close()

	var records []*models.ModificationRecord
	for rows.Next() {
		var m models.ModificationRecord
		if err := rows.Scan(&m.ID, &m.TenantID, &m.ReservationID, &m.Field,
			&m.OldValue, &m.NewValue, &m.Actor, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan modification record: %w", err)
		}
		records = append(records, &m)
	}
	return records, rows.Err()
}

func insertModification(ctx context.Context, tx pgx.Tx, tenantID, reservationID uuid.UUID,
	field, oldValue, newValue, actor string, at time.Time) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO modification_records (id, tenant_id, reservation_id, field, old_value, new_value, actor, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), tenantID, reservationID, field, oldValue, newValue, actor, at)
	if err != nil {
		return fmt.Errorf("insert modification record: %w", err)
	}
	return nil
}

func formatSpan(start, end time.Time) string {
	return start.UTC().Format(time.RFC3339) + "/" + end.UTC().Format(time.RFC3339)
}

// --- Policies ---

// GetRefundTiers returns the tenant's cancellation tiers ordered most
// generous (most notice) first. Empty when the tenant has none configured;
// the caller falls back to the defaults.
func (s *PostgresStore) GetRefundTiers(ctx context.Context, tenantID uuid.UUID) ([]models.RefundTier, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT tenant_id, min_notice_days, refund_percent
		 FROM cancellation_policy_tiers WHERE tenant_id = $1 ORDER BY min_notice_days DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("get refund tiers: %w", err)
	}
	defer rows.Close()

	var tiers []models.RefundTier
	for rows.Next() {
		var t models.RefundTier
		if err := rows.Scan(&t.TenantID, &t.MinNoticeDays, &t.RefundPercent); err != nil {
			return nil, fmt.Errorf("scan refund tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (s *PostgresStore) GetRateRules(ctx context.Context, tenantID uuid.UUID) ([]models.RateRule, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, min_nights, discount_percent, priority
		 FROM rate_rules WHERE tenant_id = $1 ORDER BY priority DESC, discount_percent DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("get rate rules: %w", err)
	}
	defer rows.Close()

	var rules []models.RateRule
	for rows.Next() {
		var r models.RateRule
		if err := rows.Scan(&r.ID, &r.TenantID, &r.MinNights, &r.DiscountPercent, &r.Priority); err != nil {
			return nil, fmt.Errorf("scan rate rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// --- Customers & Pets ---

func (s *PostgresStore) GetCustomer(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Customer, error) {
	var c models.Customer
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, name, email, external_id, created_at, updated_at
		 FROM customers WHERE id = $1 AND tenant_id = $2`, id, tenantID,
	).Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.ExternalID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) GetCustomerByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*models.Customer, error) {
	var c models.Customer
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, name, email, external_id, created_at, updated_at
		 FROM customers WHERE tenant_id = $1 AND external_id = $2`, tenantID, externalID,
	).Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.ExternalID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer by external id: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO customers (id, tenant_id, name, email, external_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		customer.ID, customer.TenantID, customer.Name, customer.Email, customer.ExternalID,
		customer.CreatedAt, customer.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPet(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Pet, error) {
	var p models.Pet
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, customer_id, name, breed, external_id, created_at, updated_at
		 FROM pets WHERE id = $1 AND tenant_id = $2`, id, tenantID,
	).Scan(&p.ID, &p.TenantID, &p.CustomerID, &p.Name, &p.Breed, &p.ExternalID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pet: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) GetPetByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*models.Pet, error) {
	var p models.Pet
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, customer_id, name, breed, external_id, created_at, updated_at
		 FROM pets WHERE tenant_id = $1 AND external_id = $2`, tenantID, externalID,
	).Scan(&p.ID, &p.TenantID, &p.CustomerID, &p.Name, &p.Breed, &p.ExternalID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pet by external id: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) CreatePet(ctx context.Context, pet *models.Pet) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO pets (id, tenant_id, customer_id, name, breed, external_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		pet.ID, pet.TenantID, pet.CustomerID, pet.Name, pet.Breed, pet.ExternalID,
		pet.CreatedAt, pet.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create pet: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// isExclusionError checks if a pgx error is an exclusion constraint
// violation (the reservations no-overlap backstop).
func isExclusionError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23P01" // exclusion_violation
	}
	return false
}
