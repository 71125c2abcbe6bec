package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gearbox_backend/internal/requests/domain"
	requestsrepo "gearbox_backend/internal/requests/repository"
	"gearbox_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// Item is a work line on an estimate, stored as jsonb.
type Item struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	CostCents   int64   `json:"costCents"`
}

// AdditionalCost is an extra charge line on an estimate, stored as jsonb.
type AdditionalCost struct {
	Description string `json:"description"`
	AmountCents int64  `json:"amountCents"`
}

// Estimate is the database model for an estimate.
type Estimate struct {
	ID               uuid.UUID        `db:"id"`
	RequestID        uuid.UUID        `db:"request_id"`
	ProviderID       uuid.UUID        `db:"provider_id"`
	Items            []Item           `db:"items"`
	LaborCostCents   int64            `db:"labor_cost_cents"`
	PartsCostCents   int64            `db:"parts_cost_cents"`
	AdditionalCosts  []AdditionalCost `db:"additional_costs"`
	TaxPct           float64          `db:"tax_pct"`
	DiscountPct      float64          `db:"discount_pct"`
	TotalAmountCents int64            `db:"total_amount_cents"`
	Status           string           `db:"status"`
	ValidUntil       *time.Time       `db:"valid_until"`
	AcceptedAt       *time.Time       `db:"accepted_at"`
	RejectionReason  *string          `db:"rejection_reason"`
	CreatedAt        time.Time        `db:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at"`
}

// Estimate statuses.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

const expiredReason = "Estimate validity window has passed"

// MutationResult carries the owner needed for event publication alongside the
// mutated estimate.
type MutationResult struct {
	Estimate *Estimate
	OwnerID  uuid.UUID
}

// ── Repository ────────────────────────────────────────────────────────────────

const estimateNotFoundMsg = "estimate not found"

const estimateColumns = `id, request_id, provider_id, items, labor_cost_cents, parts_cost_cents,
		additional_costs, tax_pct, discount_pct, total_amount_cents, status,
		valid_until, accepted_at, rejection_reason, created_at, updated_at`

// Repository provides database operations for estimates. Mutations lock the
// owning service_requests row before reading state.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new estimates repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEstimate(row pgx.Row, e *Estimate) error {
	return row.Scan(
		&e.ID, &e.RequestID, &e.ProviderID, &e.Items, &e.LaborCostCents, &e.PartsCostCents,
		&e.AdditionalCosts, &e.TaxPct, &e.DiscountPct, &e.TotalAmountCents, &e.Status,
		&e.ValidUntil, &e.AcceptedAt, &e.RejectionReason, &e.CreatedAt, &e.UpdatedAt,
	)
}

// Create inserts an estimate and points the request at it. Fails with a
// conflict when the request already has a pending or accepted estimate.
func (r *Repository) Create(ctx context.Context, e *Estimate) (*MutationResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sr, err := requestsrepo.GetForUpdate(ctx, tx, e.RequestID)
	if err != nil {
		return nil, err
	}
	if domain.IsTerminal(sr.Status) {
		return nil, apperr.InvalidState(fmt.Sprintf("request is %s and cannot receive estimates", sr.Status))
	}

	var active int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM estimates WHERE request_id = $1 AND status IN ($2, $3)`,
		e.RequestID, StatusPending, StatusAccepted,
	).Scan(&active); err != nil {
		return nil, fmt.Errorf("failed to check for active estimate: %w", err)
	}
	if active > 0 {
		return nil, apperr.Conflict("request already has an active estimate")
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO estimates (
			id, request_id, provider_id, items, labor_cost_cents, parts_cost_cents,
			additional_costs, tax_pct, discount_pct, total_amount_cents, status,
			valid_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.RequestID, e.ProviderID, e.Items, e.LaborCostCents, e.PartsCostCents,
		e.AdditionalCosts, e.TaxPct, e.DiscountPct, e.TotalAmountCents, e.Status,
		e.ValidUntil, e.CreatedAt, e.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert estimate: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE service_requests
		SET current_estimate_id = $2, estimate_status = $3, updated_at = $4
		WHERE id = $1`,
		e.RequestID, e.ID, domain.EstimateStatusPending, time.Now(),
	); err != nil {
		return nil, fmt.Errorf("failed to point request at estimate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit estimate creation: %w", err)
	}
	return &MutationResult{Estimate: e, OwnerID: sr.OwnerID}, nil
}

// Accept atomically accepts a pending estimate: the estimate records its
// acceptance time and the request freezes the total. An estimate past its
// validity window is rejected instead and the call fails with an expiry error.
func (r *Repository) Accept(ctx context.Context, estimateID uuid.UUID) (*MutationResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	e, err := getByIDTx(ctx, tx, estimateID)
	if err != nil {
		return nil, err
	}

	sr, err := requestsrepo.GetForUpdate(ctx, tx, e.RequestID)
	if err != nil {
		return nil, err
	}

	e, err = getByIDTx(ctx, tx, estimateID)
	if err != nil {
		return nil, err
	}
	if e.Status != StatusPending {
		return nil, apperr.InvalidState(fmt.Sprintf("estimate is %s and cannot be accepted", e.Status))
	}
	if domain.IsTerminal(sr.Status) {
		return nil, apperr.InvalidState(fmt.Sprintf("request is %s and cannot accept estimates", sr.Status))
	}

	now := time.Now()
	if e.ValidUntil != nil && now.After(*e.ValidUntil) {
		// Lazily enforced expiry: close the estimate and surface the failure.
		reason := expiredReason
		if _, err := tx.Exec(ctx,
			`UPDATE estimates SET status = $2, rejection_reason = $3, updated_at = $4 WHERE id = $1`,
			estimateID, StatusRejected, reason, now,
		); err != nil {
			return nil, fmt.Errorf("failed to reject expired estimate: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE service_requests
			SET estimate_status = $2, current_estimate_id = NULL, updated_at = $3
			WHERE id = $1`,
			e.RequestID, domain.EstimateStatusRejected, now,
		); err != nil {
			return nil, fmt.Errorf("failed to clear expired estimate from request: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit estimate expiry: %w", err)
		}
		return nil, apperr.Expired("estimate validity window has passed")
	}

	if _, err := tx.Exec(ctx,
		`UPDATE estimates SET status = $2, accepted_at = $3, updated_at = $3 WHERE id = $1`,
		estimateID, StatusAccepted, now,
	); err != nil {
		return nil, fmt.Errorf("failed to accept estimate: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE service_requests
		SET estimate_status = $2, total_cost_cents = $3, updated_at = $4
		WHERE id = $1`,
		e.RequestID, domain.EstimateStatusAccepted, e.TotalAmountCents, now,
	); err != nil {
		return nil, fmt.Errorf("failed to freeze total on request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit estimate acceptance: %w", err)
	}

	e.Status = StatusAccepted
	e.AcceptedAt = &now
	e.UpdatedAt = now
	return &MutationResult{Estimate: e, OwnerID: sr.OwnerID}, nil
}

// Reject rejects a pending estimate and detaches it from the request.
func (r *Repository) Reject(ctx context.Context, estimateID uuid.UUID, reason *string) (*MutationResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	e, err := getByIDTx(ctx, tx, estimateID)
	if err != nil {
		return nil, err
	}

	sr, err := requestsrepo.GetForUpdate(ctx, tx, e.RequestID)
	if err != nil {
		return nil, err
	}

	e, err = getByIDTx(ctx, tx, estimateID)
	if err != nil {
		return nil, err
	}
	if e.Status != StatusPending {
		return nil, apperr.InvalidState(fmt.Sprintf("estimate is %s and cannot be rejected", e.Status))
	}

	now := time.Now()
	if _, err := tx.Exec(ctx,
		`UPDATE estimates SET status = $2, rejection_reason = $3, updated_at = $4 WHERE id = $1`,
		estimateID, StatusRejected, reason, now,
	); err != nil {
		return nil, fmt.Errorf("failed to reject estimate: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE service_requests
		SET estimate_status = $2, current_estimate_id = NULL, updated_at = $3
		WHERE id = $1`,
		e.RequestID, domain.EstimateStatusRejected, now,
	); err != nil {
		return nil, fmt.Errorf("failed to detach estimate from request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit estimate rejection: %w", err)
	}

	e.Status = StatusRejected
	e.RejectionReason = reason
	e.UpdatedAt = now
	return &MutationResult{Estimate: e, OwnerID: sr.OwnerID}, nil
}

// Update replaces the cost fields of a pending estimate with the merged state
// computed by the service.
func (r *Repository) Update(ctx context.Context, e *Estimate) (*MutationResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sr, err := requestsrepo.GetForUpdate(ctx, tx, e.RequestID)
	if err != nil {
		return nil, err
	}

	current, err := getByIDTx(ctx, tx, e.ID)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusPending {
		return nil, apperr.InvalidState(fmt.Sprintf("estimate is %s and cannot be updated", current.Status))
	}

	if _, err := tx.Exec(ctx, `
		UPDATE estimates SET
			items = $2, labor_cost_cents = $3, parts_cost_cents = $4, additional_costs = $5,
			tax_pct = $6, discount_pct = $7, total_amount_cents = $8, valid_until = $9, updated_at = $10
		WHERE id = $1`,
		e.ID, e.Items, e.LaborCostCents, e.PartsCostCents, e.AdditionalCosts,
		e.TaxPct, e.DiscountPct, e.TotalAmountCents, e.ValidUntil, e.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to update estimate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit estimate update: %w", err)
	}
	return &MutationResult{Estimate: e, OwnerID: sr.OwnerID}, nil
}

func getByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Estimate, error) {
	var e Estimate
	query := `SELECT ` + estimateColumns + ` FROM estimates WHERE id = $1`
	if err := scanEstimate(tx.QueryRow(ctx, query, id), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(estimateNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	return &e, nil
}

// GetByID retrieves an estimate by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Estimate, error) {
	var e Estimate
	query := `SELECT ` + estimateColumns + ` FROM estimates WHERE id = $1`
	if err := scanEstimate(r.pool.QueryRow(ctx, query, id), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(estimateNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	return &e, nil
}

// ListForRequest retrieves all estimates for a request, newest first.
func (r *Repository) ListForRequest(ctx context.Context, requestID uuid.UUID) ([]Estimate, error) {
	query := `SELECT ` + estimateColumns + `
		FROM estimates WHERE request_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimates: %w", err)
	}
	defer rows.Close()

	var estimates []Estimate
	for rows.Next() {
		var e Estimate
		if err := scanEstimate(rows, &e); err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		estimates = append(estimates, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate estimates: %w", err)
	}
	return estimates, nil
}

// ListPendingExpiring returns pending estimates whose validity window ends
// within the given horizon. Used by the reminder scheduler.
func (r *Repository) ListPendingExpiring(ctx context.Context, within time.Duration) ([]Estimate, error) {
	query := `SELECT ` + estimateColumns + `
		FROM estimates
		WHERE status = $1 AND valid_until IS NOT NULL AND valid_until <= $2
		ORDER BY valid_until ASC`

	rows, err := r.pool.Query(ctx, query, StatusPending, time.Now().Add(within))
	if err != nil {
		return nil, fmt.Errorf("failed to query expiring estimates: %w", err)
	}
	defer rows.Close()

	var estimates []Estimate
	for rows.Next() {
		var e Estimate
		if err := scanEstimate(rows, &e); err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		estimates = append(estimates, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate estimates: %w", err)
	}
	return estimates, nil
}
