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

// Material is a priced material line on a quote, stored as jsonb.
type Material struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	CostCents int64   `json:"costCents"`
}

// Quote is the database model for a service quote.
type Quote struct {
	ID             uuid.UUID  `db:"id"`
	RequestID      uuid.UUID  `db:"request_id"`
	ProviderID     uuid.UUID  `db:"provider_id"`
	AmountCents    int64      `db:"amount_cents"`
	LaborCostCents int64      `db:"labor_cost_cents"`
	Materials      []Material `db:"materials"`
	Status         string     `db:"status"`
	Remarks        *string    `db:"remarks"`
	ValidUntil     *time.Time `db:"valid_until"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// Quote statuses.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusExpired  = "expired"
)

const siblingRejectedRemarks = "Another quote was accepted"

// SubmitResult reports the outcome of a quote submission.
type SubmitResult struct {
	Quote          *Quote
	OwnerID        uuid.UUID
	RequestFlipped bool // pending -> quoted on first quote
}

// AcceptResult reports the outcome of an atomic quote acceptance.
type AcceptResult struct {
	Quote              *Quote
	OwnerID            uuid.UUID
	RejectedSiblingIDs []uuid.UUID
}

// RejectResult reports the outcome of a quote rejection.
type RejectResult struct {
	Quote           *Quote
	OwnerID         uuid.UUID
	RequestReverted bool // quoted -> pending when the last open quote goes
}

// ── Repository ────────────────────────────────────────────────────────────────

const quoteNotFoundMsg = "quote not found"

const quoteColumns = `id, request_id, provider_id, amount_cents, labor_cost_cents, materials,
		status, remarks, valid_until, created_at, updated_at`

// Repository provides database operations for quotes. Invariant-bearing
// mutations lock the owning service_requests row before reading any state.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotes repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanQuote(row pgx.Row, q *Quote) error {
	return row.Scan(
		&q.ID, &q.RequestID, &q.ProviderID, &q.AmountCents, &q.LaborCostCents, &q.Materials,
		&q.Status, &q.Remarks, &q.ValidUntil, &q.CreatedAt, &q.UpdatedAt,
	)
}

// Submit inserts a quote against a pending or quoted request. The first quote
// flips the request to quoted in the same transaction.
func (r *Repository) Submit(ctx context.Context, q *Quote) (*SubmitResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sr, err := requestsrepo.GetForUpdate(ctx, tx, q.RequestID)
	if err != nil {
		return nil, err
	}
	if !domain.Quotable(sr.Status) {
		return nil, apperr.InvalidState(fmt.Sprintf("request is %s and cannot receive quotes", sr.Status))
	}

	var existing int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM service_quotes WHERE request_id = $1 AND provider_id = $2`,
		q.RequestID, q.ProviderID,
	).Scan(&existing); err != nil {
		return nil, fmt.Errorf("failed to check for existing quote: %w", err)
	}
	if existing > 0 {
		return nil, apperr.Conflict("provider has already quoted this request").WithCode("duplicate_quote")
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO service_quotes (
			id, request_id, provider_id, amount_cents, labor_cost_cents, materials,
			status, remarks, valid_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		q.ID, q.RequestID, q.ProviderID, q.AmountCents, q.LaborCostCents, q.Materials,
		q.Status, q.Remarks, q.ValidUntil, q.CreatedAt, q.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert quote: %w", err)
	}

	result := &SubmitResult{Quote: q, OwnerID: sr.OwnerID}
	if sr.Status == domain.StatusPending {
		if _, err := tx.Exec(ctx,
			`UPDATE service_requests SET status = $2, updated_at = $3 WHERE id = $1`,
			q.RequestID, domain.StatusQuoted, time.Now(),
		); err != nil {
			return nil, fmt.Errorf("failed to flip request to quoted: %w", err)
		}
		result.RequestFlipped = true
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit quote submission: %w", err)
	}
	return result, nil
}

// Accept atomically accepts a quote: the quote goes to accepted, the request
// to confirmed with acceptedQuoteId set, and every sibling pending quote to
// rejected. Concurrent accepts serialize on the request row lock; the loser
// observes status=confirmed and fails. An expired quote is marked expired and
// the call fails with an expiry error.
func (r *Repository) Accept(ctx context.Context, quoteID uuid.UUID) (*AcceptResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	q, err := getByIDTx(ctx, tx, quoteID)
	if err != nil {
		return nil, err
	}

	sr, err := requestsrepo.GetForUpdate(ctx, tx, q.RequestID)
	if err != nil {
		return nil, err
	}

	// Re-read under the lock: a concurrent accept may have changed the quote
	// between the first read and acquiring the request lock.
	q, err = getByIDTx(ctx, tx, quoteID)
	if err != nil {
		return nil, err
	}

	if sr.Status == domain.StatusConfirmed {
		return nil, apperr.InvalidState("request already has an accepted quote")
	}
	if domain.IsTerminal(sr.Status) {
		return nil, apperr.InvalidState(fmt.Sprintf("request is %s and cannot accept quotes", sr.Status))
	}
	if q.Status != StatusPending {
		return nil, apperr.InvalidState(fmt.Sprintf("quote is %s and cannot be accepted", q.Status))
	}

	now := time.Now()
	if q.ValidUntil != nil && now.After(*q.ValidUntil) {
		// Lazily enforced expiry: mark the quote and surface the failure.
		if _, err := tx.Exec(ctx,
			`UPDATE service_quotes SET status = $2, updated_at = $3 WHERE id = $1`,
			quoteID, StatusExpired, now,
		); err != nil {
			return nil, fmt.Errorf("failed to mark quote expired: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit quote expiry: %w", err)
		}
		return nil, apperr.Expired("quote validity window has passed")
	}

	if _, err := tx.Exec(ctx,
		`UPDATE service_quotes SET status = $2, updated_at = $3 WHERE id = $1`,
		quoteID, StatusAccepted, now,
	); err != nil {
		return nil, fmt.Errorf("failed to accept quote: %w", err)
	}

	rows, err := tx.Query(ctx, `
		UPDATE service_quotes
		SET status = $3, remarks = $4, updated_at = $5
		WHERE request_id = $1 AND id <> $2 AND status = $6
		RETURNING id`,
		q.RequestID, quoteID, StatusRejected, siblingRejectedRemarks, now, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to reject sibling quotes: %w", err)
	}
	siblingIDs, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE service_requests
		SET status = $2, accepted_quote_id = $3, updated_at = $4
		WHERE id = $1`,
		q.RequestID, domain.StatusConfirmed, quoteID, now,
	); err != nil {
		return nil, fmt.Errorf("failed to confirm request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit quote acceptance: %w", err)
	}

	q.Status = StatusAccepted
	q.UpdatedAt = now
	return &AcceptResult{Quote: q, OwnerID: sr.OwnerID, RejectedSiblingIDs: siblingIDs}, nil
}

// Reject rejects a pending quote. When it was the last non-rejected quote on
// a quoted request, the request reverts to pending in the same transaction.
func (r *Repository) Reject(ctx context.Context, quoteID uuid.UUID, remarks *string) (*RejectResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	q, err := getByIDTx(ctx, tx, quoteID)
	if err != nil {
		return nil, err
	}

	sr, err := requestsrepo.GetForUpdate(ctx, tx, q.RequestID)
	if err != nil {
		return nil, err
	}

	q, err = getByIDTx(ctx, tx, quoteID)
	if err != nil {
		return nil, err
	}
	if q.Status != StatusPending {
		return nil, apperr.InvalidState(fmt.Sprintf("quote is %s and cannot be rejected", q.Status))
	}

	now := time.Now()
	if _, err := tx.Exec(ctx,
		`UPDATE service_quotes SET status = $2, remarks = $3, updated_at = $4 WHERE id = $1`,
		quoteID, StatusRejected, remarks, now,
	); err != nil {
		return nil, fmt.Errorf("failed to reject quote: %w", err)
	}

	result := &RejectResult{Quote: q, OwnerID: sr.OwnerID}

	// quoted implies an open quote exists; revert when the last one closes.
	if sr.Status == domain.StatusQuoted {
		var open int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM service_quotes WHERE request_id = $1 AND id <> $2 AND status = $3`,
			q.RequestID, quoteID, StatusPending,
		).Scan(&open); err != nil {
			return nil, fmt.Errorf("failed to count open quotes: %w", err)
		}
		if open == 0 {
			if _, err := tx.Exec(ctx,
				`UPDATE service_requests SET status = $2, updated_at = $3 WHERE id = $1`,
				q.RequestID, domain.StatusPending, now,
			); err != nil {
				return nil, fmt.Errorf("failed to revert request to pending: %w", err)
			}
			result.RequestReverted = true
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit quote rejection: %w", err)
	}

	q.Status = StatusRejected
	q.Remarks = remarks
	q.UpdatedAt = now
	return result, nil
}

func getByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Quote, error) {
	var q Quote
	query := `SELECT ` + quoteColumns + ` FROM service_quotes WHERE id = $1`
	if err := scanQuote(tx.QueryRow(ctx, query, id), &q); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(quoteNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return &q, nil
}

// GetByID retrieves a quote by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Quote, error) {
	var q Quote
	query := `SELECT ` + quoteColumns + ` FROM service_quotes WHERE id = $1`
	if err := scanQuote(r.pool.QueryRow(ctx, query, id), &q); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(quoteNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return &q, nil
}

// ListForRequest retrieves all quotes for a request, cheapest first with a
// deterministic created-at tie-break.
func (r *Repository) ListForRequest(ctx context.Context, requestID uuid.UUID) ([]Quote, error) {
	query := `SELECT ` + quoteColumns + `
		FROM service_quotes WHERE request_id = $1
		ORDER BY amount_cents ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		var q Quote
		if err := scanQuote(rows, &q); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotes: %w", err)
	}
	return quotes, nil
}

func collectIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ids: %w", err)
	}
	return ids, nil
}
