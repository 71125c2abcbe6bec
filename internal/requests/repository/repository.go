package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gearbox_backend/internal/requests/domain"
	"gearbox_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// ServiceRequest is the database model for a service request.
type ServiceRequest struct {
	ID                uuid.UUID  `db:"id"`
	OwnerID           uuid.UUID  `db:"owner_id"`
	VehicleID         uuid.UUID  `db:"vehicle_id"`
	ServiceTypeID     uuid.UUID  `db:"service_type_id"`
	Description       *string    `db:"description"`
	ContactPhone      *string    `db:"contact_phone"`
	Status            string     `db:"status"`
	AcceptedQuoteID   *uuid.UUID `db:"accepted_quote_id"`
	CurrentEstimateID *uuid.UUID `db:"current_estimate_id"`
	EstimateStatus    string     `db:"estimate_status"`
	TotalCostCents    *int64     `db:"total_cost_cents"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// Attachment is the database model for a file attached to a request.
type Attachment struct {
	ID          uuid.UUID `db:"id"`
	RequestID   uuid.UUID `db:"request_id"`
	ObjectKey   string    `db:"object_key"`
	FileName    string    `db:"file_name"`
	ContentType string    `db:"content_type"`
	SizeBytes   int64     `db:"size_bytes"`
	UploadedBy  uuid.UUID `db:"uploaded_by"`
	CreatedAt   time.Time `db:"created_at"`
}

// ListParams contains parameters for listing service requests.
type ListParams struct {
	OwnerID   *uuid.UUID
	Status    *string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// ListResult contains the paginated result of listing service requests.
type ListResult struct {
	Items      []ServiceRequest
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// CancelResult reports what a cancellation cascade touched.
type CancelResult struct {
	PreviousStatus    string
	RejectedQuoteIDs  []uuid.UUID
	RejectedEstimates []uuid.UUID
}

// ── Repository ────────────────────────────────────────────────────────────────

const requestNotFoundMsg = "service request not found"

const requestColumns = `id, owner_id, vehicle_id, service_type_id, description, contact_phone,
		status, accepted_quote_id, current_estimate_id, estimate_status, total_cost_cents,
		created_at, updated_at`

// Repository provides database operations for service requests.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new requests repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRequest(row pgx.Row, sr *ServiceRequest) error {
	return row.Scan(
		&sr.ID, &sr.OwnerID, &sr.VehicleID, &sr.ServiceTypeID, &sr.Description, &sr.ContactPhone,
		&sr.Status, &sr.AcceptedQuoteID, &sr.CurrentEstimateID, &sr.EstimateStatus, &sr.TotalCostCents,
		&sr.CreatedAt, &sr.UpdatedAt,
	)
}

// Create inserts a new service request.
func (r *Repository) Create(ctx context.Context, sr *ServiceRequest) error {
	query := `
		INSERT INTO service_requests (
			id, owner_id, vehicle_id, service_type_id, description, contact_phone,
			status, estimate_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	if _, err := r.pool.Exec(ctx, query,
		sr.ID, sr.OwnerID, sr.VehicleID, sr.ServiceTypeID, sr.Description, sr.ContactPhone,
		sr.Status, sr.EstimateStatus, sr.CreatedAt, sr.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert service request: %w", err)
	}
	return nil
}

// GetByID retrieves a service request by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*ServiceRequest, error) {
	var sr ServiceRequest
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1`

	if err := scanRequest(r.pool.QueryRow(ctx, query, id), &sr); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(requestNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get service request: %w", err)
	}
	return &sr, nil
}

// GetForUpdate locks the request row within tx and returns its current state.
// Every invariant-bearing mutation goes through this lock.
func GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*ServiceRequest, error) {
	var sr ServiceRequest
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1 FOR UPDATE`

	if err := scanRequest(tx.QueryRow(ctx, query, id), &sr); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(requestNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to lock service request: %w", err)
	}
	return &sr, nil
}

// UpdateStatus performs a caller-driven status transition. The transition has
// already been validated by the service against the current locked row.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sr, err := GetForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if sr.Status != from {
		// Row moved under us between the service's read and this lock.
		return transitionError(sr.Status, to)
	}

	query := `UPDATE service_requests SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.Exec(ctx, query, id, to, time.Now()); err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}

	return tx.Commit(ctx)
}

// Cancel marks the request cancelled and force-rejects every pending quote and
// pending estimate in the same transaction, so no open offer survives against
// a dead request.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID) (*CancelResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sr, err := GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(sr.Status, domain.StatusCancelled) {
		return nil, transitionError(sr.Status, domain.StatusCancelled)
	}

	now := time.Now()
	result := &CancelResult{PreviousStatus: sr.Status}

	rows, err := tx.Query(ctx, `
		UPDATE service_quotes
		SET status = 'rejected', remarks = 'Request was cancelled', updated_at = $2
		WHERE request_id = $1 AND status = 'pending'
		RETURNING id`, id, now)
	if err != nil {
		return nil, fmt.Errorf("failed to reject pending quotes: %w", err)
	}
	result.RejectedQuoteIDs, err = collectIDs(rows)
	if err != nil {
		return nil, err
	}

	rows, err = tx.Query(ctx, `
		UPDATE estimates
		SET status = 'rejected', rejection_reason = 'Request was cancelled', updated_at = $2
		WHERE request_id = $1 AND status = 'pending'
		RETURNING id`, id, now)
	if err != nil {
		return nil, fmt.Errorf("failed to reject pending estimates: %w", err)
	}
	result.RejectedEstimates, err = collectIDs(rows)
	if err != nil {
		return nil, err
	}

	estimateStatus := sr.EstimateStatus
	currentEstimateID := sr.CurrentEstimateID
	if estimateStatus == domain.EstimateStatusPending {
		// The estimate was just force-rejected above; detach it so the
		// request no longer points at a rejected estimate.
		estimateStatus = domain.EstimateStatusRejected
		currentEstimateID = nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE service_requests
		SET status = $2, estimate_status = $3, current_estimate_id = $4, updated_at = $5
		WHERE id = $1`, id, domain.StatusCancelled, estimateStatus, currentEstimateID, now); err != nil {
		return nil, fmt.Errorf("failed to cancel service request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return result, nil
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

func transitionError(from, to string) *apperr.Error {
	if domain.IsTerminal(from) {
		return apperr.InvalidState(fmt.Sprintf("request is %s and cannot change status", from))
	}
	return apperr.InvalidTransition(fmt.Sprintf("cannot transition request from %s to %s", from, to))
}

// List retrieves service requests with filtering and pagination.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	sortBy, err := resolveSortBy(params.SortBy)
	if err != nil {
		return nil, err
	}
	sortOrder, err := resolveSortOrder(params.SortOrder)
	if err != nil {
		return nil, err
	}

	var ownerParam interface{}
	if params.OwnerID != nil {
		ownerParam = *params.OwnerID
	}
	var statusParam interface{}
	if params.Status != nil {
		statusParam = *params.Status
	}

	baseQuery := `
		FROM service_requests
		WHERE ($1::uuid IS NULL OR owner_id = $1)
			AND ($2::text IS NULL OR status = $2)
	`
	args := []interface{}{ownerParam, statusParam}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count service requests: %w", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	offset := (params.Page - 1) * params.PageSize

	selectQuery := `
		SELECT ` + requestColumns + `
		` + baseQuery + `
		ORDER BY
			CASE WHEN $3 = 'status' AND $4 = 'asc' THEN status END ASC,
			CASE WHEN $3 = 'status' AND $4 = 'desc' THEN status END DESC,
			CASE WHEN $3 = 'createdAt' AND $4 = 'asc' THEN created_at END ASC,
			CASE WHEN $3 = 'createdAt' AND $4 = 'desc' THEN created_at END DESC,
			CASE WHEN $3 = 'updatedAt' AND $4 = 'asc' THEN updated_at END ASC,
			CASE WHEN $3 = 'updatedAt' AND $4 = 'desc' THEN updated_at END DESC,
			created_at DESC
		LIMIT $5 OFFSET $6`

	args = append(args, sortBy, sortOrder, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list service requests: %w", err)
	}
	defer rows.Close()

	var items []ServiceRequest
	for rows.Next() {
		var sr ServiceRequest
		if err := scanRequest(rows, &sr); err != nil {
			return nil, fmt.Errorf("failed to scan service request: %w", err)
		}
		items = append(items, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate service requests: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

// ── Attachments ───────────────────────────────────────────────────────────────

// CreateAttachment records an attachment row after a presigned upload.
func (r *Repository) CreateAttachment(ctx context.Context, a *Attachment) error {
	query := `
		INSERT INTO request_attachments (
			id, request_id, object_key, file_name, content_type, size_bytes, uploaded_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := r.pool.Exec(ctx, query,
		a.ID, a.RequestID, a.ObjectKey, a.FileName, a.ContentType, a.SizeBytes, a.UploadedBy, a.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert attachment: %w", err)
	}
	return nil
}

// GetAttachment retrieves a single attachment scoped to its request.
func (r *Repository) GetAttachment(ctx context.Context, requestID, attachmentID uuid.UUID) (*Attachment, error) {
	var a Attachment
	query := `
		SELECT id, request_id, object_key, file_name, content_type, size_bytes, uploaded_by, created_at
		FROM request_attachments WHERE id = $1 AND request_id = $2`

	err := r.pool.QueryRow(ctx, query, attachmentID, requestID).Scan(
		&a.ID, &a.RequestID, &a.ObjectKey, &a.FileName, &a.ContentType, &a.SizeBytes, &a.UploadedBy, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("attachment not found")
		}
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return &a, nil
}

// ListAttachments retrieves all attachments for a request.
func (r *Repository) ListAttachments(ctx context.Context, requestID uuid.UUID) ([]Attachment, error) {
	query := `
		SELECT id, request_id, object_key, file_name, content_type, size_bytes, uploaded_by, created_at
		FROM request_attachments WHERE request_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachments: %w", err)
	}
	defer rows.Close()

	var items []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(
			&a.ID, &a.RequestID, &a.ObjectKey, &a.FileName, &a.ContentType, &a.SizeBytes, &a.UploadedBy, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attachments: %w", err)
	}
	return items, nil
}

func resolveSortBy(sortBy string) (string, error) {
	if sortBy == "" {
		return "createdAt", nil
	}
	switch sortBy {
	case "status", "createdAt", "updatedAt":
		return sortBy, nil
	default:
		return "", apperr.BadRequest("invalid sort field")
	}
}

func resolveSortOrder(sortOrder string) (string, error) {
	if sortOrder == "" {
		return "desc", nil
	}
	switch sortOrder {
	case "asc", "desc":
		return sortOrder, nil
	default:
		return "", apperr.BadRequest("invalid sort order")
	}
}
