package repository_test

import (
	"context"
	"testing"
	"time"

	estimatesrepo "gearbox_backend/internal/estimates/repository"
	quotesrepo "gearbox_backend/internal/quotes/repository"
	"gearbox_backend/internal/requests/domain"
	"gearbox_backend/internal/requests/repository"
	"gearbox_backend/platform/db/dbtest"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func createRequest(t *testing.T, pool *pgxpool.Pool) *repository.ServiceRequest {
	t.Helper()

	now := time.Now()
	sr := &repository.ServiceRequest{
		ID:             uuid.New(),
		OwnerID:        uuid.New(),
		VehicleID:      uuid.New(),
		ServiceTypeID:  uuid.New(),
		Status:         domain.StatusPending,
		EstimateStatus: domain.EstimateStatusNone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repository.New(pool).Create(context.Background(), sr); err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	return sr
}

// Cancellation must leave no open offer behind: pending quotes and the pending
// estimate go to rejected, and the estimate is detached from the request.
func TestCancelCascade(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()
	repo := repository.New(pool)
	sr := createRequest(t, pool)

	now := time.Now()
	quote := &quotesrepo.Quote{
		ID:          uuid.New(),
		RequestID:   sr.ID,
		ProviderID:  uuid.New(),
		AmountCents: 10000,
		Status:      quotesrepo.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := quotesrepo.New(pool).Submit(ctx, quote); err != nil {
		t.Fatalf("failed to submit quote: %v", err)
	}

	estimate := &estimatesrepo.Estimate{
		ID:               uuid.New(),
		RequestID:        sr.ID,
		ProviderID:       uuid.New(),
		LaborCostCents:   10000,
		TotalAmountCents: 10000,
		Status:           estimatesrepo.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := estimatesrepo.New(pool).Create(ctx, estimate); err != nil {
		t.Fatalf("failed to create estimate: %v", err)
	}

	result, err := repo.Cancel(ctx, sr.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if result.PreviousStatus != domain.StatusQuoted {
		t.Errorf("previous status = %q, want %q", result.PreviousStatus, domain.StatusQuoted)
	}
	if len(result.RejectedQuoteIDs) != 1 || result.RejectedQuoteIDs[0] != quote.ID {
		t.Errorf("rejected quotes = %v, want [%s]", result.RejectedQuoteIDs, quote.ID)
	}
	if len(result.RejectedEstimates) != 1 || result.RejectedEstimates[0] != estimate.ID {
		t.Errorf("rejected estimates = %v, want [%s]", result.RejectedEstimates, estimate.ID)
	}

	got, err := repo.GetByID(ctx, sr.ID)
	if err != nil {
		t.Fatalf("failed to reload request: %v", err)
	}
	if got.Status != domain.StatusCancelled {
		t.Errorf("request status = %q, want %q", got.Status, domain.StatusCancelled)
	}
	if got.EstimateStatus != domain.EstimateStatusRejected {
		t.Errorf("estimateStatus = %q, want %q", got.EstimateStatus, domain.EstimateStatusRejected)
	}
	if got.CurrentEstimateID != nil {
		t.Errorf("currentEstimateId = %s, want cleared", *got.CurrentEstimateID)
	}

	q, err := quotesrepo.New(pool).GetByID(ctx, quote.ID)
	if err != nil {
		t.Fatalf("failed to reload quote: %v", err)
	}
	if q.Status != quotesrepo.StatusRejected {
		t.Errorf("quote status = %q, want %q", q.Status, quotesrepo.StatusRejected)
	}
	if q.Remarks == nil || *q.Remarks != "Request was cancelled" {
		t.Errorf("quote remarks = %v, want cancellation remarks", q.Remarks)
	}

	e, err := estimatesrepo.New(pool).GetByID(ctx, estimate.ID)
	if err != nil {
		t.Fatalf("failed to reload estimate: %v", err)
	}
	if e.Status != estimatesrepo.StatusRejected {
		t.Errorf("estimate status = %q, want %q", e.Status, estimatesrepo.StatusRejected)
	}
}

func TestCancelWithoutOpenOffers(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()
	repo := repository.New(pool)
	sr := createRequest(t, pool)

	result, err := repo.Cancel(ctx, sr.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if result.PreviousStatus != domain.StatusPending {
		t.Errorf("previous status = %q, want %q", result.PreviousStatus, domain.StatusPending)
	}
	if len(result.RejectedQuoteIDs) != 0 || len(result.RejectedEstimates) != 0 {
		t.Errorf("cascade touched %d quotes and %d estimates, want none",
			len(result.RejectedQuoteIDs), len(result.RejectedEstimates))
	}

	got, err := repo.GetByID(ctx, sr.ID)
	if err != nil {
		t.Fatalf("failed to reload request: %v", err)
	}
	if got.EstimateStatus != domain.EstimateStatusNone {
		t.Errorf("estimateStatus = %q, want %q", got.EstimateStatus, domain.EstimateStatusNone)
	}
}
