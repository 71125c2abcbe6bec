package repository_test

import (
	"context"
	"testing"
	"time"

	"gearbox_backend/internal/estimates/repository"
	"gearbox_backend/internal/requests/domain"
	requestsrepo "gearbox_backend/internal/requests/repository"
	"gearbox_backend/platform/apperr"
	"gearbox_backend/platform/db/dbtest"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func createRequest(t *testing.T, pool *pgxpool.Pool) *requestsrepo.ServiceRequest {
	t.Helper()

	now := time.Now()
	sr := &requestsrepo.ServiceRequest{
		ID:             uuid.New(),
		OwnerID:        uuid.New(),
		VehicleID:      uuid.New(),
		ServiceTypeID:  uuid.New(),
		Status:         domain.StatusPending,
		EstimateStatus: domain.EstimateStatusNone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := requestsrepo.New(pool).Create(context.Background(), sr); err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	return sr
}

func newEstimate(requestID uuid.UUID) *repository.Estimate {
	now := time.Now()
	return &repository.Estimate{
		ID:               uuid.New(),
		RequestID:        requestID,
		ProviderID:       uuid.New(),
		LaborCostCents:   10000,
		PartsCostCents:   5000,
		TotalAmountCents: 15000,
		Status:           repository.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestCreateRejectsSecondActiveEstimate(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()
	repo := repository.New(pool)
	sr := createRequest(t, pool)

	first := newEstimate(sr.ID)
	if _, err := repo.Create(ctx, first); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	got, err := requestsrepo.New(pool).GetByID(ctx, sr.ID)
	if err != nil {
		t.Fatalf("failed to reload request: %v", err)
	}
	if got.EstimateStatus != domain.EstimateStatusPending {
		t.Errorf("estimateStatus = %q, want %q", got.EstimateStatus, domain.EstimateStatusPending)
	}
	if got.CurrentEstimateID == nil || *got.CurrentEstimateID != first.ID {
		t.Errorf("currentEstimateId = %v, want %s", got.CurrentEstimateID, first.ID)
	}

	if _, err := repo.Create(ctx, newEstimate(sr.ID)); err == nil {
		t.Fatal("second estimate against a pending estimate succeeded, want conflict")
	} else if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("error kind = %v, want conflict: %v", apperr.GetKind(err), err)
	}

	// An accepted estimate still occupies the active slot.
	if _, err := repo.Accept(ctx, first.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := repo.Create(ctx, newEstimate(sr.ID)); err == nil {
		t.Fatal("estimate against an accepted estimate succeeded, want conflict")
	} else if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("error kind = %v, want conflict: %v", apperr.GetKind(err), err)
	}
}

func TestRejectFreesActiveSlot(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()
	repo := repository.New(pool)
	sr := createRequest(t, pool)

	first := newEstimate(sr.ID)
	if _, err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	reason := "Too expensive"
	if _, err := repo.Reject(ctx, first.ID, &reason); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	got, err := requestsrepo.New(pool).GetByID(ctx, sr.ID)
	if err != nil {
		t.Fatalf("failed to reload request: %v", err)
	}
	if got.EstimateStatus != domain.EstimateStatusRejected {
		t.Errorf("estimateStatus = %q, want %q", got.EstimateStatus, domain.EstimateStatusRejected)
	}
	if got.CurrentEstimateID != nil {
		t.Errorf("currentEstimateId = %s, want cleared", *got.CurrentEstimateID)
	}

	// Rejection frees the slot for a replacement estimate.
	if _, err := repo.Create(ctx, newEstimate(sr.ID)); err != nil {
		t.Fatalf("create after rejection failed: %v", err)
	}
}

func TestAcceptFreezesTotalOnRequest(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()
	repo := repository.New(pool)
	sr := createRequest(t, pool)

	e := newEstimate(sr.ID)
	if _, err := repo.Create(ctx, e); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	result, err := repo.Accept(ctx, e.ID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if result.Estimate.AcceptedAt == nil {
		t.Error("accepted estimate has no acceptance time")
	}

	got, err := requestsrepo.New(pool).GetByID(ctx, sr.ID)
	if err != nil {
		t.Fatalf("failed to reload request: %v", err)
	}
	if got.EstimateStatus != domain.EstimateStatusAccepted {
		t.Errorf("estimateStatus = %q, want %q", got.EstimateStatus, domain.EstimateStatusAccepted)
	}
	if got.TotalCostCents == nil || *got.TotalCostCents != e.TotalAmountCents {
		t.Errorf("totalCostCents = %v, want %d", got.TotalCostCents, e.TotalAmountCents)
	}
}
