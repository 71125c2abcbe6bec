package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"gearbox_backend/internal/quotes/repository"
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

func newQuote(requestID uuid.UUID, amountCents int64) *repository.Quote {
	now := time.Now()
	return &repository.Quote{
		ID:          uuid.New(),
		RequestID:   requestID,
		ProviderID:  uuid.New(),
		AmountCents: amountCents,
		Status:      repository.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestSubmitDuplicateProvider(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()
	repo := repository.New(pool)
	sr := createRequest(t, pool)

	first := newQuote(sr.ID, 10000)
	result, err := repo.Submit(ctx, first)
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if !result.RequestFlipped {
		t.Error("first quote did not flip the request to quoted")
	}
	if result.OwnerID != sr.OwnerID {
		t.Errorf("owner = %s, want %s", result.OwnerID, sr.OwnerID)
	}

	second := newQuote(sr.ID, 9000)
	second.ProviderID = first.ProviderID
	if _, err := repo.Submit(ctx, second); err == nil {
		t.Fatal("second quote from the same provider succeeded, want conflict")
	} else {
		if !apperr.Is(err, apperr.KindConflict) {
			t.Errorf("error kind = %v, want conflict: %v", apperr.GetKind(err), err)
		}
		domainErr, ok := err.(*apperr.Error)
		if !ok {
			t.Fatalf("error is %T, want *apperr.Error", err)
		}
		if domainErr.ErrorCode() != "duplicate_quote" {
			t.Errorf("error code = %q, want %q", domainErr.ErrorCode(), "duplicate_quote")
		}
	}

	// A different provider can still quote the same request.
	if _, err := repo.Submit(ctx, newQuote(sr.ID, 9500)); err != nil {
		t.Fatalf("submit from a second provider failed: %v", err)
	}
}

func TestAcceptRejectsPendingSiblings(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()
	repo := repository.New(pool)
	sr := createRequest(t, pool)

	quotes := make([]*repository.Quote, 3)
	for i, amount := range []int64{12000, 10000, 15000} {
		quotes[i] = newQuote(sr.ID, amount)
		if _, err := repo.Submit(ctx, quotes[i]); err != nil {
			t.Fatalf("submit quote %d failed: %v", i, err)
		}
	}

	result, err := repo.Accept(ctx, quotes[1].ID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if result.Quote.Status != repository.StatusAccepted {
		t.Errorf("accepted quote status = %q, want %q", result.Quote.Status, repository.StatusAccepted)
	}
	if len(result.RejectedSiblingIDs) != 2 {
		t.Errorf("rejected siblings = %d, want 2", len(result.RejectedSiblingIDs))
	}

	got, err := requestsrepo.New(pool).GetByID(ctx, sr.ID)
	if err != nil {
		t.Fatalf("failed to reload request: %v", err)
	}
	if got.Status != domain.StatusConfirmed {
		t.Errorf("request status = %q, want %q", got.Status, domain.StatusConfirmed)
	}
	if got.AcceptedQuoteID == nil || *got.AcceptedQuoteID != quotes[1].ID {
		t.Errorf("acceptedQuoteId = %v, want %s", got.AcceptedQuoteID, quotes[1].ID)
	}

	for _, i := range []int{0, 2} {
		q, err := repo.GetByID(ctx, quotes[i].ID)
		if err != nil {
			t.Fatalf("failed to reload quote %d: %v", i, err)
		}
		if q.Status != repository.StatusRejected {
			t.Errorf("sibling quote %d status = %q, want %q", i, q.Status, repository.StatusRejected)
		}
		if q.Remarks == nil || *q.Remarks != "Another quote was accepted" {
			t.Errorf("sibling quote %d remarks = %v, want rejection remarks", i, q.Remarks)
		}
	}
}

func TestConcurrentAcceptsSingleWinner(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()
	repo := repository.New(pool)
	sr := createRequest(t, pool)

	first := newQuote(sr.ID, 10000)
	second := newQuote(sr.ID, 11000)
	for _, q := range []*repository.Quote{first, second} {
		if _, err := repo.Submit(ctx, q); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, id := range []uuid.UUID{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = repo.Accept(ctx, id)
		}(i, id)
	}
	wg.Wait()

	var winners, losers int
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case apperr.Is(err, apperr.KindInvalidState):
			losers++
		default:
			t.Errorf("unexpected accept error: %v", err)
		}
	}
	if winners != 1 || losers != 1 {
		t.Fatalf("winners = %d, losers = %d, want exactly one of each", winners, losers)
	}

	got, err := requestsrepo.New(pool).GetByID(ctx, sr.ID)
	if err != nil {
		t.Fatalf("failed to reload request: %v", err)
	}
	if got.Status != domain.StatusConfirmed {
		t.Errorf("request status = %q, want %q", got.Status, domain.StatusConfirmed)
	}
	if got.AcceptedQuoteID == nil {
		t.Error("request has no accepted quote after a successful accept")
	}
}

func TestRejectLastQuoteRevertsRequest(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()
	repo := repository.New(pool)
	sr := createRequest(t, pool)

	first := newQuote(sr.ID, 10000)
	second := newQuote(sr.ID, 11000)
	for _, q := range []*repository.Quote{first, second} {
		if _, err := repo.Submit(ctx, q); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	result, err := repo.Reject(ctx, first.ID, nil)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if result.RequestReverted {
		t.Error("request reverted while another quote was still open")
	}

	result, err = repo.Reject(ctx, second.ID, nil)
	if err != nil {
		t.Fatalf("reject of last quote failed: %v", err)
	}
	if !result.RequestReverted {
		t.Error("rejecting the last open quote did not revert the request")
	}

	got, err := requestsrepo.New(pool).GetByID(ctx, sr.ID)
	if err != nil {
		t.Fatalf("failed to reload request: %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Errorf("request status = %q, want %q", got.Status, domain.StatusPending)
	}
}
