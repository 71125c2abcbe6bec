package service

import (
	"context"
	"time"

	"gearbox_backend/internal/estimates/repository"
	"gearbox_backend/internal/estimates/transport"
	domainevents "gearbox_backend/internal/events"
	requeststransport "gearbox_backend/internal/requests/transport"
	"gearbox_backend/platform/apperr"
	"gearbox_backend/platform/logger"

	"github.com/google/uuid"
)

// ExpiryReminderScheduler schedules an advisory reminder shortly before a
// pending estimate's validity window closes. Expiry itself is enforced
// lazily at accept time; the reminder only nudges the owner.
type ExpiryReminderScheduler interface {
	ScheduleExpiryReminder(ctx context.Context, estimateID, requestID uuid.UUID, validUntil time.Time) error
}

// Service provides business logic for estimates.
type Service struct {
	repo      *repository.Repository
	log       *logger.Logger
	eventBus  domainevents.Bus        // optional — nil means no events
	scheduler ExpiryReminderScheduler // optional — nil means no reminders
}

// New creates a new estimates service.
func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SetEventBus injects the event bus (set after construction to break circular deps).
func (s *Service) SetEventBus(bus domainevents.Bus) {
	s.eventBus = bus
}

// SetScheduler injects the expiry-reminder scheduler.
func (s *Service) SetScheduler(sched ExpiryReminderScheduler) {
	s.scheduler = sched
}

// Create builds an estimate with a server-computed total and attaches it to
// the request. At most one pending or accepted estimate may exist per request.
func (s *Service) Create(ctx context.Context, providerID uuid.UUID, req transport.CreateEstimateRequest) (*transport.EstimateResponse, error) {
	if req.ValidUntil != nil && req.ValidUntil.Before(time.Now()) {
		return nil, apperr.Validation("validUntil must be in the future")
	}

	now := time.Now()
	e := repository.Estimate{
		ID:              uuid.New(),
		RequestID:       req.RequestID,
		ProviderID:      providerID,
		Items:           toItems(req.Items),
		LaborCostCents:  req.LaborCostCents,
		PartsCostCents:  req.PartsCostCents,
		AdditionalCosts: toAdditionalCosts(req.AdditionalCosts),
		TaxPct:          req.TaxPct,
		DiscountPct:     req.DiscountPct,
		Status:          repository.StatusPending,
		ValidUntil:      req.ValidUntil,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	e.TotalAmountCents = computeTotal(&e)

	result, err := s.repo.Create(ctx, &e)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domainevents.EstimateCreated{
		BaseEvent:        domainevents.NewBaseEvent(),
		EstimateID:       e.ID,
		RequestID:        e.RequestID,
		OwnerID:          result.OwnerID,
		ProviderID:       providerID,
		TotalAmountCents: e.TotalAmountCents,
	})

	if s.scheduler != nil && e.ValidUntil != nil {
		if err := s.scheduler.ScheduleExpiryReminder(ctx, e.ID, e.RequestID, *e.ValidUntil); err != nil {
			s.log.Warn("failed to schedule expiry reminder", "estimate_id", e.ID.String(), "error", err.Error())
		}
	}

	resp := toResponse(&e)
	return &resp, nil
}

// Accept accepts a pending estimate; the total is frozen onto the request.
func (s *Service) Accept(ctx context.Context, estimateID uuid.UUID) (*transport.EstimateResponse, error) {
	result, err := s.repo.Accept(ctx, estimateID)
	if err != nil {
		return nil, err
	}

	s.log.StatusChanged("estimate", estimateID.String(), repository.StatusPending, repository.StatusAccepted)
	s.publish(ctx, domainevents.EstimateAccepted{
		BaseEvent:        domainevents.NewBaseEvent(),
		EstimateID:       estimateID,
		RequestID:        result.Estimate.RequestID,
		OwnerID:          result.OwnerID,
		ProviderID:       result.Estimate.ProviderID,
		TotalAmountCents: result.Estimate.TotalAmountCents,
	})

	resp := toResponse(result.Estimate)
	return &resp, nil
}

// Reject rejects a pending estimate with an optional reason.
func (s *Service) Reject(ctx context.Context, estimateID uuid.UUID, req transport.RejectEstimateRequest) (*transport.EstimateResponse, error) {
	result, err := s.repo.Reject(ctx, estimateID, nilIfEmpty(req.Reason))
	if err != nil {
		return nil, err
	}

	s.log.StatusChanged("estimate", estimateID.String(), repository.StatusPending, repository.StatusRejected)
	s.publish(ctx, domainevents.EstimateRejected{
		BaseEvent:  domainevents.NewBaseEvent(),
		EstimateID: estimateID,
		RequestID:  result.Estimate.RequestID,
		ProviderID: result.Estimate.ProviderID,
		Reason:     req.Reason,
	})

	resp := toResponse(result.Estimate)
	return &resp, nil
}

// Update revises a pending estimate. Absent fields keep their current values
// and the total is recomputed from the merged state.
func (s *Service) Update(ctx context.Context, estimateID uuid.UUID, req transport.UpdateEstimateRequest) (*transport.EstimateResponse, error) {
	current, err := s.repo.GetByID(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	if current.Status != repository.StatusPending {
		return nil, apperr.InvalidState("only pending estimates can be updated")
	}

	if req.Items != nil {
		current.Items = toItems(*req.Items)
	}
	if req.LaborCostCents != nil {
		current.LaborCostCents = *req.LaborCostCents
	}
	if req.PartsCostCents != nil {
		current.PartsCostCents = *req.PartsCostCents
	}
	if req.AdditionalCosts != nil {
		current.AdditionalCosts = toAdditionalCosts(*req.AdditionalCosts)
	}
	if req.TaxPct != nil {
		current.TaxPct = *req.TaxPct
	}
	if req.DiscountPct != nil {
		current.DiscountPct = *req.DiscountPct
	}
	if req.ValidUntil != nil {
		if req.ValidUntil.Before(time.Now()) {
			return nil, apperr.Validation("validUntil must be in the future")
		}
		current.ValidUntil = req.ValidUntil
	}
	current.TotalAmountCents = computeTotal(current)
	current.UpdatedAt = time.Now()

	result, err := s.repo.Update(ctx, current)
	if err != nil {
		return nil, err
	}

	resp := toResponse(result.Estimate)
	return &resp, nil
}

// GetByID returns a single estimate.
func (s *Service) GetByID(ctx context.Context, estimateID uuid.UUID) (*transport.EstimateResponse, error) {
	e, err := s.repo.GetByID(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(e)
	return &resp, nil
}

// ListForRequest returns a request's estimates, newest first.
func (s *Service) ListForRequest(ctx context.Context, requestID uuid.UUID) (*transport.ListEstimatesResponse, error) {
	estimates, err := s.repo.ListForRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	items := make([]transport.EstimateResponse, len(estimates))
	for i := range estimates {
		items[i] = toResponse(&estimates[i])
	}
	return &transport.ListEstimatesResponse{Items: items, Total: len(items)}, nil
}

// EstimateSummary implements the composite-view reader for the requests module.
func (s *Service) EstimateSummary(ctx context.Context, estimateID uuid.UUID) (*requeststransport.EstimateSummary, error) {
	e, err := s.repo.GetByID(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	return &requeststransport.EstimateSummary{
		ID:               e.ID,
		ProviderID:       e.ProviderID,
		TotalAmountCents: e.TotalAmountCents,
		Status:           e.Status,
		ValidUntil:       e.ValidUntil,
		CreatedAt:        e.CreatedAt,
	}, nil
}

func computeTotal(e *repository.Estimate) int64 {
	additional := make([]int64, len(e.AdditionalCosts))
	for i, c := range e.AdditionalCosts {
		additional[i] = c.AmountCents
	}
	// Work items are descriptive; only the cost fields enter the total.
	in := CalculationInput{
		LaborCostCents:       e.LaborCostCents,
		PartsCostCents:       e.PartsCostCents,
		AdditionalCostsCents: additional,
		TaxPct:               e.TaxPct,
		DiscountPct:          e.DiscountPct,
	}
	return CalculateTotal(in)
}

func (s *Service) publish(ctx context.Context, event domainevents.Event) {
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, event)
	}
}

func toItems(in []transport.EstimateItemRequest) []repository.Item {
	items := make([]repository.Item, len(in))
	for i, it := range in {
		items[i] = repository.Item{Description: it.Description, Quantity: it.Quantity, CostCents: it.CostCents}
	}
	return items
}

func toAdditionalCosts(in []transport.AdditionalCostRequest) []repository.AdditionalCost {
	costs := make([]repository.AdditionalCost, len(in))
	for i, c := range in {
		costs[i] = repository.AdditionalCost{Description: c.Description, AmountCents: c.AmountCents}
	}
	return costs
}

func toResponse(e *repository.Estimate) transport.EstimateResponse {
	items := make([]transport.EstimateItemResponse, len(e.Items))
	for i, it := range e.Items {
		items[i] = transport.EstimateItemResponse{Description: it.Description, Quantity: it.Quantity, CostCents: it.CostCents}
	}
	costs := make([]transport.AdditionalCostResponse, len(e.AdditionalCosts))
	for i, c := range e.AdditionalCosts {
		costs[i] = transport.AdditionalCostResponse{Description: c.Description, AmountCents: c.AmountCents}
	}
	return transport.EstimateResponse{
		ID:               e.ID,
		RequestID:        e.RequestID,
		ProviderID:       e.ProviderID,
		Items:            items,
		LaborCostCents:   e.LaborCostCents,
		PartsCostCents:   e.PartsCostCents,
		AdditionalCosts:  costs,
		TaxPct:           e.TaxPct,
		DiscountPct:      e.DiscountPct,
		TotalAmountCents: e.TotalAmountCents,
		Status:           e.Status,
		ValidUntil:       e.ValidUntil,
		AcceptedAt:       e.AcceptedAt,
		RejectionReason:  e.RejectionReason,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
