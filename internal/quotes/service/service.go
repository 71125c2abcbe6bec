package service

import (
	"context"
	"time"

	domainevents "gearbox_backend/internal/events"
	"gearbox_backend/internal/quotes/repository"
	"gearbox_backend/internal/quotes/transport"
	requeststransport "gearbox_backend/internal/requests/transport"
	"gearbox_backend/platform/apperr"
	"gearbox_backend/platform/logger"

	"github.com/google/uuid"
)

// Service provides business logic for the quote engine.
type Service struct {
	repo     *repository.Repository
	log      *logger.Logger
	eventBus domainevents.Bus // optional — nil means no events
}

// New creates a new quotes service.
func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SetEventBus injects the event bus (set after construction to break circular deps).
func (s *Service) SetEventBus(bus domainevents.Bus) {
	s.eventBus = bus
}

// Submit creates a quote against a pending or quoted request. The first quote
// flips the request to quoted atomically with the insert.
func (s *Service) Submit(ctx context.Context, requestID, providerID uuid.UUID, req transport.SubmitQuoteRequest) (*transport.QuoteResponse, error) {
	if req.ValidUntil != nil && req.ValidUntil.Before(time.Now()) {
		return nil, apperr.Validation("validUntil must be in the future")
	}

	now := time.Now()
	materials := make([]repository.Material, len(req.Materials))
	for i, m := range req.Materials {
		materials[i] = repository.Material{Name: m.Name, Quantity: m.Quantity, CostCents: m.CostCents}
	}

	quote := repository.Quote{
		ID:             uuid.New(),
		RequestID:      requestID,
		ProviderID:     providerID,
		AmountCents:    req.AmountCents,
		LaborCostCents: req.LaborCostCents,
		Materials:      materials,
		Status:         repository.StatusPending,
		Remarks:        nilIfEmpty(req.Remarks),
		ValidUntil:     req.ValidUntil,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	result, err := s.repo.Submit(ctx, &quote)
	if err != nil {
		return nil, err
	}

	if result.RequestFlipped {
		s.log.StatusChanged("request", requestID.String(), "pending", "quoted")
	}
	s.publish(ctx, domainevents.QuoteSubmitted{
		BaseEvent:   domainevents.NewBaseEvent(),
		QuoteID:     quote.ID,
		RequestID:   requestID,
		OwnerID:     result.OwnerID,
		ProviderID:  providerID,
		AmountCents: quote.AmountCents,
	})

	resp := toResponse(&quote)
	return &resp, nil
}

// UpdateStatus accepts or rejects a quote on the owner's behalf.
func (s *Service) UpdateStatus(ctx context.Context, quoteID uuid.UUID, req transport.UpdateQuoteStatusRequest) (*transport.QuoteResponse, error) {
	switch req.Status {
	case repository.StatusAccepted:
		return s.accept(ctx, quoteID)
	case repository.StatusRejected:
		return s.reject(ctx, quoteID, req.Remarks)
	default:
		return nil, apperr.BadRequest("status must be accepted or rejected")
	}
}

func (s *Service) accept(ctx context.Context, quoteID uuid.UUID) (*transport.QuoteResponse, error) {
	result, err := s.repo.Accept(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	s.log.StatusChanged("quote", quoteID.String(), repository.StatusPending, repository.StatusAccepted)
	s.log.StatusChanged("request", result.Quote.RequestID.String(), "quoted", "confirmed")

	s.publish(ctx, domainevents.QuoteAccepted{
		BaseEvent:        domainevents.NewBaseEvent(),
		QuoteID:          quoteID,
		RequestID:        result.Quote.RequestID,
		OwnerID:          result.OwnerID,
		ProviderID:       result.Quote.ProviderID,
		AmountCents:      result.Quote.AmountCents,
		RejectedQuoteIDs: result.RejectedSiblingIDs,
	})
	s.publish(ctx, domainevents.RequestStatusChanged{
		BaseEvent: domainevents.NewBaseEvent(),
		RequestID: result.Quote.RequestID,
		OwnerID:   result.OwnerID,
		From:      "quoted",
		To:        "confirmed",
	})

	resp := toResponse(result.Quote)
	return &resp, nil
}

func (s *Service) reject(ctx context.Context, quoteID uuid.UUID, remarks string) (*transport.QuoteResponse, error) {
	result, err := s.repo.Reject(ctx, quoteID, nilIfEmpty(remarks))
	if err != nil {
		return nil, err
	}

	s.log.StatusChanged("quote", quoteID.String(), repository.StatusPending, repository.StatusRejected)
	if result.RequestReverted {
		s.log.StatusChanged("request", result.Quote.RequestID.String(), "quoted", "pending")
	}

	s.publish(ctx, domainevents.QuoteRejected{
		BaseEvent:  domainevents.NewBaseEvent(),
		QuoteID:    quoteID,
		RequestID:  result.Quote.RequestID,
		ProviderID: result.Quote.ProviderID,
		Remarks:    remarks,
	})
	if result.RequestReverted {
		s.publish(ctx, domainevents.RequestStatusChanged{
			BaseEvent: domainevents.NewBaseEvent(),
			RequestID: result.Quote.RequestID,
			OwnerID:   result.OwnerID,
			From:      "quoted",
			To:        "pending",
		})
	}

	resp := toResponse(result.Quote)
	return &resp, nil
}

// GetByID returns a single quote.
func (s *Service) GetByID(ctx context.Context, quoteID uuid.UUID) (*transport.QuoteResponse, error) {
	q, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(q)
	return &resp, nil
}

// ListForRequest returns a request's quotes, cheapest first.
func (s *Service) ListForRequest(ctx context.Context, requestID uuid.UUID) (*transport.ListQuotesResponse, error) {
	quotes, err := s.repo.ListForRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	items := make([]transport.QuoteResponse, len(quotes))
	for i := range quotes {
		items[i] = toResponse(&quotes[i])
	}
	return &transport.ListQuotesResponse{Items: items, Total: len(items)}, nil
}

// QuoteSummaries implements the composite-view reader for the requests module.
func (s *Service) QuoteSummaries(ctx context.Context, requestID uuid.UUID) ([]requeststransport.QuoteSummary, error) {
	quotes, err := s.repo.ListForRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	summaries := make([]requeststransport.QuoteSummary, len(quotes))
	for i, q := range quotes {
		summaries[i] = requeststransport.QuoteSummary{
			ID:          q.ID,
			ProviderID:  q.ProviderID,
			AmountCents: q.AmountCents,
			Status:      q.Status,
			Remarks:     q.Remarks,
			ValidUntil:  q.ValidUntil,
			CreatedAt:   q.CreatedAt,
		}
	}
	return summaries, nil
}

func (s *Service) publish(ctx context.Context, event domainevents.Event) {
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, event)
	}
}

func toResponse(q *repository.Quote) transport.QuoteResponse {
	materials := make([]transport.MaterialResponse, len(q.Materials))
	for i, m := range q.Materials {
		materials[i] = transport.MaterialResponse{Name: m.Name, Quantity: m.Quantity, CostCents: m.CostCents}
	}
	return transport.QuoteResponse{
		ID:             q.ID,
		RequestID:      q.RequestID,
		ProviderID:     q.ProviderID,
		AmountCents:    q.AmountCents,
		LaborCostCents: q.LaborCostCents,
		Materials:      materials,
		Status:         q.Status,
		Remarks:        q.Remarks,
		ValidUntil:     q.ValidUntil,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
