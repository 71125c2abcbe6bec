package service

import (
	"context"
	"errors"
	"time"

	domainevents "gearbox_backend/internal/events"
	"gearbox_backend/internal/requests/domain"
	"gearbox_backend/internal/requests/repository"
	"gearbox_backend/internal/requests/transport"
	"gearbox_backend/platform/apperr"
	"gearbox_backend/platform/cache"
	"gearbox_backend/platform/logger"
	"gearbox_backend/platform/phone"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// QuoteReader is the narrow interface the composite view needs from the quote
// engine. Implemented by an adapter so this module never imports the quotes
// domain directly.
type QuoteReader interface {
	QuoteSummaries(ctx context.Context, requestID uuid.UUID) ([]transport.QuoteSummary, error)
}

// EstimateReader supplies the current estimate slice of the composite view.
type EstimateReader interface {
	EstimateSummary(ctx context.Context, estimateID uuid.UUID) (*transport.EstimateSummary, error)
}

// Service provides the lifecycle controller for service requests.
type Service struct {
	repo     *repository.Repository
	log      *logger.Logger
	eventBus domainevents.Bus // optional — nil means no events
	views    *cache.Cache     // nil-safe, read-side cache of composite views
	quotes   QuoteReader      // optional — nil means quotes omitted from views
	ests     EstimateReader   // optional
}

// New creates a new requests service.
func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SetEventBus injects the event bus (set after construction to break circular deps).
func (s *Service) SetEventBus(bus domainevents.Bus) {
	s.eventBus = bus
}

// SetViewCache injects the composite-view cache.
func (s *Service) SetViewCache(c *cache.Cache) {
	s.views = c
}

// SetReaders injects the composite-view readers.
func (s *Service) SetReaders(q QuoteReader, e EstimateReader) {
	s.quotes = q
	s.ests = e
}

func viewCacheKey(id uuid.UUID) string {
	return "requests:view:" + id.String()
}

// InvalidateView drops the cached composite view for a request. Called from
// the event-driven invalidation handler registered in the module.
func (s *Service) InvalidateView(ctx context.Context, id uuid.UUID) {
	if err := s.views.Delete(ctx, viewCacheKey(id)); err != nil {
		s.log.Warn("view cache invalidation failed", "request_id", id.String(), "error", err.Error())
	}
}

// Create creates a new service request in the pending state.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req transport.CreateRequestRequest) (*transport.RequestResponse, error) {
	now := time.Now()
	sr := repository.ServiceRequest{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		VehicleID:      req.VehicleID,
		ServiceTypeID:  req.ServiceTypeID,
		Description:    nilIfEmpty(req.Description),
		Status:         domain.StatusPending,
		EstimateStatus: domain.EstimateStatusNone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.ContactPhone != "" {
		normalized := phone.NormalizeE164(req.ContactPhone)
		sr.ContactPhone = &normalized
	}

	if err := s.repo.Create(ctx, &sr); err != nil {
		return nil, err
	}

	s.publish(ctx, domainevents.RequestCreated{
		BaseEvent:     domainevents.NewBaseEvent(),
		RequestID:     sr.ID,
		OwnerID:       sr.OwnerID,
		VehicleID:     sr.VehicleID,
		ServiceTypeID: sr.ServiceTypeID,
	})

	resp := toResponse(&sr)
	return &resp, nil
}

// UpdateStatus performs a caller-driven status transition. Cancellation runs
// the cascade; everything else is a plain guarded transition.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, req transport.UpdateRequestStatusRequest) (*transport.RequestResponse, error) {
	sr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sr.OwnerID != ownerID {
		return nil, apperr.Forbidden("request belongs to another owner")
	}

	if err := domain.ValidateTransition(sr.Status, req.Status); err != nil {
		return nil, err
	}

	from := sr.Status
	if req.Status == domain.StatusCancelled {
		result, err := s.repo.Cancel(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, qid := range result.RejectedQuoteIDs {
			s.publish(ctx, domainevents.QuoteRejected{
				BaseEvent: domainevents.NewBaseEvent(),
				QuoteID:   qid,
				RequestID: id,
				Remarks:   "Request was cancelled",
			})
		}
	} else {
		if err := s.repo.UpdateStatus(ctx, id, from, req.Status); err != nil {
			return nil, err
		}
	}

	s.log.StatusChanged("request", id.String(), from, req.Status)
	s.publish(ctx, domainevents.RequestStatusChanged{
		BaseEvent: domainevents.NewBaseEvent(),
		RequestID: id,
		OwnerID:   sr.OwnerID,
		From:      from,
		To:        req.Status,
		Remarks:   req.Remarks,
	})

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(updated)
	return &resp, nil
}

// GetByID returns the composite view of a request: the request itself, its
// quotes sorted by amount, and the current estimate. The three reads run
// concurrently and the assembled view is cached read-side; mutation events
// invalidate the entry.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*transport.RequestDetailResponse, error) {
	var cached transport.RequestDetailResponse
	if err := s.views.Get(ctx, viewCacheKey(id), &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("view cache read failed", "request_id", id.String(), "error", err.Error())
	}

	sr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := transport.RequestDetailResponse{
		RequestResponse: toResponse(sr),
		Quotes:          []transport.QuoteSummary{},
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.quotes != nil {
		g.Go(func() error {
			quotes, err := s.quotes.QuoteSummaries(gctx, id)
			if err != nil {
				return err
			}
			if quotes != nil {
				view.Quotes = quotes
			}
			return nil
		})
	}
	if s.ests != nil && sr.CurrentEstimateID != nil {
		estimateID := *sr.CurrentEstimateID
		g.Go(func() error {
			est, err := s.ests.EstimateSummary(gctx, estimateID)
			if err != nil {
				return err
			}
			view.CurrentEstimate = est
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.views.Set(ctx, viewCacheKey(id), view); err != nil {
		s.log.Warn("view cache write failed", "request_id", id.String(), "error", err.Error())
	}
	return &view, nil
}

// List returns service requests with filters and pagination.
func (s *Service) List(ctx context.Context, req transport.ListRequestsRequest) (*transport.ListRequestsResponse, error) {
	params := repository.ListParams{
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 20
	}
	if req.OwnerID != "" {
		ownerID, err := uuid.Parse(req.OwnerID)
		if err != nil {
			return nil, apperr.BadRequest("invalid ownerId")
		}
		params.OwnerID = &ownerID
	}
	if req.Status != "" {
		status := req.Status
		params.Status = &status
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	items := make([]transport.RequestResponse, len(result.Items))
	for i := range result.Items {
		items[i] = toResponse(&result.Items[i])
	}
	return &transport.ListRequestsResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

func (s *Service) publish(ctx context.Context, event domainevents.Event) {
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, event)
	}
}

func toResponse(sr *repository.ServiceRequest) transport.RequestResponse {
	return transport.RequestResponse{
		ID:                sr.ID,
		OwnerID:           sr.OwnerID,
		VehicleID:         sr.VehicleID,
		ServiceTypeID:     sr.ServiceTypeID,
		Description:       sr.Description,
		ContactPhone:      sr.ContactPhone,
		Status:            sr.Status,
		AcceptedQuoteID:   sr.AcceptedQuoteID,
		CurrentEstimateID: sr.CurrentEstimateID,
		EstimateStatus:    sr.EstimateStatus,
		TotalCostCents:    sr.TotalCostCents,
		CreatedAt:         sr.CreatedAt,
		UpdatedAt:         sr.UpdatedAt,
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
