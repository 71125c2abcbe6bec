// Package requests provides the service-requests domain module: the lifecycle
// controller for vehicle service requests and their composite views.
package requests

import (
	"context"

	"gearbox_backend/internal/adapters/storage"
	domainevents "gearbox_backend/internal/events"
	apphttp "gearbox_backend/internal/http"
	"gearbox_backend/internal/requests/handler"
	"gearbox_backend/internal/requests/repository"
	"gearbox_backend/internal/requests/service"
	"gearbox_backend/platform/cache"
	"gearbox_backend/platform/logger"
	"gearbox_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the service-requests domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new requests module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, log *logger.Logger, eventBus domainevents.Bus, viewCache *cache.Cache, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	svc.SetEventBus(eventBus)
	svc.SetViewCache(viewCache)
	h := handler.New(svc, val)

	m := &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
	m.subscribeInvalidation(eventBus)
	return m
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "requests"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for adapter wiring.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// Handler returns the handler for late dependency injection.
func (m *Module) Handler() *handler.Handler {
	return m.handler
}

// NewAttachmentService wires the MinIO-backed attachment flow for the module.
func NewAttachmentService(repo *repository.Repository, st storage.StorageService, bucket string) *service.AttachmentService {
	return service.NewAttachmentService(repo, st, bucket)
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	requests := ctx.Protected.Group("/requests")
	m.handler.RegisterRoutes(requests)
}

// subscribeInvalidation drops cached composite views whenever the quote
// engine or estimate module mutates state belonging to a request.
func (m *Module) subscribeInvalidation(bus domainevents.Bus) {
	if bus == nil {
		return
	}

	invalidate := domainevents.HandlerFunc(func(ctx context.Context, event domainevents.Event) error {
		switch e := event.(type) {
		case domainevents.QuoteSubmitted:
			m.service.InvalidateView(ctx, e.RequestID)
		case domainevents.QuoteAccepted:
			m.service.InvalidateView(ctx, e.RequestID)
		case domainevents.QuoteRejected:
			m.service.InvalidateView(ctx, e.RequestID)
		case domainevents.EstimateCreated:
			m.service.InvalidateView(ctx, e.RequestID)
		case domainevents.EstimateAccepted:
			m.service.InvalidateView(ctx, e.RequestID)
		case domainevents.EstimateRejected:
			m.service.InvalidateView(ctx, e.RequestID)
		case domainevents.RequestStatusChanged:
			m.service.InvalidateView(ctx, e.RequestID)
		}
		return nil
	})

	for _, name := range []string{
		domainevents.QuoteSubmitted{}.EventName(),
		domainevents.QuoteAccepted{}.EventName(),
		domainevents.QuoteRejected{}.EventName(),
		domainevents.EstimateCreated{}.EventName(),
		domainevents.EstimateAccepted{}.EventName(),
		domainevents.EstimateRejected{}.EventName(),
		domainevents.RequestStatusChanged{}.EventName(),
	} {
		bus.Subscribe(name, invalidate)
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
