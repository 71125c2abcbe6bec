// Package estimates provides the estimates domain module: detailed cost
// breakdowns with server-computed totals attached to service requests.
package estimates

import (
	"gearbox_backend/internal/estimates/handler"
	"gearbox_backend/internal/estimates/repository"
	"gearbox_backend/internal/estimates/service"
	domainevents "gearbox_backend/internal/events"
	apphttp "gearbox_backend/internal/http"
	"gearbox_backend/platform/logger"
	"gearbox_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the estimates domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new estimates module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, log *logger.Logger, eventBus domainevents.Bus, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	svc.SetEventBus(eventBus)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "estimates"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for worker wiring.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	estimates := ctx.Protected.Group("/estimates")
	m.handler.RegisterRoutes(estimates)

	// Request-scoped routes share the /requests prefix with the requests module.
	requests := ctx.Protected.Group("/requests")
	m.handler.RegisterRequestRoutes(requests)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
