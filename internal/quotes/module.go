// Package quotes provides the quote engine: the only component that moves a
// request into quoted or confirmed.
package quotes

import (
	domainevents "gearbox_backend/internal/events"
	apphttp "gearbox_backend/internal/http"
	"gearbox_backend/internal/quotes/handler"
	"gearbox_backend/internal/quotes/repository"
	"gearbox_backend/internal/quotes/service"
	"gearbox_backend/platform/logger"
	"gearbox_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the quotes domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new quotes module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, log *logger.Logger, eventBus domainevents.Bus, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	svc.SetEventBus(eventBus)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	quotes := ctx.Protected.Group("/quotes")
	m.handler.RegisterRoutes(quotes)

	// Request-scoped routes share the /requests prefix with the requests module.
	requests := ctx.Protected.Group("/requests")
	m.handler.RegisterRequestRoutes(requests)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
