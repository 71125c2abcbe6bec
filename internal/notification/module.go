// Package notification provides event handlers for sending emails in response
// to domain events. The module subscribes to events and inverts the
// dependency: domain modules never need to know about email providers or
// templates.
package notification

import (
	"context"
	"fmt"

	"gearbox_backend/internal/email"
	"gearbox_backend/internal/events"
	"gearbox_backend/platform/config"
	"gearbox_backend/platform/logger"

	"github.com/google/uuid"
)

// RecipientResolver maps a user ID to an email address. Identity lives
// outside this service, so the resolver is injected at wiring time. A nil
// resolver or an empty address skips the notification.
type RecipientResolver interface {
	EmailForUser(ctx context.Context, userID uuid.UUID) (string, error)
}

// Module handles all notification-related event subscriptions.
type Module struct {
	sender   email.Sender
	cfg      config.NotificationConfig
	log      *logger.Logger
	resolver RecipientResolver
}

// New creates a new notification module. Sender may be nil when email is
// disabled; every handler becomes a no-op in that case.
func New(sender email.Sender, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{
		sender: sender,
		cfg:    cfg,
		log:    log,
	}
}

// SetRecipientResolver injects the user directory lookup.
func (m *Module) SetRecipientResolver(r RecipientResolver) {
	m.resolver = r
}

// RegisterHandlers subscribes the module to all events it reacts to.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.RequestStatusChanged{}.EventName(), m)

	bus.Subscribe(events.QuoteSubmitted{}.EventName(), m)
	bus.Subscribe(events.QuoteAccepted{}.EventName(), m)
	bus.Subscribe(events.QuoteRejected{}.EventName(), m)

	bus.Subscribe(events.EstimateCreated{}.EventName(), m)
	bus.Subscribe(events.EstimateAccepted{}.EventName(), m)
	bus.Subscribe(events.EstimateRejected{}.EventName(), m)
	bus.Subscribe(events.EstimateExpiryReminderDue{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle implements events.Handler by dispatching on the concrete event type.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.RequestStatusChanged:
		return m.handleRequestStatusChanged(ctx, e)
	case events.QuoteSubmitted:
		return m.handleQuoteSubmitted(ctx, e)
	case events.QuoteAccepted:
		return m.handleQuoteAccepted(ctx, e)
	case events.QuoteRejected:
		return m.handleQuoteRejected(ctx, e)
	case events.EstimateCreated:
		return m.handleEstimateCreated(ctx, e)
	case events.EstimateAccepted:
		return m.handleEstimateAccepted(ctx, e)
	case events.EstimateRejected:
		return m.handleEstimateRejected(ctx, e)
	case events.EstimateExpiryReminderDue:
		return m.handleEstimateExpiryReminderDue(ctx, e)
	}
	return nil
}

func (m *Module) handleRequestStatusChanged(ctx context.Context, e events.RequestStatusChanged) error {
	// Owner-initiated transitions need no email; the engine-driven ones
	// (quoted, confirmed) are already covered by the quote emails.
	if e.To != "cancelled" && e.To != "completed" {
		return nil
	}
	toEmail := m.recipient(ctx, e.EventName(), e.OwnerID)
	if toEmail == "" {
		return nil
	}
	url := m.requestURL(e.RequestID)
	if err := m.sender.SendRequestStatusEmail(ctx, toEmail, url, e.From, e.To); err != nil {
		m.log.NotifyFailure(e.EventName(), toEmail, err)
	}
	return nil
}

func (m *Module) handleQuoteSubmitted(ctx context.Context, e events.QuoteSubmitted) error {
	toEmail := m.recipient(ctx, e.EventName(), e.OwnerID)
	if toEmail == "" {
		return nil
	}
	url := m.requestURL(e.RequestID)
	if err := m.sender.SendQuoteSubmittedEmail(ctx, toEmail, url, e.AmountCents); err != nil {
		m.log.NotifyFailure(e.EventName(), toEmail, err)
	}
	return nil
}

func (m *Module) handleQuoteAccepted(ctx context.Context, e events.QuoteAccepted) error {
	toEmail := m.recipient(ctx, e.EventName(), e.ProviderID)
	if toEmail == "" {
		return nil
	}
	url := m.requestURL(e.RequestID)
	if err := m.sender.SendQuoteAcceptedEmail(ctx, toEmail, url, e.AmountCents); err != nil {
		m.log.NotifyFailure(e.EventName(), toEmail, err)
	}
	return nil
}

func (m *Module) handleQuoteRejected(ctx context.Context, e events.QuoteRejected) error {
	toEmail := m.recipient(ctx, e.EventName(), e.ProviderID)
	if toEmail == "" {
		return nil
	}
	url := m.requestURL(e.RequestID)
	if err := m.sender.SendQuoteRejectedEmail(ctx, toEmail, url, e.Remarks); err != nil {
		m.log.NotifyFailure(e.EventName(), toEmail, err)
	}
	return nil
}

func (m *Module) handleEstimateCreated(ctx context.Context, e events.EstimateCreated) error {
	toEmail := m.recipient(ctx, e.EventName(), e.OwnerID)
	if toEmail == "" {
		return nil
	}
	url := m.requestURL(e.RequestID)
	if err := m.sender.SendEstimateCreatedEmail(ctx, toEmail, url, e.TotalAmountCents); err != nil {
		m.log.NotifyFailure(e.EventName(), toEmail, err)
	}
	return nil
}

func (m *Module) handleEstimateAccepted(ctx context.Context, e events.EstimateAccepted) error {
	toEmail := m.recipient(ctx, e.EventName(), e.ProviderID)
	if toEmail == "" {
		return nil
	}
	url := m.requestURL(e.RequestID)
	if err := m.sender.SendEstimateAcceptedEmail(ctx, toEmail, url, e.TotalAmountCents); err != nil {
		m.log.NotifyFailure(e.EventName(), toEmail, err)
	}
	return nil
}

func (m *Module) handleEstimateRejected(ctx context.Context, e events.EstimateRejected) error {
	toEmail := m.recipient(ctx, e.EventName(), e.ProviderID)
	if toEmail == "" {
		return nil
	}
	url := m.requestURL(e.RequestID)
	if err := m.sender.SendEstimateRejectedEmail(ctx, toEmail, url, e.Reason); err != nil {
		m.log.NotifyFailure(e.EventName(), toEmail, err)
	}
	return nil
}

func (m *Module) handleEstimateExpiryReminderDue(ctx context.Context, e events.EstimateExpiryReminderDue) error {
	toEmail := m.recipient(ctx, e.EventName(), e.OwnerID)
	if toEmail == "" {
		return nil
	}
	url := m.requestURL(e.RequestID)
	if err := m.sender.SendEstimateExpiryReminderEmail(ctx, toEmail, url, e.ValidUntil); err != nil {
		m.log.NotifyFailure(e.EventName(), toEmail, err)
	}
	return nil
}

// recipient resolves the email address for a user, returning "" when the
// notification should be skipped. Resolution failures are logged, never
// surfaced: notifications are best-effort.
func (m *Module) recipient(ctx context.Context, event string, userID uuid.UUID) string {
	if m.sender == nil || m.resolver == nil || userID == uuid.Nil {
		return ""
	}
	addr, err := m.resolver.EmailForUser(ctx, userID)
	if err != nil {
		m.log.NotifyFailure(event, userID.String(), err)
		return ""
	}
	return addr
}

func (m *Module) requestURL(requestID uuid.UUID) string {
	return fmt.Sprintf("%s/requests/%s", m.cfg.GetAppBaseURL(), requestID)
}
