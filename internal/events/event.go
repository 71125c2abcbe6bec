// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"gearbox_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Service Request Domain Events
// =============================================================================

// RequestCreated is published when a new service request is created.
type RequestCreated struct {
	BaseEvent
	RequestID     uuid.UUID `json:"requestId"`
	OwnerID       uuid.UUID `json:"ownerId"`
	VehicleID     uuid.UUID `json:"vehicleId"`
	ServiceTypeID uuid.UUID `json:"serviceTypeId"`
}

func (e RequestCreated) EventName() string { return "requests.created" }

// RequestStatusChanged is published on every service request status transition,
// including transitions driven by the quote engine (quoted, confirmed).
type RequestStatusChanged struct {
	BaseEvent
	RequestID uuid.UUID `json:"requestId"`
	OwnerID   uuid.UUID `json:"ownerId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Remarks   string    `json:"remarks,omitempty"`
}

func (e RequestStatusChanged) EventName() string { return "requests.status.changed" }

// =============================================================================
// Quote Domain Events
// =============================================================================

// QuoteSubmitted is published when a provider submits a quote against a request.
type QuoteSubmitted struct {
	BaseEvent
	QuoteID     uuid.UUID `json:"quoteId"`
	RequestID   uuid.UUID `json:"requestId"`
	OwnerID     uuid.UUID `json:"ownerId"`
	ProviderID  uuid.UUID `json:"providerId"`
	AmountCents int64     `json:"amountCents"`
}

func (e QuoteSubmitted) EventName() string { return "quotes.submitted" }

// QuoteAccepted is published when the owner accepts a quote. RejectedQuoteIDs
// lists the sibling quotes rejected in the same transaction.
type QuoteAccepted struct {
	BaseEvent
	QuoteID          uuid.UUID   `json:"quoteId"`
	RequestID        uuid.UUID   `json:"requestId"`
	OwnerID          uuid.UUID   `json:"ownerId"`
	ProviderID       uuid.UUID   `json:"providerId"`
	AmountCents      int64       `json:"amountCents"`
	RejectedQuoteIDs []uuid.UUID `json:"rejectedQuoteIds"`
}

func (e QuoteAccepted) EventName() string { return "quotes.accepted" }

// QuoteRejected is published when a quote is rejected individually.
type QuoteRejected struct {
	BaseEvent
	QuoteID    uuid.UUID `json:"quoteId"`
	RequestID  uuid.UUID `json:"requestId"`
	ProviderID uuid.UUID `json:"providerId"`
	Remarks    string    `json:"remarks,omitempty"`
}

func (e QuoteRejected) EventName() string { return "quotes.rejected" }

// =============================================================================
// Estimate Domain Events
// =============================================================================

// EstimateCreated is published when a provider creates an estimate for a request.
type EstimateCreated struct {
	BaseEvent
	EstimateID       uuid.UUID `json:"estimateId"`
	RequestID        uuid.UUID `json:"requestId"`
	OwnerID          uuid.UUID `json:"ownerId"`
	ProviderID       uuid.UUID `json:"providerId"`
	TotalAmountCents int64     `json:"totalAmountCents"`
}

func (e EstimateCreated) EventName() string { return "estimates.created" }

// EstimateAccepted is published when the owner accepts an estimate; the
// accepted total is frozen onto the request.
type EstimateAccepted struct {
	BaseEvent
	EstimateID       uuid.UUID `json:"estimateId"`
	RequestID        uuid.UUID `json:"requestId"`
	OwnerID          uuid.UUID `json:"ownerId"`
	ProviderID       uuid.UUID `json:"providerId"`
	TotalAmountCents int64     `json:"totalAmountCents"`
}

func (e EstimateAccepted) EventName() string { return "estimates.accepted" }

// EstimateRejected is published when an estimate is rejected.
type EstimateRejected struct {
	BaseEvent
	EstimateID uuid.UUID `json:"estimateId"`
	RequestID  uuid.UUID `json:"requestId"`
	ProviderID uuid.UUID `json:"providerId"`
	Reason     string    `json:"reason,omitempty"`
}

func (e EstimateRejected) EventName() string { return "estimates.rejected" }

// EstimateExpiryReminderDue is published by the scheduler worker when a
// pending estimate approaches its validity deadline.
type EstimateExpiryReminderDue struct {
	BaseEvent
	EstimateID uuid.UUID `json:"estimateId"`
	RequestID  uuid.UUID `json:"requestId"`
	OwnerID    uuid.UUID `json:"ownerId"`
	ValidUntil time.Time `json:"validUntil"`
}

func (e EstimateExpiryReminderDue) EventName() string { return "estimates.expiry.reminder" }
