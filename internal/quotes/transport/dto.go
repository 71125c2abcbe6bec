package transport

import (
	"time"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// MaterialRequest is the input for a priced material line on a quote.
type MaterialRequest struct {
	Name      string  `json:"name" validate:"required,min=1,max=500"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	CostCents int64   `json:"costCents" validate:"min=0"`
}

// SubmitQuoteRequest is the request body for submitting a quote against a
// service request.
type SubmitQuoteRequest struct {
	AmountCents    int64             `json:"amountCents" validate:"required,gt=0"`
	LaborCostCents int64             `json:"laborCostCents" validate:"min=0"`
	Materials      []MaterialRequest `json:"materials" validate:"omitempty,dive"`
	Remarks        string            `json:"remarks" validate:"omitempty,max=1000"`
	ValidUntil     *time.Time        `json:"validUntil"`
}

// UpdateQuoteStatusRequest is the request body for accepting or rejecting a quote.
type UpdateQuoteStatusRequest struct {
	Status  string `json:"status" validate:"required,oneof=accepted rejected"`
	Remarks string `json:"remarks" validate:"omitempty,max=1000"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// MaterialResponse is the API shape of a material line.
type MaterialResponse struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	CostCents int64   `json:"costCents"`
}

// QuoteResponse is the API shape of a service quote.
type QuoteResponse struct {
	ID             uuid.UUID          `json:"id"`
	RequestID      uuid.UUID          `json:"requestId"`
	ProviderID     uuid.UUID          `json:"providerId"`
	AmountCents    int64              `json:"amountCents"`
	LaborCostCents int64              `json:"laborCostCents"`
	Materials      []MaterialResponse `json:"materials"`
	Status         string             `json:"status"`
	Remarks        *string            `json:"remarks,omitempty"`
	ValidUntil     *time.Time         `json:"validUntil,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// ListQuotesResponse is the envelope for a request's quotes, cheapest first.
type ListQuotesResponse struct {
	Items []QuoteResponse `json:"items"`
	Total int             `json:"total"`
}
