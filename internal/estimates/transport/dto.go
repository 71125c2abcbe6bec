package transport

import (
	"time"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// EstimateItemRequest is the input for a single work item on an estimate.
type EstimateItemRequest struct {
	Description string  `json:"description" validate:"required,min=1,max=500"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	CostCents   int64   `json:"costCents" validate:"min=0"`
}

// AdditionalCostRequest is the input for an extra charge line on an estimate.
type AdditionalCostRequest struct {
	Description string `json:"description" validate:"required,min=1,max=500"`
	AmountCents int64  `json:"amountCents" validate:"min=0"`
}

// CreateEstimateRequest is the request body for creating an estimate.
// The total is always computed server-side; a client-supplied total is ignored.
type CreateEstimateRequest struct {
	RequestID       uuid.UUID               `json:"requestId" validate:"required"`
	Items           []EstimateItemRequest   `json:"items" validate:"omitempty,dive"`
	LaborCostCents  int64                   `json:"laborCostCents" validate:"min=0"`
	PartsCostCents  int64                   `json:"partsCostCents" validate:"min=0"`
	AdditionalCosts []AdditionalCostRequest `json:"additionalCosts" validate:"omitempty,dive"`
	TaxPct          float64                 `json:"taxPct" validate:"min=0,max=100"`
	DiscountPct     float64                 `json:"discountPct" validate:"min=0,max=100"`
	ValidUntil      *time.Time              `json:"validUntil"`
}

// UpdateEstimateRequest is the request body for revising a pending estimate.
// Absent fields keep their current values; the total is recomputed.
type UpdateEstimateRequest struct {
	Items           *[]EstimateItemRequest   `json:"items" validate:"omitempty,dive"`
	LaborCostCents  *int64                   `json:"laborCostCents" validate:"omitempty,min=0"`
	PartsCostCents  *int64                   `json:"partsCostCents" validate:"omitempty,min=0"`
	AdditionalCosts *[]AdditionalCostRequest `json:"additionalCosts" validate:"omitempty,dive"`
	TaxPct          *float64                 `json:"taxPct" validate:"omitempty,min=0,max=100"`
	DiscountPct     *float64                 `json:"discountPct" validate:"omitempty,min=0,max=100"`
	ValidUntil      *time.Time               `json:"validUntil"`
}

// RejectEstimateRequest carries the optional rejection reason.
type RejectEstimateRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// EstimateItemResponse is the API shape of a work item.
type EstimateItemResponse struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	CostCents   int64   `json:"costCents"`
}

// AdditionalCostResponse is the API shape of an extra charge line.
type AdditionalCostResponse struct {
	Description string `json:"description"`
	AmountCents int64  `json:"amountCents"`
}

// EstimateResponse is the API shape of an estimate.
type EstimateResponse struct {
	ID               uuid.UUID                `json:"id"`
	RequestID        uuid.UUID                `json:"requestId"`
	ProviderID       uuid.UUID                `json:"providerId"`
	Items            []EstimateItemResponse   `json:"items"`
	LaborCostCents   int64                    `json:"laborCostCents"`
	PartsCostCents   int64                    `json:"partsCostCents"`
	AdditionalCosts  []AdditionalCostResponse `json:"additionalCosts"`
	TaxPct           float64                  `json:"taxPct"`
	DiscountPct      float64                  `json:"discountPct"`
	TotalAmountCents int64                    `json:"totalAmountCents"`
	Status           string                   `json:"status"`
	ValidUntil       *time.Time               `json:"validUntil,omitempty"`
	AcceptedAt       *time.Time               `json:"acceptedAt,omitempty"`
	RejectionReason  *string                  `json:"rejectionReason,omitempty"`
	CreatedAt        time.Time                `json:"createdAt"`
	UpdatedAt        time.Time                `json:"updatedAt"`
}

// ListEstimatesResponse is the envelope for a request's estimates, newest first.
type ListEstimatesResponse struct {
	Items []EstimateResponse `json:"items"`
	Total int                `json:"total"`
}
