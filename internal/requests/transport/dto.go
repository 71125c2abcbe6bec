package transport

import (
	"time"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// CreateRequestRequest is the request body for creating a service request.
type CreateRequestRequest struct {
	VehicleID     uuid.UUID `json:"vehicleId" validate:"required"`
	ServiceTypeID uuid.UUID `json:"serviceTypeId" validate:"required"`
	Description   string    `json:"description" validate:"omitempty,max=4000"`
	ContactPhone  string    `json:"contactPhone" validate:"omitempty,max=32"`
}

// UpdateRequestStatusRequest is the request body for a status transition.
// Which transitions are legal is decided by the service, not the validator.
type UpdateRequestStatusRequest struct {
	Status  string `json:"status" validate:"required,oneof=pending quoted confirmed in_progress completed cancelled"`
	Remarks string `json:"remarks" validate:"omitempty,max=1000"`
}

// ListRequestsRequest defines the query parameters for listing service requests.
type ListRequestsRequest struct {
	OwnerID   string `form:"ownerId" validate:"omitempty,uuid"`
	Status    string `form:"status" validate:"omitempty,oneof=pending quoted confirmed in_progress completed cancelled"`
	SortBy    string `form:"sortBy" validate:"omitempty,oneof=status createdAt updatedAt"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// PresignAttachmentRequest is the request body for a presigned upload URL.
type PresignAttachmentRequest struct {
	FileName    string `json:"fileName" validate:"required,min=1,max=500"`
	ContentType string `json:"contentType" validate:"required,min=1,max=255"`
	SizeBytes   int64  `json:"sizeBytes" validate:"min=0"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// RequestResponse is the API shape of a service request.
type RequestResponse struct {
	ID                uuid.UUID  `json:"id"`
	OwnerID           uuid.UUID  `json:"ownerId"`
	VehicleID         uuid.UUID  `json:"vehicleId"`
	ServiceTypeID     uuid.UUID  `json:"serviceTypeId"`
	Description       *string    `json:"description,omitempty"`
	ContactPhone      *string    `json:"contactPhone,omitempty"`
	Status            string     `json:"status"`
	AcceptedQuoteID   *uuid.UUID `json:"acceptedQuoteId,omitempty"`
	CurrentEstimateID *uuid.UUID `json:"currentEstimateId,omitempty"`
	EstimateStatus    string     `json:"estimateStatus"`
	TotalCostCents    *int64     `json:"totalCostCents,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// QuoteSummary is the quote slice of the composite request view.
type QuoteSummary struct {
	ID          uuid.UUID  `json:"id"`
	ProviderID  uuid.UUID  `json:"providerId"`
	AmountCents int64      `json:"amountCents"`
	Status      string     `json:"status"`
	Remarks     *string    `json:"remarks,omitempty"`
	ValidUntil  *time.Time `json:"validUntil,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// EstimateSummary is the estimate slice of the composite request view.
type EstimateSummary struct {
	ID               uuid.UUID  `json:"id"`
	ProviderID       uuid.UUID  `json:"providerId"`
	TotalAmountCents int64      `json:"totalAmountCents"`
	Status           string     `json:"status"`
	ValidUntil       *time.Time `json:"validUntil,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// RequestDetailResponse is the composite view: the request plus its quotes and
// current estimate.
type RequestDetailResponse struct {
	RequestResponse
	Quotes          []QuoteSummary   `json:"quotes"`
	CurrentEstimate *EstimateSummary `json:"currentEstimate,omitempty"`
}

// ListRequestsResponse is the paginated list envelope.
type ListRequestsResponse struct {
	Items      []RequestResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// AttachmentResponse is the API shape of a request attachment.
type AttachmentResponse struct {
	ID          uuid.UUID `json:"id"`
	RequestID   uuid.UUID `json:"requestId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PresignAttachmentResponse carries the presigned upload URL and the
// attachment record created for it.
type PresignAttachmentResponse struct {
	Attachment AttachmentResponse `json:"attachment"`
	UploadURL  string             `json:"uploadUrl"`
	ExpiresIn  int64              `json:"expiresInSeconds"`
}

// AttachmentDownloadResponse carries a presigned download URL.
type AttachmentDownloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
	ExpiresIn   int64  `json:"expiresInSeconds"`
}
