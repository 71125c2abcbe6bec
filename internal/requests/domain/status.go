// Package domain provides core business rules for the service-requests
// bounded context: the request status machine and the estimate sub-state.
package domain

import (
	"fmt"

	"gearbox_backend/platform/apperr"
)

// Request statuses. quoted and confirmed are never set by the status
// endpoint directly; they are driven by the quote engine.
const (
	StatusPending    = "pending"
	StatusQuoted     = "quoted"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Estimate sub-state carried on a request.
const (
	EstimateStatusNone     = "none"
	EstimateStatusPending  = "pending"
	EstimateStatusAccepted = "accepted"
	EstimateStatusRejected = "rejected"
)

var terminalStatuses = map[string]bool{
	StatusCompleted: true,
	StatusCancelled: true,
}

// callerTransitions are the edges a caller may drive through the status
// endpoint. Engine-driven edges (pending→quoted, quoted→confirmed,
// quoted→pending on last-quote rejection) are not listed here.
var callerTransitions = map[string]map[string]bool{
	StatusPending:    {StatusCancelled: true},
	StatusQuoted:     {StatusCancelled: true},
	StatusConfirmed:  {StatusInProgress: true},
	StatusInProgress: {StatusCompleted: true},
}

// IsTerminal reports whether a request status admits no further transitions.
func IsTerminal(status string) bool {
	return terminalStatuses[status]
}

// IsValidStatus reports whether s is a known request status.
func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusQuoted, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a caller may move a request from one
// status to another via the status endpoint.
func CanTransition(from, to string) bool {
	return callerTransitions[from][to]
}

// Quotable reports whether a request can still receive quotes.
func Quotable(status string) bool {
	return status == StatusPending || status == StatusQuoted
}

// ValidateTransition checks a caller-driven status change. Terminal states
// win over every other complaint: any change requested on a completed or
// cancelled request is an invalid-state error, including a no-op repeat.
func ValidateTransition(from, to string) error {
	if IsTerminal(from) {
		return apperr.InvalidState(fmt.Sprintf("request is %s and cannot change status", from))
	}
	if from == to {
		return apperr.InvalidTransition(fmt.Sprintf("request is already %s", from))
	}
	if !CanTransition(from, to) {
		return apperr.InvalidTransition(fmt.Sprintf("cannot transition request from %s to %s", from, to))
	}
	return nil
}
