// Package email renders and delivers transactional emails for marketplace
// events. Delivery is best-effort: the notification module logs failures and
// never propagates them into business flows.
package email

import (
	"context"
	"time"
)

// Sender delivers domain notification emails.
type Sender interface {
	SendQuoteSubmittedEmail(ctx context.Context, toEmail, requestURL string, amountCents int64) error
	SendQuoteAcceptedEmail(ctx context.Context, toEmail, requestURL string, amountCents int64) error
	SendQuoteRejectedEmail(ctx context.Context, toEmail, requestURL, remarks string) error
	SendEstimateCreatedEmail(ctx context.Context, toEmail, requestURL string, totalCents int64) error
	SendEstimateAcceptedEmail(ctx context.Context, toEmail, requestURL string, totalCents int64) error
	SendEstimateRejectedEmail(ctx context.Context, toEmail, requestURL, reason string) error
	SendEstimateExpiryReminderEmail(ctx context.Context, toEmail, requestURL string, validUntil time.Time) error
	SendRequestStatusEmail(ctx context.Context, toEmail, requestURL, fromStatus, toStatus string) error
}
