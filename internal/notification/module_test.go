package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"gearbox_backend/internal/events"
	"gearbox_backend/platform/logger"

	"github.com/google/uuid"
)

type testNotificationConfig struct{}

func (testNotificationConfig) GetAppBaseURL() string { return "https://app.example.com" }

type testResolver struct {
	addresses map[uuid.UUID]string
	err       error
}

func (r testResolver) EmailForUser(_ context.Context, userID uuid.UUID) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.addresses[userID], nil
}

type testSender struct {
	quoteSubmittedCalls   int
	quoteAcceptedCalls    int
	quoteRejectedCalls    int
	estimateCreatedCalls  int
	estimateAcceptedCalls int
	requestStatusCalls    int
	lastRecipient         string
	lastURL               string
}

func (s *testSender) SendQuoteSubmittedEmail(_ context.Context, toEmail, requestURL string, _ int64) error {
	s.quoteSubmittedCalls++
	s.lastRecipient = toEmail
	s.lastURL = requestURL
	return nil
}

func (s *testSender) SendQuoteAcceptedEmail(_ context.Context, toEmail, requestURL string, _ int64) error {
	s.quoteAcceptedCalls++
	s.lastRecipient = toEmail
	s.lastURL = requestURL
	return nil
}

func (s *testSender) SendQuoteRejectedEmail(_ context.Context, toEmail, _, _ string) error {
	s.quoteRejectedCalls++
	s.lastRecipient = toEmail
	return nil
}

func (s *testSender) SendEstimateCreatedEmail(_ context.Context, toEmail, _ string, _ int64) error {
	s.estimateCreatedCalls++
	s.lastRecipient = toEmail
	return nil
}

func (s *testSender) SendEstimateAcceptedEmail(_ context.Context, toEmail, _ string, _ int64) error {
	s.estimateAcceptedCalls++
	s.lastRecipient = toEmail
	return nil
}

func (s *testSender) SendEstimateRejectedEmail(context.Context, string, string, string) error {
	return nil
}

func (s *testSender) SendEstimateExpiryReminderEmail(context.Context, string, string, time.Time) error {
	return nil
}

func (s *testSender) SendRequestStatusEmail(_ context.Context, toEmail, _, _, _ string) error {
	s.requestStatusCalls++
	s.lastRecipient = toEmail
	return nil
}

func TestHandleQuoteSubmittedEmailsOwner(t *testing.T) {
	sender := &testSender{}
	ownerID := uuid.New()
	requestID := uuid.New()

	m := New(sender, testNotificationConfig{}, logger.New("development"))
	m.SetRecipientResolver(testResolver{addresses: map[uuid.UUID]string{ownerID: "owner@example.com"}})

	err := m.Handle(context.Background(), events.QuoteSubmitted{
		QuoteID:     uuid.New(),
		RequestID:   requestID,
		OwnerID:     ownerID,
		ProviderID:  uuid.New(),
		AmountCents: 125000,
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if sender.quoteSubmittedCalls != 1 {
		t.Fatalf("expected 1 quote submitted email, got %d", sender.quoteSubmittedCalls)
	}
	if sender.lastRecipient != "owner@example.com" {
		t.Fatalf("unexpected recipient: %q", sender.lastRecipient)
	}
	wantURL := "https://app.example.com/requests/" + requestID.String()
	if sender.lastURL != wantURL {
		t.Fatalf("unexpected request URL: %q, want %q", sender.lastURL, wantURL)
	}
}

func TestHandleQuoteAcceptedEmailsProvider(t *testing.T) {
	sender := &testSender{}
	ownerID := uuid.New()
	providerID := uuid.New()

	m := New(sender, testNotificationConfig{}, logger.New("development"))
	m.SetRecipientResolver(testResolver{addresses: map[uuid.UUID]string{
		ownerID:    "owner@example.com",
		providerID: "provider@example.com",
	}})

	err := m.Handle(context.Background(), events.QuoteAccepted{
		QuoteID:     uuid.New(),
		RequestID:   uuid.New(),
		OwnerID:     ownerID,
		ProviderID:  providerID,
		AmountCents: 99000,
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if sender.quoteAcceptedCalls != 1 {
		t.Fatalf("expected 1 quote accepted email, got %d", sender.quoteAcceptedCalls)
	}
	if sender.lastRecipient != "provider@example.com" {
		t.Fatalf("expected provider to be emailed, got %q", sender.lastRecipient)
	}
}

func TestHandleRequestStatusChangedSkipsIntermediateTransitions(t *testing.T) {
	sender := &testSender{}
	ownerID := uuid.New()

	m := New(sender, testNotificationConfig{}, logger.New("development"))
	m.SetRecipientResolver(testResolver{addresses: map[uuid.UUID]string{ownerID: "owner@example.com"}})

	for _, to := range []string{"quoted", "confirmed", "in_progress"} {
		err := m.Handle(context.Background(), events.RequestStatusChanged{
			RequestID: uuid.New(),
			OwnerID:   ownerID,
			From:      "pending",
			To:        to,
		})
		if err != nil {
			t.Fatalf("Handle(%s) returned error: %v", to, err)
		}
	}
	if sender.requestStatusCalls != 0 {
		t.Fatalf("expected no status emails for intermediate transitions, got %d", sender.requestStatusCalls)
	}

	err := m.Handle(context.Background(), events.RequestStatusChanged{
		RequestID: uuid.New(),
		OwnerID:   ownerID,
		From:      "pending",
		To:        "cancelled",
	})
	if err != nil {
		t.Fatalf("Handle(cancelled) returned error: %v", err)
	}
	if sender.requestStatusCalls != 1 {
		t.Fatalf("expected 1 status email for cancellation, got %d", sender.requestStatusCalls)
	}
}

func TestHandleSkipsWithoutResolver(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{}, logger.New("development"))

	err := m.Handle(context.Background(), events.QuoteSubmitted{
		QuoteID:   uuid.New(),
		RequestID: uuid.New(),
		OwnerID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if sender.quoteSubmittedCalls != 0 {
		t.Fatalf("expected no emails without a resolver, got %d", sender.quoteSubmittedCalls)
	}
}

func TestHandleSwallowsResolverErrors(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{}, logger.New("development"))
	m.SetRecipientResolver(testResolver{err: errors.New("directory unavailable")})

	err := m.Handle(context.Background(), events.EstimateCreated{
		EstimateID:       uuid.New(),
		RequestID:        uuid.New(),
		OwnerID:          uuid.New(),
		TotalAmountCents: 16720,
	})
	if err != nil {
		t.Fatalf("expected resolver failure to be swallowed, got: %v", err)
	}
	if sender.estimateCreatedCalls != 0 {
		t.Fatalf("expected no emails on resolver failure, got %d", sender.estimateCreatedCalls)
	}
}
