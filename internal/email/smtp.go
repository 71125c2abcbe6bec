package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection
// via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendQuoteSubmittedEmail(ctx context.Context, toEmail, requestURL string, amountCents int64) error {
	content, err := renderEmailTemplate("quote_submitted.html", quoteSubmittedEmailData{
		baseEmailData: baseEmailData{
			Title:    "New quote received",
			Heading:  "New quote received",
			CTALabel: "View quote",
			CTAURL:   requestURL,
		},
		AmountFormatted: formatCurrencyEUR(amountCents),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectQuoteSubmitted, content)
}

func (s *SMTPSender) SendQuoteAcceptedEmail(ctx context.Context, toEmail, requestURL string, amountCents int64) error {
	content, err := renderEmailTemplate("quote_accepted.html", quoteAcceptedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Quote accepted",
			Heading:  "Quote accepted",
			CTALabel: "View request",
			CTAURL:   requestURL,
		},
		AmountFormatted: formatCurrencyEUR(amountCents),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectQuoteAccepted, content)
}

func (s *SMTPSender) SendQuoteRejectedEmail(ctx context.Context, toEmail, requestURL, remarks string) error {
	content, err := renderEmailTemplate("quote_rejected.html", quoteRejectedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Quote not selected",
			Heading:  "Quote not selected",
			CTALabel: "View request",
			CTAURL:   requestURL,
		},
		Remarks: remarks,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectQuoteRejected, content)
}

func (s *SMTPSender) SendEstimateCreatedEmail(ctx context.Context, toEmail, requestURL string, totalCents int64) error {
	content, err := renderEmailTemplate("estimate_created.html", estimateCreatedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Estimate ready",
			Heading:  "Estimate ready",
			CTALabel: "View estimate",
			CTAURL:   requestURL,
		},
		TotalFormatted: formatCurrencyEUR(totalCents),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectEstimateCreated, content)
}

func (s *SMTPSender) SendEstimateAcceptedEmail(ctx context.Context, toEmail, requestURL string, totalCents int64) error {
	content, err := renderEmailTemplate("estimate_accepted.html", estimateAcceptedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Estimate accepted",
			Heading:  "Estimate accepted",
			CTALabel: "View request",
			CTAURL:   requestURL,
		},
		TotalFormatted: formatCurrencyEUR(totalCents),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectEstimateAccepted, content)
}

func (s *SMTPSender) SendEstimateRejectedEmail(ctx context.Context, toEmail, requestURL, reason string) error {
	content, err := renderEmailTemplate("estimate_rejected.html", estimateRejectedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Estimate rejected",
			Heading:  "Estimate rejected",
			CTALabel: "View request",
			CTAURL:   requestURL,
		},
		Reason: reason,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectEstimateRejected, content)
}

func (s *SMTPSender) SendEstimateExpiryReminderEmail(ctx context.Context, toEmail, requestURL string, validUntil time.Time) error {
	formatted := validUntil.Format("2 January 2006 15:04")
	subject := fmt.Sprintf(subjectEstimateExpiryWarnFmt, validUntil.Format("2 January 2006"))
	content, err := renderEmailTemplate("estimate_expiry_reminder.html", estimateExpiryReminderEmailData{
		baseEmailData: baseEmailData{
			Title:    "Estimate expiring soon",
			Heading:  "Estimate expiring soon",
			CTALabel: "Review estimate",
			CTAURL:   requestURL,
		},
		ValidUntil: formatted,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendRequestStatusEmail(ctx context.Context, toEmail, requestURL, fromStatus, toStatus string) error {
	subject := fmt.Sprintf(subjectRequestStatusFmt, toStatus)
	content, err := renderEmailTemplate("request_status.html", requestStatusEmailData{
		baseEmailData: baseEmailData{
			Title:    "Service request update",
			Heading:  "Service request update",
			CTALabel: "View request",
			CTAURL:   requestURL,
		},
		FromStatus: fromStatus,
		ToStatus:   toStatus,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}
