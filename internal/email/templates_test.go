package email

import (
	"strings"
	"testing"
)

func TestRenderEmailTemplates(t *testing.T) {
	cases := []struct {
		name string
		data any
		want []string
	}{
		{
			name: "quote_submitted.html",
			data: quoteSubmittedEmailData{
				baseEmailData:   baseEmailData{Title: "New quote received", Heading: "New quote received", CTALabel: "View quote", CTAURL: "https://app.example.com/requests/abc"},
				AmountFormatted: "€1250.00",
			},
			want: []string{"€1250.00", "https://app.example.com/requests/abc", "View quote"},
		},
		{
			name: "quote_accepted.html",
			data: quoteAcceptedEmailData{
				baseEmailData:   baseEmailData{Title: "Quote accepted", Heading: "Quote accepted"},
				AmountFormatted: "€990.00",
			},
			want: []string{"€990.00", "Quote accepted"},
		},
		{
			name: "quote_rejected.html",
			data: quoteRejectedEmailData{
				baseEmailData: baseEmailData{Title: "Quote not selected", Heading: "Quote not selected"},
				Remarks:       "Another quote was accepted",
			},
			want: []string{"Another quote was accepted"},
		},
		{
			name: "estimate_created.html",
			data: estimateCreatedEmailData{
				baseEmailData:  baseEmailData{Title: "Estimate ready", Heading: "Estimate ready"},
				TotalFormatted: "€167.20",
			},
			want: []string{"€167.20"},
		},
		{
			name: "estimate_accepted.html",
			data: estimateAcceptedEmailData{
				baseEmailData:  baseEmailData{Title: "Estimate accepted", Heading: "Estimate accepted"},
				TotalFormatted: "€167.20",
			},
			want: []string{"€167.20"},
		},
		{
			name: "estimate_rejected.html",
			data: estimateRejectedEmailData{
				baseEmailData: baseEmailData{Title: "Estimate rejected", Heading: "Estimate rejected"},
				Reason:        "Estimate validity window has passed",
			},
			want: []string{"Estimate validity window has passed"},
		},
		{
			name: "estimate_expiry_reminder.html",
			data: estimateExpiryReminderEmailData{
				baseEmailData: baseEmailData{Title: "Estimate expiring soon", Heading: "Estimate expiring soon"},
				ValidUntil:    "2 January 2026 15:04",
			},
			want: []string{"2 January 2026 15:04"},
		},
		{
			name: "request_status.html",
			data: requestStatusEmailData{
				baseEmailData: baseEmailData{Title: "Service request update", Heading: "Service request update"},
				FromStatus:    "in_progress",
				ToStatus:      "completed",
			},
			want: []string{"in_progress", "completed"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rendered, err := renderEmailTemplate(tc.name, tc.data)
			if err != nil {
				t.Fatalf("render %s: %v", tc.name, err)
			}
			for _, want := range tc.want {
				if !strings.Contains(rendered, want) {
					t.Errorf("rendered %s missing %q", tc.name, want)
				}
			}
		})
	}
}

func TestFormatCurrencyEUR(t *testing.T) {
	if got := formatCurrencyEUR(16720); got != "€167.20" {
		t.Fatalf("formatCurrencyEUR(16720) = %q, want €167.20", got)
	}
	if got := formatCurrencyEUR(0); got != "€0.00" {
		t.Fatalf("formatCurrencyEUR(0) = %q, want €0.00", got)
	}
}
