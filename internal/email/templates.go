package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type quoteSubmittedEmailData struct {
	baseEmailData
	AmountFormatted string
}

type quoteAcceptedEmailData struct {
	baseEmailData
	AmountFormatted string
}

type quoteRejectedEmailData struct {
	baseEmailData
	Remarks string
}

type estimateCreatedEmailData struct {
	baseEmailData
	TotalFormatted string
}

type estimateAcceptedEmailData struct {
	baseEmailData
	TotalFormatted string
}

type estimateRejectedEmailData struct {
	baseEmailData
	Reason string
}

type estimateExpiryReminderEmailData struct {
	baseEmailData
	ValidUntil string
}

type requestStatusEmailData struct {
	baseEmailData
	FromStatus string
	ToStatus   string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatCurrencyEUR(cents int64) string {
	return fmt.Sprintf("€%.2f", float64(cents)/100)
}
