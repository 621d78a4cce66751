package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// MagicLinkEmailData holds data for the passwordless login link email.
type MagicLinkEmailData struct {
	Email            string
	Name             string
	Link             string
	ExpiresInMinutes int
}

// CheckInConfirmationEmailData holds data for the check-in confirmation email.
type CheckInConfirmationEmailData struct {
	Email      string
	Name       string
	EventTitle string
	EventDate  string
	Location   string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendMagicLink(ctx context.Context, data *MagicLinkEmailData) error
	SendCheckInConfirmation(ctx context.Context, data *CheckInConfirmationEmailData) error
}
