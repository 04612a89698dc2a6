package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// EventInviteEmailData holds data for the "you have been invited" email.
type EventInviteEmailData struct {
	Email      string
	FirstName  string
	EventTitle string
	EventDate  string
	Address    string
}

// EventChangeEmailData holds data for date/time and cancellation emails.
type EventChangeEmailData struct {
	Email      string
	FirstName  string
	EventTitle string
	EventDate  string
}

// EmailService defines the contract for sending domain-level emails.
// The notification worker is its only caller; request handlers never send mail.
type EmailService interface {
	SendEventInvite(ctx context.Context, data *EventInviteEmailData) error
	SendEventDateTimeChanged(ctx context.Context, data *EventChangeEmailData) error
	SendEventLocationChanged(ctx context.Context, data *EventInviteEmailData) error
	SendEventCancelled(ctx context.Context, data *EventChangeEmailData) error
}
