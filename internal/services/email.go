package services

import (
	"context"
	"fmt"
	"log"

	"github.com/upfrom/backend/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendEventInvite sends the "you have been invited" email using the "event_invite" template.
func (s *emailService) SendEventInvite(ctx context.Context, data *domain.EventInviteEmailData) error {
	if data == nil {
		return fmt.Errorf("event invite data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("event_invite", data)
	if err != nil {
		return fmt.Errorf("failed to render event_invite template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send event invite email: %w", err)
	}
	log.Printf("[EMAIL] Event invite sent to %s", data.Email)
	return nil
}

// SendEventDateTimeChanged sends the rescheduled-event email using the "event_datetime_changed" template.
func (s *emailService) SendEventDateTimeChanged(ctx context.Context, data *domain.EventChangeEmailData) error {
	if data == nil {
		return fmt.Errorf("event change data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("event_datetime_changed", data)
	if err != nil {
		return fmt.Errorf("failed to render event_datetime_changed template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send event change email: %w", err)
	}
	log.Printf("[EMAIL] Event date change notice sent to %s", data.Email)
	return nil
}

// SendEventLocationChanged sends the moved-event email using the "event_location_changed"
// template. It reuses the invite data shape since the new address is the point.
func (s *emailService) SendEventLocationChanged(ctx context.Context, data *domain.EventInviteEmailData) error {
	if data == nil {
		return fmt.Errorf("event change data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("event_location_changed", data)
	if err != nil {
		return fmt.Errorf("failed to render event_location_changed template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send event location email: %w", err)
	}
	log.Printf("[EMAIL] Event location notice sent to %s", data.Email)
	return nil
}

// SendEventCancelled sends the cancellation email using the "event_cancelled" template.
func (s *emailService) SendEventCancelled(ctx context.Context, data *domain.EventChangeEmailData) error {
	if data == nil {
		return fmt.Errorf("event cancellation data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("event_cancelled", data)
	if err != nil {
		return fmt.Errorf("failed to render event_cancelled template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send event cancellation email: %w", err)
	}
	log.Printf("[EMAIL] Event cancellation notice sent to %s", data.Email)
	return nil
}
