package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"flockmanager/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendMagicLink sends the passwordless login link using the "magic_link" template.
func (s *emailService) SendMagicLink(ctx context.Context, data *domain.MagicLinkEmailData) error {
	if data == nil {
		return errors.New("magic link email data is nil")
	}
	if err := s.send(ctx, "magic_link", data.Email, data); err != nil {
		return fmt.Errorf("failed to send magic link email: %w", err)
	}
	s.logger.InfoContext(ctx, "magic link email sent", "to", data.Email)
	return nil
}

// SendCheckInConfirmation sends the attendance confirmation using the "checkin_confirmation" template.
func (s *emailService) SendCheckInConfirmation(ctx context.Context, data *domain.CheckInConfirmationEmailData) error {
	if data == nil {
		return errors.New("check-in confirmation data is nil")
	}
	if data.Email == "" {
		return errors.New("member has no email address")
	}
	if err := s.send(ctx, "checkin_confirmation", data.Email, data); err != nil {
		return fmt.Errorf("failed to send check-in confirmation: %w", err)
	}
	s.logger.InfoContext(ctx, "check-in confirmation sent", "to", data.Email)
	return nil
}

func (s *emailService) send(ctx context.Context, template, to string, data any) error {
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("render %s template: %w", template, err)
	}
	return s.mailer.Send(ctx, to, subject, htmlBody, textBody)
}
