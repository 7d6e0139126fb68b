// Package contact accepts contact form submissions. There is no mail backend;
// accepted messages are logged.
package contact

import (
	"context"
	"log/slog"
	"strings"

	"github.com/utafrali/ecocart/internal/domain"
	"github.com/utafrali/ecocart/pkg/logger"
	"github.com/utafrali/ecocart/pkg/validator"
)

// Input is the contact form.
type Input struct {
	Name    string `json:"name" validate:"notblank"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"min=10,max=5000"`
}

// Service handles contact submissions.
type Service struct {
	logger *slog.Logger
}

// NewService creates a contact service.
func NewService(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// Submit trims and validates in and records the message.
func (s *Service) Submit(ctx context.Context, in Input) (domain.ContactMessage, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)

	if err := validator.Validate(in); err != nil {
		return domain.ContactMessage{}, err
	}

	msg := domain.ContactMessage{
		Name:    in.Name,
		Email:   in.Email,
		Subject: in.Subject,
		Message: in.Message,
	}
	logger.WithContext(ctx, s.logger).InfoContext(ctx, "contact message received",
		slog.String("name", msg.Name),
		slog.String("email", msg.Email),
		slog.String("subject", msg.Subject),
		slog.Int("message_length", len(msg.Message)),
	)
	return msg, nil
}
