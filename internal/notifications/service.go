package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/souqline/souqline-backend/pkg/logger"
	"github.com/souqline/souqline-backend/pkg/mailer"
)

type mailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Service sends onboarding notification emails. Every send is best-effort:
// callers log failures and carry on, so errors here never abort a workflow.
type Service struct {
	logg   *logger.Logger
	sender mailSender
}

// NewService wires the notification sink.
func NewService(logg *logger.Logger, sender mailSender) (*Service, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	return &Service{logg: logg, sender: sender}, nil
}

// NotifyRejection tells an applicant their business application was rejected
// and why.
func (s *Service) NotifyRejection(ctx context.Context, email, businessName, reason string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("recipient email required")
	}

	body := fmt.Sprintf(
		"Hello,\n\nYour application for %q was not approved.\n\nReason: %s\n\nYou can address the issue and resubmit your application at any time.\n\nThe SouqLine Team",
		businessName, reason,
	)
	err := s.sender.Send(ctx, mailer.Message{
		To:        email,
		Subject:   fmt.Sprintf("Your SouqLine application for %s", businessName),
		PlainBody: body,
	})
	if err != nil {
		return fmt.Errorf("send rejection email: %w", err)
	}

	s.logg.Info(s.logg.WithField(ctx, "recipient", email), "rejection notification sent")
	return nil
}
