package notification

import (
	"context"

	"github.com/coursebill/coursebill/internal/logger"
)

// logSender writes notifications to the log instead of delivering them. It
// backs local deployments where no mail transport is configured.
type logSender struct {
	logger *logger.Logger
}

// NewLogSender creates a sender that logs notifications
func NewLogSender(log *logger.Logger) Sender {
	return &logSender{logger: log}
}

func (s *logSender) Send(ctx context.Context, templateID string, recipient string, variables map[string]interface{}) error {
	s.logger.Infow("notification",
		"template_id", templateID,
		"recipient", recipient,
		"variables", variables,
	)
	return nil
}
