package notification

import "context"

// Template identifiers for buyer notifications
const (
	TemplateInstallmentReminder = "installment_debit_reminder"
	TemplateInstallmentRefused  = "installment_debit_refused"
)

// Sender delivers a templated notification to a recipient. Transport
// (email, in-app) is a collaborator concern.
type Sender interface {
	Send(ctx context.Context, templateID string, recipient string, variables map[string]interface{}) error
}
