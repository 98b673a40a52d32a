package types

import (
	"encoding/json"
	"time"
)

// Webhook event names published by the payment lifecycle engine.
// Downstream collaborators (audit log, certificate issuance, CRM sync)
// subscribe to these.
const (
	WebhookEventOrderCompleted          = "order.completed"
	WebhookEventOrderFailedPayment      = "order.failed_payment"
	WebhookEventOrderCanceled           = "order.canceled"
	WebhookEventOrderInstallmentPaid    = "order.installment.paid"
	WebhookEventOrderInstallmentRefused = "order.installment.refused"
	WebhookEventOrderPaymentReminder    = "order.payment.reminder"
)

// WebhookEvent represents a webhook event payload for delivery
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	TenantID  string          `json:"tenant_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}
