package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// ChargeOutcome classifies the result of a stored-method charge attempt.
// Declined is an expected business outcome, not an error; only transient
// failures leave the installment eligible for a retry on the next run.
type ChargeOutcome string

const (
	ChargeOutcomePaid      ChargeOutcome = "PAID"
	ChargeOutcomeDeclined  ChargeOutcome = "DECLINED"
	ChargeOutcomeTransient ChargeOutcome = "TRANSIENT_ERROR"
)

// ChargeResult is the outcome of a single charge attempt
type ChargeResult struct {
	Outcome ChargeOutcome
	// GatewayPaymentID is the provider transaction reference on success
	GatewayPaymentID string
	// Reason carries the provider decline or failure reason, when given
	Reason string
}

// Gateway is the abstract payment provider contract consumed by the
// collection engine. Provider protocol details live behind it.
type Gateway interface {
	// ChargeStoredMethod debits exactly amount from the stored payment
	// method identified by payerToken. The idempotencyKey must make repeated
	// delivery of the same charge safe on the provider side.
	ChargeStoredMethod(ctx context.Context, payerToken string, amount decimal.Decimal, currency string, idempotencyKey string) (ChargeResult, error)

	// Refund returns a previously collected payment
	Refund(ctx context.Context, gatewayPaymentID string, amount decimal.Decimal, currency string) error

	// Abort cancels an in-flight payment intent
	Abort(ctx context.Context, gatewayPaymentID string) error
}
