package gateway

import (
	"context"

	"github.com/coursebill/coursebill/internal/logger"
	"github.com/coursebill/coursebill/internal/types"
	"github.com/shopspring/decimal"
)

// localGateway approves every charge. It backs local deployments where no
// payment provider is configured.
type localGateway struct {
	logger *logger.Logger
}

// NewLocalGateway creates a gateway that approves every charge
func NewLocalGateway(log *logger.Logger) Gateway {
	return &localGateway{logger: log}
}

func (g *localGateway) ChargeStoredMethod(ctx context.Context, payerToken string, amount decimal.Decimal, currency string, idempotencyKey string) (ChargeResult, error) {
	g.logger.Infow("local gateway approving charge",
		"payer_token", payerToken,
		"amount", amount,
		"currency", currency,
		"idempotency_key", idempotencyKey,
	)
	return ChargeResult{
		Outcome:          ChargeOutcomePaid,
		GatewayPaymentID: types.GenerateUUIDWithPrefix("pay"),
	}, nil
}

func (g *localGateway) Refund(ctx context.Context, gatewayPaymentID string, amount decimal.Decimal, currency string) error {
	g.logger.Infow("local gateway refunding payment",
		"gateway_payment_id", gatewayPaymentID,
		"amount", amount,
	)
	return nil
}

func (g *localGateway) Abort(ctx context.Context, gatewayPaymentID string) error {
	g.logger.Infow("local gateway aborting payment",
		"gateway_payment_id", gatewayPaymentID,
	)
	return nil
}
