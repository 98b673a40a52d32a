package testutil

import (
	"context"
	"sync"

	"github.com/coursebill/coursebill/internal/gateway"
	"github.com/shopspring/decimal"
)

// ChargeCall records one charge attempt made against the mock gateway
type ChargeCall struct {
	PayerToken     string
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
}

// MockGateway is a scriptable payment gateway for tests. Outcomes are keyed
// by idempotency key; unscripted charges succeed.
type MockGateway struct {
	mu       sync.Mutex
	outcomes map[string]gateway.ChargeResult
	errs     map[string]error
	calls    []ChargeCall
	refunds  []string
}

var _ gateway.Gateway = (*MockGateway)(nil)

// NewMockGateway creates a new mock gateway
func NewMockGateway() *MockGateway {
	return &MockGateway{
		outcomes: make(map[string]gateway.ChargeResult),
		errs:     make(map[string]error),
	}
}

// ScriptOutcome fixes the result returned for the given idempotency key
func (g *MockGateway) ScriptOutcome(idempotencyKey string, result gateway.ChargeResult) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcomes[idempotencyKey] = result
}

// ScriptError makes the charge for the given idempotency key return an error
func (g *MockGateway) ScriptError(idempotencyKey string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs[idempotencyKey] = err
}

func (g *MockGateway) ChargeStoredMethod(ctx context.Context, payerToken string, amount decimal.Decimal, currency string, idempotencyKey string) (gateway.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, ChargeCall{
		PayerToken:     payerToken,
		Amount:         amount,
		Currency:       currency,
		IdempotencyKey: idempotencyKey,
	})

	if err, ok := g.errs[idempotencyKey]; ok {
		return gateway.ChargeResult{Outcome: gateway.ChargeOutcomeTransient, Reason: err.Error()}, err
	}
	if result, ok := g.outcomes[idempotencyKey]; ok {
		return result, nil
	}

	return gateway.ChargeResult{
		Outcome:          gateway.ChargeOutcomePaid,
		GatewayPaymentID: "pay_" + idempotencyKey,
	}, nil
}

func (g *MockGateway) Refund(ctx context.Context, gatewayPaymentID string, amount decimal.Decimal, currency string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds = append(g.refunds, gatewayPaymentID)
	return nil
}

func (g *MockGateway) Abort(ctx context.Context, gatewayPaymentID string) error {
	return nil
}

// Calls returns the charge attempts made so far
func (g *MockGateway) Calls() []ChargeCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	calls := make([]ChargeCall, len(g.calls))
	copy(calls, g.calls)
	return calls
}

// CallCount returns the number of charge attempts made so far
func (g *MockGateway) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// Clear resets scripted outcomes and recorded calls
func (g *MockGateway) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcomes = make(map[string]gateway.ChargeResult)
	g.errs = make(map[string]error)
	g.calls = nil
	g.refunds = nil
}
