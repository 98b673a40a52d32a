package service

import (
	"context"

	"github.com/coursebill/coursebill/internal/domain/order"
	"github.com/coursebill/coursebill/internal/types"
)

// transition is one guarded edge of the order state machine. For the current
// state the prioritized transitions are evaluated in declaration order; the
// first whose guard holds fires and evaluation stops, so at most one
// transition fires per driver invocation.
type transition struct {
	target types.OrderState
	guard  func(o *order.Order) bool
	// effect runs after the new state has been persisted. Effects only emit
	// events; audit logging, certificate issuance and the like are
	// subscriber concerns.
	effect func(ctx context.Context, s *orderService, o *order.Order)
}

// orderFlow is the declarative transition table of the order (and batch
// order) lifecycle. States absent from the table, including the legacy ones,
// have no outgoing transitions. Cancellation is not part of the table: it is
// an explicit operation allowed from every state except completed.
var orderFlow = map[types.OrderState][]transition{
	types.OrderStateDraft: {
		{
			target: types.OrderStateAssigned,
			guard: func(o *order.Order) bool {
				return o.OrganizationID != nil && *o.OrganizationID != ""
			},
		},
	},
	types.OrderStateAssigned: {
		{
			target: types.OrderStateToSign,
			guard: func(o *order.Order) bool {
				return o.ContractRequired && o.ContractSubmittedAt != nil && o.ContractSignedAt == nil
			},
		},
		{
			target: types.OrderStateSigning,
			guard: func(o *order.Order) bool {
				return o.ContractRequired && o.ContractSignedAt != nil
			},
		},
		{
			target: types.OrderStateNoPayment,
			guard: func(o *order.Order) bool {
				return !o.ContractRequired && o.IsFree()
			},
			effect: emitCompleted,
		},
		{
			target: types.OrderStatePending,
			guard: func(o *order.Order) bool {
				return !o.ContractRequired && o.HasSchedule() && o.HasPaymentMethod()
			},
		},
		{
			target: types.OrderStateToSavePaymentMethod,
			guard: func(o *order.Order) bool {
				return !o.ContractRequired && !o.HasPaymentMethod()
			},
		},
	},
	types.OrderStateToSign: {
		{
			target: types.OrderStateNoPayment,
			guard: func(o *order.Order) bool {
				return o.ContractSignedAt != nil && o.IsFree()
			},
			effect: emitCompleted,
		},
		{
			target: types.OrderStatePending,
			guard: func(o *order.Order) bool {
				return o.ContractSignedAt != nil && o.HasSchedule() && o.HasPaymentMethod()
			},
		},
		{
			target: types.OrderStateToSavePaymentMethod,
			guard: func(o *order.Order) bool {
				return o.ContractSignedAt != nil && !o.HasPaymentMethod()
			},
		},
		{
			target: types.OrderStateSigning,
			guard: func(o *order.Order) bool {
				return o.ContractSignedAt != nil
			},
		},
	},
	types.OrderStateSigning: {
		{
			target: types.OrderStateNoPayment,
			guard: func(o *order.Order) bool {
				return o.IsFree()
			},
			effect: emitCompleted,
		},
		{
			target: types.OrderStatePending,
			guard: func(o *order.Order) bool {
				return o.HasSchedule() && o.HasPaymentMethod()
			},
		},
		{
			target: types.OrderStateToSavePaymentMethod,
			guard: func(o *order.Order) bool {
				return !o.HasPaymentMethod()
			},
		},
	},
	types.OrderStateToSavePaymentMethod: {
		{
			target: types.OrderStateNoPayment,
			guard: func(o *order.Order) bool {
				return o.IsFree()
			},
			effect: emitCompleted,
		},
		{
			target: types.OrderStatePending,
			guard: func(o *order.Order) bool {
				return o.HasSchedule() && o.HasPaymentMethod()
			},
		},
	},
	types.OrderStatePending: {
		{
			target: types.OrderStateCompleted,
			guard: func(o *order.Order) bool {
				return o.IsFullyPaid()
			},
			effect: emitCompleted,
		},
		{
			target: types.OrderStateFailedPayment,
			guard: func(o *order.Order) bool {
				return o.HasAnyRefused()
			},
			effect: emitFailedPayment,
		},
		{
			target: types.OrderStatePendingPayment,
			guard: func(o *order.Order) bool {
				return o.HasAnyPaid()
			},
		},
	},
	types.OrderStatePendingPayment: {
		{
			target: types.OrderStateCompleted,
			guard: func(o *order.Order) bool {
				return o.IsFullyPaid()
			},
			effect: emitCompleted,
		},
		{
			target: types.OrderStateFailedPayment,
			guard: func(o *order.Order) bool {
				return o.HasAnyRefused()
			},
			effect: emitFailedPayment,
		},
	},
	types.OrderStateFailedPayment: {
		{
			target: types.OrderStatePending,
			guard: func(o *order.Order) bool {
				return o.HasPaymentMethod() && !o.HasAnyRefused()
			},
		},
	},
}

// nextTransition returns the first transition whose guard holds for the
// order's current state, or nil when none fires
func nextTransition(o *order.Order) *transition {
	for i := range orderFlow[o.State] {
		t := &orderFlow[o.State][i]
		if t.guard(o) {
			return t
		}
	}
	return nil
}

func emitCompleted(ctx context.Context, s *orderService, o *order.Order) {
	s.publishOrderEvent(ctx, types.WebhookEventOrderCompleted, o)
}

func emitFailedPayment(ctx context.Context, s *orderService, o *order.Order) {
	s.publishOrderEvent(ctx, types.WebhookEventOrderFailedPayment, o)
}
