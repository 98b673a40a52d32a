package types

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

// OrderState represents the lifecycle state of an order or batch order
type OrderState string

const (
	// OrderStateDraft is the initial state of an order before any organization is bound
	OrderStateDraft OrderState = "draft"
	// OrderStateAssigned means an organization has been bound to the order
	OrderStateAssigned OrderState = "assigned"
	// OrderStateToSign means a contract exists and awaits the buyer signature
	OrderStateToSign OrderState = "to_sign"
	// OrderStateSigning means the buyer signed and the signature flow is completing
	OrderStateSigning OrderState = "signing"
	// OrderStateToSavePaymentMethod means the order awaits a stored payment method
	OrderStateToSavePaymentMethod OrderState = "to_save_payment_method"
	// OrderStatePending means the schedule exists and installments await collection
	OrderStatePending OrderState = "pending"
	// OrderStatePendingPayment means at least one installment was paid, the rest pending
	OrderStatePendingPayment OrderState = "pending_payment"
	// OrderStateNoPayment is the success state for zero-total orders
	OrderStateNoPayment OrderState = "no_payment"
	// OrderStateFailedPayment means an installment collection attempt was declined
	OrderStateFailedPayment OrderState = "failed_payment"
	// OrderStateCompleted means every installment of the schedule has been paid
	OrderStateCompleted OrderState = "completed"
	// OrderStateCanceled is the universal escape hatch, forbidden only from completed
	OrderStateCanceled OrderState = "canceled"
	// OrderStateRefunding means a refund of collected installments is in progress
	OrderStateRefunding OrderState = "refunding"
	// OrderStateRefunded means collected installments have been refunded
	OrderStateRefunded OrderState = "refunded"

	// Legacy states kept for orders created before the payment schedule rework.
	// No transitions are declared for them; they remain valid enum values.
	OrderStateValidated OrderState = "validated"
	OrderStateSubmitted OrderState = "submitted"
	OrderStateToOwn     OrderState = "to_own"
)

func (s OrderState) String() string {
	return string(s)
}

func (s OrderState) Validate() error {
	allowed := []OrderState{
		OrderStateDraft,
		OrderStateAssigned,
		OrderStateToSign,
		OrderStateSigning,
		OrderStateToSavePaymentMethod,
		OrderStatePending,
		OrderStatePendingPayment,
		OrderStateNoPayment,
		OrderStateFailedPayment,
		OrderStateCompleted,
		OrderStateCanceled,
		OrderStateRefunding,
		OrderStateRefunded,
		OrderStateValidated,
		OrderStateSubmitted,
		OrderStateToOwn,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid order state: %s", s)
	}
	return nil
}

// IsTerminal returns true when no further transition may fire from this state
func (s OrderState) IsTerminal() bool {
	return s == OrderStateCompleted ||
		s == OrderStateCanceled ||
		s == OrderStateRefunded ||
		s == OrderStateNoPayment
}

// CollectingOrderStates are the states in which due installments are collected
// and upcoming debits announced. A failed_payment order keeps being collected
// for its remaining pending installments.
func CollectingOrderStates() []OrderState {
	return []OrderState{
		OrderStatePending,
		OrderStatePendingPayment,
		OrderStateFailedPayment,
	}
}

// OrderType distinguishes single-buyer orders from company batch orders.
// Both share the same state machine and payment schedule semantics.
type OrderType string

const (
	OrderTypeSingle OrderType = "SINGLE"
	OrderTypeBatch  OrderType = "BATCH"
)

func (t OrderType) String() string {
	return string(t)
}

func (t OrderType) Validate() error {
	allowed := []OrderType{OrderTypeSingle, OrderTypeBatch}
	if !lo.Contains(allowed, t) {
		return fmt.Errorf("invalid order type: %s", t)
	}
	return nil
}

// OrderFilter represents the filter for listing orders
type OrderFilter struct {
	*QueryFilter
	*TimeRangeFilter

	OrderIDs    []string     `form:"order_ids"`
	OrderType   *OrderType   `form:"order_type"`
	OrderStates []OrderState `form:"order_states"`
	OwnerID     *string      `form:"owner_id"`
	CourseID    *string      `form:"course_id"`
	// DueBefore keeps only orders carrying at least one pending installment
	// due on or before the given time
	DueBefore *time.Time `form:"due_before"`
}

// NewNoLimitOrderFilter creates a new order filter with no limit
func NewNoLimitOrderFilter() *OrderFilter {
	return &OrderFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// Validate validates the order filter
func (f *OrderFilter) Validate() error {
	if f == nil {
		return nil
	}

	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
	}

	if f.TimeRangeFilter != nil {
		if err := f.TimeRangeFilter.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// GetLimit implements BaseFilter interface
func (f *OrderFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

// GetOffset implements BaseFilter interface
func (f *OrderFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOffset()
	}
	return f.QueryFilter.GetOffset()
}

// GetSort implements BaseFilter interface
func (f *OrderFilter) GetSort() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetSort()
	}
	return f.QueryFilter.GetSort()
}

func (f *OrderFilter) GetOrder() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOrder()
	}
	return f.QueryFilter.GetOrder()
}

func (f *OrderFilter) GetStatus() Status {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetStatus()
	}
	return f.QueryFilter.GetStatus()
}

// IsUnlimited returns true if the filter has no limit
func (f *OrderFilter) IsUnlimited() bool {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().IsUnlimited()
	}
	return f.QueryFilter.IsUnlimited()
}
