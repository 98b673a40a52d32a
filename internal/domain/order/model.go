package order

import (
	"time"

	ierr "github.com/coursebill/coursebill/internal/errors"
	"github.com/coursebill/coursebill/internal/types"
	"github.com/shopspring/decimal"
)

// Installment is one scheduled partial payment of an order's total.
// Its id is generated once at schedule build time and never reused.
type Installment struct {
	ID      string                 `json:"id"`
	Amount  decimal.Decimal        `json:"amount"`
	DueDate time.Time              `json:"due_date"`
	State   types.InstallmentState `json:"state"`
	// ReminderSentFor holds the due date covered by the last upcoming-debit
	// reminder, so an installment is never notified twice for the same date
	ReminderSentFor *time.Time `json:"reminder_sent_for,omitempty"`
}

// Order represents a course purchase and its payment lifecycle. Batch orders
// (a company buying seats for employees) share the exact same model and state
// machine and are distinguished by OrderType.
type Order struct {
	// Unique identifier for this order
	ID string `json:"id"`
	// Human-facing reference, issued from a strictly increasing sequence
	OrderNumber string `json:"order_number"`
	// Single buyer order or company batch order
	OrderType types.OrderType `json:"order_type"`
	// Current state of the order lifecycle
	State types.OrderState `json:"state"`
	// The owner is the buyer (or the company contact for batch orders)
	OwnerID string `json:"owner_id"`
	// Course being purchased and its session window
	CourseID    string    `json:"course_id"`
	CourseStart time.Time `json:"course_start"`
	CourseEnd   time.Time `json:"course_end"`
	// Organization delivering the training, bound after draft
	OrganizationID *string `json:"organization_id,omitempty"`
	// Batch order fields
	CompanyName string `json:"company_name,omitempty"`
	NbSeats     int    `json:"nb_seats,omitempty"`
	// Contract workflow. ContractSignedAt is the buyer signature timestamp
	// and anchors the withdrawal period.
	ContractRequired    bool       `json:"contract_required"`
	ContractID          *string    `json:"contract_id,omitempty"`
	ContractSubmittedAt *time.Time `json:"contract_submitted_at,omitempty"`
	ContractSignedAt    *time.Time `json:"contract_signed_at,omitempty"`
	// Token of the stored payment method used for scheduled collection
	PaymentMethodID *string `json:"payment_method_id,omitempty"`
	// Monetary total with its currency
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
	// Schedule is the installment ledger, ordered by due date. Created once
	// when the order becomes eligible for billing, mutated installment by
	// installment, never rewritten.
	Schedule []*Installment `json:"schedule,omitempty"`
	// Version supports optimistic check-and-set updates so two workers can
	// never both charge the same installment
	Version int `json:"version"`

	types.BaseModel
}

// Validate validates the order
func (o *Order) Validate() error {
	if o.Total.IsNegative() {
		return ierr.NewError("invalid total").
			WithHint("Total must not be negative").
			Mark(ierr.ErrValidation)
	}
	if o.Currency == "" {
		return ierr.NewError("invalid currency").
			WithHint("Currency is required").
			Mark(ierr.ErrValidation)
	}
	if o.OwnerID == "" {
		return ierr.NewError("invalid owner").
			WithHint("Owner is required").
			Mark(ierr.ErrValidation)
	}
	if o.CourseID == "" {
		return ierr.NewError("invalid course").
			WithHint("Course is required").
			Mark(ierr.ErrValidation)
	}
	if err := o.OrderType.Validate(); err != nil {
		return ierr.NewError("invalid order type").
			WithHint("Order type is invalid").
			Mark(ierr.ErrValidation)
	}
	if err := o.State.Validate(); err != nil {
		return ierr.NewError("invalid order state").
			WithHint("Order state is invalid").
			Mark(ierr.ErrValidation)
	}
	if o.OrderType == types.OrderTypeBatch && o.NbSeats <= 0 {
		return ierr.NewError("invalid seat count").
			WithHint("Batch orders must reserve at least one seat").
			Mark(ierr.ErrValidation)
	}
	if len(o.Schedule) > 0 {
		sum := decimal.Zero
		for _, installment := range o.Schedule {
			sum = sum.Add(installment.Amount)
		}
		if !sum.Equal(o.Total) {
			return ierr.NewError("schedule does not sum to order total").
				WithHintf("Installments sum to %s, order total is %s", sum, o.Total).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// HasSchedule returns true once the installment ledger has been created
func (o *Order) HasSchedule() bool {
	return len(o.Schedule) > 0
}

// HasPaymentMethod returns true when a payment method token is stored
func (o *Order) HasPaymentMethod() bool {
	return o.PaymentMethodID != nil && *o.PaymentMethodID != ""
}

// IsFree returns true for zero-total orders, which skip collection entirely
func (o *Order) IsFree() bool {
	return o.Total.IsZero()
}

// FindInstallment returns the installment with the given id
func (o *Order) FindInstallment(id string) (*Installment, error) {
	for _, installment := range o.Schedule {
		if installment.ID == id {
			return installment, nil
		}
	}
	return nil, ierr.NewError("installment not found").
		WithHintf("No installment %s on order %s", id, o.ID).
		Mark(ierr.ErrNotFound)
}

// InstallmentsDueOnOrBefore returns the pending installments whose due date
// falls on or before the given date, in schedule order
func (o *Order) InstallmentsDueOnOrBefore(date time.Time) []*Installment {
	var due []*Installment
	for _, installment := range o.Schedule {
		if installment.State != types.InstallmentStatePending {
			continue
		}
		if installment.DueDate.After(date) {
			continue
		}
		due = append(due, installment)
	}
	return due
}

// MarkInstallmentPaid transitions a pending installment to paid
func (o *Order) MarkInstallmentPaid(id string) error {
	return o.markInstallment(id, types.InstallmentStatePaid)
}

// MarkInstallmentRefused transitions a pending installment to refused
func (o *Order) MarkInstallmentRefused(id string) error {
	return o.markInstallment(id, types.InstallmentStateRefused)
}

// markInstallment is the single check-and-set mutation point of the ledger.
// Only a pending installment may move to paid or refused; a terminal
// installment rejects the mutation instead of silently ignoring it.
func (o *Order) markInstallment(id string, target types.InstallmentState) error {
	installment, err := o.FindInstallment(id)
	if err != nil {
		return err
	}

	if installment.State != types.InstallmentStatePending {
		return ierr.NewError("installment is not pending").
			WithHintf("Installment %s is already %s", id, installment.State).
			Mark(ierr.ErrInvalidOperation)
	}

	installment.State = target
	return nil
}

// RetryRefusedInstallments re-enters refused installments into pending.
// This is the only path out of refused and is always externally triggered
// (a buyer supplying a usable payment method again), never automatic.
func (o *Order) RetryRefusedInstallments() int {
	count := 0
	for _, installment := range o.Schedule {
		if installment.State == types.InstallmentStateRefused {
			installment.State = types.InstallmentStatePending
			count++
		}
	}
	return count
}

// CancelRemainingInstallments freezes the ledger on order cancellation by
// canceling every non-terminal installment
func (o *Order) CancelRemainingInstallments() {
	for _, installment := range o.Schedule {
		if !installment.State.IsTerminal() {
			installment.State = types.InstallmentStateCanceled
		}
	}
}

// IsFullyPaid returns true when every installment of a non-empty schedule is paid
func (o *Order) IsFullyPaid() bool {
	if !o.HasSchedule() {
		return false
	}
	for _, installment := range o.Schedule {
		if installment.State != types.InstallmentStatePaid {
			return false
		}
	}
	return true
}

// HasAnyRefused returns true when at least one installment is refused
func (o *Order) HasAnyRefused() bool {
	for _, installment := range o.Schedule {
		if installment.State == types.InstallmentStateRefused {
			return true
		}
	}
	return false
}

// HasAnyPaid returns true when at least one installment is paid
func (o *Order) HasAnyPaid() bool {
	for _, installment := range o.Schedule {
		if installment.State == types.InstallmentStatePaid {
			return true
		}
	}
	return false
}

// TableName returns the table name for the order
func (o *Order) TableName() string {
	return "orders"
}
