package dto

import (
	"time"

	"github.com/coursebill/coursebill/internal/domain/order"
	ierr "github.com/coursebill/coursebill/internal/errors"
	"github.com/coursebill/coursebill/internal/types"
	"github.com/coursebill/coursebill/internal/validator"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the payload to create an order or a batch order
type CreateOrderRequest struct {
	OrderType        types.OrderType `json:"order_type" validate:"required"`
	OwnerID          string          `json:"owner_id" validate:"required"`
	CourseID         string          `json:"course_id" validate:"required"`
	CourseStart      time.Time       `json:"course_start" validate:"required"`
	CourseEnd        time.Time       `json:"course_end" validate:"required"`
	Total            decimal.Decimal `json:"total"`
	Currency         string          `json:"currency"`
	ContractRequired bool            `json:"contract_required"`
	OrganizationID   *string         `json:"organization_id,omitempty"`
	CompanyName      string          `json:"company_name,omitempty"`
	NbSeats          int             `json:"nb_seats,omitempty"`
}

// Validate validates the create order request
func (r *CreateOrderRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.OrderType.Validate(); err != nil {
		return ierr.NewError("invalid order type").
			WithHint("Order type must be SINGLE or BATCH").
			Mark(ierr.ErrValidation)
	}
	if r.Total.IsNegative() {
		return ierr.NewError("invalid total").
			WithHint("Total must not be negative").
			Mark(ierr.ErrValidation)
	}
	if !r.CourseEnd.After(r.CourseStart) {
		return ierr.NewError("invalid course window").
			WithHint("Course end must be after course start").
			Mark(ierr.ErrValidation)
	}
	if r.OrderType == types.OrderTypeBatch && r.NbSeats <= 0 {
		return ierr.NewError("invalid seat count").
			WithHint("Batch orders must reserve at least one seat").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// AttachPaymentMethodRequest binds a stored payment method token to an order
type AttachPaymentMethodRequest struct {
	PaymentMethodID string `json:"payment_method_id" validate:"required"`
}

func (r *AttachPaymentMethodRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// AssignOrganizationRequest binds the delivering organization to an order
type AssignOrganizationRequest struct {
	OrganizationID string `json:"organization_id" validate:"required"`
}

func (r *AssignOrganizationRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// SubmitContractRequest records that a contract was submitted for signature.
// ContractID is the reference of an externally managed contract; when empty
// the engine issues its own reference.
type SubmitContractRequest struct {
	ContractID string `json:"contract_id"`
}

func (r *SubmitContractRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// InstallmentResponse is the serialized form of one ledger entry, exposed to
// presentation layers as an ordered list on the order
type InstallmentResponse struct {
	ID      string                 `json:"id"`
	Amount  decimal.Decimal        `json:"amount"`
	DueDate time.Time              `json:"due_date"`
	State   types.InstallmentState `json:"state"`
}

// OrderResponse is the serialized order with its payment schedule
type OrderResponse struct {
	ID               string                `json:"id"`
	OrderNumber      string                `json:"order_number"`
	OrderType        types.OrderType       `json:"order_type"`
	State            types.OrderState      `json:"state"`
	OwnerID          string                `json:"owner_id"`
	CourseID         string                `json:"course_id"`
	CourseStart      time.Time             `json:"course_start"`
	CourseEnd        time.Time             `json:"course_end"`
	OrganizationID   *string               `json:"organization_id,omitempty"`
	CompanyName      string                `json:"company_name,omitempty"`
	NbSeats          int                   `json:"nb_seats,omitempty"`
	ContractRequired bool                  `json:"contract_required"`
	Total            decimal.Decimal       `json:"total"`
	Currency         string                `json:"currency"`
	HasPaymentMethod bool                  `json:"has_payment_method"`
	Schedule         []InstallmentResponse `json:"schedule"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// NewOrderResponse builds the response from the domain order
func NewOrderResponse(o *order.Order) *OrderResponse {
	resp := &OrderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		OrderType:        o.OrderType,
		State:            o.State,
		OwnerID:          o.OwnerID,
		CourseID:         o.CourseID,
		CourseStart:      o.CourseStart,
		CourseEnd:        o.CourseEnd,
		OrganizationID:   o.OrganizationID,
		CompanyName:      o.CompanyName,
		NbSeats:          o.NbSeats,
		ContractRequired: o.ContractRequired,
		Total:            o.Total,
		Currency:         o.Currency,
		HasPaymentMethod: o.HasPaymentMethod(),
		Schedule:         make([]InstallmentResponse, 0, len(o.Schedule)),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	for _, installment := range o.Schedule {
		resp.Schedule = append(resp.Schedule, InstallmentResponse{
			ID:      installment.ID,
			Amount:  installment.Amount,
			DueDate: installment.DueDate,
			State:   installment.State,
		})
	}
	return resp
}
