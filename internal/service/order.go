package service

import (
	"context"
	"fmt"
	"time"

	"github.com/coursebill/coursebill/internal/api/dto"
	"github.com/coursebill/coursebill/internal/domain/order"
	ierr "github.com/coursebill/coursebill/internal/errors"
	"github.com/coursebill/coursebill/internal/types"
	"github.com/samber/lo"
)

// OrderService drives the lifecycle of orders and batch orders: creation,
// organization assignment, contract workflow, payment method binding,
// cancellation, and the state machine itself.
type OrderService interface {
	CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	GetOrder(ctx context.Context, id string) (*dto.OrderResponse, error)
	AssignOrganization(ctx context.Context, id string, req dto.AssignOrganizationRequest) (*dto.OrderResponse, error)
	SubmitContract(ctx context.Context, id string, req dto.SubmitContractRequest) (*dto.OrderResponse, error)
	MarkContractSigned(ctx context.Context, id string, signedAt time.Time) (*dto.OrderResponse, error)
	AttachPaymentMethod(ctx context.Context, id string, req dto.AttachPaymentMethodRequest) (*dto.OrderResponse, error)
	RetryPayment(ctx context.Context, id string, req dto.AttachPaymentMethodRequest) (*dto.OrderResponse, error)
	CancelOrder(ctx context.Context, id string) (*dto.OrderResponse, error)

	// RefreshState drives at most one state machine transition for the given
	// order and persists it. Transition side effects fire only after the new
	// state has been stored.
	RefreshState(ctx context.Context, o *order.Order) error
}

type orderService struct {
	ServiceParams
	scheduleService PaymentScheduleService
}

// NewOrderService creates a new order service
func NewOrderService(params ServiceParams) OrderService {
	return &orderService{
		ServiceParams:   params,
		scheduleService: NewPaymentScheduleService(params),
	}
}

func (s *orderService) CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	number, err := s.OrderRepo.NextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = s.Config.Payment.Currency
	}

	prefix := types.UUID_PREFIX_ORDER
	if req.OrderType == types.OrderTypeBatch {
		prefix = types.UUID_PREFIX_BATCH_ORDER
	}

	o := &order.Order{
		ID:               types.GenerateUUIDWithPrefix(prefix),
		OrderNumber:      fmt.Sprintf("ORD-%06d", number),
		OrderType:        req.OrderType,
		State:            types.OrderStateDraft,
		OwnerID:          req.OwnerID,
		CourseID:         req.CourseID,
		CourseStart:      req.CourseStart,
		CourseEnd:        req.CourseEnd,
		OrganizationID:   req.OrganizationID,
		CompanyName:      req.CompanyName,
		NbSeats:          req.NbSeats,
		ContractRequired: req.ContractRequired,
		Total:            req.Total,
		Currency:         currency,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}

	if err := s.OrderRepo.Create(ctx, o); err != nil {
		return nil, err
	}

	s.Logger.Infow("created order",
		"order_id", o.ID,
		"order_number", o.OrderNumber,
		"order_type", o.OrderType,
		"total", o.Total,
	)

	// an order created with its organization already bound leaves draft now
	if err := s.RefreshState(ctx, o); err != nil {
		return nil, err
	}

	return dto.NewOrderResponse(o), nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*dto.OrderResponse, error) {
	o, err := s.OrderRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewOrderResponse(o), nil
}

func (s *orderService) AssignOrganization(ctx context.Context, id string, req dto.AssignOrganizationRequest) (*dto.OrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	o, err := s.OrderRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	o.OrganizationID = lo.ToPtr(req.OrganizationID)

	if err := s.RefreshState(ctx, o); err != nil {
		return nil, err
	}
	return dto.NewOrderResponse(o), nil
}

func (s *orderService) SubmitContract(ctx context.Context, id string, req dto.SubmitContractRequest) (*dto.OrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	o, err := s.OrderRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.ContractRequired {
		return nil, ierr.NewError("order has no contract workflow").
			WithHint("This order does not require a contract").
			Mark(ierr.ErrInvalidOperation)
	}

	contractID := req.ContractID
	if contractID == "" {
		contractID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CONTRACT)
	}
	o.ContractID = lo.ToPtr(contractID)
	o.ContractSubmittedAt = lo.ToPtr(time.Now().UTC())

	if err := s.RefreshState(ctx, o); err != nil {
		return nil, err
	}
	return dto.NewOrderResponse(o), nil
}

// MarkContractSigned records the buyer signature. The signature date anchors
// the withdrawal period, so the installment ledger is built here: the order
// becomes eligible for billing the moment the contract is signed.
func (s *orderService) MarkContractSigned(ctx context.Context, id string, signedAt time.Time) (*dto.OrderResponse, error) {
	o, err := s.OrderRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.ContractRequired || o.ContractSubmittedAt == nil {
		return nil, ierr.NewError("no contract awaiting signature").
			WithHint("The order has no contract submitted for signature").
			Mark(ierr.ErrInvalidOperation)
	}

	o.ContractSignedAt = lo.ToPtr(signedAt.UTC())

	if err := s.ensureSchedule(ctx, o); err != nil {
		return nil, err
	}

	if err := s.RefreshState(ctx, o); err != nil {
		return nil, err
	}
	return dto.NewOrderResponse(o), nil
}

func (s *orderService) AttachPaymentMethod(ctx context.Context, id string, req dto.AttachPaymentMethodRequest) (*dto.OrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	o, err := s.OrderRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	o.PaymentMethodID = lo.ToPtr(req.PaymentMethodID)

	// contract-less orders become eligible for billing here
	if err := s.ensureSchedule(ctx, o); err != nil {
		return nil, err
	}

	if err := s.RefreshState(ctx, o); err != nil {
		return nil, err
	}
	return dto.NewOrderResponse(o), nil
}

// RetryPayment is the only path out of failed_payment: the buyer supplies a
// usable payment method again and the refused installments re-enter pending.
func (s *orderService) RetryPayment(ctx context.Context, id string, req dto.AttachPaymentMethodRequest) (*dto.OrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	o, err := s.OrderRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.State != types.OrderStateFailedPayment {
		return nil, ierr.NewError("order has no failed payment").
			WithHintf("Order %s is %s, only failed_payment orders accept a payment retry", o.ID, o.State).
			Mark(ierr.ErrInvalidOperation)
	}

	o.PaymentMethodID = lo.ToPtr(req.PaymentMethodID)
	retried := o.RetryRefusedInstallments()

	s.Logger.Infow("payment retry requested",
		"order_id", o.ID,
		"installments_retried", retried,
	)

	if err := s.RefreshState(ctx, o); err != nil {
		return nil, err
	}
	return dto.NewOrderResponse(o), nil
}

// CancelOrder is the universal escape hatch. Cancellation of a completed
// order is rejected with a domain error, never accepted silently.
func (s *orderService) CancelOrder(ctx context.Context, id string) (*dto.OrderResponse, error) {
	o, err := s.OrderRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.State == types.OrderStateCompleted {
		return nil, ierr.NewError("cannot cancel a completed order").
			WithHint("Cannot cancel a completed order").
			Mark(ierr.ErrInvalidOperation)
	}

	o.CancelRemainingInstallments()
	o.State = types.OrderStateCanceled

	if err := s.OrderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	s.Logger.Infow("canceled order", "order_id", o.ID)
	s.publishOrderEvent(ctx, types.WebhookEventOrderCanceled, o)

	return dto.NewOrderResponse(o), nil
}

func (s *orderService) RefreshState(ctx context.Context, o *order.Order) error {
	from := o.State

	t := nextTransition(o)
	if t != nil {
		o.State = t.target
	}

	if err := s.OrderRepo.Update(ctx, o); err != nil {
		return err
	}

	if t != nil {
		s.Logger.Infow("order state transition",
			"order_id", o.ID,
			"from", from,
			"to", o.State,
		)
		if t.effect != nil {
			t.effect(ctx, s, o)
		}
	}

	return nil
}

// ensureSchedule builds the installment ledger once the order is eligible
// for billing. Schedule generation errors surface synchronously: an order is
// never stored with a broken schedule.
func (s *orderService) ensureSchedule(ctx context.Context, o *order.Order) error {
	if o.HasSchedule() || o.IsFree() {
		return nil
	}
	if o.ContractRequired && o.ContractSignedAt == nil {
		return nil
	}

	signedAt := o.CreatedAt
	if o.ContractSignedAt != nil {
		signedAt = *o.ContractSignedAt
	}

	schedule, err := s.scheduleService.BuildSchedule(o.Total, signedAt, o.CourseStart, o.CourseEnd)
	if err != nil {
		return err
	}

	o.Schedule = schedule

	s.Logger.Infow("built payment schedule",
		"order_id", o.ID,
		"installments", len(schedule),
		"first_due_date", schedule[0].DueDate,
	)

	return nil
}

// publishOrderEvent emits a state-change event; publishing failures are
// logged, they never fail the transition that already happened
func (s *orderService) publishOrderEvent(ctx context.Context, eventName string, o *order.Order) {
	payload := map[string]interface{}{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"order_type":   o.OrderType,
		"state":        o.State,
		"owner_id":     o.OwnerID,
		"total":        o.Total,
		"currency":     o.Currency,
	}
	if err := s.Publisher.Publish(ctx, eventName, payload); err != nil {
		s.Logger.Errorw("failed to publish order event",
			"order_id", o.ID,
			"event_name", eventName,
			"error", err,
		)
	}
}
