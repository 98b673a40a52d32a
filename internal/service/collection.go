package service

import (
	"context"
	"sync"
	"time"

	"github.com/coursebill/coursebill/internal/api/dto"
	"github.com/coursebill/coursebill/internal/domain/order"
	ierr "github.com/coursebill/coursebill/internal/errors"
	"github.com/coursebill/coursebill/internal/gateway"
	"github.com/coursebill/coursebill/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

// CollectionService charges due installments against the stored payment
// method of their order. It is driven by a cron endpoint and is safe to run
// repeatedly: only pending installments are ever charged, so a rerun after a
// partial failure picks up exactly where the previous run stopped.
type CollectionService interface {
	ProcessDueInstallments(ctx context.Context) (*dto.CollectionRunResponse, error)
}

type collectionService struct {
	ServiceParams
	orderService OrderService
}

// NewCollectionService creates a new collection service
func NewCollectionService(params ServiceParams, orderService OrderService) CollectionService {
	return &collectionService{
		ServiceParams: params,
		orderService:  orderService,
	}
}

// ProcessDueInstallments charges every pending installment due on or before
// now across all orders in a collecting state. Orders are independent and
// processed concurrently; installments of one order are processed strictly in
// schedule order.
func (s *collectionService) ProcessDueInstallments(ctx context.Context) (*dto.CollectionRunResponse, error) {
	const batchSize = 100
	const maxWorkers = 8
	now := time.Now().UTC()

	s.Logger.Infow("starting installment collection run", "current_time", now)

	response := &dto.CollectionRunResponse{
		Items:   make([]*dto.CollectionRunItem, 0),
		StartAt: now,
	}

	var mu sync.Mutex

	offset := 0
	for {
		filter := &types.OrderFilter{
			QueryFilter: &types.QueryFilter{
				Limit:  lo.ToPtr(batchSize),
				Offset: lo.ToPtr(offset),
				Status: lo.ToPtr(types.StatusPublished),
			},
			OrderStates: types.CollectingOrderStates(),
			DueBefore:   &now,
		}

		orders, err := s.OrderRepo.List(ctx, filter)
		if err != nil {
			return response, err
		}

		s.Logger.Infow("processing collection batch",
			"batch_size", len(orders),
			"offset", offset,
		)

		if len(orders) == 0 {
			break
		}

		p := pool.New().WithMaxGoroutines(maxWorkers)
		for _, o := range orders {
			o := o
			p.Go(func() {
				items := s.collectOrder(ctx, o, now)
				mu.Lock()
				for _, item := range items {
					response.Items = append(response.Items, item)
					if item.Error == "" {
						response.TotalSuccess++
					} else {
						response.TotalFailed++
					}
				}
				mu.Unlock()
			})
		}
		p.Wait()

		// orders settled above drop out of the collecting filter, so the
		// advancing offset can skip orders within this run; the next run
		// picks them up
		offset += len(orders)
		if len(orders) < batchSize {
			break
		}
	}

	s.Logger.Infow("finished installment collection run",
		"total_success", response.TotalSuccess,
		"total_failed", response.TotalFailed,
	)

	return response, nil
}

// collectOrder charges the due installments of one order in schedule order.
// A transient gateway failure stops the order's run and leaves the failing
// installment pending for the next run; the remaining orders are unaffected.
func (s *collectionService) collectOrder(ctx context.Context, o *order.Order, now time.Time) []*dto.CollectionRunItem {
	ctx = context.WithValue(ctx, types.CtxTenantID, o.TenantID)
	ctx = context.WithValue(ctx, types.CtxUserID, o.CreatedBy)

	items := make([]*dto.CollectionRunItem, 0)

	for _, installment := range o.InstallmentsDueOnOrBefore(now) {
		item := &dto.CollectionRunItem{
			OrderID:       o.ID,
			InstallmentID: installment.ID,
		}
		items = append(items, item)

		if !o.HasPaymentMethod() {
			// nothing to charge against: the installment is refused without
			// contacting the provider
			if err := s.settleInstallment(ctx, o, installment.ID, gateway.ChargeResult{
				Outcome: gateway.ChargeOutcomeDeclined,
				Reason:  "no stored payment method",
			}); err != nil {
				item.Error = err.Error()
				return items
			}
			item.Outcome = string(gateway.ChargeOutcomeDeclined)
			item.Error = "no stored payment method"
			continue
		}

		result, err := s.Gateway.ChargeStoredMethod(ctx,
			*o.PaymentMethodID,
			installment.Amount,
			o.Currency,
			installment.ID,
		)
		if err != nil || result.Outcome == gateway.ChargeOutcomeTransient {
			reason := result.Reason
			if err != nil {
				reason = err.Error()
			}
			s.Logger.Errorw("transient gateway failure, leaving installment pending",
				"order_id", o.ID,
				"installment_id", installment.ID,
				"error", reason,
			)
			item.Outcome = string(gateway.ChargeOutcomeTransient)
			item.Error = reason
			return items
		}

		if err := s.settleInstallment(ctx, o, installment.ID, result); err != nil {
			item.Error = err.Error()
			return items
		}

		item.Outcome = string(result.Outcome)
		if result.Outcome == gateway.ChargeOutcomePaid {
			item.ReceiptNumber = types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_RECEIPT)
			s.Logger.Infow("collected installment",
				"order_id", o.ID,
				"installment_id", installment.ID,
				"amount", installment.Amount,
				"receipt_number", item.ReceiptNumber,
			)
		} else {
			item.Error = result.Reason
			s.Logger.Infow("installment charge declined",
				"order_id", o.ID,
				"installment_id", installment.ID,
				"reason", result.Reason,
			)
		}
	}

	return items
}

// settleInstallment records a definitive charge outcome on the ledger,
// persists it and drives the order state machine. A concurrent update of the
// same order is retried once against a fresh copy.
func (s *collectionService) settleInstallment(ctx context.Context, o *order.Order, installmentID string, result gateway.ChargeResult) error {
	err := s.applyOutcome(ctx, o, installmentID, result)
	if !ierr.IsVersionConflict(err) {
		return err
	}

	fresh, getErr := s.OrderRepo.Get(ctx, o.ID)
	if getErr != nil {
		return getErr
	}
	*o = *fresh

	return s.applyOutcome(ctx, o, installmentID, result)
}

func (s *collectionService) applyOutcome(ctx context.Context, o *order.Order, installmentID string, result gateway.ChargeResult) error {
	eventName := types.WebhookEventOrderInstallmentPaid
	if result.Outcome == gateway.ChargeOutcomePaid {
		if err := o.MarkInstallmentPaid(installmentID); err != nil {
			return err
		}
	} else {
		if err := o.MarkInstallmentRefused(installmentID); err != nil {
			return err
		}
		eventName = types.WebhookEventOrderInstallmentRefused
	}

	if err := s.orderService.RefreshState(ctx, o); err != nil {
		return err
	}

	s.publishInstallmentEvent(ctx, eventName, o, installmentID, result)
	return nil
}

func (s *collectionService) publishInstallmentEvent(ctx context.Context, eventName string, o *order.Order, installmentID string, result gateway.ChargeResult) {
	installment, err := o.FindInstallment(installmentID)
	if err != nil {
		return
	}

	payload := map[string]interface{}{
		"order_id":           o.ID,
		"installment_id":     installment.ID,
		"amount":             installment.Amount,
		"currency":           o.Currency,
		"due_date":           installment.DueDate,
		"state":              installment.State,
		"gateway_payment_id": result.GatewayPaymentID,
		"reason":             result.Reason,
	}
	if err := s.Publisher.Publish(ctx, eventName, payload); err != nil {
		s.Logger.Errorw("failed to publish installment event",
			"order_id", o.ID,
			"installment_id", installment.ID,
			"event_name", eventName,
			"error", err,
		)
	}
}
