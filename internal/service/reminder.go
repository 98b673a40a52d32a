package service

import (
	"context"
	"time"

	"github.com/coursebill/coursebill/internal/api/dto"
	"github.com/coursebill/coursebill/internal/domain/order"
	"github.com/coursebill/coursebill/internal/notification"
	"github.com/coursebill/coursebill/internal/types"
	"github.com/samber/lo"
)

// ReminderService announces upcoming installment debits to buyers a fixed
// number of days before the due date. A reminder is sent at most once per
// installment and due date, so the cron may run as often as it likes.
type ReminderService interface {
	SendPaymentReminders(ctx context.Context) (*dto.ReminderRunResponse, error)
}

type reminderService struct {
	ServiceParams
}

// NewReminderService creates a new reminder service
func NewReminderService(params ServiceParams) ReminderService {
	return &reminderService{
		ServiceParams: params,
	}
}

// SendPaymentReminders notifies the owner of every order whose next pending
// installment falls due exactly ReminderPeriodDays from today.
func (s *reminderService) SendPaymentReminders(ctx context.Context) (*dto.ReminderRunResponse, error) {
	const batchSize = 100
	now := time.Now().UTC()
	targetDay := types.BeginningOfDay(now).AddDate(0, 0, s.Config.Payment.ReminderPeriodDays)

	s.Logger.Infow("starting payment reminder run",
		"current_time", now,
		"target_day", targetDay,
	)

	response := &dto.ReminderRunResponse{
		Items:   make([]*dto.ReminderRunItem, 0),
		StartAt: now,
	}

	offset := 0
	for {
		filter := &types.OrderFilter{
			QueryFilter: &types.QueryFilter{
				Limit:  lo.ToPtr(batchSize),
				Offset: lo.ToPtr(offset),
				Status: lo.ToPtr(types.StatusPublished),
			},
			OrderStates: types.CollectingOrderStates(),
		}

		orders, err := s.OrderRepo.List(ctx, filter)
		if err != nil {
			return response, err
		}

		if len(orders) == 0 {
			break
		}

		for _, o := range orders {
			installment := nextReminderInstallment(o, targetDay)
			if installment == nil {
				continue
			}

			item := &dto.ReminderRunItem{
				OrderID:       o.ID,
				InstallmentID: installment.ID,
				DueDate:       installment.DueDate,
			}
			response.Items = append(response.Items, item)

			if err := s.remind(ctx, o, installment); err != nil {
				s.Logger.Errorw("failed to send payment reminder",
					"order_id", o.ID,
					"installment_id", installment.ID,
					"error", err,
				)
				response.TotalFailed++
				item.Error = err.Error()
				continue
			}
			response.TotalSuccess++
		}

		offset += len(orders)
		if len(orders) < batchSize {
			break
		}
	}

	s.Logger.Infow("finished payment reminder run",
		"total_success", response.TotalSuccess,
		"total_failed", response.TotalFailed,
	)

	return response, nil
}

// nextReminderInstallment returns the pending installment due on the target
// day, unless a reminder covering that due date was already sent
func nextReminderInstallment(o *order.Order, targetDay time.Time) *order.Installment {
	for _, installment := range o.Schedule {
		if installment.State != types.InstallmentStatePending {
			continue
		}
		if !types.SameDay(installment.DueDate, targetDay) {
			continue
		}
		if installment.ReminderSentFor != nil && types.SameDay(*installment.ReminderSentFor, installment.DueDate) {
			continue
		}
		return installment
	}
	return nil
}

// remind sends the notification, then records the covered due date on the
// installment so a rerun skips it
func (s *reminderService) remind(ctx context.Context, o *order.Order, installment *order.Installment) error {
	ctx = context.WithValue(ctx, types.CtxTenantID, o.TenantID)
	ctx = context.WithValue(ctx, types.CtxUserID, o.CreatedBy)

	err := s.Notifier.Send(ctx, notification.TemplateInstallmentReminder, o.OwnerID, map[string]interface{}{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"amount":       installment.Amount,
		"currency":     o.Currency,
		"due_date":     installment.DueDate,
	})
	if err != nil {
		return err
	}

	installment.ReminderSentFor = lo.ToPtr(installment.DueDate)
	if err := s.OrderRepo.Update(ctx, o); err != nil {
		return err
	}

	s.publishReminderEvent(ctx, o, installment)
	return nil
}

func (s *reminderService) publishReminderEvent(ctx context.Context, o *order.Order, installment *order.Installment) {
	payload := map[string]interface{}{
		"order_id":       o.ID,
		"installment_id": installment.ID,
		"amount":         installment.Amount,
		"currency":       o.Currency,
		"due_date":       installment.DueDate,
	}
	if err := s.Publisher.Publish(ctx, types.WebhookEventOrderPaymentReminder, payload); err != nil {
		s.Logger.Errorw("failed to publish reminder event",
			"order_id", o.ID,
			"installment_id", installment.ID,
			"error", err,
		)
	}
}
