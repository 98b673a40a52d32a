package service

import (
	"errors"
	"testing"
	"time"

	"github.com/coursebill/coursebill/internal/domain/order"
	"github.com/coursebill/coursebill/internal/notification"
	"github.com/coursebill/coursebill/internal/testutil"
	"github.com/coursebill/coursebill/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ReminderServiceSuite struct {
	testutil.BaseServiceTestSuite
	service ReminderService
	params  ServiceParams
}

func TestReminderService(t *testing.T) {
	suite.Run(t, new(ReminderServiceSuite))
}

func (s *ReminderServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.params = ServiceParams{
		Logger:    s.GetLogger(),
		Config:    s.GetConfig(),
		Calendar:  s.GetCalendar(),
		OrderRepo: s.GetStores().OrderRepo,
		Gateway:   s.GetGateway(),
		Notifier:  s.GetNotifier(),
		Publisher: s.GetPublisher(),
	}
	s.service = NewReminderService(s.params)
}

// seedOrderDueIn stores a pending order whose first installment falls due the
// given number of days from now
func (s *ReminderServiceSuite) seedOrderDueIn(days int, installmentState types.InstallmentState) *order.Order {
	o := &order.Order{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ORDER),
		OrderNumber:     "ORD-000020",
		OrderType:       types.OrderTypeSingle,
		State:           types.OrderStatePending,
		OwnerID:         "user_1",
		CourseID:        "course_1",
		CourseStart:     time.Now().UTC().AddDate(0, -1, 0),
		CourseEnd:       time.Now().UTC().AddDate(0, 6, 0),
		PaymentMethodID: lo.ToPtr("pm_1"),
		Total:           decimal.RequireFromString("100.00"),
		Currency:        "EUR",
		Schedule: []*order.Installment{
			{
				ID:      types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INSTALLMENT),
				Amount:  decimal.RequireFromString("100.00"),
				DueDate: time.Now().UTC().AddDate(0, 0, days),
				State:   installmentState,
			},
		},
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.params.OrderRepo.Create(s.GetContext(), o))
	return o
}

func (s *ReminderServiceSuite) TestSendsReminder() {
	reminderDays := s.GetConfig().Payment.ReminderPeriodDays
	o := s.seedOrderDueIn(reminderDays, types.InstallmentStatePending)

	resp, err := s.service.SendPaymentReminders(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.TotalSuccess)
	s.Equal(0, resp.TotalFailed)
	s.Len(resp.Items, 1)
	s.Equal(o.ID, resp.Items[0].OrderID)

	sent := s.GetNotifier().Sent()
	s.Len(sent, 1)
	s.Equal(notification.TemplateInstallmentReminder, sent[0].TemplateID)
	s.Equal("user_1", sent[0].Recipient)

	stored, err := s.params.OrderRepo.Get(s.GetContext(), o.ID)
	s.NoError(err)
	s.NotNil(stored.Schedule[0].ReminderSentFor)
	s.True(types.SameDay(*stored.Schedule[0].ReminderSentFor, stored.Schedule[0].DueDate))

	s.Equal(1, s.GetPublisher().CountByName(types.WebhookEventOrderPaymentReminder))
}

func (s *ReminderServiceSuite) TestReminderSentOncePerDueDate() {
	reminderDays := s.GetConfig().Payment.ReminderPeriodDays
	s.seedOrderDueIn(reminderDays, types.InstallmentStatePending)

	_, err := s.service.SendPaymentReminders(s.GetContext())
	s.NoError(err)

	resp, err := s.service.SendPaymentReminders(s.GetContext())
	s.NoError(err)
	s.Equal(0, resp.TotalSuccess)
	s.Len(resp.Items, 0)
	s.Len(s.GetNotifier().Sent(), 1)
}

func (s *ReminderServiceSuite) TestNoReminderOutsideWindow() {
	reminderDays := s.GetConfig().Payment.ReminderPeriodDays
	s.seedOrderDueIn(reminderDays+1, types.InstallmentStatePending)
	s.seedOrderDueIn(reminderDays-1, types.InstallmentStatePending)

	resp, err := s.service.SendPaymentReminders(s.GetContext())
	s.NoError(err)
	s.Len(resp.Items, 0)
	s.Len(s.GetNotifier().Sent(), 0)
}

func (s *ReminderServiceSuite) TestNoReminderForSettledInstallment() {
	reminderDays := s.GetConfig().Payment.ReminderPeriodDays
	s.seedOrderDueIn(reminderDays, types.InstallmentStatePaid)

	resp, err := s.service.SendPaymentReminders(s.GetContext())
	s.NoError(err)
	s.Len(resp.Items, 0)
	s.Len(s.GetNotifier().Sent(), 0)
}

func (s *ReminderServiceSuite) TestFailedSendIsRetriedNextRun() {
	reminderDays := s.GetConfig().Payment.ReminderPeriodDays
	o := s.seedOrderDueIn(reminderDays, types.InstallmentStatePending)

	s.GetNotifier().FailWith(errors.New("smtp unavailable"))
	resp, err := s.service.SendPaymentReminders(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.TotalFailed)

	// the failed send left no trace, the next run retries it
	stored, err := s.params.OrderRepo.Get(s.GetContext(), o.ID)
	s.NoError(err)
	s.Nil(stored.Schedule[0].ReminderSentFor)

	s.GetNotifier().Clear()
	resp, err = s.service.SendPaymentReminders(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.TotalSuccess)
	s.Len(s.GetNotifier().Sent(), 1)
}
