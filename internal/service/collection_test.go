package service

import (
	"strings"
	"testing"
	"time"

	"github.com/coursebill/coursebill/internal/domain/order"
	"github.com/coursebill/coursebill/internal/gateway"
	"github.com/coursebill/coursebill/internal/testutil"
	"github.com/coursebill/coursebill/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CollectionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service CollectionService
	params  ServiceParams
}

func TestCollectionService(t *testing.T) {
	suite.Run(t, new(CollectionServiceSuite))
}

func (s *CollectionServiceSuite) SetupTest() {
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
	s.service = NewCollectionService(s.params, NewOrderService(s.params))
}

// seedCollectingOrder stores a pending order with one installment due
// yesterday and one due in two months
func (s *CollectionServiceSuite) seedCollectingOrder(paymentMethodID *string) *order.Order {
	o := &order.Order{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ORDER),
		OrderNumber:     "ORD-000010",
		OrderType:       types.OrderTypeSingle,
		State:           types.OrderStatePending,
		OwnerID:         "user_1",
		CourseID:        "course_1",
		CourseStart:     time.Now().UTC().AddDate(0, -1, 0),
		CourseEnd:       time.Now().UTC().AddDate(0, 6, 0),
		PaymentMethodID: paymentMethodID,
		Total:           decimal.RequireFromString("100.00"),
		Currency:        "EUR",
		Schedule: []*order.Installment{
			{
				ID:      types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INSTALLMENT),
				Amount:  decimal.RequireFromString("30.00"),
				DueDate: time.Now().UTC().AddDate(0, 0, -1),
				State:   types.InstallmentStatePending,
			},
			{
				ID:      types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INSTALLMENT),
				Amount:  decimal.RequireFromString("70.00"),
				DueDate: time.Now().UTC().AddDate(0, 2, 0),
				State:   types.InstallmentStatePending,
			},
		},
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.params.OrderRepo.Create(s.GetContext(), o))
	return o
}

func (s *CollectionServiceSuite) TestCollectsDueInstallment() {
	o := s.seedCollectingOrder(lo.ToPtr("pm_1"))

	resp, err := s.service.ProcessDueInstallments(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.TotalSuccess)
	s.Equal(0, resp.TotalFailed)
	s.Len(resp.Items, 1)
	s.Equal(string(gateway.ChargeOutcomePaid), resp.Items[0].Outcome)
	s.True(strings.HasPrefix(resp.Items[0].ReceiptNumber, "RC-"))

	s.Equal(1, s.GetGateway().CallCount())
	call := s.GetGateway().Calls()[0]
	s.Equal("pm_1", call.PayerToken)
	s.True(call.Amount.Equal(decimal.RequireFromString("30.00")))
	s.Equal(o.Schedule[0].ID, call.IdempotencyKey)

	stored, err := s.params.OrderRepo.Get(s.GetContext(), o.ID)
	s.NoError(err)
	s.Equal(types.OrderStatePendingPayment, stored.State)
	s.Equal(types.InstallmentStatePaid, stored.Schedule[0].State)
	s.Equal(types.InstallmentStatePending, stored.Schedule[1].State)

	s.Equal(1, s.GetPublisher().CountByName(types.WebhookEventOrderInstallmentPaid))
}

func (s *CollectionServiceSuite) TestRefusesWithoutStoredMethod() {
	o := s.seedCollectingOrder(nil)

	resp, err := s.service.ProcessDueInstallments(s.GetContext())
	s.NoError(err)
	s.Equal(0, resp.TotalSuccess)
	s.Equal(1, resp.TotalFailed)

	// the provider is never contacted
	s.Equal(0, s.GetGateway().CallCount())

	stored, err := s.params.OrderRepo.Get(s.GetContext(), o.ID)
	s.NoError(err)
	s.Equal(types.OrderStateFailedPayment, stored.State)
	s.Equal(types.InstallmentStateRefused, stored.Schedule[0].State)

	s.Equal(1, s.GetPublisher().CountByName(types.WebhookEventOrderInstallmentRefused))
	s.Equal(1, s.GetPublisher().CountByName(types.WebhookEventOrderFailedPayment))
}

func (s *CollectionServiceSuite) TestDeclinedChargeMarksRefused() {
	o := s.seedCollectingOrder(lo.ToPtr("pm_1"))
	s.GetGateway().ScriptOutcome(o.Schedule[0].ID, gateway.ChargeResult{
		Outcome: gateway.ChargeOutcomeDeclined,
		Reason:  "insufficient funds",
	})

	resp, err := s.service.ProcessDueInstallments(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.TotalFailed)
	s.Equal("insufficient funds", resp.Items[0].Error)

	stored, err := s.params.OrderRepo.Get(s.GetContext(), o.ID)
	s.NoError(err)
	s.Equal(types.OrderStateFailedPayment, stored.State)
	s.Equal(types.InstallmentStateRefused, stored.Schedule[0].State)
	s.Equal(types.InstallmentStatePending, stored.Schedule[1].State)
}

func (s *CollectionServiceSuite) TestSecondRunIsIdempotent() {
	s.seedCollectingOrder(lo.ToPtr("pm_1"))

	_, err := s.service.ProcessDueInstallments(s.GetContext())
	s.NoError(err)
	s.Equal(1, s.GetGateway().CallCount())

	// everything due is already settled, the rerun touches nothing
	resp, err := s.service.ProcessDueInstallments(s.GetContext())
	s.NoError(err)
	s.Equal(0, resp.TotalSuccess)
	s.Equal(0, resp.TotalFailed)
	s.Len(resp.Items, 0)
	s.Equal(1, s.GetGateway().CallCount())
	s.Equal(1, s.GetPublisher().CountByName(types.WebhookEventOrderInstallmentPaid))
}

func (s *CollectionServiceSuite) TestTransientFailureLeavesPending() {
	o := s.seedCollectingOrder(lo.ToPtr("pm_1"))
	s.GetGateway().ScriptOutcome(o.Schedule[0].ID, gateway.ChargeResult{
		Outcome: gateway.ChargeOutcomeTransient,
		Reason:  "gateway timeout",
	})

	resp, err := s.service.ProcessDueInstallments(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.TotalFailed)
	s.Equal(string(gateway.ChargeOutcomeTransient), resp.Items[0].Outcome)

	stored, err := s.params.OrderRepo.Get(s.GetContext(), o.ID)
	s.NoError(err)
	s.Equal(types.OrderStatePending, stored.State)
	s.Equal(types.InstallmentStatePending, stored.Schedule[0].State)
	s.Equal(0, s.GetPublisher().CountByName(types.WebhookEventOrderInstallmentRefused))

	// the next run retries the same installment
	s.GetGateway().Clear()
	resp, err = s.service.ProcessDueInstallments(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.TotalSuccess)

	stored, err = s.params.OrderRepo.Get(s.GetContext(), o.ID)
	s.NoError(err)
	s.Equal(types.InstallmentStatePaid, stored.Schedule[0].State)
}

func (s *CollectionServiceSuite) TestOrdersAreIsolated() {
	failing := s.seedCollectingOrder(lo.ToPtr("pm_1"))
	healthy := s.seedCollectingOrder(lo.ToPtr("pm_2"))
	s.GetGateway().ScriptOutcome(failing.Schedule[0].ID, gateway.ChargeResult{
		Outcome: gateway.ChargeOutcomeTransient,
		Reason:  "gateway timeout",
	})

	resp, err := s.service.ProcessDueInstallments(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.TotalSuccess)
	s.Equal(1, resp.TotalFailed)

	storedFailing, err := s.params.OrderRepo.Get(s.GetContext(), failing.ID)
	s.NoError(err)
	s.Equal(types.InstallmentStatePending, storedFailing.Schedule[0].State)

	storedHealthy, err := s.params.OrderRepo.Get(s.GetContext(), healthy.ID)
	s.NoError(err)
	s.Equal(types.InstallmentStatePaid, storedHealthy.Schedule[0].State)
}

func (s *CollectionServiceSuite) TestFailedPaymentOrderKeepsBeingCollected() {
	o := s.seedCollectingOrder(lo.ToPtr("pm_1"))
	s.GetGateway().ScriptOutcome(o.Schedule[0].ID, gateway.ChargeResult{
		Outcome: gateway.ChargeOutcomeDeclined,
		Reason:  "insufficient funds",
	})

	_, err := s.service.ProcessDueInstallments(s.GetContext())
	s.NoError(err)

	// the second installment comes due while the order sits in failed_payment
	stored, err := s.params.OrderRepo.Get(s.GetContext(), o.ID)
	s.NoError(err)
	stored.Schedule[1].DueDate = time.Now().UTC().AddDate(0, 0, -1)
	s.Require().NoError(s.params.OrderRepo.Update(s.GetContext(), stored))

	resp, err := s.service.ProcessDueInstallments(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.TotalSuccess)

	stored, err = s.params.OrderRepo.Get(s.GetContext(), o.ID)
	s.NoError(err)
	s.Equal(types.InstallmentStatePaid, stored.Schedule[1].State)
}
