package service

import (
	"time"

	"github.com/coursebill/coursebill/internal/domain/order"
	ierr "github.com/coursebill/coursebill/internal/errors"
	"github.com/coursebill/coursebill/internal/types"
	"github.com/shopspring/decimal"
)

// PaymentScheduleService turns an order total and its contract/course dates
// into an installment ledger, and computes the first lawful billing date.
type PaymentScheduleService interface {
	// WithdrawalDate returns the date on which the buyer may first lawfully
	// be charged, given the contract signature date and the course start.
	WithdrawalDate(signedAt, courseStart time.Time) time.Time

	// BuildSchedule builds the ordered installment ledger for the given
	// total. Every installment gets a fresh id and starts pending; the last
	// installment absorbs the rounding remainder so the ledger sums to the
	// total exactly.
	BuildSchedule(total decimal.Decimal, signedAt, courseStart, courseEnd time.Time) ([]*order.Installment, error)
}

type paymentScheduleService struct {
	ServiceParams
}

// NewPaymentScheduleService creates a new payment schedule service
func NewPaymentScheduleService(params ServiceParams) PaymentScheduleService {
	return &paymentScheduleService{
		ServiceParams: params,
	}
}

// WithdrawalDate applies the configured withdrawal period to the signature
// date. When the candidate falls on a non-working day it is pushed to the
// next working day and returned as is, without the course-start comparison
// applied on the working-day branch. Billing and legal have signed off on
// dates produced by exactly this rule, so the branches stay asymmetric.
func (s *paymentScheduleService) WithdrawalDate(signedAt, courseStart time.Time) time.Time {
	candidate := signedAt.AddDate(0, 0, s.Config.Payment.WithdrawalPeriodDays)

	if !s.Calendar.IsWorkingDay(candidate) {
		return s.Calendar.NextWorkingDayOnOrAfter(candidate)
	}

	if candidate.Before(courseStart) {
		return candidate
	}
	return signedAt
}

func (s *paymentScheduleService) BuildSchedule(total decimal.Decimal, signedAt, courseStart, courseEnd time.Time) ([]*order.Installment, error) {
	if !total.IsPositive() {
		return nil, ierr.NewError("invalid schedule total").
			WithHint("A payment schedule requires a positive total").
			Mark(ierr.ErrValidation)
	}

	percentages := s.selectTier(total)
	withdrawalDate := s.WithdrawalDate(signedAt, courseStart)
	dueDates := buildDueDates(len(percentages), withdrawalDate, courseStart, courseEnd)

	installments := make([]*order.Installment, len(percentages))
	remainder := total
	hundred := decimal.NewFromInt(100)

	for i, percentage := range percentages {
		var amount decimal.Decimal
		if i == len(percentages)-1 {
			// the last installment absorbs all rounding remainder so the
			// schedule sums to the total exactly
			amount = remainder
		} else {
			amount = total.Mul(decimal.NewFromInt(int64(percentage))).Div(hundred).Round(2)
			remainder = remainder.Sub(amount)
		}

		installments[i] = &order.Installment{
			ID:      types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INSTALLMENT),
			Amount:  amount,
			DueDate: dueDates[i],
			State:   types.InstallmentStatePending,
		}
	}

	return installments, nil
}

// selectTier returns the percentage tuple of the first tier whose threshold
// covers the total. Totals above every threshold use the largest tier.
func (s *paymentScheduleService) selectTier(total decimal.Decimal) []int {
	tiers := s.Config.Payment.ScheduleTiers
	for _, tier := range tiers {
		if total.LessThanOrEqual(tier.ThresholdAmount()) {
			return tier.Parts
		}
	}
	return tiers[len(tiers)-1].Parts
}

// buildDueDates produces the due date sequence: the withdrawal date, the
// course start, then one calendar month steps from the course start capped
// at the course end. Slots past the cap keep the course end date so the
// installment count always matches the tier tuple.
func buildDueDates(n int, withdrawalDate, courseStart, courseEnd time.Time) []time.Time {
	if n == 1 {
		return []time.Time{withdrawalDate}
	}

	dueDates := make([]time.Time, 0, n)
	dueDates = append(dueDates, withdrawalDate, courseStart)

	for i := 1; i <= n-2; i++ {
		due := types.AddMonthsClamped(courseStart, i)
		if due.After(courseEnd) {
			due = courseEnd
		}
		dueDates = append(dueDates, due)
	}

	return dueDates
}
