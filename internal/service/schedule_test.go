package service

import (
	"testing"
	"time"

	ierr "github.com/coursebill/coursebill/internal/errors"
	"github.com/coursebill/coursebill/internal/testutil"
	"github.com/coursebill/coursebill/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PaymentScheduleServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PaymentScheduleService
}

func TestPaymentScheduleService(t *testing.T) {
	suite.Run(t, new(PaymentScheduleServiceSuite))
}

func (s *PaymentScheduleServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewPaymentScheduleService(ServiceParams{
		Logger:    s.GetLogger(),
		Config:    s.GetConfig(),
		Calendar:  s.GetCalendar(),
		OrderRepo: s.GetStores().OrderRepo,
		Gateway:   s.GetGateway(),
		Notifier:  s.GetNotifier(),
		Publisher: s.GetPublisher(),
	})
}

func (s *PaymentScheduleServiceSuite) TestWithdrawalDateBeforeCourseStart() {
	// 2024-01-01 + 16 days = 2024-01-17, a regular Wednesday
	signedAt := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	courseStart := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	got := s.service.WithdrawalDate(signedAt, courseStart)
	s.Equal(time.Date(2024, 1, 17, 10, 30, 0, 0, time.UTC), got)
}

func (s *PaymentScheduleServiceSuite) TestWithdrawalDateFallsBackToSignature() {
	// candidate 2024-03-20 is a working day but the course already started
	signedAt := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	courseStart := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	got := s.service.WithdrawalDate(signedAt, courseStart)
	s.Equal(signedAt, got)
}

func (s *PaymentScheduleServiceSuite) TestWithdrawalDateOnNonWorkingDay() {
	// candidate 2024-01-20 is a Saturday; the shifted date is returned even
	// though the course already started, unlike the working-day branch
	signedAt := time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC)
	courseStart := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	got := s.service.WithdrawalDate(signedAt, courseStart)
	s.Equal(time.Date(2024, 1, 22, 9, 0, 0, 0, time.UTC), got)
}

func (s *PaymentScheduleServiceSuite) TestBuildScheduleFourInstallments() {
	total := decimal.RequireFromString("1000.00")
	signedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	courseStart := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	courseEnd := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)

	schedule, err := s.service.BuildSchedule(total, signedAt, courseStart, courseEnd)
	s.NoError(err)
	s.Len(schedule, 4)

	amounts := []string{"200", "300", "300", "200"}
	for i, installment := range schedule {
		s.True(installment.Amount.Equal(decimal.RequireFromString(amounts[i])),
			"installment %d: got %s want %s", i, installment.Amount, amounts[i])
		s.Equal(types.InstallmentStatePending, installment.State)
		s.NotEmpty(installment.ID)
	}

	s.Equal(time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), schedule[0].DueDate)
	s.Equal(courseStart, schedule[1].DueDate)
	s.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), schedule[2].DueDate)
	s.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), schedule[3].DueDate)

	// distinct installment ids
	s.NotEqual(schedule[0].ID, schedule[1].ID)
}

func (s *PaymentScheduleServiceSuite) TestBuildScheduleTierSelection() {
	signedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	courseStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	courseEnd := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		total string
		parts int
	}{
		{"100.00", 2},
		{"150.00", 2},
		{"150.01", 3},
		{"500.00", 3},
		{"1000.00", 4},
		{"5000.00", 4},
	}

	for _, tc := range testCases {
		schedule, err := s.service.BuildSchedule(decimal.RequireFromString(tc.total), signedAt, courseStart, courseEnd)
		s.NoError(err)
		s.Len(schedule, tc.parts, "total %s", tc.total)
	}
}

func (s *PaymentScheduleServiceSuite) TestBuildScheduleSumsToTotalExactly() {
	signedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	courseStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	courseEnd := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	for _, total := range []string{"999.99", "100.01", "333.33", "149.99", "1234.56"} {
		schedule, err := s.service.BuildSchedule(decimal.RequireFromString(total), signedAt, courseStart, courseEnd)
		s.NoError(err)

		sum := decimal.Zero
		for _, installment := range schedule {
			sum = sum.Add(installment.Amount)
		}
		s.True(sum.Equal(decimal.RequireFromString(total)), "total %s: schedule sums to %s", total, sum)
	}
}

func (s *PaymentScheduleServiceSuite) TestBuildScheduleLastInstallmentAbsorbsRemainder() {
	schedule, err := s.service.BuildSchedule(
		decimal.RequireFromString("999.99"),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
	)
	s.NoError(err)
	s.Len(schedule, 4)

	s.True(schedule[0].Amount.Equal(decimal.RequireFromString("200.00")))
	s.True(schedule[1].Amount.Equal(decimal.RequireFromString("300.00")))
	s.True(schedule[2].Amount.Equal(decimal.RequireFromString("300.00")))
	s.True(schedule[3].Amount.Equal(decimal.RequireFromString("199.99")))
}

func (s *PaymentScheduleServiceSuite) TestBuildScheduleDueDatesNeverDecrease() {
	schedule, err := s.service.BuildSchedule(
		decimal.RequireFromString("1000.00"),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	)
	s.NoError(err)

	for i := 1; i < len(schedule); i++ {
		s.False(schedule[i].DueDate.Before(schedule[i-1].DueDate))
	}
}

func (s *PaymentScheduleServiceSuite) TestBuildScheduleCapsAtCourseEnd() {
	// monthly steps from course start overrun a two week course; the
	// remaining slots all land on the course end
	schedule, err := s.service.BuildSchedule(
		decimal.RequireFromString("1000.00"),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	)
	s.NoError(err)
	s.Len(schedule, 4)

	courseEnd := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	s.Equal(courseEnd, schedule[2].DueDate)
	s.Equal(courseEnd, schedule[3].DueDate)
}

func (s *PaymentScheduleServiceSuite) TestBuildScheduleClampsMonthEnds() {
	// one month after January 31 lands on the last day of February
	schedule, err := s.service.BuildSchedule(
		decimal.RequireFromString("1000.00"),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	)
	s.NoError(err)
	s.Len(schedule, 4)

	s.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), schedule[2].DueDate)
	s.Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), schedule[3].DueDate)
}

func (s *PaymentScheduleServiceSuite) TestBuildScheduleRejectsNonPositiveTotal() {
	signedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	courseStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	courseEnd := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.service.BuildSchedule(decimal.Zero, signedAt, courseStart, courseEnd)
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.service.BuildSchedule(decimal.RequireFromString("-10"), signedAt, courseStart, courseEnd)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}
