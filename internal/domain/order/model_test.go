package order

import (
	"testing"
	"time"

	ierr "github.com/coursebill/coursebill/internal/errors"
	"github.com/coursebill/coursebill/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() *Order {
	due := func(day int) time.Time {
		return time.Date(2024, 2, day, 0, 0, 0, 0, time.UTC)
	}
	return &Order{
		ID:          "ord_test",
		OrderNumber: "ORD-000001",
		OrderType:   types.OrderTypeSingle,
		State:       types.OrderStatePending,
		OwnerID:     "user_1",
		CourseID:    "course_1",
		Total:       decimal.NewFromInt(100),
		Currency:    "EUR",
		Schedule: []*Installment{
			{ID: "inst_1", Amount: decimal.NewFromInt(30), DueDate: due(1), State: types.InstallmentStatePending},
			{ID: "inst_2", Amount: decimal.NewFromInt(70), DueDate: due(15), State: types.InstallmentStatePending},
		},
	}
}

func TestInstallmentsDueOnOrBefore(t *testing.T) {
	o := testOrder()

	due := o.InstallmentsDueOnOrBefore(time.Date(2024, 2, 1, 23, 59, 0, 0, time.UTC))
	require.Len(t, due, 1)
	assert.Equal(t, "inst_1", due[0].ID)

	due = o.InstallmentsDueOnOrBefore(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.Len(t, due, 2)

	// Paid installments are never due again
	require.NoError(t, o.MarkInstallmentPaid("inst_1"))
	due = o.InstallmentsDueOnOrBefore(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, due, 1)
	assert.Equal(t, "inst_2", due[0].ID)
}

func TestMarkInstallmentGuards(t *testing.T) {
	o := testOrder()

	require.NoError(t, o.MarkInstallmentPaid("inst_1"))

	// A terminal installment rejects further mutation with a reported error
	err := o.MarkInstallmentRefused("inst_1")
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))

	err = o.MarkInstallmentPaid("inst_1")
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))

	// Unknown installment ids are reported, not ignored
	err = o.MarkInstallmentPaid("inst_missing")
	require.Error(t, err)
	assert.True(t, ierr.IsNotFound(err))
}

func TestRetryRefusedInstallments(t *testing.T) {
	o := testOrder()

	require.NoError(t, o.MarkInstallmentRefused("inst_1"))
	assert.True(t, o.HasAnyRefused())

	count := o.RetryRefusedInstallments()
	assert.Equal(t, 1, count)
	assert.False(t, o.HasAnyRefused())

	installment, err := o.FindInstallment("inst_1")
	require.NoError(t, err)
	assert.Equal(t, types.InstallmentStatePending, installment.State)
}

func TestIsFullyPaid(t *testing.T) {
	o := testOrder()
	assert.False(t, o.IsFullyPaid())

	require.NoError(t, o.MarkInstallmentPaid("inst_1"))
	assert.False(t, o.IsFullyPaid())
	assert.True(t, o.HasAnyPaid())

	require.NoError(t, o.MarkInstallmentPaid("inst_2"))
	assert.True(t, o.IsFullyPaid())

	// An order without a ledger is never fully paid
	empty := testOrder()
	empty.Schedule = nil
	assert.False(t, empty.IsFullyPaid())
}

func TestCancelRemainingInstallments(t *testing.T) {
	o := testOrder()
	require.NoError(t, o.MarkInstallmentPaid("inst_1"))

	o.CancelRemainingInstallments()

	first, _ := o.FindInstallment("inst_1")
	assert.Equal(t, types.InstallmentStatePaid, first.State)
	second, _ := o.FindInstallment("inst_2")
	assert.Equal(t, types.InstallmentStateCanceled, second.State)
}

func TestOrderValidate(t *testing.T) {
	o := testOrder()
	require.NoError(t, o.Validate())

	// The schedule must sum to the total exactly
	o.Schedule[0].Amount = decimal.NewFromInt(31)
	err := o.Validate()
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	// Batch orders need a seat count
	b := testOrder()
	b.OrderType = types.OrderTypeBatch
	err = b.Validate()
	require.Error(t, err)
	b.NbSeats = 5
	b.CompanyName = "ACME"
	require.NoError(t, b.Validate())
}
