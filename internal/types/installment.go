package types

import (
	"fmt"

	"github.com/samber/lo"
)

// InstallmentState represents the state of a single installment of a payment schedule
type InstallmentState string

const (
	InstallmentStatePending  InstallmentState = "pending"
	InstallmentStatePaid     InstallmentState = "paid"
	InstallmentStateRefused  InstallmentState = "refused"
	InstallmentStateCanceled InstallmentState = "canceled"
)

func (s InstallmentState) String() string {
	return string(s)
}

func (s InstallmentState) Validate() error {
	allowed := []InstallmentState{
		InstallmentStatePending,
		InstallmentStatePaid,
		InstallmentStateRefused,
		InstallmentStateCanceled,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid installment state: %s", s)
	}
	return nil
}

// IsTerminal returns true when the installment may never transition again.
// A refused installment is not terminal: an explicit retry re-enters pending.
func (s InstallmentState) IsTerminal() bool {
	return s == InstallmentStatePaid || s == InstallmentStateCanceled
}
