package request

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation is returned when a request's monetary figures do
// not reconcile. It is non-retryable: the same figures will never pass.
var ErrInvariantViolation = errors.New("invariant violation")

// ValidateAmounts checks the monetary invariants for the request type.
// Cash advance: amount must be positive. Liquidation: the figures must
// satisfy totalExpenses = cashAdvanceAmount - returnToCompany + reimbursement.
// Amounts are cents, so the identity is exact.
func ValidateAmounts(t Type, a Amounts) error {
	switch t {
	case TypeCashAdvance:
		if a.Amount <= 0 {
			return fmt.Errorf("%w: cash advance amount must be positive, got %d", ErrInvariantViolation, a.Amount)
		}
	case TypeLiquidation:
		if a.CashAdvanceAmount <= 0 {
			return fmt.Errorf("%w: liquidation cash advance amount must be positive, got %d", ErrInvariantViolation, a.CashAdvanceAmount)
		}
		if a.ReturnToCompany < 0 || a.Reimbursement < 0 || a.TotalExpenses < 0 {
			return fmt.Errorf("%w: liquidation figures must not be negative", ErrInvariantViolation)
		}
		expected := a.CashAdvanceAmount - a.ReturnToCompany + a.Reimbursement
		if a.TotalExpenses != expected {
			return fmt.Errorf("%w: total expenses %d does not reconcile, expected %d", ErrInvariantViolation, a.TotalExpenses, expected)
		}
	default:
		return fmt.Errorf("%w: unknown request type %q", ErrInvariantViolation, t)
	}
	return nil
}
