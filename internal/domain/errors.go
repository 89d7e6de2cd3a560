package domain

import "errors"

// Error taxonomy for the purchase workflow. Handlers map these to HTTP
// statuses with errors.Is; the workflow wraps them with context via fmt.Errorf.
var (
	ErrForbidden          = errors.New("forbidden")           // Role-based authorization failure
	ErrNotFound           = errors.New("not found")           // Referenced entity absent
	ErrInsufficientFunds  = errors.New("insufficient funds")  // Buyer balance below item price
	ErrInvariantViolation = errors.New("invariant violation") // Internal data inconsistency
	ErrConflict           = errors.New("conflict")            // Storage conflict after retries exhausted
)
