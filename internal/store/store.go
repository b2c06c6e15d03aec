package store

import (
	"context"
	"errors"

	"invest-ledger-go/internal/models"
)

// Sentinel errors shared across the ledger core. Callers branch with
// errors.Is; nothing in the core fails silently.
var (
	// Validation errors: rejected before any state change.
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrAmountOutOfRange = errors.New("amount out of plan range")
	ErrPlanInactive     = errors.New("plan is not active")
	ErrInvalidPlan      = errors.New("invalid plan definition")

	// Consistency errors: rejected at the atomic-commit boundary.
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrDuplicateTransaction   = errors.New("duplicate transaction")

	// Not-found errors: distinct kinds so callers can tell "retry"
	// from "does not exist".
	ErrOwnerNotFound      = errors.New("owner not found")
	ErrPlanNotFound       = errors.New("plan not found")
	ErrInvestmentNotFound = errors.New("investment not found")
	ErrDepositNotFound    = errors.New("deposit not found")
	ErrProfileExists      = errors.New("profile already exists")

	// Pipeline errors.
	ErrNotConfirmed      = errors.New("deposit not confirmed")
	ErrAlreadySettled    = errors.New("deposit already settled")
	ErrInvalidTransition = errors.New("invalid deposit transition")
)

// MaturityLedger is the contract the maturity sweeper needs: enumerate
// due investments and settle them. Satisfied by the investment
// lifecycle service.
type MaturityLedger interface {
	ListMaturedInvestmentIds(ctx context.Context, limit int) ([]string, error)
	Mature(ctx context.Context, investmentId string) (*models.Investment, error)
}
