package store

import (
	"testing"
)

// Compile-time checks that the interface is importable and usable.
func TestMaturityLedgerInterfaceExists(t *testing.T) {
	// This test simply validates that the MaturityLedger interface
	// compiles and the sentinel errors are accessible.
	_ = ErrDuplicateTransaction
	_ = ErrConcurrentModification
	_ = ErrOwnerNotFound
	_ = ErrInsufficientFunds

	// Ensure the interface is non-nil type.
	var _ MaturityLedger
}
