package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Sentinel errors surfaced by the recorder.
var (
	ErrInvalidAmount          = store.ErrInvalidAmount
	ErrOwnerNotFound          = store.ErrOwnerNotFound
	ErrInsufficientFunds      = store.ErrInsufficientFunds
	ErrDuplicateTransaction   = store.ErrDuplicateTransaction
	ErrConcurrentModification = store.ErrConcurrentModification
)

// maxCommitRetries bounds the internal retry loop on optimistic-lock
// conflicts before the transient failure is surfaced to the caller.
const maxCommitRetries = 3

// RecordTransactionParams contains the parameters for recording a ledger entry
type RecordTransactionParams struct {
	ProfileId   string
	Type        string
	Amount      decimal.Decimal
	ReferenceId string
	ExternalRef string
	Description string
}

// validateSign rejects amounts whose sign does not match the
// transaction type. Investment entries are transfers and may carry
// either sign (negative at open, positive on principal return).
func validateSign(txType string, amount decimal.Decimal) error {
	if amount.IsZero() {
		return fmt.Errorf("%w: amount must be nonzero", ErrInvalidAmount)
	}
	switch txType {
	case models.TxTypeDeposit, models.TxTypeProfit, models.TxTypeAdminCredit:
		if amount.IsNegative() {
			return fmt.Errorf("%w: %s amount must be positive", ErrInvalidAmount, txType)
		}
	case models.TxTypeWithdrawal, models.TxTypeAdminDebit:
		if amount.IsPositive() {
			return fmt.Errorf("%w: %s amount must be negative", ErrInvalidAmount, txType)
		}
	case models.TxTypeInvestment:
		// either sign
	default:
		return fmt.Errorf("%w: unknown transaction type %q", ErrInvalidAmount, txType)
	}
	return nil
}

// RecordTransaction appends an immutable ledger entry and atomically
// updates the owner's portfolio aggregates. Ledger insert and
// portfolio mutation succeed or fail together. Conflicting writers on
// the same portfolio are retried a bounded number of times.
func (s *Service) RecordTransaction(ctx context.Context, params RecordTransactionParams) (*models.Transaction, error) {
	if err := validateSign(params.Type, params.Amount); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxCommitRetries; attempt++ {
		txn, err := s.recordOnce(ctx, params)
		if err == nil {
			return txn, nil
		}
		lastErr = err
		if !errors.Is(err, ErrConcurrentModification) {
			return nil, err
		}
		zap.L().Warn("Portfolio version conflict, retrying",
			zap.String("profile_id", params.ProfileId),
			zap.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

func (s *Service) recordOnce(ctx context.Context, params RecordTransactionParams) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txn, err := s.applyTransaction(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return txn, nil
}

// applyTransaction is the only code path that mutates portfolio
// numeric fields. It runs inside the caller's database transaction so
// lifecycle operations can bundle entity writes with the ledger entry
// in one atomic unit.
func (s *Service) applyTransaction(ctx context.Context, tx *sql.Tx, params RecordTransactionParams) (*models.Transaction, error) {
	zap.L().Info("Recording ledger entry",
		zap.String("profile_id", params.ProfileId),
		zap.String("type", params.Type),
		zap.String("amount", params.Amount.String()),
		zap.String("external_ref", params.ExternalRef))

	// Exactly-once guard: an external reference may appear in the
	// ledger only once.
	if params.ExternalRef != "" {
		var existingTxId string
		err := tx.QueryRowContext(ctx, queryCheckDuplicateExternalRef, params.ExternalRef).Scan(&existingTxId)
		if err == nil {
			zap.L().Warn("Duplicate external reference detected, skipping",
				zap.String("external_ref", params.ExternalRef),
				zap.String("existing_transaction_id", existingTxId))
			return nil, fmt.Errorf("%w: external_ref %s already recorded", ErrDuplicateTransaction, params.ExternalRef)
		} else if err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to check for duplicate reference: %w", err)
		}
	}

	portfolio, err := scanPortfolioRow(tx.QueryRowContext(ctx, queryGetPortfolio, params.ProfileId))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no portfolio for profile %s", ErrOwnerNotFound, params.ProfileId)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}

	newBalance := portfolio.Balance.Add(params.Amount)
	// Debit check and mutation share this transaction, so two
	// concurrent debits cannot both pass.
	if newBalance.IsNegative() {
		return nil, fmt.Errorf("%w: balance %s, requested %s",
			ErrInsufficientFunds, portfolio.Balance.String(), params.Amount.String())
	}

	newInvested := portfolio.TotalInvested
	newProfit := portfolio.TotalProfit
	switch params.Type {
	case models.TxTypeInvestment:
		// total_invested tracks currently locked principal: opening
		// (negative amount) adds it, principal return removes it.
		newInvested = newInvested.Sub(params.Amount)
	case models.TxTypeProfit:
		newProfit = newProfit.Add(params.Amount)
	}

	transactionId := uuid.New().String()
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, queryInsertTransaction,
		transactionId, params.ProfileId, params.Type,
		params.Amount.String(), portfolio.Balance.String(), newBalance.String(),
		params.ReferenceId, params.ExternalRef, params.Description, "completed", now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	result, err := tx.ExecContext(ctx, queryUpdatePortfolio,
		newBalance.String(), newInvested.String(), newProfit.String(),
		transactionId, params.ProfileId, portfolio.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update portfolio: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("portfolio update failed - %w", ErrConcurrentModification)
	}

	zap.L().Info("Ledger entry recorded",
		zap.String("transaction_id", transactionId),
		zap.String("profile_id", params.ProfileId),
		zap.String("old_balance", portfolio.Balance.String()),
		zap.String("new_balance", newBalance.String()))

	return &models.Transaction{
		Id:            transactionId,
		ProfileId:     params.ProfileId,
		Type:          params.Type,
		Amount:        params.Amount,
		BalanceBefore: portfolio.Balance,
		BalanceAfter:  newBalance,
		ReferenceId:   params.ReferenceId,
		ExternalRef:   params.ExternalRef,
		Description:   params.Description,
		Status:        "completed",
		CreatedAt:     now,
		ProcessedAt:   now,
	}, nil
}
