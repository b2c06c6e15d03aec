package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateDeposit registers a detected on-chain payment in the pending
// state. The exchange rate is frozen here and never re-fetched.
func (s *Service) CreateDeposit(ctx context.Context, deposit *models.CryptoDeposit) (*models.CryptoDeposit, error) {
	// Owner must exist before a deposit can reference them.
	if _, err := s.GetPortfolio(ctx, deposit.ProfileId); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx, queryInsertDeposit,
		deposit.Id, deposit.ProfileId, deposit.Currency, deposit.Network, deposit.Address,
		deposit.AmountCrypto.String(), deposit.ExchangeRate.String(), deposit.RequiredConfirmations)
	if err != nil {
		return nil, fmt.Errorf("failed to insert deposit: %w", err)
	}

	zap.L().Info("Crypto deposit detected",
		zap.String("deposit_id", deposit.Id),
		zap.String("profile_id", deposit.ProfileId),
		zap.String("currency", deposit.Currency),
		zap.String("network", deposit.Network),
		zap.String("amount_crypto", deposit.AmountCrypto.String()),
		zap.String("exchange_rate", deposit.ExchangeRate.String()),
		zap.Int("required_confirmations", deposit.RequiredConfirmations))

	return s.GetDepositById(ctx, deposit.Id)
}

func (s *Service) GetDepositById(ctx context.Context, depositId string) (*models.CryptoDeposit, error) {
	dep, err := scanDeposit(s.db.QueryRowContext(ctx, queryGetDepositById, depositId))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: deposit %s", store.ErrDepositNotFound, depositId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return dep, nil
}

func (s *Service) GetDepositsByStatus(ctx context.Context, status string) ([]models.CryptoDeposit, error) {
	return s.queryDeposits(ctx, queryGetDepositsByStatus, status)
}

func (s *Service) GetDepositsByProfile(ctx context.Context, profileId string) ([]models.CryptoDeposit, error) {
	return s.queryDeposits(ctx, queryGetDepositsByProfile, profileId)
}

// AdvanceDepositConfirmations moves the confirmation count forward and
// flips pending deposits to confirmed once the per-network threshold
// is met. Counts never move backwards; a stale or equal count is an
// idempotent no-op returning current state.
func (s *Service) AdvanceDepositConfirmations(ctx context.Context, depositId string, confirmations int) (*models.CryptoDeposit, error) {
	deposit, err := s.GetDepositById(ctx, depositId)
	if err != nil {
		return nil, err
	}
	if deposit.IsTerminal() {
		return nil, fmt.Errorf("%w: deposit %s is %s", store.ErrInvalidTransition, depositId, deposit.Status)
	}
	if confirmations <= deposit.Confirmations {
		return deposit, nil
	}

	newStatus := deposit.Status
	if confirmations >= deposit.RequiredConfirmations {
		newStatus = models.DepositStatusConfirmed
	}

	result, err := s.db.ExecContext(ctx, queryAdvanceConfirmations,
		confirmations, newStatus, depositId, confirmations)
	if err != nil {
		return nil, fmt.Errorf("failed to advance confirmations: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Raced with a terminal transition or a further-ahead count.
		return s.GetDepositById(ctx, depositId)
	}

	if newStatus != deposit.Status {
		zap.L().Info("Deposit reached confirmation threshold",
			zap.String("deposit_id", depositId),
			zap.Int("confirmations", confirmations),
			zap.Int("required_confirmations", deposit.RequiredConfirmations))
	}

	return s.GetDepositById(ctx, depositId)
}

// SettleDeposit credits a confirmed deposit to the owner's balance
// exactly once: the ledger entry, the status flip to completed, and
// the credited-transaction marker commit together. The deposit id is
// the external reference, so a replay can never record twice.
func (s *Service) SettleDeposit(ctx context.Context, deposit *models.CryptoDeposit) (*models.Transaction, error) {
	amountUsd := deposit.AmountCrypto.Mul(deposit.ExchangeRate).Round(2)

	var lastErr error
	for attempt := 0; attempt < maxCommitRetries; attempt++ {
		txn, err := s.settleDepositOnce(ctx, deposit, amountUsd)
		if err == nil {
			return txn, nil
		}
		lastErr = err
		if !errors.Is(err, ErrConcurrentModification) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (s *Service) settleDepositOnce(ctx context.Context, deposit *models.CryptoDeposit, amountUsd decimal.Decimal) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txn, err := s.applyTransaction(ctx, tx, RecordTransactionParams{
		ProfileId:   deposit.ProfileId,
		Type:        models.TxTypeDeposit,
		Amount:      amountUsd,
		ReferenceId: deposit.Id,
		ExternalRef: deposit.Id,
		Description: fmt.Sprintf("%s deposit via %s", deposit.Currency, deposit.Network),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateTransaction) {
			return nil, fmt.Errorf("%w: deposit %s already credited", store.ErrAlreadySettled, deposit.Id)
		}
		return nil, err
	}

	result, err := tx.ExecContext(ctx, querySettleDeposit, amountUsd.String(), txn.Id, deposit.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to mark deposit settled: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// The deposit left the confirmed state under us; the rollback
		// discards the ledger entry with it.
		return nil, fmt.Errorf("%w: deposit %s is no longer confirmed", store.ErrAlreadySettled, deposit.Id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit deposit settlement: %w", err)
	}

	zap.L().Info("Deposit settled",
		zap.String("deposit_id", deposit.Id),
		zap.String("profile_id", deposit.ProfileId),
		zap.String("amount_usd", amountUsd.String()),
		zap.String("transaction_id", txn.Id))

	return txn, nil
}

// FailDeposit moves a live deposit to the terminal failed state with a
// reason. No ledger entry is ever recorded for a failed deposit.
func (s *Service) FailDeposit(ctx context.Context, depositId, reason string) (*models.CryptoDeposit, error) {
	deposit, err := s.GetDepositById(ctx, depositId)
	if err != nil {
		return nil, err
	}
	if deposit.IsTerminal() {
		return nil, fmt.Errorf("%w: deposit %s is %s", store.ErrInvalidTransition, depositId, deposit.Status)
	}

	result, err := s.db.ExecContext(ctx, queryFailDeposit, reason, depositId)
	if err != nil {
		return nil, fmt.Errorf("failed to fail deposit: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: deposit %s reached a terminal state", store.ErrInvalidTransition, depositId)
	}

	zap.L().Info("Deposit failed",
		zap.String("deposit_id", depositId),
		zap.String("reason", reason))

	return s.GetDepositById(ctx, depositId)
}

func scanDeposit(row rowScanner) (*models.CryptoDeposit, error) {
	var dep models.CryptoDeposit
	var cryptoStr, usdStr, rateStr string
	err := row.Scan(&dep.Id, &dep.ProfileId, &dep.Currency, &dep.Network, &dep.Address,
		&cryptoStr, &usdStr, &rateStr, &dep.Confirmations, &dep.RequiredConfirmations,
		&dep.Status, &dep.FailureReason, &dep.CreditedTransactionId, &dep.CreatedAt, &dep.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if dep.AmountCrypto, err = decimal.NewFromString(cryptoStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount_crypto '%s': %w", cryptoStr, err)
	}
	if dep.AmountUsd, err = decimal.NewFromString(usdStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount_usd '%s': %w", usdStr, err)
	}
	if dep.ExchangeRate, err = decimal.NewFromString(rateStr); err != nil {
		return nil, fmt.Errorf("failed to parse exchange_rate '%s': %w", rateStr, err)
	}
	return &dep, nil
}

func (s *Service) queryDeposits(ctx context.Context, query string, args ...any) ([]models.CryptoDeposit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deposits: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var deposits []models.CryptoDeposit
	for rows.Next() {
		dep, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, *dep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deposit rows: %w", err)
	}
	return deposits, nil
}
