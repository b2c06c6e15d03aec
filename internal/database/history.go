package database

import (
	"context"
	"database/sql"
	"fmt"

	"invest-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetTransactionHistory returns paginated ledger entries for a
// profile, newest first.
func (s *Service) GetTransactionHistory(ctx context.Context, profileId string, limit, offset int) ([]models.Transaction, error) {
	zap.L().Debug("Getting transaction history",
		zap.String("profile_id", profileId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, queryGetTransactionHistory, profileId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var transactions []models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}

func (s *Service) GetTransactionById(ctx context.Context, transactionId string) (*models.Transaction, error) {
	txn, err := scanTransaction(s.db.QueryRowContext(ctx, queryGetTransactionById, transactionId))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s not found", transactionId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// SumCompletedTransactions re-derives the balance from the ledger:
// the signed sum of all completed entries for the profile.
func (s *Service) SumCompletedTransactions(ctx context.Context, profileId string) (decimal.Decimal, error) {
	return s.sumAmounts(ctx, queryCompletedTransactionAmounts, profileId)
}

// SumProfitTransactions re-derives realized profit from the ledger.
func (s *Service) SumProfitTransactions(ctx context.Context, profileId string) (decimal.Decimal, error) {
	return s.sumAmounts(ctx, queryProfitTransactionAmounts, profileId)
}

// SumActivePrincipal re-derives locked principal from the investment
// records.
func (s *Service) SumActivePrincipal(ctx context.Context, profileId string) (decimal.Decimal, error) {
	return s.sumAmounts(ctx, queryActivePrincipalAmounts, profileId)
}

func (s *Service) sumAmounts(ctx context.Context, query, profileId string) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, query, profileId)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query amounts: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	total := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating amount rows: %w", err)
	}
	return total, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var txn models.Transaction
	var amountStr, beforeStr, afterStr string
	err := row.Scan(&txn.Id, &txn.ProfileId, &txn.Type, &amountStr, &beforeStr, &afterStr,
		&txn.ReferenceId, &txn.ExternalRef, &txn.Description, &txn.Status,
		&txn.CreatedAt, &txn.ProcessedAt)
	if err != nil {
		return nil, err
	}

	if txn.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	if txn.BalanceBefore, err = decimal.NewFromString(beforeStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance_before '%s': %w", beforeStr, err)
	}
	if txn.BalanceAfter, err = decimal.NewFromString(afterStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance_after '%s': %w", afterStr, err)
	}
	return &txn, nil
}
