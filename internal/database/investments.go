package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OpenInvestment creates the investment row and debits the principal
// from the spendable balance as a single atomic unit. The balance
// check lives inside applyTransaction, so a concurrent debit cannot
// slip past a stale pre-check.
func (s *Service) OpenInvestment(ctx context.Context, investment *models.Investment) (*models.Investment, error) {
	var lastErr error
	for attempt := 0; attempt < maxCommitRetries; attempt++ {
		inv, err := s.openInvestmentOnce(ctx, investment)
		if err == nil {
			return inv, nil
		}
		lastErr = err
		if !errors.Is(err, ErrConcurrentModification) {
			return nil, err
		}
		zap.L().Warn("Portfolio version conflict opening investment, retrying",
			zap.String("profile_id", investment.ProfileId),
			zap.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

func (s *Service) openInvestmentOnce(ctx context.Context, investment *models.Investment) (*models.Investment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, queryInsertInvestment,
		investment.Id, investment.ProfileId, investment.PlanId, investment.PlanName,
		investment.ApyRate.String(), investment.DurationDays, investment.Amount.String(),
		investment.StartDate, investment.EndDate, models.InvestmentStatusActive, "0")
	if err != nil {
		return nil, fmt.Errorf("failed to insert investment: %w", err)
	}

	_, err = s.applyTransaction(ctx, tx, RecordTransactionParams{
		ProfileId:   investment.ProfileId,
		Type:        models.TxTypeInvestment,
		Amount:      investment.Amount.Neg(),
		ReferenceId: investment.Id,
		Description: fmt.Sprintf("Investment in %s", investment.PlanName),
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit investment: %w", err)
	}

	zap.L().Info("Investment opened",
		zap.String("investment_id", investment.Id),
		zap.String("profile_id", investment.ProfileId),
		zap.String("plan_id", investment.PlanId),
		zap.String("amount", investment.Amount.String()),
		zap.Time("end_date", investment.EndDate))

	return s.GetInvestmentById(ctx, investment.Id)
}

// SettleInvestment transitions an active investment to a terminal
// status and applies the given ledger entries atomically. The status
// predicate on the UPDATE makes concurrent settlement attempts
// collapse to one winner; losers observe zero rows affected and
// return the already-terminal row unchanged.
func (s *Service) SettleInvestment(ctx context.Context, investmentId, terminalStatus string, profit decimal.Decimal, entries []RecordTransactionParams) (*models.Investment, error) {
	var lastErr error
	for attempt := 0; attempt < maxCommitRetries; attempt++ {
		inv, err := s.settleInvestmentOnce(ctx, investmentId, terminalStatus, profit, entries)
		if err == nil {
			return inv, nil
		}
		lastErr = err
		if !errors.Is(err, ErrConcurrentModification) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (s *Service) settleInvestmentOnce(ctx context.Context, investmentId, terminalStatus string, profit decimal.Decimal, entries []RecordTransactionParams) (*models.Investment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, querySettleInvestment, terminalStatus, profit.String(), investmentId)
	if err != nil {
		return nil, fmt.Errorf("failed to settle investment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Already terminal: idempotent no-op, report current state.
		return s.GetInvestmentById(ctx, investmentId)
	}

	for _, entry := range entries {
		if _, err := s.applyTransaction(ctx, tx, entry); err != nil {
			if errors.Is(err, ErrDuplicateTransaction) {
				// A previous settlement attempt recorded this entry
				// before its status write was observed. Nothing to redo.
				continue
			}
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	zap.L().Info("Investment settled",
		zap.String("investment_id", investmentId),
		zap.String("status", terminalStatus),
		zap.String("profit_earned", profit.String()))

	return s.GetInvestmentById(ctx, investmentId)
}

func (s *Service) GetInvestmentById(ctx context.Context, investmentId string) (*models.Investment, error) {
	inv, err := scanInvestment(s.db.QueryRowContext(ctx, queryGetInvestmentById, investmentId))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: investment %s", store.ErrInvestmentNotFound, investmentId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	return inv, nil
}

func (s *Service) GetInvestmentsByProfile(ctx context.Context, profileId string) ([]models.Investment, error) {
	return s.queryInvestments(ctx, queryGetInvestmentsByProfile, profileId)
}

func (s *Service) GetActiveInvestments(ctx context.Context, profileId string) ([]models.Investment, error) {
	return s.queryInvestments(ctx, queryGetActiveInvestments, profileId)
}

func (s *Service) queryInvestments(ctx context.Context, query string, args ...any) ([]models.Investment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query investments: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var investments []models.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investment rows: %w", err)
	}
	return investments, nil
}

// ListMaturedInvestmentIds returns ids of active investments whose end
// date has passed, oldest first. Used by the maturity sweep.
func (s *Service) ListMaturedInvestmentIds(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, queryGetMaturedInvestmentIds, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query matured investments: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan investment id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matured investment rows: %w", err)
	}
	return ids, nil
}

func scanInvestment(row rowScanner) (*models.Investment, error) {
	var inv models.Investment
	var rateStr, amountStr, profitStr string
	err := row.Scan(&inv.Id, &inv.ProfileId, &inv.PlanId, &inv.PlanName, &rateStr,
		&inv.DurationDays, &amountStr, &inv.StartDate, &inv.EndDate, &inv.Status,
		&profitStr, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if inv.ApyRate, err = decimal.NewFromString(rateStr); err != nil {
		return nil, fmt.Errorf("failed to parse apy_rate '%s': %w", rateStr, err)
	}
	if inv.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	if inv.ProfitEarned, err = decimal.NewFromString(profitStr); err != nil {
		return nil, fmt.Errorf("failed to parse profit_earned '%s': %w", profitStr, err)
	}
	return &inv, nil
}
