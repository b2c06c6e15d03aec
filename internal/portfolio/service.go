package portfolio

import (
	"context"
	"fmt"
	"time"

	"invest-ledger-go/internal/database"
	"invest-ledger-go/internal/invest"
	"invest-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service is the read side: every figure it returns is re-derived
// from transaction and investment records. The cached portfolio row
// is an optimization, never a source of truth; Reconcile verifies the
// two agree.
type Service struct {
	db *database.Service
}

func NewService(db *database.Service) *Service {
	return &Service{db: db}
}

// Summarize aggregates one profile's ledger into reportable totals
// plus per-position progress.
func (s *Service) Summarize(ctx context.Context, profileId string) (*models.PortfolioSummary, error) {
	// Existence check first so an unknown owner is a distinct error,
	// not an empty summary.
	if _, err := s.db.GetPortfolio(ctx, profileId); err != nil {
		return nil, err
	}

	balance, err := s.db.SumCompletedTransactions(ctx, profileId)
	if err != nil {
		return nil, fmt.Errorf("failed to derive balance: %w", err)
	}
	totalProfit, err := s.db.SumProfitTransactions(ctx, profileId)
	if err != nil {
		return nil, fmt.Errorf("failed to derive profit: %w", err)
	}
	active, err := s.db.GetActiveInvestments(ctx, profileId)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	totalInvested := decimal.Zero
	positions := make([]models.InvestmentProgress, 0, len(active))
	for _, inv := range active {
		totalInvested = totalInvested.Add(inv.Amount)
		positions = append(positions, models.InvestmentProgress{
			Investment:     inv,
			ExpectedProfit: invest.ExpectedProfit(inv.Amount, inv.ApyRate, inv.DurationDays),
			DaysRemaining:  daysRemaining(inv.EndDate, now),
			Progress:       progressFraction(inv.EndDate, inv.DurationDays, now),
		})
	}

	return &models.PortfolioSummary{
		ProfileId:         profileId,
		Balance:           balance,
		TotalInvested:     totalInvested,
		TotalProfit:       totalProfit,
		ActiveInvestments: positions,
	}, nil
}

// daysRemaining is max(0, ceil((end - now) / 86400s)). Display only.
func daysRemaining(endDate, now time.Time) int {
	remaining := endDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// progressFraction is clamp(1 - days_remaining/duration_days, 0, 1).
func progressFraction(endDate time.Time, durationDays int, now time.Time) decimal.Decimal {
	if durationDays <= 0 {
		return decimal.NewFromInt(1)
	}
	remaining := decimal.NewFromInt(int64(daysRemaining(endDate, now)))
	duration := decimal.NewFromInt(int64(durationDays))
	progress := decimal.NewFromInt(1).Sub(remaining.Div(duration)).Round(4)

	one := decimal.NewFromInt(1)
	if progress.IsNegative() {
		return decimal.Zero
	}
	if progress.GreaterThan(one) {
		return one
	}
	return progress
}

// Reconcile compares the cached portfolio row against the fresh
// ledger aggregation. On divergence the aggregation wins; the cached
// row is reported for repair.
func (s *Service) Reconcile(ctx context.Context, profileId string) (*models.ReconcileResult, error) {
	cached, err := s.db.GetPortfolio(ctx, profileId)
	if err != nil {
		return nil, err
	}

	ledgerBalance, err := s.db.SumCompletedTransactions(ctx, profileId)
	if err != nil {
		return nil, fmt.Errorf("failed to derive balance: %w", err)
	}
	ledgerProfit, err := s.db.SumProfitTransactions(ctx, profileId)
	if err != nil {
		return nil, fmt.Errorf("failed to derive profit: %w", err)
	}
	derivedInvested, err := s.db.SumActivePrincipal(ctx, profileId)
	if err != nil {
		return nil, fmt.Errorf("failed to derive invested principal: %w", err)
	}

	result := &models.ReconcileResult{
		ProfileId:       profileId,
		CachedBalance:   cached.Balance,
		LedgerBalance:   ledgerBalance,
		CachedInvested:  cached.TotalInvested,
		DerivedInvested: derivedInvested,
		CachedProfit:    cached.TotalProfit,
		LedgerProfit:    ledgerProfit,
		CheckedAt:       time.Now().UTC(),
	}
	result.Consistent = cached.Balance.Equal(ledgerBalance) &&
		cached.TotalInvested.Equal(derivedInvested) &&
		cached.TotalProfit.Equal(ledgerProfit)

	if !result.Consistent {
		zap.L().Error("Portfolio reconciliation mismatch",
			zap.String("profile_id", profileId),
			zap.String("cached_balance", cached.Balance.String()),
			zap.String("ledger_balance", ledgerBalance.String()),
			zap.String("cached_invested", cached.TotalInvested.String()),
			zap.String("derived_invested", derivedInvested.String()),
			zap.String("cached_profit", cached.TotalProfit.String()),
			zap.String("ledger_profit", ledgerProfit.String()))
	}

	return result, nil
}
