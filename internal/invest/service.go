/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package invest

import (
	"context"
	"fmt"
	"time"

	"invest-ledger-go/internal/database"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *Service satisfies the sweeper's contract.
var _ store.MaturityLedger = (*Service)(nil)

// Service is the investment lifecycle manager: it validates and opens
// positions, and settles them at maturity or on administrative
// cancellation. All money movement is delegated to the transaction
// recorder.
type Service struct {
	db *database.Service
}

func NewService(db *database.Service) *Service {
	return &Service{db: db}
}

// ExpectedProfit computes simple, non-compounding interest prorated by
// the plan duration against a 365-day year, rounded to cents:
//
//	amount × rate/100 × days/365
//
// The same formula runs at open time (display) and at maturity
// (settlement) from the snapshotted inputs, so the result is
// reproducible.
func ExpectedProfit(amount, apyRate decimal.Decimal, durationDays int) decimal.Decimal {
	days := decimal.NewFromInt(int64(durationDays))
	return amount.Mul(apyRate).Mul(days).Div(decimal.NewFromInt(36500)).Round(2)
}

// Open validates the request against the plan and creates the
// position, debiting the principal from the spendable balance in the
// same atomic unit. Plan rate and duration are snapshotted onto the
// investment.
func (s *Service) Open(ctx context.Context, profileId, planId string, amount decimal.Decimal) (*models.Investment, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: investment amount must be positive", store.ErrInvalidAmount)
	}

	plan, err := s.db.GetPlanById(ctx, planId)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, fmt.Errorf("%w: plan %s", store.ErrPlanInactive, plan.Name)
	}
	if amount.LessThan(plan.MinAmount) {
		return nil, fmt.Errorf("%w: minimum for %s is %s", store.ErrAmountOutOfRange, plan.Name, plan.MinAmount.String())
	}
	if plan.HasMaxAmount() && amount.GreaterThan(plan.MaxAmount) {
		return nil, fmt.Errorf("%w: maximum for %s is %s", store.ErrAmountOutOfRange, plan.Name, plan.MaxAmount.String())
	}

	now := time.Now().UTC()
	investment := &models.Investment{
		Id:           uuid.New().String(),
		ProfileId:    profileId,
		PlanId:       plan.Id,
		PlanName:     plan.Name,
		ApyRate:      plan.ApyRate,
		DurationDays: plan.DurationDays,
		Amount:       amount,
		StartDate:    now,
		EndDate:      now.AddDate(0, 0, plan.DurationDays),
		Status:       models.InvestmentStatusActive,
		ProfitEarned: decimal.Zero,
	}

	opened, err := s.db.OpenInvestment(ctx, investment)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Investment position opened",
		zap.String("investment_id", opened.Id),
		zap.String("profile_id", profileId),
		zap.String("plan", plan.Name),
		zap.String("amount", amount.String()),
		zap.String("expected_profit", ExpectedProfit(amount, plan.ApyRate, plan.DurationDays).String()))

	return opened, nil
}

// Mature settles a due investment: realizes the profit computed from
// the snapshotted terms and returns the principal to the spendable
// balance. Idempotent: an already-terminal investment is returned
// unchanged so at-least-once scheduling is safe.
func (s *Service) Mature(ctx context.Context, investmentId string) (*models.Investment, error) {
	investment, err := s.db.GetInvestmentById(ctx, investmentId)
	if err != nil {
		return nil, err
	}
	if investment.IsTerminal() {
		return investment, nil
	}
	if time.Now().UTC().Before(investment.EndDate) {
		return nil, fmt.Errorf("investment %s matures at %s", investmentId, investment.EndDate.Format(time.RFC3339))
	}

	profit := ExpectedProfit(investment.Amount, investment.ApyRate, investment.DurationDays)
	entries := []database.RecordTransactionParams{
		{
			ProfileId:   investment.ProfileId,
			Type:        models.TxTypeProfit,
			Amount:      profit,
			ReferenceId: investment.Id,
			ExternalRef: investment.Id + "-profit",
			Description: fmt.Sprintf("Profit from %s", investment.PlanName),
		},
		{
			ProfileId:   investment.ProfileId,
			Type:        models.TxTypeInvestment,
			Amount:      investment.Amount,
			ReferenceId: investment.Id,
			ExternalRef: investment.Id + "-principal",
			Description: fmt.Sprintf("Principal returned from %s", investment.PlanName),
		},
	}
	// Zero-rate plans earn nothing; recording a zero entry would be
	// rejected by the recorder.
	if profit.IsZero() {
		entries = entries[1:]
	}

	return s.db.SettleInvestment(ctx, investmentId, models.InvestmentStatusCompleted, profit, entries)
}

// Cancel is the administrative early exit: principal comes back, no
// profit is realized. Idempotent like Mature.
func (s *Service) Cancel(ctx context.Context, investmentId string) (*models.Investment, error) {
	investment, err := s.db.GetInvestmentById(ctx, investmentId)
	if err != nil {
		return nil, err
	}
	if investment.IsTerminal() {
		return investment, nil
	}

	entries := []database.RecordTransactionParams{
		{
			ProfileId:   investment.ProfileId,
			Type:        models.TxTypeInvestment,
			Amount:      investment.Amount,
			ReferenceId: investment.Id,
			ExternalRef: investment.Id + "-principal",
			Description: fmt.Sprintf("Principal returned from cancelled %s", investment.PlanName),
		},
	}

	return s.db.SettleInvestment(ctx, investmentId, models.InvestmentStatusCancelled, decimal.Zero, entries)
}

// ListMaturedInvestmentIds exposes due positions for the maturity
// sweep.
func (s *Service) ListMaturedInvestmentIds(ctx context.Context, limit int) ([]string, error) {
	return s.db.ListMaturedInvestmentIds(ctx, limit)
}
