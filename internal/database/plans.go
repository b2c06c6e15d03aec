package database

import (
	"context"
	"database/sql"
	"fmt"

	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// validatePlan enforces the plan invariants shared by create and
// update: rate >= 0, duration > 0, min > 0, max >= min when set.
func validatePlan(plan *models.InvestmentPlan) error {
	if plan.Name == "" {
		return fmt.Errorf("%w: name is required", store.ErrInvalidPlan)
	}
	if plan.ApyRate.IsNegative() {
		return fmt.Errorf("%w: apy_rate must not be negative", store.ErrInvalidPlan)
	}
	if plan.DurationDays <= 0 {
		return fmt.Errorf("%w: duration_days must be positive", store.ErrInvalidPlan)
	}
	if !plan.MinAmount.IsPositive() {
		return fmt.Errorf("%w: min_amount must be positive", store.ErrInvalidPlan)
	}
	if plan.HasMaxAmount() && plan.MaxAmount.LessThan(plan.MinAmount) {
		return fmt.Errorf("%w: max_amount below min_amount", store.ErrInvalidPlan)
	}
	return nil
}

func (s *Service) CreatePlan(ctx context.Context, plan *models.InvestmentPlan) (*models.InvestmentPlan, error) {
	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	planId := plan.Id
	if planId == "" {
		planId = uuid.New().String()
	}
	maxAmount := ""
	if plan.HasMaxAmount() {
		maxAmount = plan.MaxAmount.String()
	}

	_, err := s.db.ExecContext(ctx, queryInsertPlan,
		planId, plan.Name, plan.Description, plan.ApyRate.String(),
		plan.DurationDays, plan.MinAmount.String(), maxAmount, plan.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to insert plan: %w", err)
	}

	zap.L().Info("Investment plan created",
		zap.String("plan_id", planId),
		zap.String("name", plan.Name),
		zap.String("apy_rate", plan.ApyRate.String()),
		zap.Int("duration_days", plan.DurationDays))

	return s.GetPlanById(ctx, planId)
}

// UpdatePlan rewrites the plan row. Open investments are unaffected:
// they carry their own snapshot of rate and duration.
func (s *Service) UpdatePlan(ctx context.Context, plan *models.InvestmentPlan) (*models.InvestmentPlan, error) {
	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	maxAmount := ""
	if plan.HasMaxAmount() {
		maxAmount = plan.MaxAmount.String()
	}
	result, err := s.db.ExecContext(ctx, queryUpdatePlan,
		plan.Name, plan.Description, plan.ApyRate.String(), plan.DurationDays,
		plan.MinAmount.String(), maxAmount, plan.Active, plan.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: plan %s", store.ErrPlanNotFound, plan.Id)
	}
	return s.GetPlanById(ctx, plan.Id)
}

func (s *Service) GetPlanById(ctx context.Context, planId string) (*models.InvestmentPlan, error) {
	plan, err := scanPlan(s.db.QueryRowContext(ctx, queryGetPlanById, planId))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: plan %s", store.ErrPlanNotFound, planId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

func (s *Service) GetActivePlans(ctx context.Context) ([]models.InvestmentPlan, error) {
	return s.queryPlans(ctx, queryGetActivePlans)
}

func (s *Service) GetAllPlans(ctx context.Context) ([]models.InvestmentPlan, error) {
	return s.queryPlans(ctx, queryGetAllPlans)
}

func (s *Service) queryPlans(ctx context.Context, query string) ([]models.InvestmentPlan, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var plans []models.InvestmentPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plan rows: %w", err)
	}
	return plans, nil
}

func scanPlan(row rowScanner) (*models.InvestmentPlan, error) {
	var plan models.InvestmentPlan
	var description, rateStr, minStr sql.NullString
	var maxStr sql.NullString
	err := row.Scan(&plan.Id, &plan.Name, &description, &rateStr, &plan.DurationDays,
		&minStr, &maxStr, &plan.Active, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	plan.Description = description.String

	if plan.ApyRate, err = decimal.NewFromString(rateStr.String); err != nil {
		return nil, fmt.Errorf("failed to parse apy_rate '%s': %w", rateStr.String, err)
	}
	if plan.MinAmount, err = decimal.NewFromString(minStr.String); err != nil {
		return nil, fmt.Errorf("failed to parse min_amount '%s': %w", minStr.String, err)
	}
	if maxStr.Valid && maxStr.String != "" {
		if plan.MaxAmount, err = decimal.NewFromString(maxStr.String); err != nil {
			return nil, fmt.Errorf("failed to parse max_amount '%s': %w", maxStr.String, err)
		}
	} else {
		plan.MaxAmount = decimal.Zero
	}
	return &plan, nil
}
