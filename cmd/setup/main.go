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

package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"invest-ledger-go/internal/auth"
	"invest-ledger-go/internal/common"
	"invest-ledger-go/internal/config"
	"invest-ledger-go/internal/database"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// seedPlans creates any plans from the config file that do not exist
// yet, matched by name, so repeated runs are safe.
func seedPlans(ctx context.Context, dbService *database.Service, plansFile string) error {
	planConfigs, err := common.LoadPlanConfig(plansFile)
	if err != nil {
		return err
	}

	existing, err := dbService.GetAllPlans(ctx)
	if err != nil {
		return err
	}
	existingNames := make(map[string]bool, len(existing))
	for _, plan := range existing {
		existingNames[plan.Name] = true
	}

	var created int
	for _, pc := range planConfigs {
		if existingNames[pc.Name] {
			zap.L().Info("Plan already exists, skipping", zap.String("name", pc.Name))
			continue
		}

		apyRate, err := decimal.NewFromString(pc.ApyRate)
		if err != nil {
			return err
		}
		minAmount, err := decimal.NewFromString(pc.MinAmount)
		if err != nil {
			return err
		}
		maxAmount := decimal.Zero
		if pc.MaxAmount != "" {
			if maxAmount, err = decimal.NewFromString(pc.MaxAmount); err != nil {
				return err
			}
		}

		plan, err := dbService.CreatePlan(ctx, &models.InvestmentPlan{
			Name:         pc.Name,
			Description:  pc.Description,
			ApyRate:      apyRate,
			DurationDays: pc.DurationDays,
			MinAmount:    minAmount,
			MaxAmount:    maxAmount,
			Active:       true,
		})
		if err != nil {
			return err
		}
		created++

		zap.L().Info("Created plan",
			zap.String("id", plan.Id),
			zap.String("name", plan.Name),
			zap.String("apy_rate", plan.ApyRate.String()),
			zap.Int("duration_days", plan.DurationDays))
	}

	zap.L().Info("Plan seeding completed", zap.Int("created", created))
	return nil
}

// seedAdmin creates the administrative profile if it does not exist.
func seedAdmin(ctx context.Context, dbService *database.Service, email, password string) error {
	if email == "" || password == "" {
		zap.L().Info("No admin credentials provided, skipping admin seed")
		return nil
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	profile, err := dbService.CreateProfile(ctx, email, "Administrator", true, passwordHash)
	if errors.Is(err, store.ErrProfileExists) {
		zap.L().Info("Admin profile already exists", zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	zap.L().Info("Created admin profile",
		zap.String("id", profile.Id),
		zap.String("email", profile.Email))
	return nil
}

func main() {
	plansFile := flag.String("plans", "plans.yaml", "Path to the plan seed file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx := context.Background()

	zap.L().Info("Setting up database", zap.String("path", cfg.Database.Path))

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		zap.L().Fatal("Failed to open database", zap.Error(err))
	}
	defer dbService.Close()

	if err := dbService.InitSchema(); err != nil {
		zap.L().Fatal("Failed to initialize schema", zap.Error(err))
	}
	zap.L().Info("Schema initialized")

	if err := seedPlans(ctx, dbService, *plansFile); err != nil {
		zap.L().Fatal("Failed to seed plans", zap.Error(err))
	}

	if err := seedAdmin(ctx, dbService, os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		zap.L().Fatal("Failed to seed admin profile", zap.Error(err))
	}

	zap.L().Info("Setup complete")
}
