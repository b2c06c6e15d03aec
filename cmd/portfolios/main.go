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
	"flag"
	"fmt"

	"invest-ledger-go/internal/common"
	"invest-ledger-go/internal/config"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/portfolio"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

type reportStats struct {
	totalProfiles        int
	totalPositions       int
	inconsistentProfiles int
}

func formatInvestmentId(investmentId string) string {
	if len(investmentId) > 8 {
		return investmentId[:8] + "..."
	}
	return investmentId
}

func printPosition(position models.InvestmentProgress, isLast bool) {
	fmt.Printf("%s %-20s: %16s (expected profit: %s, id: %s)\n",
		common.BoxPrefix(isLast),
		position.Investment.PlanName,
		position.Investment.Amount.String(),
		position.ExpectedProfit.String(),
		formatInvestmentId(position.Investment.Id))
	fmt.Printf("%s   %d days left, %s%% elapsed, matures %s\n",
		common.BoxDetailPrefix(isLast),
		position.DaysRemaining,
		position.Progress.Mul(hundred).String(),
		position.Investment.EndDate.Format("2006-01-02"))
}

func printProfileHeader(profile common.ProfileInfo, summary *models.PortfolioSummary) {
	fmt.Printf("\n┌─ Profile: %s (%s)\n", profile.FullName, profile.Email)
	fmt.Printf("│  ID: %s\n", profile.Id)
	fmt.Printf("│  Balance: %s  Invested: %s  Profit: %s\n",
		summary.Balance.String(),
		summary.TotalInvested.String(),
		summary.TotalProfit.String())
	common.PrintBoxSeparator(78)
}

func processProfile(ctx context.Context, profile common.ProfileInfo, readService *portfolio.Service, reconcile bool, logger *zap.Logger) (int, bool, error) {
	summary, err := readService.Summarize(ctx, profile.Id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to summarize portfolio: %w", err)
	}

	printProfileHeader(profile, summary)
	for i, position := range summary.ActiveInvestments {
		printPosition(position, i == len(summary.ActiveInvestments)-1)
	}
	if len(summary.ActiveInvestments) == 0 {
		fmt.Println(common.BoxPrefix(true) + "no active investments")
	}

	consistent := true
	if reconcile {
		result, err := readService.Reconcile(ctx, profile.Id)
		if err != nil {
			return len(summary.ActiveInvestments), false, fmt.Errorf("failed to reconcile: %w", err)
		}
		consistent = result.Consistent
		if !consistent {
			fmt.Printf("│  ⚠ INCONSISTENT: cached balance %s vs ledger %s\n",
				result.CachedBalance.String(), result.LedgerBalance.String())
			logger.Warn("Portfolio inconsistent with ledger",
				zap.String("profile_id", profile.Id),
				zap.String("cached_balance", result.CachedBalance.String()),
				zap.String("ledger_balance", result.LedgerBalance.String()))
		}
	}

	return len(summary.ActiveInvestments), consistent, nil
}

func processProfilesAndGenerateReport(ctx context.Context, profiles []common.ProfileInfo, readService *portfolio.Service, reconcile bool, logger *zap.Logger) reportStats {
	stats := reportStats{}

	for _, profile := range profiles {
		stats.totalProfiles++

		positionCount, consistent, err := processProfile(ctx, profile, readService, reconcile, logger)
		if err != nil {
			logger.Error("Failed to process profile",
				zap.String("profile_id", profile.Id),
				zap.String("email", profile.Email),
				zap.Error(err))
			continue
		}

		stats.totalPositions += positionCount
		if !consistent {
			stats.inconsistentProfiles++
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by specific profile email (optional)")
	reconcileFlag := flag.Bool("reconcile", false, "Compare cached portfolio rows against the ledger")
	flag.Parse()

	logger.Info("Starting portfolio report")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	profiles, err := common.InitializeProfiles(ctx, dbService, *emailFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize profiles", zap.Error(err))
	}

	common.PrintHeader("PORTFOLIO REPORT", common.DefaultWidth)

	readService := portfolio.NewService(dbService)
	stats := processProfilesAndGenerateReport(ctx, profiles, readService, *reconcileFlag, logger)

	summary := fmt.Sprintf("SUMMARY: %d profiles, %d active positions, %d inconsistent",
		stats.totalProfiles, stats.totalPositions, stats.inconsistentProfiles)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Portfolio report completed",
		zap.Int("profiles", stats.totalProfiles),
		zap.Int("positions", stats.totalPositions),
		zap.Int("inconsistent", stats.inconsistentProfiles))
}
