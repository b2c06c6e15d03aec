package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"invest-ledger-go/internal/database"
	"invest-ledger-go/internal/invest"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupTestDb(t *testing.T) (*Service, *database.Service, *sql.DB, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	dbService := database.NewServiceWithDb(db)
	if err := dbService.InitSchema(); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return NewService(dbService), dbService, db, cleanup
}

func TestSummarize_UnknownProfile(t *testing.T) {
	service, _, _, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.Summarize(context.Background(), "no-such-profile")
	if !errors.Is(err, store.ErrOwnerNotFound) {
		t.Fatalf("Expected ErrOwnerNotFound, got: %v", err)
	}
}

func TestSummarize_DerivesFromLedger(t *testing.T) {
	service, dbService, _, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	profile, err := dbService.CreateProfile(ctx, "summary@example.com", "Summary User", false, "")
	if err != nil {
		t.Fatalf("Failed to create profile: %v", err)
	}

	// Empty portfolio reads as all zeros
	empty, err := service.Summarize(ctx, profile.Id)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if !empty.Balance.IsZero() || !empty.TotalInvested.IsZero() || !empty.TotalProfit.IsZero() {
		t.Errorf("Expected zero summary, got balance=%s invested=%s profit=%s",
			empty.Balance.String(), empty.TotalInvested.String(), empty.TotalProfit.String())
	}
	if len(empty.ActiveInvestments) != 0 {
		t.Errorf("Expected no positions, got %d", len(empty.ActiveInvestments))
	}

	if _, err := dbService.RecordTransaction(ctx, database.RecordTransactionParams{
		ProfileId:   profile.Id,
		Type:        models.TxTypeDeposit,
		Amount:      decimal.RequireFromString("1000"),
		ReferenceId: "seed",
	}); err != nil {
		t.Fatalf("Seed deposit failed: %v", err)
	}

	plan, err := dbService.CreatePlan(ctx, &models.InvestmentPlan{
		Name:         "Growth",
		ApyRate:      decimal.RequireFromString("12"),
		DurationDays: 90,
		MinAmount:    decimal.RequireFromString("100"),
		Active:       true,
	})
	if err != nil {
		t.Fatalf("Failed to create plan: %v", err)
	}

	investService := invest.NewService(dbService)
	if _, err := investService.Open(ctx, profile.Id, plan.Id, decimal.RequireFromString("400")); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	summary, err := service.Summarize(ctx, profile.Id)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if !summary.Balance.Equal(decimal.RequireFromString("600")) {
		t.Errorf("Expected balance 600, got %s", summary.Balance.String())
	}
	if !summary.TotalInvested.Equal(decimal.RequireFromString("400")) {
		t.Errorf("Expected invested 400, got %s", summary.TotalInvested.String())
	}
	if !summary.TotalProfit.IsZero() {
		t.Errorf("Expected zero profit, got %s", summary.TotalProfit.String())
	}
	if len(summary.ActiveInvestments) != 1 {
		t.Fatalf("Expected one position, got %d", len(summary.ActiveInvestments))
	}

	position := summary.ActiveInvestments[0]
	expectedProfit := invest.ExpectedProfit(decimal.RequireFromString("400"), plan.ApyRate, plan.DurationDays)
	if !position.ExpectedProfit.Equal(expectedProfit) {
		t.Errorf("Expected position profit %s, got %s", expectedProfit.String(), position.ExpectedProfit.String())
	}
	if position.DaysRemaining != 90 {
		t.Errorf("Expected 90 days remaining on a fresh position, got %d", position.DaysRemaining)
	}
	if !position.Progress.IsZero() {
		t.Errorf("Expected zero progress on a fresh position, got %s", position.Progress.String())
	}
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		end      time.Time
		expected int
	}{
		{"past end date", now.Add(-time.Hour), 0},
		{"exactly now", now, 0},
		{"partial day rounds up", now.Add(6 * time.Hour), 1},
		{"whole days", now.Add(72 * time.Hour), 3},
		{"whole days plus a bit", now.Add(72*time.Hour + time.Minute), 4},
	}

	for _, tc := range cases {
		if got := daysRemaining(tc.end, now); got != tc.expected {
			t.Errorf("%s: daysRemaining = %d, want %d", tc.name, got, tc.expected)
		}
	}
}

func TestProgressFraction(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// 30 of 90 days remaining: 1 - 30/90 = 0.6667
	end := now.Add(30 * 24 * time.Hour)
	got := progressFraction(end, 90, now)
	if got.StringFixed(4) != "0.6667" {
		t.Errorf("Expected progress 0.6667, got %s", got.String())
	}

	// Past end date clamps to 1
	if got := progressFraction(now.Add(-time.Hour), 90, now); !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected progress 1 past end, got %s", got.String())
	}

	// Fresh position clamps to 0
	if got := progressFraction(now.Add(90*24*time.Hour), 90, now); !got.IsZero() {
		t.Errorf("Expected progress 0 at start, got %s", got.String())
	}
}

func TestReconcile_ConsistentAfterActivity(t *testing.T) {
	service, dbService, _, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	profile, err := dbService.CreateProfile(ctx, "reconcile@example.com", "Reconcile User", false, "")
	if err != nil {
		t.Fatalf("Failed to create profile: %v", err)
	}

	if _, err := dbService.RecordTransaction(ctx, database.RecordTransactionParams{
		ProfileId:   profile.Id,
		Type:        models.TxTypeDeposit,
		Amount:      decimal.RequireFromString("2500"),
		ReferenceId: "seed",
	}); err != nil {
		t.Fatalf("Seed deposit failed: %v", err)
	}

	plan, err := dbService.CreatePlan(ctx, &models.InvestmentPlan{
		Name:         "Growth",
		ApyRate:      decimal.RequireFromString("12"),
		DurationDays: 90,
		MinAmount:    decimal.RequireFromString("100"),
		Active:       true,
	})
	if err != nil {
		t.Fatalf("Failed to create plan: %v", err)
	}

	investService := invest.NewService(dbService)
	opened, err := investService.Open(ctx, profile.Id, plan.Id, decimal.RequireFromString("1000"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := investService.Cancel(ctx, opened.Id); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	result, err := service.Reconcile(ctx, profile.Id)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !result.Consistent {
		t.Errorf("Expected consistent portfolio, got cached balance %s vs ledger %s, cached invested %s vs derived %s",
			result.CachedBalance.String(), result.LedgerBalance.String(),
			result.CachedInvested.String(), result.DerivedInvested.String())
	}
	if !result.LedgerBalance.Equal(decimal.RequireFromString("2500")) {
		t.Errorf("Expected ledger balance 2500 after cancel round trip, got %s", result.LedgerBalance.String())
	}
}

func TestReconcile_DetectsTamperedCache(t *testing.T) {
	service, dbService, db, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	profile, err := dbService.CreateProfile(ctx, "tampered@example.com", "Tampered User", false, "")
	if err != nil {
		t.Fatalf("Failed to create profile: %v", err)
	}

	if _, err := dbService.RecordTransaction(ctx, database.RecordTransactionParams{
		ProfileId:   profile.Id,
		Type:        models.TxTypeDeposit,
		Amount:      decimal.RequireFromString("100"),
		ReferenceId: "seed",
	}); err != nil {
		t.Fatalf("Seed deposit failed: %v", err)
	}

	// Corrupt the cached row behind the recorder's back
	if _, err := db.ExecContext(ctx,
		"UPDATE portfolios SET balance = '999' WHERE profile_id = ?", profile.Id); err != nil {
		t.Fatalf("Failed to tamper with cache: %v", err)
	}

	result, err := service.Reconcile(ctx, profile.Id)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if result.Consistent {
		t.Fatal("Expected inconsistency to be detected")
	}
	if !result.LedgerBalance.Equal(decimal.RequireFromString("100")) {
		t.Errorf("Expected authoritative ledger balance 100, got %s", result.LedgerBalance.String())
	}
}
