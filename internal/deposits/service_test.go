package deposits

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"invest-ledger-go/internal/database"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

var testPolicies = map[string]int{
	"bitcoin":  3,
	"ethereum": 12,
}

func setupTestDb(t *testing.T) (*Service, *database.Service, func()) {
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

	return NewService(dbService, testPolicies), dbService, cleanup
}

func createTestProfile(t *testing.T, dbService *database.Service, email string) *models.Profile {
	profile, err := dbService.CreateProfile(context.Background(), email, "Test User", false, "")
	if err != nil {
		t.Fatalf("Failed to create profile: %v", err)
	}
	return profile
}

func detectTestDeposit(t *testing.T, service *Service, profileId string) *models.CryptoDeposit {
	deposit, err := service.Detect(context.Background(), DetectParams{
		ProfileId:    profileId,
		Currency:     "BTC",
		Network:      "bitcoin",
		Address:      "bc1qtest",
		AmountCrypto: decimal.RequireFromString("0.01"),
		ExchangeRate: decimal.RequireFromString("60000"),
	})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	return deposit
}

func TestRequiredConfirmations(t *testing.T) {
	service := NewService(nil, testPolicies)

	if got := service.RequiredConfirmations("bitcoin"); got != 3 {
		t.Errorf("Expected 3 for bitcoin, got %d", got)
	}
	if got := service.RequiredConfirmations("ethereum"); got != 12 {
		t.Errorf("Expected 12 for ethereum, got %d", got)
	}
	if got := service.RequiredConfirmations("unknown-chain"); got != defaultRequiredConfirmations {
		t.Errorf("Expected default %d for unknown network, got %d", defaultRequiredConfirmations, got)
	}
}

func TestDetect_FreezesRateAndPolicy(t *testing.T) {
	service, dbService, cleanup := setupTestDb(t)
	defer cleanup()

	profile := createTestProfile(t, dbService, "detect@example.com")
	deposit := detectTestDeposit(t, service, profile.Id)

	if deposit.Status != models.DepositStatusPending {
		t.Errorf("Expected pending status, got %s", deposit.Status)
	}
	if deposit.RequiredConfirmations != 3 {
		t.Errorf("Expected 3 required confirmations, got %d", deposit.RequiredConfirmations)
	}
	if !deposit.ExchangeRate.Equal(decimal.RequireFromString("60000")) {
		t.Errorf("Expected frozen rate 60000, got %s", deposit.ExchangeRate.String())
	}
	if deposit.Confirmations != 0 {
		t.Errorf("Expected zero confirmations at detection, got %d", deposit.Confirmations)
	}
}

func TestDetect_Validations(t *testing.T) {
	service, dbService, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	profile := createTestProfile(t, dbService, "badinput@example.com")

	cases := []struct {
		name   string
		params DetectParams
	}{
		{"zero amount", DetectParams{ProfileId: profile.Id, Currency: "BTC", Network: "bitcoin",
			AmountCrypto: decimal.Zero, ExchangeRate: decimal.RequireFromString("60000")}},
		{"negative rate", DetectParams{ProfileId: profile.Id, Currency: "BTC", Network: "bitcoin",
			AmountCrypto: decimal.RequireFromString("1"), ExchangeRate: decimal.RequireFromString("-1")}},
		{"missing currency", DetectParams{ProfileId: profile.Id, Network: "bitcoin",
			AmountCrypto: decimal.RequireFromString("1"), ExchangeRate: decimal.RequireFromString("60000")}},
	}

	for _, tc := range cases {
		if _, err := service.Detect(ctx, tc.params); !errors.Is(err, store.ErrInvalidAmount) {
			t.Errorf("%s: expected ErrInvalidAmount, got: %v", tc.name, err)
		}
	}

	unknownOwner := DetectParams{ProfileId: "no-such-profile", Currency: "BTC", Network: "bitcoin",
		AmountCrypto: decimal.RequireFromString("1"), ExchangeRate: decimal.RequireFromString("60000")}
	if _, err := service.Detect(ctx, unknownOwner); !errors.Is(err, store.ErrOwnerNotFound) {
		t.Errorf("unknown owner: expected ErrOwnerNotFound, got: %v", err)
	}
}

func TestAdvanceConfirmations_MonotoneAndThreshold(t *testing.T) {
	service, dbService, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	profile := createTestProfile(t, dbService, "confirm@example.com")
	deposit := detectTestDeposit(t, service, profile.Id)

	updated, err := service.AdvanceConfirmations(ctx, deposit.Id, 2)
	if err != nil {
		t.Fatalf("AdvanceConfirmations failed: %v", err)
	}
	if updated.Confirmations != 2 {
		t.Errorf("Expected 2 confirmations, got %d", updated.Confirmations)
	}
	if updated.Status != models.DepositStatusPending {
		t.Errorf("Expected still pending at 2 of 3, got %s", updated.Status)
	}

	// Stale count is an idempotent no-op
	stale, err := service.AdvanceConfirmations(ctx, deposit.Id, 1)
	if err != nil {
		t.Fatalf("Stale AdvanceConfirmations failed: %v", err)
	}
	if stale.Confirmations != 2 {
		t.Errorf("Stale update regressed count to %d", stale.Confirmations)
	}

	// Crossing the threshold flips to confirmed without moving funds
	confirmed, err := service.AdvanceConfirmations(ctx, deposit.Id, 3)
	if err != nil {
		t.Fatalf("AdvanceConfirmations failed: %v", err)
	}
	if confirmed.Status != models.DepositStatusConfirmed {
		t.Errorf("Expected confirmed at threshold, got %s", confirmed.Status)
	}

	portfolio, err := dbService.GetPortfolio(ctx, profile.Id)
	if err != nil {
		t.Fatalf("GetPortfolio failed: %v", err)
	}
	if !portfolio.Balance.IsZero() {
		t.Errorf("Confirmation moved funds: balance %s", portfolio.Balance.String())
	}

	if _, err := service.AdvanceConfirmations(ctx, deposit.Id, -1); !errors.Is(err, store.ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for negative count, got: %v", err)
	}
}

func TestComplete_CreditsFrozenRateOnce(t *testing.T) {
	service, dbService, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	profile := createTestProfile(t, dbService, "complete@example.com")
	deposit := detectTestDeposit(t, service, profile.Id)

	if _, err := service.AdvanceConfirmations(ctx, deposit.Id, 3); err != nil {
		t.Fatalf("AdvanceConfirmations failed: %v", err)
	}

	txn, err := service.Complete(ctx, deposit.Id)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// 0.01 BTC at the frozen 60000 rate
	expected := decimal.RequireFromString("600.00")
	if !txn.Amount.Equal(expected) {
		t.Errorf("Expected credited amount %s, got %s", expected.String(), txn.Amount.String())
	}
	if txn.Type != models.TxTypeDeposit {
		t.Errorf("Expected deposit transaction type, got %s", txn.Type)
	}

	settled, err := service.Get(ctx, deposit.Id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if settled.Status != models.DepositStatusCompleted {
		t.Errorf("Expected completed status, got %s", settled.Status)
	}
	if !settled.AmountUsd.Equal(expected) {
		t.Errorf("Expected stored USD amount %s, got %s", expected.String(), settled.AmountUsd.String())
	}
	if settled.CreditedTransactionId != txn.Id {
		t.Errorf("Expected credited transaction id %s, got %s", txn.Id, settled.CreditedTransactionId)
	}

	// Completing twice credits once
	if _, err := service.Complete(ctx, deposit.Id); !errors.Is(err, store.ErrAlreadySettled) {
		t.Errorf("Expected ErrAlreadySettled on repeat, got: %v", err)
	}

	portfolio, err := dbService.GetPortfolio(ctx, profile.Id)
	if err != nil {
		t.Fatalf("GetPortfolio failed: %v", err)
	}
	if !portfolio.Balance.Equal(expected) {
		t.Errorf("Expected balance %s after single credit, got %s", expected.String(), portfolio.Balance.String())
	}
}

func TestComplete_RequiresConfirmedStatus(t *testing.T) {
	service, dbService, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	profile := createTestProfile(t, dbService, "pending@example.com")
	deposit := detectTestDeposit(t, service, profile.Id)

	if _, err := service.Complete(ctx, deposit.Id); !errors.Is(err, store.ErrNotConfirmed) {
		t.Fatalf("Expected ErrNotConfirmed on pending deposit, got: %v", err)
	}

	portfolio, err := dbService.GetPortfolio(ctx, profile.Id)
	if err != nil {
		t.Fatalf("GetPortfolio failed: %v", err)
	}
	if !portfolio.Balance.IsZero() {
		t.Errorf("Pending completion moved funds: balance %s", portfolio.Balance.String())
	}
}

func TestFail_TerminalAndFundless(t *testing.T) {
	service, dbService, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	profile := createTestProfile(t, dbService, "fail@example.com")
	deposit := detectTestDeposit(t, service, profile.Id)

	failed, err := service.Fail(ctx, deposit.Id, "chain reorg dropped the transaction")
	if err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	if failed.Status != models.DepositStatusFailed {
		t.Errorf("Expected failed status, got %s", failed.Status)
	}

	// Failed is terminal: no confirmations, completion, or re-failure
	if _, err := service.AdvanceConfirmations(ctx, deposit.Id, 5); !errors.Is(err, store.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition advancing failed deposit, got: %v", err)
	}
	if _, err := service.Complete(ctx, deposit.Id); !errors.Is(err, store.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition completing failed deposit, got: %v", err)
	}
	if _, err := service.Fail(ctx, deposit.Id, "again"); !errors.Is(err, store.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition re-failing deposit, got: %v", err)
	}

	if _, err := service.Fail(ctx, deposit.Id, ""); !errors.Is(err, store.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for empty reason, got: %v", err)
	}

	portfolio, err := dbService.GetPortfolio(ctx, profile.Id)
	if err != nil {
		t.Fatalf("GetPortfolio failed: %v", err)
	}
	if !portfolio.Balance.IsZero() {
		t.Errorf("Failure moved funds: balance %s", portfolio.Balance.String())
	}
}
