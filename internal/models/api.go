package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSummary is the read-side view of one profile's holdings,
// derived from the transaction ledger and investment records.
type PortfolioSummary struct {
	ProfileId         string               `json:"profile_id"`
	Balance           decimal.Decimal      `json:"balance"`
	TotalInvested     decimal.Decimal      `json:"total_invested"`
	TotalProfit       decimal.Decimal      `json:"total_profit"`
	ActiveInvestments []InvestmentProgress `json:"active_investments"`
}

// InvestmentProgress exposes per-position derived fields for display.
// DaysRemaining and ProgressFraction are computed from wall-clock time
// at read time and are never authoritative for settlement.
type InvestmentProgress struct {
	Investment     Investment      `json:"investment"`
	ExpectedProfit decimal.Decimal `json:"expected_profit"`
	DaysRemaining  int             `json:"days_remaining"`
	Progress       decimal.Decimal `json:"progress_fraction"`
}

// ReconcileResult reports a cached-row-vs-ledger comparison for one
// portfolio. The ledger aggregation is authoritative.
type ReconcileResult struct {
	ProfileId        string          `json:"profile_id"`
	CachedBalance    decimal.Decimal `json:"cached_balance"`
	LedgerBalance    decimal.Decimal `json:"ledger_balance"`
	CachedInvested   decimal.Decimal `json:"cached_invested"`
	DerivedInvested  decimal.Decimal `json:"derived_invested"`
	CachedProfit     decimal.Decimal `json:"cached_profit"`
	LedgerProfit     decimal.Decimal `json:"ledger_profit"`
	Consistent       bool            `json:"consistent"`
	CheckedAt        time.Time       `json:"checked_at"`
}
