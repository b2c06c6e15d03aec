package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types. Credit types carry positive amounts, debit types
// negative; investment entries are signed transfers (negative at open,
// positive when principal returns).
const (
	TxTypeDeposit     = "deposit"
	TxTypeInvestment  = "investment"
	TxTypeProfit      = "profit"
	TxTypeWithdrawal  = "withdrawal"
	TxTypeAdminCredit = "admin_credit"
	TxTypeAdminDebit  = "admin_debit"
)

// Investment statuses. Completed and cancelled are terminal.
const (
	InvestmentStatusActive    = "active"
	InvestmentStatusCompleted = "completed"
	InvestmentStatusCancelled = "cancelled"
)

// Crypto deposit statuses. Completed and failed are terminal.
const (
	DepositStatusPending   = "pending"
	DepositStatusConfirmed = "confirmed"
	DepositStatusCompleted = "completed"
	DepositStatusFailed    = "failed"
)

// Profile represents an account holder
type Profile struct {
	Id        string    `db:"id"`
	Email     string    `db:"email"`
	FullName  string    `db:"full_name"`
	IsAdmin   bool      `db:"is_admin"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Portfolio represents the cached financial summary for one profile
// (hot data). It is a materialized view over the transaction ledger,
// guarded by an optimistic-locking version.
type Portfolio struct {
	Id                string          `db:"id"`
	ProfileId         string          `db:"profile_id"`
	Balance           decimal.Decimal `db:"balance"`
	TotalInvested     decimal.Decimal `db:"total_invested"`
	TotalProfit       decimal.Decimal `db:"total_profit"`
	LastTransactionId string          `db:"last_transaction_id"`
	Version           int64           `db:"version"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

// InvestmentPlan is a rate-duration offering managed by administrators.
// Plans are soft-disabled via Active, never deleted.
type InvestmentPlan struct {
	Id           string          `db:"id"`
	Name         string          `db:"name"`
	Description  string          `db:"description"`
	ApyRate      decimal.Decimal `db:"apy_rate"`
	DurationDays int             `db:"duration_days"`
	MinAmount    decimal.Decimal `db:"min_amount"`
	MaxAmount    decimal.Decimal `db:"max_amount"` // zero means no maximum
	Active       bool            `db:"active"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// HasMaxAmount reports whether the plan caps the investment amount.
func (p *InvestmentPlan) HasMaxAmount() bool {
	return p.MaxAmount.IsPositive()
}

// Investment is one principal commitment to a plan. Rate and duration
// are snapshotted at open time so later plan edits never alter an open
// position.
type Investment struct {
	Id           string          `db:"id"`
	ProfileId    string          `db:"profile_id"`
	PlanId       string          `db:"plan_id"`
	PlanName     string          `db:"plan_name"`
	ApyRate      decimal.Decimal `db:"apy_rate"`
	DurationDays int             `db:"duration_days"`
	Amount       decimal.Decimal `db:"amount"`
	StartDate    time.Time       `db:"start_date"`
	EndDate      time.Time       `db:"end_date"`
	Status       string          `db:"status"`
	ProfitEarned decimal.Decimal `db:"profit_earned"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// IsTerminal reports whether the investment is frozen.
func (i *Investment) IsTerminal() bool {
	return i.Status == InvestmentStatusCompleted || i.Status == InvestmentStatusCancelled
}

// Transaction represents an immutable ledger entry (cold data). The
// ledger is the sole source of truth for balance changes.
type Transaction struct {
	Id            string          `db:"id"`
	ProfileId     string          `db:"profile_id"`
	Type          string          `db:"transaction_type"`
	Amount        decimal.Decimal `db:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	ReferenceId   string          `db:"reference_id"`
	ExternalRef   string          `db:"external_ref"`
	Description   string          `db:"description"`
	Status        string          `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
	ProcessedAt   time.Time       `db:"processed_at"`
}

// CryptoDeposit is an inbound on-chain payment moving through the
// confirmation pipeline. ExchangeRate is frozen at detection time so
// the user is credited exactly the USD amount they were shown.
type CryptoDeposit struct {
	Id                    string          `db:"id"`
	ProfileId             string          `db:"profile_id"`
	Currency              string          `db:"currency"`
	Network               string          `db:"network"`
	Address               string          `db:"address"`
	AmountCrypto          decimal.Decimal `db:"amount_crypto"`
	AmountUsd             decimal.Decimal `db:"amount_usd"`
	ExchangeRate          decimal.Decimal `db:"exchange_rate"`
	Confirmations         int             `db:"confirmations"`
	RequiredConfirmations int             `db:"required_confirmations"`
	Status                string          `db:"status"`
	FailureReason         string          `db:"failure_reason"`
	CreditedTransactionId string          `db:"credited_transaction_id"`
	CreatedAt             time.Time       `db:"created_at"`
	UpdatedAt             time.Time       `db:"updated_at"`
}

// IsTerminal reports whether the deposit has left the pipeline.
func (d *CryptoDeposit) IsTerminal() bool {
	return d.Status == DepositStatusCompleted || d.Status == DepositStatusFailed
}
