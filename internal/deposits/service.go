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

package deposits

import (
	"context"
	"fmt"

	"invest-ledger-go/internal/database"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// defaultRequiredConfirmations applies to networks without an explicit
// policy entry.
const defaultRequiredConfirmations = 6

// Service drives a crypto deposit from detection through confirmation
// to settlement. Confirmation thresholds are per-network policy,
// loaded once at startup.
type Service struct {
	db       *database.Service
	policies map[string]int
}

func NewService(db *database.Service, policies map[string]int) *Service {
	return &Service{db: db, policies: policies}
}

// RequiredConfirmations returns the confirmation threshold for a
// network; lower-finality networks carry higher thresholds.
func (s *Service) RequiredConfirmations(network string) int {
	if required, ok := s.policies[network]; ok {
		return required
	}
	return defaultRequiredConfirmations
}

// DetectParams describes an inbound on-chain payment reported by the
// detection source.
type DetectParams struct {
	ProfileId    string
	Currency     string
	Network      string
	Address      string
	AmountCrypto decimal.Decimal
	ExchangeRate decimal.Decimal
}

// Detect registers a new deposit in the pending state. The exchange
// rate is captured here and reused at settlement, so the credited USD
// amount always matches what the user was shown.
func (s *Service) Detect(ctx context.Context, params DetectParams) (*models.CryptoDeposit, error) {
	if !params.AmountCrypto.IsPositive() {
		return nil, fmt.Errorf("%w: deposit amount must be positive", store.ErrInvalidAmount)
	}
	if !params.ExchangeRate.IsPositive() {
		return nil, fmt.Errorf("%w: exchange rate must be positive", store.ErrInvalidAmount)
	}
	if params.Currency == "" || params.Network == "" {
		return nil, fmt.Errorf("%w: currency and network are required", store.ErrInvalidAmount)
	}

	deposit := &models.CryptoDeposit{
		Id:                    uuid.New().String(),
		ProfileId:             params.ProfileId,
		Currency:              params.Currency,
		Network:               params.Network,
		Address:               params.Address,
		AmountCrypto:          params.AmountCrypto,
		ExchangeRate:          params.ExchangeRate,
		RequiredConfirmations: s.RequiredConfirmations(params.Network),
		Status:                models.DepositStatusPending,
	}
	return s.db.CreateDeposit(ctx, deposit)
}

// AdvanceConfirmations applies a confirmation-count update from the
// detection source. Counts are monotone: stale or repeated values are
// idempotent no-ops. Crossing the threshold flips the deposit to
// confirmed; funds stay unspendable until explicit settlement.
func (s *Service) AdvanceConfirmations(ctx context.Context, depositId string, confirmations int) (*models.CryptoDeposit, error) {
	if confirmations < 0 {
		return nil, fmt.Errorf("%w: confirmation count must not be negative", store.ErrInvalidAmount)
	}
	return s.db.AdvanceDepositConfirmations(ctx, depositId, confirmations)
}

// Complete settles a confirmed deposit: computes the USD amount from
// the frozen rate and credits it through the transaction recorder,
// exactly once.
func (s *Service) Complete(ctx context.Context, depositId string) (*models.Transaction, error) {
	deposit, err := s.db.GetDepositById(ctx, depositId)
	if err != nil {
		return nil, err
	}

	switch deposit.Status {
	case models.DepositStatusPending:
		return nil, fmt.Errorf("%w: deposit %s has %d of %d confirmations",
			store.ErrNotConfirmed, depositId, deposit.Confirmations, deposit.RequiredConfirmations)
	case models.DepositStatusCompleted:
		return nil, fmt.Errorf("%w: deposit %s", store.ErrAlreadySettled, depositId)
	case models.DepositStatusFailed:
		return nil, fmt.Errorf("%w: deposit %s has failed", store.ErrInvalidTransition, depositId)
	}

	txn, err := s.db.SettleDeposit(ctx, deposit)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Deposit completed and credited",
		zap.String("deposit_id", depositId),
		zap.String("profile_id", deposit.ProfileId),
		zap.String("amount_crypto", deposit.AmountCrypto.String()),
		zap.String("amount_usd", txn.Amount.String()))

	return txn, nil
}

// Fail marks a live deposit as terminally failed with a reason
// (network reorg, chain mismatch, manual rejection). No funds move.
func (s *Service) Fail(ctx context.Context, depositId, reason string) (*models.CryptoDeposit, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: a failure reason is required", store.ErrInvalidTransition)
	}
	return s.db.FailDeposit(ctx, depositId, reason)
}

func (s *Service) Get(ctx context.Context, depositId string) (*models.CryptoDeposit, error) {
	return s.db.GetDepositById(ctx, depositId)
}

func (s *Service) ListByStatus(ctx context.Context, status string) ([]models.CryptoDeposit, error) {
	return s.db.GetDepositsByStatus(ctx, status)
}

func (s *Service) ListByProfile(ctx context.Context, profileId string) ([]models.CryptoDeposit, error) {
	return s.db.GetDepositsByProfile(ctx, profileId)
}
