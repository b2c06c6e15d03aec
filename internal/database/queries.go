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

package database

const (
	// Profile queries
	queryInsertProfile = `
		INSERT INTO profiles (id, email, full_name, is_admin, password_hash)
		VALUES (?, ?, ?, ?, ?)`

	queryGetProfileById = `
		SELECT id, email, full_name, is_admin, created_at, updated_at
		FROM profiles
		WHERE id = ?`

	queryGetProfileByEmail = `
		SELECT id, email, full_name, is_admin, created_at, updated_at
		FROM profiles
		WHERE email = ?`

	queryGetProfiles = `
		SELECT id, email, full_name, is_admin, created_at, updated_at
		FROM profiles
		ORDER BY created_at`

	queryGetPasswordHash = `
		SELECT password_hash FROM profiles WHERE email = ? AND is_admin = 1`

	// Portfolio queries
	queryInsertPortfolio = `
		INSERT INTO portfolios (id, profile_id, balance, total_invested, total_profit, version)
		VALUES (?, ?, '0', '0', '0', 1)`

	queryGetPortfolio = `
		SELECT id, profile_id, balance, total_invested, total_profit,
		       COALESCE(last_transaction_id, ''), version, updated_at
		FROM portfolios
		WHERE profile_id = ?`

	queryUpdatePortfolio = `
		UPDATE portfolios
		SET balance = ?, total_invested = ?, total_profit = ?,
		    last_transaction_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE profile_id = ? AND version = ?`

	// Plan queries
	queryInsertPlan = `
		INSERT INTO investment_plans (id, name, description, apy_rate, duration_days, min_amount, max_amount, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetPlanById = `
		SELECT id, name, description, apy_rate, duration_days, min_amount, max_amount, active, created_at, updated_at
		FROM investment_plans
		WHERE id = ?`

	queryGetActivePlans = `
		SELECT id, name, description, apy_rate, duration_days, min_amount, max_amount, active, created_at, updated_at
		FROM investment_plans
		WHERE active = 1
		ORDER BY CAST(min_amount AS REAL) ASC`

	queryGetAllPlans = `
		SELECT id, name, description, apy_rate, duration_days, min_amount, max_amount, active, created_at, updated_at
		FROM investment_plans
		ORDER BY created_at`

	queryUpdatePlan = `
		UPDATE investment_plans
		SET name = ?, description = ?, apy_rate = ?, duration_days = ?,
		    min_amount = ?, max_amount = ?, active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	// Investment queries
	queryInsertInvestment = `
		INSERT INTO investments (
			id, profile_id, plan_id, plan_name, apy_rate, duration_days,
			amount, start_date, end_date, status, profit_earned
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetInvestmentById = `
		SELECT id, profile_id, plan_id, plan_name, apy_rate, duration_days,
		       amount, start_date, end_date, status, profit_earned, created_at, updated_at
		FROM investments
		WHERE id = ?`

	queryGetInvestmentsByProfile = `
		SELECT id, profile_id, plan_id, plan_name, apy_rate, duration_days,
		       amount, start_date, end_date, status, profit_earned, created_at, updated_at
		FROM investments
		WHERE profile_id = ?
		ORDER BY created_at DESC`

	queryGetActiveInvestments = `
		SELECT id, profile_id, plan_id, plan_name, apy_rate, duration_days,
		       amount, start_date, end_date, status, profit_earned, created_at, updated_at
		FROM investments
		WHERE profile_id = ? AND status = 'active'
		ORDER BY end_date ASC`

	queryGetMaturedInvestmentIds = `
		SELECT id
		FROM investments
		WHERE status = 'active' AND end_date <= ?
		ORDER BY end_date ASC
		LIMIT ?`

	// Terminal transitions are guarded by the status predicate so a
	// concurrent sweep and an admin action cannot both settle.
	querySettleInvestment = `
		UPDATE investments
		SET status = ?, profit_earned = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'active'`

	// Transaction (ledger) queries
	queryCheckDuplicateExternalRef = `
		SELECT id FROM transactions WHERE external_ref = ? LIMIT 1`

	queryInsertTransaction = `
		INSERT INTO transactions (
			id, profile_id, transaction_type, amount, balance_before, balance_after,
			reference_id, external_ref, description, status, created_at, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionById = `
		SELECT id, profile_id, transaction_type, amount, balance_before, balance_after,
		       COALESCE(reference_id, ''), COALESCE(external_ref, ''), COALESCE(description, ''),
		       status, created_at, processed_at
		FROM transactions
		WHERE id = ?`

	queryGetTransactionHistory = `
		SELECT id, profile_id, transaction_type, amount, balance_before, balance_after,
		       COALESCE(reference_id, ''), COALESCE(external_ref, ''), COALESCE(description, ''),
		       status, created_at, processed_at
		FROM transactions
		WHERE profile_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	// Aggregation queries: the ledger re-derivation the cached
	// portfolio row is validated against. Amounts are summed in Go as
	// decimals; SQL SUM would coerce the text columns to floats.
	queryCompletedTransactionAmounts = `
		SELECT amount
		FROM transactions
		WHERE profile_id = ? AND status = 'completed'`

	queryProfitTransactionAmounts = `
		SELECT amount
		FROM transactions
		WHERE profile_id = ? AND status = 'completed' AND transaction_type = 'profit'`

	queryActivePrincipalAmounts = `
		SELECT amount
		FROM investments
		WHERE profile_id = ? AND status = 'active'`

	// Crypto deposit queries
	queryInsertDeposit = `
		INSERT INTO crypto_deposits (
			id, profile_id, currency, network, address, amount_crypto, amount_usd,
			exchange_rate, confirmations, required_confirmations, status
		) VALUES (?, ?, ?, ?, ?, ?, '0', ?, 0, ?, 'pending')`

	queryGetDepositById = `
		SELECT id, profile_id, currency, network, COALESCE(address, ''), amount_crypto, amount_usd,
		       exchange_rate, confirmations, required_confirmations, status,
		       COALESCE(failure_reason, ''), COALESCE(credited_transaction_id, ''), created_at, updated_at
		FROM crypto_deposits
		WHERE id = ?`

	queryGetDepositsByStatus = `
		SELECT id, profile_id, currency, network, COALESCE(address, ''), amount_crypto, amount_usd,
		       exchange_rate, confirmations, required_confirmations, status,
		       COALESCE(failure_reason, ''), COALESCE(credited_transaction_id, ''), created_at, updated_at
		FROM crypto_deposits
		WHERE status = ?
		ORDER BY created_at DESC`

	queryGetDepositsByProfile = `
		SELECT id, profile_id, currency, network, COALESCE(address, ''), amount_crypto, amount_usd,
		       exchange_rate, confirmations, required_confirmations, status,
		       COALESCE(failure_reason, ''), COALESCE(credited_transaction_id, ''), created_at, updated_at
		FROM crypto_deposits
		WHERE profile_id = ?
		ORDER BY created_at DESC`

	// Confirmations may only move forward while the deposit is live.
	queryAdvanceConfirmations = `
		UPDATE crypto_deposits
		SET confirmations = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN ('pending', 'confirmed') AND confirmations <= ?`

	querySettleDeposit = `
		UPDATE crypto_deposits
		SET status = 'completed', amount_usd = ?, credited_transaction_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'confirmed'`

	queryFailDeposit = `
		UPDATE crypto_deposits
		SET status = 'failed', failure_reason = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN ('pending', 'confirmed')`
)
