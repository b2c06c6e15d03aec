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

package sweeper

import (
	"context"
	"time"

	"invest-ledger-go/internal/store"

	"go.uber.org/zap"
)

// Config contains configuration for the maturity sweeper
type Config struct {
	Ledger          store.MaturityLedger
	PollingInterval time.Duration
	BatchSize       int
}

// Sweeper periodically settles investments whose end date has passed.
// Maturity is idempotent and atomic in the ledger, so the sweep is
// safe to run concurrently with itself and with user actions.
type Sweeper struct {
	ledger          store.MaturityLedger
	pollingInterval time.Duration
	batchSize       int

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}
}

func New(cfg Config) *Sweeper {
	return &Sweeper{
		ledger:          cfg.Ledger,
		pollingInterval: cfg.PollingInterval,
		batchSize:       cfg.BatchSize,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start launches the sweep loop. An immediate pass runs before the
// first tick so restarts settle overdue positions without delay.
func (s *Sweeper) Start(ctx context.Context) {
	zap.L().Info("Starting maturity sweeper",
		zap.Duration("polling_interval", s.pollingInterval),
		zap.Int("batch_size", s.batchSize))

	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.doneChan)

	s.SweepOnce(ctx)

	ticker := time.NewTicker(s.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepOnce(ctx)
		case <-s.stopChan:
			zap.L().Info("Maturity sweeper stopping")
			return
		case <-ctx.Done():
			zap.L().Info("Maturity sweeper context cancelled")
			return
		}
	}
}

// SweepOnce settles every currently due investment, draining in
// batches until none remain. Individual failures are logged and left
// for the next pass.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	totalSettled := 0
	for {
		ids, err := s.ledger.ListMaturedInvestmentIds(ctx, s.batchSize)
		if err != nil {
			zap.L().Error("Failed to list matured investments", zap.Error(err))
			return
		}
		if len(ids) == 0 {
			break
		}

		settled := 0
		for _, id := range ids {
			if _, err := s.ledger.Mature(ctx, id); err != nil {
				zap.L().Error("Failed to mature investment",
					zap.String("investment_id", id),
					zap.Error(err))
				continue
			}
			settled++
		}
		totalSettled += settled

		// A batch where nothing settled means every row is failing;
		// bail out instead of spinning on it.
		if settled == 0 {
			break
		}
	}

	if totalSettled > 0 {
		zap.L().Info("Maturity sweep completed", zap.Int("settled", totalSettled))
	}
}

// Stop signals the loop to exit and waits for it to finish.
func (s *Sweeper) Stop() {
	close(s.stopChan)
	<-s.doneChan
}
