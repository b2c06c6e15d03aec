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

package common

import (
	"context"
	"fmt"

	"invest-ledger-go/internal/database"
	"invest-ledger-go/internal/models"

	"go.uber.org/zap"
)

// ProfileInfo represents simplified profile information for
// command-line utilities
type ProfileInfo struct {
	Id       string
	FullName string
	Email    string
}

// InitializeDatabaseOnly opens the database service without the rest
// of the stack, for read-only command-line utilities.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	return database.NewService(ctx, cfg.Database)
}

// InitializeProfiles retrieves profiles based on an optional email
// filter. If emailFilter is provided, returns a single profile with
// that email. If emailFilter is empty, returns all profiles.
func InitializeProfiles(ctx context.Context, dbService *database.Service, emailFilter string, logger *zap.Logger) ([]ProfileInfo, error) {
	var profiles []ProfileInfo

	if emailFilter != "" {
		logger.Info("Looking up profile by email", zap.String("email", emailFilter))
		profile, err := dbService.GetProfileByEmail(ctx, emailFilter)
		if err != nil {
			return nil, fmt.Errorf("profile not found: %w", err)
		}
		profiles = append(profiles, ProfileInfo{
			Id:       profile.Id,
			FullName: profile.FullName,
			Email:    profile.Email,
		})
	} else {
		allProfiles, err := dbService.GetProfiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get profiles: %w", err)
		}
		for _, p := range allProfiles {
			profiles = append(profiles, ProfileInfo{
				Id:       p.Id,
				FullName: p.FullName,
				Email:    p.Email,
			})
		}
	}

	logger.Info("Retrieved profiles", zap.Int("count", len(profiles)))
	return profiles, nil
}
