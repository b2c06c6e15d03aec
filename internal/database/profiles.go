package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProfile inserts a profile and its zero-balance portfolio in
// one transaction. passwordHash may be empty for non-admin profiles.
func (s *Service) CreateProfile(ctx context.Context, email, fullName string, isAdmin bool, passwordHash string) (*models.Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	profileId := uuid.New().String()
	_, err = tx.ExecContext(ctx, queryInsertProfile, profileId, email, fullName, isAdmin, passwordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: email %s", store.ErrProfileExists, email)
		}
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx, queryInsertPortfolio, uuid.New().String(), profileId); err != nil {
		return nil, fmt.Errorf("failed to insert portfolio: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit profile creation: %w", err)
	}

	zap.L().Info("Profile created",
		zap.String("profile_id", profileId),
		zap.String("email", email),
		zap.Bool("is_admin", isAdmin))

	return s.GetProfileById(ctx, profileId)
}

func (s *Service) GetProfileById(ctx context.Context, profileId string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRowContext(ctx, queryGetProfileById, profileId).
		Scan(&p.Id, &p.Email, &p.FullName, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: profile %s", store.ErrOwnerNotFound, profileId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func (s *Service) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRowContext(ctx, queryGetProfileByEmail, email).
		Scan(&p.Id, &p.Email, &p.FullName, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: email %s", store.ErrOwnerNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}
	return &p, nil
}

func (s *Service) GetProfiles(ctx context.Context) ([]models.Profile, error) {
	rows, err := s.db.QueryContext(ctx, queryGetProfiles)
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.Id, &p.Email, &p.FullName, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profile rows: %w", err)
	}
	return profiles, nil
}

// GetAdminPasswordHash returns the stored bcrypt hash for an admin
// profile, or ErrOwnerNotFound if no such admin exists.
func (s *Service) GetAdminPasswordHash(ctx context.Context, email string) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRowContext(ctx, queryGetPasswordHash, email).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: admin %s", store.ErrOwnerNotFound, email)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get password hash: %w", err)
	}
	return hash.String, nil
}

// rowScanner abstracts sql.Row / sql.Rows for entity scans.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPortfolioRow(row rowScanner) (*models.Portfolio, error) {
	var p models.Portfolio
	var balanceStr, investedStr, profitStr string
	err := row.Scan(&p.Id, &p.ProfileId, &balanceStr, &investedStr, &profitStr,
		&p.LastTransactionId, &p.Version, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if p.Balance, err = decimal.NewFromString(balanceStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
	}
	if p.TotalInvested, err = decimal.NewFromString(investedStr); err != nil {
		return nil, fmt.Errorf("failed to parse total_invested '%s': %w", investedStr, err)
	}
	if p.TotalProfit, err = decimal.NewFromString(profitStr); err != nil {
		return nil, fmt.Errorf("failed to parse total_profit '%s': %w", profitStr, err)
	}
	return &p, nil
}

// GetPortfolio returns the cached portfolio row for a profile.
func (s *Service) GetPortfolio(ctx context.Context, profileId string) (*models.Portfolio, error) {
	portfolio, err := scanPortfolioRow(s.db.QueryRowContext(ctx, queryGetPortfolio, profileId))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no portfolio for profile %s", store.ErrOwnerNotFound, profileId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return portfolio, nil
}
