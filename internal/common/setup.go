package common

import (
	"context"
	"log"
	"strings"

	"invest-ledger-go/internal/auth"
	"invest-ledger-go/internal/database"
	"invest-ledger-go/internal/deposits"
	"invest-ledger-go/internal/invest"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/portfolio"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

type Services struct {
	DbService      *database.Service
	InvestService  *invest.Service
	DepositService *deposits.Service
	ReadService    *portfolio.Service
	AuthManager    *auth.Manager
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Loading network confirmation policy", zap.String("file", cfg.Server.NetworksFile))
	policies, err := LoadNetworkPolicies(cfg.Server.NetworksFile)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	authManager, err := auth.NewManager(cfg.Auth.JwtSecret, cfg.Auth.TokenLifespan)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	return &Services{
		DbService:      dbService,
		InvestService:  invest.NewService(dbService),
		DepositService: deposits.NewService(dbService, policies),
		ReadService:    portfolio.NewService(dbService),
		AuthManager:    authManager,
	}, nil
}

func (s *Services) Close() {
	s.DbService.Close()
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
