package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Sweeper  SweeperConfig
	Auth     AuthConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	ListenAddr      string
	ShutdownTimeout time.Duration
	NetworksFile    string
}

// SweeperConfig holds maturity sweep settings
type SweeperConfig struct {
	PollingInterval time.Duration
	BatchSize       int
}

// AuthConfig holds admin token settings
type AuthConfig struct {
	JwtSecret     string
	TokenLifespan time.Duration
}
