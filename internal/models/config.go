package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Auth       AuthConfig
	Stablecoin StablecoinConfig
	Events     EventsConfig
	Jobs       JobsConfig
}

// DatabaseConfig holds ledger backend settings
type DatabaseConfig struct {
	Backend         string // "memory" or "sqlite"
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	SeedDemoData    bool
	SeedFile        string
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port            string
	EnableH2C       bool
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

// AuthConfig holds session token settings
type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	BcryptCost  int
}

// StablecoinConfig holds the synthetic BRL/stable pricing parameters
type StablecoinConfig struct {
	BaseRate          decimal.Decimal
	Spread            decimal.Decimal
	MaxCommitAttempts int
}

// EventsConfig holds RabbitMQ publishing settings
type EventsConfig struct {
	RabbitMQURL string
	Exchange    string
}

// JobsConfig holds background job schedules
type JobsConfig struct {
	RevaluationSchedule string
}
