package models

import "time"

// Backend names accepted by LEDGER_BACKEND
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config represents the application configuration
type Config struct {
	Backend  string `envconfig:"LEDGER_BACKEND" default:"sqlite"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Database DatabaseConfig
	Postgres PostgresConfig
	Ledger   LedgerConfig
	Token    TokenConfig
	Server   ServerConfig
}

// DatabaseConfig holds SQLite connection settings
type DatabaseConfig struct {
	Path            string        `envconfig:"DATABASE_PATH" default:"currency.db"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"30s"`
	PingTimeout     time.Duration `envconfig:"DB_PING_TIMEOUT" default:"5s"`
	BusyTimeout     time.Duration `envconfig:"DB_BUSY_TIMEOUT" default:"5s"`
}

// PostgresConfig holds client-server database settings
type PostgresConfig struct {
	DSN             string        `envconfig:"POSTGRES_DSN"`
	MaxOpenConns    int           `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"POSTGRES_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"1h"`
	PingTimeout     time.Duration `envconfig:"POSTGRES_PING_TIMEOUT" default:"5s"`
}

// LedgerConfig holds engine settings. Denominations is filled from
// DenominationsFile after the environment is processed.
type LedgerConfig struct {
	DenominationsFile string         `envconfig:"LEDGER_DENOMINATIONS_FILE" default:"denominations.yaml"`
	LockTimeout       time.Duration  `envconfig:"LEDGER_LOCK_TIMEOUT" default:"2s"`
	AuditInterval     time.Duration  `envconfig:"LEDGER_AUDIT_INTERVAL" default:"0"`
	AuditConcurrency  int            `envconfig:"LEDGER_AUDIT_CONCURRENCY" default:"4"`
	Denominations     []Denomination `ignored:"true"`
}

// TokenConfig holds cash token settings
type TokenConfig struct {
	Secret    string `envconfig:"LEDGER_TOKEN_SECRET"`
	SingleUse bool   `envconfig:"LEDGER_TOKEN_SINGLE_USE" default:"false"`
}

// ServerConfig holds the admin HTTP listener settings
type ServerConfig struct {
	Addr              string        `envconfig:"HTTP_ADDR" default:":8080"`
	ReadHeaderTimeout time.Duration `envconfig:"HTTP_READ_HEADER_TIMEOUT" default:"5s"`
	ShutdownTimeout   time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}
