package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mcengine-currency-go/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LEDGER_DENOMINATIONS_FILE", filepath.Join(t.TempDir(), "none.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, models.BackendSQLite, cfg.Backend)
	assert.Equal(t, "currency.db", cfg.Database.Path)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 2*time.Second, cfg.Ledger.LockTimeout)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Token.SingleUse)
	assert.Equal(t, models.DefaultDenominations(), cfg.Ledger.Denominations)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEDGER_DENOMINATIONS_FILE", filepath.Join(t.TempDir(), "none.yaml"))
	t.Setenv("LEDGER_BACKEND", "Postgres")
	t.Setenv("POSTGRES_DSN", "postgres://ledger@localhost/ledger")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "750ms")
	t.Setenv("LEDGER_TOKEN_SECRET", "shh")
	t.Setenv("LEDGER_TOKEN_SINGLE_USE", "true")
	t.Setenv("DATABASE_PATH", "/tmp/other.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, models.BackendPostgres, cfg.Backend)
	assert.Equal(t, "postgres://ledger@localhost/ledger", cfg.Postgres.DSN)
	assert.Equal(t, 750*time.Millisecond, cfg.Ledger.LockTimeout)
	assert.Equal(t, "shh", cfg.Token.Secret)
	assert.True(t, cfg.Token.SingleUse)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("LEDGER_DENOMINATIONS_FILE", filepath.Join(t.TempDir(), "none.yaml"))

	t.Run("backend", func(t *testing.T) {
		t.Setenv("LEDGER_BACKEND", "mysql")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("LEDGER_BACKEND", "postgres")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("LEDGER_LOCK_TIMEOUT", "soon")
		_, err := Load()
		assert.Error(t, err)
	})
}
