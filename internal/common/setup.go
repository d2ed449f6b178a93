package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"mcengine-currency-go/internal/api"
	"mcengine-currency-go/internal/database"
	"mcengine-currency-go/internal/ledger"
	"mcengine-currency-go/internal/metrics"
	"mcengine-currency-go/internal/models"
	"mcengine-currency-go/internal/postgres"
	"mcengine-currency-go/internal/store"
	"mcengine-currency-go/internal/token"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	Store    store.LedgerStore
	Engine   *ledger.Engine
	Ledger   *api.LedgerService
	Registry *prometheus.Registry
}

// InitializeLogger installs a production zap logger as the global logger.
// An unknown level falls back to info.
func InitializeLogger(level string) (*zap.Logger, func()) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		atomic, err := zap.ParseAtomicLevel(level)
		if err != nil {
			log.Printf("Unknown LOG_LEVEL %q, using info\n", level)
		} else {
			cfg.Level = atomic
		}
	}

	logger, err := cfg.Build()
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

// InitializeStore opens the backend selected by LEDGER_BACKEND
func InitializeStore(ctx context.Context, cfg *models.Config) (store.LedgerStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case models.BackendSQLite, "":
		svc, err := database.NewService(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case models.BackendPostgres:
		svc, err := postgres.NewService(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

// InitializeServices wires store, codec, engine and facade. Metrics are
// registered on a fresh registry exposed through Services.Registry.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	ledgerStore, err := InitializeStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	denominations := models.NewDenominationSet(cfg.Ledger.Denominations)
	if denominations.Len() == 0 {
		denominations = models.NewDenominationSet(models.DefaultDenominations())
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	codec := token.NewCodec(denominations, cfg.Token.Secret)
	if !codec.Sealed() {
		zap.L().Warn("LEDGER_TOKEN_SECRET not set, cash tokens are unsealed")
	}

	engine, err := ledger.New(ledgerStore, codec, ledger.Config{
		Denominations:   denominations,
		LockTimeout:     cfg.Ledger.LockTimeout,
		SingleUseTokens: cfg.Token.SingleUse,
	}, metrics.NewLedgerMetrics(registry))
	if err != nil {
		ledgerStore.Close()
		return nil, err
	}

	zap.L().Info("Ledger initialized",
		zap.String("backend", cfg.Backend),
		zap.Strings("denominations", denominations.Names()),
		zap.Bool("single_use_tokens", cfg.Token.SingleUse))

	return &Services{
		Store:    ledgerStore,
		Engine:   engine,
		Ledger:   api.NewLedgerService(ledgerStore, engine),
		Registry: registry,
	}, nil
}

func (cs *Services) Close() {
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
