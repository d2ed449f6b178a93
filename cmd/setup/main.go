package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"mcengine-currency-go/internal/common"
	"mcengine-currency-go/internal/config"

	"go.uber.org/zap"
)

// ensureAccounts creates zero balances in every denomination for each id
func ensureAccounts(ctx context.Context, services *common.Services, ids []string) {
	var created, failed int
	var failedAccounts []string

	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}

		zap.L().Info("Ensuring account", zap.String("account_id", id))
		if err := services.Ledger.EnsureAccount(ctx, id); err != nil {
			zap.L().Error("Failed to ensure account", zap.String("account_id", id), zap.Error(err))
			failed++
			failedAccounts = append(failedAccounts, id)
			continue
		}
		created++
	}

	if failed > 0 {
		zap.L().Warn("Account setup completed with some failures",
			zap.Int("accounts_ready", created),
			zap.Int("failed_accounts", failed),
			zap.Strings("failed_account_ids", failedAccounts))
	} else {
		zap.L().Info("Account setup completed successfully", zap.Int("accounts_ready", created))
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger(os.Getenv("LOG_LEVEL"))
	defer loggerCleanup()

	accountsFlag := flag.String("accounts", "", "Comma-separated account ids to create (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	// Opening the store creates the schema or applies pending migrations.
	zap.L().Info("Initializing ledger storage", zap.String("backend", cfg.Backend))
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if *accountsFlag != "" {
		ensureAccounts(ctx, services, strings.Split(*accountsFlag, ","))
	}

	zap.L().Info("Initialization complete")
}
