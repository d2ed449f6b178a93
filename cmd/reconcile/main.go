package main

import (
	"context"
	"flag"
	"os"

	"mcengine-currency-go/internal/common"
	"mcengine-currency-go/internal/config"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger(os.Getenv("LOG_LEVEL"))
	defer loggerCleanup()

	accountFlag := flag.String("account", "", "Reconcile a single account (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if *accountFlag != "" {
		err = services.Ledger.Reconcile(ctx, *accountFlag)
	} else {
		err = services.Ledger.ReconcileAll(ctx)
	}

	if err != nil {
		for _, e := range multierr.Errors(err) {
			logger.Error("Reconciliation mismatch", zap.Error(e))
		}
		services.Close()
		loggerCleanup()
		os.Exit(1)
	}
	logger.Info("All balances reconcile with the journal")
}
