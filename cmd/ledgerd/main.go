package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"mcengine-currency-go/internal/auditor"
	"mcengine-currency-go/internal/common"
	"mcengine-currency-go/internal/config"
	"mcengine-currency-go/internal/metrics"
	"mcengine-currency-go/internal/server"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, loggerCleanup := common.InitializeLogger(os.Getenv("LOG_LEVEL"))
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if cfg.Ledger.AuditInterval > 0 {
		audit := auditor.New(services.Ledger, cfg.Ledger.AuditInterval, cfg.Ledger.AuditConcurrency,
			metrics.NewAuditMetrics(services.Registry))
		if err := audit.Start(ctx); err != nil {
			logger.Fatal("Failed to start auditor", zap.Error(err))
		}
		defer audit.Stop()
	}

	router := server.NewRouter(services.Ledger, services.Registry)
	srv := server.NewServer(cfg.Server, router)

	if err := server.Run(ctx, cfg.Server, srv); err != nil {
		logger.Error("Admin server stopped", zap.Error(err))
		return
	}
	logger.Info("Admin server stopped")
}
