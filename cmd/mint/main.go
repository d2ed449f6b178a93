package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"mcengine-currency-go/internal/common"
	"mcengine-currency-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger(os.Getenv("LOG_LEVEL"))
	defer loggerCleanup()

	accountFlag := flag.String("account", "", "Account id (required)")
	denominationFlag := flag.String("denomination", "", "Denomination name (required)")
	amountFlag := flag.String("amount", "", "Positive decimal amount (required)")
	debitFlag := flag.Bool("debit", false, "Remove the amount instead of minting it")
	flag.Parse()

	if *accountFlag == "" || *denominationFlag == "" || *amountFlag == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if *debitFlag {
		if err := services.Ledger.Debit(ctx, *accountFlag, *denominationFlag, *amountFlag); err != nil {
			logger.Fatal("Debit failed", zap.Error(err))
		}
		fmt.Printf("Debited %s %s from %s\n", *amountFlag, *denominationFlag, *accountFlag)
	} else {
		record, err := services.Ledger.Credit(ctx, *accountFlag, *denominationFlag, *amountFlag)
		if err != nil {
			logger.Fatal("Credit failed", zap.Error(err))
		}
		fmt.Println(common.FormatRecord(record))
	}

	balances, err := services.Ledger.GetBalances(ctx, *accountFlag)
	if err != nil {
		logger.Fatal("Failed to read balances", zap.Error(err))
	}
	common.PrintBalances(*accountFlag, balances)
}
