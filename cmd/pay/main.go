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

	fromFlag := flag.String("from", "", "Paying account id (required)")
	toFlag := flag.String("to", "", "Receiving account id (required)")
	denominationFlag := flag.String("denomination", "", "Denomination name (required)")
	amountFlag := flag.String("amount", "", "Positive decimal amount (required)")
	noteFlag := flag.String("note", "", "Free-form note stored with the record")
	flag.Parse()

	if *fromFlag == "" || *toFlag == "" || *denominationFlag == "" || *amountFlag == "" {
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

	record, err := services.Ledger.Transfer(ctx, *fromFlag, *toFlag, *denominationFlag, *amountFlag, *noteFlag)
	if err != nil {
		logger.Fatal("Transfer failed",
			zap.String("from", *fromFlag),
			zap.String("to", *toFlag),
			zap.Error(err))
	}

	fmt.Println(common.FormatRecord(record))
	for _, id := range []string{*fromFlag, *toFlag} {
		balances, err := services.Ledger.GetBalances(ctx, id)
		if err != nil {
			logger.Error("Failed to read balances", zap.String("account_id", id), zap.Error(err))
			continue
		}
		common.PrintBalances(id, balances)
	}
}
