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
	denominationFlag := flag.String("denomination", "", "Only show this denomination (optional)")
	limitFlag := flag.Int("limit", 20, "Page size, newest first")
	offsetFlag := flag.Int("offset", 0, "Records to skip")
	allFlag := flag.Bool("all", false, "Stream every record in commit order")
	flag.Parse()

	if *accountFlag == "" {
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

	common.PrintHeader(fmt.Sprintf("TRANSACTION HISTORY: %s", *accountFlag), common.WideWidth)

	count := 0
	if *allFlag {
		for record, err := range services.Ledger.QueryByAccount(ctx, *accountFlag) {
			if err != nil {
				logger.Fatal("Failed to query transactions", zap.Error(err))
			}
			fmt.Println(common.FormatRecord(record))
			count++
		}
	} else {
		records, err := services.Ledger.History(ctx, *accountFlag, *denominationFlag, *limitFlag, *offsetFlag)
		if err != nil {
			logger.Fatal("Failed to get history", zap.Error(err))
		}
		for _, record := range records {
			fmt.Println(common.FormatRecord(record))
		}
		count = len(records)
	}

	common.PrintFooter(fmt.Sprintf("%d records", count), common.WideWidth)
}
