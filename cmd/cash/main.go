package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"mcengine-currency-go/internal/common"
	"mcengine-currency-go/internal/config"
	"mcengine-currency-go/internal/token"

	"go.uber.org/zap"
)

// readFields loads a token's attached fields from a JSON object; "-" reads stdin
func readFields(path string) (map[string]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open token file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var fields map[string]string
	if err := json.NewDecoder(r).Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode token fields: %w", err)
	}
	return fields, nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger(os.Getenv("LOG_LEVEL"))
	defer loggerCleanup()

	accountFlag := flag.String("account", "", "Account id (required)")
	denominationFlag := flag.String("denomination", "", "Denomination to cash out")
	amountFlag := flag.String("amount", "", "Amount to cash out")
	redeemFlag := flag.String("redeem", "", "Redeem the token fields in this JSON file (- for stdin)")
	flag.Parse()

	if *accountFlag == "" || (*redeemFlag == "" && (*denominationFlag == "" || *amountFlag == "")) {
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

	if *redeemFlag != "" {
		fields, err := readFields(*redeemFlag)
		if err != nil {
			logger.Fatal("Failed to read token", zap.Error(err))
		}
		amount, err := services.Ledger.CashInFields(ctx, *accountFlag, fields)
		if err != nil {
			logger.Fatal("Cash-in failed", zap.String("account_id", *accountFlag), zap.Error(err))
		}
		fmt.Printf("Redeemed %s %s into %s\n", amount.String(), fields[token.FieldDenomination], *accountFlag)
	} else {
		payload, err := services.Ledger.CashOut(ctx, *accountFlag, *denominationFlag, *amountFlag)
		if err != nil {
			logger.Fatal("Cash-out failed", zap.String("account_id", *accountFlag), zap.Error(err))
		}
		out, err := json.MarshalIndent(payload.Fields(), "", "  ")
		if err != nil {
			logger.Fatal("Failed to marshal token", zap.Error(err))
		}
		fmt.Println(string(out))
	}

	balances, err := services.Ledger.GetBalances(ctx, *accountFlag)
	if err != nil {
		logger.Fatal("Failed to read balances", zap.Error(err))
	}
	common.PrintBalances(*accountFlag, balances)
}
