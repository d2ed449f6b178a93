/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"mcengine-currency-go/internal/api"
	"mcengine-currency-go/internal/common"
	"mcengine-currency-go/internal/config"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalAccounts        int
	accountsWithBalances int
	nonZeroBalances      int
}

func processAccount(ctx context.Context, accountId string, ledger *api.LedgerService) (int, error) {
	balances, err := ledger.GetBalances(ctx, accountId)
	if err != nil {
		return 0, fmt.Errorf("failed to get balances: %w", err)
	}

	nonZero := 0
	for _, b := range balances {
		if !b.Balance.IsZero() {
			nonZero++
		}
	}

	common.PrintBalances(accountId, balances)
	return nonZero, nil
}

func processAccountsAndGenerateReport(ctx context.Context, accounts []string, ledger *api.LedgerService, logger *zap.Logger) balanceStats {
	stats := balanceStats{}

	for _, accountId := range accounts {
		stats.totalAccounts++

		nonZero, err := processAccount(ctx, accountId, ledger)
		if err != nil {
			logger.Error("Failed to process account",
				zap.String("account_id", accountId),
				zap.Error(err))
			continue
		}

		if nonZero > 0 {
			stats.accountsWithBalances++
			stats.nonZeroBalances += nonZero
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger(os.Getenv("LOG_LEVEL"))
	defer loggerCleanup()

	accountFlag := flag.String("account", "", "Filter by specific account id (optional)")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	accounts, err := common.ResolveAccounts(ctx, services.Ledger, *accountFlag)
	if err != nil {
		logger.Fatal("Failed to resolve accounts", zap.Error(err))
	}

	common.PrintHeader("ACCOUNT BALANCE REPORT", common.DefaultWidth)

	stats := processAccountsAndGenerateReport(ctx, accounts, services.Ledger, logger)

	summary := fmt.Sprintf("SUMMARY: %d accounts with balances (%d non-zero balances across %d accounts queried)",
		stats.accountsWithBalances, stats.nonZeroBalances, stats.totalAccounts)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("accounts_queried", stats.totalAccounts),
		zap.Int("accounts_with_balances", stats.accountsWithBalances),
		zap.Int("non_zero_balances", stats.nonZeroBalances))
}
