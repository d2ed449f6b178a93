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

package api

import (
	"context"
	"fmt"
	"strings"

	"mcengine-currency-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// GetBalance returns the current balance for an account and denomination
func (s *LedgerService) GetBalance(ctx context.Context, accountId, denomination string) (decimal.Decimal, error) {
	balance, err := s.engine.GetBalance(ctx, strings.TrimSpace(accountId), denomination)
	if err != nil {
		zap.L().Error("Failed to get balance",
			zap.String("account_id", accountId),
			zap.String("denomination", denomination),
			zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to retrieve balance: %w", err)
	}
	return balance, nil
}

// GetBalances returns every configured denomination for an account, zero balances included
func (s *LedgerService) GetBalances(ctx context.Context, accountId string) ([]models.DenominationBalance, error) {
	balances, err := s.engine.Balances(ctx, strings.TrimSpace(accountId))
	if err != nil {
		zap.L().Error("Failed to get balances", zap.String("account_id", accountId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve balances: %w", err)
	}
	return balances, nil
}

// Reconcile checks every denomination of an account against its journal.
// All mismatches are reported, not just the first.
func (s *LedgerService) Reconcile(ctx context.Context, accountId string) error {
	var errs error
	for _, denomination := range s.Denominations() {
		if err := s.store.ReconcileBalance(ctx, accountId, denomination); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", denomination, err))
		}
	}
	return errs
}

// ReconcileAll reconciles every known account
func (s *LedgerService) ReconcileAll(ctx context.Context) error {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	var errs error
	for _, accountId := range accounts {
		if err := s.Reconcile(ctx, accountId); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", accountId, err))
		}
	}
	return errs
}

// Accounts lists every account id the store knows
func (s *LedgerService) Accounts(ctx context.Context) ([]string, error) {
	return s.store.ListAccounts(ctx)
}
