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

	"mcengine-currency-go/internal/ledger"
	"mcengine-currency-go/internal/store"

	"github.com/shopspring/decimal"
)

// LedgerService is the entry point for command handlers, interaction
// handlers and operator tools. Mutations go through the engine; reads go
// straight to the store.
type LedgerService struct {
	store  store.LedgerStore
	engine *ledger.Engine
}

func NewLedgerService(s store.LedgerStore, engine *ledger.Engine) *LedgerService {
	return &LedgerService{
		store:  s,
		engine: engine,
	}
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// EnsureAccount should be called on an account's first observed activity
func (s *LedgerService) EnsureAccount(ctx context.Context, accountId string) error {
	return s.engine.EnsureAccount(ctx, strings.TrimSpace(accountId))
}

// Denominations lists the configured denomination names in order
func (s *LedgerService) Denominations() []string {
	return s.engine.Denominations().Names()
}

// ParseAmount parses user-supplied amount text
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", store.ErrInvalidAmount)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", store.ErrInvalidAmount, raw)
	}
	return amount, nil
}
