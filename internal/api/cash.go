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
	"strings"

	"mcengine-currency-go/internal/token"

	"github.com/shopspring/decimal"
)

// CashOut converts part of a balance into a token payload. The caller attaches
// payload.Fields() to the object it hands out.
func (s *LedgerService) CashOut(ctx context.Context, accountId, denomination, amount string) (token.Payload, error) {
	value, err := ParseAmount(amount)
	if err != nil {
		return token.Payload{}, err
	}
	return s.engine.CashOut(ctx, strings.TrimSpace(accountId), denomination, value)
}

// CashIn redeems a payload into the account. On success the caller must
// destroy the object the payload came from exactly once.
func (s *LedgerService) CashIn(ctx context.Context, accountId string, payload token.Payload) (decimal.Decimal, error) {
	return s.engine.CashIn(ctx, strings.TrimSpace(accountId), payload)
}

// CashInFields redeems a token read from an object's attached fields
func (s *LedgerService) CashInFields(ctx context.Context, accountId string, fields map[string]string) (decimal.Decimal, error) {
	return s.CashIn(ctx, accountId, token.FromFields(fields))
}
