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
	"iter"
	"strings"

	"mcengine-currency-go/internal/models"
	"mcengine-currency-go/internal/store"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Credit mints amount into an account
func (s *LedgerService) Credit(ctx context.Context, accountId, denomination, amount string) (models.TransactionRecord, error) {
	value, err := ParseAmount(amount)
	if err != nil {
		return models.TransactionRecord{}, err
	}
	record, err := s.engine.Credit(ctx, strings.TrimSpace(accountId), denomination, value)
	if err != nil {
		return models.TransactionRecord{}, err
	}
	return models.NewTransactionRecord(record), nil
}

// Debit removes amount from an account without writing a transaction record
func (s *LedgerService) Debit(ctx context.Context, accountId, denomination, amount string) error {
	value, err := ParseAmount(amount)
	if err != nil {
		return err
	}
	return s.engine.Debit(ctx, strings.TrimSpace(accountId), denomination, value)
}

// Transfer pays amount from one account to another
func (s *LedgerService) Transfer(ctx context.Context, fromId, toId, denomination, amount, note string) (models.TransactionRecord, error) {
	value, err := ParseAmount(amount)
	if err != nil {
		return models.TransactionRecord{}, err
	}
	record, err := s.engine.Transfer(ctx, strings.TrimSpace(fromId), strings.TrimSpace(toId), denomination, value, strings.TrimSpace(note))
	if err != nil {
		return models.TransactionRecord{}, err
	}
	return models.NewTransactionRecord(record), nil
}

// QueryByAccount yields the account's full history, oldest first
func (s *LedgerService) QueryByAccount(ctx context.Context, accountId string) iter.Seq2[models.TransactionRecord, error] {
	return func(yield func(models.TransactionRecord, error) bool) {
		for tx, err := range s.store.QueryByAccount(ctx, strings.TrimSpace(accountId)) {
			if err != nil {
				yield(models.TransactionRecord{}, err)
				return
			}
			if !yield(models.NewTransactionRecord(tx), nil) {
				return
			}
		}
	}
}

// History returns a newest-first page of an account's records. An empty
// denomination matches all.
func (s *LedgerService) History(ctx context.Context, accountId, denomination string, limit, offset int) ([]models.TransactionRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)
	if offset < 0 {
		offset = 0
	}
	if denomination != "" {
		d, ok := s.engine.Denominations().Lookup(denomination)
		if !ok {
			return nil, fmt.Errorf("%w: %q", store.ErrUnknownDenomination, denomination)
		}
		denomination = d.Name
	}

	transactions, err := s.store.GetTransactionHistory(ctx, strings.TrimSpace(accountId), denomination, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve transaction history: %w", err)
	}

	result := make([]models.TransactionRecord, len(transactions))
	for i, tx := range transactions {
		result[i] = models.NewTransactionRecord(tx)
	}
	return result, nil
}
