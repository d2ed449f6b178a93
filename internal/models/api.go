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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DenominationBalance represents an account's balance for one denomination
type DenominationBalance struct {
	Denomination string          `json:"denomination"`
	Balance      decimal.Decimal `json:"balance"`
}

// TransactionRecord represents a transaction in an account's history
type TransactionRecord struct {
	Id           string          `json:"id"`
	Kind         TransactionKind `json:"kind"`
	From         string          `json:"from"`
	To           string          `json:"to"`
	Denomination string          `json:"denomination"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewTransactionRecord converts a stored transaction for display
func NewTransactionRecord(tx Transaction) TransactionRecord {
	return TransactionRecord{
		Id:           tx.Id,
		Kind:         tx.Kind,
		From:         tx.From,
		To:           tx.To,
		Denomination: tx.Denomination,
		Amount:       tx.Amount,
		Note:         tx.Note,
		CreatedAt:    tx.CreatedAt,
	}
}
