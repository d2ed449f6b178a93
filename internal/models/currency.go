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
	"strings"

	"github.com/shopspring/decimal"
)

// Reserved party ids. Neither can be used as a player account.
const (
	SystemAccount = "system" // counterparty of mint credits
	CashAccount   = "cash"   // counterparty of cash-out / cash-in records
)

// TransactionKind enumerates the record kinds written to the transaction log
type TransactionKind string

const (
	KindMint    TransactionKind = "mint"
	KindPay     TransactionKind = "pay"
	KindCashOut TransactionKind = "cash-out"
	KindCashIn  TransactionKind = "cash-in"
)

func (k TransactionKind) IsValid() bool {
	switch k {
	case KindMint, KindPay, KindCashOut, KindCashIn:
		return true
	}
	return false
}

// Denomination is one independently tracked currency tier.
// Precision is the maximum number of fractional digits an amount may carry.
type Denomination struct {
	Name      string `yaml:"name" json:"name"`
	Precision int32  `yaml:"precision" json:"precision"`
}

// Fits reports whether amount can be represented without rounding.
func (d Denomination) Fits(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(d.Precision))
}

// DefaultDenominations is the set used when no denominations file is present.
func DefaultDenominations() []Denomination {
	return []Denomination{
		{Name: "coin", Precision: 2},
		{Name: "copper", Precision: 2},
		{Name: "silver", Precision: 2},
		{Name: "gold", Precision: 2},
	}
}

// DenominationSet is the closed set of denominations fixed at process start.
type DenominationSet struct {
	ordered []Denomination
	byName  map[string]Denomination
}

// NewDenominationSet builds a set; names are case-insensitive and the first
// occurrence of a duplicated name wins.
func NewDenominationSet(denominations []Denomination) DenominationSet {
	set := DenominationSet{byName: make(map[string]Denomination, len(denominations))}
	for _, d := range denominations {
		d.Name = NormalizeDenomination(d.Name)
		if d.Name == "" {
			continue
		}
		if _, ok := set.byName[d.Name]; ok {
			continue
		}
		set.byName[d.Name] = d
		set.ordered = append(set.ordered, d)
	}
	return set
}

func (s DenominationSet) Lookup(name string) (Denomination, bool) {
	d, ok := s.byName[NormalizeDenomination(name)]
	return d, ok
}

func (s DenominationSet) Names() []string {
	names := make([]string, len(s.ordered))
	for i, d := range s.ordered {
		names[i] = d.Name
	}
	return names
}

func (s DenominationSet) All() []Denomination {
	return append([]Denomination(nil), s.ordered...)
}

func (s DenominationSet) Len() int {
	return len(s.ordered)
}

func NormalizeDenomination(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
