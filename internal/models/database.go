package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance represents current balance state (hot data)
type AccountBalance struct {
	Id           string          `db:"id"`
	AccountId    string          `db:"account_id"`
	Denomination string          `db:"denomination"`
	Balance      decimal.Decimal `db:"balance"`
	Version      int64           `db:"version"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// Transaction represents an immutable transfer record (cold data)
type Transaction struct {
	Id           string          `db:"id"`
	Seq          int64           `db:"seq"`
	From         string          `db:"from_account"`
	To           string          `db:"to_account"`
	Denomination string          `db:"denomination"`
	Amount       decimal.Decimal `db:"amount"`
	Kind         TransactionKind `db:"kind"`
	Note         string          `db:"note"`
	Reference    string          `db:"reference"` // token serial for cash records
	CreatedAt    time.Time       `db:"created_at"`
}

// Involves reports whether accountId is a party of the record.
func (t Transaction) Involves(accountId string) bool {
	return t.From == accountId || t.To == accountId
}

// JournalEntry is one side of a balance movement. Every balance change writes
// exactly one entry, including debits that carry no transaction record.
type JournalEntry struct {
	Id            string          `db:"id"`
	TransactionId string          `db:"transaction_id"` // empty for standalone debits
	AccountId     string          `db:"account_id"`
	Denomination  string          `db:"denomination"`
	Debit         decimal.Decimal `db:"debit_amount"`
	Credit        decimal.Decimal `db:"credit_amount"`
	CreatedAt     time.Time       `db:"created_at"`
}
