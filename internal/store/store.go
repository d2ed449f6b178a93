package store

import (
	"context"
	"iter"

	"mcengine-currency-go/internal/models"

	"github.com/shopspring/decimal"
)

// Tx is the atomic unit handed to WithinTx callbacks. Every write made through
// a Tx is committed together or not at all.
type Tx interface {
	// --- Account Store ---
	GetBalance(ctx context.Context, accountId, denomination string) (decimal.Decimal, error)
	SetBalance(ctx context.Context, accountId, denomination string, amount decimal.Decimal) error
	Initialize(ctx context.Context, accountId string, denominations []string) error

	// --- Transaction Log ---
	AppendTransaction(ctx context.Context, record *models.Transaction) (string, error)
	AppendJournal(ctx context.Context, entry *models.JournalEntry) error
	HasRedemption(ctx context.Context, serial string) (bool, error)
}

// LedgerStore defines the contract that every backend (SQLite, Postgres, ...) must satisfy.
// Only the ledger engine may call the mutating methods.
type LedgerStore interface {
	// --- Accounts ---
	GetBalance(ctx context.Context, accountId, denomination string) (decimal.Decimal, error)
	GetAllBalances(ctx context.Context, accountId string) ([]models.AccountBalance, error)
	Exists(ctx context.Context, accountId string) (bool, error)
	Initialize(ctx context.Context, accountId string, denominations []string) error
	ListAccounts(ctx context.Context) ([]string, error)

	// --- Atomic unit ---
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// --- Transactions ---
	// QueryByAccount yields every record the account is a party of, oldest
	// first. Each range over the sequence re-runs the query.
	QueryByAccount(ctx context.Context, accountId string) iter.Seq2[models.Transaction, error]
	GetTransactionHistory(ctx context.Context, accountId, denomination string, limit, offset int) ([]models.Transaction, error)
	ReconcileBalance(ctx context.Context, accountId, denomination string) error

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}
