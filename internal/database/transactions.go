package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"mcengine-currency-go/internal/models"
	"mcengine-currency-go/internal/store"
)

// WithinTx runs fn inside a single database transaction. The transaction is
// committed only when fn returns nil; any error or panic rolls it back.
func (s *SubledgerService) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", store.ErrStorageUnavailable, err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil {
				zap.L().Error("Rollback after panic failed", zap.Error(rbErr))
			}
			panic(p)
		}
	}()

	if err := fn(&sqliteTx{tx: sqlTx, svc: s, versions: make(map[balanceKey]int64)}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return multierr.Append(err, fmt.Errorf("%w: rollback: %w", store.ErrStorageUnavailable, rbErr))
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %w", store.ErrStorageUnavailable, err)
	}
	return nil
}

type balanceKey struct {
	accountId    string
	denomination string
}

// sqliteTx tracks the row version seen for every balance it read so updates
// can be checked against concurrent writers.
type sqliteTx struct {
	tx       *sql.Tx
	svc      *SubledgerService
	versions map[balanceKey]int64
}

func (t *sqliteTx) GetBalance(ctx context.Context, accountId, denomination string) (decimal.Decimal, error) {
	var id, balanceStr string
	var version int64
	err := t.tx.QueryRowContext(ctx, queryGetAccountBalance, accountId, denomination).Scan(&id, &balanceStr, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: failed to get current balance: %w", store.ErrStorageUnavailable, err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: failed to parse current balance '%s': %w", store.ErrStorageUnavailable, balanceStr, err)
	}
	t.versions[balanceKey{accountId, denomination}] = version
	return balance, nil
}

func (t *sqliteTx) SetBalance(ctx context.Context, accountId, denomination string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: balance cannot be negative: %s", store.ErrInvalidAmount, amount.String())
	}

	key := balanceKey{accountId, denomination}
	version, seen := t.versions[key]
	if !seen {
		if _, err := t.GetBalance(ctx, accountId, denomination); err != nil {
			return err
		}
		version, seen = t.versions[key]
	}

	if !seen {
		// Create new account balance record
		_, err := t.tx.ExecContext(ctx, queryInsertAccountBalance, uuid.New().String(), accountId, denomination, amount.String())
		if err != nil {
			return fmt.Errorf("%w: failed to create account balance: %w", store.ErrStorageUnavailable, err)
		}
		t.versions[key] = 1
		return nil
	}

	// Update account balance (with optimistic locking)
	result, err := t.tx.ExecContext(ctx, queryUpdateAccountBalance, amount.String(), accountId, denomination, version)
	if err != nil {
		return fmt.Errorf("%w: failed to update balance: %w", store.ErrStorageUnavailable, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to check rows affected: %w", store.ErrStorageUnavailable, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}
	t.versions[key] = version + 1
	return nil
}

// Initialize creates missing zero rows; existing balances are left untouched
func (t *sqliteTx) Initialize(ctx context.Context, accountId string, denominations []string) error {
	for _, denomination := range denominations {
		_, err := t.tx.ExecContext(ctx, queryInitializeAccountBalance, uuid.New().String(), accountId, denomination)
		if err != nil {
			return fmt.Errorf("%w: failed to initialize %s balance: %w", store.ErrStorageUnavailable, denomination, err)
		}
		// Rows may exist now that were absent when last read.
		delete(t.versions, balanceKey{accountId, denomination})
	}
	return nil
}

func (t *sqliteTx) AppendTransaction(ctx context.Context, record *models.Transaction) (string, error) {
	if err := validateRecord(record); err != nil {
		return "", err
	}

	record.Id = uuid.New().String()
	record.CreatedAt = t.svc.now()

	err := t.tx.QueryRowContext(ctx, queryInsertTransaction,
		record.Id, record.From, record.To, record.Denomination, record.Amount.String(),
		string(record.Kind), record.Note, record.Reference, record.CreatedAt).
		Scan(&record.Seq)
	if err != nil {
		return "", fmt.Errorf("%w: failed to insert transaction: %w", store.ErrStorageUnavailable, err)
	}

	zap.L().Debug("Transaction recorded",
		zap.String("transaction_id", record.Id),
		zap.Int64("seq", record.Seq),
		zap.String("kind", string(record.Kind)))
	return record.Id, nil
}

func (t *sqliteTx) AppendJournal(ctx context.Context, entry *models.JournalEntry) error {
	entry.Id = uuid.New().String()
	entry.CreatedAt = t.svc.now()
	_, err := t.tx.ExecContext(ctx, queryInsertJournalEntry,
		entry.Id, entry.TransactionId, entry.AccountId, entry.Denomination,
		entry.Debit.String(), entry.Credit.String(), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to add journal entry: %w", store.ErrStorageUnavailable, err)
	}
	return nil
}

func (t *sqliteTx) HasRedemption(ctx context.Context, serial string) (bool, error) {
	var id string
	err := t.tx.QueryRowContext(ctx, queryCheckRedemption, serial).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: failed to check redemption: %w", store.ErrStorageUnavailable, err)
	}
	return true, nil
}

// validateRecord rejects records the log must never hold
func validateRecord(record *models.Transaction) error {
	if !record.Amount.IsPositive() {
		return fmt.Errorf("%w: transaction amount must be positive, got %s", store.ErrInvalidAmount, record.Amount.String())
	}
	if record.From == "" || record.To == "" {
		return fmt.Errorf("%w: transaction parties cannot be empty", store.ErrInvalidAccount)
	}
	if record.From == record.To {
		return fmt.Errorf("%w: %s", store.ErrSelfTransfer, record.From)
	}
	if !record.Kind.IsValid() {
		return fmt.Errorf("unknown transaction kind %q", record.Kind)
	}
	return nil
}

// QueryByAccount yields the account's records in commit order, one page at a time
func (s *SubledgerService) QueryByAccount(ctx context.Context, accountId string) iter.Seq2[models.Transaction, error] {
	return func(yield func(models.Transaction, error) bool) {
		var after int64
		for {
			page, err := s.transactionPage(ctx, accountId, after)
			if err != nil {
				yield(models.Transaction{}, err)
				return
			}
			for _, record := range page {
				if !yield(record, nil) {
					return
				}
				after = record.Seq
			}
			if len(page) < queryPageSize {
				return
			}
		}
	}
}

func (s *SubledgerService) transactionPage(ctx context.Context, accountId string, after int64) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryTransactionPage, accountId, accountId, after, queryPageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query transactions: %w", store.ErrStorageUnavailable, err)
	}
	return scanTransactions(rows)
}

// GetTransactionHistory returns paginated transaction history for an account, newest first
func (s *SubledgerService) GetTransactionHistory(ctx context.Context, accountId, denomination string, limit, offset int) ([]models.Transaction, error) {
	zap.L().Debug("Getting transaction history",
		zap.String("account_id", accountId),
		zap.String("denomination", denomination),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	if limit <= 0 {
		limit = queryPageSize
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, queryGetTransactionHistory,
		accountId, accountId, denomination, denomination, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get transaction history: %w", store.ErrStorageUnavailable, err)
	}
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var amountStr, kind string
		err := rows.Scan(&tx.Seq, &tx.Id, &tx.From, &tx.To, &tx.Denomination,
			&amountStr, &kind, &tx.Note, &tx.Reference, &tx.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan transaction: %w", store.ErrStorageUnavailable, err)
		}

		tx.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse amount '%s': %w", store.ErrStorageUnavailable, amountStr, err)
		}
		tx.Kind = models.TransactionKind(kind)

		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("%w: error iterating transaction rows: %w", store.ErrStorageUnavailable, err)
	}

	return transactions, nil
}
