package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"mcengine-currency-go/internal/models"
	"mcengine-currency-go/internal/store"
)

// WithinTx runs fn inside a transaction.
// It commits if fn returns nil, otherwise it rolls back.
func (s *Service) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin tx", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&pgTx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return multierr.Append(err, storageErr("rollback", rbErr))
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return storageErr("commit tx", err)
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

// GetBalance locks the row until the transaction ends
func (t *pgTx) GetBalance(ctx context.Context, accountId, denomination string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := t.tx.QueryRowContext(ctx, queryLockBalance, accountId, denomination).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, storageErr("lock balance", err)
	}
	return balance, nil
}

func (t *pgTx) SetBalance(ctx context.Context, accountId, denomination string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: balance cannot be negative: %s", store.ErrInvalidAmount, amount.String())
	}
	if _, err := t.tx.ExecContext(ctx, queryUpsertAccountBalance, uuid.NewString(), accountId, denomination, amount); err != nil {
		return storageErr("set balance", err)
	}
	return nil
}

func (t *pgTx) Initialize(ctx context.Context, accountId string, denominations []string) error {
	for _, denomination := range denominations {
		if _, err := t.tx.ExecContext(ctx, queryInitializeAccountBalance, uuid.NewString(), accountId, denomination); err != nil {
			return storageErr("initialize "+denomination, err)
		}
	}
	return nil
}

func (t *pgTx) AppendTransaction(ctx context.Context, record *models.Transaction) (string, error) {
	if !record.Amount.IsPositive() {
		return "", fmt.Errorf("%w: transaction amount must be positive, got %s", store.ErrInvalidAmount, record.Amount.String())
	}
	if record.From == record.To {
		return "", fmt.Errorf("%w: %s", store.ErrSelfTransfer, record.From)
	}
	if !record.Kind.IsValid() {
		return "", fmt.Errorf("unknown transaction kind %q", record.Kind)
	}

	record.Id = uuid.NewString()
	record.CreatedAt = time.Now().UTC()
	err := t.tx.QueryRowContext(ctx, queryInsertTransaction,
		record.Id, record.From, record.To, record.Denomination, record.Amount,
		string(record.Kind), record.Note, record.Reference, record.CreatedAt).
		Scan(&record.Seq)
	if err != nil {
		return "", storageErr("insert transaction", err)
	}
	return record.Id, nil
}

func (t *pgTx) AppendJournal(ctx context.Context, entry *models.JournalEntry) error {
	entry.Id = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	_, err := t.tx.ExecContext(ctx, queryInsertJournalEntry,
		entry.Id, entry.TransactionId, entry.AccountId, entry.Denomination,
		entry.Debit, entry.Credit, entry.CreatedAt)
	if err != nil {
		return storageErr("insert journal entry", err)
	}
	return nil
}

func (t *pgTx) HasRedemption(ctx context.Context, serial string) (bool, error) {
	var spent bool
	if err := t.tx.QueryRowContext(ctx, queryCheckRedemption, serial).Scan(&spent); err != nil {
		return false, storageErr("check redemption", err)
	}
	return spent, nil
}

func (s *Service) QueryByAccount(ctx context.Context, accountId string) iter.Seq2[models.Transaction, error] {
	return func(yield func(models.Transaction, error) bool) {
		var after int64
		for {
			rows, err := s.db.QueryContext(ctx, queryTransactionPage, accountId, after, queryPageSize)
			if err != nil {
				yield(models.Transaction{}, storageErr("query transactions", err))
				return
			}
			page, err := scanTransactions(rows)
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

func (s *Service) GetTransactionHistory(ctx context.Context, accountId, denomination string, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = queryPageSize
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, queryGetTransactionHistory, accountId, denomination, limit, offset)
	if err != nil {
		return nil, storageErr("get transaction history", err)
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
		var kind string
		if err := rows.Scan(&tx.Seq, &tx.Id, &tx.From, &tx.To, &tx.Denomination,
			&tx.Amount, &kind, &tx.Note, &tx.Reference, &tx.CreatedAt); err != nil {
			return nil, storageErr("scan transaction", err)
		}
		tx.Kind = models.TransactionKind(kind)
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate transactions", err)
	}
	return transactions, nil
}
