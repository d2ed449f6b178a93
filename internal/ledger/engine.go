// Package ledger owns every balance mutation. Each operation locks the
// (account, denomination) keys it touches and applies balances, journal and
// transaction log in one store transaction.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"mcengine-currency-go/internal/metrics"
	"mcengine-currency-go/internal/models"
	"mcengine-currency-go/internal/store"
	"mcengine-currency-go/internal/token"
)

const defaultLockTimeout = 2 * time.Second

// Config is fixed for the lifetime of an Engine.
type Config struct {
	Denominations   models.DenominationSet
	LockTimeout     time.Duration
	SingleUseTokens bool
}

type Engine struct {
	store   store.LedgerStore
	codec   *token.Codec
	cfg     Config
	locks   *lockArena
	metrics *metrics.LedgerMetrics
}

// New builds an engine over s. m may be nil.
func New(s store.LedgerStore, codec *token.Codec, cfg Config, m *metrics.LedgerMetrics) (*Engine, error) {
	if s == nil {
		return nil, errors.New("ledger store is required")
	}
	if codec == nil {
		return nil, errors.New("token codec is required")
	}
	if cfg.Denominations.Len() == 0 {
		return nil, errors.New("at least one denomination is required")
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = defaultLockTimeout
	}
	return &Engine{
		store:   s,
		codec:   codec,
		cfg:     cfg,
		locks:   newLockArena(),
		metrics: m,
	}, nil
}

func (e *Engine) Denominations() models.DenominationSet {
	return e.cfg.Denominations
}

// EnsureAccount creates a zero balance for every denomination the account lacks.
func (e *Engine) EnsureAccount(ctx context.Context, accountId string) (err error) {
	started := time.Now()
	defer func() { e.finish("ensure_account", started, err, zap.String("account_id", accountId)) }()

	if err := validateAccount(accountId); err != nil {
		return err
	}
	return e.store.Initialize(ctx, accountId, e.cfg.Denominations.Names())
}

// GetBalance reads the committed balance; 0 when the account has no row.
func (e *Engine) GetBalance(ctx context.Context, accountId, denomination string) (decimal.Decimal, error) {
	d, ok := e.cfg.Denominations.Lookup(denomination)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", store.ErrUnknownDenomination, denomination)
	}
	return e.store.GetBalance(ctx, accountId, d.Name)
}

// Balances returns one entry per configured denomination, in configuration order.
func (e *Engine) Balances(ctx context.Context, accountId string) ([]models.DenominationBalance, error) {
	rows, err := e.store.GetAllBalances(ctx, accountId)
	if err != nil {
		return nil, err
	}
	byDenom := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		byDenom[row.Denomination] = row.Balance
	}

	balances := make([]models.DenominationBalance, 0, e.cfg.Denominations.Len())
	for _, name := range e.cfg.Denominations.Names() {
		balances = append(balances, models.DenominationBalance{
			Denomination: name,
			Balance:      byDenom[name],
		})
	}
	return balances, nil
}

// Credit mints amount into the account and records it as issued by the system account.
func (e *Engine) Credit(ctx context.Context, accountId, denomination string, amount decimal.Decimal) (record models.Transaction, err error) {
	started := time.Now()
	defer func() {
		e.finish("credit", started, err,
			zap.String("account_id", accountId),
			zap.String("denomination", denomination),
			zap.String("amount", amount.String()),
			zap.String("transaction_id", record.Id))
	}()

	if err := validateAccount(accountId); err != nil {
		return models.Transaction{}, err
	}
	d, err := e.validate(denomination, amount)
	if err != nil {
		return models.Transaction{}, err
	}

	record = models.Transaction{
		From:         models.SystemAccount,
		To:           accountId,
		Denomination: d.Name,
		Amount:       amount,
		Kind:         models.KindMint,
	}
	err = e.mutate(ctx, []string{balanceLockKey(accountId, d.Name)}, func(ctx context.Context, tx store.Tx) error {
		if err := e.credit(ctx, tx, accountId, d.Name, amount); err != nil {
			return err
		}
		return e.record(ctx, tx, &record)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return record, nil
}

// Debit removes amount from the account. No transaction record is written;
// the journal still carries the movement.
func (e *Engine) Debit(ctx context.Context, accountId, denomination string, amount decimal.Decimal) (err error) {
	started := time.Now()
	defer func() {
		e.finish("debit", started, err,
			zap.String("account_id", accountId),
			zap.String("denomination", denomination),
			zap.String("amount", amount.String()))
	}()

	if err := validateAccount(accountId); err != nil {
		return err
	}
	d, err := e.validate(denomination, amount)
	if err != nil {
		return err
	}

	return e.mutate(ctx, []string{balanceLockKey(accountId, d.Name)}, func(ctx context.Context, tx store.Tx) error {
		if err := e.debit(ctx, tx, accountId, d.Name, amount); err != nil {
			return err
		}
		return tx.AppendJournal(ctx, &models.JournalEntry{
			AccountId:    accountId,
			Denomination: d.Name,
			Debit:        amount,
		})
	})
}

// Transfer moves amount between two accounts and writes one pay record.
func (e *Engine) Transfer(ctx context.Context, fromId, toId, denomination string, amount decimal.Decimal, note string) (record models.Transaction, err error) {
	started := time.Now()
	defer func() {
		e.finish("transfer", started, err,
			zap.String("from", fromId),
			zap.String("to", toId),
			zap.String("denomination", denomination),
			zap.String("amount", amount.String()),
			zap.String("transaction_id", record.Id))
	}()

	if err := validateAccount(fromId); err != nil {
		return models.Transaction{}, err
	}
	if err := validateAccount(toId); err != nil {
		return models.Transaction{}, err
	}
	if fromId == toId {
		return models.Transaction{}, fmt.Errorf("%w: %s", store.ErrSelfTransfer, fromId)
	}
	d, err := e.validate(denomination, amount)
	if err != nil {
		return models.Transaction{}, err
	}

	record = models.Transaction{
		From:         fromId,
		To:           toId,
		Denomination: d.Name,
		Amount:       amount,
		Kind:         models.KindPay,
		Note:         note,
	}
	keys := []string{balanceLockKey(fromId, d.Name), balanceLockKey(toId, d.Name)}
	err = e.mutate(ctx, keys, func(ctx context.Context, tx store.Tx) error {
		if err := e.debit(ctx, tx, fromId, d.Name, amount); err != nil {
			return err
		}
		if err := e.credit(ctx, tx, toId, d.Name, amount); err != nil {
			return err
		}
		return e.record(ctx, tx, &record)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return record, nil
}

// mutate runs fn under the given key locks in one store transaction. Once the
// locks are held the caller's cancellation no longer applies.
func (e *Engine) mutate(ctx context.Context, keys []string, fn func(ctx context.Context, tx store.Tx) error) error {
	waitStarted := time.Now()
	release, err := e.locks.acquire(ctx, keys, e.cfg.LockTimeout)
	if err != nil {
		return err
	}
	defer release()
	e.metrics.ObserveLockWait(time.Since(waitStarted))

	runCtx := context.WithoutCancel(ctx)
	return e.store.WithinTx(runCtx, func(tx store.Tx) error {
		return fn(runCtx, tx)
	})
}

// credit adds amount to a balance, creating the account's rows if it is new
func (e *Engine) credit(ctx context.Context, tx store.Tx, accountId, denomination string, amount decimal.Decimal) error {
	if err := tx.Initialize(ctx, accountId, e.cfg.Denominations.Names()); err != nil {
		return err
	}
	balance, err := tx.GetBalance(ctx, accountId, denomination)
	if err != nil {
		return err
	}
	return tx.SetBalance(ctx, accountId, denomination, balance.Add(amount))
}

func (e *Engine) debit(ctx context.Context, tx store.Tx, accountId, denomination string, amount decimal.Decimal) error {
	balance, err := tx.GetBalance(ctx, accountId, denomination)
	if err != nil {
		return err
	}
	if balance.LessThan(amount) {
		return fmt.Errorf("%w: %s %s available, %s requested", store.ErrInsufficientFunds, balance.String(), denomination, amount.String())
	}
	return tx.SetBalance(ctx, accountId, denomination, balance.Sub(amount))
}

// record appends r and one journal entry per ledger party it moved
func (e *Engine) record(ctx context.Context, tx store.Tx, r *models.Transaction) error {
	txId, err := tx.AppendTransaction(ctx, r)
	if err != nil {
		return err
	}
	if !isReserved(r.From) {
		if err := tx.AppendJournal(ctx, &models.JournalEntry{
			TransactionId: txId,
			AccountId:     r.From,
			Denomination:  r.Denomination,
			Debit:         r.Amount,
		}); err != nil {
			return err
		}
	}
	if !isReserved(r.To) {
		if err := tx.AppendJournal(ctx, &models.JournalEntry{
			TransactionId: txId,
			AccountId:     r.To,
			Denomination:  r.Denomination,
			Credit:        r.Amount,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) validate(denomination string, amount decimal.Decimal) (models.Denomination, error) {
	d, ok := e.cfg.Denominations.Lookup(denomination)
	if !ok {
		return models.Denomination{}, fmt.Errorf("%w: %q", store.ErrUnknownDenomination, denomination)
	}
	if !amount.IsPositive() {
		return models.Denomination{}, fmt.Errorf("%w: amount must be positive, got %s", store.ErrInvalidAmount, amount.String())
	}
	if !d.Fits(amount) {
		return models.Denomination{}, fmt.Errorf("%w: %s allows %d decimal places, got %s", store.ErrInvalidAmount, d.Name, d.Precision, amount.String())
	}
	return d, nil
}

func validateAccount(accountId string) error {
	if accountId == "" {
		return fmt.Errorf("%w: empty", store.ErrInvalidAccount)
	}
	if isReserved(accountId) {
		return fmt.Errorf("%w: %q is reserved", store.ErrInvalidAccount, accountId)
	}
	return nil
}

func isReserved(accountId string) bool {
	return accountId == models.SystemAccount || accountId == models.CashAccount
}

// finish records metrics and logs the outcome at a level matching its kind
func (e *Engine) finish(operation string, started time.Time, err error, fields ...zap.Field) {
	e.metrics.Observe(operation, started, err)

	fields = append(fields, zap.String("operation", operation))
	switch {
	case err == nil:
		zap.L().Info("Ledger operation committed", fields...)
	case store.IsValidation(err) || errors.Is(err, store.ErrLockTimeout):
		zap.L().Warn("Ledger operation rejected", append(fields, zap.Error(err))...)
	default:
		zap.L().Error("Ledger operation failed", append(fields, zap.Error(err))...)
	}
}
