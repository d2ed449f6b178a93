package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"mcengine-currency-go/internal/models"
	"mcengine-currency-go/internal/store"
)

func (s *Service) GetBalance(ctx context.Context, accountId, denomination string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.db.QueryRowContext(ctx, queryGetBalance, accountId, denomination).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, storageErr("get balance", err)
	}
	return balance, nil
}

func (s *Service) GetAllBalances(ctx context.Context, accountId string) ([]models.AccountBalance, error) {
	rows, err := s.db.QueryContext(ctx, queryGetAllAccountBalances, accountId)
	if err != nil {
		return nil, storageErr("get all balances", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var balances []models.AccountBalance
	for rows.Next() {
		var b models.AccountBalance
		if err := rows.Scan(&b.Id, &b.AccountId, &b.Denomination, &b.Balance, &b.Version, &b.UpdatedAt); err != nil {
			return nil, storageErr("scan balance", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate balances", err)
	}
	return balances, nil
}

func (s *Service) Exists(ctx context.Context, accountId string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, queryAccountExists, accountId).Scan(&exists); err != nil {
		return false, storageErr("check account", err)
	}
	return exists, nil
}

func (s *Service) Initialize(ctx context.Context, accountId string, denominations []string) error {
	return s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.Initialize(ctx, accountId, denominations)
	})
}

func (s *Service) ListAccounts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, queryListAccounts)
	if err != nil {
		return nil, storageErr("list accounts", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var accounts []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan account", err)
		}
		accounts = append(accounts, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate accounts", err)
	}
	return accounts, nil
}

// ReconcileBalance compares the balance row with the journal sum, computed in
// NUMERIC. Both reads share one REPEATABLE READ snapshot.
func (s *Service) ReconcileBalance(ctx context.Context, accountId, denomination string) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return storageErr("begin reconcile", err)
	}
	defer func() {
		if err := sqlTx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to end reconcile transaction", zap.Error(err))
		}
	}()

	current := decimal.Zero
	err = sqlTx.QueryRowContext(ctx, queryGetBalance, accountId, denomination).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return storageErr("get current balance", err)
	}

	var calculated decimal.Decimal
	if err := sqlTx.QueryRowContext(ctx, queryReconcileJournal, accountId, denomination).Scan(&calculated); err != nil {
		return storageErr("sum journal", err)
	}

	if !current.Equal(calculated) {
		zap.L().Error("Balance reconciliation failed",
			zap.String("account_id", accountId),
			zap.String("denomination", denomination),
			zap.String("current_balance", current.String()),
			zap.String("calculated_balance", calculated.String()))
		return fmt.Errorf("balance mismatch: current=%s, calculated=%s", current.String(), calculated.String())
	}
	return nil
}
