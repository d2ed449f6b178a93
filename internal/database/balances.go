package database

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

// GetBalance returns current balance for account/denomination (O(1) lookup)
func (s *SubledgerService) GetBalance(ctx context.Context, accountId, denomination string) (decimal.Decimal, error) {
	zap.L().Debug("Getting balance", zap.String("account_id", accountId), zap.String("denomination", denomination))

	var balanceStr string
	err := s.db.QueryRowContext(ctx, queryGetBalance, accountId, denomination).Scan(&balanceStr)
	if errors.Is(err, sql.ErrNoRows) {
		// No balance record means zero balance
		return decimal.Zero, nil
	}
	if err != nil {
		zap.L().Error("Failed to get balance", zap.String("account_id", accountId), zap.String("denomination", denomination), zap.Error(err))
		return decimal.Zero, fmt.Errorf("%w: failed to get balance: %w", store.ErrStorageUnavailable, err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		zap.L().Error("Failed to parse balance", zap.String("balance_str", balanceStr), zap.Error(err))
		return decimal.Zero, fmt.Errorf("%w: failed to parse balance: %w", store.ErrStorageUnavailable, err)
	}

	return balance, nil
}

// GetAllBalances returns every denomination row of an account, zero balances included
func (s *SubledgerService) GetAllBalances(ctx context.Context, accountId string) ([]models.AccountBalance, error) {
	zap.L().Debug("Getting all balances", zap.String("account_id", accountId))

	rows, err := s.db.QueryContext(ctx, queryGetAllAccountBalances, accountId)
	if err != nil {
		zap.L().Error("Failed to get all balances", zap.String("account_id", accountId), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to get all balances: %w", store.ErrStorageUnavailable, err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var balances []models.AccountBalance
	for rows.Next() {
		var balance models.AccountBalance
		var balanceStr string
		err := rows.Scan(&balance.Id, &balance.AccountId, &balance.Denomination, &balanceStr,
			&balance.Version, &balance.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan balance: %w", store.ErrStorageUnavailable, err)
		}

		balance.Balance, err = decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse balance '%s': %w", store.ErrStorageUnavailable, balanceStr, err)
		}

		balances = append(balances, balance)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during balance row iteration", zap.Error(err))
		return nil, fmt.Errorf("%w: error iterating balance rows: %w", store.ErrStorageUnavailable, err)
	}

	return balances, nil
}

func (s *SubledgerService) Exists(ctx context.Context, accountId string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, queryAccountExists, accountId).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: failed to check account: %w", store.ErrStorageUnavailable, err)
	}
	return true, nil
}

func (s *SubledgerService) ListAccounts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, queryListAccounts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list accounts: %w", store.ErrStorageUnavailable, err)
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
			return nil, fmt.Errorf("%w: failed to scan account: %w", store.ErrStorageUnavailable, err)
		}
		accounts = append(accounts, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating account rows: %w", store.ErrStorageUnavailable, err)
	}
	return accounts, nil
}

// ReconcileBalance verifies that current balance matches the journal (credits minus debits).
// Both are read inside one transaction so concurrent commits cannot split them.
func (s *SubledgerService) ReconcileBalance(ctx context.Context, accountId, denomination string) error {
	zap.L().Info("Reconciling balance", zap.String("account_id", accountId), zap.String("denomination", denomination))

	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("%w: failed to begin reconcile transaction: %w", store.ErrStorageUnavailable, err)
	}
	defer func() {
		if err := sqlTx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to end reconcile transaction", zap.Error(err))
		}
	}()

	currentBalance := decimal.Zero
	var balanceStr string
	err = sqlTx.QueryRowContext(ctx, queryGetBalance, accountId, denomination).Scan(&balanceStr)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("%w: failed to get current balance: %w", store.ErrStorageUnavailable, err)
	default:
		currentBalance, err = decimal.NewFromString(balanceStr)
		if err != nil {
			return fmt.Errorf("%w: failed to parse balance '%s': %w", store.ErrStorageUnavailable, balanceStr, err)
		}
	}

	calculatedBalance, err := sumJournal(ctx, sqlTx, accountId, denomination)
	if err != nil {
		return err
	}

	// Check if balances match (exact decimal comparison)
	if !currentBalance.Equal(calculatedBalance) {
		zap.L().Error("Balance reconciliation failed",
			zap.String("account_id", accountId),
			zap.String("denomination", denomination),
			zap.String("current_balance", currentBalance.String()),
			zap.String("calculated_balance", calculatedBalance.String()),
			zap.String("difference", currentBalance.Sub(calculatedBalance).String()))
		return fmt.Errorf("balance mismatch: current=%s, calculated=%s", currentBalance.String(), calculatedBalance.String())
	}

	zap.L().Info("Balance reconciliation successful",
		zap.String("account_id", accountId),
		zap.String("denomination", denomination),
		zap.String("balance", currentBalance.String()))
	return nil
}

// sumJournal totals credits minus debits. Summed here rather than in SQL:
// SUM over TEXT columns goes through floats.
func sumJournal(ctx context.Context, sqlTx *sql.Tx, accountId, denomination string) (decimal.Decimal, error) {
	rows, err := sqlTx.QueryContext(ctx, queryReconcileJournal, accountId, denomination)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: failed to read journal: %w", store.ErrStorageUnavailable, err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	total := decimal.Zero
	for rows.Next() {
		var debitStr, creditStr string
		if err := rows.Scan(&debitStr, &creditStr); err != nil {
			return decimal.Zero, fmt.Errorf("%w: failed to scan journal entry: %w", store.ErrStorageUnavailable, err)
		}
		debit, err := decimal.NewFromString(debitStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: failed to parse debit '%s': %w", store.ErrStorageUnavailable, debitStr, err)
		}
		credit, err := decimal.NewFromString(creditStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: failed to parse credit '%s': %w", store.ErrStorageUnavailable, creditStr, err)
		}
		total = total.Add(credit).Sub(debit)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("%w: error iterating journal rows: %w", store.ErrStorageUnavailable, err)
	}
	return total, nil
}
