package common

import (
	"context"
	"fmt"

	"mcengine-currency-go/internal/api"

	"go.uber.org/zap"
)

// ResolveAccounts returns the single filtered account, or every known
// account when the filter is empty.
func ResolveAccounts(ctx context.Context, ledger *api.LedgerService, accountFilter string) ([]string, error) {
	if accountFilter != "" {
		zap.L().Info("Using single account", zap.String("account_id", accountFilter))
		return []string{accountFilter}, nil
	}

	accounts, err := ledger.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	zap.L().Info("Retrieved accounts", zap.Int("count", len(accounts)))
	return accounts, nil
}
