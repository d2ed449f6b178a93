package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"mcengine-currency-go/internal/models"
	"mcengine-currency-go/internal/store"
	"mcengine-currency-go/internal/token"
)

// CashOut debits the account and returns a token worth amount. No payload is
// produced unless the debit commits.
func (e *Engine) CashOut(ctx context.Context, accountId, denomination string, amount decimal.Decimal) (payload token.Payload, err error) {
	started := time.Now()
	defer func() {
		e.finish("cash_out", started, err,
			zap.String("account_id", accountId),
			zap.String("denomination", denomination),
			zap.String("amount", amount.String()),
			zap.String("serial", payload.Serial))
	}()

	if err := validateAccount(accountId); err != nil {
		return token.Payload{}, err
	}
	d, err := e.validate(denomination, amount)
	if err != nil {
		return token.Payload{}, err
	}

	// Encoding is pure, so it runs before anything is written.
	encoded, err := e.codec.Encode(d.Name, amount)
	if err != nil {
		return token.Payload{}, err
	}

	record := models.Transaction{
		From:         accountId,
		To:           models.CashAccount,
		Denomination: d.Name,
		Amount:       amount,
		Kind:         models.KindCashOut,
		Reference:    encoded.Serial,
	}
	err = e.mutate(ctx, []string{balanceLockKey(accountId, d.Name)}, func(ctx context.Context, tx store.Tx) error {
		if err := e.debit(ctx, tx, accountId, d.Name, amount); err != nil {
			return err
		}
		return e.record(ctx, tx, &record)
	})
	if err != nil {
		return token.Payload{}, err
	}
	return encoded, nil
}

// CashIn redeems a token into the account and returns the credited amount.
// The caller must consume the object the payload came from; only with
// single-use tokens enabled does the ledger itself reject a second redemption.
func (e *Engine) CashIn(ctx context.Context, accountId string, payload token.Payload) (amount decimal.Decimal, err error) {
	started := time.Now()
	defer func() {
		e.finish("cash_in", started, err,
			zap.String("account_id", accountId),
			zap.String("denomination", payload.Denomination),
			zap.String("amount", amount.String()),
			zap.String("serial", payload.Serial))
	}()

	if err := validateAccount(accountId); err != nil {
		return decimal.Zero, err
	}
	denomination, amount, err := e.codec.Decode(payload)
	if err != nil {
		return decimal.Zero, err
	}

	keys := []string{balanceLockKey(accountId, denomination)}
	if e.cfg.SingleUseTokens {
		if payload.Serial == "" {
			return decimal.Zero, fmt.Errorf("%w: missing serial", store.ErrCorruptToken)
		}
		keys = append(keys, tokenLockKey(payload.Serial))
	}

	record := models.Transaction{
		From:         models.CashAccount,
		To:           accountId,
		Denomination: denomination,
		Amount:       amount,
		Kind:         models.KindCashIn,
		Reference:    payload.Serial,
	}
	err = e.mutate(ctx, keys, func(ctx context.Context, tx store.Tx) error {
		if e.cfg.SingleUseTokens {
			spent, err := tx.HasRedemption(ctx, payload.Serial)
			if err != nil {
				return err
			}
			if spent {
				return fmt.Errorf("%w: serial %s", store.ErrTokenSpent, payload.Serial)
			}
		}
		if err := e.credit(ctx, tx, accountId, denomination, amount); err != nil {
			return err
		}
		return e.record(ctx, tx, &record)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}
