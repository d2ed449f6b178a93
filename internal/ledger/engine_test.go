package ledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"mcengine-currency-go/internal/database"
	"mcengine-currency-go/internal/models"
	"mcengine-currency-go/internal/store"
	"mcengine-currency-go/internal/token"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestStore(t *testing.T) *database.Service {
	t.Helper()
	svc, err := database.NewService(context.Background(), database.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func newTestEngine(t *testing.T, s store.LedgerStore, mutate ...func(*Config)) *Engine {
	t.Helper()
	denoms := models.NewDenominationSet(models.DefaultDenominations())
	cfg := Config{Denominations: denoms, LockTimeout: 2 * time.Second}
	for _, m := range mutate {
		m(&cfg)
	}
	e, err := New(s, token.NewCodec(denoms, ""), cfg, nil)
	require.NoError(t, err)
	return e
}

func balance(t *testing.T, e *Engine, accountId, denomination string) decimal.Decimal {
	t.Helper()
	b, err := e.GetBalance(context.Background(), accountId, denomination)
	require.NoError(t, err)
	return b
}

func records(t *testing.T, s store.LedgerStore, accountId string) []models.Transaction {
	t.Helper()
	var out []models.Transaction
	for r, err := range s.QueryByAccount(context.Background(), accountId) {
		require.NoError(t, err)
		out = append(out, r)
	}
	return out
}

func TestCreditTransferDebitScenario(t *testing.T) {
	s := newTestStore(t)
	e := newTestEngine(t, s)
	ctx := context.Background()

	assert.True(t, balance(t, e, "A", "gold").IsZero())

	_, err := e.Credit(ctx, "A", "gold", dec("50"))
	require.NoError(t, err)
	assert.True(t, balance(t, e, "A", "gold").Equal(dec("50")))

	_, err = e.Transfer(ctx, "A", "B", "gold", dec("20"), "rent")
	require.NoError(t, err)
	assert.True(t, balance(t, e, "A", "gold").Equal(dec("30")))
	assert.True(t, balance(t, e, "B", "gold").Equal(dec("20")))

	var pays []models.Transaction
	for _, r := range records(t, s, "A") {
		if r.Kind == models.KindPay {
			pays = append(pays, r)
		}
	}
	require.Len(t, pays, 1)
	assert.Equal(t, "A", pays[0].From)
	assert.Equal(t, "B", pays[0].To)
	assert.Equal(t, "gold", pays[0].Denomination)
	assert.True(t, pays[0].Amount.Equal(dec("20")))
	assert.Equal(t, "rent", pays[0].Note)

	err = e.Debit(ctx, "A", "gold", dec("100"))
	assert.ErrorIs(t, err, store.ErrInsufficientFunds)
	assert.True(t, balance(t, e, "A", "gold").Equal(dec("30")))
}

func TestCreditRecordsMint(t *testing.T) {
	s := newTestStore(t)
	e := newTestEngine(t, s)

	record, err := e.Credit(context.Background(), "alice", "Silver", dec("1.25"))
	require.NoError(t, err)
	assert.NotEmpty(t, record.Id)
	assert.Equal(t, models.KindMint, record.Kind)
	assert.Equal(t, models.SystemAccount, record.From)
	assert.Equal(t, "silver", record.Denomination)

	got := records(t, s, "alice")
	require.Len(t, got, 1)
	assert.Equal(t, record.Id, got[0].Id)

	// First reference initializes every denomination.
	rows, err := s.GetAllBalances(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestCreditDebitRestoresExactly(t *testing.T) {
	e := newTestEngine(t, newTestStore(t))
	ctx := context.Background()

	_, err := e.Credit(ctx, "alice", "coin", dec("0.30"))
	require.NoError(t, err)
	before := balance(t, e, "alice", "coin")

	for _, x := range []string{"0.01", "0.1", "0.07", "1000000.99", "3.33"} {
		for range 10 {
			_, err := e.Credit(ctx, "alice", "coin", dec(x))
			require.NoError(t, err)
			require.NoError(t, e.Debit(ctx, "alice", "coin", dec(x)))
		}
	}
	after := balance(t, e, "alice", "coin")
	assert.True(t, before.Equal(after), "expected %s, got %s", before, after)
}

func TestDebitWritesNoRecord(t *testing.T) {
	s := newTestStore(t)
	e := newTestEngine(t, s)
	ctx := context.Background()

	_, err := e.Credit(ctx, "alice", "gold", dec("10"))
	require.NoError(t, err)
	require.NoError(t, e.Debit(ctx, "alice", "gold", dec("4")))

	assert.Len(t, records(t, s, "alice"), 1)
	assert.NoError(t, s.ReconcileBalance(ctx, "alice", "gold"))
}

func TestValidationFailures(t *testing.T) {
	s := newTestStore(t)
	e := newTestEngine(t, s)
	ctx := context.Background()
	_, err := e.Credit(ctx, "alice", "gold", dec("10"))
	require.NoError(t, err)

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"credit zero", func() error { _, err := e.Credit(ctx, "alice", "gold", decimal.Zero); return err }, store.ErrInvalidAmount},
		{"credit negative", func() error { _, err := e.Credit(ctx, "alice", "gold", dec("-1")); return err }, store.ErrInvalidAmount},
		{"credit too precise", func() error { _, err := e.Credit(ctx, "alice", "gold", dec("0.001")); return err }, store.ErrInvalidAmount},
		{"credit unknown", func() error { _, err := e.Credit(ctx, "alice", "platinum", dec("1")); return err }, store.ErrUnknownDenomination},
		{"debit zero", func() error { return e.Debit(ctx, "alice", "gold", decimal.Zero) }, store.ErrInvalidAmount},
		{"debit unknown account", func() error { return e.Debit(ctx, "nobody", "gold", dec("1")) }, store.ErrInsufficientFunds},
		{"self transfer", func() error { _, err := e.Transfer(ctx, "alice", "alice", "gold", dec("1"), ""); return err }, store.ErrSelfTransfer},
		{"transfer overdraw", func() error { _, err := e.Transfer(ctx, "alice", "bob", "gold", dec("11"), ""); return err }, store.ErrInsufficientFunds},
		{"transfer from system", func() error { _, err := e.Transfer(ctx, models.SystemAccount, "bob", "gold", dec("1"), ""); return err }, store.ErrInvalidAccount},
		{"credit cash party", func() error { _, err := e.Credit(ctx, models.CashAccount, "gold", dec("1")); return err }, store.ErrInvalidAccount},
		{"empty account", func() error { return e.EnsureAccount(ctx, "") }, store.ErrInvalidAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.want)
		})
	}

	assert.True(t, balance(t, e, "alice", "gold").Equal(dec("10")))
	assert.True(t, balance(t, e, "bob", "gold").IsZero())
	assert.Len(t, records(t, s, "alice"), 1)
}

func TestGetBalanceUnknownDenomination(t *testing.T) {
	e := newTestEngine(t, newTestStore(t))
	_, err := e.GetBalance(context.Background(), "alice", "platinum")
	assert.ErrorIs(t, err, store.ErrUnknownDenomination)
}

func TestEnsureAccountIdempotent(t *testing.T) {
	s := newTestStore(t)
	e := newTestEngine(t, s)
	ctx := context.Background()

	require.NoError(t, e.EnsureAccount(ctx, "alice"))
	_, err := e.Credit(ctx, "alice", "copper", dec("3"))
	require.NoError(t, err)
	require.NoError(t, e.EnsureAccount(ctx, "alice"))

	exists, err := s.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	balances, err := e.Balances(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, balances, 4)
	assert.Equal(t, "coin", balances[0].Denomination)
	assert.True(t, balances[1].Balance.Equal(dec("3")))
}

func TestConcurrentDebitExactlyOneSucceeds(t *testing.T) {
	for i := range 10 {
		account := fmt.Sprintf("acct-%d", i)
		e := newTestEngine(t, newTestStore(t))
		ctx := context.Background()
		_, err := e.Credit(ctx, account, "gold", dec("10"))
		require.NoError(t, err)

		results := make([]error, 2)
		var g errgroup.Group
		for j := range results {
			g.Go(func() error {
				results[j] = e.Debit(ctx, account, "gold", dec("10"))
				return nil
			})
		}
		require.NoError(t, g.Wait())

		var ok, insufficient int
		for _, err := range results {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, store.ErrInsufficientFunds):
				insufficient++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, insufficient)
		assert.True(t, balance(t, e, account, "gold").IsZero())
	}
}

func TestConcurrentTransfersConserveValue(t *testing.T) {
	s := newTestStore(t)
	e := newTestEngine(t, s)
	ctx := context.Background()
	accounts := []string{"a", "b", "c", "d"}
	for _, a := range accounts {
		_, err := e.Credit(ctx, a, "coin", dec("25"))
		require.NoError(t, err)
	}

	var g errgroup.Group
	for i := range 200 {
		from := accounts[i%len(accounts)]
		to := accounts[(i*7+1)%len(accounts)]
		if from == to {
			continue
		}
		g.Go(func() error {
			_, err := e.Transfer(ctx, from, to, "coin", dec("3.5"), "")
			if err != nil && !errors.Is(err, store.ErrInsufficientFunds) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	total := decimal.Zero
	for _, a := range accounts {
		b := balance(t, e, a, "coin")
		assert.False(t, b.IsNegative(), "%s went negative: %s", a, b)
		total = total.Add(b)
		assert.NoError(t, s.ReconcileBalance(ctx, a, "coin"))
	}
	assert.True(t, total.Equal(dec("100")), "expected total 100, got %s", total)
	assert.Zero(t, e.locks.size())
}

func TestOppositeTransfersDoNotDeadlock(t *testing.T) {
	e := newTestEngine(t, newTestStore(t), func(c *Config) { c.LockTimeout = 5 * time.Second })
	ctx := context.Background()
	_, err := e.Credit(ctx, "x", "gold", dec("100"))
	require.NoError(t, err)
	_, err = e.Credit(ctx, "y", "gold", dec("100"))
	require.NoError(t, err)

	var g errgroup.Group
	for range 50 {
		g.Go(func() error { _, err := e.Transfer(ctx, "x", "y", "gold", dec("1"), ""); return err })
		g.Go(func() error { _, err := e.Transfer(ctx, "y", "x", "gold", dec("1"), ""); return err })
	}
	require.NoError(t, g.Wait())
	assert.True(t, balance(t, e, "x", "gold").Equal(dec("100")))
	assert.True(t, balance(t, e, "y", "gold").Equal(dec("100")))
}

func TestLockTimeout(t *testing.T) {
	e := newTestEngine(t, newTestStore(t), func(c *Config) { c.LockTimeout = 50 * time.Millisecond })
	ctx := context.Background()

	release, err := e.locks.acquire(ctx, []string{balanceLockKey("alice", "gold")}, time.Second)
	require.NoError(t, err)

	_, err = e.Credit(ctx, "alice", "gold", dec("1"))
	assert.ErrorIs(t, err, store.ErrLockTimeout)

	// Unrelated keys are not blocked.
	_, err = e.Credit(ctx, "alice", "silver", dec("1"))
	assert.NoError(t, err)

	release()
	_, err = e.Credit(ctx, "alice", "gold", dec("1"))
	assert.NoError(t, err)
}

// failingStore fails every AppendTransaction after the balances were written
type failingStore struct {
	store.LedgerStore
}

func (f failingStore) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return f.LedgerStore.WithinTx(ctx, func(tx store.Tx) error {
		return fn(failingTx{tx})
	})
}

type failingTx struct {
	store.Tx
}

func (failingTx) AppendTransaction(context.Context, *models.Transaction) (string, error) {
	return "", fmt.Errorf("%w: disk full", store.ErrStorageUnavailable)
}

func TestStorageFailureRollsBackTransfer(t *testing.T) {
	s := newTestStore(t)
	e := newTestEngine(t, s)
	ctx := context.Background()
	_, err := e.Credit(ctx, "alice", "gold", dec("10"))
	require.NoError(t, err)

	broken := newTestEngine(t, failingStore{s})
	_, err = broken.Transfer(ctx, "alice", "bob", "gold", dec("4"), "")
	assert.ErrorIs(t, err, store.ErrStorageUnavailable)

	assert.True(t, balance(t, e, "alice", "gold").Equal(dec("10")))
	assert.True(t, balance(t, e, "bob", "gold").IsZero())
	assert.Len(t, records(t, s, "alice"), 1)
	assert.NoError(t, s.ReconcileBalance(ctx, "alice", "gold"))
}

func TestNewRequiresDenominations(t *testing.T) {
	_, err := New(newTestStore(t), token.NewCodec(models.DenominationSet{}, ""), Config{}, nil)
	assert.Error(t, err)
}

func TestReconcileWhileCrediting(t *testing.T) {
	ctx := context.Background()
	s, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "ledger.db"),
		MaxOpenConns: 8,
		MaxIdleConns: 4,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	e := newTestEngine(t, s)

	const writers, credits = 4, 100
	done := make(chan struct{})
	var writerGroup errgroup.Group
	for i := 0; i < writers; i++ {
		writerGroup.Go(func() error {
			for j := 0; j < credits; j++ {
				if _, err := e.Credit(ctx, "alice", "gold", dec("1")); err != nil {
					return err
				}
			}
			return nil
		})
	}

	var checks, mismatches int
	var readerGroup errgroup.Group
	readerGroup.Go(func() error {
		for {
			select {
			case <-done:
				return nil
			default:
			}
			checks++
			if err := s.ReconcileBalance(ctx, "alice", "gold"); err != nil {
				if errors.Is(err, store.ErrStorageUnavailable) {
					return err
				}
				mismatches++
			}
		}
	})

	require.NoError(t, writerGroup.Wait())
	close(done)
	require.NoError(t, readerGroup.Wait())

	assert.Positive(t, checks)
	assert.Zero(t, mismatches, "reconcile reported %d mismatches in %d checks", mismatches, checks)
	assert.True(t, balance(t, e, "alice", "gold").Equal(decimal.NewFromInt(writers*credits)))
	require.NoError(t, s.ReconcileBalance(ctx, "alice", "gold"))
}
