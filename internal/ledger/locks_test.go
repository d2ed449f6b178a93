package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mcengine-currency-go/internal/store"
)

func TestLockArenaReleasesEntries(t *testing.T) {
	a := newLockArena()
	ctx := context.Background()

	release, err := a.acquire(ctx, []string{"b", "a", "b"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, a.size())

	release()
	assert.Zero(t, a.size())
}

func TestLockArenaTimeoutReleasesPartialHold(t *testing.T) {
	a := newLockArena()
	ctx := context.Background()

	holdB, err := a.acquire(ctx, []string{"b"}, time.Second)
	require.NoError(t, err)

	_, err = a.acquire(ctx, []string{"a", "b"}, 20*time.Millisecond)
	assert.ErrorIs(t, err, store.ErrLockTimeout)

	// "a" was taken first and must be free again.
	holdA, err := a.acquire(ctx, []string{"a"}, 20*time.Millisecond)
	require.NoError(t, err)
	holdA()
	holdB()
	assert.Zero(t, a.size())
}

func TestLockArenaCallerCancel(t *testing.T) {
	a := newLockArena()
	hold, err := a.acquire(context.Background(), []string{"k"}, time.Second)
	require.NoError(t, err)
	defer hold()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err = a.acquire(ctx, []string{"k"}, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
