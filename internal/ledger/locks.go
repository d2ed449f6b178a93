package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"mcengine-currency-go/internal/store"
)

// lockArena hands out one exclusive lock per key. Entries are reference
// counted and dropped once nobody holds or waits for them.
type lockArena struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newLockArena() *lockArena {
	return &lockArena{locks: make(map[string]*keyLock)}
}

func balanceLockKey(accountId, denomination string) string {
	return accountId + "\x00" + denomination
}

func tokenLockKey(serial string) string {
	return "\x00token\x00" + serial
}

// acquire locks every key in lexicographic order, waiting at most timeout in
// total. The returned func releases them all.
func (a *lockArena) acquire(ctx context.Context, keys []string, timeout time.Duration) (func(), error) {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	held := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			a.unlock(held[i])
		}
	}

	for _, key := range keys {
		l := a.ref(key)
		if err := l.sem.Acquire(waitCtx, 1); err != nil {
			a.unref(key)
			release()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %s", store.ErrLockTimeout, timeout)
			}
			return nil, err
		}
		held = append(held, key)
	}
	return release, nil
}

func (a *lockArena) ref(key string) *keyLock {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[key]
	if !ok {
		l = &keyLock{sem: semaphore.NewWeighted(1)}
		a.locks[key] = l
	}
	l.refs++
	return l
}

func (a *lockArena) unref(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.drop(key)
}

func (a *lockArena) unlock(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.locks[key].sem.Release(1)
	a.drop(key)
}

// drop must be called with mu held
func (a *lockArena) drop(key string) {
	l := a.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(a.locks, key)
	}
}

func (a *lockArena) size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.locks)
}
