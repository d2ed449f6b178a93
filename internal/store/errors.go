package store

import (
	"context"
	"errors"
)

// Sentinel errors shared across the engine, the codec and all backend implementations.
var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrUnknownDenomination    = errors.New("unknown denomination")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrSelfTransfer           = errors.New("cannot transfer to self")
	ErrNotAToken              = errors.New("not a cash token")
	ErrCorruptToken           = errors.New("corrupt cash token")
	ErrTokenSpent             = errors.New("cash token already redeemed")
	ErrLockTimeout            = errors.New("lock wait timed out")
	ErrStorageUnavailable     = errors.New("storage unavailable")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrInvalidAccount         = errors.New("invalid account id")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidAmount, "invalid_amount"},
	{ErrUnknownDenomination, "unknown_denomination"},
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrSelfTransfer, "self_transfer"},
	{ErrNotAToken, "not_a_token"},
	{ErrCorruptToken, "corrupt_token"},
	{ErrTokenSpent, "token_spent"},
	{ErrLockTimeout, "lock_timeout"},
	{ErrInvalidAccount, "invalid_account"},
	{ErrConcurrentModification, "storage_unavailable"},
	{ErrStorageUnavailable, "storage_unavailable"},
}

// Kind returns a stable label for err: "ok" for nil, "unknown" for errors
// outside the taxonomy.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "unknown"
}

// IsValidation reports whether err was caused by caller input rather than the backend.
func IsValidation(err error) bool {
	switch Kind(err) {
	case "invalid_amount", "unknown_denomination", "insufficient_funds", "self_transfer",
		"not_a_token", "corrupt_token", "token_spent", "invalid_account":
		return true
	}
	return false
}
