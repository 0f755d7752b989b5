package persistence

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gescom/backend/internal/domain/shared"
)

// queryTimeout bounds every repository call. Set once at startup from
// configuration; the default covers tests that bypass NewDatabase.
var queryTimeout atomic.Int64

func init() {
	queryTimeout.Store(int64(5 * time.Second))
}

// SetQueryTimeout changes the per-call timeout for all repositories
func SetQueryTimeout(d time.Duration) {
	if d > 0 {
		queryTimeout.Store(int64(d))
	}
}

// execWithRetry runs a storage operation with a bounded timeout and a
// single retry on transient failure. Domain errors pass through
// untouched; any other failure surfaces as a PERSISTENCE_ERROR so
// callers never see driver internals.
func execWithRetry(ctx context.Context, op func(ctx context.Context) error) error {
	timeout := time.Duration(queryTimeout.Load())

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	err := op(opCtx)
	cancel()
	if err == nil || !isTransient(err) {
		return translateError(err)
	}

	opCtx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()
	return translateError(op(opCtx))
}

// translateError maps infrastructure failures onto the domain error
// vocabulary. Domain errors produced inside the operation are kept.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return shared.ErrPersistence
}

// isTransient reports whether a failure is worth one more attempt
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// SQLSTATE class 08 is a connection exception; 40001/40P01 are
	// serialization failure and deadlock, both safe to retry once.
	var stateErr interface{ SQLState() string }
	if errors.As(err, &stateErr) {
		code := stateErr.SQLState()
		return strings.HasPrefix(code, "08") || code == "40001" || code == "40P01"
	}
	return false
}
