package db

import (
	"context"
	"errors"
	"time"

	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes the transaction runner cares about.
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateQueryCanceled        = "57014"
)

// DefaultTxTimeout bounds a transaction when no explicit timeout is configured.
const DefaultTxTimeout = 5 * time.Second

// TxRunner executes callbacks inside serializable transactions.
// A serialization failure or deadlock is retried exactly once.
type TxRunner struct {
	begin   func(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	timeout time.Duration
	log     *logger.Logger
}

// NewTxRunner creates a runner bound to the pool.
func NewTxRunner(pool *pgxpool.Pool, timeout time.Duration, log *logger.Logger) *TxRunner {
	if timeout <= 0 {
		timeout = DefaultTxTimeout
	}
	return &TxRunner{begin: pool.BeginTx, timeout: timeout, log: log}
}

// Serializable runs fn in a SERIALIZABLE transaction and commits on success.
// fn receives a context carrying the transaction deadline and must use it for
// every statement. Errors returned by fn are passed through untouched unless
// they are transient store errors, which are mapped to apperr kinds.
func (r *TxRunner) Serializable(ctx context.Context, op string, fn func(ctx context.Context, tx pgx.Tx) error) error {
	const maxAttempts = 2

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt == maxAttempts {
			break
		}
		if r.log != nil {
			r.log.TxRetry(op, attempt, err)
		}
	}

	return MapError(op, err)
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.begin(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// IsRetryable reports whether err is a serialization failure or deadlock.
func IsRetryable(err error) bool {
	code := SQLState(err)
	return code == sqlStateSerializationFailure || code == sqlStateDeadlockDetected
}

// IsUniqueViolation reports whether err violates the named unique constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != sqlStateUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return SQLState(err) == sqlStateForeignKeyViolation
}

// SQLState extracts the PostgreSQL error code from err, or "".
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// MapError converts store failures into typed application errors.
// Errors that already carry an apperr kind are returned as-is.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), SQLState(err) == sqlStateQueryCanceled:
		return apperr.Wrap(apperr.KindTimeout, "operation timed out", err).WithOp(op)
	case IsRetryable(err):
		return apperr.Wrap(apperr.KindConflict, "concurrent update, please retry", err).WithOp(op)
	case IsUniqueViolation(err, ""):
		return apperr.Wrap(apperr.KindConflict, "resource already exists", err).WithOp(op)
	case IsForeignKeyViolation(err):
		return apperr.Wrap(apperr.KindValidation, "referenced resource does not exist", err).WithOp(op)
	case errors.Is(err, pgx.ErrNoRows):
		return apperr.Wrap(apperr.KindNotFound, "not found", err).WithOp(op)
	default:
		return apperr.Wrap(apperr.KindInternal, "database error", err).WithOp(op)
	}
}
