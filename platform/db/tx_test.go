package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"leadflow_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubTx struct {
	pgx.Tx
	committed bool
}

func (t *stubTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *stubTx) Rollback(context.Context) error { return nil }

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, apperr.KindConflict},
		{"deadlock", fmt.Errorf("update: %w", &pgconn.PgError{Code: "40P01"}), apperr.KindConflict},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, apperr.KindTimeout},
		{"deadline", context.DeadlineExceeded, apperr.KindTimeout},
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "lead_steps_lead_id_step_id_key"}, apperr.KindConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, apperr.KindValidation},
		{"other", fmt.Errorf("boom"), apperr.KindInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := apperr.GetKind(MapError("test", tc.err))
			if got != tc.want {
				t.Fatalf("MapError kind = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMapErrorKeepsAppErrors(t *testing.T) {
	original := apperr.Forbidden("nope").WithCode("PERMISSION_DENIED")
	if got := MapError("test", original); got != original {
		t.Fatalf("expected typed error to pass through, got %v", got)
	}
}

func TestIsUniqueViolationMatchesConstraint(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "step_master_active_order_idx"}
	if !IsUniqueViolation(err, "step_master_active_order_idx") {
		t.Fatal("expected constraint match")
	}
	if IsUniqueViolation(err, "other") {
		t.Fatal("expected constraint mismatch")
	}
}

func TestSerializableBoundsCallbackByTimeout(t *testing.T) {
	tx := &stubTx{}
	runner := &TxRunner{
		begin:   func(context.Context, pgx.TxOptions) (pgx.Tx, error) { return tx, nil },
		timeout: 50 * time.Millisecond,
	}

	started := time.Now()
	var deadline time.Time
	var hasDeadline bool
	err := runner.Serializable(context.Background(), "test", func(ctx context.Context, _ pgx.Tx) error {
		deadline, hasDeadline = ctx.Deadline()
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasDeadline {
		t.Fatal("callback context has no deadline")
	}
	if deadline.After(started.Add(time.Second)) {
		t.Fatalf("deadline %v is not bounded by the transaction timeout", deadline)
	}
	if !tx.committed {
		t.Fatal("expected commit")
	}
}

func TestSerializableTimesOutSlowCallback(t *testing.T) {
	runner := &TxRunner{
		begin:   func(context.Context, pgx.TxOptions) (pgx.Tx, error) { return &stubTx{}, nil },
		timeout: 10 * time.Millisecond,
	}

	err := runner.Serializable(context.Background(), "test", func(ctx context.Context, _ pgx.Tx) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if got := apperr.GetKind(err); got != apperr.KindTimeout {
		t.Fatalf("kind = %v, want timeout (err %v)", got, err)
	}
}
