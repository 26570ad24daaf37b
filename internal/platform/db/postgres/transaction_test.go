package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMockManager(t *testing.T) (pgxmock.PgxPoolIface, *TransactionManager) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, NewTransactionManager(mock)
}

func TestTransactionManager_ReadWriteCommit(t *testing.T) {
	t.Parallel()

	mock, tm := newMockManager(t)
	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectCommit()

	err := tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		if _, ok := txFromContext(ctx); !ok {
			t.Fatalf("transaction not injected into context")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithinReadWrite returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_ReadOnlyUsesSnapshot(t *testing.T) {
	t.Parallel()

	mock, tm := newMockManager(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectRollback()

	expectedErr := errors.New("count failed")
	err := tm.WithinReadOnly(context.Background(), func(ctx context.Context) error {
		if QueryerFromContext(ctx, nil) == nil {
			t.Fatalf("queryer must come from the transaction")
		}
		return expectedErr
	})
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected %v, got %v", expectedErr, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_NestedReuse(t *testing.T) {
	t.Parallel()

	mock, tm := newMockManager(t)
	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectCommit()

	err := tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		return tm.WithinReadOnly(ctx, func(inner context.Context) error {
			if _, ok := txFromContext(inner); !ok {
				t.Fatalf("nested transaction lost context")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("nested transaction returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_WriteInsideReadOnly(t *testing.T) {
	t.Parallel()

	mock, tm := newMockManager(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectRollback()

	err := tm.WithinReadOnly(context.Background(), func(ctx context.Context) error {
		return tm.WithinReadWrite(ctx, func(context.Context) error {
			t.Fatalf("write must not run inside a read-only transaction")
			return nil
		})
	})
	if !errors.Is(err, ErrWriteInReadOnly) {
		t.Fatalf("expected ErrWriteInReadOnly, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_RollbackOnPanic(t *testing.T) {
	t.Parallel()

	mock, tm := newMockManager(t)
	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectRollback()

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Fatalf("expected panic to propagate, got %v", r)
			}
		}()
		_ = tm.WithinReadWrite(context.Background(), func(context.Context) error {
			panic("boom")
		})
	}()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("transaction must be rolled back after panic: %v", err)
	}
}

func TestTransactionManager_Nil(t *testing.T) {
	t.Parallel()

	var tm *TransactionManager
	called := false
	if err := tm.WithinReadOnly(context.Background(), func(context.Context) error {
		called = true
		return nil
	}); err != nil || !called {
		t.Fatalf("nil manager must run fn directly: called=%v err=%v", called, err)
	}
}
