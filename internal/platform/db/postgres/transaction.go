package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrWriteInReadOnly は読み取り専用トランザクションの内側で書き込みトランザクションを要求した場合に返却されます。
var ErrWriteInReadOnly = errors.New("postgres: read-write transaction requested inside read-only transaction")

var (
	// 件数取得とページ取得が同じスナップショットを見るよう RepeatableRead にします。
	readOnlyOptions  = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	readWriteOptions = pgx.TxOptions{AccessMode: pgx.ReadWrite}
)

type txStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type txContextKey struct{}

type activeTx struct {
	tx       pgx.Tx
	readOnly bool
}

// TransactionManager は pgx のトランザクションをコンテキストに載せて受け渡します。
// 既にトランザクションがあるコンテキストでは新たに開始せず、それを再利用します。
type TransactionManager struct {
	pool txStarter
}

// NewTransactionManager は TransactionManager を生成します。pool が nil なら nil を返します。
func NewTransactionManager(pool txStarter) *TransactionManager {
	if pool == nil {
		return nil
	}
	return &TransactionManager{pool: pool}
}

// WithinReadOnly は一覧取得用の読み取り専用トランザクションで fn を実行します。
func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.run(ctx, true, fn)
}

// WithinReadWrite はプロフィール更新用の読み書きトランザクションで fn を実行します。
func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.run(ctx, false, fn)
}

func (m *TransactionManager) run(ctx context.Context, readOnly bool, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("postgres: transaction function is required")
	}

	if outer, ok := activeFromContext(ctx); ok {
		if outer.readOnly && !readOnly {
			return ErrWriteInReadOnly
		}
		return fn(ctx)
	}

	opts := readWriteOptions
	if readOnly {
		opts = readOnlyOptions
	}
	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}

	finished := false
	defer func() {
		// fn が panic した場合もコネクションをプールへ返します。
		if !finished {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err := fn(context.WithValue(ctx, txContextKey{}, activeTx{tx: tx, readOnly: readOnly})); err != nil {
		finished = true
		return errors.Join(err, rollback(ctx, tx))
	}

	finished = true
	if err := tx.Commit(ctx); err != nil {
		return errors.Join(fmt.Errorf("postgres: commit: %w", err), rollback(ctx, tx))
	}
	return nil
}

func rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("postgres: rollback: %w", err)
	}
	return nil
}

func activeFromContext(ctx context.Context) (activeTx, bool) {
	if ctx == nil {
		return activeTx{}, false
	}
	a, ok := ctx.Value(txContextKey{}).(activeTx)
	return a, ok
}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	a, ok := activeFromContext(ctx)
	return a.tx, ok
}

// QueryerFromContext はコンテキストにトランザクションがあればそれを、無ければ fallback を返します。
func QueryerFromContext(ctx context.Context, fallback Queryer) Queryer {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return fallback
}

// Queryer はリポジトリが使うクエリ実行口です。pgx.Tx と pgxpool.Pool の双方が満たします。
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
