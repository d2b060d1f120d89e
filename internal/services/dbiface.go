package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Row is the single-row scan surface of pgx.Row.
type Row interface {
	Scan(dest ...any) error
}

// Rows is the cursor surface of pgx.Rows.
type Rows interface {
	Close()
	Err() error
	Next() bool
	Scan(dest ...any) error
}

type CommandTag interface {
	RowsAffected() int64
}

// DBConn is every query a service issues, inside or outside a transaction.
type DBConn interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

type Tx interface {
	DBConn
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB is the store handle passed to every service constructor.
type DB interface {
	DBConn
	Begin(ctx context.Context) (Tx, error)
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxBeginner interface {
	pgxQuerier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type querier struct {
	q pgxQuerier
}

func (a querier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	tag, err := a.q.Exec(ctx, sql, args...)
	return commandTagAdapter{tag: tag}, err
}

func (a querier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := a.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (a querier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return a.q.QueryRow(ctx, sql, args...)
}

// PoolAdapter lets a pgx pool serve as DB.
type PoolAdapter struct {
	querier
	pool pgxBeginner
}

func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return newPoolAdapter(pool)
}

func newPoolAdapter(pool pgxBeginner) *PoolAdapter {
	return &PoolAdapter{querier: querier{q: pool}, pool: pool}
}

func (p *PoolAdapter) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &txAdapter{querier: querier{q: tx}, tx: tx}, nil
}

type txAdapter struct {
	querier
	tx pgx.Tx
}

func (t *txAdapter) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *txAdapter) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

type commandTagAdapter struct {
	tag pgconn.CommandTag
}

func (c commandTagAdapter) RowsAffected() int64 {
	return c.tag.RowsAffected()
}
