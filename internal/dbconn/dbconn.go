// Package dbconn wraps pgxpool behind the small interface the
// Scheduler and Assertion Runner actually need, the way the teacher's
// dbintf.go wraps database/sql behind its own DB interface rather than
// depending on *sql.DB directly everywhere.
package dbconn

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn is one acquired connection: enough to run a statement or a
// single-row query. A Task's DDL, INSERT, and tests all run on the same
// Conn so they serialize on one connection per §5.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Release()
}

// Pool hands out Conns, bounded at a fixed size.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
	Close()
}

// pgxPool adapts *pgxpool.Pool to Pool.
type pgxPool struct {
	pool *pgxpool.Pool
}

// NewPool builds a connection pool against dsn with MaxConns set to
// size when size is positive. size is typically the number of Tasks in
// the execution set; it is used as given and is not checked against the
// database server's max_connections.
func NewPool(ctx context.Context, dsn string, size int32) (Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if size > 0 {
		cfg.MaxConns = size
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &pgxPool{pool: pool}, nil
}

func (p *pgxPool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxConn{conn: conn}, nil
}

func (p *pgxPool) Close() {
	p.pool.Close()
}

type pgxConn struct {
	conn *pgxpool.Conn
}

func (c *pgxConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.conn.Exec(ctx, sql, args...)
}

func (c *pgxConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.conn.QueryRow(ctx, sql, args...)
}

func (c *pgxConn) Release() {
	c.conn.Release()
}

// AsPgError unwraps a driver error into *pgconn.PgError, the way the
// teacher's mssql_error.go distinguishes driver-reported user errors
// from everything else, following the pattern used against pgx in
// the Postgres job-scheduler reference implementation.
func AsPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
