package executor

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"
)

// Querier is the subset of *sql.DB, *sql.Conn and *sql.Tx that Conn needs.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Option configures a Conn.
type Option func(*Conn)

// WithLogger sets the logger used for statement tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Conn) { c.logger = l }
}

// WithMetrics sets the telemetry sink.
func WithMetrics(m Metrics) Option {
	return func(c *Conn) {
		if m != nil {
			c.metrics = m
		}
	}
}

// Conn is the direct Executor over a database/sql handle.
type Conn struct {
	q       Querier
	logger  zerolog.Logger
	metrics Metrics
}

// NewConn wraps q.
func NewConn(q Querier, opts ...Option) *Conn {
	c := &Conn{q: q, logger: zerolog.Nop(), metrics: NopMetrics{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs a statement and returns the affected row count.
func (c *Conn) Execute(ctx context.Context, query string, args []any) (int64, error) {
	start := time.Now()
	res, err := c.q.ExecContext(ctx, query, args...)
	var n int64
	if err == nil {
		n, err = res.RowsAffected()
	}
	c.observe(query, start, err)
	if err != nil {
		return 0, Driver(err)
	}
	return n, nil
}

// QueryOne returns the single row produced by query.
func (c *Conn) QueryOne(ctx context.Context, query string, args []any) (Row, error) {
	rows, err := c.QueryAll(ctx, query, args)
	if err != nil {
		return Row{}, err
	}
	switch len(rows) {
	case 0:
		return Row{}, &LifeError{Kind: QueryError, Err: ErrNoRows}
	case 1:
		return rows[0], nil
	default:
		return Row{}, &LifeError{Kind: QueryError, Msg: "expected one row", Err: ErrTooManyRows}
	}
}

// QueryAll returns every row produced by query.
func (c *Conn) QueryAll(ctx context.Context, query string, args []any) ([]Row, error) {
	start := time.Now()
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		c.observe(query, start, err)
		return nil, Driver(err)
	}
	out, err := ScanRows(rows)
	c.observe(query, start, err)
	return out, err
}

func (c *Conn) observe(query string, start time.Time, err error) {
	d := time.Since(start)
	c.metrics.ObserveQuery(d, err)
	if err != nil {
		c.logger.Debug().Err(err).Str("sql", query).Dur("duration", d).Msg("statement failed")
		return
	}
	c.logger.Debug().Str("sql", query).Dur("duration", d).Msg("statement executed")
}
