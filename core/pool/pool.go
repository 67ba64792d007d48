// Package pool runs database work on a fixed set of worker goroutines, each
// owning one connection, and exposes the set as an executor.Executor.
package pool

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/artpar/lifeguard/core/executor"
)

// DefaultQueueCapacity is the per-worker job channel capacity.
const DefaultQueueCapacity = 64

// Option configures a Pool.
type Option func(*Pool)

// WithDriver selects the database/sql driver. Default "postgres".
func WithDriver(name string) Option {
	return func(p *Pool) { p.driver = name }
}

// WithLogger sets the pool logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// WithMetrics sets the telemetry sink shared by the pool and its workers.
func WithMetrics(m executor.Metrics) Option {
	return func(p *Pool) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithQueueCapacity sets how many jobs may wait on each worker before
// submission blocks.
func WithQueueCapacity(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.queueCap = n
		}
	}
}

type result struct {
	v   any
	err error
}

type job struct {
	ctx      context.Context
	fn       func(ctx context.Context, ex executor.Executor) (any, error)
	enqueued time.Time
	resp     chan result
}

type worker struct {
	id   int
	conn *sql.Conn
	ex   *executor.Conn
	jobs chan job
}

// Pool dispatches jobs round-robin to workers. Each worker runs one job at a
// time on its own connection; workers run concurrently with each other.
type Pool struct {
	id       uuid.UUID
	driver   string
	logger   zerolog.Logger
	metrics  executor.Metrics
	queueCap int

	db      *sql.DB
	workers []*worker
	next    atomic.Uint64
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var _ executor.Executor = (*Pool)(nil)

// New connects size workers to connString. All connections are established
// concurrently; if any fails the pool is torn down and the error returned.
func New(ctx context.Context, connString string, size int, opts ...Option) (*Pool, error) {
	p := &Pool{
		id:       uuid.New(),
		driver:   DriverPostgres,
		logger:   zerolog.Nop(),
		metrics:  executor.NopMetrics{},
		queueCap: DefaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(p)
	}
	if size <= 0 {
		return nil, &ConnectionError{Kind: InvalidPoolConfig, Msg: fmt.Sprintf("pool size must be positive, got %d", size)}
	}
	p.logger = p.logger.With().Str("pool", p.id.String()).Logger()

	db, err := Connect(ctx, p.driver, connString, p.metrics)
	if err != nil {
		p.logger.Error().Err(err).Str("driver", p.driver).Msg("failed to connect")
		return nil, err
	}
	db.SetMaxOpenConns(size)
	db.SetMaxIdleConns(size)
	p.db = db

	p.workers = make([]*worker, size)
	g, gctx := errgroup.WithContext(ctx)
	for i := range p.workers {
		g.Go(func() error {
			start := time.Now()
			conn, err := db.Conn(gctx)
			if err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			p.metrics.ObserveConnectionWait(time.Since(start))
			p.workers[i] = &worker{
				id:   i,
				conn: conn,
				ex: executor.NewConn(conn,
					executor.WithLogger(p.logger.With().Int("worker", i).Logger()),
					executor.WithMetrics(p.metrics)),
				jobs: make(chan job, p.queueCap),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, w := range p.workers {
			if w != nil {
				w.conn.Close()
			}
		}
		db.Close()
		p.logger.Error().Err(err).Msg("failed to establish worker connections")
		return nil, &ConnectionError{Kind: ConnectFailed, Msg: "establish worker connections", Err: err}
	}

	for _, w := range p.workers {
		p.wg.Add(1)
		go p.run(w)
	}
	p.metrics.SetPoolSize(size)
	p.logger.Info().Int("workers", size).Str("driver", p.driver).Msg("pool started")
	return p, nil
}

// ID identifies the pool in logs.
func (p *Pool) ID() uuid.UUID { return p.id }

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

func (p *Pool) run(w *worker) {
	defer p.wg.Done()
	log := p.logger.With().Int("worker", w.id).Logger()
	log.Debug().Msg("worker started")

	for j := range w.jobs {
		p.metrics.ObserveConnectionWait(time.Since(j.enqueued))
		p.metrics.SetQueueDepth(p.queueDepth())
		j.resp <- p.runJob(log, w, j)
	}

	if err := w.conn.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close worker connection")
	}
	log.Debug().Msg("worker stopped")
}

func (p *Pool) runJob(log zerolog.Logger, w *worker, j job) (res result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("job panicked")
			res = result{err: fmt.Errorf("pool: job panicked: %v", r)}
		}
	}()
	v, err := j.fn(j.ctx, w.ex)
	return result{v: v, err: err}
}

func (p *Pool) queueDepth() int {
	n := 0
	for _, w := range p.workers {
		n += len(w.jobs)
	}
	return n
}

// submit hands fn to the next worker and waits for its result. The job runs
// to completion even if ctx is cancelled while waiting.
func (p *Pool) submit(ctx context.Context, fn func(ctx context.Context, ex executor.Executor) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPoolClosed
	}
	w := p.workers[(p.next.Add(1)-1)%uint64(len(p.workers))]
	j := job{ctx: ctx, fn: fn, enqueued: time.Now(), resp: make(chan result, 1)}
	select {
	case w.jobs <- j:
	case <-ctx.Done():
		p.mu.RUnlock()
		return nil, ctx.Err()
	}
	p.mu.RUnlock()
	p.metrics.SetQueueDepth(p.queueDepth())

	select {
	case r := <-j.resp:
		return r.v, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run executes fn on one worker, with that worker's connection as the
// executor. Everything fn does runs on the same connection.
func Run[T any](ctx context.Context, p *Pool, fn func(ctx context.Context, ex executor.Executor) (T, error)) (T, error) {
	v, err := p.submit(ctx, func(ctx context.Context, ex executor.Executor) (any, error) {
		return fn(ctx, ex)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	// v is nil when T is an interface type and fn returned nil.
	t, _ := v.(T)
	return t, nil
}

// WithTransaction runs fn inside a transaction on a single worker. The
// transaction is committed when fn returns nil and rolled back otherwise,
// unless fn already closed it.
func (p *Pool) WithTransaction(ctx context.Context, level IsolationLevel, fn func(ctx context.Context, tx *Transaction) error) error {
	_, err := Run(ctx, p, func(ctx context.Context, ex executor.Executor) (struct{}, error) {
		tx, err := Begin(ctx, ex, level)
		if err != nil {
			return struct{}{}, err
		}
		defer func() {
			if !tx.Closed() {
				if rerr := tx.Rollback(ctx); rerr != nil {
					p.logger.Error().Err(rerr).Msg("rollback failed")
				}
			}
		}()
		if err := fn(ctx, tx); err != nil {
			return struct{}{}, err
		}
		if tx.Closed() {
			return struct{}{}, nil
		}
		return struct{}{}, tx.Commit(ctx)
	})
	return err
}

func (p *Pool) Execute(ctx context.Context, query string, args []any) (int64, error) {
	return Run(ctx, p, func(ctx context.Context, ex executor.Executor) (int64, error) {
		return ex.Execute(ctx, query, args)
	})
}

func (p *Pool) QueryOne(ctx context.Context, query string, args []any) (executor.Row, error) {
	return Run(ctx, p, func(ctx context.Context, ex executor.Executor) (executor.Row, error) {
		return ex.QueryOne(ctx, query, args)
	})
}

func (p *Pool) QueryAll(ctx context.Context, query string, args []any) ([]executor.Row, error) {
	return Run(ctx, p, func(ctx context.Context, ex executor.Executor) ([]executor.Row, error) {
		return ex.QueryAll(ctx, query, args)
	})
}

// Close stops accepting work, lets workers drain their queues, and closes
// every connection. It is safe to call more than once.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	for _, w := range p.workers {
		close(w.jobs)
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.metrics.SetPoolSize(0)
	p.metrics.SetQueueDepth(0)
	p.logger.Info().Msg("pool stopped")
	return p.db.Close()
}
