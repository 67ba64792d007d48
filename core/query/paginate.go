package query

import (
	"context"
	"math"
	"sync"

	"github.com/artpar/lifeguard/core/executor"
)

// Paginator fetches a query page by page. Pages are numbered from 1; page 0
// is treated as page 1.
type Paginator[M any] struct {
	sel  Select[M]
	ex   executor.Executor
	size uint64
}

// Paginate returns a paginator with pageSize rows per page.
func (s Select[M]) Paginate(ex executor.Executor, pageSize uint64) *Paginator[M] {
	return &Paginator[M]{sel: s, ex: ex, size: pageSize}
}

// PageOffset returns (page-1)*size with saturating arithmetic.
func PageOffset(page, size uint64) uint64 {
	if page <= 1 || size == 0 {
		return 0
	}
	p := page - 1
	if p > math.MaxUint64/size {
		return math.MaxUint64
	}
	return p * size
}

// FetchPage returns the rows of page.
func (p *Paginator[M]) FetchPage(ctx context.Context, page uint64) ([]M, error) {
	return p.sel.Limit(p.size).Offset(PageOffset(page, p.size)).All(ctx, p.ex)
}

// NumItems counts every row the query matches.
func (p *Paginator[M]) NumItems(ctx context.Context) (int64, error) {
	return p.sel.Count(ctx, p.ex)
}

// NumPages returns the number of pages needed for every matching row.
func (p *Paginator[M]) NumPages(ctx context.Context) (uint64, error) {
	n, err := p.NumItems(ctx)
	if err != nil {
		return 0, err
	}
	return pages(uint64(n), p.size), nil
}

func pages(items, size uint64) uint64 {
	if size == 0 {
		return 0
	}
	return (items + size - 1) / size
}

// PaginatorWithCount is a Paginator that runs the COUNT query at most once.
type PaginatorWithCount[M any] struct {
	*Paginator[M]

	mu    sync.Mutex
	total *int64
}

// PaginateAndCount returns a count-caching paginator.
func (s Select[M]) PaginateAndCount(ex executor.Executor, pageSize uint64) *PaginatorWithCount[M] {
	return &PaginatorWithCount[M]{Paginator: s.Paginate(ex, pageSize)}
}

// NumItems returns the cached total, counting on first use.
func (p *PaginatorWithCount[M]) NumItems(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total != nil {
		return *p.total, nil
	}
	n, err := p.Paginator.NumItems(ctx)
	if err != nil {
		return 0, err
	}
	p.total = &n
	return n, nil
}

// NumPages uses the cached total.
func (p *PaginatorWithCount[M]) NumPages(ctx context.Context) (uint64, error) {
	n, err := p.NumItems(ctx)
	if err != nil {
		return 0, err
	}
	return pages(uint64(n), p.size), nil
}
