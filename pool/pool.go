// Package pool bounds how many page sessions run at the same time.
//
// Work is partitioned into consecutive batches ("turns") of at most Size items. All
// workers of a batch start together; the next batch starts only once every worker of
// the current one has returned. There is no work stealing across batches, so the number
// of open tabs never exceeds Size.
package pool

import (
	"context"
	"fmt"

	"github.com/anigrab/anigrab/session"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"
)

// Batches returns the batch sizes used for n items with the given concurrency:
// ceil(n/size) batches, all of length size except possibly the last.
func Batches(n, size int) []int {
	if n <= 0 {
		return nil
	}
	size = max(size, 1)

	sizes := make([]int, 0, (n+size-1)/size)
	for n > 0 {
		step := min(n, size)
		sizes = append(sizes, step)
		n -= step
	}
	return sizes
}

// Batched runs worker over items batch by batch and returns one result per item, in input order.
// A worker error or panic only affects that item's result. Once ctx is done no further batch is
// started and the remaining items report ctx.Err().
// onBatch, if given, is called after every batch with the number of items settled so far.
func Batched[T, R any](
	ctx context.Context,
	items []T,
	size int,
	worker func(context.Context, T) (R, error),
	onBatch func(done int),
) []mo.Result[R] {
	results := make([]mo.Result[R], len(items))
	offset := 0

	for _, batch := range lo.Chunk(items, max(size, 1)) {
		if err := ctx.Err(); err != nil {
			for i := offset; i < len(items); i++ {
				results[i] = mo.Err[R](err)
			}
			return results
		}

		var g errgroup.Group
		for i, item := range batch {
			idx := offset + i
			g.Go(func() error {
				results[idx] = mo.TupleToResult(protect(ctx, item, worker))
				return nil
			})
		}
		_ = g.Wait()

		offset += len(batch)
		if onBatch != nil {
			onBatch(offset)
		}
	}

	return results
}

func protect[T, R any](ctx context.Context, item T, worker func(context.Context, T) (R, error)) (r R, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("worker panicked: %v", p)
		}
	}()
	return worker(ctx, item)
}

// Pool drives work through page sessions opened on a shared browser.
type Pool struct {
	browser session.Browser
	size    int
}

// Progress is notified after every batch with the settled and total item counts.
type Progress func(done, total int)

// New creates a pool allowing at most size concurrent sessions on browser.
func New(browser session.Browser, size int) *Pool {
	return &Pool{browser: browser, size: max(size, 1)}
}

// Size is the concurrency bound.
func (p *Pool) Size() int {
	return p.size
}

// WithTab runs fn in a freshly opened session that is closed when fn returns.
func (p *Pool) WithTab(ctx context.Context, fn func(*session.Session) error) error {
	return session.Use(ctx, p.browser, fn)
}

// Map runs worker over items in batches without opening sessions itself;
// workers call WithTab for every unit of page work they perform. progress may be nil.
func Map[T, R any](ctx context.Context, p *Pool, items []T, worker func(context.Context, T) (R, error), progress Progress) []mo.Result[R] {
	return Batched(ctx, items, p.size, worker, progress.of(len(items)))
}

// Run runs worker over items in batches, each invocation inside its own page session.
func Run[T, R any](ctx context.Context, p *Pool, items []T, worker func(context.Context, *session.Session, T) (R, error), progress Progress) []mo.Result[R] {
	return Map(ctx, p, items, func(ctx context.Context, item T) (R, error) {
		var r R
		err := p.WithTab(ctx, func(s *session.Session) error {
			var err error
			r, err = worker(ctx, s, item)
			return err
		})
		return r, err
	}, progress)
}

func (fn Progress) of(total int) func(int) {
	if fn == nil {
		return nil
	}
	return func(done int) { fn(done, total) }
}
