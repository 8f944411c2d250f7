package visitor

import (
	"context"
	"sync"

	dErrors "visitors/pkg/domain-errors"
)

// analyzeWorkers bounds the pool behind the awaitable fetch/sum operations.
const analyzeWorkers = 2

// analyzer is a small fixed worker pool. It is created with the service and
// released by Service.Close; tasks submitted after close panic, which only
// happens if a caller races shutdown.
type analyzer struct {
	tasks chan func()
	wg    sync.WaitGroup
}

func newAnalyzer(workers int) *analyzer {
	a := &analyzer{tasks: make(chan func(), workers)}
	for range workers {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			for task := range a.tasks {
				task()
			}
		}()
	}
	return a
}

func (a *analyzer) submit(task func()) {
	a.tasks <- task
}

func (a *analyzer) close() {
	close(a.tasks)
	a.wg.Wait()
}

// FetchResult carries the outcome of an awaitable fetch-all.
type FetchResult struct {
	Visitors []Visitor
	Err      error
}

// DurationResult carries the outcome of an awaitable duration sum.
type DurationResult struct {
	Total int64
	Err   error
}

// FetchAllVisitors loads every visitor (raw entities, not projections) on the
// analyze pool. The returned channel yields exactly one result and is then
// closed, so callers can overlap the fetch with other work.
func (s *Service) FetchAllVisitors(ctx context.Context) <-chan FetchResult {
	out := make(chan FetchResult, 1)
	s.pool.submit(func() {
		defer close(out)
		visitors, err := s.store.FindAll(ctx)
		if err != nil {
			s.logger.Error("failed to fetch visitors for analysis", "error", err)
			out <- FetchResult{Err: dErrors.Wrap(dErrors.CodeRetrieval, "failed to retrieve visitors", err)}
			return
		}
		out <- FetchResult{Visitors: visitors}
	})
	return out
}

// CalculateTotalDuration sums the durations of the supplied visitors on the
// analyze pool without touching the store. The returned channel yields
// exactly one result and is then closed.
func (s *Service) CalculateTotalDuration(ctx context.Context, visitors []Visitor) <-chan DurationResult {
	out := make(chan DurationResult, 1)
	s.pool.submit(func() {
		defer close(out)
		select {
		case <-ctx.Done():
			out <- DurationResult{Err: dErrors.Wrap(dErrors.CodeInternal, "duration calculation cancelled", ctx.Err())}
		default:
			out <- DurationResult{Total: sumDurations(visitors)}
		}
	})
	return out
}
