package repoparse

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/schemalift-labs/schemalift/pkg/ddl"
)

// DefaultRepositoryTimeout bounds the total time spent on one repository.
const DefaultRepositoryTimeout = 5 * time.Minute

// Summary aggregates the run over all repositories.
type Summary struct {
	Repositories int
	Completed    int
	Abandoned    int // timed out; partial output discarded, never retried
	Report       ddl.Report
}

// Runner executes the pipeline over many repositories with a bounded
// worker pool. Repositories share nothing, so no locking is needed beyond
// result collection.
type Runner struct {
	pipeline    *Pipeline
	logger      *slog.Logger
	workers     int64
	repoTimeout time.Duration
}

// NewRunner creates a runner. Non-positive workers or timeout fall back
// to one worker and the default repository timeout.
func NewRunner(pipeline *Pipeline, logger *slog.Logger, workers int, repoTimeout time.Duration) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if workers <= 0 {
		workers = 1
	}
	if repoTimeout <= 0 {
		repoTimeout = DefaultRepositoryTimeout
	}
	return &Runner{
		pipeline:    pipeline,
		logger:      logger,
		workers:     int64(workers),
		repoTimeout: repoTimeout,
	}
}

// RunAll processes every repository, at most `workers` at a time. A
// repository that exceeds its timeout is abandoned: its partial output is
// discarded and it is not retried. Results keep the input order of the
// repositories that completed.
func (r *Runner) RunAll(ctx context.Context, repos []*Repository) ([]*Result, Summary, error) {
	summary := Summary{Repositories: len(repos)}

	sem := semaphore.NewWeighted(r.workers)
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	results := make([]*Result, len(repos))

	for i, repo := range repos {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}

		g.Go(func() error {
			defer sem.Release(1)

			repoCtx, cancel := context.WithTimeout(gctx, r.repoTimeout)
			defer cancel()

			start := time.Now()
			res, err := r.pipeline.Run(repoCtx, repo)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) && gctx.Err() == nil {
					r.logger.Warn("repository abandoned",
						"repository", repo.Name, "elapsed", time.Since(start))
					mu.Lock()
					summary.Abandoned++
					mu.Unlock()
					return nil
				}
				return err
			}

			r.logger.Info("repository done",
				"repository", repo.Name,
				"tables", res.Model.Len(),
				"queries", len(res.Queries),
				"elapsed", time.Since(start))

			mu.Lock()
			results[i] = res
			summary.Completed++
			summary.Report.Merge(res.Report)
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()

	out := make([]*Result, 0, summary.Completed)
	for _, res := range results {
		if res != nil {
			out = append(out, res)
		}
	}
	return out, summary, err
}
