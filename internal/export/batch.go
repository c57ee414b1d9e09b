package export

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/terragen/internal/logger"
)

// RunBatch runs independent exports with at most parallelism in flight.
// Results are in job order. The first failure cancels the shared context,
// so jobs still waiting for a slot or between stages stop early; results
// of jobs that finished are kept.
func RunBatch(ctx context.Context, jobs []Job, parallelism int) ([]*Result, error) {
	if parallelism <= 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJob, errInvalidParallelism)
	}

	seen := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		if seen[job.Dir()] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
		}
		seen[job.Dir()] = true
	}

	results := make([]*Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := Run(gctx, job)
			if err != nil {
				return fmt.Errorf("map %s: %w", job.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	err := g.Wait()

	done := 0
	for _, r := range results {
		if r != nil {
			done++
		}
	}
	logger.Info("batch finished",
		zap.Int("jobs", len(jobs)),
		zap.Int("exported", done),
		zap.Int("parallelism", parallelism),
		zap.Error(err))

	return results, err
}
