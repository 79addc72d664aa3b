// Package batch runs independent what-if calculation jobs with bounded
// concurrency and per-job progress reporting.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/voltdrop-cli/internal/cache"
	"github.com/sells-group/voltdrop-cli/internal/model"
)

// JobError wraps an error raised while processing one batch job. Job
// failures are isolated: they mark the job's status, never the batch.
type JobError struct {
	JobID string
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("batch: job %s: %v", e.JobID, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// Options configures one Process call.
type Options struct {
	// OnProgress fires after every job reaches a terminal state, with the
	// running completed count; the final invocation is always (total, total).
	OnProgress func(done, total int)

	// OnJobComplete fires exactly once per job, immediately after its
	// terminal status is set.
	OnJobComplete func(job *model.BatchJob)

	// Concurrency bounds the worker pool. Zero or negative means unbounded:
	// every job is started at once.
	Concurrency int

	// JobsPerSecond paces job starts. Zero means unpaced.
	JobsPerSecond float64
}

// Processor executes batches of voltage-drop jobs through a kernel-shaped
// compute function (typically the cache-wrapped kernel).
type Processor struct {
	compute cache.ComputeFunc
}

// NewProcessor creates a batch processor.
func NewProcessor(compute cache.ComputeFunc) *Processor {
	return &Processor{compute: compute}
}

// CreateJobs builds one pending job per variation. Each job's input is the
// base circuit with the variation deep-merged over it; nested per-type
// configuration merges field-by-field, not wholesale. Jobs are independent
// and share no mutable state.
func CreateJobs(base model.CircuitInput, variations []model.CircuitVariation) []*model.BatchJob {
	jobs := make([]*model.BatchJob, 0, len(variations))
	for _, v := range variations {
		jobs = append(jobs, &model.BatchJob{
			ID:     uuid.New().String(),
			Input:  v.Apply(base),
			Status: model.JobPending,
		})
	}
	return jobs
}

// Process runs every job to a terminal state and returns the same slice.
// A single job's failure marks that job as error and never aborts the
// batch; Process returns only after all jobs are terminal. Context
// cancellation marks not-yet-started jobs as error.
func (p *Processor) Process(ctx context.Context, jobs []*model.BatchJob, opts Options) ([]*model.BatchJob, error) {
	total := len(jobs)
	if total == 0 {
		return jobs, nil
	}

	var limiter *rate.Limiter
	if opts.JobsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.JobsPerSecond), 1)
	}

	zap.L().Info("batch: processing jobs",
		zap.Int("jobs", total),
		zap.Int("concurrency", opts.Concurrency),
	)

	// Guards job status transitions and keeps the progress counter in step
	// with the callbacks.
	var mu sync.Mutex
	done := 0

	finish := func(job *model.BatchJob, result *model.VoltageDropResult, err error) {
		mu.Lock()
		defer mu.Unlock()

		if err != nil {
			job.Status = model.JobError
			job.Err = err.Error()
		} else {
			job.Status = model.JobCompleted
			job.Result = result
		}
		done++

		if opts.OnJobComplete != nil {
			opts.OnJobComplete(job)
		}
		if opts.OnProgress != nil {
			opts.OnProgress(done, total)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				finish(job, nil, &JobError{JobID: job.ID, Err: err})
				return nil
			}
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					finish(job, nil, &JobError{JobID: job.ID, Err: err})
					return nil
				}
			}

			mu.Lock()
			job.Status = model.JobProcessing
			mu.Unlock()

			result, err := p.compute(job.Input)
			if err != nil {
				zap.L().Warn("batch: job failed",
					zap.String("job_id", job.ID),
					zap.Error(err),
				)
				finish(job, nil, &JobError{JobID: job.ID, Err: err})
				return nil // individual failures don't abort the batch
			}

			finish(job, result, nil)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return jobs, eris.Wrap(err, "batch: process")
	}

	mu.Lock()
	completed := 0
	failed := 0
	for _, job := range jobs {
		switch job.Status {
		case model.JobCompleted:
			completed++
		case model.JobError:
			failed++
		}
	}
	mu.Unlock()

	zap.L().Info("batch: complete",
		zap.Int("completed", completed),
		zap.Int("failed", failed),
	)
	return jobs, nil
}
