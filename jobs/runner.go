// Package jobs - bounded background execution of pipeline work.
//
// The interactive front end never blocks on inference: it submits a job and
// receives a completion callback. Two policies guard the preview against
// races:
//
//   - Admission: at most one job is in flight. A submission made while a
//     job is running replaces any still-queued job instead of spawning a
//     new worker, so concurrency never grows unbounded.
//   - Staleness: every job carries a monotonic generation. A result whose
//     generation is older than the latest submission is discarded, so a
//     slow job can never overwrite the output of a newer selection.
package jobs

import (
	"context"
	"sync"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/smartbg-ai/go-smartbg/pipeline"
)

// Job is the immutable descriptor snapshotted at submission time. Mode and
// parameters are copied in, so later UI changes cannot leak into a running
// job.
type Job struct {
	ID         string
	Generation uint64
	Mode       pipeline.Mode
	Params     pipeline.Params
	InputPath  string
	OutputPath string
}

// Result is delivered to the completion callback for every job that is
// still current when it finishes.
type Result struct {
	Job Job
	Err error
}

// Runner executes jobs one at a time against a shared pipeline.
type Runner struct {
	pipe     *pipeline.Pipeline
	logger   *zap.Logger
	onResult func(Result)

	mu         sync.Mutex
	generation uint64
	running    bool
	pending    *Job
	wg         sync.WaitGroup
}

// NewRunner builds a runner delivering completions to onResult. The
// callback runs on the worker goroutine and must not block for long.
func NewRunner(pipe *pipeline.Pipeline, logger *zap.Logger, onResult func(Result)) *Runner {
	return &Runner{pipe: pipe, logger: logger, onResult: onResult}
}

// Submit snapshots the given parameters into a new job and schedules it.
// If a job is already running the submission is queued, replacing any job
// queued earlier; once submitted a job is never cancelled mid-run.
func (r *Runner) Submit(ctx context.Context, mode pipeline.Mode, params pipeline.Params, inputPath, outputPath string) Job {
	r.mu.Lock()
	r.generation++
	job := Job{
		ID:         ksuid.New().String(),
		Generation: r.generation,
		Mode:       mode,
		Params:     params,
		InputPath:  inputPath,
		OutputPath: outputPath,
	}

	r.wg.Add(1)
	if r.running {
		if r.pending != nil {
			r.logger.Debug("replacing queued job", zap.String("job", r.pending.ID))
			r.wg.Done()
		}
		r.pending = &job
		r.mu.Unlock()
		return job
	}
	r.running = true
	r.mu.Unlock()

	go r.run(ctx, job)
	return job
}

// Wait blocks until every submitted job has finished or been replaced.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, job Job) {
	err := r.pipe.ProcessFile(ctx, job.InputPath, job.OutputPath, job.Mode, job.Params)

	r.mu.Lock()
	stale := job.Generation != r.generation
	next := r.pending
	r.pending = nil
	if next == nil {
		r.running = false
	}
	r.mu.Unlock()

	if stale {
		r.logger.Info("discarding stale job result",
			zap.String("job", job.ID),
			zap.Uint64("generation", job.Generation))
	} else {
		r.onResult(Result{Job: job, Err: err})
	}
	r.wg.Done()

	if next != nil {
		r.run(ctx, *next)
	}
}
