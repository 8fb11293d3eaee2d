package work

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/headlines/internal/logging"
	"github.com/abelbrown/headlines/internal/sources"
)

// ErrStopTimeout is returned by Stop when workers outlive the grace period.
var ErrStopTimeout = errors.New("work pool: workers still running after grace period")

// Pool is a fixed-size fetch pool.
//
// Submit never blocks: the job and result channels are sized for every
// source to be outstanding at once, and the scheduler never hands out a
// source twice before its result is consumed.
type Pool struct {
	fetcher Fetcher
	workers int

	jobs    chan sources.Source
	results chan Result

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	active    atomic.Int64
}

// NewPool creates a pool of workers able to hold capacity outstanding jobs.
func NewPool(f Fetcher, workers, capacity int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if capacity <= 0 {
		capacity = workers
	}
	return &Pool{
		fetcher: f,
		workers: workers,
		jobs:    make(chan sources.Source, capacity),
		results: make(chan Result, capacity),
	}
}

// Start launches the workers. They run until ctx is cancelled or Stop is
// called.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.group, p.ctx = errgroup.WithContext(p.ctx)

	logging.Info("Work pool starting", "workers", p.workers, "capacity", cap(p.jobs))
	for i := 0; i < p.workers; i++ {
		id := i
		p.group.Go(func() error {
			return p.worker(id)
		})
	}
}

// Submit queues a fetch of src. Returns false if the pool is stopped or the
// queue is full.
func (p *Pool) Submit(src sources.Source) bool {
	if p.ctx == nil || p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobs <- src:
		p.submitted.Add(1)
		return true
	default:
		logging.Warn("Work queue full, fetch dropped", "source", src)
		return false
	}
}

// Results is the single hand-off channel for finished fetches.
func (p *Pool) Results() <-chan Result { return p.results }

func (p *Pool) worker(id int) error {
	logging.Debug("Worker started", "worker", id)
	defer logging.Debug("Worker stopped", "worker", id)

	for {
		select {
		case <-p.ctx.Done():
			return nil
		case src := <-p.jobs:
			r := p.run(src)
			select {
			case p.results <- r:
			case <-p.ctx.Done():
				return nil
			}
		}
	}
}

// run fetches one source, turning a panic into a failed result.
func (p *Pool) run(src sources.Source) (r Result) {
	p.active.Add(1)
	r = Result{Source: src, Started: time.Now()}
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error("Fetch panicked", "source", src, "panic", rec)
			r.Err = fmt.Errorf("panic: %v", rec)
			r.Items = nil
		}
		r.Duration = time.Since(r.Started)
		p.active.Add(-1)
		if r.Err != nil {
			p.failed.Add(1)
		} else {
			p.completed.Add(1)
		}
		logResult(r)
	}()

	r.Items, r.Err = p.fetcher.Fetch(p.ctx, src)
	return r
}

// Cancel aborts in-flight fetches without waiting for the workers.
func (p *Pool) Cancel() {
	if p.cancel != nil {
		p.cancel()
	}
}

// Stop cancels in-flight fetches and waits up to grace for the workers to
// exit. Safe to call more than once.
func (p *Pool) Stop(grace time.Duration) error {
	if p.cancel == nil {
		return nil
	}
	var err error
	p.once.Do(func() {
		logging.Info("Work pool stopping")
		p.cancel()

		done := make(chan error, 1)
		go func() { done <- p.group.Wait() }()

		select {
		case err = <-done:
		case <-time.After(grace):
			err = ErrStopTimeout
		}
		s := p.Stats()
		logging.Info("Work pool stopped",
			"submitted", s.Submitted,
			"completed", s.Completed,
			"failed", s.Failed,
			"error", err)
	})
	return err
}

// Stats returns current counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Active:    p.active.Load(),
		Queued:    len(p.jobs),
		Workers:   p.workers,
	}
}
