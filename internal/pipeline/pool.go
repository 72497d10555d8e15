package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"cavern/internal/logger"
)

var ErrPoolClosed = errors.New("pipeline: worker pool closed")

// WorkerPool runs requests on a bounded pond pool and delivers results on a
// single channel for the driver to drain.
type WorkerPool struct {
	pool   pond.Pool
	slices pond.Pool

	results   chan Result
	queueSize int
	queued    atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool

	log *zap.Logger
}

// NewWorkerPool starts a pool of workers chunk generators. Slice-parallel
// extraction gets its own pool so a worker never waits on a queue it
// occupies. queueSize bounds accepted but unfinished jobs.
func NewWorkerPool(workers, sliceWorkers, queueSize int, log *zap.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	workers = max(workers, 1)
	queueSize = max(queueSize, workers)

	p := &WorkerPool{
		pool:      pond.NewPool(workers),
		results:   make(chan Result, queueSize),
		queueSize: queueSize,
		ctx:       ctx,
		cancel:    cancel,
		log:       logger.Or(log),
	}
	if sliceWorkers > 1 {
		p.slices = pond.NewPool(sliceWorkers)
	}
	return p
}

// SubmitJob queues req. It returns false when the pool is closed or already
// holds queueSize unfinished jobs.
func (p *WorkerPool) SubmitJob(req Request) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	if p.queued.Load() >= int64(p.queueSize) {
		return false
	}
	p.queued.Add(1)
	p.pool.Submit(func() {
		if p.ctx.Err() != nil {
			p.queued.Add(-1)
			return
		}
		res := Run(req, p.slices, p.log)
		select {
		case p.results <- res:
		case <-p.ctx.Done():
			p.queued.Add(-1)
		}
	})
	return true
}

// Results delivers finished jobs. Call Done for every value received.
func (p *WorkerPool) Results() <-chan Result {
	return p.results
}

// Done releases the queue slot of a received result.
func (p *WorkerPool) Done() {
	p.queued.Add(-1)
}

// Outstanding counts jobs submitted but not yet released with Done.
func (p *WorkerPool) Outstanding() int {
	return int(p.queued.Load())
}

// GetQueueLength returns jobs waiting for a free worker.
func (p *WorkerPool) GetQueueLength() int {
	return int(p.pool.WaitingTasks())
}

// RunningWorkers reports busy workers.
func (p *WorkerPool) RunningWorkers() int {
	return int(p.pool.RunningWorkers())
}

// Shutdown stops accepting jobs, abandons undelivered results, and waits for
// running jobs to return. Jobs that had not started are skipped.
func (p *WorkerPool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.pool.StopAndWait()
	if p.slices != nil {
		p.slices.StopAndWait()
	}
}
