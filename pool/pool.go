package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config configures the worker pool.
type Config struct {
	// Workers is the fixed number of concurrent workers.
	// Default: 16
	Workers int

	// QueueSize is the number of jobs that may wait for a worker.
	// Default: 256
	QueueSize int

	// MaxWait is how long Submit waits for queue room when the queue is full.
	// Default: 0 (fail immediately with ErrSaturated)
	MaxWait time.Duration

	// OnPanic is called when a job panics. The worker survives either way.
	OnPanic func(recovered any)
}

type job struct {
	ctx context.Context
	fn  func(context.Context)
}

// Pool runs submitted jobs on a fixed set of workers.
type Pool struct {
	config Config
	queue  chan job
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	active    atomic.Int64
	completed atomic.Int64
	skipped   atomic.Int64
	rejected  atomic.Int64
	panicked  atomic.Int64
}

// New creates a pool and starts its workers.
func New(config Config) *Pool {
	// Apply defaults
	if config.Workers <= 0 {
		config.Workers = 16
	}
	if config.QueueSize < 0 {
		config.QueueSize = 0
	} else if config.QueueSize == 0 {
		config.QueueSize = 256
	}

	p := &Pool{
		config: config,
		queue:  make(chan job, config.QueueSize),
	}

	p.wg.Add(config.Workers)
	for i := 0; i < config.Workers; i++ {
		go p.worker()
	}
	return p
}

// Submit queues fn for execution. It never runs fn on the caller's goroutine.
//
// Returns ErrSaturated when the queue stays full for MaxWait, ErrClosed after
// Close, or ctx.Err() when ctx ends while waiting.
func (p *Pool) Submit(ctx context.Context, fn func(context.Context)) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	j := job{ctx: ctx, fn: fn}

	// Fast path: try non-blocking enqueue
	select {
	case p.queue <- j:
		return nil
	default:
	}

	if p.config.MaxWait <= 0 {
		p.rejected.Add(1)
		return ErrSaturated
	}

	timer := time.NewTimer(p.config.MaxWait)
	defer timer.Stop()

	select {
	case p.queue <- j:
		return nil
	case <-timer.C:
		p.rejected.Add(1)
		return ErrSaturated
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs, lets queued jobs drain, and waits for the
// workers to exit. It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for j := range p.queue {
		if j.ctx.Err() != nil {
			p.skipped.Add(1)
			continue
		}
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		if r := recover(); r != nil {
			p.panicked.Add(1)
			if p.config.OnPanic != nil {
				p.config.OnPanic(r)
			}
			return
		}
		p.completed.Add(1)
	}()

	j.fn(j.ctx)
}

// Metrics returns current pool statistics.
func (p *Pool) Metrics() Metrics {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()

	return Metrics{
		Workers:   p.config.Workers,
		QueueSize: p.config.QueueSize,
		Queued:    len(p.queue),
		Active:    int(p.active.Load()),
		Completed: p.completed.Load(),
		Skipped:   p.skipped.Load(),
		Rejected:  p.rejected.Load(),
		Panicked:  p.panicked.Load(),
		Closed:    closed,
	}
}

// Config returns the effective pool configuration.
func (p *Pool) Config() Config {
	return p.config
}

// Metrics contains pool statistics.
type Metrics struct {
	Workers   int
	QueueSize int
	Queued    int
	Active    int
	Completed int64
	Skipped   int64
	Rejected  int64
	Panicked  int64
	Closed    bool
}

// Saturation returns the fraction of the queue currently occupied.
func (m Metrics) Saturation() float64 {
	if m.QueueSize == 0 {
		if m.Active >= m.Workers {
			return 1
		}
		return 0
	}
	return float64(m.Queued) / float64(m.QueueSize)
}
