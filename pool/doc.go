// Package pool provides a fixed-size worker pool with a bounded queue.
//
// A Pool starts a fixed number of workers at construction and never scales
// them. Submitted jobs are queued; when the queue is full, Submit either fails
// immediately with ErrSaturated or waits up to MaxWait for room.
//
// Every job receives the context it was submitted with. A job whose context is
// already done when a worker picks it up is skipped, so work that timed out
// while queued never starts.
//
//	p := pool.New(pool.Config{Workers: 8, QueueSize: 64})
//	defer p.Close()
//
//	err := p.Submit(ctx, func(ctx context.Context) {
//	    // runs on one of the 8 workers
//	})
package pool
