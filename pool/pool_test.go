package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	p := New(Config{})
	defer p.Close()

	assert.Equal(t, 16, p.Config().Workers)
	assert.Equal(t, 256, p.Config().QueueSize)
	assert.Zero(t, p.Config().MaxWait)
}

func TestPool_RunsJobs(t *testing.T) {
	p := New(Config{Workers: 4, QueueSize: 16})
	defer p.Close()

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		err := p.Submit(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			count.Add(1)
		})
		require.NoError(t, err)
	}
	wg.Wait()

	assert.Equal(t, int32(10), count.Load())
}

func TestPool_BoundedConcurrency(t *testing.T) {
	p := New(Config{Workers: 2, QueueSize: 10})
	defer p.Close()

	var current, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			n := current.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
		}))
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPool_SaturatedFailsFast(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 1})
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started

	// Fills the single queue slot.
	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {}))

	err := p.Submit(context.Background(), func(ctx context.Context) {
		t.Error("rejected job must not run")
	})
	assert.ErrorIs(t, err, ErrSaturated)
	assert.Equal(t, int64(1), p.Metrics().Rejected)

	close(release)
}

func TestPool_MaxWaitAdmitsWhenRoomFrees(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 1, MaxWait: time.Second})
	defer p.Close()

	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {
		close(started)
		time.Sleep(20 * time.Millisecond)
	}))
	<-started
	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {}))

	done := make(chan struct{})
	err := p.Submit(context.Background(), func(ctx context.Context) { close(done) })
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiting job never ran")
	}
}

func TestPool_MaxWaitExpires(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 1, MaxWait: 10 * time.Millisecond})
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started
	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {}))

	err := p.Submit(context.Background(), func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrSaturated)

	close(release)
}

func TestPool_SkipsExpiredJobs(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 4})
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Bool
	require.NoError(t, p.Submit(ctx, func(ctx context.Context) { ran.Store(true) }))
	cancel()
	close(release)

	p.Close()
	assert.False(t, ran.Load())
	assert.Equal(t, int64(1), p.Metrics().Skipped)
}

func TestPool_SubmitCancelledContext(t *testing.T) {
	p := New(Config{Workers: 1})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Submit(ctx, func(ctx context.Context) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_PanicDoesNotKillWorker(t *testing.T) {
	var recovered atomic.Value
	p := New(Config{Workers: 1, OnPanic: func(r any) { recovered.Store(r) }})
	defer p.Close()

	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {
		panic("boom")
	}))

	done := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive panic")
	}
	assert.Equal(t, "boom", recovered.Load())
	assert.Equal(t, int64(1), p.Metrics().Panicked)
}

func TestPool_CloseDrainsAndRejects(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 8})

	var count atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {
			time.Sleep(time.Millisecond)
			count.Add(1)
		}))
	}
	p.Close()
	p.Close()

	assert.Equal(t, int32(5), count.Load())
	assert.ErrorIs(t, p.Submit(context.Background(), func(ctx context.Context) {}), ErrClosed)
	assert.True(t, p.Metrics().Closed)
}

func TestMetrics_Saturation(t *testing.T) {
	assert.InDelta(t, 0.5, Metrics{QueueSize: 4, Queued: 2}.Saturation(), 0.001)
	assert.Equal(t, 1.0, Metrics{Workers: 2, Active: 2}.Saturation())
	assert.Equal(t, 0.0, Metrics{Workers: 2, Active: 1}.Saturation())
}
