package fanout

import (
	"bytes"
	"sync"
	"testing"

	"github.com/jonwraymond/fanout/observe"
	"github.com/jonwraymond/fanout/pool"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestPool(t *testing.T, cfg pool.Config) *pool.Pool {
	t.Helper()

	p := pool.New(cfg)
	t.Cleanup(p.Close)
	return p
}

func newTestGuard(t *testing.T, opts ...GuardOption) *Guard {
	t.Helper()
	return NewGuard(newTestPool(t, pool.Config{Workers: 8, QueueSize: 32}), opts...)
}

func newLoggedGuard(t *testing.T, opts ...GuardOption) (*Guard, *syncBuffer) {
	t.Helper()

	buf := &syncBuffer{}
	inst := observe.NewInstrumentation(nil, nil, observe.NewLoggerWithWriter("debug", buf))
	return newTestGuard(t, append(opts, WithInstrumentation(inst))...), buf
}
