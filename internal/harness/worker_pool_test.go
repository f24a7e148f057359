package harness

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRunsJobs(t *testing.T) {
	p := NewWorkerPool(3)
	defer p.Shutdown()
	require.Equal(t, 3, p.WorkerCount())
	require.Equal(t, 6, p.QueueCapacity())

	var (
		wg      sync.WaitGroup
		running atomic.Int32
		peak    atomic.Int32
		count   atomic.Int32
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Run(context.Background(), "job", func() {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				count.Add(1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, int32(12), count.Load())
	require.LessOrEqual(t, peak.Load(), int32(3))
	require.Zero(t, p.ActiveJobs())
}

func TestWorkerPoolCancelledContext(t *testing.T) {
	p := NewWorkerPool(1)
	defer p.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := p.Run(ctx, "cancelled", func() { called = true })
	require.ErrorIs(t, err, context.Canceled)
	time.Sleep(10 * time.Millisecond)
	require.False(t, called)
}

func TestWorkerPoolShutdown(t *testing.T) {
	p := NewWorkerPool(0)
	require.GreaterOrEqual(t, p.WorkerCount(), 2)
	p.Shutdown()
	p.Shutdown()
	require.ErrorIs(t, p.Run(context.Background(), "late", func() {}), ErrPoolClosed)
}
