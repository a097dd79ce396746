// ytparser/task/limiter_test.go
package task

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_BoundsConcurrency(t *testing.T) {
	const capacity = 3
	limiter := NewLimiter(capacity)

	var current, peak int64
	var wg sync.WaitGroup

	// Submit capacity+1 "jobs" at once; at no instant may more than
	// capacity of them be inside the critical section.
	for i := 0; i < capacity+1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, limiter.Acquire(context.Background()))
			defer limiter.Release()

			n := atomic.AddInt64(&current, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond) // Simulate work
			atomic.AddInt64(&current, -1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(capacity))
	assert.Greater(t, atomic.LoadInt64(&peak), int64(0))
}

func TestLimiter_AcquireHonorsContext(t *testing.T) {
	limiter := NewLimiter(1)
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := limiter.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	limiter.Release()
	assert.NoError(t, limiter.Acquire(context.Background()))
}

func TestNewLimiter_MinimumCapacity(t *testing.T) {
	limiter := NewLimiter(0)
	assert.NoError(t, limiter.Acquire(context.Background()))
	limiter.Release()
}
