package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerialisesSameKey(t *testing.T) {
	locker := NewKeyedMutex()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "GPY12345678ABC")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, locker.locks)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	locker := NewKeyedMutex()

	releaseA, err := locker.Acquire(context.Background(), "GPY00000001AAA")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseB, err := locker.Acquire(ctx, "GPY00000002BBB")
	require.NoError(t, err)
	releaseB()
}

func TestKeyedMutex_ContextCancelled(t *testing.T) {
	locker := NewKeyedMutex()

	release, err := locker.Acquire(context.Background(), "GPY12345678ABC")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "GPY12345678ABC")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()
	assert.Empty(t, locker.locks)
}
