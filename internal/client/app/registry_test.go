package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_InitOnce(t *testing.T) {
	r := NewRegistry()
	calls := 0
	fn := func() error { calls++; return nil }

	ran, err := r.InitOnce(KeyWatcher, fn)
	require.NoError(t, err)
	assert.True(t, ran)

	ran, err = r.InitOnce(KeyWatcher, fn)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, 1, calls)
	assert.True(t, r.Done(KeyWatcher))
	assert.False(t, r.Done(KeyCacheWorker))
}

func TestRegistry_FailureIsRetried(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")

	ran, err := r.InitOnce(KeyCacheWorker, func() error { return boom })
	assert.True(t, ran)
	require.ErrorIs(t, err, boom)
	assert.False(t, r.Done(KeyCacheWorker))

	ran, err = r.InitOnce(KeyCacheWorker, func() error { return nil })
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, r.Done(KeyCacheWorker))
}

func TestRegistry_ConcurrentCallersRunOnce(t *testing.T) {
	r := NewRegistry()
	var mu sync.Mutex
	calls := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.InitOnce(KeyMessageListener, func() error {
				mu.Lock()
				calls++
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}
