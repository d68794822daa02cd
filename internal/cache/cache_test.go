package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrComputeMemoizes(t *testing.T) {
	store := New[int]("test", time.Minute)
	calls := 0
	produce := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := store.GetOrCompute("k", produce)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = store.GetOrCompute("k", produce)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)

	hits, misses := store.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestFailedComputationIsNotCached(t *testing.T) {
	store := New[string]("test", time.Minute)
	boom := errors.New("boom")
	calls := 0

	_, err := store.GetOrCompute("k", func() (string, error) {
		calls++
		return "", boom
	})
	assert.ErrorIs(t, err, boom)

	v, err := store.GetOrCompute("k", func() (string, error) {
		calls++
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, store.Len())
}

func TestEntriesExpire(t *testing.T) {
	store := New[int]("test", 10*time.Millisecond)
	calls := 0
	produce := func() (int, error) {
		calls++
		return calls, nil
	}

	v, err := store.GetOrCompute("k", produce)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	time.Sleep(25 * time.Millisecond)

	v, err = store.GetOrCompute("k", produce)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "expired entry should be recomputed")
}

func TestSingleFlightPerKey(t *testing.T) {
	store := New[int]("test", time.Minute)

	var produced atomic.Int32
	var inFlight, maxInFlight atomic.Int32
	produce := func() (int, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			cur := maxInFlight.Load()
			if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		produced.Add(1)
		return 7, nil
	}

	var wg sync.WaitGroup
	for n := 0; n < 10; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := store.GetOrCompute("same-key", produce)
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), produced.Load(), "exactly one computation per key")
	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestEvict(t *testing.T) {
	store := New[int]("test", time.Minute)
	calls := 0
	produce := func() (int, error) {
		calls++
		return calls, nil
	}

	_, err := store.GetOrCompute("k", produce)
	require.NoError(t, err)

	store.Evict("k")

	v, err := store.GetOrCompute("k", produce)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}
