// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package workerspool

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_WaitToStart(t *testing.T) {
	pool := NewWithParallelism(2)
	require.True(t, pool.IsEnabled())
	require.False(t, pool.IsUnlimited())

	var running, maxRunning atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		pool.WaitToStart(func() {
			defer wg.Done()
			current := running.Add(1)
			for {
				prev := maxRunning.Load()
				if current <= prev || maxRunning.CompareAndSwap(prev, current) {
					break
				}
			}
			runtime.Gosched()
			running.Add(-1)
		})
	}
	wg.Wait()
	assert.LessOrEqual(t, maxRunning.Load(), int32(2))

	// No parallelism: runs inline.
	pool.SetMaxParallelism(0)
	count := 0
	pool.WaitToStart(func() { count++ })
	assert.Equal(t, 1, count)
}

func TestPool_ParallelFor(t *testing.T) {
	for _, parallelism := range []int{0, 1, 3, -1} {
		pool := NewWithParallelism(parallelism)
		const n = 10_000
		marks := make([]int32, n)
		var calls atomic.Int32
		pool.ParallelFor(n, 100, func(start, end int) {
			calls.Add(1)
			for i := start; i < end; i++ {
				marks[i]++
			}
		})
		for i, mark := range marks {
			require.Equalf(t, int32(1), mark, "parallelism=%d, position %d", parallelism, i)
		}
		if parallelism == 0 {
			assert.Equal(t, int32(1), calls.Load())
		}
	}

	// Small loops run inline, also with a nil pool.
	var nilPool *Pool
	calls := 0
	nilPool.ParallelFor(5, 100, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 5, end)
	})
	assert.Equal(t, 1, calls)
	New().ParallelFor(0, 1, func(_, _ int) { t.Fatal("must not be called for n=0") })
}

func TestPool_ParallelForPanic(t *testing.T) {
	pool := NewWithParallelism(4)
	require.PanicsWithError(t, "chunk failed", func() {
		pool.ParallelFor(1000, 10, func(start, _ int) {
			if start == 0 {
				panic(errors.New("chunk failed"))
			}
		})
	})

	// Workers are given back after the panic.
	var calls atomic.Int32
	pool.ParallelFor(1000, 10, func(_, _ int) { calls.Add(1) })
	assert.Equal(t, int32(4), calls.Load())
}
