// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package workerspool

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_ForEach(t *testing.T) {
	for _, parallelism := range []int{0, 1, 4, -1} {
		t.Run(fmt.Sprintf("parallelism=%d", parallelism), func(t *testing.T) {
			pool := New(parallelism)
			results := make([]int, 100)
			var running, maxRunning atomic.Int32
			err := pool.ForEach(len(results), func(i int) error {
				current := running.Add(1)
				for {
					prev := maxRunning.Load()
					if current <= prev || maxRunning.CompareAndSwap(prev, current) {
						break
					}
				}
				runtime.Gosched()
				results[i] = i * i
				running.Add(-1)
				return nil
			})
			require.NoError(t, err)
			for ii, v := range results {
				require.Equal(t, ii*ii, v)
			}
			limit := int32(max(parallelism, 1))
			if parallelism < 0 {
				limit = int32(runtime.NumCPU())
			}
			assert.LessOrEqual(t, maxRunning.Load(), limit)
		})
	}
}

func TestPool_ForEachError(t *testing.T) {
	pool := New(0)
	var calls int
	err := pool.ForEach(10, func(i int) error {
		calls++
		if i >= 3 {
			return fmt.Errorf("failed #%d", i)
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, "failed #3", err.Error())
	assert.Equal(t, 4, calls)

	pool.SetMaxParallelism(3)
	assert.False(t, pool.IsSequential())
	err = pool.ForEach(10, func(i int) error {
		if i == 5 || i == 7 {
			return fmt.Errorf("failed #%d", i)
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, "failed #5", err.Error())
}
