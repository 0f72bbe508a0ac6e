// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package workerspool runs independent indexed tasks with bounded parallelism.
package workerspool

import (
	"runtime"
	"sync"
)

// Pool limits how many tasks run at the same time.
type Pool struct {
	// maxParallelism is the limit of tasks running at the same time.
	// 0 or 1 means tasks run inline, sequentially; negative means runtime.NumCPU().
	maxParallelism int
	mu             sync.Mutex
	cond           sync.Cond // Signaled whenever numRunning is decreased.
	numRunning     int
}

// New returns a new Pool with the given parallelism. See SetMaxParallelism.
func New(maxParallelism int) *Pool {
	w := &Pool{}
	w.SetMaxParallelism(maxParallelism)
	w.cond = sync.Cond{L: &w.mu}
	return w
}

// SetMaxParallelism sets the maximum number of tasks running at the same time.
// If <= 1 tasks run sequentially, in order, in the caller's goroutine.
// If negative, it uses runtime.NumCPU().
//
// It should only be changed while no tasks are running.
func (w *Pool) SetMaxParallelism(maxParallelism int) {
	if maxParallelism < 0 {
		maxParallelism = runtime.NumCPU()
	}
	w.maxParallelism = maxParallelism
}

// IsSequential returns whether tasks are run inline.
func (w *Pool) IsSequential() bool {
	return w.maxParallelism <= 1
}

// waitToStart waits until there is a free slot and runs the task in a new goroutine.
func (w *Pool) waitToStart(task func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.numRunning >= w.maxParallelism {
		w.cond.Wait()
	}
	w.numRunning++
	go func() {
		task()
		w.mu.Lock()
		w.numRunning--
		w.cond.Signal()
		w.mu.Unlock()
	}()
}

// ForEach calls fn(i) for i in [0, n), and waits for all of them to finish.
//
// If sequential, it stops at the first error. Otherwise, all tasks already started run to the end
// and no new ones are started after an error is seen. In both cases, the error of the lowest
// failing index is returned.
func (w *Pool) ForEach(n int, fn func(i int) error) error {
	if w.IsSequential() {
		for ii := 0; ii < n; ii++ {
			if err := fn(ii); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		wg       sync.WaitGroup
		muErr    sync.Mutex
		firstErr error
		errIdx   = n
	)
	failed := func() bool {
		muErr.Lock()
		defer muErr.Unlock()
		return firstErr != nil
	}
	for ii := 0; ii < n && !failed(); ii++ {
		wg.Add(1)
		w.waitToStart(func() {
			defer wg.Done()
			if err := fn(ii); err != nil {
				muErr.Lock()
				if ii < errIdx {
					firstErr, errIdx = err, ii
				}
				muErr.Unlock()
			}
		})
	}
	wg.Wait()
	return firstErr
}
