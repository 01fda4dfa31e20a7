/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package sem bounds concurrent workers with golang.org/x/sync/semaphore,
// falling back to an unbounded sync.WaitGroup when the caller asks for a
// negative simultaneous count. It embeds the parent context.Context so a
// Sem can be passed anywhere a context is expected.
package sem

import (
	"context"
	"runtime"
)

// Sem bounds a pool of concurrent workers and doubles as the context.Context
// it was built from.
type Sem interface {
	context.Context

	// Weighted is the configured capacity: a positive limit, or -1 when
	// the instance is running in unbounded (WaitGroup) mode.
	Weighted() int64

	// NewWorker blocks until a slot is available or ctx is done.
	NewWorker() error

	// NewWorkerTry acquires a slot without blocking, reporting whether one
	// was available.
	NewWorkerTry() bool

	// DeferWorker releases a slot acquired by NewWorker/NewWorkerTry.
	DeferWorker()

	// WaitAll blocks until every acquired worker has called DeferWorker.
	WaitAll() error

	// DeferMain cancels the semaphore's own context; idempotent.
	DeferMain()
}

// New returns a Sem derived from ctx. nbrSimultaneous > 0 bounds concurrency
// to that many workers; 0 uses MaxSimultaneous(); any negative value runs
// unbounded (tracked with a sync.WaitGroup instead of a weighted semaphore).
func New(ctx context.Context, nbrSimultaneous int) Sem {
	return newSem(ctx, nbrSimultaneous)
}

// MaxSimultaneous is the default worker capacity used when New is called
// with nbrSimultaneous == 0: four times the number of logical CPUs.
func MaxSimultaneous() int {
	return maxSimultaneous.Load()
}

// SetSimultaneous overrides the MaxSimultaneous default; values <= 0 are
// ignored (the previous value is returned unchanged).
func SetSimultaneous(n int) int64 {
	if n > 0 {
		maxSimultaneous.Store(n)
	}

	return int64(maxSimultaneous.Load())
}

func defaultMaxSimultaneous() int {
	if n := runtime.GOMAXPROCS(0) * 4; n > 0 {
		return n
	}

	return 4
}
