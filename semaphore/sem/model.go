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

package sem

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

var maxSimultaneousValue = func() *atomic.Int64 {
	v := &atomic.Int64{}
	v.Store(int64(defaultMaxSimultaneous()))
	return v
}()

// maxSimultaneous gives MaxSimultaneous/SetSimultaneous an int-typed Load so
// interface.go stays readable; the real storage is the int64 above.
var maxSimultaneous = maxSimultaneousAdapter{}

type maxSimultaneousAdapter struct{}

func (maxSimultaneousAdapter) Load() int {
	return int(maxSimultaneousValue.Load())
}

func (maxSimultaneousAdapter) Store(n int) {
	maxSimultaneousValue.Store(int64(n))
}

type sem struct {
	context.Context

	weighted int64
	wsem     *semaphore.Weighted
	wg       *sync.WaitGroup

	cancel context.CancelFunc
}

func newSem(ctx context.Context, nbrSimultaneous int) *sem {
	c, cancel := context.WithCancel(ctx)

	s := &sem{
		Context: c,
		cancel:  cancel,
	}

	switch {
	case nbrSimultaneous < 0:
		s.weighted = -1
		s.wg = &sync.WaitGroup{}
	case nbrSimultaneous == 0:
		s.weighted = int64(MaxSimultaneous())
		s.wsem = semaphore.NewWeighted(s.weighted)
	default:
		s.weighted = int64(nbrSimultaneous)
		s.wsem = semaphore.NewWeighted(s.weighted)
	}

	return s
}

func (s *sem) Weighted() int64 {
	return s.weighted
}

func (s *sem) NewWorker() error {
	if s.wg != nil {
		s.wg.Add(1)
		return nil
	}

	return s.wsem.Acquire(s.Context, 1)
}

func (s *sem) NewWorkerTry() bool {
	if s.wg != nil {
		s.wg.Add(1)
		return true
	}

	return s.wsem.TryAcquire(1)
}

func (s *sem) DeferWorker() {
	if s.wg != nil {
		s.wg.Done()
		return
	}

	s.wsem.Release(1)
}

func (s *sem) WaitAll() error {
	if s.wg != nil {
		s.wg.Wait()
		return nil
	}

	return s.wsem.Acquire(s.Context, s.weighted)
}

func (s *sem) DeferMain() {
	s.cancel()
}
