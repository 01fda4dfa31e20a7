/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

package startStop

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var (
	errInvalidStart = fmt.Errorf("startStop: invalid start function")
	errInvalidStop  = fmt.Errorf("startStop: invalid stop function")
)

type startStop struct {
	mu sync.Mutex

	fctStart FuncStart
	fctStop  FuncStop

	cancel  context.CancelFunc
	running bool
	started time.Time
	done    chan struct{}

	errMu sync.Mutex
	errs  []error
}

func newStartStop(start FuncStart, stop FuncStop) *startStop {
	return &startStop{
		fctStart: start,
		fctStop:  stop,
	}
}

func (s *startStop) pushErr(e error) {
	if e == nil {
		return
	}

	s.errMu.Lock()
	s.errs = append(s.errs, e)
	s.errMu.Unlock()
}

func (s *startStop) ErrorsLast() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()

	if len(s.errs) == 0 {
		return nil
	}

	return s.errs[len(s.errs)-1]
}

func (s *startStop) ErrorsList() []error {
	s.errMu.Lock()
	defer s.errMu.Unlock()

	out := make([]error, len(s.errs))
	copy(out, s.errs)
	return out
}

func (s *startStop) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *startStop) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return 0
	}

	return time.Since(s.started)
}

// Start stops any previous run, clears the error list, and launches
// fctStart on a fresh goroutine tracked by an internal cancellable
// context derived from ctx.
func (s *startStop) Start(ctx context.Context) error {
	s.stopLocked(ctx)

	s.mu.Lock()
	s.errMu.Lock()
	s.errs = nil
	s.errMu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.started = time.Now()
	s.done = make(chan struct{})
	done := s.done
	fct := s.fctStart
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				s.pushErr(fmt.Errorf("startStop: panic in start function: %v", r))
			}
		}()

		var err error
		if fct == nil {
			err = errInvalidStart
		} else {
			err = fct(runCtx)
		}

		s.pushErr(err)

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	return nil
}

// Stop cancels the current run (if any), waits for its goroutine to
// return, then calls fctStop.
func (s *startStop) Stop(ctx context.Context) error {
	s.stopLocked(ctx)
	return nil
}

func (s *startStop) stopLocked(ctx context.Context) {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	wasRunning := s.running
	fct := s.fctStop
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil && !wasRunning {
		return
	}

	if cancel != nil {
		cancel()
	}

	if done != nil {
		<-done
	}

	if !wasRunning && cancel == nil {
		return
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				s.pushErr(fmt.Errorf("startStop: panic in stop function: %v", r))
			}
		}()

		if fct == nil {
			s.pushErr(errInvalidStop)
			return
		}

		s.pushErr(fct(ctx))
	}()
}

// Restart stops then starts.
func (s *startStop) Restart(ctx context.Context) error {
	_ = s.Stop(ctx)
	return s.Start(ctx)
}
