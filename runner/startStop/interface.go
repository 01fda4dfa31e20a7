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

// Package startStop wraps a pair of start/stop functions into a single
// restartable, goroutine-safe lifecycle: a running instance is tracked by
// an internal context/cancel pair so a second Start stops the first one
// first, and every start/stop error is captured rather than returned
// asynchronously from the goroutine that ran it.
package startStop

import (
	"context"
	"time"
)

// FuncStart runs for the lifetime of the service; it must block until ctx
// is cancelled (or return early with an error).
type FuncStart func(ctx context.Context) error

// FuncStop releases whatever FuncStart acquired.
type FuncStop func(ctx context.Context) error

// StartStop is a restartable background task: Start launches FuncStart on
// its own goroutine and returns immediately, Stop cancels it and waits for
// FuncStop to run.
type StartStop interface {
	// Start stops any running instance, then launches FuncStart on a new
	// goroutine. It returns immediately; asynchronous failures are
	// retrievable via ErrorsLast/ErrorsList.
	Start(ctx context.Context) error

	// Stop cancels the running instance (if any) and runs FuncStop,
	// waiting for FuncStart's goroutine to return. Safe to call when not
	// running and safe to call concurrently.
	Stop(ctx context.Context) error

	// Restart is Stop followed by Start.
	Restart(ctx context.Context) error

	// IsRunning reports whether FuncStart's goroutine is currently active.
	IsRunning() bool

	// Uptime is the duration since the current run started, zero when not
	// running.
	Uptime() time.Duration

	// ErrorsLast is the most recent error captured from FuncStart or
	// FuncStop, nil if none since the last Start.
	ErrorsLast() error

	// ErrorsList is every error captured since the last Start, oldest
	// first.
	ErrorsList() []error
}

// New builds a StartStop around start and stop. Either may be nil; calling
// Start/Stop with a nil function captures an "invalid start/stop function"
// error instead of panicking.
func New(start FuncStart, stop FuncStop) StartStop {
	return newStartStop(start, stop)
}
