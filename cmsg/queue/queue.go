/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

// Package queue implements the two FIFOs used when a filter policy resolves
// to QUEUE: a client-side send queue of packed bytes and a server-side
// receive queue of unpacked messages. Both wake a drain loop through a
// coalescing, buffered-channel token instead of a sync.Cond, so a drain
// goroutine can observe shutdown via ctx.Done() in the same select.
package queue

import (
	"context"
	"sync"
	"time"
)

// SendEntry is one send-queue entry: a one-way call that a filter resolved
// to QUEUE, recorded as already-packed bytes (not the original message) per
// §4.4, tagged with the transport it must drain back out on.
type SendEntry struct {
	TransportID string
	Method      string
	Packed      []byte
}

// ReceiveEntry is one receive-queue entry. The original source inconsistently
// stored either the packed body or the unpacked message across call sites;
// this implementation standardises on the unpacked message, matching what
// every drain consumer actually expects (§9 Design Notes).
type ReceiveEntry struct {
	MethodIndex int
	Message     interface{}
}

// Send is a FIFO of SendEntry plus a coalescing wake signal.
type Send struct {
	mu    sync.Mutex
	items []SendEntry
	wake  chan struct{}
}

// NewSend builds an empty send queue.
func NewSend() *Send {
	return &Send{wake: make(chan struct{}, 1)}
}

// Push appends e and signals the drain loop. Non-blocking: a pending,
// unconsumed wake token is enough to cover multiple pushes.
func (q *Send) Push(e SendEntry) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len reports the current queue length.
func (q *Send) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pop removes and returns every currently queued entry, oldest first.
func (q *Send) Pop() []SendEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	return out
}

// PurgeTransport drops every entry bound to transportID (used by
// unsubscribe and by terminal send failures), returning how many were
// removed.
func (q *Send) PurgeTransport(transportID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	removed := 0

	for _, e := range q.items {
		if e.TransportID == transportID {
			removed++
			continue
		}
		kept = append(kept, e)
	}

	q.items = kept
	return removed
}

// Wait blocks until Push signals new work or ctx is done, with a 1-second
// bound so a caller polling for shutdown never blocks indefinitely on an
// idle queue (§5 Suspension points).
func (q *Send) Wait(ctx context.Context) {
	wait(ctx, q.wake)
}

// Receive is a FIFO of ReceiveEntry plus a coalescing wake signal, drained by
// the server's ProcessSome/ProcessAll.
type Receive struct {
	mu    sync.Mutex
	items []ReceiveEntry
	wake  chan struct{}
}

// NewReceive builds an empty receive queue.
func NewReceive() *Receive {
	return &Receive{wake: make(chan struct{}, 1)}
}

// Push appends e, preserving arrival order, and signals the drain loop.
func (q *Receive) Push(e ReceiveEntry) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len reports the current queue length.
func (q *Receive) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// PopN removes and returns up to n entries from the front of the queue,
// oldest first; passing a count >= Len drains the whole queue (ProcessAll).
func (q *Receive) PopN(n int) []ReceiveEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > len(q.items) {
		n = len(q.items)
	}

	out := q.items[:n]
	q.items = q.items[n:]
	return out
}

// Wait blocks until Push signals new work or ctx is done, bounded at 1s.
func (q *Receive) Wait(ctx context.Context) {
	wait(ctx, q.wake)
}

func wait(ctx context.Context, wake <-chan struct{}) {
	t := time.NewTimer(time.Second)
	defer t.Stop()

	select {
	case <-wake:
	case <-ctx.Done():
	case <-t.C:
	}
}
