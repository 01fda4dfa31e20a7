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

// Package filter is the per-method queue-filter table consulted by both the
// client (one-way send path) and the server (dispatch path) before every
// invocation. Method names are interned once at registration so repeated
// lookups of long names don't re-hash/re-allocate.
package filter

import (
	"sync"

	liberr "github.com/sabouaram/gocmsg/errors"
)

// Policy is the per-method filter outcome.
type Policy int

const (
	// PROCESS invokes the implementation (or sends) immediately.
	PROCESS Policy = iota
	// QUEUE defers the invocation into a send/receive queue.
	QUEUE
	// DROP discards the invocation without ever reaching the implementation.
	DROP
	// ERROR is returned by Get for a name unknown to the descriptor;
	// distinct from any of the three real policies.
	ERROR
)

func (p Policy) String() string {
	switch p {
	case PROCESS:
		return "PROCESS"
	case QUEUE:
		return "QUEUE"
	case DROP:
		return "DROP"
	default:
		return "ERROR"
	}
}

const codeUnknownMethod liberr.CodeError = liberr.MinPkgCmsg + 20

func init() {
	liberr.RegisterIdFctMessage(codeUnknownMethod, func(code liberr.CodeError) string {
		return "filter: unknown method"
	})
}

// ErrUnknownMethod is returned by Set when name is not part of the service
// descriptor the table was built for.
var ErrUnknownMethod = codeUnknownMethod.Error

// SubState is the server-side queueing sub-state derived from a Table (§4.3).
type SubState int

const (
	// DISABLED: no method is QUEUE and the receive queue is empty.
	DISABLED SubState = iota
	// ENABLED: at least one method is QUEUE.
	ENABLED
	// DRAINING: a SetAll(PROCESS|DROP) ran while the receive queue was
	// still non-empty; new requests keep being queued until it drains.
	DRAINING
)

// names interns every method string once, so table lookups and the server's
// sub-state derivation never re-allocate for long, repeated names.
type names struct {
	mu  sync.Mutex
	tab map[string]*string
}

func (n *names) intern(s string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.tab == nil {
		n.tab = make(map[string]*string)
	}

	if p, ok := n.tab[s]; ok {
		return *p
	}

	cp := s
	n.tab[s] = &cp
	return cp
}

// Table is a per-service, per-method policy map, initialised to PROCESS for
// every known method.
type Table struct {
	mu      sync.RWMutex
	known   map[string]bool
	policy  map[string]Policy
	interns names

	draining bool
}

// New builds a Table over methods, every one initialised to PROCESS.
func New(methods []string) *Table {
	t := &Table{
		known:  make(map[string]bool, len(methods)),
		policy: make(map[string]Policy, len(methods)),
	}

	for _, m := range methods {
		m = t.interns.intern(m)
		t.known[m] = true
		t.policy[m] = PROCESS
	}

	return t
}

// Get returns the method's policy, or ERROR if name is not part of the
// descriptor this table was built for.
func (t *Table) Get(name string) Policy {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.known[name] {
		return ERROR
	}

	return t.policy[name]
}

// Set changes a single method's policy. Fails with ErrUnknownMethod if name
// is not part of the descriptor.
func (t *Table) Set(name string, p Policy) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.known[name] {
		return ErrUnknownMethod()
	}

	t.policy[name] = p
	return nil
}

// SetAll overwrites every method's policy. queueNonEmpty reports whether the
// server's receive queue still has entries; when true and policy is not
// QUEUE, the table enters DRAINING instead of DISABLED until the caller
// confirms the queue emptied (see MarkDrained).
func (t *Table) SetAll(p Policy, queueNonEmpty bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for k := range t.policy {
		t.policy[k] = p
	}

	t.draining = p != QUEUE && queueNonEmpty
}

// ClearAll resets every method to PROCESS, equivalent to SetAll(PROCESS, false).
func (t *Table) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for k := range t.policy {
		t.policy[k] = PROCESS
	}

	t.draining = false
}

// MarkDrained clears the DRAINING sub-state once the receive queue has
// emptied; called by the server's receive-queue drain loop.
func (t *Table) MarkDrained() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draining = false
}

// SubState derives the server's queueing sub-state from the table's current
// contents (§4.3): DRAINING takes priority, then ENABLED if any method is
// QUEUE, else DISABLED.
func (t *Table) SubState() SubState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.draining {
		return DRAINING
	}

	for _, p := range t.policy {
		if p == QUEUE {
			return ENABLED
		}
	}

	return DISABLED
}
