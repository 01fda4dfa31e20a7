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

// Package promobserver is the Prometheus-backed cmsg/observer.Observer: one
// CounterVec per named counter, labeled by tport_id. The registration is
// process-wide and persistent across client/server restarts within the same
// process — the core never resets counters itself.
package promobserver

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sabouaram/gocmsg/cmsg/observer"
)

// Observer is a prometheus.Collector-registered observer.Observer.
type Observer struct {
	mu   sync.Mutex
	vecs map[observer.Counter]*prometheus.CounterVec
	reg  prometheus.Registerer
}

// New builds an Observer that registers its CounterVecs against reg (use
// prometheus.DefaultRegisterer for the global registry).
func New(reg prometheus.Registerer, namespace string) *Observer {
	o := &Observer{
		vecs: make(map[observer.Counter]*prometheus.CounterVec),
		reg:  reg,
	}

	for _, c := range allCounters {
		vec := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cmsg",
			Name:      string(c),
			Help:      "cmsg RPC runtime counter: " + string(c),
		}, []string{"tport_id"})

		_ = reg.Register(vec)
		o.vecs[c] = vec
	}

	return o
}

var allCounters = []observer.Counter{
	observer.RPC,
	observer.UnknownRPC,
	observer.UnknownFields,
	observer.MessagesQueued,
	observer.MessagesDropped,
	observer.ConnectAttempts,
	observer.ConnectFailures,
	observer.ConnectionsAccepted,
	observer.ConnectionsClosed,
	observer.Errors,
	observer.PollErrors,
	observer.RecvErrors,
	observer.SendErrors,
	observer.PackErrors,
	observer.MemoryErrors,
	observer.ProtocolErrors,
	observer.QueueErrors,
}

// Inc implements observer.Observer.
func (o *Observer) Inc(counter observer.Counter, tportID string) {
	o.mu.Lock()
	vec, ok := o.vecs[counter]
	o.mu.Unlock()

	if !ok {
		return
	}

	vec.WithLabelValues(tportID).Inc()
}

var _ observer.Observer = (*Observer)(nil)
