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

// Package observer is the counter-session boundary the core calls at every
// named increment point (§6 Observability surface). The core never imports
// a metrics backend directly; cmsg/observer/promobserver supplies the
// concrete Prometheus-backed implementation.
package observer

// Counter names the fixed observability surface §6 enumerates.
type Counter string

const (
	RPC                 Counter = "rpc"
	UnknownRPC          Counter = "unknown_rpc"
	UnknownFields       Counter = "unknown_fields"
	MessagesQueued      Counter = "messages_queued"
	MessagesDropped     Counter = "messages_dropped"
	ConnectAttempts     Counter = "connect_attempts"
	ConnectFailures     Counter = "connect_failures"
	ConnectionsAccepted Counter = "connections_accepted"
	ConnectionsClosed   Counter = "connections_closed"
	Errors              Counter = "errors"
	PollErrors          Counter = "poll_errors"
	RecvErrors          Counter = "recv_errors"
	SendErrors          Counter = "send_errors"
	PackErrors          Counter = "pack_errors"
	MemoryErrors        Counter = "memory_errors"
	ProtocolErrors      Counter = "protocol_errors"
	QueueErrors         Counter = "queue_errors"
)

// Observer receives one increment per named counter, labeled by the
// transport identity that produced it. Implementations must be safe for
// concurrent use; the core calls Inc from client, server, and publisher
// goroutines without additional synchronisation.
type Observer interface {
	Inc(counter Counter, tportID string)
}

// Noop discards every increment; the zero-value default so components are
// usable without wiring a concrete Observer.
type Noop struct{}

func (Noop) Inc(Counter, string) {}

// noop satisfies Observer for nil-safety convenience below.
var _ Observer = Noop{}

// OrNoop returns o, or Noop{} if o is nil, so call sites never need a nil
// check before calling Inc.
func OrNoop(o Observer) Observer {
	if o == nil {
		return Noop{}
	}
	return o
}
