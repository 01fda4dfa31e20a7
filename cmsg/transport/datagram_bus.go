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

package transport

import (
	"context"
	"sync"

	"github.com/nats-io/nats.go"

	libcry "github.com/sabouaram/gocmsg/cmsg/crypto"
)

// busPeer is the single synthetic peer id a DatagramBus server ever hands
// out: NATS pub/sub carries no per-connection state, so every subscriber
// message is attributed to the same peer.
const busPeer = "bus"

// datagramBus is the connectionless, one-way-only transport backed by a
// NATS subject. Congestion is reported from the subscription's pending
// message count against a configured high-water mark, standing in for the
// kernel socket buffer a stream transport would otherwise rely on.
type datagramBus struct {
	base

	nc            *nats.Conn
	subject       string
	highWaterMark int

	mu       sync.Mutex
	sub      *nats.Subscription
	msgs     chan *nats.Msg
	accepted bool
}

// NewDatagramBus builds a DatagramBus transport publishing/subscribing on
// subject over nc. highWaterMark bounds the subscription's pending message
// count before IsCongested reports true; a value <= 0 disables the check.
func NewDatagramBus(nc *nats.Conn, subject string, highWaterMark int, crypto libcry.Hooks) Transport {
	return &datagramBus{
		base: base{
			id:     subject,
			kind:   KindDatagramBus,
			crypto: crypto,
		},
		nc:            nc,
		subject:       subject,
		highWaterMark: highWaterMark,
	}
}

func (d *datagramBus) Connect(context.Context) error {
	if d.nc == nil || d.nc.IsClosed() {
		return ErrNotConnected()
	}
	return nil
}

func (d *datagramBus) Listen(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sub != nil {
		return nil
	}

	msgs := make(chan *nats.Msg, 256)
	sub, err := d.nc.ChanSubscribe(d.subject, msgs)
	if err != nil {
		return err
	}

	d.sub = sub
	d.msgs = msgs
	return nil
}

func (d *datagramBus) Accept(ctx context.Context) (string, error) {
	d.mu.Lock()
	already := d.accepted
	d.accepted = true
	d.mu.Unlock()

	if already {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return busPeer, nil
}

func (d *datagramBus) ServerRecv(ctx context.Context, peer string) ([]byte, error) {
	if peer != busPeer {
		return nil, ErrUnknownPeer()
	}

	d.mu.Lock()
	msgs := d.msgs
	d.mu.Unlock()

	if msgs == nil {
		return nil, ErrNotConnected()
	}

	select {
	case m, ok := <-msgs:
		if !ok {
			return nil, ErrNotConnected()
		}
		return m.Data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *datagramBus) ClientRecv(context.Context) ([]byte, error) {
	return nil, ErrOneway
}

func (d *datagramBus) ClientSend(_ context.Context, data []byte) error {
	return d.nc.Publish(d.subject, data)
}

func (d *datagramBus) ServerSend(context.Context, string, []byte) error {
	return ErrOneway
}

func (d *datagramBus) ClientClose() error { return nil }

func (d *datagramBus) ServerClose(string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sub == nil {
		return nil
	}
	err := d.sub.Unsubscribe()
	d.sub = nil
	return err
}

func (d *datagramBus) IsCongested() bool {
	if d.highWaterMark <= 0 {
		return false
	}

	d.mu.Lock()
	sub := d.sub
	d.mu.Unlock()

	if sub == nil {
		return false
	}

	pending, _, err := sub.Pending()
	if err != nil {
		return false
	}
	return pending >= d.highWaterMark
}

var _ Transport = (*datagramBus)(nil)
