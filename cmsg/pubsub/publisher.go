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

package pubsub

import (
	"context"
	"time"

	"sync"

	libcli "github.com/sabouaram/gocmsg/cmsg/client"
	libcdc "github.com/sabouaram/gocmsg/cmsg/codec"
	libfil "github.com/sabouaram/gocmsg/cmsg/filter"
	libfrm "github.com/sabouaram/gocmsg/cmsg/frame"
	libobs "github.com/sabouaram/gocmsg/cmsg/observer"
	libque "github.com/sabouaram/gocmsg/cmsg/queue"
	libsta "github.com/sabouaram/gocmsg/cmsg/status"
)

// publishMaxRetries and publishBackoff bound how hard a publisher's own
// drain loop retries a queued entry against one subscriber's transport
// before giving up on every subscriber sharing that transport, mirroring
// cmsg/client's send-queue drain.
const (
	publishMaxRetries = 10
	publishBackoff    = 200 * time.Millisecond
)

// Publisher owns the subscription registry for one method namespace and
// fans a Publish call out to every subscriber of the published method. The
// subscriber list's mutex is held for the duration of a Publish so an
// evicted subscriber never races a concurrent Subscribe/Unsubscribe.
//
// A publisher also owns its own send queue: when the publisher's filter
// table resolves a method to QUEUE, a subscriber invocation is deferred
// onto this queue rather than the subscriber's own client queue, so one
// drain loop governs every subscriber of a QUEUE-filtered method.
type Publisher struct {
	mu   sync.Mutex
	subs map[string]*SubscriberEntry

	filt  *libfil.Table
	codec libcdc.Codec
	sendQ *libque.Send
	obs   libobs.Observer
}

// NewPublisher builds an empty Publisher. filt may be nil, in which case
// every method resolves to PROCESS.
func NewPublisher(filt *libfil.Table, obs libobs.Observer) *Publisher {
	return &Publisher{
		subs:  make(map[string]*SubscriberEntry),
		filt:  filt,
		codec: libcdc.Default(),
		sendQ: libque.NewSend(),
		obs:   libobs.OrNoop(obs),
	}
}

// Subscribe registers cli to receive every Publish of method, replacing
// any prior subscription with the same transport identity and method
// (§4.6: duplicate add requests are silently idempotent).
func (p *Publisher) Subscribe(cfg TransportConfig, method string, cli *libcli.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.subs[cfg.key(method)] = &SubscriberEntry{Config: cfg, Method: method, client: cli}
}

// Unsubscribe removes the subscription matching cfg and method, if any,
// and purges any of the publisher's own queue entries bound to that
// subscriber's transport.
func (p *Publisher) Unsubscribe(cfg TransportConfig, method string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := cfg.key(method)
	sub, ok := p.subs[key]
	if !ok {
		return
	}

	delete(p.subs, key)
	p.sendQ.PurgeTransport(sub.transportID())
}

// Count reports how many subscriptions are currently registered, across
// every method.
func (p *Publisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// PublishResult is one subscriber's outcome from Publish.
type PublishResult struct {
	TransportID string
	Status      libsta.Status
	Err         error
}

// Publish fans msg out to every subscriber of method (§4.6 step 3). The
// publisher's own filter table is consulted first: DROP answers OK
// without ever looking at the subscriber list, ERROR answers ERR. For
// PROCESS/QUEUE, every matching subscriber's one-way client is invoked
// directly for PROCESS, or deferred onto the publisher's own send queue
// for QUEUE; a subscriber whose immediate send fails is evicted under the
// same held lock.
func (p *Publisher) Publish(ctx context.Context, method string, msg interface{}) ([]PublishResult, libsta.Status) {
	pol := libfil.PROCESS
	if p.filt != nil {
		pol = p.filt.Get(method)
	}

	switch pol {
	case libfil.DROP:
		return nil, libsta.OK
	case libfil.ERROR:
		return nil, libsta.ERR
	}

	var packed []byte
	if pol == libfil.QUEUE {
		body, err := p.codec.Pack(msg)
		if err != nil {
			return nil, libsta.ERR
		}
		packed = (libfrm.Frame{
			Header: libfrm.Header{MsgType: libfrm.MethodReq},
			Method: method,
			Body:   body,
		}).Encode()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var results []PublishResult

	for key, sub := range p.subs {
		if sub.Method != method {
			continue
		}

		if pol == libfil.QUEUE {
			p.sendQ.Push(libque.SendEntry{TransportID: sub.transportID(), Method: method, Packed: packed})
			results = append(results, PublishResult{TransportID: sub.transportID(), Status: libsta.QUEUED})
			continue
		}

		st, err := sub.client.SendOneway(ctx, method, msg)
		results = append(results, PublishResult{TransportID: sub.transportID(), Status: st, Err: err})

		if err != nil {
			p.obs.Inc(libobs.Errors, sub.transportID())
			delete(p.subs, key)
		}
	}

	return results, libsta.OK
}

// StartDrain launches a background goroutine draining the publisher's own
// send queue, retrying each queued entry's subscriber up to
// publishMaxRetries times before evicting every subscriber sharing that
// entry's transport (§4.6 Queue behaviour).
func (p *Publisher) StartDrain(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			p.sendQ.Wait(ctx)
			if ctx.Err() != nil {
				return
			}

			p.drainOnce(ctx)
		}
	}()
}

func (p *Publisher) drainOnce(ctx context.Context) {
	pending := p.sendQ.Pop()
	if len(pending) == 0 {
		return
	}

	for _, e := range pending {
		p.mu.Lock()
		var sub *SubscriberEntry
		var key string
		for k, s := range p.subs {
			if s.transportID() == e.TransportID && s.Method == e.Method {
				sub, key = s, k
				break
			}
		}
		p.mu.Unlock()

		if sub == nil {
			continue
		}

		if err := flushWithRetry(ctx, sub, e.Packed); err != nil {
			p.mu.Lock()
			delete(p.subs, key)
			p.mu.Unlock()
			p.sendQ.PurgeTransport(e.TransportID)
			p.obs.Inc(libobs.QueueErrors, e.TransportID)
		}
	}
}

// flushWithRetry resends packed, the exact frame bytes produced at Publish
// time, rather than re-invoking SendOneway: QUEUE already decided this
// entry's fate once, and retrying the original frame verbatim is what §4.6
// ("drained entries are retried") actually describes.
func flushWithRetry(ctx context.Context, sub *SubscriberEntry, packed []byte) error {
	var err error

	for attempt := 0; attempt < publishMaxRetries; attempt++ {
		if err = sub.client.SendRaw(ctx, packed); err == nil {
			return nil
		}

		select {
		case <-time.After(publishBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
