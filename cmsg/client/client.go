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

// Package client is the calling side of the RPC core (§4.4): connection
// lifecycle, request/reply invocation with a single reconnect-and-retry on
// a short write, one-way invocation consulting the queue-filter table, a
// send-queue drain loop, a composite fan-out client, and echo support.
package client

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	libcdc "github.com/sabouaram/gocmsg/cmsg/codec"
	libfil "github.com/sabouaram/gocmsg/cmsg/filter"
	libfrm "github.com/sabouaram/gocmsg/cmsg/frame"
	libobs "github.com/sabouaram/gocmsg/cmsg/observer"
	libque "github.com/sabouaram/gocmsg/cmsg/queue"
	libsta "github.com/sabouaram/gocmsg/cmsg/status"
	libtpt "github.com/sabouaram/gocmsg/cmsg/transport"
)

// Config bundles a client's collaborators. Codec and Observer default to
// codec.Default() and observer.Noop{} when left nil.
type Config struct {
	Transport libtpt.Transport
	Codec     libcdc.Codec
	Observer  libobs.Observer
	Filter    *libfil.Table
	SendQueue *libque.Send
	Log       *logrus.Entry
}

// Client is one RPC connection to a server transport.
type Client struct {
	tport libtpt.Transport
	codec libcdc.Codec
	obs   libobs.Observer
	filt  *libfil.Table
	sendQ *libque.Send
	log   *logrus.Entry

	mu        sync.Mutex
	connected bool
}

// New builds a Client from cfg. cfg.Transport must be non-nil.
func New(cfg Config) *Client {
	c := &Client{
		tport: cfg.Transport,
		codec: cfg.Codec,
		obs:   libobs.OrNoop(cfg.Observer),
		filt:  cfg.Filter,
		sendQ: cfg.SendQueue,
		log:   cfg.Log,
	}

	if c.codec == nil {
		c.codec = libcdc.Default()
	}
	if c.log == nil {
		c.log = logrus.NewEntry(logrus.StandardLogger())
	}

	return c
}

// TransportID returns the stable tport_id of the transport this client
// drives, used as a subscription/queue key by higher layers.
func (c *Client) TransportID() string {
	return c.tport.ID()
}

// Connect dials the transport if not already connected. Idempotent and
// safe for concurrent callers: only the first caller actually dials.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	c.obs.Inc(libobs.ConnectAttempts, c.tport.ID())

	if err := c.tport.Connect(ctx); err != nil {
		c.obs.Inc(libobs.ConnectFailures, c.tport.ID())
		return err
	}

	c.connected = true
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	return c.tport.ClientClose()
}

// reconnect forces a fresh Connect regardless of the cached state, used
// only after a short write (§9: a short write is always a fatal transport
// error, reconciled here as "fatal to the connection, not to the call").
func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	_ = c.tport.ClientClose()
	return c.Connect(ctx)
}

// send writes data, retrying exactly once via reconnect on a transport
// error (§4.4 step: reconnect-once-on-short-write generalised to any send
// failure, since the underlying connection is presumed dead either way).
func (c *Client) send(ctx context.Context, data []byte) error {
	if err := c.tport.ClientSend(ctx, data); err != nil {
		c.obs.Inc(libobs.SendErrors, c.tport.ID())

		if rerr := c.reconnect(ctx); rerr != nil {
			return err
		}
		if err = c.tport.ClientSend(ctx, data); err != nil {
			c.obs.Inc(libobs.SendErrors, c.tport.ID())
			return err
		}
	}
	return nil
}

// Call performs one request/reply invocation: pack req, send a METHOD_REQ
// frame, read the reply frame, map its status_code, and unpack the reply
// body into resp (resp may be nil to discard the body).
func (c *Client) Call(ctx context.Context, method string, req interface{}, resp interface{}) (libsta.Status, error) {
	if err := c.Connect(ctx); err != nil {
		return libsta.ERR, err
	}

	body, err := c.codec.Pack(req)
	if err != nil {
		c.obs.Inc(libobs.PackErrors, c.tport.ID())
		return libsta.ERR, err
	}

	out := libfrm.Frame{
		Header: libfrm.Header{MsgType: libfrm.MethodReq},
		Method: method,
		Body:   body,
	}

	if err = c.send(ctx, out.Encode()); err != nil {
		return libsta.ERR, err
	}
	c.obs.Inc(libobs.RPC, c.tport.ID())

	raw, err := c.tport.ClientRecv(ctx)
	if err != nil {
		c.obs.Inc(libobs.RecvErrors, c.tport.ID())
		return libsta.ERR, err
	}

	h, err := libfrm.DecodeHeader(raw[:libfrm.HeaderSize])
	if err != nil {
		c.obs.Inc(libobs.ProtocolErrors, c.tport.ID())
		return libsta.ERR, err
	}

	st := statusOf(h.StatusCode)

	if h.MsgType != libfrm.MethodReply {
		c.obs.Inc(libobs.ProtocolErrors, c.tport.ID())
		return st, libfrm.ErrBadMsgType()
	}

	body = raw[h.HeaderLength:]
	if resp != nil && len(body) > 0 {
		if err = c.codec.Unpack(body, resp); err != nil {
			c.obs.Inc(libobs.PackErrors, c.tport.ID())
			return libsta.ERR, err
		}
	}

	return st, nil
}

// SendOneway invokes method without waiting for a reply, consulting the
// filter table first (§4.4): PROCESS sends immediately, QUEUE defers onto
// the send queue, DROP discards silently, and an unknown method reports
// ERROR without ever packing the request.
func (c *Client) SendOneway(ctx context.Context, method string, req interface{}) (libsta.Status, error) {
	pol := libfil.PROCESS
	if c.filt != nil {
		pol = c.filt.Get(method)
	}

	if pol == libfil.ERROR {
		return libsta.ERR, libfil.ErrUnknownMethod()
	}

	body, err := c.codec.Pack(req)
	if err != nil {
		c.obs.Inc(libobs.PackErrors, c.tport.ID())
		return libsta.ERR, err
	}

	out := libfrm.Frame{
		Header: libfrm.Header{MsgType: libfrm.MethodReq},
		Method: method,
		Body:   body,
	}
	packed := out.Encode()

	switch pol {
	case libfil.DROP:
		c.obs.Inc(libobs.MessagesDropped, c.tport.ID())
		return libsta.DROPPED, nil

	case libfil.QUEUE:
		if c.sendQ == nil {
			return libsta.ERR, libtpt.ErrNotConnected()
		}
		c.sendQ.Push(libque.SendEntry{TransportID: c.tport.ID(), Method: method, Packed: packed})
		c.obs.Inc(libobs.MessagesQueued, c.tport.ID())
		return libsta.QUEUED, nil

	default: // PROCESS
		if err = c.Connect(ctx); err != nil {
			return libsta.ERR, err
		}
		if err = c.send(ctx, packed); err != nil {
			return libsta.ERR, err
		}
		c.obs.Inc(libobs.RPC, c.tport.ID())
		return libsta.OK, nil
	}
}

// SendRaw writes an already-encoded frame, via the same connect-and-retry
// path as send. It exists for callers that own their own send queue (such
// as a pub/sub publisher fanning QUEUE-filtered entries out across several
// subscriber clients) and so must resend a previously packed frame as-is,
// without Call/SendOneway re-packing the payload.
func (c *Client) SendRaw(ctx context.Context, packed []byte) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.send(ctx, packed)
}

func statusOf(code libfrm.StatusCode) libsta.Status {
	switch code {
	case libfrm.StatusSuccess:
		return libsta.OK
	case libfrm.StatusServiceQueued:
		return libsta.QUEUED
	case libfrm.StatusServiceDropped:
		return libsta.DROPPED
	case libfrm.StatusMethodNotFound:
		return libsta.MethodNotFound
	case libfrm.StatusConnectionClosed:
		return libsta.CLOSED
	default:
		return libsta.ERR
	}
}
