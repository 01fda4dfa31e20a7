//go:build linux || darwin

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

// Package unixgram implements the Unix domain datagram variant of the
// socket Client capability set: a connectionless dial against a socket
// file that must already exist, used directly or through the
// cmsg/transport StreamOneway variant.
package unixgram

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	libtls "github.com/sabouaram/gocmsg/certificates"
	libsck "github.com/sabouaram/gocmsg/socket"
)

// ErrAddress is returned by New when address is empty.
var ErrAddress = errors.New("invalid dial address")

// ErrConnection is returned by Write/Read/Close when the client has not
// dialed yet, or has already been closed.
var ErrConnection = errors.New("invalid connection")

// ErrInstance is returned when an operation is attempted on a nil client.
var ErrInstance = errors.New("nil client instance")

// ClientUnix is the capability set of a dialed Unix datagram client,
// extending socket.Client with a SetTLS method kept for shape parity with
// the stream protocol clients: Unix sockets carry no TLS layer, so it is a
// permanent no-op.
type ClientUnix interface {
	libsck.Client

	// SetTLS is a no-op: Unix datagram sockets carry no TLS layer. Kept so
	// ClientUnix satisfies the same shape callers use for the TCP client.
	SetTLS(enabled bool, cfg libtls.TLSConfig, serverName string) error
}

type clientUnix struct {
	address string

	mu        sync.Mutex
	conn      net.Conn
	connected bool
	onError   libsck.FuncError
	onInfo    libsck.FuncInfo
}

// New validates address and returns a ClientUnix ready to Connect. It
// returns nil when address is empty: unlike the other Client variants, a
// Unix datagram dial has nothing further to validate upfront, since the
// peer socket file is only checked at Connect time.
func New(address string) ClientUnix {
	if address == "" {
		return nil
	}
	return &clientUnix{address: address}
}

func (c *clientUnix) RegisterFuncError(f libsck.FuncError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = f
}

func (c *clientUnix) raise(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	f := c.onError
	c.mu.Unlock()
	if f != nil {
		f(err)
	}
}

func (c *clientUnix) RegisterFuncInfo(f libsck.FuncInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInfo = f
}

func (c *clientUnix) raiseInfo(conn net.Conn, state libsck.ConnState) {
	c.mu.Lock()
	f := c.onInfo
	c.mu.Unlock()
	if f == nil || conn == nil {
		return
	}
	f(conn.LocalAddr(), conn.RemoteAddr(), state)
}

// SetTLS is a no-op: Unix datagram sockets carry no TLS layer. It is kept
// so ClientUnix satisfies the same shape callers use for the TCP client.
func (c *clientUnix) SetTLS(_ bool, _ libtls.TLSConfig, _ string) error {
	return nil
}

// Connect dials the peer socket file, which must already exist: unlike UDP,
// connecting a Unix datagram socket fails immediately if the target isn't
// bound and listening. Calling Connect again replaces the underlying
// socket.
func (c *clientUnix) Connect(ctx context.Context) error {
	var d net.Dialer

	conn, err := d.DialContext(ctx, "unixgram", c.address)
	if err != nil {
		c.raise(err)
		return err
	}

	c.mu.Lock()
	old := c.conn
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	c.raiseInfo(conn, libsck.ConnectionDial)
	c.raiseInfo(conn, libsck.ConnectionNew)

	return nil
}

func (c *clientUnix) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.connected = false
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return ErrConnection
	}
	c.raiseInfo(conn, libsck.ConnectionClose)
	return libsck.ErrorFilter(conn.Close())
}

func (c *clientUnix) Write(p []byte) (int, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return 0, ErrConnection
	}

	n, err := conn.Write(p)
	if err != nil {
		c.raise(err)
	} else {
		c.raiseInfo(conn, libsck.ConnectionWrite)
	}
	return n, err
}

func (c *clientUnix) Read(p []byte) (int, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return 0, ErrConnection
	}

	n, err := conn.Read(p)
	if err != nil && !errors.Is(err, net.ErrClosed) {
		c.raise(err)
	} else if err == nil {
		c.raiseInfo(conn, libsck.ConnectionRead)
	}
	return n, err
}

// Once dials, writes request in full, hands the reply datagram to response
// if non-nil, then closes the socket regardless of how response returns.
func (c *clientUnix) Once(ctx context.Context, request io.Reader, response libsck.Response) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	defer func() {
		_ = c.Close()
	}()

	if request != nil {
		if _, err := io.Copy(c, request); err != nil {
			c.raise(err)
			return err
		}
	}

	if response != nil {
		response(c)
	}

	return nil
}

func (c *clientUnix) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
