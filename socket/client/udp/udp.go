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

// Package udp implements the UDP variant of the socket Client capability
// set: a connectionless dial that binds a remote peer address to the
// client's socket, used directly or through the cmsg/transport
// StreamOneway variant.
package udp

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	libtls "github.com/sabouaram/gocmsg/certificates"
	libsck "github.com/sabouaram/gocmsg/socket"
)

// ErrAddress is returned by New when address is empty or cannot be resolved.
var ErrAddress = errors.New("invalid dial address")

// ErrConnection is returned by Write/Read/Close when the client has not
// dialed yet, or has already been closed.
var ErrConnection = errors.New("invalid connection")

// ErrInstance is returned when an operation is attempted on a nil client.
var ErrInstance = errors.New("nil client instance")

// ClientUDP is the capability set of a dialed UDP client, extending
// socket.Client with a SetTLS method kept for shape parity with the stream
// protocol clients: UDP carries no TLS layer, so it is a permanent no-op.
type ClientUDP interface {
	libsck.Client

	// SetTLS is a no-op: UDP carries no TLS layer. Kept so ClientUDP
	// satisfies the same shape callers use for the TCP client.
	SetTLS(enabled bool, cfg libtls.TLSConfig, serverName string) error
}

type clientUDP struct {
	address string

	mu        sync.Mutex
	conn      net.Conn
	connected bool
	onError   libsck.FuncError
	onInfo    libsck.FuncInfo
}

// New validates address and returns a ClientUDP ready to Connect.
func New(address string) (ClientUDP, error) {
	if address == "" {
		return nil, ErrAddress
	}

	if _, err := net.ResolveUDPAddr("udp", address); err != nil {
		return nil, ErrAddress
	}

	return &clientUDP{address: address}, nil
}

func (c *clientUDP) RegisterFuncError(f libsck.FuncError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = f
}

// raise notifies the registered FuncError asynchronously: UDP calls return
// as soon as the datagram is handed to the kernel, and a slow or blocking
// callback must never delay the next Write/Read/Connect.
func (c *clientUDP) raise(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	f := c.onError
	c.mu.Unlock()
	if f != nil {
		go safeCall(func() { f(err) })
	}
}

func (c *clientUDP) RegisterFuncInfo(f libsck.FuncInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInfo = f
}

// raiseInfo notifies the registered FuncInfo asynchronously, for the same
// reason as raise.
func (c *clientUDP) raiseInfo(conn net.Conn, state libsck.ConnState) {
	c.mu.Lock()
	f := c.onInfo
	c.mu.Unlock()
	if f == nil || conn == nil {
		return
	}
	local, remote := conn.LocalAddr(), conn.RemoteAddr()
	go safeCall(func() { f(local, remote, state) })
}

// safeCall runs f, discarding any panic it raises: a caller-supplied
// callback running on its own goroutine must never take the process down.
func safeCall(f func()) {
	defer func() {
		_ = recover()
	}()
	f()
}

// SetTLS is a no-op: UDP carries no TLS layer. It is kept so ClientUDP
// satisfies the same shape callers use for the TCP client.
func (c *clientUDP) SetTLS(_ bool, _ libtls.TLSConfig, _ string) error {
	return nil
}

// Connect binds the client's socket to address. UDP is connectionless, so
// this never contacts the peer: it only fails if ctx is already done or the
// local socket cannot be allocated. Calling Connect again replaces the
// underlying socket.
func (c *clientUDP) Connect(ctx context.Context) error {
	var d net.Dialer

	conn, err := d.DialContext(ctx, "udp", c.address)
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

func (c *clientUDP) Close() error {
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

func (c *clientUDP) Write(p []byte) (int, error) {
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

func (c *clientUDP) Read(p []byte) (int, error) {
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
func (c *clientUDP) Once(ctx context.Context, request io.Reader, response libsck.Response) error {
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

func (c *clientUDP) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
