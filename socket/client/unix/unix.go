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

// Package unix implements the Unix domain socket variant of the socket
// Client capability set, dialed on demand by socket/client. SetTLS is kept
// only to satisfy callers written against the TCP client's shape: a Unix
// socket carries no TLS layer, so it is a permanent no-op.
package unix

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	libtls "github.com/sabouaram/gocmsg/certificates"
	libsck "github.com/sabouaram/gocmsg/socket"
)

// ErrNotConnected is returned by Write/Read when the client has not dialed
// yet, or has been closed.
var ErrNotConnected = errors.New("unix: not connected")

// ClientUnix is the capability set of a dialed Unix domain socket client,
// extending socket.Client with a no-op TLS toggle kept for shape parity with
// ClientTCP.
type ClientUnix interface {
	libsck.Client

	// SetTLS is a no-op: Unix domain sockets carry no TLS layer. It is kept
	// so ClientUnix satisfies the same shape callers use for the TCP client.
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

// New returns a ClientUnix ready to Connect to address, or nil if address is
// empty.
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

// SetTLS is a no-op: Unix domain sockets carry no TLS layer. It is kept so
// ClientUnix satisfies the same shape callers use for the TCP client.
func (c *clientUnix) SetTLS(_ bool, _ libtls.TLSConfig, _ string) error {
	return nil
}

func (c *clientUnix) Connect(ctx context.Context) error {
	var d net.Dialer

	conn, err := d.DialContext(ctx, "unix", c.address)
	if err != nil {
		c.raise(err)
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

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
		return nil
	}
	c.raiseInfo(conn, libsck.ConnectionClose)
	return libsck.ErrorFilter(conn.Close())
}

func (c *clientUnix) Write(p []byte) (int, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return 0, ErrNotConnected
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
		return 0, ErrNotConnected
	}

	n, err := conn.Read(p)
	if err != nil && !errors.Is(err, net.ErrClosed) {
		c.raise(err)
	} else if err == nil {
		c.raiseInfo(conn, libsck.ConnectionRead)
	}
	return n, err
}

// Once dials, writes request in full, hands the reply stream to response if
// non-nil, then closes the connection regardless of how response returns.
func (c *clientUnix) Once(ctx context.Context, request io.Reader, response libsck.Response) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	defer func() {
		if err := c.Close(); err != nil {
			c.raise(err)
		}
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
