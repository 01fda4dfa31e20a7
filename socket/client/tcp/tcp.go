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

// Package tcp implements the TCP variant of the socket Client capability
// set, dialed on demand by socket/client and by the cmsg/transport
// StreamRpc/StreamOneway variants.
package tcp

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"

	libtls "github.com/sabouaram/gocmsg/certificates"
	libsck "github.com/sabouaram/gocmsg/socket"
)

// ErrInvalidAddress is returned by New when address is empty.
var ErrInvalidAddress = errors.New("tcp: invalid dial address")

// ErrAddressResolution is returned by New when address cannot be resolved.
var ErrAddressResolution = errors.New("tcp: address resolution failed")

// ErrNotConnected is returned by Write/Read when the client has not dialed
// yet, or has been closed.
var ErrNotConnected = errors.New("tcp: not connected")

// ClientTCP is the capability set of a dialed TCP client, extending
// socket.Client with TLS configuration.
type ClientTCP interface {
	libsck.Client

	// SetTLS enables or disables TLS for the next Connect call. serverName
	// is verified against the peer certificate when enabled.
	SetTLS(enabled bool, cfg libtls.TLSConfig, serverName string) error
}

type clientTCP struct {
	address string

	mu         sync.Mutex
	conn       net.Conn
	connected  bool
	tlsEnabled bool
	tlsCfg     libtls.TLSConfig
	tlsServer  string
	onError    libsck.FuncError
	onInfo     libsck.FuncInfo
}

// New validates address and returns a ClientTCP ready to Connect.
func New(address string) (ClientTCP, error) {
	if address == "" {
		return nil, ErrInvalidAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", address); err != nil {
		return nil, ErrAddressResolution
	}

	return &clientTCP{address: address}, nil
}

func (c *clientTCP) RegisterFuncError(f libsck.FuncError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = f
}

func (c *clientTCP) raise(err error) {
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

func (c *clientTCP) RegisterFuncInfo(f libsck.FuncInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInfo = f
}

func (c *clientTCP) raiseInfo(conn net.Conn, state libsck.ConnState) {
	c.mu.Lock()
	f := c.onInfo
	c.mu.Unlock()
	if f == nil || conn == nil {
		return
	}
	f(conn.LocalAddr(), conn.RemoteAddr(), state)
}

// SetTLS enables or disables TLS for the connection established by the next
// Connect call. It has no effect on an already established connection.
func (c *clientTCP) SetTLS(enabled bool, cfg libtls.TLSConfig, serverName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tlsEnabled = enabled
	c.tlsCfg = cfg
	c.tlsServer = serverName
	return nil
}

func (c *clientTCP) Connect(ctx context.Context) error {
	var d net.Dialer

	conn, err := d.DialContext(ctx, "tcp", c.address)
	if err != nil {
		c.raise(err)
		return err
	}

	c.mu.Lock()
	enabled, cfg, name := c.tlsEnabled, c.tlsCfg, c.tlsServer
	c.mu.Unlock()

	if enabled && cfg != nil {
		conn = tls.Client(conn, cfg.TLS(name))
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	c.raiseInfo(conn, libsck.ConnectionDial)
	c.raiseInfo(conn, libsck.ConnectionNew)

	return nil
}

func (c *clientTCP) Close() error {
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

func (c *clientTCP) Write(p []byte) (int, error) {
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

func (c *clientTCP) Read(p []byte) (int, error) {
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

// Once dials, writes request in full, hands the reply stream to response
// if non-nil, then closes the connection regardless of how response
// returns.
func (c *clientTCP) Once(ctx context.Context, request io.Reader, response libsck.Response) error {
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

func (c *clientTCP) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
