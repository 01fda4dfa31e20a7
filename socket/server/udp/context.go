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

package udp

import (
	"io"
	"net"
	"sync"
	"time"

	libsck "github.com/sabouaram/gocmsg/socket"
)

// datagramContext is the Context handed to a HandlerFunc for one received
// UDP datagram. A single Read drains the buffered payload; every further
// Read returns io.EOF, since UDP carries no stream to continue. Write sends
// back to the datagram's sender over the server's shared socket.
type datagramContext struct {
	conn   *net.UDPConn
	remote net.Addr
	data   []byte

	mu     sync.Mutex
	read   bool
	closed bool
	done   chan struct{}
	err    error
}

func (c *datagramContext) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *datagramContext) RemoteHost() string {
	if c.remote != nil {
		return c.remote.String()
	}
	return ""
}

func (c *datagramContext) LocalHost() string {
	a := c.conn.LocalAddr()
	if a == nil {
		return ""
	}
	return a.Network() + " " + a.String()
}

func (c *datagramContext) Read(p []byte) (int, error) {
	c.mu.Lock()
	if c.read {
		c.mu.Unlock()
		return 0, io.EOF
	}
	c.read = true
	c.mu.Unlock()

	return copy(p, c.data), nil
}

func (c *datagramContext) Write(p []byte) (int, error) {
	n, err := c.conn.WriteTo(p, c.remote)
	if err != nil {
		c.fail(err)
	}
	return n, err
}

func (c *datagramContext) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = libsck.ErrorFilter(err)
	}
}

func (c *datagramContext) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)
	return nil
}

func (c *datagramContext) Done() <-chan struct{} {
	return c.done
}

func (c *datagramContext) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Deadline always reports ok=false: a datagramContext carries no deadline
// of its own.
func (c *datagramContext) Deadline() (time.Time, bool) {
	return time.Time{}, false
}

// Value always returns nil: a datagramContext carries no request-scoped
// values.
func (c *datagramContext) Value(_ any) any {
	return nil
}
