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

package socket

import (
	"net"
	"sync"
	"time"
)

// connContext is the stock Context implementation shared by every stream
// protocol package (tcp, unix): it wraps a net.Conn, applies an idle
// deadline before each Read/Write when idleTimeout is non-zero, and reports
// a done channel closed on Close.
type connContext struct {
	conn        net.Conn
	idleTimeout time.Duration

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	err    error
}

// WrapConn builds the Context handed to a HandlerFunc for conn. idleTimeout,
// when non-zero, is applied as a read/write deadline before every
// Read/Write call.
func WrapConn(conn net.Conn, idleTimeout time.Duration) Context {
	return &connContext{
		conn:        conn,
		idleTimeout: idleTimeout,
		done:        make(chan struct{}),
	}
}

func (c *connContext) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *connContext) RemoteHost() string {
	if a := c.conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

func (c *connContext) LocalHost() string {
	if a := c.conn.LocalAddr(); a != nil {
		return a.String()
	}
	return ""
}

func (c *connContext) applyDeadline() {
	if c.idleTimeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.idleTimeout))
	}
}

func (c *connContext) Read(p []byte) (int, error) {
	c.applyDeadline()
	n, err := c.conn.Read(p)
	if err != nil {
		c.fail(err)
	}
	return n, err
}

func (c *connContext) Write(p []byte) (int, error) {
	c.applyDeadline()
	n, err := c.conn.Write(p)
	if err != nil {
		c.fail(err)
	}
	return n, err
}

func (c *connContext) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = ErrorFilter(err)
	}
}

func (c *connContext) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)
	return c.conn.Close()
}

func (c *connContext) Done() <-chan struct{} {
	return c.done
}

func (c *connContext) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Deadline always reports ok=false: a connContext carries no deadline of
// its own, only the per-operation idle deadline applied to the underlying
// net.Conn.
func (c *connContext) Deadline() (time.Time, bool) {
	return time.Time{}, false
}

// Value always returns nil: a connContext carries no request-scoped values.
func (c *connContext) Value(_ any) any {
	return nil
}
