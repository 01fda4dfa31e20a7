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
 */

// Package socket defines the connection-oriented primitives shared by every
// concrete client/server transport pair (tcp, udp, unix, unixgram). The
// cmsg/transport package builds its StreamRpc/StreamOneway variants directly
// on top of the Client and Server interfaces defined here.
package socket

import (
	"context"
	"net"
	"strings"
	"time"
)

// DefaultBufferSize is the read/write buffer size used when a caller does
// not configure one explicitly.
const DefaultBufferSize = 32 * 1024

// EOL is the line terminator recognised by line-oriented helpers.
const EOL = byte('\n')

// ConnState enumerates the lifecycle stages a connection passes through,
// reported to a registered FuncInfo callback.
type ConnState uint8

const (
	ConnectionDial ConnState = iota
	ConnectionNew
	ConnectionRead
	ConnectionCloseRead
	ConnectionHandler
	ConnectionWrite
	ConnectionCloseWrite
	ConnectionClose
)

func (c ConnState) String() string {
	switch c {
	case ConnectionDial:
		return "Dial Connection"
	case ConnectionNew:
		return "New Connection"
	case ConnectionRead:
		return "Read Incoming Stream"
	case ConnectionCloseRead:
		return "Close Incoming Stream"
	case ConnectionHandler:
		return "Run HandlerFunc"
	case ConnectionWrite:
		return "Write Outgoing Steam"
	case ConnectionCloseWrite:
		return "Close Outgoing Stream"
	case ConnectionClose:
		return "Close Connection"
	default:
		return "unknown connection state"
	}
}

// ErrorFilter hides the noisy "use of closed network connection" error that
// net.Conn/net.Listener return on a deliberate Close, returning nil for it
// and passing every other error through unchanged.
func ErrorFilter(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "use of closed network connection") {
		return nil
	}
	return err
}

// FuncError receives errors surfaced while a connection is handled.
type FuncError func(errs ...error)

// FuncInfoServer receives a server-level lifecycle notification (listening,
// shutting down, registration changes) that is not tied to a single
// connection.
type FuncInfoServer func(msg string)

// FuncInfo receives a connection-lifecycle notification.
type FuncInfo func(local, remote net.Addr, state ConnState)

// Context is handed to a HandlerFunc for the lifetime of one accepted
// connection. It satisfies context.Context so a handler can pass it
// directly to functions expecting one; a Context never carries a deadline
// or values of its own, so Deadline always reports ok=false and Value
// always returns nil.
type Context interface {
	IsConnected() bool
	RemoteHost() string
	LocalHost() string
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	Done() <-chan struct{}
	Err() error
	Deadline() (deadline time.Time, ok bool)
	Value(key any) any
}

// HandlerFunc processes one accepted connection end to end.
type HandlerFunc func(ctx Context)

// Handler is the stateful counterpart of HandlerFunc: a function bound to a
// receiver that holds handler-scoped state across connections.
type Handler[T any] func(h *T, ctx Context)

// UpdateConn customises a freshly dialed/accepted net.Conn before it is
// wrapped into a Context (socket options, deadlines, ...).
type UpdateConn func(conn net.Conn)

// Response is invoked with the raw reply stream of a Client.Once call.
type Response func(r interface {
	Read(p []byte) (int, error)
})

// Server is the capability set a concrete protocol server package
// (socket/server/tcp, .../udp, .../unix, .../unixgram) implements.
type Server interface {
	RegisterFuncError(f FuncError)
	RegisterFuncInfo(f FuncInfo)
	RegisterFuncInfoServer(f FuncInfoServer)

	// Listen runs the accept loop until ctx is cancelled or a fatal error
	// occurs; it blocks the calling goroutine.
	Listen(ctx context.Context) error

	// Listener reports the network and the actual bound address once Listen
	// has taken effect (useful when the configured address uses port 0).
	// address is empty and err is non-nil before the socket is bound.
	Listener() (network, address string, err error)

	// Shutdown stops accepting new connections and closes every accepted
	// connection, waiting up to ctx's deadline for in-flight handlers to
	// return.
	Shutdown(ctx context.Context) error

	// Close stops accepting new connections immediately, without waiting
	// for in-flight handlers to return. Safe to call more than once.
	Close() error

	IsRunning() bool
	IsGone() bool
	OpenConnections() int64
}

// Client is the capability set a concrete protocol client package
// (socket/client/tcp, .../udp, .../unix, .../unixgram) implements.
type Client interface {
	RegisterFuncError(f FuncError)
	RegisterFuncInfo(f FuncInfo)

	Connect(ctx context.Context) error
	Close() error

	Write(p []byte) (int, error)
	Read(p []byte) (int, error)

	// Once dials, writes request in full, optionally hands the reply stream
	// to response, then closes the connection. request may be nil to send
	// nothing; response may be nil to discard the reply.
	Once(ctx context.Context, request interface {
		Read(p []byte) (int, error)
	}, response Response) error

	IsConnected() bool
}
