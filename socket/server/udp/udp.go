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

// Package udp implements the UDP variant of the socket Server capability
// set: one shared PacketConn, a read loop that demultiplexes each incoming
// datagram to its own HandlerFunc invocation, and a permanently-disabled TLS
// toggle kept for shape parity with the stream protocol servers.
package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	libtls "github.com/sabouaram/gocmsg/certificates"
	libsck "github.com/sabouaram/gocmsg/socket"
	sckcfg "github.com/sabouaram/gocmsg/socket/config"
)

// maxDatagramSize is the largest possible UDP payload.
const maxDatagramSize = 65507

// ErrInvalidAddress is returned by New or RegisterServer when cfg.Address
// cannot be resolved as a UDP address.
var ErrInvalidAddress = errors.New("udp: invalid listen address")

// ErrInvalidHandler is returned by New when handler is nil.
var ErrInvalidHandler = errors.New("udp: handler must not be nil")

// ErrNotListening is returned by Listener before Listen has bound a socket.
var ErrNotListening = errors.New("udp: not listening")

// ServerUdp is the capability set of a UDP server, extending socket.Server
// with a SetTLS method kept for shape parity with the stream protocol
// servers: UDP carries no TLS layer, so it is a permanent no-op.
type ServerUdp interface {
	libsck.Server

	// SetTLS is a no-op: UDP carries no TLS layer. Kept so ServerUdp
	// satisfies the same shape callers use for the TCP server.
	SetTLS(enabled bool, cfg libtls.TLSConfig) error

	// RegisterServer rebinds the server's listen address before Listen.
	RegisterServer(address string) error
}

type serverUDP struct {
	cfg     sckcfg.Server
	upd     libsck.UpdateConn
	handler libsck.HandlerFunc

	mu        sync.Mutex
	conn      *net.UDPConn
	running   bool
	open      atomic.Int64
	onError   libsck.FuncError
	onInfo    libsck.FuncInfo
	onInfoSrv libsck.FuncInfoServer

	wg sync.WaitGroup
}

// New builds a UDP server bound to cfg.Address once Listen is called. upd,
// when non-nil, customises the shared *net.UDPConn before the read loop
// starts.
func New(upd libsck.UpdateConn, handler libsck.HandlerFunc, cfg sckcfg.Server) (ServerUdp, error) {
	if handler == nil {
		return nil, ErrInvalidHandler
	}
	if err := cfg.Validate(); err != nil {
		return nil, ErrInvalidAddress
	}

	return &serverUDP{cfg: cfg, upd: upd, handler: handler}, nil
}

func (s *serverUDP) RegisterFuncError(f libsck.FuncError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = f
}

func (s *serverUDP) RegisterFuncInfo(f libsck.FuncInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInfo = f
}

func (s *serverUDP) RegisterFuncInfoServer(f libsck.FuncInfoServer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInfoSrv = f
}

func (s *serverUDP) raiseInfoServer(msg string) {
	s.mu.Lock()
	f := s.onInfoSrv
	s.mu.Unlock()
	if f != nil {
		f(msg)
	}
}

// RegisterServer rebinds the server to address, replacing whatever address
// cfg carried at New. It has no effect on a socket already listening; call
// it before Listen.
func (s *serverUDP) RegisterServer(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Address = address
	if err := s.cfg.Validate(); err != nil {
		return ErrInvalidAddress
	}
	return nil
}

// SetTLS is a no-op: UDP carries no TLS layer. It is kept so ServerUdp
// satisfies the same shape callers use for the TCP server.
func (s *serverUDP) SetTLS(_ bool, _ libtls.TLSConfig) error {
	return nil
}

func (s *serverUDP) raiseError(err error) {
	if err = libsck.ErrorFilter(err); err == nil {
		return
	}
	s.mu.Lock()
	f := s.onError
	s.mu.Unlock()
	if f != nil {
		f(err)
	}
}

func (s *serverUDP) raiseInfo(local, remote net.Addr, state libsck.ConnState) {
	s.mu.Lock()
	f := s.onInfo
	s.mu.Unlock()
	if f != nil {
		f(local, remote, state)
	}
}

// Listen opens the UDP socket and dispatches every received datagram to its
// own HandlerFunc invocation until ctx is cancelled or a fatal read error
// occurs.
func (s *serverUDP) Listen(ctx context.Context) error {
	network := s.cfg.Network.String()

	addr, err := net.ResolveUDPAddr(network, s.cfg.Address)
	if err != nil {
		return ErrInvalidAddress
	}

	conn, err := net.ListenUDP(network, addr)
	if err != nil {
		return err
	}

	if s.upd != nil {
		s.upd(conn)
	}

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.raiseInfoServer(fmt.Sprintf("starting listening socket '%s %s'", network, conn.LocalAddr().String()))

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			s.raiseInfoServer("shutting down")
			return libsck.ErrorFilter(err)
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		s.wg.Add(1)
		s.open.Add(1)
		go s.serve(conn, remote, data)
	}
}

func (s *serverUDP) serve(conn *net.UDPConn, remote net.Addr, data []byte) {
	defer s.wg.Done()
	defer s.open.Add(-1)

	s.raiseInfo(conn.LocalAddr(), remote, libsck.ConnectionNew)

	dctx := &datagramContext{
		conn:   conn,
		remote: remote,
		data:   data,
		done:   make(chan struct{}),
	}
	defer func() {
		s.raiseInfo(conn.LocalAddr(), remote, libsck.ConnectionClose)
	}()

	if s.handler != nil {
		s.handler(dctx)
	}

	if err := dctx.Err(); err != nil {
		s.raiseError(err)
	}

	_ = dctx.Close()
}

// Shutdown stops accepting new datagrams and waits for in-flight handlers
// to return or ctx to expire.
func (s *serverUDP) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	conn := s.conn
	s.running = false
	s.mu.Unlock()

	s.raiseInfoServer("shutting down")

	if conn != nil {
		_ = conn.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new datagrams immediately, without waiting for
// in-flight handlers to return. Safe to call more than once.
func (s *serverUDP) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.running = false
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	s.raiseInfoServer("shutting down")
	return libsck.ErrorFilter(conn.Close())
}

// Listener reports the network and actual bound address once Listen has
// taken effect, resolving a configured port 0 to the port the kernel chose.
func (s *serverUDP) Listener() (string, string, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return "", "", ErrNotListening
	}
	return conn.LocalAddr().Network(), conn.LocalAddr().String(), nil
}

func (s *serverUDP) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *serverUDP) IsGone() bool {
	return !s.IsRunning()
}

func (s *serverUDP) OpenConnections() int64 {
	return s.open.Load()
}
