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

// Package tcp implements the TCP variant of the socket Server capability
// set: accept loop, per-connection HandlerFunc dispatch, and optional TLS.
package tcp

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	libtls "github.com/sabouaram/gocmsg/certificates"
	libsck "github.com/sabouaram/gocmsg/socket"
	sckcfg "github.com/sabouaram/gocmsg/socket/config"
)

// ErrInvalidAddress is returned by New or RegisterServer when cfg.Address
// cannot be resolved as a TCP address.
var ErrInvalidAddress = errors.New("tcp: invalid listen address")

// ErrInvalidHandler is returned by New when handler is nil.
var ErrInvalidHandler = errors.New("tcp: handler must not be nil")

// ErrNotListening is returned by Listener before Listen has bound a socket.
var ErrNotListening = errors.New("tcp: not listening")

// ServerTcp is the capability set of a TCP server, extending socket.Server
// with a TLS toggle applied at the next Listen call.
type ServerTcp interface {
	libsck.Server

	SetTLS(enabled bool, cfg libtls.TLSConfig) error

	// RegisterServer rebinds the server's listen address before Listen.
	RegisterServer(address string) error
}

type serverTCP struct {
	cfg     sckcfg.Server
	upd     libsck.UpdateConn
	handler libsck.HandlerFunc

	mu        sync.Mutex
	listener  net.Listener
	running   bool
	open      atomic.Int64
	onError   libsck.FuncError
	onInfo    libsck.FuncInfo
	onInfoSrv libsck.FuncInfoServer

	wg sync.WaitGroup
}

// New builds a TCP server bound to cfg.Address once Listen is called. upd,
// when non-nil, customises each accepted net.Conn before it is wrapped into
// a Context and handed to handler.
func New(upd libsck.UpdateConn, handler libsck.HandlerFunc, cfg sckcfg.Server) (ServerTcp, error) {
	if handler == nil {
		return nil, ErrInvalidHandler
	}
	if err := cfg.Validate(); err != nil {
		return nil, ErrInvalidAddress
	}

	return &serverTCP{cfg: cfg, upd: upd, handler: handler}, nil
}

func (s *serverTCP) RegisterFuncError(f libsck.FuncError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = f
}

func (s *serverTCP) RegisterFuncInfo(f libsck.FuncInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInfo = f
}

func (s *serverTCP) RegisterFuncInfoServer(f libsck.FuncInfoServer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInfoSrv = f
}

func (s *serverTCP) raiseInfoServer(msg string) {
	s.mu.Lock()
	f := s.onInfoSrv
	s.mu.Unlock()
	if f != nil {
		f(msg)
	}
}

// RegisterServer rebinds the server to address, replacing whatever address
// cfg carried at New. It has no effect on a listener already accepting
// connections; call it before Listen.
func (s *serverTCP) RegisterServer(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Address = address
	if err := s.cfg.Validate(); err != nil {
		return ErrInvalidAddress
	}
	return nil
}

func (s *serverTCP) SetTLS(enabled bool, cfg libtls.TLSConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.TLS.Enabled = enabled
	if cfg != nil {
		s.cfg.DefaultTLS(cfg)
	}
	return nil
}

func (s *serverTCP) raiseError(err error) {
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

func (s *serverTCP) raiseInfo(local, remote net.Addr, state libsck.ConnState) {
	s.mu.Lock()
	f := s.onInfo
	s.mu.Unlock()
	if f != nil {
		f(local, remote, state)
	}
}

// Listen opens the TCP listener and serves connections until ctx is
// cancelled or Shutdown is called.
func (s *serverTCP) Listen(ctx context.Context) error {
	lis, err := net.Listen(s.cfg.Network.String(), s.cfg.Address)
	if err != nil {
		return err
	}

	if enabled, cfg := s.cfg.GetTLS(); enabled && cfg != nil {
		lis = tls.NewListener(lis, cfg.TLS(""))
	}

	s.mu.Lock()
	s.listener = lis
	s.running = true
	s.mu.Unlock()

	s.raiseInfoServer("listening on " + lis.Addr().String())

	go func() {
		<-ctx.Done()
		_ = lis.Close()
	}()

	for {
		conn, err := lis.Accept()
		if err != nil {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return libsck.ErrorFilter(err)
		}

		s.wg.Add(1)
		s.open.Add(1)
		go s.serve(conn)
	}
}

func (s *serverTCP) serve(conn net.Conn) {
	defer s.wg.Done()
	defer s.open.Add(-1)

	if s.upd != nil {
		s.upd(conn)
	}

	s.raiseInfo(conn.LocalAddr(), conn.RemoteAddr(), libsck.ConnectionNew)

	ctx := libsck.WrapConn(conn, s.cfg.ConIdleTimeout)
	defer func() {
		s.raiseInfo(conn.LocalAddr(), conn.RemoteAddr(), libsck.ConnectionClose)
	}()

	if s.handler != nil {
		s.handler(ctx)
	}

	if err := ctx.Err(); err != nil {
		s.raiseError(err)
	}

	_ = ctx.Close()
}

// Shutdown stops accepting new connections and waits for in-flight handlers
// to return or ctx to expire.
func (s *serverTCP) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	lis := s.listener
	s.running = false
	s.mu.Unlock()

	s.raiseInfoServer("shutting down")

	if lis != nil {
		_ = lis.Close()
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

// Close stops accepting new connections immediately, without waiting for
// in-flight handlers to return. Safe to call more than once.
func (s *serverTCP) Close() error {
	s.mu.Lock()
	lis := s.listener
	s.listener = nil
	s.running = false
	s.mu.Unlock()

	if lis == nil {
		return nil
	}

	s.raiseInfoServer("shutting down")
	return libsck.ErrorFilter(lis.Close())
}

// Listener reports the network and actual bound address once Listen has
// taken effect, resolving a configured port 0 to the port the kernel chose.
func (s *serverTCP) Listener() (string, string, error) {
	s.mu.Lock()
	lis := s.listener
	s.mu.Unlock()

	if lis == nil {
		return "", "", ErrNotListening
	}
	return lis.Addr().Network(), lis.Addr().String(), nil
}

func (s *serverTCP) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *serverTCP) IsGone() bool {
	return !s.IsRunning()
}

func (s *serverTCP) OpenConnections() int64 {
	return s.open.Load()
}
