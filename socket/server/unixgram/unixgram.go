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

// Package unixgram implements the Unix domain datagram variant of the socket
// Server capability set: one shared *net.UnixConn bound to a socket file,
// with file ownership/permission management borrowed from the stream Unix
// server, and a per-datagram HandlerFunc dispatch borrowed from the UDP
// server's read loop.
package unixgram

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"

	libprm "github.com/sabouaram/gocmsg/file/perm"
	libsck "github.com/sabouaram/gocmsg/socket"
	sckcfg "github.com/sabouaram/gocmsg/socket/config"
)

// maxDatagramSize is the largest payload read in one pass of the loop.
const maxDatagramSize = 65507

// ErrInvalidHandler is returned by New when handler is nil.
var ErrInvalidHandler = errors.New("unixgram: handler must not be nil")

// ErrNotListening is returned by Listener before Listen has bound a socket.
var ErrNotListening = errors.New("unixgram: not listening")

// MaxGID is the largest Unix group id accepted by RegisterSocket.
const MaxGID = sckcfg.MaxGID

// ErrInvalidGroup is returned by New or RegisterSocket when group falls
// outside [-1, MaxGID].
var ErrInvalidGroup = sckcfg.ErrInvalidGroup

// ServerUnixGram is the capability set of a Unix domain datagram server,
// extending socket.Server with socket file ownership management.
type ServerUnixGram interface {
	libsck.Server

	// RegisterSocket rebinds the server's socket path, file permissions and
	// owning group before Listen.
	RegisterSocket(path string, perm libprm.Perm, group int32) error
}

type serverUnixGram struct {
	cfg     sckcfg.Server
	upd     libsck.UpdateConn
	handler libsck.HandlerFunc

	mu        sync.Mutex
	conn      *net.UnixConn
	running   bool
	open      atomic.Int64
	onError   libsck.FuncError
	onInfo    libsck.FuncInfo
	onInfoSrv libsck.FuncInfoServer

	wg sync.WaitGroup
}

// New builds a Unix datagram server bound to cfg.Address once Listen is
// called. upd, when non-nil, customises the shared *net.UnixConn before the
// read loop starts.
func New(upd libsck.UpdateConn, handler libsck.HandlerFunc, cfg sckcfg.Server) (ServerUnixGram, error) {
	if handler == nil {
		return nil, ErrInvalidHandler
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &serverUnixGram{cfg: cfg, upd: upd, handler: handler}, nil
}

func (s *serverUnixGram) RegisterFuncError(f libsck.FuncError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = f
}

func (s *serverUnixGram) RegisterFuncInfo(f libsck.FuncInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInfo = f
}

func (s *serverUnixGram) RegisterFuncInfoServer(f libsck.FuncInfoServer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInfoSrv = f
}

func (s *serverUnixGram) raiseInfoServer(msg string) {
	s.mu.Lock()
	f := s.onInfoSrv
	s.mu.Unlock()
	if f != nil {
		f(msg)
	}
}

// RegisterSocket rebinds the socket path, file permissions and owning
// group, replacing whatever cfg carried at New. It has no effect on a
// socket already listening; call it before Listen.
func (s *serverUnixGram) RegisterSocket(path string, perm libprm.Perm, group int32) error {
	if group < -1 || group > MaxGID {
		return ErrInvalidGroup
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Address = path
	s.cfg.PermFile = perm
	s.cfg.GroupPerm = group
	return nil
}

func (s *serverUnixGram) raiseError(err error) {
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

func (s *serverUnixGram) raiseInfo(local, remote net.Addr, state libsck.ConnState) {
	s.mu.Lock()
	f := s.onInfo
	s.mu.Unlock()
	if f != nil {
		f(local, remote, state)
	}
}

// Listen removes any stale socket file, binds the shared datagram socket,
// applies the configured file mode and group ownership, then dispatches
// every received datagram to its own HandlerFunc invocation until ctx is
// cancelled or a fatal read error occurs. The socket file is removed before
// returning, regardless of why the loop stopped.
func (s *serverUnixGram) Listen(ctx context.Context) error {
	s.mu.Lock()
	addr := s.cfg.Address
	network := s.cfg.Network.String()
	perm := s.cfg.PermFile
	group := s.cfg.GroupPerm
	s.mu.Unlock()

	_ = os.Remove(addr)

	ua, err := net.ResolveUnixAddr(network, addr)
	if err != nil {
		return err
	}

	conn, err := net.ListenUnixgram(network, ua)
	if err != nil {
		return err
	}
	defer os.Remove(addr)

	if perm != 0 {
		_ = os.Chmod(addr, perm.FileMode())
	}
	if group >= 0 {
		_ = os.Chown(addr, -1, int(group))
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
		n, remote, err := conn.ReadFrom(buf)
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

func (s *serverUnixGram) serve(conn *net.UnixConn, remote net.Addr, data []byte) {
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

// Shutdown stops accepting new datagrams, removes the socket file, and
// waits for in-flight handlers to return or ctx to expire.
func (s *serverUnixGram) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	conn := s.conn
	addr := s.cfg.Address
	s.running = false
	s.mu.Unlock()

	s.raiseInfoServer("shutting down")

	if conn != nil {
		_ = conn.Close()
	}
	_ = os.Remove(addr)

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
func (s *serverUnixGram) Close() error {
	s.mu.Lock()
	conn := s.conn
	addr := s.cfg.Address
	s.conn = nil
	s.running = false
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	s.raiseInfoServer("shutting down")
	err := libsck.ErrorFilter(conn.Close())
	_ = os.Remove(addr)
	return err
}

// Listener reports the network and actual bound address once Listen has
// taken effect.
func (s *serverUnixGram) Listener() (string, string, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return "", "", ErrNotListening
	}
	return conn.LocalAddr().Network(), conn.LocalAddr().String(), nil
}

func (s *serverUnixGram) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *serverUnixGram) IsGone() bool {
	return !s.IsRunning()
}

func (s *serverUnixGram) OpenConnections() int64 {
	return s.open.Load()
}
