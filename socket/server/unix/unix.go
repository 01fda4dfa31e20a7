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
// Server capability set: accept loop, per-connection HandlerFunc dispatch,
// and socket file ownership/permission management. TLS is not meaningful on
// a Unix socket, so SetTLS is a no-op kept only to satisfy callers written
// against the TCP server's shape.
package unix

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"sync/atomic"

	libtls "github.com/sabouaram/gocmsg/certificates"
	libprm "github.com/sabouaram/gocmsg/file/perm"
	libsck "github.com/sabouaram/gocmsg/socket"
	sckcfg "github.com/sabouaram/gocmsg/socket/config"
)

// ErrInvalidHandler is returned by New when handler is nil.
var ErrInvalidHandler = errors.New("unix: handler must not be nil")

// MaxGID is the largest Unix group id accepted by RegisterSocket.
const MaxGID = sckcfg.MaxGID

// ErrInvalidGroup is returned by New or RegisterSocket when group falls
// outside [-1, MaxGID].
var ErrInvalidGroup = sckcfg.ErrInvalidGroup

// ErrNotListening is returned by Listener before Listen has bound a socket.
var ErrNotListening = errors.New("unix: not listening")

// ServerUnix is the capability set of a Unix domain socket server, extending
// socket.Server with socket file ownership management and a no-op TLS
// toggle.
type ServerUnix interface {
	libsck.Server

	SetTLS(enabled bool, cfg libtls.TLSConfig) error

	// RegisterSocket rebinds the server's socket path, file permissions and
	// owning group before Listen.
	RegisterSocket(path string, perm libprm.Perm, group int32) error
}

type serverUnix struct {
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

// New builds a Unix domain socket server bound to cfg.Address once Listen
// is called. upd, when non-nil, customises each accepted net.Conn before it
// is wrapped into a Context and handed to handler.
func New(upd libsck.UpdateConn, handler libsck.HandlerFunc, cfg sckcfg.Server) (ServerUnix, error) {
	if handler == nil {
		return nil, ErrInvalidHandler
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &serverUnix{cfg: cfg, upd: upd, handler: handler}, nil
}

func (s *serverUnix) RegisterFuncError(f libsck.FuncError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = f
}

func (s *serverUnix) RegisterFuncInfo(f libsck.FuncInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInfo = f
}

func (s *serverUnix) RegisterFuncInfoServer(f libsck.FuncInfoServer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInfoSrv = f
}

func (s *serverUnix) raiseInfoServer(msg string) {
	s.mu.Lock()
	f := s.onInfoSrv
	s.mu.Unlock()
	if f != nil {
		f(msg)
	}
}

// RegisterSocket rebinds the socket path, file permissions and owning
// group, replacing whatever cfg carried at New. It has no effect on a
// listener already accepting connections; call it before Listen.
func (s *serverUnix) RegisterSocket(path string, perm libprm.Perm, group int32) error {
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

// SetTLS is a no-op: Unix domain sockets carry no TLS layer. It is kept so
// ServerUnix satisfies the same shape callers use for the TCP server.
func (s *serverUnix) SetTLS(_ bool, _ libtls.TLSConfig) error {
	return nil
}

func (s *serverUnix) raiseError(err error) {
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

func (s *serverUnix) raiseInfo(local, remote net.Addr, state libsck.ConnState) {
	s.mu.Lock()
	f := s.onInfo
	s.mu.Unlock()
	if f != nil {
		f(local, remote, state)
	}
}

// Listen removes any stale socket file, binds the Unix listener, applies
// the configured file mode and group ownership, then serves connections
// until ctx is cancelled or Shutdown is called.
func (s *serverUnix) Listen(ctx context.Context) error {
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

	lis, err := net.ListenUnix(network, ua)
	if err != nil {
		return err
	}

	if perm != 0 {
		_ = os.Chmod(addr, perm.FileMode())
	}
	if group >= 0 {
		_ = os.Chown(addr, -1, int(group))
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

func (s *serverUnix) serve(conn net.Conn) {
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

// Shutdown stops accepting new connections, removes the socket file, and
// waits for in-flight handlers to return or ctx to expire.
func (s *serverUnix) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	lis := s.listener
	addr := s.cfg.Address
	s.running = false
	s.mu.Unlock()

	s.raiseInfoServer("shutting down")

	if lis != nil {
		_ = lis.Close()
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

// Close stops accepting new connections immediately, without waiting for
// in-flight handlers to return. Safe to call more than once.
func (s *serverUnix) Close() error {
	s.mu.Lock()
	lis := s.listener
	addr := s.cfg.Address
	s.listener = nil
	s.running = false
	s.mu.Unlock()

	if lis == nil {
		return nil
	}

	s.raiseInfoServer("shutting down")
	err := libsck.ErrorFilter(lis.Close())
	_ = os.Remove(addr)
	return err
}

// Listener reports the network and actual bound address once Listen has
// taken effect.
func (s *serverUnix) Listener() (string, string, error) {
	s.mu.Lock()
	lis := s.listener
	s.mu.Unlock()

	if lis == nil {
		return "", "", ErrNotListening
	}
	return lis.Addr().Network(), lis.Addr().String(), nil
}

func (s *serverUnix) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *serverUnix) IsGone() bool {
	return !s.IsRunning()
}

func (s *serverUnix) OpenConnections() int64 {
	return s.open.Load()
}
