/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

package server

import (
	"context"

	"github.com/sirupsen/logrus"

	libcdc "github.com/sabouaram/gocmsg/cmsg/codec"
	libfil "github.com/sabouaram/gocmsg/cmsg/filter"
	libobs "github.com/sabouaram/gocmsg/cmsg/observer"
	libque "github.com/sabouaram/gocmsg/cmsg/queue"
	libtpt "github.com/sabouaram/gocmsg/cmsg/transport"
)

// Config bundles a Server's collaborators. Codec and Observer default to
// codec.Default() and observer.Noop{} when left nil; Filter and
// ReceiveQueue are both optional (a Service with every method PROCESS
// never touches either).
type Config struct {
	Transport    libtpt.Transport
	Service      *Service
	Codec        libcdc.Codec
	Observer     libobs.Observer
	Filter       *libfil.Table
	ReceiveQueue *libque.Receive
	Log          *logrus.Entry
}

// Server accepts connections on one Transport and dispatches every frame
// it reads to Service's method table.
type Server struct {
	tport libtpt.Transport
	svc   *Service
	codec libcdc.Codec
	obs   libobs.Observer
	filt  *libfil.Table
	recvQ *libque.Receive
	log   *logrus.Entry
}

// New builds a Server from cfg. cfg.Transport and cfg.Service must be
// non-nil.
func New(cfg Config) *Server {
	s := &Server{
		tport: cfg.Transport,
		svc:   cfg.Service,
		codec: cfg.Codec,
		obs:   libobs.OrNoop(cfg.Observer),
		filt:  cfg.Filter,
		recvQ: cfg.ReceiveQueue,
		log:   cfg.Log,
	}

	if s.codec == nil {
		s.codec = libcdc.Default()
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}

	return s
}

// Serve starts listening and runs the accept loop until ctx is cancelled
// or a fatal transport error occurs. Each accepted peer is dispatched on
// its own goroutine.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.tport.Listen(ctx); err != nil {
		return err
	}

	for {
		peer, err := s.tport.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		s.obs.Inc(libobs.ConnectionsAccepted, s.tport.ID())
		go s.handlePeer(ctx, peer)
	}
}

func (s *Server) handlePeer(ctx context.Context, peer string) {
	defer func() {
		_ = s.tport.ServerClose(peer)
		s.obs.Inc(libobs.ConnectionsClosed, s.tport.ID())
	}()

	for {
		raw, err := s.tport.ServerRecv(ctx, peer)
		if err != nil {
			if ctx.Err() == nil {
				s.obs.Inc(libobs.RecvErrors, s.tport.ID())
			}
			return
		}

		if err = s.dispatch(ctx, peer, raw); err != nil {
			s.obs.Inc(libobs.ProtocolErrors, s.tport.ID())
			return
		}
	}
}

// ProcessSome drains up to n entries from the receive queue through their
// method's Handle. Passing n <= 0 is a no-op; ProcessAll drains every
// currently queued entry.
func (s *Server) ProcessSome(ctx context.Context, n int) {
	if s.recvQ == nil || n <= 0 {
		return
	}
	s.process(ctx, s.recvQ.PopN(n))
}

// ProcessAll drains the entire receive queue and clears the filter table's
// DRAINING sub-state once empty.
func (s *Server) ProcessAll(ctx context.Context) {
	if s.recvQ == nil {
		return
	}

	for {
		entries := s.recvQ.PopN(s.recvQ.Len())
		if len(entries) == 0 {
			break
		}
		s.process(ctx, entries)
	}

	if s.filt != nil {
		s.filt.MarkDrained()
	}
}

func (s *Server) process(ctx context.Context, entries []libque.ReceiveEntry) {
	for _, e := range entries {
		m, ok := s.svc.method(e.MethodIndex)
		if !ok {
			s.obs.Inc(libobs.UnknownRPC, s.tport.ID())
			continue
		}

		if _, err := m.Handle(ctx, e.Message); err != nil {
			s.obs.Inc(libobs.Errors, s.tport.ID())
		}
	}
}
