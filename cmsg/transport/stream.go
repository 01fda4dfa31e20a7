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

package transport

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	libcry "github.com/sabouaram/gocmsg/cmsg/crypto"
	libfrm "github.com/sabouaram/gocmsg/cmsg/frame"
	libptc "github.com/sabouaram/gocmsg/network/protocol"
	libsck "github.com/sabouaram/gocmsg/socket"
	sckcli "github.com/sabouaram/gocmsg/socket/client"
	sckcfg "github.com/sabouaram/gocmsg/socket/config"
	scksrv "github.com/sabouaram/gocmsg/socket/server"
)

// stream backs both StreamRpc and StreamOneway: two network-aware
// transports built on socket/client and socket/server, differing only in
// whether a client is allowed to read a reply back (oneway forbids it).
type stream struct {
	base

	cliCfg sckcfg.Client
	srvCfg sckcfg.Server

	cliMu sync.Mutex
	cli   libsck.Client

	srv     libsck.Server
	accept  chan libsck.Context
	peers   sync.Map // peer id (string) -> libsck.Context
	peerSeq atomic.Int64
	oneway  bool
}

// NewStreamRpc builds the bidirectional stream transport a request/reply
// client and an accept/dispatch server run on top of, over any stream-
// capable socket/config network (tcp, tcp4, tcp6, unix).
func NewStreamRpc(cliCfg sckcfg.Client, srvCfg sckcfg.Server, crypto libcry.Hooks) Transport {
	return newStream(KindStreamRpc, false, cliCfg, srvCfg, crypto)
}

// NewStreamOneway builds the send-only counterpart of NewStreamRpc: clients
// may only send, servers may only receive, matching the notification-style
// traffic a pub/sub subscriber or a fire-and-forget method uses.
func NewStreamOneway(cliCfg sckcfg.Client, srvCfg sckcfg.Server, crypto libcry.Hooks) Transport {
	return newStream(KindStreamOneway, true, cliCfg, srvCfg, crypto)
}

func newStream(kind Kind, oneway bool, cliCfg sckcfg.Client, srvCfg sckcfg.Server, crypto libcry.Hooks) Transport {
	return &stream{
		base: base{
			id:     deriveID(cliCfg.Network, srvCfg.Network, cliCfg.Address, srvCfg.Address),
			kind:   kind,
			crypto: crypto,
		},
		cliCfg: cliCfg,
		srvCfg: srvCfg,
		accept: make(chan libsck.Context, 16),
		oneway: oneway,
	}
}

// deriveID reports ".unix" for any unix-family network so dashboards don't
// fragment on filesystem path; otherwise it is the configured address.
func deriveID(cliNet, srvNet libptc.NetworkProtocol, cliAddr, srvAddr string) string {
	if cliNet == libptc.NetworkUnix || cliNet == libptc.NetworkUnixGram ||
		srvNet == libptc.NetworkUnix || srvNet == libptc.NetworkUnixGram {
		return ".unix"
	}
	if cliAddr != "" {
		return cliAddr
	}
	return srvAddr
}

func (s *stream) Connect(ctx context.Context) error {
	s.cliMu.Lock()
	defer s.cliMu.Unlock()

	if s.cli != nil && s.cli.IsConnected() {
		return nil
	}

	cli, err := sckcli.New(s.cliCfg, nil)
	if err != nil {
		return err
	}
	if err = cli.Connect(ctx); err != nil {
		return err
	}

	s.cli = cli
	return nil
}

func (s *stream) Listen(ctx context.Context) error {
	handler := func(sctx libsck.Context) {
		select {
		case s.accept <- sctx:
		case <-ctx.Done():
			_ = sctx.Close()
			return
		}
		<-sctx.Done()
	}

	srv, err := scksrv.New(nil, handler, s.srvCfg)
	if err != nil {
		return err
	}

	s.srv = srv

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(ctx) }()

	t := time.NewTicker(time.Millisecond)
	defer t.Stop()

	for i := 0; i < 1000; i++ {
		if _, _, lerr := srv.Listener(); lerr == nil {
			return nil
		}
		select {
		case err = <-errCh:
			return err
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *stream) Accept(ctx context.Context) (string, error) {
	select {
	case sctx := <-s.accept:
		id := fmt.Sprintf("peer-%d", s.peerSeq.Add(1))
		s.peers.Store(id, sctx)
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *stream) peer(id string) (libsck.Context, error) {
	v, ok := s.peers.Load(id)
	if !ok {
		return nil, ErrUnknownPeer()
	}
	return v.(libsck.Context), nil
}

func (s *stream) ServerRecv(_ context.Context, peer string) ([]byte, error) {
	sctx, err := s.peer(peer)
	if err != nil {
		return nil, err
	}
	return readFrame(sctx)
}

func (s *stream) ClientRecv(_ context.Context) ([]byte, error) {
	if s.oneway {
		return nil, ErrOneway
	}

	s.cliMu.Lock()
	cli := s.cli
	s.cliMu.Unlock()

	if cli == nil {
		return nil, ErrNotConnected()
	}
	return readFrame(cli)
}

func (s *stream) ClientSend(_ context.Context, data []byte) error {
	s.cliMu.Lock()
	cli := s.cli
	s.cliMu.Unlock()

	if cli == nil {
		return ErrNotConnected()
	}
	return writeAll(cli, data)
}

func (s *stream) ServerSend(_ context.Context, peer string, data []byte) error {
	if s.oneway {
		return ErrOneway
	}
	sctx, err := s.peer(peer)
	if err != nil {
		return err
	}
	return writeAll(sctx, data)
}

func (s *stream) ClientClose() error {
	s.cliMu.Lock()
	cli := s.cli
	s.cli = nil
	s.cliMu.Unlock()

	if cli == nil {
		return nil
	}
	return cli.Close()
}

func (s *stream) ServerClose(peer string) error {
	sctx, err := s.peer(peer)
	if err != nil {
		return err
	}
	s.peers.Delete(peer)
	return sctx.Close()
}

func (s *stream) IsCongested() bool { return false }

var _ Transport = (*stream)(nil)

// rw is the minimal reader/writer both libsck.Client and libsck.Context
// satisfy, letting readFrame/writeAll serve client and server sides alike.
type rw interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

func readFrame(r rw) ([]byte, error) {
	hdr := make([]byte, libfrm.HeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}

	h, err := libfrm.DecodeHeader(hdr)
	if err != nil {
		return nil, err
	}

	total := libfrm.HeaderSize + int(h.HeaderLength) - libfrm.HeaderSize + int(h.MessageLength)

	// small frames are read into a stack-resident buffer and copied out once,
	// avoiding a heap allocation sized to worst-case message length for the
	// common small-request/reply case.
	if libfrm.Fits(total) {
		var small libfrm.SmallBuf
		copy(small[:], hdr)

		restLen := total - libfrm.HeaderSize
		if restLen > 0 {
			if _, err = io.ReadFull(r, small[libfrm.HeaderSize:total]); err != nil {
				return nil, err
			}
		}

		out := make([]byte, total)
		copy(out, small[:total])
		return out, nil
	}

	rest := make([]byte, total-libfrm.HeaderSize)
	if len(rest) > 0 {
		if _, err = io.ReadFull(r, rest); err != nil {
			return nil, err
		}
	}

	return append(hdr, rest...), nil
}

func writeAll(w rw, data []byte) error {
	n, err := w.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return ErrShortWrite()
	}
	return nil
}
