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
	"io"
	"sync"

	libcry "github.com/sabouaram/gocmsg/cmsg/crypto"
	libfrm "github.com/sabouaram/gocmsg/cmsg/frame"
)

// loopback is the in-process transport used by tests and by a process that
// wants to exercise its own server from its own client without a socket:
// two io.Pipe pairs carry client->server and server->client traffic.
type loopback struct {
	base

	c2s *io.PipeWriter
	s2c *io.PipeReader

	s2cW *io.PipeWriter
	c2sR *io.PipeReader

	acceptOnce sync.Once
	accepted   chan struct{}
}

// NewLoopback builds a paired client/server Transport connected by two
// io.Pipe instances. Accept must be called exactly once by the server side
// before ServerRecv/ServerSend are used.
func NewLoopback(id string, crypto libcry.Hooks) Transport {
	c2sR, c2sW := io.Pipe()
	s2cR, s2cW := io.Pipe()

	return &loopback{
		base: base{
			id:     id,
			kind:   KindLoopback,
			crypto: crypto,
		},
		c2s:      c2sW,
		s2c:      s2cR,
		s2cW:     s2cW,
		c2sR:     c2sR,
		accepted: make(chan struct{}),
	}
}

func (l *loopback) Connect(context.Context) error { return nil }

func (l *loopback) Listen(context.Context) error { return nil }

func (l *loopback) Accept(ctx context.Context) (string, error) {
	l.acceptOnce.Do(func() { close(l.accepted) })

	select {
	case <-l.accepted:
		return busPeer, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (l *loopback) ServerRecv(_ context.Context, peer string) ([]byte, error) {
	if peer != busPeer {
		return nil, ErrUnknownPeer()
	}
	return readPipeFrame(l.c2sR)
}

func (l *loopback) ClientRecv(context.Context) ([]byte, error) {
	return readPipeFrame(l.s2c)
}

func (l *loopback) ClientSend(_ context.Context, data []byte) error {
	return writePipeAll(l.c2s, data)
}

func (l *loopback) ServerSend(_ context.Context, peer string, data []byte) error {
	if peer != busPeer {
		return ErrUnknownPeer()
	}
	return writePipeAll(l.s2cW, data)
}

func (l *loopback) ClientClose() error {
	_ = l.c2s.Close()
	return l.s2c.Close()
}

func (l *loopback) ServerClose(string) error {
	_ = l.s2cW.Close()
	return l.c2sR.Close()
}

func (l *loopback) IsCongested() bool { return false }

var _ Transport = (*loopback)(nil)

func readPipeFrame(r io.Reader) ([]byte, error) {
	hdr := make([]byte, libfrm.HeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}

	h, err := libfrm.DecodeHeader(hdr)
	if err != nil {
		return nil, err
	}

	rest := make([]byte, int(h.HeaderLength)-libfrm.HeaderSize+int(h.MessageLength))
	if len(rest) > 0 {
		if _, err = io.ReadFull(r, rest); err != nil {
			return nil, err
		}
	}
	return append(hdr, rest...), nil
}

func writePipeAll(w io.Writer, data []byte) error {
	n, err := w.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return ErrShortWrite()
	}
	return nil
}
