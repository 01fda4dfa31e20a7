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

	libfil "github.com/sabouaram/gocmsg/cmsg/filter"
	libfrm "github.com/sabouaram/gocmsg/cmsg/frame"
	libobs "github.com/sabouaram/gocmsg/cmsg/observer"
	libque "github.com/sabouaram/gocmsg/cmsg/queue"
	libtpt "github.com/sabouaram/gocmsg/cmsg/transport"
)

// dispatch decodes raw's header and routes by msg_type. A CONN_OPEN frame
// is accepted and discarded on every transport (§9: the connectionless
// handshake asymmetry). MethodReply/EchoReply arriving at a server is
// always a protocol violation: no server ever sends a request of its own.
func (s *Server) dispatch(ctx context.Context, peer string, raw []byte) error {
	h, err := libfrm.DecodeHeader(raw[:libfrm.HeaderSize])
	if err != nil {
		return err
	}

	switch h.MsgType {
	case libfrm.ConnOpen:
		return nil

	case libfrm.EchoReq:
		return s.handleEcho(ctx, peer, h, raw)

	case libfrm.MethodReq:
		return s.handleMethod(ctx, peer, h, raw)

	default:
		s.obs.Inc(libobs.UnknownRPC, s.tport.ID())
		return libfrm.ErrBadMsgType()
	}
}

func (s *Server) handleEcho(ctx context.Context, peer string, h libfrm.Header, raw []byte) error {
	body := raw[h.HeaderLength:]

	out := libfrm.Frame{
		Header: libfrm.Header{MsgType: libfrm.EchoReply},
		Body:   body,
	}
	return s.reply(ctx, peer, out)
}

// handleMethod implements the closure contract (§4.5): OK_TO_INVOKE calls
// the method and replies with its outcome; QUEUED stores the unpacked
// message in the receive queue and replies immediately; DROPPED replies
// without ever reaching the method; an unresolved method name replies
// METHOD_NOT_FOUND instead of closing the connection.
func (s *Server) handleMethod(ctx context.Context, peer string, h libfrm.Header, raw []byte) error {
	f, req, err := libfrm.DecodeBody(h, raw[libfrm.HeaderSize:], s.svc)
	if err != nil {
		if libfrm.IsMethodNotFound(err) {
			return s.replyStatus(ctx, peer, libfrm.StatusMethodNotFound, nil)
		}
		return err
	}

	pol := libfil.PROCESS
	if s.filt != nil {
		pol = s.filt.Get(f.Method)
	}

	switch pol {
	case libfil.ERROR:
		return s.replyStatus(ctx, peer, libfrm.StatusMethodNotFound, nil)

	case libfil.DROP:
		s.obs.Inc(libobs.MessagesDropped, s.tport.ID())
		return s.replyStatus(ctx, peer, libfrm.StatusServiceDropped, nil)

	case libfil.QUEUE:
		return s.enqueue(ctx, peer, req, f)

	default: // PROCESS: OK_TO_INVOKE
		return s.invoke(ctx, peer, req, f)
	}
}

func (s *Server) enqueue(ctx context.Context, peer string, req libfrm.ServerRequest, f libfrm.Frame) error {
	m, ok := s.svc.method(req.MethodIndex)
	if !ok {
		return s.replyStatus(ctx, peer, libfrm.StatusMethodNotFound, nil)
	}

	var msg interface{}
	if m.NewRequest != nil {
		msg = m.NewRequest()
		if err := s.codec.Unpack(f.Body, msg); err != nil {
			s.obs.Inc(libobs.PackErrors, s.tport.ID())
			return s.replyStatus(ctx, peer, libfrm.StatusServiceFailed, nil)
		}
	}

	if s.recvQ != nil {
		s.recvQ.Push(libque.ReceiveEntry{MethodIndex: req.MethodIndex, Message: msg})
	}
	s.obs.Inc(libobs.MessagesQueued, s.tport.ID())

	return s.replyStatus(ctx, peer, libfrm.StatusServiceQueued, nil)
}

func (s *Server) invoke(ctx context.Context, peer string, req libfrm.ServerRequest, f libfrm.Frame) error {
	m, ok := s.svc.method(req.MethodIndex)
	if !ok {
		return s.replyStatus(ctx, peer, libfrm.StatusMethodNotFound, nil)
	}

	var reqMsg interface{}
	if m.NewRequest != nil {
		reqMsg = m.NewRequest()
		if err := s.codec.Unpack(f.Body, reqMsg); err != nil {
			s.obs.Inc(libobs.PackErrors, s.tport.ID())
			return s.replyStatus(ctx, peer, libfrm.StatusServiceFailed, nil)
		}
	}

	resp, err := m.Handle(ctx, reqMsg)
	if err != nil {
		s.obs.Inc(libobs.Errors, s.tport.ID())
		return s.replyStatus(ctx, peer, libfrm.StatusServiceFailed, nil)
	}

	var body []byte
	if resp != nil {
		if body, err = s.codec.Pack(resp); err != nil {
			s.obs.Inc(libobs.PackErrors, s.tport.ID())
			return s.replyStatus(ctx, peer, libfrm.StatusServiceFailed, nil)
		}
	}

	return s.replyStatus(ctx, peer, libfrm.StatusSuccess, body)
}

func (s *Server) replyStatus(ctx context.Context, peer string, code libfrm.StatusCode, body []byte) error {
	out := libfrm.Frame{
		Header: libfrm.Header{MsgType: libfrm.MethodReply, StatusCode: code},
		Body:   body,
	}
	return s.reply(ctx, peer, out)
}

// reply sends out to peer, swallowing ErrOneway: a StreamOneway or
// DatagramBus server has nothing to reply on, and silently discarding the
// reply there is the correct behaviour, not an error.
func (s *Server) reply(ctx context.Context, peer string, out libfrm.Frame) error {
	err := s.tport.ServerSend(ctx, peer, out.Encode())
	if err == libtpt.ErrOneway {
		return nil
	}
	if err != nil {
		s.obs.Inc(libobs.SendErrors, s.tport.ID())
	}
	return err
}
