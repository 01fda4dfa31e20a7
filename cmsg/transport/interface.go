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

// Package transport is the capability set the client and server core talk
// through (§4.2): a Transport never leaks a net.Conn, a NATS subscription,
// or any other concrete handle to its caller. Five variants are provided:
// StreamRpc and StreamOneway (built on socket/client and socket/server),
// DatagramBus (NATS-backed, connectionless, one-way only), Userdefined
// (caller-supplied closures), and Loopback (in-process, io.Pipe-backed).
package transport

import (
	"context"
	"errors"

	libcry "github.com/sabouaram/gocmsg/cmsg/crypto"
)

// Kind names the transport variant, used for log/metric context only; the
// core never branches on it.
type Kind string

const (
	KindStreamRpc    Kind = "stream_rpc"
	KindStreamOneway Kind = "stream_oneway"
	KindDatagramBus  Kind = "datagram_bus"
	KindUserdefined  Kind = "userdefined"
	KindLoopback     Kind = "loopback"
)

// ErrUserdefinedUnset is returned by every Userdefined capability whose
// backing closure was left nil.
var ErrUserdefinedUnset = errors.New("cmsg/transport: userdefined capability not set")

// ErrOneway is returned by Connect/ServerRecv/ClientRecv on a transport that
// only ever carries one-way traffic (DatagramBus, and any StreamOneway
// transport on its reply path).
var ErrOneway = errors.New("cmsg/transport: transport does not support replies")

// Transport is the capability set a client or server core drives. ID is
// stable for the lifetime of the process and is used verbatim as the
// tport_id metric/log label; Unix-domain transports report the literal
// ".unix" rather than their filesystem path so two sockets at different
// paths do not fragment a dashboard by cardinality.
type Transport interface {
	ID() string
	Kind() Kind

	// Connect dials the remote endpoint. Idempotent: a transport that is
	// already connected returns nil immediately.
	Connect(ctx context.Context) error

	// Listen starts accepting connections/subscriptions in the background.
	// It returns once listening has taken effect, not when it stops.
	Listen(ctx context.Context) error

	// Accept blocks until one peer has connected, returning an opaque peer
	// id used in subsequent ServerRecv/ServerSend/ServerClose calls.
	Accept(ctx context.Context) (peer string, err error)

	// ServerRecv reads the next framed message from peer.
	ServerRecv(ctx context.Context, peer string) ([]byte, error)

	// ClientRecv reads the next framed message on the client side.
	ClientRecv(ctx context.Context) ([]byte, error)

	// ClientSend writes a framed message from the client side.
	ClientSend(ctx context.Context, data []byte) error

	// ServerSend writes a framed message to peer.
	ServerSend(ctx context.Context, peer string, data []byte) error

	ClientClose() error
	ServerClose(peer string) error

	// IsCongested reports whether outbound traffic should be queued rather
	// than sent immediately (DatagramBus: subscription high-water mark;
	// stream transports: never).
	IsCongested() bool

	IpfreeBindEnable() bool
	SendCanBlockEnable() bool

	// CryptoHooks returns the transport's crypto hooks, or nil if none were
	// configured.
	CryptoHooks() libcry.Hooks
}

// base centralises the fields every concrete variant stores verbatim so a
// composing struct only has to implement the methods its variant actually
// customises.
type base struct {
	id           string
	kind         Kind
	ipfreeBind   bool
	sendCanBlock bool
	crypto       libcry.Hooks
}

func (b *base) ID() string                { return b.id }
func (b *base) Kind() Kind                { return b.kind }
func (b *base) IpfreeBindEnable() bool    { return b.ipfreeBind }
func (b *base) SendCanBlockEnable() bool  { return b.sendCanBlock }
func (b *base) CryptoHooks() libcry.Hooks { return b.crypto }
