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

	libcry "github.com/sabouaram/gocmsg/cmsg/crypto"
)

// Userdefined adapters. Every field is optional; a call through a nil field
// returns ErrUserdefinedUnset rather than panicking, so a caller exercising
// only half the capability set (e.g. a send-only harness) need not stub the
// other half.
type Userdefined struct {
	base

	FuncConnect     func(ctx context.Context) error
	FuncListen      func(ctx context.Context) error
	FuncAccept      func(ctx context.Context) (string, error)
	FuncServerRecv  func(ctx context.Context, peer string) ([]byte, error)
	FuncClientRecv  func(ctx context.Context) ([]byte, error)
	FuncClientSend  func(ctx context.Context, data []byte) error
	FuncServerSend  func(ctx context.Context, peer string, data []byte) error
	FuncClientClose func() error
	FuncServerClose func(peer string) error
	FuncCongested   func() bool
}

// NewUserdefined builds a Userdefined transport with the given stable id.
// Set its Func* fields before use; a nil field fails closed.
func NewUserdefined(id string, crypto libcry.Hooks) *Userdefined {
	return &Userdefined{
		base: base{
			id:     id,
			kind:   KindUserdefined,
			crypto: crypto,
		},
	}
}

func (u *Userdefined) Connect(ctx context.Context) error {
	if u.FuncConnect == nil {
		return ErrUserdefinedUnset
	}
	return u.FuncConnect(ctx)
}

func (u *Userdefined) Listen(ctx context.Context) error {
	if u.FuncListen == nil {
		return ErrUserdefinedUnset
	}
	return u.FuncListen(ctx)
}

func (u *Userdefined) Accept(ctx context.Context) (string, error) {
	if u.FuncAccept == nil {
		return "", ErrUserdefinedUnset
	}
	return u.FuncAccept(ctx)
}

func (u *Userdefined) ServerRecv(ctx context.Context, peer string) ([]byte, error) {
	if u.FuncServerRecv == nil {
		return nil, ErrUserdefinedUnset
	}
	return u.FuncServerRecv(ctx, peer)
}

func (u *Userdefined) ClientRecv(ctx context.Context) ([]byte, error) {
	if u.FuncClientRecv == nil {
		return nil, ErrUserdefinedUnset
	}
	return u.FuncClientRecv(ctx)
}

func (u *Userdefined) ClientSend(ctx context.Context, data []byte) error {
	if u.FuncClientSend == nil {
		return ErrUserdefinedUnset
	}
	return u.FuncClientSend(ctx, data)
}

func (u *Userdefined) ServerSend(ctx context.Context, peer string, data []byte) error {
	if u.FuncServerSend == nil {
		return ErrUserdefinedUnset
	}
	return u.FuncServerSend(ctx, peer, data)
}

func (u *Userdefined) ClientClose() error {
	if u.FuncClientClose == nil {
		return ErrUserdefinedUnset
	}
	return u.FuncClientClose()
}

func (u *Userdefined) ServerClose(peer string) error {
	if u.FuncServerClose == nil {
		return ErrUserdefinedUnset
	}
	return u.FuncServerClose(peer)
}

func (u *Userdefined) IsCongested() bool {
	if u.FuncCongested == nil {
		return false
	}
	return u.FuncCongested()
}

var _ Transport = (*Userdefined)(nil)
