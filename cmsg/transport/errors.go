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
	liberr "github.com/sabouaram/gocmsg/errors"
)

// transport-specific codes sit at offset 40 in the shared rpc-core range so
// they never collide with cmsg/frame's or cmsg/filter's codes.
const (
	codeNotConnected liberr.CodeError = liberr.MinPkgCmsg + 40 + iota
	codeUnknownPeer
	codeShortWrite
	codeCongested
)

func init() {
	liberr.RegisterIdFctMessage(codeNotConnected, func(code liberr.CodeError) string {
		switch code {
		case codeNotConnected:
			return "transport: not connected"
		case codeUnknownPeer:
			return "transport: unknown peer"
		case codeShortWrite:
			return "transport: short write"
		case codeCongested:
			return "transport: congested, send refused"
		default:
			return liberr.NullMessage
		}
	})
}

// ErrNotConnected is returned by a client-side operation attempted before
// Connect has succeeded.
var ErrNotConnected = codeNotConnected.Error

// ErrUnknownPeer is returned by ServerRecv/ServerSend/ServerClose given a
// peer id Accept never produced, or one already closed.
var ErrUnknownPeer = codeUnknownPeer.Error

// ErrShortWrite is returned when fewer bytes reach the wire than were
// handed to Write without the underlying call itself reporting an error;
// per design, a short write is always treated as a fatal transport error,
// never retried in place.
var ErrShortWrite = codeShortWrite.Error

// ErrCongested is returned by a Send call on a transport whose
// IsCongested reports true and whose caller asked to fail fast rather than
// queue.
var ErrCongested = codeCongested.Error
