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

// Package status defines the small, wire-independent result enum every
// client/server/publisher invocation path returns to its caller.
package status

// Status is the application-visible outcome of an invocation. It is never
// put on the wire directly; it is derived from a frame's status_code field
// (see cmsg/frame) on the receiving side.
type Status int

const (
	// OK: the call completed and, for RPC, a reply was delivered.
	OK Status = iota
	// QUEUED: the call was accepted into a send/receive queue; no reply yet.
	QUEUED
	// DROPPED: the call was discarded by a filter policy.
	DROPPED
	// ERR: the call failed (transport, codec, or protocol error).
	ERR
	// MethodNotFound: the peer has no implementation for the requested method.
	MethodNotFound
	// CLOSED: the connection was closed (locally or by the peer) with no
	// reply pending.
	CLOSED
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case QUEUED:
		return "QUEUED"
	case DROPPED:
		return "DROPPED"
	case ERR:
		return "ERR"
	case MethodNotFound:
		return "METHOD_NOT_FOUND"
	case CLOSED:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}
