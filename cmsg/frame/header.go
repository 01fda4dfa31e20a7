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

// Package frame implements the wire framing shared by every transport: a
// fixed 16-byte big-endian header, optional TLV extensions carrying the
// method name, and the small-buffer-optimised receive path.
package frame

import (
	"encoding/binary"

	liberr "github.com/sabouaram/gocmsg/errors"
)

// HeaderSize is the fixed header width in bytes, always present regardless
// of TLV extensions.
const HeaderSize = 16

// MsgType is the first 32-bit field of a frame header.
type MsgType uint32

const (
	// MethodReq is a client-to-server method invocation.
	MethodReq MsgType = iota + 1
	// EchoReq is a diagnostic round-trip request.
	EchoReq
	// EchoReply answers an EchoReq.
	EchoReply
	// MethodReply answers a MethodReq.
	MethodReply
	// ConnOpen is a connectionless handshake frame some transports send on
	// connect; servers accept and discard it on every transport.
	ConnOpen
)

func (t MsgType) known() bool {
	switch t {
	case MethodReq, EchoReq, EchoReply, MethodReply, ConnOpen:
		return true
	default:
		return false
	}
}

func (t MsgType) String() string {
	switch t {
	case MethodReq:
		return "METHOD_REQ"
	case EchoReq:
		return "ECHO_REQ"
	case EchoReply:
		return "ECHO_REPLY"
	case MethodReply:
		return "METHOD_REPLY"
	case ConnOpen:
		return "CONN_OPEN"
	default:
		return "UNKNOWN"
	}
}

// StatusCode is the frame header's fourth field, meaningful only on
// MethodReply frames.
type StatusCode uint32

const (
	StatusUnset StatusCode = iota
	StatusSuccess
	StatusServiceFailed
	StatusTooManyPending
	StatusServiceQueued
	StatusServiceDropped
	StatusServerConnReset
	StatusMethodNotFound
	StatusConnectionClosed
)

func (s StatusCode) String() string {
	switch s {
	case StatusUnset:
		return "UNSET"
	case StatusSuccess:
		return "SUCCESS"
	case StatusServiceFailed:
		return "SERVICE_FAILED"
	case StatusTooManyPending:
		return "TOO_MANY_PENDING"
	case StatusServiceQueued:
		return "SERVICE_QUEUED"
	case StatusServiceDropped:
		return "SERVICE_DROPPED"
	case StatusServerConnReset:
		return "SERVER_CONNRESET"
	case StatusMethodNotFound:
		return "SERVER_METHOD_NOT_FOUND"
	case StatusConnectionClosed:
		return "CONNECTION_CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Header is the decoded, host-order view of the fixed 16-byte frame header.
type Header struct {
	MsgType       MsgType
	HeaderLength  uint32
	MessageLength uint32
	StatusCode    StatusCode
}

// rpc-core error codes occupy 9000-9399 (errors.MinPkgCmsg), a range the
// rest of the package tree does not otherwise use.
const (
	codeBadMsgType    liberr.CodeError = liberr.MinPkgCmsg + iota // 9000
	codeBadTlvType                                                // 9001
	codeTrailingBytes                                             // 9002
	codeTruncated                                                 // 9003
	codeMethodNotFound
)

func init() {
	liberr.RegisterIdFctMessage(codeBadMsgType, func(code liberr.CodeError) string {
		switch code {
		case codeBadMsgType:
			return "frame: unknown msg_type"
		case codeBadTlvType:
			return "frame: unknown TLV type"
		case codeTrailingBytes:
			return "frame: trailing bytes after TLV walk"
		case codeTruncated:
			return "frame: truncated frame"
		case codeMethodNotFound:
			return "frame: method not found"
		default:
			return liberr.NullMessage
		}
	})
}

var (
	// ErrBadMsgType: decode_header saw an msg_type outside the five known values.
	ErrBadMsgType = codeBadMsgType.Error
	// ErrBadTlvType: decode_tlvs saw a TLV type it does not recognise.
	ErrBadTlvType = codeBadTlvType.Error
	// ErrTrailingBytes: bytes remained after every TLV was consumed.
	ErrTrailingBytes = codeTrailingBytes.Error
	// ErrTruncated: fewer than HeaderSize bytes, or a TLV value_length that
	// overruns the remaining buffer.
	ErrTruncated = codeTruncated.Error
	// ErrMethodNotFound: METHOD_NAME TLV did not resolve against the local
	// service descriptor; distinct from frame corruption.
	ErrMethodNotFound = codeMethodNotFound.Error
)

// IsMethodNotFound reports whether err is (or wraps) ErrMethodNotFound, the
// one DecodeBody failure a server dispatch loop must answer with a
// METHOD_NOT_FOUND reply instead of closing the connection.
func IsMethodNotFound(err error) bool {
	return liberr.IsCode(err, codeMethodNotFound)
}

// EncodeHeader renders h's fields into a fresh 16-byte big-endian buffer.
// extraHeaderBytes is the size of the TLV section that follows; headerLength
// is always extraHeaderBytes+HeaderSize.
func EncodeHeader(msgType MsgType, extraHeaderBytes, bodyBytes uint32, status StatusCode) []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(msgType))
	binary.BigEndian.PutUint32(buf[4:8], HeaderSize+extraHeaderBytes)
	binary.BigEndian.PutUint32(buf[8:12], bodyBytes)
	binary.BigEndian.PutUint32(buf[12:16], uint32(status))
	return buf
}

// DecodeHeader parses a raw 16-byte big-endian buffer into a Header.
func DecodeHeader(raw []byte) (Header, error) {
	if len(raw) < HeaderSize {
		return Header{}, ErrTruncated()
	}

	h := Header{
		MsgType:       MsgType(binary.BigEndian.Uint32(raw[0:4])),
		HeaderLength:  binary.BigEndian.Uint32(raw[4:8]),
		MessageLength: binary.BigEndian.Uint32(raw[8:12]),
		StatusCode:    StatusCode(binary.BigEndian.Uint32(raw[12:16])),
	}

	if !h.MsgType.known() {
		return Header{}, ErrBadMsgType()
	}

	if h.HeaderLength < HeaderSize {
		return Header{}, ErrTruncated()
	}

	return h, nil
}
