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

package frame

import (
	"encoding/binary"
)

// TLVType identifies the kind of value carried by a TLV extension.
type TLVType uint32

const (
	// TLVMethodName carries a UTF-8 method name, used to resolve
	// method_index on the receiver regardless of local descriptor ordering.
	TLVMethodName TLVType = 1
)

// maxMethodNameLen bounds the copy into the request-scoped name buffer;
// longer values are truncated, matching the C source's fixed name buffer.
const maxMethodNameLen = 128

// TLV is one decoded type-length-value extension.
type TLV struct {
	Type  TLVType
	Value []byte
}

// ServiceDescriptor resolves a method name to its local index. Implemented
// by the generated stub's method table; the core only ever reads it.
type ServiceDescriptor interface {
	MethodIndex(name string) (index int, ok bool)
}

// ServerRequest is what decode_tlvs produces: the raw TLVs walked plus, if a
// METHOD_NAME TLV was present and resolved, the local method_index.
type ServerRequest struct {
	MethodIndex    int
	MethodNameRecv string
	HasMethod      bool

	// AppOwnsCurrentMsg/AppOwnsAllMsgs let an implementation suppress the
	// server's automatic release of the unpacked message (see cmsg/server's
	// closure contract); the core never sets these, only reads them back.
	AppOwnsCurrentMsg bool
	AppOwnsAllMsgs    bool
}

// EncodeTLVMethod appends a METHOD_NAME TLV for name to buf and returns the
// number of bytes written (8 + len(name), truncated to maxMethodNameLen).
func EncodeTLVMethod(buf []byte, name string) []byte {
	if len(name) > maxMethodNameLen {
		name = name[:maxMethodNameLen]
	}

	v := []byte(name)
	tlv := make([]byte, 8+len(v))
	binary.BigEndian.PutUint32(tlv[0:4], uint32(TLVMethodName))
	binary.BigEndian.PutUint32(tlv[4:8], uint32(len(v)))
	copy(tlv[8:], v)

	return append(buf, tlv...)
}

// DecodeTLVs walks raw (the extraLen bytes following the fixed header),
// resolving any METHOD_NAME TLV against desc. Unknown TLV types are a fatal
// BadTlvType error; a value_length overrunning the remaining bytes is
// Truncated; bytes left after every TLV is consumed is TrailingBytes.
func DecodeTLVs(raw []byte, extraLen uint32, desc ServiceDescriptor) (ServerRequest, error) {
	var req ServerRequest

	if uint32(len(raw)) < extraLen {
		return req, ErrTruncated()
	}

	buf := raw[:extraLen]

	for len(buf) > 0 {
		if len(buf) < 8 {
			return req, ErrTruncated()
		}

		t := TLVType(binary.BigEndian.Uint32(buf[0:4]))
		l := binary.BigEndian.Uint32(buf[4:8])
		buf = buf[8:]

		if uint64(l) > uint64(len(buf)) {
			return req, ErrTruncated()
		}

		val := buf[:l]
		buf = buf[l:]

		switch t {
		case TLVMethodName:
			name := string(val)
			if len(name) > maxMethodNameLen {
				name = name[:maxMethodNameLen]
			}

			req.MethodNameRecv = name

			if desc != nil {
				if idx, ok := desc.MethodIndex(name); ok {
					req.MethodIndex = idx
					req.HasMethod = true
				} else {
					return req, ErrMethodNotFound()
				}
			}
		default:
			return req, ErrBadTlvType()
		}
	}

	if len(buf) != 0 {
		return req, ErrTrailingBytes()
	}

	return req, nil
}
