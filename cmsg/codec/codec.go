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

// Package codec is the opaque pack(msg) -> bytes / unpack(bytes) -> msg
// boundary the core treats the serialization format through (§1 Scope: the
// concrete wire codec is an external collaborator). A default, ready-to-run
// implementation is provided over ugorji/go/codec's binary handle; callers
// may substitute their own Codec.
package codec

import (
	gocodec "github.com/ugorji/go/codec"
)

// Codec packs/unpacks method bodies. The core never inspects the bytes it
// produces or consumes.
type Codec interface {
	Pack(msg interface{}) ([]byte, error)
	Unpack(data []byte, out interface{}) error
}

// binc is the default Codec: ugorji/go/codec's compact, schema-tolerant
// binary handle, a reasonable stand-in for the protobuf-style codec the
// original design treats as opaque.
type binc struct {
	h *gocodec.BincHandle
}

// Default builds the ugorji/go/codec-backed Codec used when a caller does
// not supply its own.
func Default() Codec {
	h := &gocodec.BincHandle{}
	return &binc{h: h}
}

func (c *binc) Pack(msg interface{}) ([]byte, error) {
	var buf []byte
	enc := gocodec.NewEncoderBytes(&buf, c.h)
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *binc) Unpack(data []byte, out interface{}) error {
	dec := gocodec.NewDecoderBytes(data, c.h)
	return dec.Decode(out)
}

var _ Codec = (*binc)(nil)
