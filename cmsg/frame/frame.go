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

// Frame is a typed view over a full wire message: header, any TLV
// extensions, and the packed body. No raw pointers cross package
// boundaries; Encode/Decode are the only places byte layout is handled.
type Frame struct {
	Header Header
	Method string // empty when no METHOD_NAME TLV is carried
	Body   []byte
}

// smallBufSize is the receive-side fixed buffer used to avoid a heap
// allocation for the common case of small requests/replies.
const smallBufSize = 512

// SmallBuf is a fixed-size array reused by the receive path; frames that
// fit are copied out of it into a right-sized slice only once handed to
// the application, frames that don't fall back to a heap-allocated slice.
type SmallBuf [smallBufSize]byte

// Fits reports whether n bytes fit in a SmallBuf.
func Fits(n int) bool {
	return n <= smallBufSize
}

// Encode renders f to a single contiguous buffer: header, METHOD_NAME TLV
// (if f.Method is non-empty), then body.
func (f Frame) Encode() []byte {
	var tlv []byte
	if f.Method != "" {
		tlv = EncodeTLVMethod(tlv, f.Method)
	}

	buf := EncodeHeader(f.Header.MsgType, uint32(len(tlv)), uint32(len(f.Body)), f.Header.StatusCode)
	buf = append(buf, tlv...)
	buf = append(buf, f.Body...)
	return buf
}

// DecodeBody splits raw (header already stripped, length
// header.HeaderLength-HeaderSize+header.MessageLength) into its TLV section
// and body, resolving the method against desc.
func DecodeBody(h Header, raw []byte, desc ServiceDescriptor) (Frame, ServerRequest, error) {
	extraLen := h.HeaderLength - HeaderSize

	req, err := DecodeTLVs(raw, extraLen, desc)
	if err != nil {
		return Frame{}, req, err
	}

	body := raw[extraLen:]
	if uint32(len(body)) < h.MessageLength {
		return Frame{}, req, ErrTruncated()
	}
	body = body[:h.MessageLength]

	return Frame{Header: h, Method: req.MethodNameRecv, Body: body}, req, nil
}
