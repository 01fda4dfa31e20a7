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

package client

import (
	"bytes"
	"context"

	libfrm "github.com/sabouaram/gocmsg/cmsg/frame"
)

// SendEchoRequest writes an ECHO_REQ frame carrying payload verbatim as its
// body (no codec involved: echo round-trips raw bytes, §8 scenario 1).
func (c *Client) SendEchoRequest(ctx context.Context, payload []byte) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	out := libfrm.Frame{
		Header: libfrm.Header{MsgType: libfrm.EchoReq},
		Body:   payload,
	}

	return c.send(ctx, out.Encode())
}

// RecvEchoReply reads the next frame, requiring it to be an ECHO_REPLY
// whose body exactly matches want.
func (c *Client) RecvEchoReply(ctx context.Context, want []byte) error {
	raw, err := c.tport.ClientRecv(ctx)
	if err != nil {
		return err
	}

	h, err := libfrm.DecodeHeader(raw[:libfrm.HeaderSize])
	if err != nil {
		return err
	}

	if h.MsgType != libfrm.EchoReply {
		return libfrm.ErrBadMsgType()
	}

	body := raw[h.HeaderLength:]
	if !bytes.Equal(body, want) {
		return libfrm.ErrTruncated()
	}

	return nil
}
