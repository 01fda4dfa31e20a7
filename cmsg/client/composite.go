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
	"context"

	"golang.org/x/sync/errgroup"

	libsta "github.com/sabouaram/gocmsg/cmsg/status"
)

// Composite fans a single call out to every member client, running the
// send phase of each member concurrently and only then the recv phase,
// so a slow member's reply wait never serialises behind a faster member's
// send (§4.4: composite client, two-phase send-all/recv-all).
type Composite struct {
	members []*Client
}

// NewComposite builds a Composite over members. Every member must be a
// stream-backed (request/reply capable) Client; a one-way-only member
// belongs in a publisher's subscriber list, not here.
func NewComposite(members ...*Client) *Composite {
	return &Composite{members: members}
}

// CallResult is one member's outcome from Composite.Call.
type CallResult struct {
	Status libsta.Status
	Err    error
}

// Call packs req once per member (each member may use a different codec)
// and invokes method against every member, returning one CallResult per
// member in the same order as NewComposite's arguments.
func (c *Composite) Call(ctx context.Context, method string, req interface{}, newResp func() interface{}) []CallResult {
	results := make([]CallResult, len(c.members))

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range c.members {
		i, m := i, m
		g.Go(func() error {
			var resp interface{}
			if newResp != nil {
				resp = newResp()
			}
			st, err := m.Call(gctx, method, req, resp)
			results[i] = CallResult{Status: st, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// SendOneway invokes method one-way against every member concurrently,
// consulting each member's own filter table.
func (c *Composite) SendOneway(ctx context.Context, method string, req interface{}) []CallResult {
	results := make([]CallResult, len(c.members))

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range c.members {
		i, m := i, m
		g.Go(func() error {
			st, err := m.SendOneway(gctx, method, req)
			results[i] = CallResult{Status: st, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
