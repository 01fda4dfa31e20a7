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

package server

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Group runs several Server instances (typically one per transport
// variant a single service is exposed over) side by side, so a caller
// manages one lifecycle instead of one per listening transport.
type Group struct {
	servers []*Server
}

// NewGroup builds a Group over servers.
func NewGroup(servers ...*Server) *Group {
	return &Group{servers: servers}
}

// Serve runs every member's Serve concurrently, returning the first
// non-context-cancellation error any member produces and cancelling the
// rest via ctx.
func (g *Group) Serve(ctx context.Context) error {
	eg, gctx := errgroup.WithContext(ctx)

	for _, srv := range g.servers {
		srv := srv
		eg.Go(func() error {
			return srv.Serve(gctx)
		})
	}

	return eg.Wait()
}

// ProcessAll drains every member's receive queue.
func (g *Group) ProcessAll(ctx context.Context) {
	for _, srv := range g.servers {
		srv.ProcessAll(ctx)
	}
}
