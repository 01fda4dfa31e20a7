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
	"time"

	libobs "github.com/sabouaram/gocmsg/cmsg/observer"
	libque "github.com/sabouaram/gocmsg/cmsg/queue"
	librun "github.com/sabouaram/gocmsg/runner/startStop"
)

// drainMaxRetries and drainBackoff bound how hard the drain loop tries to
// flush one batch before giving up on it (§4.4 send-queue drain): 10
// attempts, 200ms apart, a little under the 2s a caller typically waits on
// a single RPC before timing out.
const (
	drainMaxRetries = 10
	drainBackoff    = 200 * time.Millisecond
)

// StartDrain builds a restartable lifecycle (runner/startStop) that repeatedly
// waits on the send queue and flushes it through the client's transport.
// Call Start on the returned handle to begin draining in the background.
func (c *Client) StartDrain() librun.StartStop {
	return librun.New(c.runDrain, c.stopDrain)
}

func (c *Client) runDrain(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			c.sendQ.Wait(ctx)
			if ctx.Err() != nil {
				return
			}

			c.drainOnce(ctx)
		}
	}()
	return nil
}

func (c *Client) stopDrain(context.Context) error { return nil }

// drainOnce pops every queued entry and replays it, retrying a failing
// batch drainMaxRetries times with drainBackoff between attempts before
// giving up and purging whatever remains bound to this client's transport.
func (c *Client) drainOnce(ctx context.Context) {
	pending := c.sendQ.Pop()
	if len(pending) == 0 {
		return
	}

	var failed []libque.SendEntry

	for _, e := range pending {
		if e.TransportID != c.tport.ID() {
			continue
		}

		if err := c.flushWithRetry(ctx, e); err != nil {
			failed = append(failed, e)
		}
	}

	if len(failed) > 0 {
		c.sendQ.PurgeTransport(c.tport.ID())
		c.obs.Inc(libobs.QueueErrors, c.tport.ID())
	}
}

func (c *Client) flushWithRetry(ctx context.Context, e libque.SendEntry) error {
	var err error

	for attempt := 0; attempt < drainMaxRetries; attempt++ {
		if err = c.Connect(ctx); err == nil {
			if err = c.tport.ClientSend(ctx, e.Packed); err == nil {
				c.obs.Inc(libobs.RPC, c.tport.ID())
				return nil
			}
		}

		select {
		case <-time.After(drainBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
