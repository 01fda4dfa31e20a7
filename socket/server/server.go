/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package server dispatches a socket/config Server configuration to the
// concrete protocol package (tcp, udp, unix, unixgram) that implements it,
// so callers building a cmsg/transport server don't need to know which
// network family they were handed until runtime.
package server

import (
	libptc "github.com/sabouaram/gocmsg/network/protocol"
	libsck "github.com/sabouaram/gocmsg/socket"
	sckcfg "github.com/sabouaram/gocmsg/socket/config"

	scktcp "github.com/sabouaram/gocmsg/socket/server/tcp"
	sckudp "github.com/sabouaram/gocmsg/socket/server/udp"
	sckunx "github.com/sabouaram/gocmsg/socket/server/unix"
	sckugr "github.com/sabouaram/gocmsg/socket/server/unixgram"
)

// New validates cfg and builds the Server for cfg.Network. upd, when
// non-nil, customises each accepted/created net.Conn before it is wrapped
// into a Context and handed to handler. TLS, when cfg.TLS.Enabled, uses
// whatever default the caller registered on cfg via cfg.DefaultTLS before
// calling New.
func New(upd libsck.UpdateConn, handler libsck.HandlerFunc, cfg sckcfg.Server) (libsck.Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Network {
	case libptc.NetworkTCP, libptc.NetworkTCP4, libptc.NetworkTCP6:
		srv, err := scktcp.New(upd, handler, cfg)
		if err != nil {
			return nil, err
		}

		if enabled, tlsCfg := cfg.GetTLS(); enabled {
			if err = srv.SetTLS(true, tlsCfg); err != nil {
				return nil, err
			}
		}
		return srv, nil

	case libptc.NetworkUDP, libptc.NetworkUDP4, libptc.NetworkUDP6:
		return sckudp.New(upd, handler, cfg)

	case libptc.NetworkUnix:
		return sckunx.New(upd, handler, cfg)

	case libptc.NetworkUnixGram:
		return sckugr.New(upd, handler, cfg)

	default:
		return nil, sckcfg.ErrInvalidProtocol
	}
}
