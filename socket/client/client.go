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

// Package client dispatches a socket/config Client configuration to the
// concrete protocol package (tcp, udp, unix, unixgram) that implements it,
// so callers building a cmsg/transport client don't need to know which
// network family they were handed until runtime.
package client

import (
	libtls "github.com/sabouaram/gocmsg/certificates"
	libptc "github.com/sabouaram/gocmsg/network/protocol"
	libsck "github.com/sabouaram/gocmsg/socket"
	sckcfg "github.com/sabouaram/gocmsg/socket/config"

	scktcp "github.com/sabouaram/gocmsg/socket/client/tcp"
	sckudp "github.com/sabouaram/gocmsg/socket/client/udp"
	sckunx "github.com/sabouaram/gocmsg/socket/client/unix"
	sckugr "github.com/sabouaram/gocmsg/socket/client/unixgram"
)

// New validates cfg and builds the Client for cfg.Network, registering def
// as the TLS default inherited by cfg.TLS when TLS is enabled.
func New(cfg sckcfg.Client, def libtls.TLSConfig) (libsck.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Network {
	case libptc.NetworkTCP, libptc.NetworkTCP4, libptc.NetworkTCP6:
		cli, err := scktcp.New(cfg.Address)
		if err != nil {
			return nil, err
		}

		cfg.DefaultTLS(def)
		if enabled, tlsCfg, name := cfg.GetTLS(); enabled {
			if err = cli.SetTLS(true, tlsCfg, name); err != nil {
				return nil, err
			}
		}
		return cli, nil

	case libptc.NetworkUDP, libptc.NetworkUDP4, libptc.NetworkUDP6:
		return sckudp.New(cfg.Address)

	case libptc.NetworkUnix:
		return sckunx.New(cfg.Address), nil

	case libptc.NetworkUnixGram:
		return sckugr.New(cfg.Address), nil

	default:
		return nil, sckcfg.ErrInvalidProtocol
	}
}
