/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

package config

import (
	"errors"
	"net"
	"runtime"

	libptc "github.com/sabouaram/gocmsg/network/protocol"
)

// ErrInvalidProtocol is returned when Network names a protocol the socket
// package does not support, or one unavailable on the running platform.
var ErrInvalidProtocol = errors.New("config: invalid protocol")

// ErrInvalidGroup is returned when GroupPerm falls outside [-1, MaxGID].
var ErrInvalidGroup = errors.New("config: invalid unix group")

// ErrInvalidTLSConfig is returned when TLS is enabled on a protocol that
// cannot carry it.
var ErrInvalidTLSConfig = errors.New("config: invalid TLS config")

func resolveAddress(n libptc.NetworkProtocol, address string) error {
	switch n {
	case libptc.NetworkTCP, libptc.NetworkTCP4, libptc.NetworkTCP6:
		_, err := net.ResolveTCPAddr(n.String(), address)
		return err
	case libptc.NetworkUDP, libptc.NetworkUDP4, libptc.NetworkUDP6:
		_, err := net.ResolveUDPAddr(n.String(), address)
		return err
	case libptc.NetworkUnix, libptc.NetworkUnixGram:
		_, err := net.ResolveUnixAddr(n.String(), address)
		return err
	default:
		return ErrInvalidProtocol
	}
}

func validateProtocol(n libptc.NetworkProtocol) error {
	switch n {
	case libptc.NetworkTCP, libptc.NetworkTCP4, libptc.NetworkTCP6,
		libptc.NetworkUDP, libptc.NetworkUDP4, libptc.NetworkUDP6:
		return nil
	case libptc.NetworkUnix, libptc.NetworkUnixGram:
		if runtime.GOOS == "windows" {
			return ErrInvalidProtocol
		}
		return nil
	default:
		return ErrInvalidProtocol
	}
}

// Validate checks the protocol, address and TLS parameters of the client
// configuration.
func (c *Client) Validate() error {
	if err := validateProtocol(c.Network); err != nil {
		return err
	}

	if c.TLS.Enabled && !(c.Network == libptc.NetworkTCP || c.Network == libptc.NetworkTCP4 || c.Network == libptc.NetworkTCP6) {
		return ErrInvalidTLSConfig
	}

	return resolveAddress(c.Network, c.Address)
}

// Validate checks the protocol, address, Unix socket ownership and TLS
// parameters of the server configuration.
func (s *Server) Validate() error {
	if err := validateProtocol(s.Network); err != nil {
		return err
	}

	if s.GroupPerm < -1 || s.GroupPerm > MaxGID {
		return ErrInvalidGroup
	}

	if s.TLS.Enabled && !(s.Network == libptc.NetworkTCP || s.Network == libptc.NetworkTCP4 || s.Network == libptc.NetworkTCP6) {
		return ErrInvalidTLSConfig
	}

	return resolveAddress(s.Network, s.Address)
}
