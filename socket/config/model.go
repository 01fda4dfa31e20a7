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

// Package config describes the client and server connection parameters
// consumed by the socket/client and socket/server protocol packages, and by
// the cmsg/transport variants built on top of them.
package config

import (
	"time"

	libtls "github.com/sabouaram/gocmsg/certificates"
	libprm "github.com/sabouaram/gocmsg/file/perm"
	libptc "github.com/sabouaram/gocmsg/network/protocol"
)

// MaxGID is the largest Unix group id accepted by GroupPerm.
const MaxGID = 32767

// ClientTLS carries the TLS parameters of a Client configuration.
type ClientTLS struct {
	Enabled    bool          `mapstructure:"enabled" json:"enabled" yaml:"enabled" toml:"enabled"`
	Config     libtls.Config `mapstructure:"config" json:"config" yaml:"config" toml:"config"`
	ServerName string        `mapstructure:"serverName" json:"serverName" yaml:"serverName" toml:"serverName"`

	def libtls.TLSConfig
}

// ServerTLS carries the TLS parameters of a Server configuration.
type ServerTLS struct {
	Enabled bool          `mapstructure:"enabled" json:"enabled" yaml:"enabled" toml:"enabled"`
	Config  libtls.Config `mapstructure:"config" json:"config" yaml:"config" toml:"config"`

	def libtls.TLSConfig
}

// Client configures one outgoing connection: the remote network/address pair
// and, for stream protocols, an optional TLS layer.
type Client struct {
	Network libptc.NetworkProtocol `mapstructure:"network" json:"network" yaml:"network" toml:"network"`
	Address string                 `mapstructure:"address" json:"address" yaml:"address" toml:"address"`
	TLS     ClientTLS              `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`
}

// Server configures one listening endpoint: the bound network/address pair,
// the Unix socket file ownership to apply once the listener is created, the
// idle-connection timeout, and an optional TLS layer.
type Server struct {
	Network        libptc.NetworkProtocol `mapstructure:"network" json:"network" yaml:"network" toml:"network"`
	Address        string                 `mapstructure:"address" json:"address" yaml:"address" toml:"address"`
	ConIdleTimeout time.Duration          `mapstructure:"conIdleTimeout" json:"conIdleTimeout" yaml:"conIdleTimeout" toml:"conIdleTimeout"`
	PermFile       libprm.Perm            `mapstructure:"permFile" json:"permFile" yaml:"permFile" toml:"permFile"`
	GroupPerm      int32                  `mapstructure:"groupPerm" json:"groupPerm" yaml:"groupPerm" toml:"groupPerm"`
	TLS            ServerTLS              `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`
}

// DefaultTLS registers the configuration inherited by GetTLS whenever the
// caller does not set every field explicitly (certificate defaults, cipher
// suite list, ...).
func (c *Client) DefaultTLS(def libtls.TLSConfig) {
	c.TLS.def = def
}

// GetTLS reports whether TLS is enabled and, if so, builds the effective
// TLSConfig (merged with the registered default) together with the server
// name to verify against.
func (c *Client) GetTLS() (bool, libtls.TLSConfig, string) {
	if !c.TLS.Enabled {
		return false, nil, ""
	}

	cfg := c.TLS.Config
	if c.TLS.def != nil {
		return true, cfg.NewFrom(c.TLS.def), c.TLS.ServerName
	}
	return true, cfg.New(), c.TLS.ServerName
}

// DefaultTLS registers the configuration inherited by GetTLS whenever the
// caller does not set every field explicitly.
func (s *Server) DefaultTLS(def libtls.TLSConfig) {
	s.TLS.def = def
}

// GetTLS reports whether TLS is enabled and, if so, builds the effective
// TLSConfig merged with the registered default.
func (s *Server) GetTLS() (bool, libtls.TLSConfig) {
	if !s.TLS.Enabled {
		return false, nil
	}

	cfg := s.TLS.Config
	if s.TLS.def != nil {
		return true, cfg.NewFrom(s.TLS.def)
	}
	return true, cfg.New()
}
