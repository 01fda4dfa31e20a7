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

// Package pubsub implements the publish/subscribe layer (§4.6): a
// subscription registry keyed by transport identity and method name,
// subscribe/unsubscribe, and publish fan-out with per-subscriber filter
// consultation and eviction of subscribers whose transport has failed.
package pubsub

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	libcli "github.com/sabouaram/gocmsg/cmsg/client"
)

// TransportConfig identifies one subscriber's transport, decoded from a
// generic map (configuration file, RPC payload, ...) via mapstructure so a
// subscribe request can travel the wire as an opaque map and still resolve
// to a concrete transport identity on arrival.
type TransportConfig struct {
	Variant string `mapstructure:"variant"`
	Network string `mapstructure:"network"`
	Address string `mapstructure:"address"`
}

// DecodeTransportConfig decodes raw (typically a map[string]interface{}
// that arrived as a subscribe request's body) into a TransportConfig.
func DecodeTransportConfig(raw interface{}) (TransportConfig, error) {
	var cfg TransportConfig
	err := mapstructure.Decode(raw, &cfg)
	return cfg, err
}

// key is the tuple identity §4.6 keys a subscription by: a subscriber
// resubscribing with the same variant/network/address/method replaces its
// prior entry rather than duplicating it.
func (c TransportConfig) key(method string) string {
	return fmt.Sprintf("%s|%s|%s|%s", c.Variant, c.Network, c.Address, method)
}

// SubscriberEntry is one registered subscription: the transport identity it
// was made for, the method it subscribes to, and the one-way client used to
// reach it.
type SubscriberEntry struct {
	Config TransportConfig
	Method string

	client *libcli.Client
}

func (e *SubscriberEntry) transportID() string {
	return e.client.TransportID()
}
