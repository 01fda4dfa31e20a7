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
 */

package protocol

import (
	"github.com/fxamacker/cbor/v2"
)

// MarshalText implements encoding.TextMarshaler.
func (n NetworkProtocol) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *NetworkProtocol) UnmarshalText(text []byte) error {
	*n = ParseBytes(text)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n NetworkProtocol) MarshalJSON() ([]byte, error) {
	s := n.String()
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	out = append(out, s...)
	out = append(out, '"')
	return out, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NetworkProtocol) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	*n = Parse(s)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (n NetworkProtocol) MarshalYAML() (interface{}, error) {
	return n.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *NetworkProtocol) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*n = Parse(s)
	return nil
}

// MarshalTOML implements the toml.Marshaler contract used by pelletier/go-toml.
func (n NetworkProtocol) MarshalTOML() ([]byte, error) {
	return []byte(`"` + n.String() + `"`), nil
}

// UnmarshalTOML implements the toml.Unmarshaler contract used by pelletier/go-toml.
func (n *NetworkProtocol) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		*n = Parse(v)
	case []byte:
		*n = ParseBytes(v)
	default:
		*n = NetworkEmpty
	}
	return nil
}

// MarshalCBOR implements cbor.Marshaler.
func (n NetworkProtocol) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(n.String())
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (n *NetworkProtocol) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return err
	}
	*n = Parse(s)
	return nil
}
