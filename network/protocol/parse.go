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

import "strings"

// Parse converts a protocol name to a NetworkProtocol, case-insensitively.
// Surrounding whitespace and a single layer of quoting (double quotes,
// backticks, or backslash-escaped double quotes) is trimmed first. Unknown
// or empty input returns NetworkEmpty.
func Parse(s string) NetworkProtocol {
	s = strings.TrimSpace(s)
	s = trimQuotes(s)
	s = strings.TrimSpace(s)

	if p, ok := networkValues[strings.ToLower(s)]; ok {
		return p
	}
	return NetworkEmpty
}

// ParseBytes is the []byte equivalent of Parse.
func ParseBytes(b []byte) NetworkProtocol {
	return Parse(string(b))
}

// ParseInt64 converts a numeric protocol value to a NetworkProtocol. Out of
// range values return NetworkEmpty.
func ParseInt64(i int64) NetworkProtocol {
	if i < int64(NetworkEmpty) || i > int64(NetworkUnixGram) {
		return NetworkEmpty
	}
	return NetworkProtocol(i)
}

func trimQuotes(s string) string {
	for _, pair := range []struct{ l, r byte }{{'"', '"'}, {'`', '`'}} {
		if len(s) >= 2 && s[0] == pair.l && s[len(s)-1] == pair.r {
			return s[1 : len(s)-1]
		}
	}
	if len(s) >= 4 && strings.HasPrefix(s, `\"`) && strings.HasSuffix(s, `\"`) {
		return s[2 : len(s)-2]
	}
	return s
}
