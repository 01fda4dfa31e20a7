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

// String returns the canonical lowercase name of the protocol, or "" if it
// is not a known value.
func (n NetworkProtocol) String() string {
	return networkNames[n]
}

// Code is an alias of String kept for symmetry with other enum types in the
// package family; protocol names are already lowercase.
func (n NetworkProtocol) Code() string {
	return n.String()
}

// Int returns the numeric value of the protocol.
func (n NetworkProtocol) Int() int {
	return int(n)
}

// Int64 returns the numeric value of the protocol as an int64.
func (n NetworkProtocol) Int64() int64 {
	return int64(n)
}

// Uint returns the numeric value of the protocol as a uint.
func (n NetworkProtocol) Uint() uint {
	return uint(n)
}

// Uint64 returns the numeric value of the protocol as a uint64.
func (n NetworkProtocol) Uint64() uint64 {
	return uint64(n)
}
