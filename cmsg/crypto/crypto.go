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

// Package crypto defines the transport-level encrypt/decrypt hook points
// (§4.2) and a concrete AES-256-GCM implementation of them, adapted from the
// kept encoding/aes package. The core only ever calls through the Hooks
// interface; it never imports a cipher package directly.
package crypto

// Hooks are the optional per-transport crypto hook points. When present,
// server-side sends run Encrypt and ServerSend ships the ciphertext while
// reporting the plaintext length to the caller; Close runs on every
// accepted-socket close.
type Hooks interface {
	Encrypt(plaintext []byte) (ciphertext []byte, err error)
	Decrypt(ciphertext []byte) (plaintext []byte, err error)
	Accept() error
	Connect() error
	Close() error
}

// Preamble is the 8-byte magic/length header produced ahead of every
// crypto-wrapped server payload (§6 External interfaces): not part of the
// frame codec, consumed only by the crypto hooks themselves.
type Preamble struct {
	Magic  uint32
	Length uint32
}

// PreambleMagic is Preamble.Magic's fixed value.
const PreambleMagic uint32 = 0xa5a50001
