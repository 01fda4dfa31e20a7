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
	"fmt"
	"reflect"
)

// ViperDecoderHook returns a mapstructure-compatible DecodeHookFunc that
// converts strings or integers into a NetworkProtocol when decoding a
// viper-backed configuration struct.
func ViperDecoderHook() func(reflect.Type, reflect.Type, interface{}) (interface{}, error) {
	var target NetworkProtocol

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(target) {
			return data, nil
		}

		switch from.Kind() {
		case reflect.String:
			if s, ok := data.(string); ok {
				return Parse(s), nil
			}
			return data, nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			v := reflect.ValueOf(data)
			var i int64
			if from.Kind() == reflect.Uint || from.Kind() == reflect.Uint8 || from.Kind() == reflect.Uint16 ||
				from.Kind() == reflect.Uint32 || from.Kind() == reflect.Uint64 {
				i = int64(v.Uint())
			} else {
				i = v.Int()
			}

			p := ParseInt64(i)
			if p == NetworkEmpty && i != int64(NetworkEmpty) {
				return nil, fmt.Errorf("protocol: invalid value %d for NetworkProtocol", i)
			}
			return p, nil
		default:
			return data, nil
		}
	}
}
