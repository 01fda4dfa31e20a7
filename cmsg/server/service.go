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

// Package server is the accepting side of the RPC core (§4.5): the
// accept/dispatch loop, the closure contract that maps a filter policy to
// a reply, the receive-queue drain, and a multi-transport server Group.
package server

import (
	"context"
)

// Handler implements one method's business logic. req is whatever
// NewRequest produced and the codec unpacked into; the returned resp is
// packed back into the METHOD_REPLY body, and a non-nil err always maps to
// StatusServiceFailed.
type Handler func(ctx context.Context, req interface{}) (resp interface{}, err error)

// Method is one entry of a Service's method table.
type Method struct {
	Name       string
	NewRequest func() interface{}
	Handle     Handler
}

// Service is the server-side method table: it satisfies cmsg/frame's
// ServiceDescriptor, and backs both dispatch (by index) and the filter
// table (by name, via MethodNames).
type Service struct {
	methods []Method
	byName  map[string]int
}

// NewService builds a Service from methods, in the order given; their
// position in that order is the method_index DecodeTLVs resolves.
func NewService(methods ...Method) *Service {
	s := &Service{
		methods: methods,
		byName:  make(map[string]int, len(methods)),
	}
	for i, m := range methods {
		s.byName[m.Name] = i
	}
	return s
}

// MethodIndex implements frame.ServiceDescriptor.
func (s *Service) MethodIndex(name string) (int, bool) {
	idx, ok := s.byName[name]
	return idx, ok
}

// MethodNames returns every registered method name, in registration order;
// the natural input to filter.New when building this service's table.
func (s *Service) MethodNames() []string {
	names := make([]string, len(s.methods))
	for i, m := range s.methods {
		names[i] = m.Name
	}
	return names
}

func (s *Service) method(idx int) (Method, bool) {
	if idx < 0 || idx >= len(s.methods) {
		return Method{}, false
	}
	return s.methods[idx], true
}
