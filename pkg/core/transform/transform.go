// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package transform implements Chain, a deferred elementwise transformation of WideNum values.
//
// A Chain is an immutable, persistent list of pure functions applied in order (oldest first) when values are
// read. Appending to a Chain returns a new Chain sharing all the previous links, so views derived from the same
// tensor constant share their common transformation prefix.
package transform

import "github.com/gomlx/lazyconst/pkg/core/widenum"

// Func is a pure elementwise function on WideNum values.
type Func func(widenum.WideNum) widenum.WideNum

// Chain of Func applied in order. The zero value is the identity transformation.
type Chain struct {
	last *link
}

type link struct {
	prev   *link
	fn     Func
	length int
}

// Identity returns the empty Chain. Same as Chain{}.
func Identity() Chain { return Chain{} }

// Of returns a Chain applying the given functions in order.
func Of(fns ...Func) Chain {
	var c Chain
	for _, fn := range fns {
		c = c.Then(fn)
	}
	return c
}

// IsIdentity returns whether the chain has no functions.
func (c Chain) IsIdentity() bool { return c.last == nil }

// Len returns the number of functions in the chain.
func (c Chain) Len() int {
	if c.last == nil {
		return 0
	}
	return c.last.length
}

// Then returns a new chain that applies c and then fn. A nil fn returns c unchanged.
func (c Chain) Then(fn Func) Chain {
	if fn == nil {
		return c
	}
	return Chain{last: &link{prev: c.last, fn: fn, length: c.Len() + 1}}
}

// Compose returns a new chain that applies c and then next.
func (c Chain) Compose(next Chain) Chain {
	if next.IsIdentity() {
		return c
	}
	if c.IsIdentity() {
		return next
	}
	for _, fn := range next.funcs() {
		c = c.Then(fn)
	}
	return c
}

// funcs returns the functions of the chain, oldest first.
func (c Chain) funcs() []Func {
	fns := make([]Func, c.Len())
	for l := c.last; l != nil; l = l.prev {
		fns[l.length-1] = l.fn
	}
	return fns
}

// Apply the chain to one value.
func (c Chain) Apply(n widenum.WideNum) widenum.WideNum {
	if c.last == nil {
		return n
	}
	return c.last.apply(n)
}

func (l *link) apply(n widenum.WideNum) widenum.WideNum {
	if l.prev != nil {
		n = l.prev.apply(n)
	}
	return l.fn(n)
}

// ApplyAll applies the chain in place to every value of data: each function is applied to the whole slice
// before the next one.
func (c Chain) ApplyAll(data []widenum.WideNum) {
	for _, fn := range c.funcs() {
		for i, n := range data {
			data[i] = fn(n)
		}
	}
}

// Func returns the chain as a single Func, or nil for the identity.
func (c Chain) Func() Func {
	if c.last == nil {
		return nil
	}
	return c.Apply
}
