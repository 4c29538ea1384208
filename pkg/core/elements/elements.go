// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package elements holds the values of tensor constants, either eagerly (Dense) or as lazy strided views over
// shared buffers (Disposable).
//
// Elements is the handle compiler passes hold: it is one or the other, and offers a single read API for both.
package elements

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/lazyconst/pkg/core/buffers"
	"github.com/gomlx/lazyconst/pkg/core/shapes"
	"github.com/gomlx/lazyconst/pkg/core/transform"
	"github.com/gomlx/lazyconst/pkg/core/widenum"
)

// Elements is a handle to the values of a tensor constant: either Dense or Disposable, see Kind.
//
// The zero value is invalid.
type Elements struct {
	kind  Kind
	dense *Dense
	disp  *Disposable
}

// FromDense returns an Elements handle for an eager constant.
func FromDense(d *Dense) Elements {
	if d == nil {
		exceptions.Panicf("elements.FromDense(nil)")
	}
	return Elements{kind: KindDense, dense: d}
}

// FromDisposable returns an Elements handle for a lazy constant.
func FromDisposable(d *Disposable) Elements {
	if d == nil {
		exceptions.Panicf("elements.FromDisposable(nil)")
	}
	return Elements{kind: KindDisposable, disp: d}
}

// Kind of storage.
func (e Elements) Kind() Kind { return e.kind }

// Ok returns whether the handle is valid.
func (e Elements) Ok() bool { return e.kind != KindInvalid }

// IsDisposable returns whether this is a lazy constant.
func (e Elements) IsDisposable() bool { return e.kind == KindDisposable }

// Dense returns the eager constant, or nil if it is not KindDense.
func (e Elements) Dense() *Dense { return e.dense }

// Disposable returns the lazy constant, or nil if it is not KindDisposable.
func (e Elements) Disposable() *Disposable { return e.disp }

func (e Elements) checkValid() {
	if e.kind == KindInvalid {
		exceptions.Panicf("elements.Elements: handle not initialized")
	}
}

// Shape of the constant.
func (e Elements) Shape() shapes.Shape {
	e.checkValid()
	if e.kind == KindDense {
		return e.dense.Shape()
	}
	return e.disp.Shape()
}

// DType of the constant.
func (e Elements) DType() dtypes.DType { return e.Shape().DType }

// IsSplat returns whether the constant has the same value in every position.
//
// For Dense that means it stores a single value, for Disposable that all its strides are 0.
// Either way, a zero-sized constant is never a splat.
func (e Elements) IsSplat() bool {
	e.checkValid()
	if e.kind == KindDense {
		return e.dense.IsSplat()
	}
	return e.disp.IsSplat()
}

// SplatWideNum returns the value of a splat constant. It panics if it is not a splat.
func (e Elements) SplatWideNum() widenum.WideNum {
	if !e.IsSplat() {
		exceptions.Panicf("elements.Elements.SplatWideNum: %s is not a splat", e)
	}
	return e.At(make([]int, e.Shape().Rank())...)
}

// View returns how the values are read. For Dense constants the returned View wraps its bytes in a new
// buffers.Buffer, with no references taken.
func (e Elements) View() View {
	e.checkValid()
	if e.kind == KindDisposable {
		return e.disp.View()
	}
	return denseView(e.dense)
}

// At returns the value at the given position, in the wide form of the dtype.
func (e Elements) At(indices ...int) widenum.WideNum {
	e.checkValid()
	if e.kind == KindDense {
		return e.dense.At(indices...)
	}
	return e.disp.At(indices...)
}

// WideNums returns all values, row-major, in the wide form of the dtype.
func (e Elements) WideNums() []widenum.WideNum {
	e.checkValid()
	if e.kind == KindDense {
		return e.dense.WideNums()
	}
	return e.disp.ReadWideNums()
}

// ToDense returns an eager version of the constant: the Dense itself or a materialization of the Disposable.
func (e Elements) ToDense() *Dense {
	e.checkValid()
	if e.kind == KindDense {
		return e.dense
	}
	return e.disp.ToDense()
}

// String implements fmt.Stringer.
func (e Elements) String() string {
	switch e.kind {
	case KindDense:
		var splat string
		if e.dense.IsSplat() {
			splat = ", splat"
		}
		return fmt.Sprintf("dense%s%s", e.dense.Shape(), splat)
	case KindDisposable:
		return fmt.Sprintf("disposable#%d%s", e.disp.ID(), e.disp.Shape())
	default:
		return e.kind.String()
	}
}

// denseView returns a View over the bytes of an eager constant.
func denseView(d *Dense) View {
	return NewView(d.Shape(), d.Shape().DType, d.Strides(), buffers.Wrap(d.RawBytes()), transform.Identity())
}
