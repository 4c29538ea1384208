// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package elements

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/lazyconst/pkg/core/shapes"
	"github.com/gomlx/lazyconst/pkg/core/strides"
	"github.com/gomlx/lazyconst/pkg/core/widenum"
	"github.com/gomlx/lazyconst/pkg/support/xslices"
)

// Dense is an eager tensor constant: its values stored row-major in the logical dtype.
//
// A splat Dense stores a single element, repeated over the whole shape.
// Booleans are stored one byte per value.
type Dense struct {
	shape shapes.Shape
	raw   []byte
	splat bool
}

// NewDense creates a Dense constant over raw, without copying it. The caller must not modify raw afterwards.
//
// raw must hold either every element of the shape (row-major) or, for a splat, exactly one element.
func NewDense(shape shapes.Shape, raw []byte) *Dense {
	if !widenum.IsSupported(shape.DType) {
		exceptions.Panicf("elements.NewDense: dtype %s not supported", shape.DType)
	}
	elementSize := shape.DType.Size()
	size := shape.Size()
	switch {
	case len(raw) == size*elementSize:
		return &Dense{shape: shape, raw: raw, splat: size == 1}
	case size > 0 && len(raw) == elementSize:
		return &Dense{shape: shape, raw: raw, splat: true}
	}
	exceptions.Panicf("elements.NewDense: %d bytes given for shape %s, wanted %d (or %d for a splat)",
		len(raw), shape, size*elementSize, elementSize)
	panic(nil) // Quiet linter.
}

// NewSplatDense creates a Dense constant with the single element in raw repeated over the shape.
func NewSplatDense(shape shapes.Shape, raw []byte) *Dense {
	if shape.IsZeroSize() {
		exceptions.Panicf("elements.NewSplatDense: zero-sized shape %s can't be a splat", shape)
	}
	if len(raw) != shape.DType.Size() {
		exceptions.Panicf("elements.NewSplatDense: %d bytes given for one element of %s", len(raw), shape.DType)
	}
	return NewDense(shape, raw)
}

// DenseFromFlat creates a Dense constant with a copy of the given flat values, shaped with dims.
// If no dims are given, the values are taken as a 1D tensor.
func DenseFromFlat[T widenum.Scalar](flat []T, dims ...int) *Dense {
	if len(dims) == 0 {
		dims = []int{len(flat)}
	}
	shape := shapes.Make(widenum.DTypeOf[T](), dims...)
	if shape.Size() != len(flat) {
		exceptions.Panicf("elements.DenseFromFlat: %d values given for shape %s", len(flat), shape)
	}
	raw := make([]byte, len(flat)*shape.DType.Size())
	for i, v := range flat {
		widenum.Store(shape.DType, raw, i, widenum.Widen(v))
	}
	return NewDense(shape, raw)
}

// DenseFromScalar creates a splat Dense constant with value over the given dims.
func DenseFromScalar[T widenum.Scalar](value T, dims ...int) *Dense {
	shape := shapes.Make(widenum.DTypeOf[T](), dims...)
	raw := make([]byte, shape.DType.Size())
	widenum.Store(shape.DType, raw, 0, widenum.Widen(value))
	return NewSplatDense(shape, raw)
}

// Shape of the constant.
func (d *Dense) Shape() shapes.Shape { return d.shape }

// IsSplat returns whether a single element is stored for all positions.
func (d *Dense) IsSplat() bool { return d.splat }

// RawBytes returns the stored bytes: one element for a splat, all elements otherwise. Don't modify them.
func (d *Dense) RawBytes() []byte { return d.raw }

// Strides returns the strides (in elements) for the stored bytes: all 0 for a splat.
func (d *Dense) Strides() []int {
	if d.splat {
		return strides.Splat(d.shape.Rank())
	}
	return d.shape.Strides()
}

// At returns the value at the given position.
func (d *Dense) At(indices ...int) widenum.WideNum {
	if len(indices) != d.shape.Rank() {
		exceptions.Panicf("elements.Dense.At(%v): wrong number of indices for shape %s", indices, d.shape)
	}
	for axis, idx := range indices {
		if idx < 0 || idx >= d.shape.Dimensions[axis] {
			exceptions.Panicf("elements.Dense.At(%v): index out of bounds for shape %s", indices, d.shape)
		}
	}
	return widenum.Load(d.shape.DType, d.raw, strides.Offset(indices, d.Strides()))
}

// WideNums returns all values, row-major.
func (d *Dense) WideNums() []widenum.WideNum {
	if d.splat && d.shape.Size() > 0 {
		return xslices.SliceWithValue(d.shape.Size(), widenum.Load(d.shape.DType, d.raw, 0))
	}
	values := make([]widenum.WideNum, d.shape.Size())
	widenum.LoadAll(d.shape.DType, d.raw, values)
	return values
}

// Flat returns the values row-major, converted to T, the Go type of the constant dtype.
func Flat[T widenum.Scalar](d *Dense) []T {
	if dtype := widenum.DTypeOf[T](); dtype != d.shape.DType {
		exceptions.Panicf("elements.Flat[%s]: constant has dtype %s", dtype, d.shape.DType)
	}
	values := d.WideNums()
	flat := make([]T, len(values))
	for i, v := range values {
		flat[i] = widenum.Narrow[T](v)
	}
	return flat
}
