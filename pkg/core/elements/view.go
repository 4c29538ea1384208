// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package elements

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/lazyconst/pkg/core/buffers"
	"github.com/gomlx/lazyconst/pkg/core/shapes"
	"github.com/gomlx/lazyconst/pkg/core/strides"
	"github.com/gomlx/lazyconst/pkg/core/transform"
	"github.com/gomlx/lazyconst/pkg/core/widenum"
)

// View describes how a logical tensor constant is read from a shared buffer:
//
//   - Shape: the logical dtype and dimensions.
//   - BufferDType: dtype of the elements stored in Buffer. It must have the same wide form as Shape.DType,
//     unless Chain converts between wide forms.
//   - Strides: per-axis distance, in buffer elements, between consecutive positions. A stride of 0 broadcasts the
//     axis.
//   - Buffer: the bytes, shared with other views.
//   - Chain: transformations applied, in the wide form, to every value read from the buffer.
//
// A View doesn't own a reference to its buffer: that is the job of Disposable.
type View struct {
	Shape       shapes.Shape
	BufferDType dtypes.DType
	Strides     []int
	Buffer      *buffers.Buffer
	Chain       transform.Chain
}

// NewView validates and returns a View. It panics if the strides don't match the shape, if any position would be
// read out of the buffer bounds or if the dtypes are not supported.
func NewView(shape shapes.Shape, bufferDType dtypes.DType, viewStrides []int, buffer *buffers.Buffer,
	chain transform.Chain) View {
	v := View{Shape: shape, BufferDType: bufferDType, Strides: viewStrides, Buffer: buffer, Chain: chain}
	if !widenum.IsSupported(shape.DType) || !widenum.IsSupported(bufferDType) {
		exceptions.Panicf("elements.NewView: unsupported dtypes, shape %s with buffer dtype %s", shape, bufferDType)
	}
	if len(viewStrides) != shape.Rank() {
		exceptions.Panicf("elements.NewView: strides %v don't match shape %s", viewStrides, shape)
	}
	if buffer == nil {
		exceptions.Panicf("elements.NewView: nil buffer for shape %s", shape)
	}
	if chain.IsIdentity() && widenum.WideDType(bufferDType) != widenum.WideDType(shape.DType) {
		exceptions.Panicf("elements.NewView: buffer dtype %s can't be read as %s without a transformation",
			bufferDType, shape.DType)
	}
	if shape.IsZeroSize() {
		return v
	}
	maxOffset := 0
	for axis, stride := range viewStrides {
		if stride < 0 {
			exceptions.Panicf("elements.NewView: negative strides %v not supported", viewStrides)
		}
		maxOffset += (shape.Dimensions[axis] - 1) * stride
	}
	if needed := (maxOffset + 1) * bufferDType.Size(); needed > buffer.Len() {
		exceptions.Panicf("elements.NewView: shape %s with strides %v reads %d bytes, but buffer only has %d",
			shape, viewStrides, needed, buffer.Len())
	}
	return v
}

// DType of the logical values.
func (v View) DType() dtypes.DType { return v.Shape.DType }

// IsSplat returns whether every position of the view reads the same buffer element.
// A zero-sized view is never a splat.
func (v View) IsSplat() bool {
	return v.Shape.Size() > 0 && strides.IsSplat(v.Strides)
}

// IsTransformed returns whether values read go through a non-identity transformation.
func (v View) IsTransformed() bool { return !v.Chain.IsIdentity() }

// IsContiguous returns whether the view reads the buffer in row-major order without gaps.
func (v View) IsContiguous() bool {
	return strides.IsDefault(v.Shape.Dimensions, v.Strides)
}

// NeedsNormalization returns whether values read from the buffer must be narrowed to the logical dtype
// (and widened back) to match the values of an eager constant.
func (v View) NeedsNormalization() bool {
	return v.IsTransformed() || v.BufferDType != v.Shape.DType
}

// ReadChain returns the chain of transformations a value read from the buffer goes through, including the final
// normalization to the logical dtype when needed.
//
// Views derived by further transforming this one must build on ReadChain, not on Chain.
func (v View) ReadChain() transform.Chain {
	if !v.NeedsNormalization() || widenum.IsWide(v.Shape.DType) {
		return v.Chain
	}
	dtype := v.Shape.DType
	return v.Chain.Then(func(n widenum.WideNum) widenum.WideNum {
		return widenum.Normalize(dtype, n)
	})
}

// Load returns the logical value of the buffer element at the given element offset.
func (v View) Load(offset int) widenum.WideNum {
	n := widenum.Load(v.BufferDType, v.Buffer.Bytes(), offset)
	if !v.NeedsNormalization() {
		return n
	}
	return widenum.Normalize(v.Shape.DType, v.Chain.Apply(n))
}

// At returns the logical value at the given position.
func (v View) At(indices ...int) widenum.WideNum {
	if len(indices) != v.Shape.Rank() {
		exceptions.Panicf("elements.View.At(%v): wrong number of indices for shape %s", indices, v.Shape)
	}
	for axis, idx := range indices {
		if idx < 0 || idx >= v.Shape.Dimensions[axis] {
			exceptions.Panicf("elements.View.At(%v): index out of bounds for shape %s", indices, v.Shape)
		}
	}
	return v.Load(strides.Offset(indices, v.Strides))
}

// ReadRange fills dst with the logical values of the row-major positions [start, start+len(dst)).
func (v View) ReadRange(dst []widenum.WideNum, start int) {
	if len(dst) == 0 {
		return
	}
	data := v.Buffer.Bytes()
	if v.IsContiguous() {
		widenum.LoadAll(v.BufferDType, data[start*v.BufferDType.Size():(start+len(dst))*v.BufferDType.Size()], dst)
	} else {
		it := strides.NewIterator(v.Shape.Dimensions, v.Strides)
		it.Seek(start)
		for i := range dst {
			dst[i] = widenum.Load(v.BufferDType, data, it.Offset(0))
			it.Next()
		}
	}
	if !v.NeedsNormalization() {
		return
	}
	v.Chain.ApplyAll(dst)
	dtype := v.Shape.DType
	for i, n := range dst {
		dst[i] = widenum.Normalize(dtype, n)
	}
}

// ReadWideNums returns all logical values, in row-major order.
func (v View) ReadWideNums() []widenum.WideNum {
	values := make([]widenum.WideNum, v.Shape.Size())
	v.ReadRange(values, 0)
	return values
}

// Dense materializes the view into an eager Dense constant of the logical dtype.
func (v View) Dense() *Dense {
	dtype := v.Shape.DType
	elementSize := dtype.Size()
	if v.IsSplat() {
		raw := make([]byte, elementSize)
		if !v.NeedsNormalization() {
			copy(raw, v.Buffer.Bytes()[:elementSize])
		} else {
			widenum.Store(dtype, raw, 0, v.Load(0))
		}
		return NewSplatDense(v.Shape, raw)
	}
	raw := make([]byte, v.Shape.Size()*elementSize)
	if !v.NeedsNormalization() {
		strides.Restride(elementSize, v.Shape.Dimensions, v.Strides, v.Buffer.Bytes(), raw)
		return NewDense(v.Shape, raw)
	}
	for i, n := range v.ReadWideNums() {
		widenum.Store(dtype, raw, i, n)
	}
	return NewDense(v.Shape, raw)
}

// Materialize creates an eager Dense constant with the values of the given view.
func Materialize(shape shapes.Shape, bufferDType dtypes.DType, viewStrides []int, buffer *buffers.Buffer,
	chain transform.Chain) *Dense {
	return NewView(shape, bufferDType, viewStrides, buffer, chain).Dense()
}

// String implements fmt.Stringer.
func (v View) String() string {
	var transformed string
	if v.IsTransformed() {
		transformed = fmt.Sprintf(", %d transforms", v.Chain.Len())
	}
	return fmt.Sprintf("view%s{buffer %s, strides %v%s}", v.Shape, v.BufferDType, v.Strides, transformed)
}
