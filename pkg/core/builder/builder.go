// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package builder implements Builder, used by compiler passes to create and manipulate tensor constants
// without copying their values whenever possible.
//
// Shape operations (Transpose, Reshape, Expand) and elementwise transformations (Transform, CastElementType)
// return lazy views that share the buffer of their operand. Operations that can't be expressed as a view
// (Split, Combine and Where in their general case, or a Reshape of a non-contiguous view) materialize new
// values. Either way, the values read are bit-identical to the ones an eager evaluation would produce.
//
// All constants are created through a Pool: once the pool is deactivated, every operation returns eager
// (dense) constants instead.
//
// Errors in the arguments (mismatched shapes, invalid axes, etc.) are bugs in the calling pass, and
// panic with an error describing it.
package builder

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/lazyconst/internal/workerspool"
	"github.com/gomlx/lazyconst/pkg/core/buffers"
	"github.com/gomlx/lazyconst/pkg/core/elements"
	"github.com/gomlx/lazyconst/pkg/core/shapes"
	"github.com/gomlx/lazyconst/pkg/core/strides"
	"github.com/gomlx/lazyconst/pkg/core/transform"
	"github.com/gomlx/lazyconst/pkg/core/widenum"
)

// Pool creates the constants of a Builder, see disposal.Pool.
type Pool interface {
	// IsActive returns whether the pool still creates lazy views.
	IsActive() bool

	// CreateElements returns a lazy view with the given layout if the pool is active, or an eager materialization
	// of it otherwise.
	CreateElements(shape shapes.Shape, bufferDType dtypes.DType, strides []int, buffer *buffers.Buffer,
		chain transform.Chain) elements.Elements
}

// Builder of tensor constants. It is safe for concurrent use, as long as its Pool is.
//
// Create it with New or NewWithConfig.
type Builder struct {
	pool     Pool
	workers  *workerspool.Pool
	minChunk int
}

// Pool used to create constants.
func (b *Builder) Pool() Pool { return b.pool }

func (b *Builder) create(view elements.View) elements.Elements {
	return b.pool.CreateElements(view.Shape, view.BufferDType, view.Strides, view.Buffer, view.Chain)
}

// viewOf returns the layout of the values of e.
func viewOf(e elements.Elements) elements.View {
	if !e.Ok() {
		exceptions.Panicf("builder: invalid (zero value) elements.Elements given")
	}
	return e.View()
}

// FromRawBytes creates a constant with the given shape, whose values are stored as bufferDType, written by filler
// in row-major order.
//
// bufferDType must have the same wide form as the shape dtype (see widenum.WideDType): values are read from the
// buffer and normalized to the shape dtype. Booleans take one byte per value.
func (b *Builder) FromRawBytes(shape shapes.Shape, bufferDType dtypes.DType, filler func(data []byte)) elements.Elements {
	if !widenum.IsSupported(shape.DType) || !widenum.IsSupported(bufferDType) {
		exceptions.Panicf("builder.FromRawBytes: unsupported dtypes %s (buffer %s)", shape.DType, bufferDType)
	}
	if widenum.WideDType(bufferDType) != widenum.WideDType(shape.DType) {
		exceptions.Panicf("builder.FromRawBytes: buffer dtype %s can't be read as %s", bufferDType, shape.DType)
	}
	data := make([]byte, shape.WithDType(bufferDType).Memory())
	filler(data)
	return b.create(elements.NewView(shape, bufferDType, strides.Default(shape.Dimensions), buffers.Wrap(data),
		transform.Identity()))
}

// FromWideNums creates a constant with the given shape, whose values are written in their wide form by filler,
// in row-major order. Values are normalized to the shape dtype when read.
func (b *Builder) FromWideNums(shape shapes.Shape, filler func(values []widenum.WideNum)) elements.Elements {
	values := make([]widenum.WideNum, shape.Size())
	filler(values)
	return b.fromWideNums(shape, values)
}

// fromWideNums takes ownership of values.
func (b *Builder) fromWideNums(shape shapes.Shape, values []widenum.WideNum) elements.Elements {
	bufferDType := widenum.WideDType(shape.DType)
	return b.create(elements.NewView(shape, bufferDType, strides.Default(shape.Dimensions),
		buffers.Wrap(widenum.AsBytes(values)), transform.Identity()))
}

// splat creates a constant of the given shape with value in every position. shape must not be zero-sized.
func (b *Builder) splat(shape shapes.Shape, value widenum.WideNum) elements.Elements {
	values := []widenum.WideNum{value}
	return b.create(elements.NewView(shape, widenum.WideDType(shape.DType), strides.Splat(shape.Rank()),
		buffers.Wrap(widenum.AsBytes(values)), transform.Identity()))
}

// FromMemoryBuffer creates a constant over data, the row-major values of shape. data is not copied, and must not
// be modified afterwards.
func (b *Builder) FromMemoryBuffer(shape shapes.Shape, data []byte) elements.Elements {
	if !widenum.IsSupported(shape.DType) {
		exceptions.Panicf("builder.FromMemoryBuffer: unsupported dtype %s", shape.DType)
	}
	if want := int(shape.Memory()); len(data) != want {
		exceptions.Panicf("builder.FromMemoryBuffer: %d bytes given for shape %s, wanted %d", len(data), shape, want)
	}
	return b.create(elements.NewView(shape, shape.DType, strides.Default(shape.Dimensions), buffers.Wrap(data),
		transform.Identity()))
}

// ToDisposable returns e as a lazy constant registered with the pool.
//
// It returns false if the pool is not active, including when it is deactivated concurrently.
func (b *Builder) ToDisposable(e elements.Elements) (*elements.Disposable, bool) {
	if e.IsDisposable() {
		return e.Disposable(), true
	}
	if !b.pool.IsActive() {
		return nil, false
	}
	created := b.create(viewOf(e))
	if !created.IsDisposable() {
		return nil, false
	}
	return created.Disposable(), true
}

// ToDense returns the eager version of e, materializing it if needed.
func (b *Builder) ToDense(e elements.Elements) *elements.Dense {
	if !e.Ok() {
		exceptions.Panicf("builder.ToDense: invalid (zero value) elements.Elements given")
	}
	return e.ToDense()
}
