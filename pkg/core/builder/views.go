// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package builder

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/lazyconst/pkg/core/buffers"
	"github.com/gomlx/lazyconst/pkg/core/elements"
	"github.com/gomlx/lazyconst/pkg/core/strides"
	"github.com/gomlx/lazyconst/pkg/core/transform"
	"github.com/gomlx/lazyconst/pkg/core/widenum"
	"github.com/gomlx/lazyconst/pkg/support/xslices"
	"k8s.io/klog/v2"
)

// Transpose returns e with its axes permuted: axis i of the result is axis permutation[i] of e.
//
// The result shares the buffer of e. If permutation is the identity, e itself is returned.
func (b *Builder) Transpose(e elements.Elements, permutation []int) elements.Elements {
	v := viewOf(e)
	if !strides.IsPermutation(permutation, v.Shape.Rank()) {
		exceptions.Panicf("builder.Transpose: %v is not a permutation of the axes of %s", permutation, v.Shape)
	}
	if strides.IsIdentityPermutation(permutation) {
		return e
	}
	v.Shape = v.Shape.WithDimensions(strides.Permute(v.Shape.Dimensions, permutation)...)
	v.Strides = strides.Permute(v.Strides, permutation)
	return b.create(v)
}

// Reshape returns e with new dimensions, with the same number of elements.
//
// Contiguous and splat constants are reshaped without copying. Others are materialized.
func (b *Builder) Reshape(e elements.Elements, dimensions ...int) elements.Elements {
	v := viewOf(e)
	if slices.Equal(v.Shape.Dimensions, dimensions) {
		return e
	}
	shape := v.Shape.WithDimensions(dimensions...)
	if shape.Size() != v.Shape.Size() {
		exceptions.Panicf("builder.Reshape: can't reshape %s (%d elements) to %v (%d elements)",
			v.Shape, v.Shape.Size(), dimensions, shape.Size())
	}
	if reshapedStrides, ok := strides.Reshape(v.Shape.Dimensions, v.Strides, shape.Dimensions); ok {
		v.Shape, v.Strides = shape, reshapedStrides
		return b.create(v)
	}

	klog.V(2).Infof("builder.Reshape: materializing %s to reshape it to %s", v, shape)
	if !v.IsTransformed() {
		// Copy the raw buffer elements in their new order, keeping the buffer dtype.
		elementSize := v.BufferDType.Size()
		data := make([]byte, shape.Size()*elementSize)
		src := v.Buffer.Bytes()
		b.workers.ParallelFor(shape.Size(), b.minChunk, func(start, end int) {
			strides.RestrideRange(elementSize, v.Shape.Dimensions, v.Strides, src, data, start, end)
		})
		return b.create(elements.NewView(shape, v.BufferDType, strides.Default(shape.Dimensions),
			buffers.Wrap(data), transform.Identity()))
	}
	return b.fromWideNums(shape, b.readAll(v))
}

// Expand broadcasts e to the given dimensions.
//
// Dimensions are aligned at the end: if there are more dimensions than the rank of e, the leading ones are new
// axes. Every axis of e must either match the new dimension or have dimension 1.
// The result shares the buffer of e. If the dimensions are the same, e itself is returned.
func (b *Builder) Expand(e elements.Elements, dimensions ...int) elements.Elements {
	v := viewOf(e)
	if slices.Equal(v.Shape.Dimensions, dimensions) {
		return e
	}
	v.Strides = strides.Expand(v.Shape.Dimensions, v.Strides, dimensions)
	v.Shape = v.Shape.WithDimensions(dimensions...)
	return b.create(v)
}

// Split e along axis into pieces with the given sizes, which must sum to the dimension of the axis.
//
// No sizes returns no pieces, and a single size returns e itself. Otherwise, the pieces are materialized.
func (b *Builder) Split(e elements.Elements, axis int, sizes []int) []elements.Elements {
	v := viewOf(e)
	rank := v.Shape.Rank()
	if axis < 0 || axis >= rank {
		exceptions.Panicf("builder.Split: invalid axis %d for %s", axis, v.Shape)
	}
	dim := v.Shape.Dim(axis)
	total := 0
	for _, size := range sizes {
		if size <= 0 {
			exceptions.Panicf("builder.Split: sizes %v must be positive", sizes)
		}
		total += size
	}
	if total != dim {
		exceptions.Panicf("builder.Split: sizes %v don't add up to dimension %d of axis %d of %s",
			sizes, dim, axis, v.Shape)
	}
	switch len(sizes) {
	case 0:
		return []elements.Elements{}
	case 1:
		return []elements.Elements{e}
	}

	klog.V(2).Infof("builder.Split: materializing %d pieces of %s along axis %d", len(sizes), v, axis)
	values := b.readAll(v)
	outerSize := xslices.Product(v.Shape.Dimensions[:axis])
	innerSize := xslices.Product(v.Shape.Dimensions[axis+1:])
	stride := dim * innerSize // Distance between consecutive slabs of the same piece.
	pieces := make([]elements.Elements, len(sizes))
	offset := 0
	for i, size := range sizes {
		dims := slices.Clone(v.Shape.Dimensions)
		dims[axis] = size
		shape := v.Shape.WithDimensions(dims...)
		slabSize := size * innerSize
		pieceValues := make([]widenum.WideNum, shape.Size())
		for outer := range outerSize {
			from := outer*stride + offset
			copy(pieceValues[outer*slabSize:(outer+1)*slabSize], values[from:from+slabSize])
		}
		pieces[i] = b.fromWideNums(shape, pieceValues)
		offset += slabSize
	}
	return pieces
}
