// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package builder

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/lazyconst/pkg/core/elements"
	"github.com/gomlx/lazyconst/pkg/core/shapes"
	"github.com/gomlx/lazyconst/pkg/core/strides"
	"github.com/gomlx/lazyconst/pkg/core/transform"
	"github.com/gomlx/lazyconst/pkg/core/widenum"
	"k8s.io/klog/v2"
)

// Transform returns a constant with dtype whose values are fn applied to the values of e.
//
// fn receives values in the wide form of the dtype of e, and returns values in the wide form of dtype.
// The result shares the buffer of e: fn is only called when values are read.
func (b *Builder) Transform(e elements.Elements, dtype dtypes.DType, fn transform.Func) elements.Elements {
	v := viewOf(e)
	if !widenum.IsSupported(dtype) {
		exceptions.Panicf("builder.Transform: unsupported dtype %s", dtype)
	}
	v.Chain = v.ReadChain().Then(fn)
	v.Shape = v.Shape.WithDType(dtype)
	return b.create(v)
}

// CastElementType converts the values of e to dtype, with Go conversion semantics. Casting to Bool tests
// for non-zero values.
//
// If dtype is the dtype of e, e itself is returned. The result shares the buffer of e.
func (b *Builder) CastElementType(e elements.Elements, dtype dtypes.DType) elements.Elements {
	v := viewOf(e)
	if !widenum.IsSupported(dtype) {
		exceptions.Panicf("builder.CastElementType: unsupported dtype %s", dtype)
	}
	srcDType := v.Shape.DType
	if srcDType == dtype {
		return e
	}
	srcWide, dstWide := widenum.WideDType(srcDType), widenum.WideDType(dtype)
	switch {
	case dtype == dtypes.Bool && srcWide == dtypes.Float64:
		v.Chain = v.ReadChain().Then(func(n widenum.WideNum) widenum.WideNum {
			return widenum.FromBool(n.Float64() != 0)
		})
	case srcWide != dstWide:
		v.Chain = v.ReadChain().Then(widenum.Caster(srcWide, dstWide))
	case v.NeedsNormalization():
		// Values must be rounded to the current dtype before being read as the new one.
		v.Chain = v.ReadChain()
	}
	v.Shape = v.Shape.WithDType(dtype)
	return b.create(v)
}

// expandAndTransform broadcasts e to shape dimensions, and applies fn to its values, returning shape dtype
// values. It never copies values.
func (b *Builder) expandAndTransform(e elements.Elements, shape shapes.Shape, fn transform.Func) elements.Elements {
	v := viewOf(e)
	v.Strides = strides.Expand(v.Shape.Dimensions, v.Strides, shape.Dimensions)
	v.Chain = v.ReadChain().Then(fn)
	v.Shape = shape
	return b.create(v)
}

// readAll returns the logical values of v, row-major, reading them in parallel.
func (b *Builder) readAll(v elements.View) []widenum.WideNum {
	values := make([]widenum.WideNum, v.Shape.Size())
	b.workers.ParallelFor(len(values), b.minChunk, func(start, end int) {
		v.ReadRange(values[start:end], start)
	})
	return values
}

// Combine returns a constant of the given shape with fn(lhs, rhs) applied elementwise.
//
// lhs and rhs are broadcast to shape dimensions (see Expand). fn receives values in the wide form of the dtype of
// each operand, and returns values in the wide form of shape dtype.
//
// If either operand is a splat, the result is a lazy transformation of the other. Otherwise, values are
// materialized.
func (b *Builder) Combine(lhs, rhs elements.Elements, shape shapes.Shape,
	fn func(lhs, rhs widenum.WideNum) widenum.WideNum) elements.Elements {
	lhsView, rhsView := viewOf(lhs), viewOf(rhs)
	if !widenum.IsSupported(shape.DType) {
		exceptions.Panicf("builder.Combine: unsupported dtype %s", shape.DType)
	}
	lhsStrides := strides.Expand(lhsView.Shape.Dimensions, lhsView.Strides, shape.Dimensions)
	rhsStrides := strides.Expand(rhsView.Shape.Dimensions, rhsView.Strides, shape.Dimensions)
	if shape.IsZeroSize() {
		return b.fromWideNums(shape, nil)
	}

	lhsSplat, rhsSplat := lhsView.IsSplat(), rhsView.IsSplat()
	switch {
	case lhsSplat && rhsSplat:
		return b.splat(shape, fn(lhsView.Load(0), rhsView.Load(0)))
	case rhsSplat:
		rhsValue := rhsView.Load(0)
		return b.expandAndTransform(lhs, shape, func(n widenum.WideNum) widenum.WideNum { return fn(n, rhsValue) })
	case lhsSplat:
		lhsValue := lhsView.Load(0)
		return b.expandAndTransform(rhs, shape, func(n widenum.WideNum) widenum.WideNum { return fn(lhsValue, n) })
	}

	klog.V(2).Infof("builder.Combine: materializing %s from %s and %s", shape, lhsView, rhsView)
	values := make([]widenum.WideNum, shape.Size())
	b.workers.ParallelFor(len(values), b.minChunk, func(start, end int) {
		it := strides.NewIterator(shape.Dimensions, lhsStrides, rhsStrides)
		it.Seek(start)
		for i := start; i < end; i++ {
			values[i] = fn(lhsView.Load(it.Offset(0)), rhsView.Load(it.Offset(1)))
			it.Next()
		}
	})
	return b.fromWideNums(shape, values)
}

// Where returns a constant of the given shape that takes values from lhs where cond is true, and from rhs
// otherwise (select). All three are broadcast to shape dimensions (see Expand).
//
// cond must be Bool, and lhs, rhs and shape must have the same dtype.
//
// A splat cond returns lhs or rhs broadcast, and splat lhs and rhs return a lazy transformation of cond.
// Otherwise, values are materialized.
func (b *Builder) Where(cond, lhs, rhs elements.Elements, shape shapes.Shape) elements.Elements {
	condView, lhsView, rhsView := viewOf(cond), viewOf(lhs), viewOf(rhs)
	if condView.Shape.DType != dtypes.Bool {
		exceptions.Panicf("builder.Where: condition must be Bool, got %s", condView.Shape)
	}
	if lhsView.Shape.DType != shape.DType || rhsView.Shape.DType != shape.DType {
		exceptions.Panicf("builder.Where: dtypes of lhs %s and rhs %s must match the result %s",
			lhsView.Shape, rhsView.Shape, shape)
	}
	condStrides := strides.Expand(condView.Shape.Dimensions, condView.Strides, shape.Dimensions)
	lhsStrides := strides.Expand(lhsView.Shape.Dimensions, lhsView.Strides, shape.Dimensions)
	rhsStrides := strides.Expand(rhsView.Shape.Dimensions, rhsView.Strides, shape.Dimensions)
	if shape.IsZeroSize() {
		return b.fromWideNums(shape, nil)
	}

	if condView.IsSplat() {
		if condView.Load(0).Bool() {
			return b.Expand(lhs, shape.Dimensions...)
		}
		return b.Expand(rhs, shape.Dimensions...)
	}
	if lhsView.IsSplat() && rhsView.IsSplat() {
		lhsValue, rhsValue := lhsView.Load(0), rhsView.Load(0)
		return b.expandAndTransform(cond, shape, func(n widenum.WideNum) widenum.WideNum {
			if n.Bool() {
				return lhsValue
			}
			return rhsValue
		})
	}

	klog.V(2).Infof("builder.Where: materializing %s from %s, %s and %s", shape, condView, lhsView, rhsView)
	values := make([]widenum.WideNum, shape.Size())
	b.workers.ParallelFor(len(values), b.minChunk, func(start, end int) {
		it := strides.NewIterator(shape.Dimensions, condStrides, lhsStrides, rhsStrides)
		it.Seek(start)
		for i := start; i < end; i++ {
			if condView.Load(it.Offset(0)).Bool() {
				values[i] = lhsView.Load(it.Offset(1))
			} else {
				values[i] = rhsView.Load(it.Offset(2))
			}
			it.Next()
		}
	})
	return b.fromWideNums(shape, values)
}
