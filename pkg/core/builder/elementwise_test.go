// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package builder

import (
	"fmt"
	"math"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/lazyconst/pkg/core/elements"
	"github.com/gomlx/lazyconst/pkg/core/shapes"
	"github.com/gomlx/lazyconst/pkg/core/widenum"
	"github.com/gomlx/lazyconst/pkg/support/xslices"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

var (
	addInt64 = widenum.Binary(func(x, y int64) int64 { return x + y })
	subInt64 = widenum.Binary(func(x, y int64) int64 { return x - y })
)

func TestTransformCompositionOrder(t *testing.T) {
	b, _ := newBuilder(t, "")
	e := fromFlat(b, []int64{3})
	doubled := b.Transform(e, dtypes.Int64, widenum.Unary(func(x int64) int64 { return x * 2 }))
	result := b.Transform(doubled, dtypes.Int64, widenum.Unary(func(x int64) int64 { return x + 1 }))
	assert.Equal(t, int64(7), result.At(0).Int64())
	assert.Equal(t, 2, result.View().Chain.Len())
	require.Same(t, e.View().Buffer, result.View().Buffer)

	// The operand is not affected.
	assert.Equal(t, int64(6), doubled.At(0).Int64())
	assert.Equal(t, int64(3), e.At(0).Int64())
}

func TestTransformChangesDType(t *testing.T) {
	b, _ := newBuilder(t, "")
	e := fromFlat(b, []int32{1, 2, 3})
	half := b.Transform(e, dtypes.Float32, func(n widenum.WideNum) widenum.WideNum {
		return widenum.FromFloat64(float64(n.Int64()) / 2)
	})
	assert.Equal(t, dtypes.Float32, half.DType())
	assert.Equal(t, []float32{0.5, 1, 1.5}, flat[float32](half))
}

func TestTransformMatchesEagerRounding(t *testing.T) {
	b, _ := newBuilder(t, "")
	values := []float32{0.1, 1.0 / 3, 1e-3, 12345.678}
	e := fromFlat(b, values)
	lazy := b.Transform(e, dtypes.Float32, widenum.Unary(func(x float64) float64 { return x * 3 }))
	lazy = b.Transform(lazy, dtypes.Float32, widenum.Unary(func(x float64) float64 { return x + 0.7 }))

	// Eager evaluation rounds to float32 after every step.
	want := make([]float32, len(values))
	for i, v := range values {
		step := float32(float64(v) * 3)
		want[i] = float32(float64(step) + 0.7)
	}
	got := flat[float32](lazy)
	for i := range want {
		require.Equal(t, math.Float32bits(want[i]), math.Float32bits(got[i]), "value #%d", i)
	}
}

func TestCastElementType(t *testing.T) {
	b, _ := newBuilder(t, "")

	// Round trip.
	ints := fromFlat(b, []int32{-7, 0, 1 << 20, math.MaxInt32})
	roundTrip := b.CastElementType(b.CastElementType(ints, dtypes.Float64), dtypes.Int32)
	assert.Equal(t, ints.WideNums(), roundTrip.WideNums())
	require.Same(t, ints.View().Buffer, roundTrip.View().Buffer)

	floats := fromFlat(b, []float64{2.7, -2.7, 0.5, 0})
	assert.Equal(t, []int32{2, -2, 0, 0}, flat[int32](b.CastElementType(floats, dtypes.Int32)))
	assert.Equal(t, []bool{true, true, true, false}, flat[bool](b.CastElementType(floats, dtypes.Bool)))

	// Same wide form: no transformation, values narrowed when read.
	narrowed := b.CastElementType(fromFlat(b, []int32{300, -1}), dtypes.Int8)
	assert.False(t, narrowed.View().IsTransformed())
	assert.Equal(t, []int8{44, -1}, flat[int8](narrowed))
	assert.Equal(t, []uint8{44, 255}, flat[uint8](b.CastElementType(narrowed, dtypes.Uint8)))

	// Int to unsigned wraps around.
	assert.Equal(t, []uint8{44, 255}, flat[uint8](b.CastElementType(fromFlat(b, []int32{300, -1}), dtypes.Uint8)))

	// Bool.
	bools := fromFlat(b, []bool{true, false})
	assert.Equal(t, []int32{1, 0}, flat[int32](b.CastElementType(bools, dtypes.Int32)))
	assert.Equal(t, []float32{1, 0}, flat[float32](b.CastElementType(bools, dtypes.Float32)))
	assert.Equal(t, []bool{true, false, true},
		flat[bool](b.CastElementType(fromFlat(b, []uint16{2, 0, 256}), dtypes.Bool)))

	// Half precision matches the conversion of the eager value.
	f32 := []float32{1.0001, 65504, 70000, -0.3}
	half := flat[float16.Float16](b.CastElementType(fromFlat(b, f32), dtypes.Float16))
	for i, v := range f32 {
		require.Equal(t, float16.Fromfloat32(v).Bits(), half[i].Bits())
	}

	require.Panics(t, func() { b.CastElementType(ints, dtypes.Complex64) })
}

func TestCastElementTypeRoundTrip(t *testing.T) {
	b, _ := newBuilder(t, "")
	supported := []dtypes.DType{dtypes.Bool,
		dtypes.Int8, dtypes.Int16, dtypes.Int32, dtypes.Int64,
		dtypes.Uint8, dtypes.Uint16, dtypes.Uint32, dtypes.Uint64,
		dtypes.Float16, dtypes.BFloat16, dtypes.Float32, dtypes.Float64}
	for _, from := range supported {
		for _, to := range supported {
			if widenum.WideDType(from) == widenum.WideDType(to) {
				continue
			}
			t.Run(fmt.Sprintf("%s-%s", from, to), func(t *testing.T) {
				// Values representable by both dtypes, read through a transposed view.
				values, transposed := []int64{0, 1, 2, 3, 4, 5}, []int64{0, 3, 1, 4, 2, 5}
				if from == dtypes.Bool || to == dtypes.Bool {
					values, transposed = []int64{0, 1, 1, 0, 1, 0}, []int64{0, 0, 1, 1, 1, 0}
				}
				toWide := func(dtype dtypes.DType, v int64) widenum.WideNum {
					switch widenum.WideDType(dtype) {
					case dtypes.Float64:
						return widenum.FromFloat64(float64(v))
					case dtypes.Uint64:
						return widenum.FromUint64(uint64(v))
					}
					return widenum.FromInt64(v)
				}
				e := b.FromWideNums(shapes.Make(from, 2, 3), func(wide []widenum.WideNum) {
					for i, v := range values {
						wide[i] = toWide(from, v)
					}
				})
				tr := b.Transpose(e, []int{1, 0})

				cast := b.CastElementType(tr, to)
				require.Equal(t, to, cast.DType())
				castValues := cast.WideNums()
				for i, v := range transposed {
					require.Equal(t, toWide(to, v), castValues[i], "value #%d", i)
				}

				back := b.CastElementType(cast, from)
				require.Equal(t, b.ToDense(tr).RawBytes(), b.ToDense(back).RawBytes())
			})
		}
	}
}

func TestCombine(t *testing.T) {
	b, _ := newBuilder(t, "")
	col := fromFlat(b, []int32{1, 2}, 2, 1)
	row := fromFlat(b, []int32{10, 20, 30})
	shape := shapes.Make(dtypes.Int32, 2, 3)
	sum := b.Combine(col, row, shape, addInt64)
	assert.Equal(t, []int32{11, 21, 31, 12, 22, 32}, flat[int32](sum))

	// Result dtype differs from the operands.
	less := b.Combine(col, row, shapes.Make(dtypes.Bool, 2, 3), widenum.Predicate(func(x, y int64) bool {
		return x*10 < y
	}))
	assert.Equal(t, []bool{false, true, true, false, false, true}, flat[bool](less))

	// Results are normalized to the result dtype.
	wrapped := b.Combine(fromFlat(b, []int8{100}), fromFlat(b, []int8{100, 27}), shapes.Make(dtypes.Int8, 2), addInt64)
	assert.Equal(t, []int8{-56, 127}, flat[int8](wrapped))

	require.Panics(t, func() { b.Combine(col, row, shapes.Make(dtypes.Int32, 2, 4), addInt64) })

	// Zero-sized results.
	empty := b.Combine(fromFlat(b, []int32{}, 0, 1), row, shapes.Make(dtypes.Int32, 0, 3), addInt64)
	assert.Empty(t, empty.WideNums())
}

func TestCombineSplatEquivalence(t *testing.T) {
	b, _ := newBuilder(t, "")
	shape := shapes.Make(dtypes.Int32, 2, 3)
	lhs := fromFlat(b, []int32{1, 2, 3, 4, 5, 6}, 2, 3)
	splat := elements.FromDense(elements.DenseFromScalar(int32(5)))
	full := b.FromWideNums(shape, func(values []widenum.WideNum) {
		for i := range values {
			values[i] = widenum.FromInt64(5)
		}
	})
	require.False(t, full.IsSplat())

	for _, tc := range []struct {
		name          string
		fast, general elements.Elements
	}{
		{"rhs splat", b.Combine(lhs, splat, shape, subInt64), b.Combine(lhs, full, shape, subInt64)},
		{"lhs splat", b.Combine(splat, lhs, shape, subInt64), b.Combine(full, lhs, shape, subInt64)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.general.WideNums(), tc.fast.WideNums())
			// The fast path is a lazy transformation of lhs.
			require.Same(t, lhs.View().Buffer, tc.fast.View().Buffer)
			require.True(t, tc.fast.View().IsTransformed())
		})
	}
	assert.Equal(t, []int32{-4, -3, -2, -1, 0, 1}, flat[int32](b.Combine(lhs, splat, shape, subInt64)))

	// Both splat: the result is a splat.
	both := b.Combine(splat, b.Expand(fromFlat(b, []int32{2}), 3), shape, subInt64)
	require.True(t, both.IsSplat())
	assert.Equal(t, xslices.SliceWithValue(6, int32(3)), flat[int32](both))
	require.True(t, both.ToDense().IsSplat())
}

func TestCombineParallel(t *testing.T) {
	sequential, _ := newBuilder(t, "parallelism=0")
	parallel, _ := newBuilder(t, "parallelism=4,chunk=7")
	shape := shapes.Make(dtypes.Float32, 37, 53)
	combine := func(b *Builder) []widenum.WideNum {
		col := fromFlat(b, xslices.Iota(float32(0), 37), 37, 1)
		row := b.Transform(fromFlat(b, xslices.Iota(float32(1), 53)), dtypes.Float32,
			widenum.Unary(func(x float64) float64 { return x / 3 }))
		return b.Combine(col, row, shape, widenum.Binary(func(x, y float64) float64 { return x*y + 1 })).WideNums()
	}
	assert.Equal(t, combine(sequential), combine(parallel))
}

func TestWhere(t *testing.T) {
	b, _ := newBuilder(t, "")
	shape := shapes.Make(dtypes.Float32, 2, 2)
	cond := fromFlat(b, []bool{true, false, false, true}, 2, 2)
	lhs := fromFlat(b, []float32{1, 2, 3, 4}, 2, 2)
	rhs := fromFlat(b, []float32{-1, -2, -3, -4}, 2, 2)
	assert.Equal(t, []float32{1, -2, -3, 4}, flat[float32](b.Where(cond, lhs, rhs, shape)))

	// Broadcast operands.
	zero := elements.FromDense(elements.DenseFromScalar(float32(0)))
	assert.Equal(t, []float32{1, 0, 0, 4}, flat[float32](b.Where(cond, lhs, zero, shape)))
	firstCol := fromFlat(b, []bool{true, false}, 2, 1)
	assert.Equal(t, []float32{1, 2, -3, -4}, flat[float32](b.Where(firstCol, lhs, rhs, shape)))

	// Splat condition: the chosen operand itself, broadcast if needed.
	yes := elements.FromDense(elements.DenseFromScalar(true, 2, 2))
	no := elements.FromDense(elements.DenseFromScalar(false))
	require.Same(t, lhs.Disposable(), b.Where(yes, lhs, rhs, shape).Disposable())
	require.Same(t, rhs.Disposable(), b.Where(no, lhs, rhs, shape).Disposable())
	expanded := b.Where(no, lhs, zero, shape)
	require.True(t, expanded.IsSplat())
	assert.Equal(t, []float32{0, 0, 0, 0}, flat[float32](expanded))

	// Splat lhs and rhs: a lazy transformation of the condition.
	one := elements.FromDense(elements.DenseFromScalar(float32(1)))
	selected := b.Where(cond, one, zero, shape)
	require.Same(t, cond.View().Buffer, selected.View().Buffer)
	assert.Equal(t, []float32{1, 0, 0, 1}, flat[float32](selected))

	err := exceptions.TryCatch[error](func() { b.Where(lhs, lhs, rhs, shape) })
	require.ErrorContains(t, err, "condition must be Bool")
	require.Panics(t, func() { b.Where(cond, lhs, fromFlat(b, []int32{1}), shape) })
	require.Panics(t, func() { b.Where(cond, lhs, rhs, shapes.Make(dtypes.Float64, 2, 2)) })
}
