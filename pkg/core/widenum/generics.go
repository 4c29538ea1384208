// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package widenum

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"
)

// Number are the Go types of the three wide forms.
type Number interface {
	int64 | uint64 | float64
}

// Scalar are the Go types of all dtypes supported by WideNum.
type Scalar interface {
	bool | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 |
		float16.Float16 | bfloat16.BFloat16 | float32 | float64
}

// Get returns the value of n interpreted as the wide form T.
func Get[T Number](n WideNum) T {
	var v T
	switch any(v).(type) {
	case int64:
		return T(n.Int64())
	case uint64:
		return T(n.Uint64())
	default:
		return T(n.Float64())
	}
}

// From returns the WideNum holding the wide value v.
func From[T Number](v T) WideNum {
	switch x := any(v).(type) {
	case int64:
		return FromInt64(x)
	case uint64:
		return FromUint64(x)
	default:
		return FromFloat64(any(v).(float64))
	}
}

// DTypeOf returns the dtype of the Go scalar type T.
func DTypeOf[T Scalar]() dtypes.DType {
	var v T
	switch any(v).(type) {
	case bool:
		return dtypes.Bool
	case int8:
		return dtypes.Int8
	case int16:
		return dtypes.Int16
	case int32:
		return dtypes.Int32
	case int64:
		return dtypes.Int64
	case uint8:
		return dtypes.Uint8
	case uint16:
		return dtypes.Uint16
	case uint32:
		return dtypes.Uint32
	case uint64:
		return dtypes.Uint64
	case float16.Float16:
		return dtypes.Float16
	case bfloat16.BFloat16:
		return dtypes.BFloat16
	case float32:
		return dtypes.Float32
	default:
		return dtypes.Float64
	}
}

// Widen converts a Go scalar to its WideNum, in the wide form of DTypeOf[T]().
func Widen[T Scalar](v T) WideNum {
	switch x := any(v).(type) {
	case bool:
		return FromBool(x)
	case int8:
		return FromInt64(int64(x))
	case int16:
		return FromInt64(int64(x))
	case int32:
		return FromInt64(int64(x))
	case int64:
		return FromInt64(x)
	case uint8:
		return FromUint64(uint64(x))
	case uint16:
		return FromUint64(uint64(x))
	case uint32:
		return FromUint64(uint64(x))
	case uint64:
		return FromUint64(x)
	case float16.Float16:
		return FromFloat64(float64(x.Float32()))
	case bfloat16.BFloat16:
		return FromFloat64(float64(x.Float32()))
	case float32:
		return FromFloat64(float64(x))
	case float64:
		return FromFloat64(x)
	}
	exceptions.Panicf("widenum.Widen: unsupported type %T", v)
	panic(nil) // Quiet linter.
}

// Narrow converts n, in the wide form of DTypeOf[T](), to the Go scalar T.
func Narrow[T Scalar](n WideNum) T {
	var v T
	var result any
	switch any(v).(type) {
	case bool:
		result = n.Bool()
	case int8:
		result = int8(n.Int64())
	case int16:
		result = int16(n.Int64())
	case int32:
		result = int32(n.Int64())
	case int64:
		result = n.Int64()
	case uint8:
		result = uint8(n.Uint64())
	case uint16:
		result = uint16(n.Uint64())
	case uint32:
		result = uint32(n.Uint64())
	case uint64:
		result = n.Uint64()
	case float16.Float16:
		result = float16.Fromfloat32(float32(n.Float64()))
	case bfloat16.BFloat16:
		result = bfloat16.FromFloat64(n.Float64())
	case float32:
		result = float32(n.Float64())
	case float64:
		result = n.Float64()
	}
	return result.(T)
}

// Unary wraps a function on the wide form T as a function on WideNum.
func Unary[T Number](fn func(T) T) func(WideNum) WideNum {
	return func(n WideNum) WideNum {
		return From(fn(Get[T](n)))
	}
}

// Binary wraps a binary function on the wide form T as a function on WideNum.
func Binary[T Number](fn func(T, T) T) func(WideNum, WideNum) WideNum {
	return func(a, b WideNum) WideNum {
		return From(fn(Get[T](a), Get[T](b)))
	}
}

// Predicate wraps a binary comparison on the wide form T as a function on WideNum returning a Bool (Uint64 form).
func Predicate[T Number](fn func(T, T) bool) func(WideNum, WideNum) WideNum {
	return func(a, b WideNum) WideNum {
		return FromBool(fn(Get[T](a), Get[T](b)))
	}
}

// BinaryOp is an arithmetic function written once with generics for all wide forms.
// ForDType picks its instance for a dtype.
type BinaryOp interface {
	Int64(a, b int64) int64
	Uint64(a, b uint64) uint64
	Float64(a, b float64) float64
}

// ForDType returns the WideNum function of op for values of dtype, picking the method of the wide form of dtype.
func ForDType(dtype dtypes.DType, op BinaryOp) func(WideNum, WideNum) WideNum {
	switch WideDType(dtype) {
	case dtypes.Int64:
		return Binary(op.Int64)
	case dtypes.Uint64:
		return Binary(op.Uint64)
	default:
		return Binary(op.Float64)
	}
}
