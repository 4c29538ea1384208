// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package widenum implements WideNum, a canonical 64-bit representation of any supported scalar element.
//
// Every supported dtype maps to one of three "wide" dtypes:
//
//   - Float16, BFloat16, Float32 and Float64 are held as Float64;
//   - Int8, Int16, Int32 and Int64 are held as Int64;
//   - Bool, Uint8, Uint16, Uint32 and Uint64 are held as Uint64.
//
// This allows elementwise algorithms to be written once per wide dtype (see Unary and Binary), instead of once
// per concrete dtype. A WideNum doesn't carry its own tag: the wide dtype is known from context (the dtype of the
// buffer or tensor it was read from).
package widenum

import (
	"math"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"
)

// WideNum holds one scalar value in one of the three wide forms: int64, uint64 or float64.
type WideNum struct {
	bits uint64
}

// FromInt64 returns the WideNum for an Int64 wide value.
func FromInt64(v int64) WideNum { return WideNum{bits: uint64(v)} }

// FromUint64 returns the WideNum for an Uint64 wide value.
func FromUint64(v uint64) WideNum { return WideNum{bits: v} }

// FromFloat64 returns the WideNum for a Float64 wide value.
func FromFloat64(v float64) WideNum { return WideNum{bits: math.Float64bits(v)} }

// FromBool returns the Uint64 wide value of a boolean: 1 for true, 0 for false.
func FromBool(v bool) WideNum {
	if v {
		return WideNum{bits: 1}
	}
	return WideNum{}
}

// FromBits returns a WideNum with the given raw bits.
func FromBits(bits uint64) WideNum { return WideNum{bits: bits} }

// Int64 interprets the value as an Int64 wide value.
func (n WideNum) Int64() int64 { return int64(n.bits) }

// Uint64 interprets the value as an Uint64 wide value.
func (n WideNum) Uint64() uint64 { return n.bits }

// Float64 interprets the value as a Float64 wide value.
func (n WideNum) Float64() float64 { return math.Float64frombits(n.bits) }

// Bool interprets the value as a boolean (Uint64 wide value different from 0).
func (n WideNum) Bool() bool { return n.bits != 0 }

// Bits returns the raw bits of the value.
func (n WideNum) Bits() uint64 { return n.bits }

// IsSupported returns whether dtype can be represented as a WideNum.
func IsSupported(dtype dtypes.DType) bool {
	switch dtype {
	case dtypes.Bool,
		dtypes.Int8, dtypes.Int16, dtypes.Int32, dtypes.Int64,
		dtypes.Uint8, dtypes.Uint16, dtypes.Uint32, dtypes.Uint64,
		dtypes.Float16, dtypes.BFloat16, dtypes.Float32, dtypes.Float64:
		return true
	default:
		return false
	}
}

// WideDType returns the wide dtype (Int64, Uint64 or Float64) that holds values of dtype.
//
// It panics for unsupported dtypes (complex numbers, sub-byte types).
func WideDType(dtype dtypes.DType) dtypes.DType {
	switch dtype {
	case dtypes.Float16, dtypes.BFloat16, dtypes.Float32, dtypes.Float64:
		return dtypes.Float64
	case dtypes.Int8, dtypes.Int16, dtypes.Int32, dtypes.Int64:
		return dtypes.Int64
	case dtypes.Bool, dtypes.Uint8, dtypes.Uint16, dtypes.Uint32, dtypes.Uint64:
		return dtypes.Uint64
	default:
		exceptions.Panicf("widenum: dtype %s is not supported", dtype)
		panic(nil) // Quiet linter.
	}
}

// IsWide returns whether dtype is one of the three wide dtypes.
func IsWide(dtype dtypes.DType) bool {
	return dtype == dtypes.Int64 || dtype == dtypes.Uint64 || dtype == dtypes.Float64
}

// Normalize rounds n, given in the wide form of dtype, to a value representable by dtype, and returns it
// widened again.
//
// It is equivalent to storing n in a dtype buffer and loading it back: lazy reads use it to match eager
// (materialized) results bit for bit.
func Normalize(dtype dtypes.DType, n WideNum) WideNum {
	switch dtype {
	case dtypes.Int64, dtypes.Uint64, dtypes.Float64:
		return n
	case dtypes.Bool:
		return FromBool(n.bits != 0)
	case dtypes.Int8:
		return FromInt64(int64(int8(n.Int64())))
	case dtypes.Int16:
		return FromInt64(int64(int16(n.Int64())))
	case dtypes.Int32:
		return FromInt64(int64(int32(n.Int64())))
	case dtypes.Uint8:
		return FromUint64(uint64(uint8(n.bits)))
	case dtypes.Uint16:
		return FromUint64(uint64(uint16(n.bits)))
	case dtypes.Uint32:
		return FromUint64(uint64(uint32(n.bits)))
	case dtypes.Float32:
		return FromFloat64(float64(float32(n.Float64())))
	case dtypes.Float16:
		return FromFloat64(float64(float16.Fromfloat32(float32(n.Float64())).Float32()))
	case dtypes.BFloat16:
		return FromFloat64(float64(bfloat16.FromFloat64(n.Float64()).Float32()))
	default:
		exceptions.Panicf("widenum.Normalize: dtype %s is not supported", dtype)
		panic(nil) // Quiet linter.
	}
}
