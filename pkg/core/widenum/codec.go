// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package widenum

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"
)

// Raw buffers use the host native byte order, the same as Go slices of the element type.
var native = binary.NativeEndian

// ElementSize returns the number of bytes used by one element of dtype in a buffer.
// Bools use one byte per value.
func ElementSize(dtype dtypes.DType) int {
	if !IsSupported(dtype) {
		exceptions.Panicf("widenum: dtype %s is not supported", dtype)
	}
	return dtype.Size()
}

// Load reads the element at the given index (in elements, not bytes) of a buffer of dtype, and returns it in
// the wide form of dtype.
func Load(dtype dtypes.DType, data []byte, index int) WideNum {
	switch dtype {
	case dtypes.Bool:
		return FromBool(data[index] != 0)
	case dtypes.Int8:
		return FromInt64(int64(int8(data[index])))
	case dtypes.Uint8:
		return FromUint64(uint64(data[index]))
	case dtypes.Int16:
		return FromInt64(int64(int16(native.Uint16(data[index*2:]))))
	case dtypes.Uint16:
		return FromUint64(uint64(native.Uint16(data[index*2:])))
	case dtypes.Int32:
		return FromInt64(int64(int32(native.Uint32(data[index*4:]))))
	case dtypes.Uint32:
		return FromUint64(uint64(native.Uint32(data[index*4:])))
	case dtypes.Int64, dtypes.Uint64, dtypes.Float64:
		return FromBits(native.Uint64(data[index*8:]))
	case dtypes.Float32:
		return FromFloat64(float64(math.Float32frombits(native.Uint32(data[index*4:]))))
	case dtypes.Float16:
		return FromFloat64(float64(float16.Frombits(native.Uint16(data[index*2:])).Float32()))
	case dtypes.BFloat16:
		return FromFloat64(float64(bfloat16.BFloat16(native.Uint16(data[index*2:])).Float32()))
	default:
		exceptions.Panicf("widenum.Load: dtype %s is not supported", dtype)
		panic(nil) // Quiet linter.
	}
}

// Store writes n, given in the wide form of dtype, as the element at the given index of a buffer of dtype.
// Values are narrowed with Go conversion semantics.
func Store(dtype dtypes.DType, data []byte, index int, n WideNum) {
	switch dtype {
	case dtypes.Bool:
		if n.bits != 0 {
			data[index] = 1
		} else {
			data[index] = 0
		}
	case dtypes.Int8:
		data[index] = byte(int8(n.Int64()))
	case dtypes.Uint8:
		data[index] = byte(n.bits)
	case dtypes.Int16:
		native.PutUint16(data[index*2:], uint16(int16(n.Int64())))
	case dtypes.Uint16:
		native.PutUint16(data[index*2:], uint16(n.bits))
	case dtypes.Int32:
		native.PutUint32(data[index*4:], uint32(int32(n.Int64())))
	case dtypes.Uint32:
		native.PutUint32(data[index*4:], uint32(n.bits))
	case dtypes.Int64, dtypes.Uint64, dtypes.Float64:
		native.PutUint64(data[index*8:], n.bits)
	case dtypes.Float32:
		native.PutUint32(data[index*4:], math.Float32bits(float32(n.Float64())))
	case dtypes.Float16:
		native.PutUint16(data[index*2:], float16.Fromfloat32(float32(n.Float64())).Bits())
	case dtypes.BFloat16:
		native.PutUint16(data[index*2:], uint16(bfloat16.FromFloat64(n.Float64())))
	default:
		exceptions.Panicf("widenum.Store: dtype %s is not supported", dtype)
	}
}

// LoadAll reads all elements of a buffer of dtype into dst, in their wide form.
// len(dst) must be len(data)/ElementSize(dtype).
func LoadAll(dtype dtypes.DType, data []byte, dst []WideNum) {
	if len(dst)*ElementSize(dtype) != len(data) {
		exceptions.Panicf("widenum.LoadAll: %d bytes of %s can't be loaded into %d values", len(data), dtype, len(dst))
	}
	if IsWide(dtype) {
		copy(AsBytes(dst), data)
		return
	}
	for i := range dst {
		dst[i] = Load(dtype, data, i)
	}
}

// AsBytes returns the memory of the slice of WideNum as a slice of bytes, without copying.
// Each value occupies 8 bytes in native byte order: this is the layout of a buffer of the wide dtype.
func AsBytes(nums []WideNum) []byte {
	if len(nums) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&nums[0])), len(nums)*8)
}
