// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package strides

import "github.com/gomlx/exceptions"

// Iterator walks the positions of dims in row-major order, and keeps for each operand the element offset of the
// current position, given that operand's strides.
//
// It is used to traverse several broadcast/strided operands in lockstep without recomputing offsets from indices
// at every step.
type Iterator struct {
	dims    []int
	strides [][]int
	indices []int
	offsets []int
}

// NewIterator creates an Iterator positioned at the first element of dims, for the given operands' strides.
// Each operand strides must have the same rank as dims.
func NewIterator(dims []int, operandsStrides ...[]int) *Iterator {
	for i, s := range operandsStrides {
		if len(s) != len(dims) {
			exceptions.Panicf("strides.NewIterator: operand #%d strides %v don't match dims %v", i, s, dims)
		}
	}
	return &Iterator{
		dims:    dims,
		strides: operandsStrides,
		indices: make([]int, len(dims)),
		offsets: make([]int, len(operandsStrides)),
	}
}

// Seek positions the iterator at the given flat (row-major) index.
func (it *Iterator) Seek(flatIdx int) {
	for axis := len(it.dims) - 1; axis >= 0; axis-- {
		dim := it.dims[axis]
		if dim == 0 {
			it.indices[axis] = 0
			continue
		}
		it.indices[axis] = flatIdx % dim
		flatIdx /= dim
	}
	for operand, s := range it.strides {
		it.offsets[operand] = Offset(it.indices, s)
	}
}

// Offsets of each operand at the current position. Owned by the iterator, don't modify.
func (it *Iterator) Offsets() []int { return it.offsets }

// Offset of the given operand at the current position.
func (it *Iterator) Offset(operand int) int { return it.offsets[operand] }

// Indices of the current position. Owned by the iterator, don't modify.
func (it *Iterator) Indices() []int { return it.indices }

// Next advances the iterator to the next position.
//
// After the last position it wraps around to the first one: callers are expected to count positions.
func (it *Iterator) Next() {
	for axis := len(it.dims) - 1; axis >= 0; axis-- {
		it.indices[axis]++
		for operand, s := range it.strides {
			it.offsets[operand] += s[axis]
		}
		if it.indices[axis] < it.dims[axis] {
			return
		}
		for operand, s := range it.strides {
			it.offsets[operand] -= it.indices[axis] * s[axis]
		}
		it.indices[axis] = 0
	}
}

// Restride copies the elements of src, laid out with (dims, srcStrides), into dst with a dense row-major layout.
// elementSize is the number of bytes per element.
//
// dst must have exactly prod(dims)*elementSize bytes.
func Restride(elementSize int, dims, srcStrides []int, src, dst []byte) {
	size := 1
	for _, dim := range dims {
		size *= dim
	}
	if len(dst) != size*elementSize {
		exceptions.Panicf("strides.Restride: destination has %d bytes, want %d (dims=%v, element size %d)",
			len(dst), size*elementSize, dims, elementSize)
	}
	RestrideRange(elementSize, dims, srcStrides, src, dst, 0, size)
}

// RestrideRange is like Restride, but only copies the dense positions [start, end) -- dst still covers the
// whole dense array. It allows splitting the work across goroutines.
func RestrideRange(elementSize int, dims, srcStrides []int, src, dst []byte, start, end int) {
	if start >= end {
		return
	}
	it := NewIterator(dims, srcStrides)
	it.Seek(start)
	for pos := start; pos < end; pos++ {
		from := it.Offset(0) * elementSize
		copy(dst[pos*elementSize:(pos+1)*elementSize], src[from:from+elementSize])
		it.Next()
	}
}
