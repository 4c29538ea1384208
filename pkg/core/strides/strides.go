// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package strides implements the algebra of strided layouts used by lazy tensor constants.
//
// Strides are given in elements (not bytes), one per axis. A stride of 0 means the axis is broadcast: every
// position on it aliases the same element. A layout where every stride is 0 is a "splat": all positions alias
// one single stored value.
package strides

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/lazyconst/pkg/support/xslices"
)

// Default returns the row-major dense strides for the given dimensions.
//
// Zero-sized axes are treated like any other, so the last axis always has stride 1 (for rank > 0).
func Default(dims []int) []int {
	strides := make([]int, len(dims))
	stride := 1
	for axis := len(dims) - 1; axis >= 0; axis-- {
		strides[axis] = stride
		stride *= dims[axis]
	}
	return strides
}

// Splat returns the all-zero strides of the given rank.
func Splat(rank int) []int {
	return make([]int, rank)
}

// IsSplat returns whether all strides are 0. Notice it is vacuously true for scalars.
func IsSplat(strides []int) bool {
	for _, stride := range strides {
		if stride != 0 {
			return false
		}
	}
	return true
}

// IsDefault returns whether strides are the row-major dense strides of dims.
func IsDefault(dims, strides []int) bool {
	return slices.Equal(strides, Default(dims))
}

// Offset returns the element offset of the position given by indices.
func Offset(indices, strides []int) int {
	if len(indices) != len(strides) {
		exceptions.Panicf("strides.Offset: %d indices given for rank %d", len(indices), len(strides))
	}
	offset := 0
	for axis, idx := range indices {
		offset += idx * strides[axis]
	}
	return offset
}

// Permute returns a new slice with values permuted: result[i] = values[permutation[i]].
//
// The permutation must have the same length as values.
func Permute[T any](values []T, permutation []int) []T {
	if len(values) != len(permutation) {
		exceptions.Panicf("strides.Permute: permutation %v doesn't match rank %d", permutation, len(values))
	}
	permuted := make([]T, len(values))
	for i, from := range permutation {
		permuted[i] = values[from]
	}
	return permuted
}

// IsPermutation returns whether perm is a bijection over [0, rank).
func IsPermutation(perm []int, rank int) bool {
	if len(perm) != rank {
		return false
	}
	seen := make([]bool, rank)
	for _, axis := range perm {
		if axis < 0 || axis >= rank || seen[axis] {
			return false
		}
		seen[axis] = true
	}
	return true
}

// IsIdentityPermutation returns whether perm[i] == i for every axis.
func IsIdentityPermutation(perm []int) bool {
	return slices.Equal(perm, xslices.Iota(0, len(perm)))
}

// Expand returns the strides of the layout (dims, strides) broadcast to expandedDims.
//
// Axes are aligned at the end (numpy style): new leading axes get stride 0, and axes whose dimension changes must
// have dimension 1 (or already be broadcast, with stride 0) and become stride 0.
// It panics if dims can't be broadcast to expandedDims.
func Expand(dims, strides, expandedDims []int) []int {
	if len(dims) != len(strides) {
		exceptions.Panicf("strides.Expand: rank of dims %v and strides %v don't match", dims, strides)
	}
	if len(expandedDims) < len(dims) {
		exceptions.Panicf("strides.Expand: cannot expand dims %v to lower rank dims %v", dims, expandedDims)
	}
	shift := len(expandedDims) - len(dims)
	expanded := make([]int, len(expandedDims))
	for axis, dim := range dims {
		expandedAxis := axis + shift
		switch {
		case dim == expandedDims[expandedAxis]:
			expanded[expandedAxis] = strides[axis]
		case dim == 1 || strides[axis] == 0:
			expanded[expandedAxis] = 0
		default:
			exceptions.Panicf("strides.Expand: cannot broadcast axis %d of dims %v to %v", axis, dims, expandedDims)
		}
	}
	return expanded
}

// Reshape returns the strides of the layout (dims, strides) reinterpreted with reshapedDims, if it can be
// expressed without moving elements.
//
// Only dense (default) and splat layouts are reshaped algebraically; any other layout returns false and must be
// materialized by the caller.
func Reshape(dims, strides, reshapedDims []int) ([]int, bool) {
	if IsSplat(strides) {
		return Splat(len(reshapedDims)), true
	}
	if IsDefault(dims, strides) {
		return Default(reshapedDims), true
	}
	return nil, false
}
