// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package strides

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	require.Equal(t, []int{12, 4, 1}, Default([]int{2, 3, 4}))
	require.Equal(t, []int{}, Default(nil))
	require.Equal(t, []int{0, 1}, Default([]int{3, 0}))
	require.True(t, IsDefault([]int{2, 3}, []int{3, 1}))
	require.False(t, IsDefault([]int{2, 3}, []int{1, 2}))
}

func TestSplat(t *testing.T) {
	require.Equal(t, []int{0, 0, 0}, Splat(3))
	require.True(t, IsSplat([]int{0, 0}))
	require.True(t, IsSplat(nil))
	require.False(t, IsSplat([]int{0, 1}))
}

func TestPermute(t *testing.T) {
	require.Equal(t, []int{4, 2, 3}, Permute([]int{2, 3, 4}, []int{2, 0, 1}))
	require.True(t, IsPermutation([]int{2, 0, 1}, 3))
	require.False(t, IsPermutation([]int{0, 0, 1}, 3))
	require.False(t, IsPermutation([]int{0, 1}, 3))
	require.False(t, IsPermutation([]int{0, 3, 1}, 3))
	require.True(t, IsIdentityPermutation([]int{0, 1, 2}))
	require.False(t, IsIdentityPermutation([]int{1, 0}))
	require.True(t, IsIdentityPermutation(nil))
	require.False(t, IsIdentityPermutation([]int{0, 2, 1}))
	require.Panics(t, func() { _ = Permute([]int{1, 2}, []int{0}) })
}

func TestExpand(t *testing.T) {
	// [1, 3] -> [2, 3]
	require.Equal(t, []int{0, 1}, Expand([]int{1, 3}, []int{3, 1}, []int{2, 3}))
	// Rank growth: [3] -> [4, 3]
	require.Equal(t, []int{0, 1}, Expand([]int{3}, []int{1}, []int{4, 3}))
	// Already broadcast axis can be broadcast again.
	require.Equal(t, []int{0, 1}, Expand([]int{2, 3}, []int{0, 1}, []int{5, 3}))
	// Same shape keeps strides.
	require.Equal(t, []int{1, 2}, Expand([]int{2, 3}, []int{1, 2}, []int{2, 3}))
	require.Panics(t, func() { _ = Expand([]int{2, 3}, []int{3, 1}, []int{4, 3}) })
	require.Panics(t, func() { _ = Expand([]int{2, 3}, []int{3, 1}, []int{3}) })
}

func TestReshape(t *testing.T) {
	got, ok := Reshape([]int{2, 3}, []int{3, 1}, []int{3, 2})
	require.True(t, ok)
	require.Equal(t, []int{2, 1}, got)

	got, ok = Reshape([]int{2, 3}, []int{0, 0}, []int{6})
	require.True(t, ok)
	require.Equal(t, []int{0}, got)

	// Transposed layout can't be reshaped algebraically.
	_, ok = Reshape([]int{3, 2}, []int{1, 3}, []int{6})
	require.False(t, ok)

	// Partially broadcast layout either.
	_, ok = Reshape([]int{2, 3}, []int{0, 1}, []int{6})
	require.False(t, ok)
}

func TestIterator(t *testing.T) {
	dims := []int{2, 3}
	transposed := []int{1, 2} // A [3, 2] dense array read transposed.
	broadcast := []int{0, 1}
	it := NewIterator(dims, Default(dims), transposed, broadcast)
	var dense, trans, bcast []int
	for range 6 {
		dense = append(dense, it.Offset(0))
		trans = append(trans, it.Offset(1))
		bcast = append(bcast, it.Offset(2))
		it.Next()
	}
	require.Equal(t, []int{0, 1, 2, 3, 4, 5}, dense)
	require.Equal(t, []int{0, 2, 4, 1, 3, 5}, trans)
	require.Equal(t, []int{0, 1, 2, 0, 1, 2}, bcast)

	// Wraps around to the start.
	require.Equal(t, []int{0, 0, 0}, it.Offsets())

	it.Seek(4)
	require.Equal(t, []int{1, 1}, it.Indices())
	require.Equal(t, []int{4, 3, 1}, it.Offsets())
}

func TestRestride(t *testing.T) {
	// A [3, 2] array of 2-byte elements, read transposed as [2, 3].
	src := []byte{0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5}
	dst := make([]byte, len(src))
	Restride(2, []int{2, 3}, []int{1, 2}, src, dst)
	require.Equal(t, []byte{0, 0, 2, 2, 4, 4, 1, 1, 3, 3, 5, 5}, dst)

	// Broadcast of a single element.
	dst = make([]byte, 4)
	Restride(1, []int{2, 2}, []int{0, 0}, []byte{7}, dst)
	require.Equal(t, []byte{7, 7, 7, 7}, dst)

	require.Panics(t, func() { Restride(1, []int{2}, []int{1}, []byte{1, 2}, make([]byte, 3)) })
}
