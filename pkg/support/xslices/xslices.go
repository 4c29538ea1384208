// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package xslices provides small generic slice helpers missing from the standard slices package.
package xslices

import "golang.org/x/exp/constraints"

// Iota returns a slice of incremental values, starting with start and of length len.
// Eg: Iota(3.0, 2) -> []float64{3.0, 4.0}
func Iota[T interface {
	constraints.Integer | constraints.Float
}](start T, len int) []T {
	slice := make([]T, len)
	for ii := range slice {
		slice[ii] = start + T(ii)
	}
	return slice
}

// Product of the values of slice. The product of an empty slice is 1.
func Product[T interface {
	constraints.Integer | constraints.Float
}](slice []T) T {
	product := T(1)
	for _, v := range slice {
		product *= v
	}
	return product
}

// SliceWithValue creates a slice of given size filled with given value.
func SliceWithValue[T any](size int, value T) []T {
	s := make([]T, size)
	for ii := range s {
		s[ii] = value
	}
	return s
}
