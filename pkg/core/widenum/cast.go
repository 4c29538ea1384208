// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package widenum

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

func castWith[S, D Number](n WideNum) WideNum {
	return From(D(Get[S](n)))
}

// Caster returns the function converting WideNum values from the wide dtype src to the wide dtype dst,
// with Go conversion semantics.
//
// src and dst must be different wide dtypes: casting between dtypes that share a wide form needs no conversion,
// and asking for one is a bug.
func Caster(src, dst dtypes.DType) func(WideNum) WideNum {
	const f64, i64, u64 = dtypes.Float64, dtypes.Int64, dtypes.Uint64
	switch {
	case src == f64 && dst == i64:
		return castWith[float64, int64]
	case src == f64 && dst == u64:
		return castWith[float64, uint64]
	case src == i64 && dst == f64:
		return castWith[int64, float64]
	case src == i64 && dst == u64:
		return castWith[int64, uint64]
	case src == u64 && dst == f64:
		return castWith[uint64, float64]
	case src == u64 && dst == i64:
		return castWith[uint64, int64]
	}
	exceptions.Panicf("widenum.Caster must be called with 2 different wide dtypes, got %s and %s", src, dst)
	panic(nil) // Quiet linter.
}
