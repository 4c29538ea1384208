// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package transform

import (
	"testing"

	"github.com/gomlx/lazyconst/pkg/core/widenum"
	"github.com/stretchr/testify/require"
)

var (
	double  = Func(widenum.Unary(func(x float64) float64 { return 2 * x }))
	plusOne = Func(widenum.Unary(func(x float64) float64 { return x + 1 }))
	square  = Func(widenum.Unary(func(x float64) float64 { return x * x }))
)

func TestChainOrder(t *testing.T) {
	c := Identity().Then(double).Then(plusOne)
	require.Equal(t, 2, c.Len())
	// x*2 then x+1, not the other way around.
	require.Equal(t, 7.0, c.Apply(widenum.FromFloat64(3)).Float64())

	data := []widenum.WideNum{widenum.FromFloat64(3), widenum.FromFloat64(0)}
	c.ApplyAll(data)
	require.Equal(t, []widenum.WideNum{widenum.FromFloat64(7), widenum.FromFloat64(1)}, data)
}

func TestChainIdentity(t *testing.T) {
	var c Chain
	require.True(t, c.IsIdentity())
	require.Equal(t, 0, c.Len())
	require.Nil(t, c.Func())
	require.Equal(t, widenum.FromInt64(5), c.Apply(widenum.FromInt64(5)))
	require.True(t, c.Then(nil).IsIdentity())
}

func TestChainSharing(t *testing.T) {
	base := Of(double)
	a := base.Then(plusOne)
	b := base.Then(square)
	// Both branches share base, and base is unchanged.
	require.Equal(t, 1, base.Len())
	require.Equal(t, 6.0, base.Apply(widenum.FromFloat64(3)).Float64())
	require.Equal(t, 7.0, a.Apply(widenum.FromFloat64(3)).Float64())
	require.Equal(t, 36.0, b.Apply(widenum.FromFloat64(3)).Float64())
	require.Same(t, base.last, a.last.prev)
	require.Same(t, base.last, b.last.prev)
}

func TestChainCompose(t *testing.T) {
	first := Of(double, plusOne)
	second := Of(square)
	x := widenum.FromFloat64(3)

	// Associativity: (first . second) . first == first . (second . first)
	left := first.Compose(second).Compose(first)
	right := first.Compose(second.Compose(first))
	require.Equal(t, left.Apply(x), right.Apply(x))
	require.Equal(t, 5, left.Len())
	// ((3*2+1)^2)*2+1 = 99
	require.Equal(t, 99.0, left.Apply(x).Float64())

	require.Same(t, first.last, first.Compose(Identity()).last)
	require.Same(t, first.last, Identity().Compose(first).last)
	require.Equal(t, 7.0, first.Func()(x).Float64())
}
