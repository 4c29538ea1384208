// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package elements

// Kind of the storage behind an Elements handle.
type Kind int

//go:generate go tool enumer -type=Kind -trimprefix=Kind -output=kind_enumer.go kind.go

const (
	// KindInvalid is the zero value of Kind: an Elements handle not initialized.
	KindInvalid Kind = iota

	// KindDense is an eager, row-major and fully materialized constant.
	KindDense

	// KindDisposable is a lazy strided view over a shared buffer, registered with a disposal pool.
	KindDisposable
)
