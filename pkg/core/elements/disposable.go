// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package elements

import (
	"sync/atomic"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/lazyconst/pkg/core/shapes"
	"github.com/gomlx/lazyconst/pkg/core/widenum"
)

// Disposable is a lazy tensor constant: a View registered with a disposal pool, which holds a reference to
// its buffer until disposed.
//
// It is immutable and safe for concurrent reads. Reading it after it is disposed panics.
type Disposable struct {
	id       int
	view     View
	disposed atomic.Bool
}

// NewDisposable creates a Disposable with the given id (its slot in the disposal pool) and takes a reference to the
// view's buffer.
//
// Only disposal pools should call it.
func NewDisposable(id int, view View) *Disposable {
	view.Buffer.Retain()
	return &Disposable{id: id, view: view}
}

// ID returns the identifier given by the pool that created the Disposable.
func (d *Disposable) ID() int { return d.id }

// View returns the description of how the values are read. It panics if the Disposable was disposed.
func (d *Disposable) View() View {
	d.checkAlive()
	return d.view
}

// Shape of the constant.
func (d *Disposable) Shape() shapes.Shape { return d.view.Shape }

// IsSplat returns whether every position reads the same buffer element.
func (d *Disposable) IsSplat() bool { return d.view.IsSplat() }

// IsTransformed returns whether values go through a non-identity transformation.
func (d *Disposable) IsTransformed() bool { return d.view.IsTransformed() }

// IsDisposed returns whether Dispose was called.
func (d *Disposable) IsDisposed() bool { return d.disposed.Load() }

// Bytes returns the number of bytes of the referenced buffer, or 0 if disposed.
func (d *Disposable) Bytes() int {
	if d.IsDisposed() {
		return 0
	}
	return d.view.Buffer.Len()
}

func (d *Disposable) checkAlive() {
	if d.disposed.Load() {
		exceptions.Panicf("elements.Disposable #%d %s used after being disposed", d.id, d.view.Shape)
	}
}

// At returns the logical value at the given position.
func (d *Disposable) At(indices ...int) widenum.WideNum {
	d.checkAlive()
	return d.view.At(indices...)
}

// ReadWideNums returns all logical values in row-major order.
func (d *Disposable) ReadWideNums() []widenum.WideNum {
	d.checkAlive()
	return d.view.ReadWideNums()
}

// BufferAsWideNums returns every element of the underlying buffer, widened but not transformed.
func (d *Disposable) BufferAsWideNums() []widenum.WideNum {
	d.checkAlive()
	dtype := d.view.BufferDType
	data := d.view.Buffer.Bytes()
	values := make([]widenum.WideNum, len(data)/dtype.Size())
	widenum.LoadAll(dtype, data, values)
	return values
}

// ToDense materializes the constant into an eager Dense one.
func (d *Disposable) ToDense() *Dense {
	d.checkAlive()
	return d.view.Dense()
}

// Dispose drops the reference to the buffer. It returns false if it had already been disposed.
//
// Only the pool that created the Disposable should call it.
func (d *Disposable) Dispose() bool {
	if d.disposed.Swap(true) {
		return false
	}
	d.view.Buffer.Release()
	return true
}
