// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package buffers implements Buffer, an immutable reference-counted block of raw bytes backing tensor constants.
//
// A Buffer has no shape and no dtype: those belong to the views that reference it. Its bytes are never mutated
// after creation, so any number of goroutines may read them concurrently.
package buffers

import (
	"sync"
	"sync/atomic"

	"github.com/gomlx/exceptions"
)

// Buffer is an immutable block of bytes shared by every view that references it.
//
// Views call Retain when they start referencing the buffer and Release when they are disposed. When the last
// reference is released the bytes are dropped, and any further access is a bug (it panics).
type Buffer struct {
	data     []byte
	refCount atomic.Int32
	released atomic.Bool
	mu       sync.Mutex // Serializes Retain with the release of data.
}

// Wrap creates a Buffer over the given bytes, without copying.
// The caller must not modify data afterwards.
//
// The new buffer has no references: the first view using it should Retain it.
func Wrap(data []byte) *Buffer {
	if data == nil {
		data = []byte{}
	}
	return &Buffer{data: data}
}

// Copy creates a Buffer with a copy of the given bytes.
func Copy(data []byte) *Buffer {
	return Wrap(append([]byte(nil), data...))
}

// Bytes returns the contents of the buffer. It must not be modified.
//
// It panics if the buffer has already been released.
func (b *Buffer) Bytes() []byte {
	if b.released.Load() {
		exceptions.Panicf("buffers.Buffer(%p) accessed after being released", b)
	}
	return b.data
}

// Len returns the number of bytes in the buffer, or 0 if released.
func (b *Buffer) Len() int {
	if b.released.Load() {
		return 0
	}
	return len(b.data)
}

// Retain adds a reference to the buffer and returns it.
//
// It panics if the buffer has already been released.
func (b *Buffer) Retain() *Buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released.Load() {
		exceptions.Panicf("buffers.Buffer(%p) retained after being released", b)
	}
	b.refCount.Add(1)
	return b
}

// Release drops a reference to the buffer. It returns true if this was the last reference, in which case
// the bytes are dropped.
func (b *Buffer) Release() bool {
	count := b.refCount.Add(-1)
	if count < 0 {
		exceptions.Panicf("buffers.Buffer(%p) released more times than retained", b)
	}
	if count > 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refCount.Load() > 0 {
		// Retained again concurrently.
		return false
	}
	b.released.Store(true)
	b.data = nil
	return true
}

// RefCount returns the current number of references.
func (b *Buffer) RefCount() int { return int(b.refCount.Load()) }

// IsReleased returns whether the last reference was released and the bytes dropped.
func (b *Buffer) IsReleased() bool { return b.released.Load() }
