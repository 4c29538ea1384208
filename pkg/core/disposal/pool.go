// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package disposal implements Pool, the gatekeeper of lazy tensor constants.
//
// While a Pool is active it registers every lazy view (elements.Disposable) it creates, so they can later be
// disposed, garbage collected or scrubbed into eager constants. Once deactivated it never creates a lazy view
// again: creation requests are answered with eager (dense) materializations instead.
package disposal

import (
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/lazyconst/pkg/core/buffers"
	"github.com/gomlx/lazyconst/pkg/core/elements"
	"github.com/gomlx/lazyconst/pkg/core/shapes"
	"github.com/gomlx/lazyconst/pkg/core/transform"
	"github.com/gomlx/lazyconst/pkg/support/sets"
	"k8s.io/klog/v2"
)

// Pool of lazy tensor constants. It is safe for concurrent use.
type Pool struct {
	mu       sync.Mutex
	active   bool
	closed   bool
	registry *registry[*elements.Disposable]
}

// New creates a new active Pool.
func New() *Pool {
	return &Pool{active: true, registry: newRegistry[*elements.Disposable]()}
}

// IsActive returns whether the pool still creates lazy views.
//
// The answer may be stale by the time it is used: CreateElements does its own check.
func (p *Pool) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// CreateElements returns a lazy view with the given layout registered with the pool if it is active, or an eager
// materialization of it otherwise.
//
// Checking whether the pool is active and registering the new view happen atomically, so no lazy view is created
// after Deactivate returns.
func (p *Pool) CreateElements(shape shapes.Shape, bufferDType dtypes.DType, strides []int, buffer *buffers.Buffer,
	chain transform.Chain) elements.Elements {
	view := elements.NewView(shape, bufferDType, strides, buffer, chain)
	if d := p.register(view); d != nil {
		if klog.V(3).Enabled() {
			klog.Infof("disposal.Pool: registered %s as #%d", view, d.ID())
		}
		return elements.FromDisposable(d)
	}
	klog.V(2).Infof("disposal.Pool: inactive, materializing %s", view)
	return elements.FromDense(view.Dense())
}

// register returns the new registered Disposable, or nil if the pool is no longer active.
func (p *Pool) register(view elements.View) (d *elements.Disposable) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return nil
	}
	id := p.registry.acquire()
	defer func() {
		if d == nil {
			// NewDisposable panicked.
			p.registry.release(id)
		}
	}()
	d = elements.NewDisposable(id, view)
	p.registry.set(id, d)
	return d
}

// lockedOwns returns whether d is live and was created by this pool. It must be called with p.mu locked.
func (p *Pool) lockedOwns(d *elements.Disposable) bool {
	registered, found := p.registry.get(d.ID())
	return found && registered == d
}

// lockedDispose must be called with p.mu locked.
func (p *Pool) lockedDispose(d *elements.Disposable) {
	p.registry.release(d.ID())
	d.Dispose()
}

// Dispose releases the lazy constant held by e, which must have been created by this pool.
//
// It returns false if e is not lazy, or if it was already disposed or belongs to another pool.
func (p *Pool) Dispose(e elements.Elements) bool {
	if !e.IsDisposable() {
		return false
	}
	d := e.Disposable()
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.lockedOwns(d) {
		klog.Warningf("disposal.Pool.Dispose(%s): not a live constant of this pool", e)
		return false
	}
	p.lockedDispose(d)
	return true
}

// GarbageCollectUnreachable disposes every live lazy constant not in reachable, and returns how many were
// disposed.
func (p *Pool) GarbageCollectUnreachable(reachable ...elements.Elements) int {
	keep := sets.Make[*elements.Disposable](len(reachable))
	for _, e := range reachable {
		if e.IsDisposable() {
			keep.Insert(e.Disposable())
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	verbose := klog.V(1).Enabled()
	var before int
	if verbose {
		before = p.lockedLiveBytes()
	}
	live := sets.Make[*elements.Disposable](p.registry.numLive)
	for _, id := range p.registry.live() {
		d, _ := p.registry.get(id)
		live.Insert(d)
	}
	unreachable := live.Sub(keep)
	for d := range unreachable {
		p.lockedDispose(d)
	}
	count := len(unreachable)
	if verbose {
		klog.Infof("disposal.Pool: garbage collected %d lazy constants, %s -> %s live", count,
			humanize.Bytes(uint64(before)), humanize.Bytes(uint64(p.lockedLiveBytes())))
	}
	return count
}

// Scrub returns the given handles with every lazy constant of this pool replaced by an eager materialization,
// and disposes the lazy ones they replace. Other handles are returned unchanged.
func (p *Pool) Scrub(handles []elements.Elements) []elements.Elements {
	scrubbed := make([]elements.Elements, len(handles))
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range handles {
		scrubbed[i] = e
		if !e.IsDisposable() || !p.lockedOwns(e.Disposable()) {
			continue
		}
		d := e.Disposable()
		scrubbed[i] = elements.FromDense(d.ToDense())
		p.lockedDispose(d)
	}
	return scrubbed
}

// Deactivate makes the pool stop creating lazy views. Existing ones remain valid. It can't be undone.
func (p *Pool) Deactivate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		klog.V(1).Infof("disposal.Pool: deactivated with %d live lazy constants", p.registry.numLive)
	}
	p.active = false
}

// Close deactivates the pool and disposes every live lazy constant, releasing their buffers.
// It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
	if p.closed {
		return
	}
	p.closed = true
	numLive, liveBytes := p.registry.numLive, p.lockedLiveBytes()
	for _, id := range p.registry.live() {
		d, _ := p.registry.get(id)
		p.lockedDispose(d)
	}
	klog.V(1).Infof("disposal.Pool: closed, disposed %d lazy constants (%s)", numLive,
		humanize.Bytes(uint64(liveBytes)))
}

// NumLive returns the number of lazy constants created and not yet disposed.
func (p *Pool) NumLive() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.registry.numLive
}

// LiveBytes returns the number of bytes of the buffers referenced by live lazy constants.
// Buffers shared by several constants are counted once.
func (p *Pool) LiveBytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lockedLiveBytes()
}

func (p *Pool) lockedLiveBytes() int {
	seen := sets.Make[*buffers.Buffer]()
	var total int
	for _, id := range p.registry.live() {
		d, _ := p.registry.get(id)
		buf := d.View().Buffer
		if seen.Has(buf) {
			continue
		}
		seen.Insert(buf)
		total += buf.Len()
	}
	return total
}
