// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

import (
	"math"
	"sort"
)

// The allocation planner. Every edge of the frozen tree gets a window
// into one contiguous backing block. An edge is alive from the moment
// its transform writes it until its last consumer has read it; the
// deterministic execution order turns that into integer birth and
// death indices, and edges whose lifetimes do not overlap may share
// memory. Buffer-invariant transforms short-circuit this entirely by
// aliasing their output onto their input.

type extent struct {
	off, size int
	death     int
}

func (e *Engine) plan() error {
	order := e.order

	// Death index per node: the last execution index that reads the
	// edge. Named leaves are returned to the caller, so they stay
	// alive past the end of the walk.
	death := make([]int, len(order))
	for i, n := range order {
		switch {
		case n.feature != "":
			death[i] = math.MaxInt
		case len(n.children) == 0:
			death[i] = i
		default:
			last := i
			for _, c := range n.children {
				if c.execIndex > last {
					last = c.execIndex
				}
			}
			death[i] = last
		}
	}

	// In-place reuse: a buffer-invariant transform that is its
	// parent's only consumer and preserves the edge shape writes
	// straight over its input.
	for _, n := range order[1:] {
		p := n.parent
		if n.tfm.BufferInvariant() &&
			len(p.children) == 1 &&
			n.count == p.count &&
			n.stride() == p.stride() &&
			p.feature == "" {
			n.aliased = true
		}
	}

	// Greedy first-fit in birth order for everything else. All sizes
	// and offsets are multiples of the slot alignment, so gaps stay
	// aligned for free.
	extents := make([]*extent, 0, len(order))
	byNode := make([]*extent, len(order))
	peak := 0
	for i, n := range order {
		n.bytes = n.count * n.stride()
		if n.aliased {
			ext := byNode[n.parent.execIndex]
			if death[i] > ext.death {
				ext.death = death[i]
			}
			if n.bytes > ext.size {
				// An aliased edge never outgrows its parent (the
				// shape is preserved), but keep the extent honest.
				ext.size = n.bytes
			}
			n.offset = ext.off
			byNode[i] = ext
			continue
		}

		live := live(extents, i)
		off := firstFit(live, n.bytes)
		ext := &extent{off: off, size: n.bytes, death: death[i]}
		extents = append(extents, ext)
		byNode[i] = ext
		n.offset = off
		if end := off + n.bytes; end > peak {
			peak = end
		}
	}
	e.peak = peak

	if e.opts.MemoryBudget > 0 && peak > e.opts.MemoryBudget {
		e.slice()
	}

	blk, err := newBlock(peak, e.opts.ProtectMemory)
	if err != nil {
		return &AllocationFailedError{Bytes: peak, Err: err}
	}
	e.blk = blk
	for _, n := range order {
		n.buffers = viewBufferSet(n.tfm.OutputFormat(), n.count, blk.data[n.offset:n.offset+n.bytes])
	}
	return nil
}

// live returns the extents still alive at birth index i, sorted by
// offset.
func live(extents []*extent, i int) []*extent {
	var out []*extent
	for _, e := range extents {
		if e.death >= i {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].off != out[b].off {
			return out[a].off < out[b].off
		}
		return out[a].size > out[b].size
	})
	return out
}

// firstFit finds the lowest offset where size bytes fit between the
// live extents.
func firstFit(live []*extent, size int) int {
	off := 0
	for _, e := range live {
		if e.off >= off+size {
			break
		}
		if end := e.off + e.size; end > off {
			off = end
		}
	}
	return off
}

// slice marks slice-safe transforms on oversized edges for serial
// execution over contiguous sub-ranges, bounding per-invocation
// working sets when the aggregate peak exceeds the memory budget.
func (e *Engine) slice() {
	budget := e.opts.MemoryBudget
	for _, n := range e.order[1:] {
		if !n.tfm.SliceSafe() || n.count < 2 || n.bytes <= budget {
			continue
		}
		p := n.parent
		if n.count%p.count != 0 {
			continue
		}
		ratio := n.count / p.count
		if ratio > 1 && p.count < 2 {
			// A splitter fed by a single buffer cannot partition its
			// input list.
			continue
		}
		pieces := (n.bytes + budget - 1) / budget
		if pieces > p.count {
			pieces = p.count
		}
		if pieces < 2 {
			continue
		}
		per := (p.count + pieces - 1) / pieces
		for start := 0; start < p.count; start += per {
			cnt := per
			if start+cnt > p.count {
				cnt = p.count - start
			}
			n.slices = append(n.slices, sliceRange{
				inStart:  start,
				inCount:  cnt,
				outStart: start * ratio,
				outCount: cnt * ratio,
			})
		}
		e.logger.Warn("slicing transform to honor memory budget",
			"transform", n.tfm.Name(),
			"edge_bytes", n.bytes,
			"budget", budget,
			"slices", len(n.slices))
	}
}
