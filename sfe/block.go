// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

// A block is the single contiguous allocation backing every edge's
// buffers in a prepared engine. When memory protection is requested the
// block is mapped page-aligned so sub-ranges can be write-protected;
// otherwise it is ordinary garbage-collected memory.
type block struct {
	data    []byte
	mmapped bool
}

func newBlock(size int, protectable bool) (*block, error) {
	if size == 0 {
		return &block{}, nil
	}
	if protectable {
		return newMmapBlock(size)
	}
	return &block{data: make([]byte, size)}, nil
}

func (b *block) free() {
	if b.mmapped {
		freeMmapBlock(b)
	}
	b.data = nil
}
