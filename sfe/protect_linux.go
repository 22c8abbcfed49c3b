// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Memory protection support. A protectable backing block is mapped with
// mmap so that whole pages inside it can be flipped read-only after
// their writer finishes, catching accidental writes into buffers whose
// logical owner has moved on. Ranges smaller than a page are left
// writable.

func newMmapBlock(size int) (*block, error) {
	data, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("mmap of %d bytes: %w", size, err)
	}
	return &block{data: data, mmapped: true}, nil
}

func freeMmapBlock(b *block) {
	unix.Munmap(b.data)
}

// pageRange narrows [off, off+size) to the whole pages it covers.
// Returns size 0 if the range spans no complete page.
func pageRange(b *block, off, size int) (int, int) {
	page := unix.Getpagesize()
	base := int(uintptr(unsafe.Pointer(&b.data[0])))
	lo := off
	if rem := (base + lo) % page; rem != 0 {
		lo += page - rem
	}
	hi := (base+off+size)/page*page - base
	if hi <= lo {
		return 0, 0
	}
	return lo, hi - lo
}

// protect flips the whole pages inside [off, off+size) read-only.
func (b *block) protect(off, size int) {
	b.mprotect(off, size, unix.PROT_READ)
}

// unprotect restores read-write access before a new writer runs.
func (b *block) unprotect(off, size int) {
	b.mprotect(off, size, unix.PROT_READ|unix.PROT_WRITE)
}

func (b *block) mprotect(off, size, prot int) {
	if !b.mmapped || size == 0 {
		return
	}
	lo, n := pageRange(b, off, size)
	if n == 0 {
		return
	}
	// A failed mprotect downgrades the harness to a no-op; execution
	// correctness does not depend on it.
	unix.Mprotect(b.data[lo:lo+n], prot)
}

const protectionSupported = true
