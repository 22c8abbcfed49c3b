// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package sfe

import "errors"

// Systems without page protection get ordinary allocations and no-op
// protect calls.

func newMmapBlock(size int) (*block, error) {
	return nil, errors.New("memory protection is not supported on this platform")
}

func freeMmapBlock(b *block) {}

func (b *block) protect(off, size int)   {}
func (b *block) unprotect(off, size int) {}

const protectionSupported = false
