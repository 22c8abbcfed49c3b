// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEachBuffer(t *testing.T) {
	const n = 1000
	var hits [n]atomic.Int32
	require.NoError(t, ForEachBuffer(n, 8, func(i int) error {
		hits[i].Add(1)
		return nil
	}))
	for i := range hits {
		assert.Equal(t, int32(1), hits[i].Load(), "index %d", i)
	}

	// Serial fallback.
	var sum int
	require.NoError(t, ForEachBuffer(10, 1, func(i int) error {
		sum += i
		return nil
	}))
	assert.Equal(t, 45, sum)

	boom := errors.New("boom")
	err := ForEachBuffer(100, 4, func(i int) error {
		if i == 37 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestHandlePool(t *testing.T) {
	var made atomic.Int32
	p := NewHandlePool(2, func() int {
		return int(made.Add(1))
	})

	h1, release1 := p.Acquire()
	h2, release2 := p.Acquire()
	assert.NotEqual(t, h1, h2)

	// Both slots busy: the pool still hands something out.
	h3, release3 := p.Acquire()
	assert.Greater(t, h3, 0)
	release3()

	release1()
	release2()

	// Released slots are reused, not rebuilt.
	before := made.Load()
	_, release := p.Acquire()
	release()
	assert.Equal(t, before, made.Load())
}
