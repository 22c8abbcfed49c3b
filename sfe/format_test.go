// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEquality(t *testing.T) {
	a := ArrayFloat32(100, 16000)
	b := ArrayFloat32(200, 22050)
	c := ArrayInt16(100, 16000)
	id := Identity()

	assert.True(t, a.Equal(b), "same id, different shape")
	assert.False(t, a.Equal(c))
	assert.True(t, a.Equal(id), "Identity is a wildcard")
	assert.True(t, id.Equal(c))
}

func TestFormatSizes(t *testing.T) {
	f := ArrayFloat32(16, 16000)
	assert.Equal(t, 64, f.UnalignedByteSize())
	assert.Equal(t, 128, f.AlignedByteSize())

	f = ArrayFloat32(33, 16000)
	assert.Equal(t, 132, f.UnalignedByteSize())
	assert.Equal(t, 256, f.AlignedByteSize())

	f = ArrayInt16(64, 16000)
	assert.Equal(t, 128, f.AlignedByteSize())
}

func TestFormatSamplingRate(t *testing.T) {
	f := ArrayFloat32(10, 16000)
	require.Error(t, f.SetSamplingRate(1000))
	require.Error(t, f.SetSamplingRate(96000))
	require.NoError(t, f.SetSamplingRate(44100))
	assert.Equal(t, 44100, f.SamplingRate())

	other := ArrayInt16(5, 8000)
	f.CopySourceDetailsFrom(other)
	assert.Equal(t, 8000, f.SamplingRate())
}

func TestFormatValidate(t *testing.T) {
	f := ArrayFloat32(4, 16000)
	set := NewBufferSet(f, 2)

	// All zeros fails.
	err := f.Validate(set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero")

	copy(set.Float32s(0), []float32{1, 2, 3, 4})
	copy(set.Float32s(1), []float32{5, 6, 7, 8})
	require.NoError(t, f.Validate(set))

	set.Float32s(1)[2] = float32(math.NaN())
	err = f.Validate(set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NaN")

	set.Float32s(1)[2] = float32(math.Inf(1))
	err = f.Validate(set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Inf")
}

func TestFormatDump(t *testing.T) {
	f := ArrayInt16(3, 16000)
	set := NewBufferSet(f, 1)
	copy(set.Int16s(0), []int16{-1, 0, 7})
	dump := f.Dump(set, 0)
	assert.True(t, strings.HasPrefix(dump, "ArrayInt16(3@16000Hz) [0]\n"))
	assert.Contains(t, dump, "-1\n0\n7\n")
}

func TestBufferSetViews(t *testing.T) {
	f := ArrayFloat32(5, 16000)
	set := NewBufferSet(f, 3)
	for i := 0; i < 3; i++ {
		for j := range set.Float32s(i) {
			set.Float32s(i)[j] = float32(i*10 + j)
		}
	}
	assert.Equal(t, float32(21), set.Float32s(2)[1])

	sub := set.Slice(1, 2)
	assert.Equal(t, 2, sub.Count())
	assert.Equal(t, float32(10), sub.Float32s(0)[0], "slice shares memory")

	other := NewBufferSet(f, 3)
	assert.False(t, set.EqualData(other))
	for i := 0; i < 3; i++ {
		copy(other.Float32s(i), set.Float32s(i))
	}
	assert.True(t, set.EqualData(other))
}
