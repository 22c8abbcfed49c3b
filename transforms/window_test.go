// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transforms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aclements/go-soundfeat/sfe"
)

func TestWindowCounts(t *testing.T) {
	w := newWindowF()
	out, err := w.SetInputFormat(sfe.ArrayFloat32(48000, 16000), 1)
	require.NoError(t, err)
	assert.Equal(t, (48000-512)/205+1, out)
	assert.Equal(t, 512, w.OutputFormat().Size())

	// Two input buffers double the fan-out.
	out, err = w.SetInputFormat(sfe.ArrayFloat32(48000, 16000), 2)
	require.NoError(t, err)
	assert.Equal(t, 2*((48000-512)/205+1), out)

	// A window longer than the input is rejected.
	_, err = w.SetInputFormat(sfe.ArrayFloat32(100, 16000), 1)
	var inv *sfe.InvalidValueError
	require.ErrorAs(t, err, &inv)
}

func TestWindowRectangularValues(t *testing.T) {
	w := newWindowF()
	require.NoError(t, w.SetParameter("length", "8"))
	require.NoError(t, w.SetParameter("step", "4"))
	require.NoError(t, w.SetParameter("type", "rectangular"))
	out := run(t, w, sfe.ArrayFloat32(16, 16000), 1, fillRamp)
	require.Equal(t, 3, out.Count())
	for j := 0; j < 3; j++ {
		for k := 0; k < 8; k++ {
			assert.Equal(t, float32(j*4+k), out.Float32s(j)[k], "window %d sample %d", j, k)
		}
	}
}

func TestWindowHammingAttenuatesEdges(t *testing.T) {
	w := newWindowF()
	require.NoError(t, w.SetParameter("length", "64"))
	require.NoError(t, w.SetParameter("step", "64"))
	out := run(t, w, sfe.ArrayFloat32(64, 16000), 1, func(in *sfe.BufferSet) {
		for j := range in.Float32s(0) {
			in.Float32s(0)[j] = 1
		}
	})
	win := out.Float32s(0)
	assert.Less(t, win[0], float32(0.1), "hamming edge is small")
	assert.InDelta(t, 1, float64(win[32]), 0.05, "hamming center is near 1")
	assert.InDelta(t, float64(win[1]), float64(win[62]), 1e-5, "hamming is symmetric")
}

func TestWindowInt16(t *testing.T) {
	w := newWindow16()
	require.NoError(t, w.SetParameter("length", "8"))
	require.NoError(t, w.SetParameter("step", "8"))
	require.NoError(t, w.SetParameter("type", "rectangular"))
	outCount, err := w.SetInputFormat(sfe.ArrayInt16(16, 16000), 1)
	require.NoError(t, err)
	require.Equal(t, 2, outCount)
	in := sfe.NewBufferSet(w.InputFormat(), 1)
	out := sfe.NewBufferSet(w.OutputFormat(), outCount)
	for j := range in.Int16s(0) {
		in.Int16s(0)[j] = int16(j - 8)
	}
	require.NoError(t, w.Initialize())
	require.NoError(t, w.Do(in, out))
	assert.Equal(t, int16(-8), out.Int16s(0)[0])
	assert.Equal(t, int16(7), out.Int16s(1)[7])
}

func TestWindowMergeRoundTrip(t *testing.T) {
	const size = 4000
	src := sfe.ArrayFloat32(size, 16000)

	w := newWindowF()
	require.NoError(t, w.SetParameter("length", "500"))
	require.NoError(t, w.SetParameter("step", "100"))
	require.NoError(t, w.SetParameter("type", "rectangular"))
	windows := run(t, w, src, 1, fillRamp)
	require.Equal(t, (size-500)/100+1, windows.Count())

	m := newWindowMerge()
	require.NoError(t, m.SetParameter("step", "100"))
	outCount, err := m.SetInputFormat(windows.Format().Clone(), windows.Count())
	require.NoError(t, err)
	require.Equal(t, 1, outCount)
	assert.Equal(t, size, m.OutputFormat().Size())

	out := sfe.NewBufferSet(m.OutputFormat(), 1)
	require.NoError(t, m.Initialize())
	require.NoError(t, m.Do(windows, out))

	got := out.Float32s(0)
	for j := 0; j < size; j++ {
		assert.Equal(t, float32(j), got[j], "sample %d", j)
	}
}
