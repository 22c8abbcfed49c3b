// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDCTRoundTrip(t *testing.T) {
	const n = 40
	d := NewDCT(n)
	in := make([]float32, n)
	for i := range in {
		in[i] = float32(math.Sin(0.3*float64(i)) + 0.1*float64(i))
	}
	freq := make([]float32, n)
	back := make([]float32, n)
	d.Forward(in, freq)
	d.Inverse(freq, back)
	for i := range in {
		assert.InDelta(t, in[i], back[i], 1e-4, "sample %d", i)
	}
}

func TestDCTConstant(t *testing.T) {
	const n = 16
	d := NewDCT(n)
	in := make([]float32, n)
	for i := range in {
		in[i] = 2
	}
	out := make([]float32, n)
	d.Forward(in, out)
	// A constant signal concentrates in the DC coefficient:
	// a(0)*sum = sqrt(1/n)*2n = 2*sqrt(n).
	assert.InDelta(t, 2*math.Sqrt(n), float64(out[0]), 1e-5)
	for i := 1; i < n; i++ {
		assert.InDelta(t, 0, float64(out[i]), 1e-5)
	}
}

func TestDCTInPlace(t *testing.T) {
	const n = 8
	d := NewDCT(n)
	in := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	want := make([]float32, n)
	d.Forward(in, want)
	d.Forward(in, in)
	assert.Equal(t, want, in)
}

func TestScaleInverses(t *testing.T) {
	for _, s := range []Scale{ScaleLinear, ScaleMel, ScaleBark, ScaleMidi} {
		prev := math.Inf(-1)
		for _, f := range []float64{50, 100, 440, 1000, 4000, 8000} {
			v := s.ToScale(f)
			assert.Greater(t, v, prev, "scale %d must be monotonic at %g Hz", s, f)
			prev = v
			assert.InDelta(t, f, s.FromScale(v), f*1e-3, "scale %d round trip at %g Hz", s, f)
		}
	}
}

func TestScaleAnchors(t *testing.T) {
	assert.InDelta(t, 1000, ScaleMel.FromScale(ScaleMel.ToScale(1000)), 1e-6)
	// A4 sits at MIDI note 69.
	assert.InDelta(t, 69, ScaleMidi.ToScale(440), 1e-9)
	assert.InDelta(t, 880, ScaleMidi.FromScale(81), 1e-6)
}

func TestTriangularBank(t *testing.T) {
	bank := TriangularBank(ScaleMel, 40, 257, 100, 6000, 8000, false)
	require.Len(t, bank, 40)
	nonEmpty := 0
	for i, f := range bank {
		assert.GreaterOrEqual(t, f.Start, 0, "filter %d", i)
		assert.LessOrEqual(t, f.Start+len(f.Weights), 257, "filter %d", i)
		mass := 0.0
		for _, w := range f.Weights {
			assert.GreaterOrEqual(t, w, 0.0)
			assert.LessOrEqual(t, w, 1.0+1e-9)
			mass += w
		}
		if mass > 0 {
			nonEmpty++
		}
	}
	assert.GreaterOrEqual(t, nonEmpty, 38, "almost every filter covers at least one bin")
}

func TestButterworthDCGain(t *testing.T) {
	lp := ButterworthLowpass(4, 1000, 16000)
	x := make([]float32, 2000)
	for i := range x {
		x[i] = 1
	}
	lp.Filter(x)
	assert.InDelta(t, 1, float64(x[len(x)-1]), 1e-3, "lowpass passes DC")

	hp := ButterworthHighpass(4, 1000, 16000)
	y := make([]float32, 2000)
	for i := range y {
		y[i] = 1
	}
	hp.Filter(y)
	assert.InDelta(t, 0, float64(y[len(y)-1]), 1e-3, "highpass blocks DC")
}

func TestWaveletPerfectReconstruction(t *testing.T) {
	h, err := Lowpass(WaveletDaubechies, 2)
	require.NoError(t, err)
	g := Highpass(h)

	const n = 64
	x := make([]float32, n)
	for i := range x {
		x[i] = float32(math.Sin(0.2*float64(i)) + 0.05*float64(i))
	}
	a := make([]float32, n/2)
	d := make([]float32, n/2)
	Analyze(h, g, x, a, d)

	back := make([]float32, n)
	Synthesize(h, g, a, d, back)
	for i := range x {
		assert.InDelta(t, x[i], back[i], 1e-5, "sample %d", i)
	}
}

func TestWaveletFilters(t *testing.T) {
	for order := 1; order <= 4; order++ {
		h, err := Lowpass(WaveletDaubechies, order)
		require.NoError(t, err)
		sum := 0.0
		norm := 0.0
		for _, v := range h {
			sum += v
			norm += v * v
		}
		assert.InDelta(t, math.Sqrt2, sum, 1e-9, "daub%d lowpass sums to sqrt(2)", order)
		assert.InDelta(t, 1, norm, 1e-9, "daub%d is unit norm", order)

		g := Highpass(h)
		gsum := 0.0
		for _, v := range g {
			gsum += v
		}
		assert.InDelta(t, 0, gsum, 1e-9, "daub%d highpass sums to zero", order)
	}

	_, err := Lowpass(WaveletCoiflet, 3)
	assert.Error(t, err)
}
