// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transforms

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/aclements/go-soundfeat/sfe"
)

// run configures tf for f and count input buffers, fills the input via
// fill, and returns the output set.
func run(t *testing.T, tf sfe.Transform, f *sfe.Format, count int, fill func(in *sfe.BufferSet)) *sfe.BufferSet {
	t.Helper()
	outCount, err := tf.SetInputFormat(f, count)
	require.NoError(t, err)
	in := sfe.NewBufferSet(tf.InputFormat(), count)
	out := sfe.NewBufferSet(tf.OutputFormat(), outCount)
	fill(in)
	require.NoError(t, tf.Initialize())
	require.NoError(t, tf.Do(in, out))
	return out
}

func fillRamp(in *sfe.BufferSet) {
	for i := 0; i < in.Count(); i++ {
		for j := range in.Float32s(i) {
			in.Float32s(i)[j] = float32(i*100 + j)
		}
	}
}

func TestSelector(t *testing.T) {
	sel := newSelector()
	require.NoError(t, sel.SetParameter("length", "6"))
	require.NoError(t, sel.SetParameter("select", "4"))
	out := run(t, sel, sfe.ArrayFloat32(10, 16000), 1, fillRamp)
	assert.Equal(t, []float32{0, 1, 2, 3, 0, 0}, out.Float32s(0))

	sel = newSelector()
	require.NoError(t, sel.SetParameter("length", "6"))
	require.NoError(t, sel.SetParameter("select", "4"))
	require.NoError(t, sel.SetParameter("from", "right"))
	out = run(t, sel, sfe.ArrayFloat32(10, 16000), 1, fillRamp)
	assert.Equal(t, []float32{0, 0, 6, 7, 8, 9}, out.Float32s(0))

	// select larger than the input fails at format binding.
	sel = newSelector()
	require.NoError(t, sel.SetParameter("select", "100"))
	require.NoError(t, sel.SetParameter("length", "100"))
	_, err := sel.SetInputFormat(sfe.ArrayFloat32(10, 16000), 1)
	var inv *sfe.InvalidValueError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "select", inv.Field)
}

func TestLog(t *testing.T) {
	lg := newLog()
	out := run(t, lg, sfe.ArrayFloat32(3, 16000), 1, func(in *sfe.BufferSet) {
		copy(in.Float32s(0), []float32{0, float32(math.E - 1), 99})
	})
	dst := out.Float32s(0)
	assert.InDelta(t, 0, float64(dst[0]), 1e-6, "log1p(0) = 0")
	assert.InDelta(t, 1, float64(dst[1]), 1e-6)
	assert.InDelta(t, math.Log(100), float64(dst[2]), 1e-5)

	lg = newLog()
	require.NoError(t, lg.SetParameter("base", "10"))
	require.NoError(t, lg.SetParameter("add1", "false"))
	out = run(t, lg, sfe.ArrayFloat32(2, 16000), 1, func(in *sfe.BufferSet) {
		copy(in.Float32s(0), []float32{10, 1000})
	})
	assert.InDelta(t, 1, float64(out.Float32s(0)[0]), 1e-6)
	assert.InDelta(t, 3, float64(out.Float32s(0)[1]), 1e-6)
}

func TestPreemphasis(t *testing.T) {
	pe := newPreemphasis()
	require.NoError(t, pe.SetParameter("value", "0.5"))
	out := run(t, pe, sfe.ArrayFloat32(4, 16000), 1, func(in *sfe.BufferSet) {
		copy(in.Float32s(0), []float32{2, 4, 8, 16})
	})
	assert.Equal(t, []float32{2, 3, 6, 12}, out.Float32s(0))
}

func TestRectifyAndPadding(t *testing.T) {
	rc := newRectify()
	out := run(t, rc, sfe.ArrayFloat32(3, 16000), 1, func(in *sfe.BufferSet) {
		copy(in.Float32s(0), []float32{-1, 0, 2})
	})
	assert.Equal(t, []float32{1, 0, 2}, out.Float32s(0))

	zp := newZeroPadding()
	out = run(t, zp, sfe.ArrayFloat32(100, 16000), 1, fillRamp)
	assert.Equal(t, 128, out.Format().Size())
	assert.Equal(t, float32(99), out.Float32s(0)[99])
	assert.Equal(t, float32(0), out.Float32s(0)[100])

	sub := newSubsampling()
	require.NoError(t, sub.SetParameter("factor", "3"))
	out = run(t, sub, sfe.ArrayFloat32(9, 16000), 1, fillRamp)
	assert.Equal(t, []float32{0, 3, 6}, out.Float32s(0))
}

func TestZeroCrossings(t *testing.T) {
	zc := newZeroCrossings(sfe.ArrayFloat32, countFloat)
	out := run(t, zc, sfe.ArrayFloat32(4, 16000), 1, func(in *sfe.BufferSet) {
		copy(in.Float32s(0), []float32{1, -1, 1, -1})
	})
	assert.Equal(t, int32(3), out.Int32s(0)[0])

	zc16 := newZeroCrossings(sfe.ArrayInt16, countInt16)
	out = run(t, zc16, sfe.ArrayInt16(5, 16000), 1, func(in *sfe.BufferSet) {
		copy(in.Int16s(0), []int16{3, 1, 0, -2, -4})
	})
	assert.Equal(t, int32(1), out.Int32s(0)[0])
}

func TestEnergy(t *testing.T) {
	en := newEnergy()
	out := run(t, en, sfe.ArrayFloat32(4, 16000), 2, func(in *sfe.BufferSet) {
		copy(in.Float32s(0), []float32{1, 1, 1, 1})
		copy(in.Float32s(1), []float32{2, 0, 2, 0})
	})
	assert.Equal(t, 2, out.Count())
	assert.InDelta(t, 1, float64(out.Float32s(0)[0]), 1e-6)
	assert.InDelta(t, 2, float64(out.Float32s(1)[0]), 1e-6)
}

func TestMean(t *testing.T) {
	mn := newMean()
	require.NoError(t, mn.SetParameter("types", "all"))
	out := run(t, mn, sfe.ArrayFloat32(4, 16000), 1, func(in *sfe.BufferSet) {
		copy(in.Float32s(0), []float32{1, 2, 4, 8})
	})
	assert.InDelta(t, 3.75, float64(out.Float32s(0)[0]), 1e-6)
	assert.InDelta(t, math.Pow(64, 0.25), float64(out.Float32s(0)[1]), 1e-5)
}

func TestStatsMoments(t *testing.T) {
	st := newStats()
	data := []float32{1, 2, 3, 4}
	out := run(t, st, sfe.ArrayFloat32(4, 16000), 1, func(in *sfe.BufferSet) {
		copy(in.Float32s(0), data)
	})
	require.Equal(t, 4, out.Format().Size())
	got := out.Float32s(0)

	xs := make([]float64, len(data))
	for i, v := range data {
		xs[i] = float64(v)
	}
	assert.InDelta(t, stat.Mean(xs, nil), float64(got[0]), 1e-5)
	assert.InDelta(t, stat.PopStdDev(xs, nil), float64(got[1]), 1e-5)
	assert.InDelta(t, 0, float64(got[2]), 1e-5, "symmetric data has zero skew")
	assert.InDelta(t, -1.36, float64(got[3]), 1e-4)
}

func TestStatsInterval(t *testing.T) {
	st := newStats()
	require.NoError(t, st.SetParameter("interval", "2"))
	require.NoError(t, st.SetParameter("types", "average"))
	out := run(t, st, sfe.ArrayFloat32(6, 16000), 1, func(in *sfe.BufferSet) {
		copy(in.Float32s(0), []float32{1, 3, 5, 7, 9, 11})
	})
	require.Equal(t, 12, out.Format().Size())
	got := out.Float32s(0)
	assert.InDelta(t, 2, float64(got[0]), 1e-6)
	assert.InDelta(t, 6, float64(got[4]), 1e-6)
	assert.InDelta(t, 10, float64(got[8]), 1e-6)
	assert.Equal(t, float32(0), got[1], "unrequested moments stay zero")
}

func TestMerge(t *testing.T) {
	mg := newMerge(sfe.ArrayFloat32)
	out := run(t, mg, sfe.ArrayFloat32(3, 16000), 2, fillRamp)
	require.Equal(t, 1, out.Count())
	require.Equal(t, 6, out.Format().Size())
	assert.Equal(t, []float32{0, 1, 2, 100, 101, 102}, out.Float32s(0))
}

func TestSTMSN(t *testing.T) {
	sn := newSTMSN()
	require.NoError(t, sn.SetParameter("length", "2"))
	out := run(t, sn, sfe.ArrayFloat32(1, 16000), 3, func(in *sfe.BufferSet) {
		in.Float32s(0)[0] = 0
		in.Float32s(1)[0] = 1
		in.Float32s(2)[0] = 2
	})
	assert.InDelta(t, 0, float64(out.Float32s(0)[0]), 1e-6, "degenerate window is zero")
	assert.InDelta(t, 0.5, float64(out.Float32s(1)[0]), 1e-6)
	assert.InDelta(t, 0.5, float64(out.Float32s(2)[0]), 1e-6)
}

func TestSTMSNConstant(t *testing.T) {
	sn := newSTMSN()
	out := run(t, sn, sfe.ArrayFloat32(4, 16000), 5, func(in *sfe.BufferSet) {
		for i := 0; i < 5; i++ {
			for j := range in.Float32s(i) {
				in.Float32s(i)[j] = 7
			}
		}
	})
	for i := 0; i < 5; i++ {
		for _, v := range out.Float32s(i) {
			assert.Equal(t, float32(0), v, "constant input normalizes to zero")
		}
	}
}

func TestDeltaSimple(t *testing.T) {
	d := newDelta()
	out := run(t, d, sfe.ArrayFloat32(2, 16000), 4, func(in *sfe.BufferSet) {
		for i := 0; i < 4; i++ {
			in.Float32s(i)[0] = float32(3 * i)
			in.Float32s(i)[1] = float32(10 - i)
		}
	})
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 3, float64(out.Float32s(i)[0]), 1e-6, "buffer %d", i)
		assert.InDelta(t, -1, float64(out.Float32s(i)[1]), 1e-6, "buffer %d", i)
	}
}

// The regression variant is experimental; on a linear ramp it must
// agree with the simple first difference.
func TestDeltaRegressionMatchesSimpleOnRamp(t *testing.T) {
	const count = 20
	fill := func(in *sfe.BufferSet) {
		for i := 0; i < count; i++ {
			in.Float32s(i)[0] = float32(2 * i)
		}
	}

	simple := newDelta()
	sOut := run(t, simple, sfe.ArrayFloat32(1, 16000), count, fill)

	regr := newDelta()
	require.NoError(t, regr.SetParameter("type", "regression"))
	require.NoError(t, regr.SetParameter("rlength", "5"))
	rOut := run(t, regr, sfe.ArrayFloat32(1, 16000), count, fill)

	for i := 2; i < count-2; i++ {
		assert.InDelta(t, float64(sOut.Float32s(i)[0]), float64(rOut.Float32s(i)[0]), 1e-4,
			"buffer %d", i)
	}
}

func TestFlux(t *testing.T) {
	fl := newFlux()
	out := run(t, fl, sfe.ArrayFloat32(2, 16000), 3, func(in *sfe.BufferSet) {
		copy(in.Float32s(0), []float32{1, 1})
		copy(in.Float32s(1), []float32{1, 1})
		copy(in.Float32s(2), []float32{4, 5})
	})
	assert.Equal(t, float32(0), out.Float32s(0)[0])
	assert.Equal(t, float32(0), out.Float32s(1)[0])
	assert.InDelta(t, 5, float64(out.Float32s(2)[0]), 1e-6)
}

func TestCentroidAndRolloff(t *testing.T) {
	// All the mass in one bin pins both features to that frequency.
	fill := func(in *sfe.BufferSet) {
		in.Float32s(0)[8] = 1
	}
	c := newSingleFeature("Centroid", "", centroid)
	out := run(t, c, sfe.ArrayFloat32(17, 16000), 1, fill)
	df := 8000.0 / 16
	assert.InDelta(t, 8*df, float64(out.Float32s(0)[0]), 1e-3)

	r := newSingleFeature("Rolloff", "", rolloffAt(0.85))
	out = run(t, r, sfe.ArrayFloat32(17, 16000), 1, fill)
	assert.InDelta(t, 8*df, float64(out.Float32s(0)[0]), 1e-3)
}

func TestSFM(t *testing.T) {
	s := newSingleFeature("SFM", "", sfm)
	out := run(t, s, sfe.ArrayFloat32(8, 16000), 1, func(in *sfe.BufferSet) {
		for j := range in.Float32s(0) {
			in.Float32s(0)[j] = 3
		}
	})
	assert.InDelta(t, 1, float64(out.Float32s(0)[0]), 1e-6, "flat spectrum has SFM 1")
}

func TestComplexReductions(t *testing.T) {
	mag := newComplexReduce("ComplexMagnitude", "", func(re, im float32) float32 {
		return float32(math.Hypot(float64(re), float64(im)))
	})
	out := run(t, mag, sfe.ArrayComplexFloat32(4, 16000), 1, func(in *sfe.BufferSet) {
		copy(in.Float32s(0), []float32{3, 4, 0, -2})
	})
	require.Equal(t, 2, out.Format().Size())
	assert.InDelta(t, 5, float64(out.Float32s(0)[0]), 1e-6)
	assert.InDelta(t, 2, float64(out.Float32s(0)[1]), 1e-6)

	se := newComplexReduce("SpectralEnergy", "", func(re, im float32) float32 { return re*re + im*im })
	out = run(t, se, sfe.ArrayComplexFloat32(4, 16000), 1, func(in *sfe.BufferSet) {
		copy(in.Float32s(0), []float32{3, 4, 0, -2})
	})
	assert.InDelta(t, 25, float64(out.Float32s(0)[0]), 1e-6)
	assert.InDelta(t, 4, float64(out.Float32s(0)[1]), 1e-6)
}

func TestConverters(t *testing.T) {
	conv := newConverter(sfe.ArrayInt16, sfe.ArrayFloat32, func(in, out *sfe.BufferSet, i int) {
		src, dst := in.Int16s(i), out.Float32s(i)
		for j, v := range src {
			dst[j] = float32(v)
		}
	})
	assert.Equal(t, "ArrayInt16 -> ArrayFloat32", conv.Name())
	out := run(t, conv, sfe.ArrayInt16(3, 16000), 1, func(in *sfe.BufferSet) {
		copy(in.Int16s(0), []int16{-5, 0, 7})
	})
	assert.Equal(t, []float32{-5, 0, 7}, out.Float32s(0))

	assert.Equal(t, int16(32767), clampInt16(1e9))
	assert.Equal(t, int16(-32768), clampInt16(-1e9))
}
