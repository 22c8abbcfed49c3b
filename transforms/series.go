// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transforms

import (
	"github.com/aclements/go-soundfeat/sfe"
)

// Transforms over the buffer series: they read neighboring buffers on
// the edge, so none of them is in-place safe or slice safe.

// stmsn computes short-time mean and scale normalized values,
//
//	stmsn_n[i] = (w_n[i] - mean_{k=n-L/2..n+L/2} w_k[i]) /
//	             (max_k w_k[i] - min_k w_k[i])
//
// over a sliding window of "length" buffers, shrinking at the series
// boundaries.
type stmsn struct {
	sfe.UniformBase
}

func newSTMSN() *stmsn {
	t := &stmsn{}
	t.TransformName = "STMSN"
	t.TransformDescription = "Calculates short-time mean and scale normalized values."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	t.Declare(sfe.Descriptor{
		Name:        "length",
		Description: "The amount of local values to average.",
		Default:     "300",
	}, sfe.ValidInt(func(v int) bool { return v >= 2 }))
	return t
}

func (t *stmsn) BufferInvariant() bool { return false }
func (t *stmsn) SliceSafe() bool       { return false }

func (t *stmsn) Do(in, out *sfe.BufferSet) error {
	length := t.IntParam("length")
	back := length / 2
	front := length - back
	count := in.Count()
	size := t.In.Size()
	for i := 0; i < count; i++ {
		src, dst := in.Float32s(i), out.Float32s(i)
		for j := 0; j < size; j++ {
			n := length
			lo := i - back
			if lo < 0 {
				n += lo
				lo = 0
			}
			hi := i + front
			if hi > count {
				n += count - hi
				hi = count
			}
			this := src[j]
			sum, min, max := float32(0), this, this
			for k := lo; k < hi; k++ {
				v := in.Float32s(k)[j]
				sum += v
				if v < min {
					min = v
				} else if v > max {
					max = v
				}
			}
			if max > min {
				dst[j] = (this - sum/float32(n)) / (max - min)
			} else {
				dst[j] = 0
			}
		}
	}
	return nil
}

// delta computes the difference between sequential buffers. The
// default is the plain first difference; type=regression uses the
// linear-regression slope over "rlength" neighbors.
//
// The regression variant is numerically touchy near the series
// boundaries, where the window shrinks; treat it as experimental and
// prefer type=simple.
type delta struct {
	sfe.UniformBase
}

func newDelta() *delta {
	t := &delta{}
	t.TransformName = "Delta"
	t.TransformDescription = "Calculates the difference between sequential buffers."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	t.Declare(sfe.Descriptor{
		Name:        "type",
		Description: "The calculation strategy, \"simple\" or \"regression\" (experimental).",
		Default:     "simple",
	}, sfe.ValidEnum("simple", "regression"))
	t.Declare(sfe.Descriptor{
		Name:        "rlength",
		Description: "The regression window width in buffers, odd and at least 3.",
		Default:     "9",
	}, sfe.ValidInt(func(v int) bool { return v >= 3 && v%2 == 1 }))
	return t
}

func (t *delta) BufferInvariant() bool { return false }
func (t *delta) SliceSafe() bool       { return false }

func (t *delta) Do(in, out *sfe.BufferSet) error {
	size := t.In.Size()
	count := in.Count()
	if count < 2 {
		copy(out.Float32s(0), in.Float32s(0))
		return nil
	}
	switch t.StringParam("type") {
	case "simple":
		for i := 1; i < count; i++ {
			prev, cur, dst := in.Float32s(i-1), in.Float32s(i), out.Float32s(i)
			for j := 0; j < size; j++ {
				dst[j] = cur[j] - prev[j]
			}
		}
		copy(out.Float32s(0), out.Float32s(1))
	case "regression":
		rstep := t.IntParam("rlength") / 2
		if rstep >= count/2 {
			rstep = count/2 - 1
		}
		if rstep < 1 {
			rstep = 1
		}
		norm := regressionNorm(rstep)
		for i := rstep; i < count-rstep; i++ {
			t.regress(in, out, i, rstep, norm)
		}
		// Shrinking windows toward the boundaries.
		for w := rstep - 1; w > 0; w-- {
			n := regressionNorm(w)
			t.regress(in, out, w, w, n)
			t.regress(in, out, count-1-w, w, n)
		}
		copy(out.Float32s(0), out.Float32s(1))
		copy(out.Float32s(count-1), out.Float32s(count-2))
	}
	return nil
}

func regressionNorm(rstep int) float32 {
	return float32(rstep*(rstep+1)*(2*rstep+1)) / 3
}

func (t *delta) regress(in, out *sfe.BufferSet, i, rstep int, norm float32) {
	size := t.In.Size()
	dst := out.Float32s(i)
	for j := 0; j < size; j++ {
		var acc float32
		for k := 1; k <= rstep; k++ {
			acc += float32(k) * (in.Float32s(i + k)[j] - in.Float32s(i - k)[j])
		}
		dst[j] = acc / norm
	}
}

// merge concatenates every buffer on the edge into a single vector,
// turning a per-window series into one feature row.
type merge struct {
	sfe.TransformBase
}

func newMerge(input func(size, rate int) *sfe.Format) *merge {
	t := &merge{}
	t.TransformName = "Merge"
	t.TransformDescription = "Merges all the buffers into one vector."
	t.In = input(0, placeholderRate)
	return t
}

func (t *merge) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	t.In = f
	t.Out = sfe.ArrayFloat32(f.Size()*buffersIn, f.SamplingRate())
	return 1, nil
}

func (t *merge) Do(in, out *sfe.BufferSet) error {
	dst := out.Float32s(0)
	size := t.In.Size()
	for i := 0; i < in.Count(); i++ {
		copy(dst[i*size:(i+1)*size], in.Float32s(i))
	}
	return nil
}

func init() {
	sfe.Register(func() sfe.Transform { return newSTMSN() })
	sfe.Register(func() sfe.Transform { return newDelta() })
	sfe.Register(func() sfe.Transform { return newMerge(sfe.ArrayFloat32) })
	sfe.Register(func() sfe.Transform {
		return newMerge(func(size, rate int) *sfe.Format { return sfe.SingleFloat32(rate) })
	})
}
