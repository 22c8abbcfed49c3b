// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transforms

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/aclements/go-soundfeat/sfe"
)

// Spectral transforms. ComplexMagnitude and SpectralEnergy reduce an
// interleaved complex spectrum to its per-bin magnitude or energy;
// Centroid, Rolloff, Flux and SFM condense a real spectrum into a
// single descriptor per window.

type complexReduce struct {
	sfe.TransformBase
	reduce func(re, im float32) float32
}

func newComplexReduce(name, desc string, reduce func(re, im float32) float32) *complexReduce {
	t := &complexReduce{reduce: reduce}
	t.TransformName = name
	t.TransformDescription = desc
	t.In = sfe.ArrayComplexFloat32(0, placeholderRate)
	t.Declare(threadsDescriptor())
	return t
}

func (t *complexReduce) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	t.In = f
	t.Out = sfe.ArrayFloat32(f.Size()/2, f.SamplingRate())
	return buffersIn, nil
}

func (t *complexReduce) SliceSafe() bool { return true }

func (t *complexReduce) Do(in, out *sfe.BufferSet) error {
	return sfe.ForEachBuffer(in.Count(), t.IntParam("threads_num"), func(i int) error {
		src, dst := in.Float32s(i), out.Float32s(i)
		for j := range dst {
			dst[j] = t.reduce(src[2*j], src[2*j+1])
		}
		return nil
	})
}

// singleFeature condenses each real-spectrum buffer into one value.
type singleFeature struct {
	sfe.TransformBase
	calc func(t *singleFeature, in *sfe.BufferSet, i int) float32
}

func newSingleFeature(name, desc string, calc func(t *singleFeature, in *sfe.BufferSet, i int) float32) *singleFeature {
	t := &singleFeature{calc: calc}
	t.TransformName = name
	t.TransformDescription = desc
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	return t
}

func (t *singleFeature) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	t.In = f
	t.Out = sfe.SingleFloat32(f.SamplingRate())
	return buffersIn, nil
}

func (t *singleFeature) Do(in, out *sfe.BufferSet) error {
	for i := 0; i < in.Count(); i++ {
		out.Float32s(i)[0] = t.calc(t, in, i)
	}
	return nil
}

// binWidth is the frequency resolution of a spectrum of n bins
// covering [0, rate/2].
func (t *singleFeature) binWidth() float64 {
	n := t.In.Size()
	if n < 2 {
		return 0
	}
	return float64(t.In.SamplingRate()) / 2 / float64(n-1)
}

func centroid(t *singleFeature, in *sfe.BufferSet, i int) float32 {
	src := in.Float32s(i)
	df := t.binWidth()
	var num, den float64
	for j, v := range src {
		num += float64(j) * df * float64(v)
		den += float64(v)
	}
	if den == 0 {
		return 0
	}
	return float32(num / den)
}

func rolloffAt(ratio float64) func(t *singleFeature, in *sfe.BufferSet, i int) float32 {
	return func(t *singleFeature, in *sfe.BufferSet, i int) float32 {
		src := in.Float32s(i)
		total := 0.0
		for _, v := range src {
			total += float64(v)
		}
		threshold := ratio * total
		acc := 0.0
		for j, v := range src {
			acc += float64(v)
			if acc >= threshold {
				return float32(float64(j) * t.binWidth())
			}
		}
		return float32(float64(len(src)-1) * t.binWidth())
	}
}

func sfm(t *singleFeature, in *sfe.BufferSet, i int) float32 {
	src := in.Float32s(i)
	xs := make([]float64, len(src))
	for j, v := range src {
		xs[j] = float64(v)
	}
	arith := floats.Sum(xs) / float64(len(xs))
	if arith == 0 {
		return 0
	}
	logSum := 0.0
	for _, v := range xs {
		if v <= 0 {
			return 0
		}
		logSum += math.Log(v)
	}
	geo := math.Exp(logSum / float64(len(xs)))
	return float32(geo / arith)
}

// flux measures the spectral change between consecutive windows; the
// first window's flux is zero. Reads the previous buffer, so it is
// neither in-place safe nor slice safe.
type flux struct {
	sfe.TransformBase
}

func newFlux() *flux {
	t := &flux{}
	t.TransformName = "Flux"
	t.TransformDescription = "Calculates the euclidean distance between sequential spectra."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	return t
}

func (t *flux) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	t.In = f
	t.Out = sfe.SingleFloat32(f.SamplingRate())
	return buffersIn, nil
}

func (t *flux) Do(in, out *sfe.BufferSet) error {
	out.Float32s(0)[0] = 0
	for i := 1; i < in.Count(); i++ {
		prev, cur := in.Float32s(i-1), in.Float32s(i)
		var sum float64
		for j := range cur {
			d := float64(cur[j]) - float64(prev[j])
			sum += d * d
		}
		out.Float32s(i)[0] = float32(math.Sqrt(sum))
	}
	return nil
}

func init() {
	sfe.Register(func() sfe.Transform {
		return newComplexReduce("ComplexMagnitude",
			"Calculates the magnitude of each complex bin.",
			func(re, im float32) float32 {
				return float32(math.Sqrt(float64(re)*float64(re) + float64(im)*float64(im)))
			})
	})
	sfe.Register(func() sfe.Transform {
		return newComplexReduce("SpectralEnergy",
			"Calculates the squared magnitude of each complex bin.",
			func(re, im float32) float32 { return re*re + im*im })
	})
	sfe.Register(func() sfe.Transform {
		return newSingleFeature("Centroid",
			"Calculates the spectral centroid, the energy-weighted mean frequency.",
			centroid)
	})
	sfe.Register(func() sfe.Transform {
		t := newSingleFeature("Rolloff",
			"Calculates the frequency below which \"ratio\" of the spectrum energy lies.",
			nil)
		t.Declare(sfe.Descriptor{
			Name:        "ratio",
			Description: "The spectral energy fraction below the rolloff point.",
			Default:     "0.85",
		}, sfe.ValidFloat(func(v float64) bool { return v > 0 && v < 1 }))
		t.calc = func(t *singleFeature, in *sfe.BufferSet, i int) float32 {
			return rolloffAt(t.FloatParam("ratio"))(t, in, i)
		}
		return t
	})
	sfe.Register(func() sfe.Transform {
		return newSingleFeature("SFM",
			"Calculates the spectral flatness measure, the geometric to arithmetic mean ratio.",
			sfm)
	})
	sfe.Register(func() sfe.Transform { return newFlux() })
}
