// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transforms

import (
	"github.com/aclements/go-soundfeat/internal/dsp"
	"github.com/aclements/go-soundfeat/sfe"
)

// FilterBank convolves a real spectrum with "number" triangular
// filters spaced uniformly in the chosen psychoacoustic scale over
// [frequency_min, frequency_max], producing one energy per filter.
// squared=true squares the triangle slopes, the variant MFCC pipelines
// use on power spectra.
type filterBank struct {
	sfe.TransformBase
	bank []dsp.TriangularFilter
}

var scaleNames = map[string]dsp.Scale{
	"linear": dsp.ScaleLinear,
	"mel":    dsp.ScaleMel,
	"bark":   dsp.ScaleBark,
	"midi":   dsp.ScaleMidi,
}

func newFilterBank() *filterBank {
	t := &filterBank{}
	t.TransformName = "FilterBank"
	t.TransformDescription = "Applies a triangular filter bank in the specified frequency scale."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	t.Declare(sfe.Descriptor{
		Name:        "number",
		Description: "The number of triangular filters.",
		Default:     "40",
	}, sfe.ValidInt(func(v int) bool { return v >= 2 }))
	t.Declare(sfe.Descriptor{
		Name:        "type",
		Description: "The frequency scale. One of \"linear\", \"mel\", \"bark\" or \"midi\".",
		Default:     "mel",
	}, sfe.ValidEnum("linear", "mel", "bark", "midi"))
	t.Declare(sfe.Descriptor{
		Name:        "frequency_min",
		Description: "The center of the first filter in Hz.",
		Default:     "100",
	}, sfe.ValidFloat(func(v float64) bool { return v > 0 }))
	t.Declare(sfe.Descriptor{
		Name:        "frequency_max",
		Description: "The center of the last filter in Hz.",
		Default:     "6000",
	}, sfe.ValidFloat(func(v float64) bool { return v > 0 }))
	t.Declare(sfe.Descriptor{
		Name:        "squared",
		Description: "Use squared triangle slopes.",
		Default:     "false",
	}, sfe.ValidBool())
	t.Declare(threadsDescriptor())
	return t
}

func (t *filterBank) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	t.In = f
	t.Out = sfe.ArrayFloat32(t.IntParam("number"), f.SamplingRate())
	return buffersIn, nil
}

func (t *filterBank) Initialize() error {
	t.bank = dsp.TriangularBank(
		scaleNames[t.StringParam("type")],
		t.IntParam("number"),
		t.In.Size(),
		t.FloatParam("frequency_min"),
		t.FloatParam("frequency_max"),
		float64(t.In.SamplingRate())/2,
		t.BoolParam("squared"))
	return nil
}

func (t *filterBank) SliceSafe() bool { return true }

func (t *filterBank) Do(in, out *sfe.BufferSet) error {
	return sfe.ForEachBuffer(in.Count(), t.IntParam("threads_num"), func(i int) error {
		src, dst := in.Float32s(i), out.Float32s(i)
		for k, filter := range t.bank {
			var sum float64
			for b, w := range filter.Weights {
				sum += w * float64(src[filter.Start+b])
			}
			dst[k] = float32(sum)
		}
		return nil
	})
}

func init() {
	sfe.Register(func() sfe.Transform { return newFilterBank() })
}
