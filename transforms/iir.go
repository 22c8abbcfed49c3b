// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transforms

import (
	"fmt"

	"github.com/aclements/go-soundfeat/internal/dsp"
	"github.com/aclements/go-soundfeat/sfe"
)

// Lowpass and Highpass run a Butterworth biquad cascade over every
// buffer. Cascades carry filter history, so each instance keeps a
// try-lock pool of them for buffer-parallel execution.

type iirFilter struct {
	sfe.UniformBase
	highpass bool
	cascades *sfe.HandlePool[*dsp.Cascade]
}

func newIIR(highpass bool) *iirFilter {
	t := &iirFilter{highpass: highpass}
	if highpass {
		t.TransformName = "Highpass"
		t.TransformDescription = "Filters each buffer with a Butterworth highpass."
	} else {
		t.TransformName = "Lowpass"
		t.TransformDescription = "Filters each buffer with a Butterworth lowpass."
	}
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	t.Declare(sfe.Descriptor{
		Name:        "frequency",
		Description: "The cutoff frequency in Hz.",
		Default:     "4000",
	}, sfe.ValidFloat(func(v float64) bool { return v > 0 }))
	t.Declare(sfe.Descriptor{
		Name:        "order",
		Description: "The filter order. Must be even.",
		Default:     "4",
	}, sfe.ValidInt(func(v int) bool { return v >= 2 && v%2 == 0 }))
	t.Declare(threadsDescriptor())
	return t
}

func (t *iirFilter) Initialize() error {
	freq := t.FloatParam("frequency")
	rate := float64(t.In.SamplingRate())
	if freq >= rate/2 {
		return fmt.Errorf("cutoff %g Hz is at or above the Nyquist frequency %g Hz", freq, rate/2)
	}
	order := t.IntParam("order")
	t.cascades = sfe.NewHandlePool(sfe.MaxWorkers(), func() *dsp.Cascade {
		if t.highpass {
			return dsp.ButterworthHighpass(order, freq, rate)
		}
		return dsp.ButterworthLowpass(order, freq, rate)
	})
	return nil
}

func (t *iirFilter) Do(in, out *sfe.BufferSet) error {
	return sfe.ForEachBuffer(in.Count(), t.IntParam("threads_num"), func(i int) error {
		c, release := t.cascades.Acquire()
		defer release()
		c.Reset()
		dst := out.Float32s(i)
		copy(dst, in.Float32s(i))
		c.Filter(dst)
		return nil
	})
}

func init() {
	sfe.Register(func() sfe.Transform { return newIIR(false) })
	sfe.Register(func() sfe.Transform { return newIIR(true) })
}
