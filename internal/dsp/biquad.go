// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsp

import "math"

// Biquad is one direct-form-I second-order IIR section.
type Biquad struct {
	B0, B1, B2 float64
	A1, A2     float64 // a0 normalized to 1
}

// Cascade is a serial chain of biquads with per-invocation state,
// processing one buffer start to finish. A cascade holds filter
// history, so callers must not share one across concurrent buffers;
// use a handle pool.
type Cascade struct {
	sections []Biquad
	state    [][4]float64 // x1, x2, y1, y2 per section
}

// ButterworthLowpass designs an order-order (even) Butterworth lowpass
// with cutoff freq at sampling rate rate.
func ButterworthLowpass(order int, freq, rate float64) *Cascade {
	return butterworth(order, freq, rate, false)
}

// ButterworthHighpass is the highpass counterpart.
func ButterworthHighpass(order int, freq, rate float64) *Cascade {
	return butterworth(order, freq, rate, true)
}

func butterworth(order int, freq, rate float64, highpass bool) *Cascade {
	n := order / 2
	sections := make([]Biquad, n)
	w0 := 2 * math.Pi * freq / rate
	sin, cos := math.Sin(w0), math.Cos(w0)
	for k := 0; k < n; k++ {
		// Pole pair Q factors of the Butterworth alignment.
		q := 1 / (2 * math.Cos(math.Pi*float64(2*k+1)/float64(2*order)))
		alpha := sin / (2 * q)
		a0 := 1 + alpha
		var b0, b1, b2 float64
		if highpass {
			b0 = (1 + cos) / 2
			b1 = -(1 + cos)
			b2 = (1 + cos) / 2
		} else {
			b0 = (1 - cos) / 2
			b1 = 1 - cos
			b2 = (1 - cos) / 2
		}
		sections[k] = Biquad{
			B0: b0 / a0,
			B1: b1 / a0,
			B2: b2 / a0,
			A1: -2 * cos / a0,
			A2: (1 - alpha) / a0,
		}
	}
	return &Cascade{sections: sections, state: make([][4]float64, n)}
}

// Reset clears the filter history.
func (c *Cascade) Reset() {
	for i := range c.state {
		c.state[i] = [4]float64{}
	}
}

// Filter runs the cascade over x in place.
func (c *Cascade) Filter(x []float32) {
	for s := range c.sections {
		b := &c.sections[s]
		st := &c.state[s]
		x1, x2, y1, y2 := st[0], st[1], st[2], st[3]
		for i, v := range x {
			in := float64(v)
			out := b.B0*in + b.B1*x1 + b.B2*x2 - b.A1*y1 - b.A2*y2
			x2, x1 = x1, in
			y2, y1 = y1, out
			x[i] = float32(out)
		}
		st[0], st[1], st[2], st[3] = x1, x2, y1, y2
	}
}
