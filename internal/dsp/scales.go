// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsp

import "math"

// Psychoacoustic frequency scales. ToScale maps a linear frequency in
// Hz onto the scale; FromScale is its inverse. Both are monotonic over
// the audio band.
type Scale int

const (
	ScaleLinear Scale = iota
	ScaleMel
	ScaleBark
	ScaleMidi
)

func (s Scale) ToScale(freq float64) float64 {
	switch s {
	case ScaleLinear:
		return freq
	case ScaleMel:
		return 1127 * math.Log(1+freq/700)
	case ScaleBark:
		return 8.96 * math.Log(0.978+5*math.Log(0.994+math.Pow((freq+75.4)/2173, 1.347)))
	case ScaleMidi:
		return 69 + 12*math.Log2(freq/440)
	}
	panic("unknown scale")
}

func (s Scale) FromScale(value float64) float64 {
	switch s {
	case ScaleLinear:
		return value
	case ScaleMel:
		return 700 * (math.Exp(value/1127) - 1)
	case ScaleBark:
		return 2173*math.Pow(math.Exp((math.Exp(value/8.96)-0.978)/5)-0.994, 1/1.347) - 75.4
	case ScaleMidi:
		return 440 * math.Pow(2, (value-69)/12)
	}
	panic("unknown scale")
}

// TriangularFilter is one filter of a bank: weights over the spectral
// bins [Start, Start+len(Weights)).
type TriangularFilter struct {
	Start   int
	Weights []float64
}

// TriangularBank builds count filters with triangles spaced uniformly
// in scale space over [minFreq, maxFreq] and evaluated over bins
// (linear frequency space, bins bins covering [0, nyquist]). squared
// squares every weight. The triangles overlap by half their width, the
// classic construction behind mel filter banks.
func TriangularBank(s Scale, count, bins int, minFreq, maxFreq, nyquist float64, squared bool) []TriangularFilter {
	scaleMin := s.ToScale(minFreq)
	scaleMax := s.ToScale(maxFreq)
	dsc := (scaleMax - scaleMin) / float64(count-1)
	df := nyquist / float64(bins-1)

	bank := make([]TriangularFilter, count)
	for i := range bank {
		center := scaleMin + dsc*float64(i)
		halfWidth := dsc
		left := s.FromScale(center - halfWidth)
		right := s.FromScale(center + halfWidth)

		lo := int(math.Ceil(left / df))
		if lo < 0 {
			lo = 0
		}
		hi := int(math.Ceil(right / df))
		if hi > bins {
			hi = bins
		}
		if hi <= lo {
			hi = lo + 1
			if hi > bins {
				lo, hi = bins-1, bins
			}
		}
		w := make([]float64, hi-lo)
		for b := lo; b < hi; b++ {
			pos := s.ToScale(float64(b) * df)
			var ratio float64
			if pos <= center {
				// Left slope, rising through the scale-space triangle.
				ratio = (pos - center + halfWidth) / halfWidth
			} else {
				ratio = 1 - (pos-center)/halfWidth
			}
			if ratio < 0 {
				ratio = 0
			}
			if squared {
				ratio *= ratio
			}
			w[b-lo] = ratio
		}
		bank[i] = TriangularFilter{Start: lo, Weights: w}
	}
	return bank
}
