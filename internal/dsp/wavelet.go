// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsp

import "fmt"

// Orthogonal wavelet filter banks with periodic boundary handling.
// The lowpass (scaling) coefficients are the published Daubechies,
// Coiflet and Symlet values; the highpass filter follows from the
// quadrature-mirror relation g[k] = (-1)^k h[L-1-k].

type WaveletType int

const (
	WaveletDaubechies WaveletType = iota
	WaveletCoiflet
	WaveletSymlet
)

var daubechies = map[int][]float64{
	1: {0.7071067811865476, 0.7071067811865476},
	2: {0.48296291314469025, 0.8365163037378079,
		0.22414386804185735, -0.12940952255092145},
	3: {0.3326705529509569, 0.8068915093133388,
		0.4598775021193313, -0.13501102001039084,
		-0.08544127388224149, 0.035226291882100656},
	4: {0.23037781330885523, 0.7148465705525415,
		0.6308807679295904, -0.02798376941698385,
		-0.18703481171888114, 0.030841381835986965,
		0.032883011666982945, -0.010597401784997278},
}

var coiflets = map[int][]float64{
	1: {-0.01565572813546454, -0.0727326195128539,
		0.38486484686420286, 0.8525720202122554,
		0.3378976624578092, -0.0727326195128539},
}

var symlets = map[int][]float64{
	4: {-0.07576571478927333, -0.02963552764599851,
		0.49761866763201545, 0.8037387518059161,
		0.29785779560527736, -0.09921954357684722,
		-0.012603967262037833, 0.0322231006040427},
}

// Lowpass returns the scaling filter for (typ, order). Symlets of
// order <= 3 coincide with the Daubechies filters.
func Lowpass(typ WaveletType, order int) ([]float64, error) {
	var h []float64
	var ok bool
	switch typ {
	case WaveletDaubechies:
		h, ok = daubechies[order]
	case WaveletSymlet:
		if h, ok = symlets[order]; !ok {
			h, ok = daubechies[order]
		}
	case WaveletCoiflet:
		h, ok = coiflets[order]
	}
	if !ok {
		return nil, fmt.Errorf("no wavelet filter for type %d order %d", typ, order)
	}
	return h, nil
}

// Highpass derives the wavelet filter from the scaling filter h.
func Highpass(h []float64) []float64 {
	g := make([]float64, len(h))
	for k := range h {
		g[k] = h[len(h)-1-k]
		if k%2 == 1 {
			g[k] = -g[k]
		}
	}
	return g
}

// Analyze performs one periodic decomposition level of x (even length)
// into approximation a and detail d, each len(x)/2.
func Analyze(h, g []float64, x []float32, a, d []float32) {
	n := len(x)
	half := n / 2
	for i := 0; i < half; i++ {
		var sa, sd float64
		for k := range h {
			v := float64(x[(2*i+k)%n])
			sa += h[k] * v
			sd += g[k] * v
		}
		a[i] = float32(sa)
		d[i] = float32(sd)
	}
}

// Synthesize inverts Analyze: x is overwritten with the periodic
// reconstruction from a and d. Exact for orthonormal banks.
func Synthesize(h, g []float64, a, d []float32, x []float32) {
	n := len(x)
	for i := range x {
		x[i] = 0
	}
	for i := 0; i < n/2; i++ {
		for k := range h {
			j := (2*i + k) % n
			x[j] += float32(h[k]*float64(a[i]) + g[k]*float64(d[i]))
		}
	}
}
