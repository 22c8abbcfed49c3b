// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transforms

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/aclements/go-soundfeat/sfe"
)

// RDFT computes the real discrete Fourier transform of every buffer.
// A length-n input yields 2*(n/2+1) reals: interleaved re/im pairs up
// to and including the Nyquist bin (n+2 values for even n). IRDFT
// consumes the same layout and restores the time-domain signal.
//
// FFT plans are stateful, so each instance keeps a try-lock pool of
// plans sized to the worker fan-out.

type rdft struct {
	sfe.TransformBase
	plans *sfe.HandlePool[*fourier.FFT]
}

func newRDFT() *rdft {
	t := &rdft{}
	t.TransformName = "RDFT"
	t.TransformDescription = "Performs a real-to-complex discrete Fourier transform."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	t.Declare(threadsDescriptor())
	return t
}

func (t *rdft) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	t.In = f
	t.Out = sfe.ArrayComplexFloat32(2*(f.Size()/2+1), f.SamplingRate())
	return buffersIn, nil
}

func (t *rdft) Initialize() error {
	n := t.In.Size()
	t.plans = sfe.NewHandlePool(sfe.MaxWorkers(), func() *fourier.FFT {
		return fourier.NewFFT(n)
	})
	return nil
}

func (t *rdft) SliceSafe() bool { return true }

func (t *rdft) Do(in, out *sfe.BufferSet) error {
	n := t.In.Size()
	return sfe.ForEachBuffer(in.Count(), t.IntParam("threads_num"), func(i int) error {
		fft, release := t.plans.Acquire()
		defer release()
		seq := make([]float64, n)
		for j, v := range in.Float32s(i) {
			seq[j] = float64(v)
		}
		coeff := fft.Coefficients(nil, seq)
		dst := out.Float32s(i)
		for j, c := range coeff {
			dst[2*j] = float32(real(c))
			dst[2*j+1] = float32(imag(c))
		}
		return nil
	})
}

type irdft struct {
	sfe.TransformBase
	plans *sfe.HandlePool[*fourier.FFT]
}

func newIRDFT() *irdft {
	t := &irdft{}
	t.TransformName = "IRDFT"
	t.TransformDescription = "Performs a complex-to-real inverse discrete Fourier transform."
	t.In = sfe.ArrayComplexFloat32(0, placeholderRate)
	t.Declare(threadsDescriptor())
	return t
}

func (t *irdft) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	if f.Size() < 4 || f.Size()%2 != 0 {
		return 0, fmt.Errorf("IRDFT input must hold interleaved complex pairs, got size %d", f.Size())
	}
	t.In = f
	// The forward convention packs n/2+1 complex bins, so the time
	// domain length is recovered as 2*(bins-1) (even lengths).
	t.Out = sfe.ArrayFloat32(f.Size()-2, f.SamplingRate())
	return buffersIn, nil
}

func (t *irdft) Initialize() error {
	n := t.Out.Size()
	t.plans = sfe.NewHandlePool(sfe.MaxWorkers(), func() *fourier.FFT {
		return fourier.NewFFT(n)
	})
	return nil
}

func (t *irdft) SliceSafe() bool { return true }

func (t *irdft) Do(in, out *sfe.BufferSet) error {
	n := t.Out.Size()
	return sfe.ForEachBuffer(in.Count(), t.IntParam("threads_num"), func(i int) error {
		fft, release := t.plans.Acquire()
		defer release()
		src := in.Float32s(i)
		coeff := make([]complex128, len(src)/2)
		for j := range coeff {
			coeff[j] = complex(float64(src[2*j]), float64(src[2*j+1]))
		}
		seq := fft.Sequence(nil, coeff)
		dst := out.Float32s(i)
		inv := 1 / float64(n)
		for j := 0; j < n; j++ {
			dst[j] = float32(seq[j] * inv)
		}
		return nil
	})
}

func init() {
	sfe.Register(func() sfe.Transform { return newRDFT() })
	sfe.Register(func() sfe.Transform { return newIRDFT() })
}
