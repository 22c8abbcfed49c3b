// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transforms

import (
	"fmt"
	"math"

	"github.com/aclements/go-soundfeat/sfe"
)

// Shape utilities: Log, Preemphasis, Rectify, ZeroPadding,
// Subsampling and Selector.

// logTransform maps every element through log(x*scale + add1), with
// the base selectable. Uniform and in-place safe.
type logTransform struct {
	sfe.UniformBase
}

func newLog() *logTransform {
	t := &logTransform{}
	t.TransformName = "Log"
	t.TransformDescription = "Takes the logarithm of each element."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	t.Declare(sfe.Descriptor{
		Name:        "base",
		Description: "The logarithm base. One of \"e\", \"2\" or \"10\".",
		Default:     "e",
	}, sfe.ValidEnum("e", "2", "10"))
	t.Declare(sfe.Descriptor{
		Name:        "add1",
		Description: "Add 1 before taking the logarithm, keeping zeros finite.",
		Default:     "true",
	}, sfe.ValidBool())
	t.Declare(sfe.Descriptor{
		Name:        "scale",
		Description: "The input scale factor.",
		Default:     "1",
	}, sfe.ValidFloat(func(v float64) bool { return v > 0 }))
	t.Declare(threadsDescriptor())
	return t
}

func (t *logTransform) Do(in, out *sfe.BufferSet) error {
	logf := math.Log
	switch t.StringParam("base") {
	case "2":
		logf = math.Log2
	case "10":
		logf = math.Log10
	}
	scale := t.FloatParam("scale")
	add := 0.0
	if t.BoolParam("add1") {
		add = 1
	}
	return sfe.ForEachBuffer(in.Count(), t.IntParam("threads_num"), func(i int) error {
		src, dst := in.Float32s(i), out.Float32s(i)
		for j, v := range src {
			dst[j] = float32(logf(float64(v)*scale + add))
		}
		return nil
	})
}

// preemphasis applies the first-order highpass y[i] = x[i] - k*x[i-1].
type preemphasis struct {
	sfe.UniformBase
}

func newPreemphasis() *preemphasis {
	t := &preemphasis{}
	t.TransformName = "Preemphasis"
	t.TransformDescription = "Filters the signal with a first-order highpass to flatten the spectrum."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	t.Declare(sfe.Descriptor{
		Name:        "value",
		Description: "The preemphasis coefficient.",
		Default:     "0.9",
	}, sfe.ValidFloat(func(v float64) bool { return v > 0 && v <= 1 }))
	return t
}

func (t *preemphasis) Do(in, out *sfe.BufferSet) error {
	k := float32(t.FloatParam("value"))
	for i := 0; i < in.Count(); i++ {
		src, dst := in.Float32s(i), out.Float32s(i)
		// Walk backwards so the output may alias the input.
		for j := len(src) - 1; j > 0; j-- {
			dst[j] = src[j] - k*src[j-1]
		}
		dst[0] = src[0]
	}
	return nil
}

// rectify replaces every element with its absolute value.
type rectify struct {
	sfe.UniformBase
}

func newRectify() *rectify {
	t := &rectify{}
	t.TransformName = "Rectify"
	t.TransformDescription = "Replaces each element with its absolute value."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	return t
}

func (t *rectify) Do(in, out *sfe.BufferSet) error {
	for i := 0; i < in.Count(); i++ {
		src, dst := in.Float32s(i), out.Float32s(i)
		for j, v := range src {
			dst[j] = float32(math.Abs(float64(v)))
		}
	}
	return nil
}

// zeroPadding extends each buffer with zeros to the next power of two,
// the usual preparation before a fast transform.
type zeroPadding struct {
	sfe.TransformBase
}

func newZeroPadding() *zeroPadding {
	t := &zeroPadding{}
	t.TransformName = "ZeroPadding"
	t.TransformDescription = "Pads each buffer with zeros up to the next power of 2."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	return t
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (t *zeroPadding) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	t.In = f
	out := f.Clone()
	out.SetSize(nextPow2(f.Size()))
	t.Out = out
	return buffersIn, nil
}

func (t *zeroPadding) SliceSafe() bool { return true }

func (t *zeroPadding) Do(in, out *sfe.BufferSet) error {
	for i := 0; i < in.Count(); i++ {
		src, dst := in.Float32s(i), out.Float32s(i)
		n := copy(dst, src)
		for j := n; j < len(dst); j++ {
			dst[j] = 0
		}
	}
	return nil
}

// subsampling keeps every factor-th sample.
type subsampling struct {
	sfe.TransformBase
}

func newSubsampling() *subsampling {
	t := &subsampling{}
	t.TransformName = "Subsampling"
	t.TransformDescription = "Keeps every \"factor\"-th sample of each buffer."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	t.Declare(sfe.Descriptor{
		Name:        "factor",
		Description: "The decimation factor.",
		Default:     "2",
	}, sfe.ValidInt(func(v int) bool { return v >= 1 }))
	return t
}

func (t *subsampling) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	t.In = f
	out := f.Clone()
	out.SetSize(f.Size() / t.IntParam("factor"))
	t.Out = out
	return buffersIn, nil
}

func (t *subsampling) SliceSafe() bool { return true }

func (t *subsampling) Do(in, out *sfe.BufferSet) error {
	factor := t.IntParam("factor")
	for i := 0; i < in.Count(); i++ {
		src, dst := in.Float32s(i), out.Float32s(i)
		for j := range dst {
			dst[j] = src[j*factor]
		}
	}
	return nil
}

// selector picks the specified part of each buffer: "select" values
// anchored left or right, placed into a vector of "length" with the
// remainder zeroed. 0 means "the whole input" and "the whole output"
// respectively.
type selector struct {
	sfe.TransformBase
	length, sel int
}

func newSelector() *selector {
	t := &selector{}
	t.TransformName = "Selector"
	t.TransformDescription = "Selects the specified part of input."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	t.Declare(sfe.Descriptor{
		Name:        "length",
		Description: "The resulting vector length. 0 means the length of the input.",
		Default:     "0",
	}, sfe.ValidInt(func(v int) bool { return v >= 0 }))
	t.Declare(sfe.Descriptor{
		Name:        "select",
		Description: "The length of picked up input values. The rest will be set to zero. 0 means the length of the output.",
		Default:     "0",
	}, sfe.ValidInt(func(v int) bool { return v >= 0 }))
	t.Declare(sfe.Descriptor{
		Name:        "from",
		Description: "The anchor of the selection. Can be either \"left\" or \"right\".",
		Default:     "left",
	}, sfe.ValidEnum("left", "right"))
	return t
}

func (t *selector) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	t.In = f
	t.length = t.IntParam("length")
	if t.length == 0 {
		t.length = f.Size()
	}
	t.sel = t.IntParam("select")
	if t.sel == 0 {
		t.sel = t.length
	}
	if t.sel > f.Size() {
		return 0, &sfe.InvalidValueError{Field: "select", Value: fmt.Sprint(t.sel), Class: t.Name()}
	}
	out := f.Clone()
	out.SetSize(t.length)
	t.Out = out
	return buffersIn, nil
}

func (t *selector) SliceSafe() bool { return true }

func (t *selector) Do(in, out *sfe.BufferSet) error {
	for i := 0; i < in.Count(); i++ {
		src, dst := in.Float32s(i), out.Float32s(i)
		switch t.StringParam("from") {
		case "left":
			copy(dst[:t.sel], src[:t.sel])
			for j := t.sel; j < t.length; j++ {
				dst[j] = 0
			}
		case "right":
			copy(dst[t.length-t.sel:], src[len(src)-t.sel:])
			for j := 0; j < t.length-t.sel; j++ {
				dst[j] = 0
			}
		}
	}
	return nil
}

func init() {
	sfe.Register(func() sfe.Transform { return newLog() })
	sfe.Register(func() sfe.Transform { return newPreemphasis() })
	sfe.Register(func() sfe.Transform { return newRectify() })
	sfe.Register(func() sfe.Transform { return newZeroPadding() })
	sfe.Register(func() sfe.Transform { return newSubsampling() })
	sfe.Register(func() sfe.Transform { return newSelector() })
}
