// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transforms

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/window"

	"github.com/aclements/go-soundfeat/sfe"
)

// Window splits the raw stream into overlapping windows of "length"
// samples every "step" samples, applying the window function "type".
// One input buffer of S samples yields floor((S-length)/step)+1
// windows; with interleaved=true windows from sequential input buffers
// are interleaved in the output, matching what WindowMerge expects.

const (
	defaultWindowLength = 512
	defaultWindowStep   = 205
)

type windowSplitter struct {
	sfe.TransformBase
	table []float32
}

func declareWindowParams(b *sfe.TransformBase) {
	b.Declare(sfe.Descriptor{
		Name:        "length",
		Description: "Window size in samples.",
		Default:     fmt.Sprint(defaultWindowLength),
	}, sfe.ValidInt(func(v int) bool { return v >= 2 }))
	b.Declare(sfe.Descriptor{
		Name:        "step",
		Description: "Distance between sequential windows in samples.",
		Default:     fmt.Sprint(defaultWindowStep),
	}, sfe.ValidInt(func(v int) bool { return v >= 1 }))
	b.Declare(sfe.Descriptor{
		Name:        "type",
		Description: "Type of the window. E.g. \"rectangular\" or \"hamming\".",
		Default:     "hamming",
	}, sfe.ValidEnum("rectangular", "hamming", "hanning", "blackman"))
	b.Declare(sfe.Descriptor{
		Name:        "interleaved",
		Description: "Interleave windows from sequential input buffers.",
		Default:     "true",
	}, sfe.ValidBool())
	b.Declare(threadsDescriptor())
}

func newWindowF() *windowSplitter {
	t := &windowSplitter{}
	t.TransformName = "Window"
	t.TransformDescription = "Splits the raw input signal into numerous windows " +
		"stepping \"step\" samples with length \"length\" samples of type \"type\"."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	declareWindowParams(&t.TransformBase)
	return t
}

func (t *windowSplitter) windowsPerBuffer() int {
	return (t.In.Size()-t.Out.Size())/t.IntParam("step") + 1
}

func (t *windowSplitter) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	length := t.IntParam("length")
	if length > f.Size() {
		return 0, &sfe.InvalidValueError{Field: "length", Value: fmt.Sprint(length), Class: t.Name()}
	}
	t.In = f
	out := f.Clone()
	out.SetSize(length)
	t.Out = out
	return t.windowsPerBuffer() * buffersIn, nil
}

func (t *windowSplitter) Initialize() error {
	t.table = windowTable(t.StringParam("type"), t.Out.Size())
	return nil
}

// Interleaved output of a sub-range of inputs is not a contiguous
// output range, so only the grouped layout may be sliced.
func (t *windowSplitter) SliceSafe() bool { return !t.BoolParam("interleaved") }

func (t *windowSplitter) Do(in, out *sfe.BufferSet) error {
	length, step := t.Out.Size(), t.IntParam("step")
	wc := t.windowsPerBuffer()
	interleaved := t.BoolParam("interleaved")
	return sfe.ForEachBuffer(in.Count(), t.IntParam("threads_num"), func(i int) error {
		src := in.Float32s(i)
		for j := 0; j < wc; j++ {
			oi := i*wc + j
			if interleaved {
				oi = j*in.Count() + i
			}
			dst := out.Float32s(oi)
			copy(dst, src[j*step:j*step+length])
			if t.table != nil {
				for k := range dst {
					dst[k] *= t.table[k]
				}
			}
		}
		return nil
	})
}

// windowSplitter16 is the int16 flavor; the window function is applied
// in the float domain and the result converted back.
type windowSplitter16 struct {
	windowSplitter
}

func newWindow16() *windowSplitter16 {
	t := &windowSplitter16{}
	t.TransformName = "Window"
	t.TransformDescription = "Splits the raw input signal into numerous windows " +
		"stepping \"step\" samples with length \"length\" samples of type \"type\"."
	t.In = sfe.ArrayInt16(0, placeholderRate)
	declareWindowParams(&t.TransformBase)
	return t
}

func (t *windowSplitter16) Do(in, out *sfe.BufferSet) error {
	length, step := t.Out.Size(), t.IntParam("step")
	wc := t.windowsPerBuffer()
	interleaved := t.BoolParam("interleaved")
	return sfe.ForEachBuffer(in.Count(), t.IntParam("threads_num"), func(i int) error {
		src := in.Int16s(i)
		for j := 0; j < wc; j++ {
			oi := i*wc + j
			if interleaved {
				oi = j*in.Count() + i
			}
			dst := out.Int16s(oi)
			if t.table == nil {
				copy(dst, src[j*step:j*step+length])
				continue
			}
			for k := 0; k < length; k++ {
				dst[k] = clampInt16(float32(src[j*step+k]) * t.table[k])
			}
		}
		return nil
	})
}

// windowTable returns the window coefficients, or nil for rectangular.
func windowTable(typ string, length int) []float32 {
	if typ == "rectangular" {
		return nil
	}
	ones := make([]float64, length)
	for i := range ones {
		ones[i] = 1
	}
	switch typ {
	case "hamming":
		window.Hamming(ones)
	case "hanning":
		window.Hann(ones)
	case "blackman":
		window.Blackman(ones)
	default:
		panic("unknown window type " + typ)
	}
	table := make([]float32, length)
	for i, v := range ones {
		table[i] = float32(v)
	}
	return table
}

// WindowMerge reassembles the stream a Window split apart. With W
// windows per output buffer it emits "count" buffers of
// S + (W-1)*step samples each, taking the central step-sized span of
// every interior window.
type windowMerge struct {
	sfe.TransformBase
}

func newWindowMerge() *windowMerge {
	t := &windowMerge{}
	t.TransformName = "WindowMerge"
	t.TransformDescription = "Merges overlapping windows back into a continuous signal."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	t.Declare(sfe.Descriptor{
		Name:        "step",
		Description: "Distance between sequential windows in samples.",
		Default:     fmt.Sprint(defaultWindowStep),
	}, sfe.ValidInt(func(v int) bool { return v >= 1 }))
	t.Declare(sfe.Descriptor{
		Name:        "count",
		Description: "The resulting amount of buffers.",
		Default:     "1",
	}, sfe.ValidInt(func(v int) bool { return v >= 1 }))
	t.Declare(sfe.Descriptor{
		Name:        "interleaved",
		Description: "Treat the windows as interleaved.",
		Default:     "true",
	}, sfe.ValidBool())
	return t
}

func (t *windowMerge) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	count := t.IntParam("count")
	if buffersIn%count != 0 {
		return 0, &sfe.InvalidValueError{Field: "count", Value: fmt.Sprint(count), Class: t.Name()}
	}
	t.In = f
	wc := buffersIn / count
	out := f.Clone()
	out.SetSize(f.Size() + (wc-1)*t.IntParam("step"))
	t.Out = out
	return count, nil
}

func (t *windowMerge) Do(in, out *sfe.BufferSet) error {
	length := t.In.Size()
	step := t.IntParam("step")
	count := t.IntParam("count")
	interleaved := t.BoolParam("interleaved")
	wc := in.Count() / count
	offset := (length - step) / 2
	for i := 0; i < in.Count(); i++ {
		var oi, wi int
		if interleaved {
			oi = i % count
			wi = (i / count) % wc
		} else {
			oi = i / wc
			wi = i % wc
		}
		src, dst := in.Float32s(i), out.Float32s(oi)
		switch {
		case wi == 0:
			copy(dst[:length-offset], src[:length-offset])
		case wi < wc-1:
			copy(dst[length-offset+step*(wi-1):], src[offset:offset+step])
		default:
			copy(dst[length-offset+step*(wi-1):], src[offset:])
		}
	}
	return nil
}

func init() {
	sfe.Register(func() sfe.Transform { return newWindowF() })
	sfe.Register(func() sfe.Transform { return newWindow16() })
	sfe.Register(func() sfe.Transform { return newWindowMerge() })
}
