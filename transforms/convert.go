// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transforms

import "github.com/aclements/go-soundfeat/sfe"

// Format converters. The DAG builder interposes these automatically on
// edges where a transform's input format differs from its parent's
// output format; their class names are canonical ("<src> -> <dst>")
// so recipes may also name them explicitly.

type converter struct {
	sfe.TransformBase
	dst  func(size, rate int) *sfe.Format
	conv func(in, out *sfe.BufferSet, i int)
}

func newConverter(src, dst func(size, rate int) *sfe.Format, conv func(in, out *sfe.BufferSet, i int)) *converter {
	t := &converter{dst: dst, conv: conv}
	t.In = src(0, placeholderRate)
	t.Out = dst(0, placeholderRate)
	t.TransformName = sfe.ConverterName(t.In, t.Out)
	t.TransformDescription = "Converts " + t.In.ID() + " into " + t.Out.ID() + "."
	return t
}

func (t *converter) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	t.In = f
	t.Out = t.dst(f.Size(), f.SamplingRate())
	return buffersIn, nil
}

func (t *converter) SliceSafe() bool { return true }

func (t *converter) Do(in, out *sfe.BufferSet) error {
	for i := 0; i < in.Count(); i++ {
		t.conv(in, out, i)
	}
	return nil
}

func init() {
	// int16 <-> float32: plain value casts, no rescaling.
	sfe.Register(func() sfe.Transform {
		return newConverter(sfe.ArrayInt16, sfe.ArrayFloat32, func(in, out *sfe.BufferSet, i int) {
			src, dst := in.Int16s(i), out.Float32s(i)
			for j, v := range src {
				dst[j] = float32(v)
			}
		})
	})
	sfe.Register(func() sfe.Transform {
		return newConverter(sfe.ArrayFloat32, sfe.ArrayInt16, func(in, out *sfe.BufferSet, i int) {
			src, dst := in.Float32s(i), out.Int16s(i)
			for j, v := range src {
				dst[j] = clampInt16(v)
			}
		})
	})
	sfe.Register(func() sfe.Transform {
		return newConverter(sfe.ArrayInt16, sfe.ArrayInt32, func(in, out *sfe.BufferSet, i int) {
			src, dst := in.Int16s(i), out.Int32s(i)
			for j, v := range src {
				dst[j] = int32(v)
			}
		})
	})
	sfe.Register(func() sfe.Transform {
		return newConverter(sfe.ArrayInt32, sfe.ArrayInt16, func(in, out *sfe.BufferSet, i int) {
			src, dst := in.Int32s(i), out.Int16s(i)
			for j, v := range src {
				dst[j] = clampInt16(float32(v))
			}
		})
	})
	sfe.Register(func() sfe.Transform {
		return newConverter(sfe.ArrayInt32, sfe.ArrayFloat32, func(in, out *sfe.BufferSet, i int) {
			src, dst := in.Int32s(i), out.Float32s(i)
			for j, v := range src {
				dst[j] = float32(v)
			}
		})
	})
	sfe.Register(func() sfe.Transform {
		return newConverter(sfe.ArrayFloat32, sfe.ArrayInt32, func(in, out *sfe.BufferSet, i int) {
			src, dst := in.Float32s(i), out.Int32s(i)
			for j, v := range src {
				dst[j] = int32(v)
			}
		})
	})
}

func clampInt16(v float32) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	}
	return int16(v)
}
