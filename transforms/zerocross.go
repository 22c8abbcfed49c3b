// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transforms

import "github.com/aclements/go-soundfeat/sfe"

// ZeroCrossings counts the sign changes inside each buffer; an exact
// zero counts as a crossing. Registered for both float and int16
// inputs.

type zeroCrossings struct {
	sfe.TransformBase
	count func(in *sfe.BufferSet, i int) int32
}

func newZeroCrossings(input func(size, rate int) *sfe.Format, count func(in *sfe.BufferSet, i int) int32) *zeroCrossings {
	t := &zeroCrossings{count: count}
	t.TransformName = "ZeroCrossings"
	t.TransformDescription = "Counts the number of zero crossings in each buffer."
	t.In = input(0, placeholderRate)
	return t
}

func (t *zeroCrossings) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	t.In = f
	t.Out = sfe.SingleInt32(f.SamplingRate())
	return buffersIn, nil
}

func (t *zeroCrossings) SliceSafe() bool { return true }

func (t *zeroCrossings) Do(in, out *sfe.BufferSet) error {
	for i := 0; i < in.Count(); i++ {
		out.Int32s(i)[0] = t.count(in, i)
	}
	return nil
}

func countFloat(in *sfe.BufferSet, i int) int32 {
	src := in.Float32s(i)
	var res int32
	for j := 1; j < len(src); j++ {
		if src[j] == 0 || src[j]*src[j-1] < 0 {
			res++
		}
	}
	return res
}

func countInt16(in *sfe.BufferSet, i int) int32 {
	src := in.Int16s(i)
	var res int32
	for j := 1; j < len(src); j++ {
		if src[j] == 0 || int32(src[j])*int32(src[j-1]) < 0 {
			res++
		}
	}
	return res
}

func init() {
	sfe.Register(func() sfe.Transform { return newZeroCrossings(sfe.ArrayFloat32, countFloat) })
	sfe.Register(func() sfe.Transform { return newZeroCrossings(sfe.ArrayInt16, countInt16) })
}
