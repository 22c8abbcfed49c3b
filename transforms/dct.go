// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transforms

import (
	"github.com/aclements/go-soundfeat/internal/dsp"
	"github.com/aclements/go-soundfeat/sfe"
)

// DCT and IDCT: the orthonormal type-II discrete cosine transform and
// its inverse (type III). The pair round-trips exactly, which the
// engine's inverse-idempotence property relies on.

type dct struct {
	sfe.UniformBase
	inverse bool
	kernel  *dsp.DCT
}

func newDCT(inverse bool) *dct {
	t := &dct{inverse: inverse}
	if inverse {
		t.TransformName = "IDCT"
		t.TransformDescription = "Performs the inverse (type III) discrete cosine transform."
	} else {
		t.TransformName = "DCT"
		t.TransformDescription = "Performs the type II discrete cosine transform."
	}
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	t.Declare(threadsDescriptor())
	return t
}

func (t *dct) Initialize() error {
	t.kernel = dsp.NewDCT(t.In.Size())
	return nil
}

func (t *dct) Do(in, out *sfe.BufferSet) error {
	return sfe.ForEachBuffer(in.Count(), t.IntParam("threads_num"), func(i int) error {
		if t.inverse {
			t.kernel.Inverse(in.Float32s(i), out.Float32s(i))
		} else {
			t.kernel.Forward(in.Float32s(i), out.Float32s(i))
		}
		return nil
	})
}

func init() {
	sfe.Register(func() sfe.Transform { return newDCT(false) })
	sfe.Register(func() sfe.Transform { return newDCT(true) })
}
