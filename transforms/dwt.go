// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transforms

import (
	"fmt"

	"github.com/aclements/go-soundfeat/internal/dsp"
	"github.com/aclements/go-soundfeat/sfe"
)

// DWT performs a wavelet packet decomposition of each buffer. The
// "tree" parameter is the packet tree fingerprint: the depth of every
// leaf in depth-first order, so "3 3 3 3 2 2" splits the buffer into
// four eighth-band and two quarter-band subbands. The subbands are
// written back to back, keeping the buffer size unchanged. IDWT
// reconstructs the signal from the same packet layout; the two
// round-trip exactly for matching parameters.
type dwt struct {
	sfe.UniformBase
	inverse bool
	lo, hi  []float64
}

var waveletNames = map[string]dsp.WaveletType{
	"daub": dsp.WaveletDaubechies,
	"coif": dsp.WaveletCoiflet,
	"sym":  dsp.WaveletSymlet,
}

func newDWT(inverse bool) *dwt {
	t := &dwt{inverse: inverse}
	if inverse {
		t.TransformName = "IDWT"
		t.TransformDescription = "Reconstructs the signal from a discrete wavelet packet decomposition."
	} else {
		t.TransformName = "DWT"
		t.TransformDescription = "Performs a discrete wavelet packet decomposition."
	}
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	t.Declare(sfe.Descriptor{
		Name:        "type",
		Description: "The wavelet family: \"daub\", \"coif\" or \"sym\".",
		Default:     "daub",
	}, sfe.ValidEnum("daub", "coif", "sym"))
	t.Declare(sfe.Descriptor{
		Name:        "order",
		Description: "The wavelet order (vanishing moments).",
		Default:     "2",
	}, sfe.ValidInt(func(v int) bool { return v >= 1 && v <= 4 }))
	t.Declare(sfe.Descriptor{
		Name:        "tree",
		Description: "The packet tree fingerprint: leaf depths in depth-first order.",
		Default:     "3 3 3 3 2 2",
	}, sfe.ValidIntList(func(v int) bool { return v >= 1 && v <= 16 }))
	t.Declare(threadsDescriptor())
	return t
}

func (t *dwt) BufferInvariant() bool { return false }

func (t *dwt) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	tree := t.IntListParam("tree")
	if err := checkTree(tree); err != nil {
		return 0, &sfe.InvalidValueError{Field: "tree", Value: t.StringParam("tree"), Class: t.Name()}
	}
	maxDepth := 0
	for _, d := range tree {
		if d > maxDepth {
			maxDepth = d
		}
	}
	if f.Size()%(1<<maxDepth) != 0 {
		return 0, &sfe.InvalidValueError{Field: "tree", Value: t.StringParam("tree"), Class: t.Name()}
	}
	t.In = f.Clone()
	t.Out = f.Clone()
	return buffersIn, nil
}

// checkTree verifies the fingerprint describes a complete binary
// packet tree: the leaf widths 2^-depth must sum to exactly 1 in
// depth-first order.
func checkTree(tree []int) error {
	rest, err := consumeTree(tree, 0)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("fingerprint has %d extra leaves", len(rest))
	}
	return nil
}

func consumeTree(tree []int, depth int) ([]int, error) {
	if len(tree) == 0 {
		return nil, fmt.Errorf("fingerprint ends before the tree is complete")
	}
	if tree[0] < depth {
		return nil, fmt.Errorf("leaf depth %d above the current level %d", tree[0], depth)
	}
	if tree[0] == depth {
		return tree[1:], nil
	}
	rest, err := consumeTree(tree, depth+1)
	if err != nil {
		return nil, err
	}
	return consumeTree(rest, depth+1)
}

func (t *dwt) Initialize() error {
	lo, err := dsp.Lowpass(waveletNames[t.StringParam("type")], t.IntParam("order"))
	if err != nil {
		return err
	}
	t.lo = lo
	t.hi = dsp.Highpass(lo)
	return nil
}

func (t *dwt) Do(in, out *sfe.BufferSet) error {
	tree := t.IntListParam("tree")
	return sfe.ForEachBuffer(in.Count(), t.IntParam("threads_num"), func(i int) error {
		src := make([]float32, t.In.Size())
		copy(src, in.Float32s(i))
		if t.inverse {
			t.recompose(out.Float32s(i), 0, tree, src)
		} else {
			t.decompose(src, 0, tree, out.Float32s(i))
		}
		return nil
	})
}

// decompose walks the packet tree depth first, splitting with the
// analysis filters until a leaf's depth is reached, then emitting the
// subband.
func (t *dwt) decompose(x []float32, depth int, tree []int, out []float32) ([]int, []float32) {
	if tree[0] == depth {
		copy(out, x)
		return tree[1:], out[len(x):]
	}
	half := len(x) / 2
	a := make([]float32, half)
	d := make([]float32, half)
	dsp.Analyze(t.lo, t.hi, x, a, d)
	tree, out = t.decompose(a, depth+1, tree, out)
	tree, out = t.decompose(d, depth+1, tree, out)
	return tree, out
}

// recompose inverts decompose: it consumes the subbands of in in
// depth-first order and synthesizes them back into x.
func (t *dwt) recompose(x []float32, depth int, tree []int, in []float32) ([]int, []float32) {
	if tree[0] == depth {
		copy(x, in[:len(x)])
		return tree[1:], in[len(x):]
	}
	half := len(x) / 2
	a := make([]float32, half)
	d := make([]float32, half)
	tree, in = t.recompose(a, depth+1, tree, in)
	tree, in = t.recompose(d, depth+1, tree, in)
	dsp.Synthesize(t.lo, t.hi, a, d, x)
	return tree, in
}

func init() {
	sfe.Register(func() sfe.Transform { return newDWT(false) })
	sfe.Register(func() sfe.Transform { return newDWT(true) })
}
