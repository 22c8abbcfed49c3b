// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

import (
	"fmt"
	"math"
	"strings"
)

// Element kinds a buffer payload can be made of.
type ElemKind uint8

const (
	KindInt16 ElemKind = 1 + iota
	KindInt32
	KindFloat32
)

func (k ElemKind) size() int {
	switch k {
	case KindInt16:
		return 2
	case KindInt32:
		return 4
	case KindFloat32:
		return 4
	}
	panic(fmt.Sprintf("bad element kind %d", k))
}

// Format identifiers for the built-in payload shapes.
const (
	IDIdentity          = "Identity"
	IDArrayInt16        = "ArrayInt16"
	IDArrayInt32        = "ArrayInt32"
	IDArrayFloat32      = "ArrayFloat32"
	IDArrayComplexFloat = "ArrayComplexFloat32"
	IDSingleFloat32     = "SingleFloat32"
	IDSingleInt32       = "SingleInt32"
)

// Sampling rates the engine accepts, in Hz.
const (
	MinSamplingRate = 2000
	MaxSamplingRate = 48000
)

// bufferAlignment is the boundary every payload slot starts on. 128
// bytes is enough for 256-bit SIMD loads with room to spare.
const bufferAlignment = 128

// A Format describes the payload shape on one edge of the transform
// tree: the element kind, the semantic sample count and the sampling
// rate. The identifier is fixed at construction; size and sampling rate
// are mutable until the tree is frozen.
//
// Two formats compare equal iff their identifiers match or either is
// the Identity sentinel, which lets no-op transforms act as wildcards.
type Format struct {
	id   string
	kind ElemKind
	size int
	rate int
}

// NewFormat returns a format with the given identity and shape. Most
// callers want one of the concrete constructors instead.
func NewFormat(id string, kind ElemKind, size, rate int) *Format {
	f := &Format{id: id, kind: kind, size: size}
	if err := f.SetSamplingRate(rate); err != nil {
		panic(err)
	}
	return f
}

func ArrayInt16(size, rate int) *Format   { return NewFormat(IDArrayInt16, KindInt16, size, rate) }
func ArrayInt32(size, rate int) *Format   { return NewFormat(IDArrayInt32, KindInt32, size, rate) }
func ArrayFloat32(size, rate int) *Format { return NewFormat(IDArrayFloat32, KindFloat32, size, rate) }

// ArrayComplexFloat32 holds interleaved re/im pairs. Size counts floats,
// so a spectrum of m complex bins has size 2m.
func ArrayComplexFloat32(size, rate int) *Format {
	return NewFormat(IDArrayComplexFloat, KindFloat32, size, rate)
}

func SingleFloat32(rate int) *Format { return NewFormat(IDSingleFloat32, KindFloat32, 1, rate) }
func SingleInt32(rate int) *Format   { return NewFormat(IDSingleInt32, KindInt32, 1, rate) }

// Identity is the wildcard sentinel; it equals every other format.
func Identity() *Format { return &Format{id: IDIdentity, kind: KindInt16, rate: MinSamplingRate} }

func (f *Format) ID() string     { return f.id }
func (f *Format) Kind() ElemKind { return f.kind }
func (f *Format) Size() int      { return f.size }
func (f *Format) ElemSize() int  { return f.kind.size() }

func (f *Format) SetSize(size int) {
	if size < 0 {
		panic("negative format size")
	}
	f.size = size
}

func (f *Format) SamplingRate() int { return f.rate }

func (f *Format) SetSamplingRate(rate int) error {
	if rate < MinSamplingRate || rate > MaxSamplingRate {
		return fmt.Errorf("sampling rate %d out of range [%d, %d]",
			rate, MinSamplingRate, MaxSamplingRate)
	}
	f.rate = rate
	return nil
}

// CopySourceDetailsFrom propagates source attributes (the sampling
// rate) from other without touching the shape.
func (f *Format) CopySourceDetailsFrom(other *Format) {
	f.rate = other.rate
}

// UnalignedByteSize is the payload size of one slot in bytes.
func (f *Format) UnalignedByteSize() int { return f.size * f.kind.size() }

// AlignedByteSize rounds UnalignedByteSize up to the slot alignment.
// Every slot in a buffer set occupies this many bytes.
func (f *Format) AlignedByteSize() int {
	return (f.UnalignedByteSize() + bufferAlignment - 1) &^ (bufferAlignment - 1)
}

func (f *Format) Clone() *Format {
	c := *f
	return &c
}

// Equal reports format compatibility: identifiers match, or either side
// is the Identity sentinel.
func (f *Format) Equal(other *Format) bool {
	if f.id == IDIdentity || other.id == IDIdentity {
		return true
	}
	return f.id == other.id
}

func (f *Format) String() string {
	return fmt.Sprintf("%s(%d@%dHz)", f.id, f.size, f.rate)
}

// Validate checks the runtime invariants of every slot in set: float
// payloads must be free of NaN and Inf, and no slot may be all zeros.
// It is invoked by the executor when output validation is enabled.
func (f *Format) Validate(set *BufferSet) error {
	for i := 0; i < set.Count(); i++ {
		if err := f.validateOne(set, i); err != nil {
			return fmt.Errorf("buffer %d of %d: %w", i, set.Count(), err)
		}
	}
	return nil
}

func (f *Format) validateOne(set *BufferSet, i int) error {
	zero := true
	switch f.kind {
	case KindFloat32:
		for j, v := range set.Float32s(i) {
			if math.IsNaN(float64(v)) {
				return fmt.Errorf("NaN at element %d", j)
			}
			if math.IsInf(float64(v), 0) {
				return fmt.Errorf("Inf at element %d", j)
			}
			if v != 0 {
				zero = false
			}
		}
	case KindInt16:
		for _, v := range set.Int16s(i) {
			if v != 0 {
				zero = false
			}
		}
	case KindInt32:
		for _, v := range set.Int32s(i) {
			if v != 0 {
				zero = false
			}
		}
	}
	if zero && f.size > 0 {
		return fmt.Errorf("all %d elements are zero", f.size)
	}
	return nil
}

// Dump renders slot i of set as deterministic text, one element per
// line, for debugging artifacts.
func (f *Format) Dump(set *BufferSet, i int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%d]\n", f.String(), i)
	switch f.kind {
	case KindFloat32:
		for _, v := range set.Float32s(i) {
			fmt.Fprintf(&sb, "%g\n", v)
		}
	case KindInt16:
		for _, v := range set.Int16s(i) {
			fmt.Fprintf(&sb, "%d\n", v)
		}
	case KindInt32:
		for _, v := range set.Int32s(i) {
			fmt.Fprintf(&sb, "%d\n", v)
		}
	}
	return sb.String()
}
