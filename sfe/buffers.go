// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

import (
	"fmt"
	"unsafe"
)

// A BufferSet is a handle onto count payload slots, each of
// format.AlignedByteSize bytes, contiguous in memory. Handles produced
// by the allocation planner point into the engine's shared backing
// block and may alias other handles whose lifetimes do not overlap;
// handles from NewBufferSet own their memory.
type BufferSet struct {
	format *Format
	count  int
	data   []byte
}

// NewBufferSet allocates a standalone set of count slots of f. It is
// used for the engine's root input and in tests; edge buffers inside a
// prepared engine come from the planner instead.
func NewBufferSet(f *Format, count int) *BufferSet {
	return &BufferSet{
		format: f,
		count:  count,
		data:   make([]byte, count*f.AlignedByteSize()),
	}
}

// viewBufferSet wraps a window of the backing block. data must hold
// count*f.AlignedByteSize() bytes.
func viewBufferSet(f *Format, count int, data []byte) *BufferSet {
	need := count * f.AlignedByteSize()
	if len(data) < need {
		panic(fmt.Sprintf("backing window too small: %d < %d", len(data), need))
	}
	return &BufferSet{format: f, count: count, data: data[:need]}
}

func (s *BufferSet) Format() *Format { return s.format }
func (s *BufferSet) Count() int      { return s.count }

// Stride is the byte distance between consecutive slots.
func (s *BufferSet) Stride() int { return s.format.AlignedByteSize() }

func (s *BufferSet) raw(i int) []byte {
	st := s.Stride()
	return s.data[i*st : i*st+s.format.UnalignedByteSize()]
}

// Slice returns a view of slots [start, start+count). The view shares
// memory with s.
func (s *BufferSet) Slice(start, count int) *BufferSet {
	if start < 0 || count < 0 || start+count > s.count {
		panic(fmt.Sprintf("slice [%d, %d) out of buffer set of %d", start, start+count, s.count))
	}
	st := s.Stride()
	return &BufferSet{format: s.format, count: count, data: s.data[start*st : (start+count)*st]}
}

// Float32s returns slot i as a float32 slice of the format's semantic
// size. The slice aliases the underlying storage.
func (s *BufferSet) Float32s(i int) []float32 {
	if s.format.kind != KindFloat32 {
		panic("buffer set is not float32")
	}
	b := s.raw(i)
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), s.format.size)
}

// Int16s returns slot i as an int16 slice.
func (s *BufferSet) Int16s(i int) []int16 {
	if s.format.kind != KindInt16 {
		panic("buffer set is not int16")
	}
	b := s.raw(i)
	return unsafe.Slice((*int16)(unsafe.Pointer(&b[0])), s.format.size)
}

// Int32s returns slot i as an int32 slice.
func (s *BufferSet) Int32s(i int) []int32 {
	if s.format.kind != KindInt32 {
		panic("buffer set is not int32")
	}
	b := s.raw(i)
	return unsafe.Slice((*int32)(unsafe.Pointer(&b[0])), s.format.size)
}

// Zero clears every slot.
func (s *BufferSet) Zero() {
	for i := range s.data {
		s.data[i] = 0
	}
}

// EqualData reports whether s and other hold element-wise identical
// payloads of the same shape.
func (s *BufferSet) EqualData(other *BufferSet) bool {
	if s.count != other.count || s.format.size != other.format.size ||
		s.format.kind != other.format.kind {
		return false
	}
	for i := 0; i < s.count; i++ {
		a, b := s.raw(i), other.raw(i)
		for j := range a {
			if a[j] != b[j] {
				return false
			}
		}
	}
	return true
}
