// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

// A Transform binds a concrete algorithm to one input format, one
// output format derived from it, and a per-instance parameter map.
//
// SetInputFormat stores the input format, derives the output format
// from it and the parameters, and returns the number of output buffers
// produced for buffersIn input buffers (>buffersIn for splitters,
// <buffersIn for mergers). It must be recomputable: the engine may call
// it again with a different buffer count when a deduplicated instance
// is shared between branches.
//
// Two instances of the same class with equal parameter maps and equal
// input formats are observationally equivalent; the engine deduplicates
// them, so Do must treat the instance's state as read-only after
// Initialize. Per-invocation scratch belongs on the stack or in a
// try-lock handle pool (see HandlePool).
type Transform interface {
	Name() string
	Description() string

	InputFormat() *Format
	OutputFormat() *Format
	SetInputFormat(f *Format, buffersIn int) (buffersOut int, err error)

	// Initialize is called once after formats settle and may precompute
	// tables.
	Initialize() error

	// Do runs the kernel over every slot of in, writing out.
	Do(in, out *BufferSet) error

	SupportedParameters() map[string]Descriptor
	SetParameter(name, value string) error
	Parameters() map[string]string

	// BufferInvariant reports that the output may safely alias the
	// input, letting the planner reuse the parent's memory.
	BufferInvariant() bool

	// SliceSafe reports that Do processes each buffer independently, so
	// the engine may invoke it over contiguous sub-ranges to cap peak
	// memory.
	SliceSafe() bool
}

// TransformBase carries the bookkeeping shared by every transform
// class: identity, formats and the parameter store. Concrete transforms
// embed it (or UniformBase) and implement SetInputFormat, Initialize
// and Do.
type TransformBase struct {
	TransformName        string
	TransformDescription string

	In, Out *Format

	descriptors map[string]Descriptor
	validators  map[string]Validator
	values      map[string]string
}

// Declare registers a supported parameter with its validator (nil for
// always-valid).
func (b *TransformBase) Declare(d Descriptor, v Validator) {
	if b.descriptors == nil {
		b.descriptors = make(map[string]Descriptor)
		b.validators = make(map[string]Validator)
	}
	b.descriptors[d.Name] = d
	b.validators[d.Name] = v
}

func (b *TransformBase) Name() string        { return b.TransformName }
func (b *TransformBase) Description() string { return b.TransformDescription }

func (b *TransformBase) InputFormat() *Format  { return b.In }
func (b *TransformBase) OutputFormat() *Format { return b.Out }

func (b *TransformBase) SupportedParameters() map[string]Descriptor { return b.descriptors }

func (b *TransformBase) SetParameter(name, value string) error {
	d, ok := b.descriptors[name]
	if !ok {
		return &UnknownParameterError{Name: name, Class: b.TransformName}
	}
	if v := b.validators[d.Name]; v != nil {
		if err := v(value); err != nil {
			return &InvalidValueError{Field: name, Value: value, Class: b.TransformName}
		}
	}
	if b.values == nil {
		b.values = make(map[string]string)
	}
	b.values[name] = value
	return nil
}

// Parameters returns the effective parameter map: every declared
// parameter with its stored value, or the default when unset. Instances
// that were configured to their defaults explicitly therefore compare
// equal to untouched ones.
func (b *TransformBase) Parameters() map[string]string {
	m := make(map[string]string, len(b.descriptors))
	for name, d := range b.descriptors {
		if v, ok := b.values[name]; ok {
			m[name] = v
		} else {
			m[name] = d.Default
		}
	}
	return m
}

func (b *TransformBase) param(name string) string {
	if v, ok := b.values[name]; ok {
		return v
	}
	d, ok := b.descriptors[name]
	if !ok {
		panic("undeclared parameter " + name)
	}
	return d.Default
}

// Typed parameter accessors.
func (b *TransformBase) IntParam(name string) int       { return mustInt(b.param(name)) }
func (b *TransformBase) FloatParam(name string) float64 { return mustFloat(b.param(name)) }
func (b *TransformBase) BoolParam(name string) bool     { return mustBool(b.param(name)) }
func (b *TransformBase) StringParam(name string) string { return b.param(name) }
func (b *TransformBase) IntListParam(name string) []int { return mustIntList(b.param(name)) }

// Defaults; concrete transforms override as needed.
func (b *TransformBase) Initialize() error     { return nil }
func (b *TransformBase) BufferInvariant() bool { return false }
func (b *TransformBase) SliceSafe() bool       { return false }

// UniformBase is the ready-made helper for uniform-format transforms:
// the output format is a copy of the input, the buffer count is
// preserved, and the output may alias the input.
type UniformBase struct {
	TransformBase
}

func (u *UniformBase) SetInputFormat(f *Format, buffersIn int) (int, error) {
	u.In = f.Clone()
	u.Out = f.Clone()
	return buffersIn, nil
}

func (u *UniformBase) BufferInvariant() bool { return true }
func (u *UniformBase) SliceSafe() bool       { return true }

// rootTransform anchors the tree; its input and output format is the
// original waveform format and its Do is the identity.
type rootTransform struct {
	TransformBase
}

func newRootTransform(f *Format) *rootTransform {
	t := &rootTransform{}
	t.TransformName = "!Root"
	t.TransformDescription = "The root for all other transforms."
	t.In = f
	t.Out = f
	return t
}

func (t *rootTransform) SetInputFormat(f *Format, buffersIn int) (int, error) {
	t.In = f
	t.Out = f
	return buffersIn, nil
}

func (t *rootTransform) Do(in, out *BufferSet) error { return nil }
