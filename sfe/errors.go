// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

import (
	"errors"
	"fmt"
)

// The error taxonomy. Every failure the engine surfaces matches one of
// these with errors.Is or errors.As; Category maps an error back to its
// taxonomy name for CLI-style reporting. All are recoverable by the
// caller except AllocationFailed, which is fatal for the engine
// instance that raised it.

// Lifecycle sentinels.
var (
	ErrTreeIsFrozen  = errors.New("the transform tree is frozen")
	ErrTreeNotFrozen = errors.New("the transform tree has not been prepared")
	ErrEmptyTree     = errors.New("no features were added")
)

// A SyntaxError reports malformed recipe or parameter text.
type SyntaxError struct {
	Index  int    // recipe index, or -1 for bare parameter text
	Column int    // byte offset of the offending piece
	Text   string // the text being parsed
}

func (e *SyntaxError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("syntax error in recipe %d at column %d: %q", e.Index, e.Column, e.Text)
	}
	return fmt.Sprintf("syntax error at column %d: %q", e.Column, e.Text)
}

// An UnknownParameterError reports a parameter name a transform class
// does not declare.
type UnknownParameterError struct {
	Name  string
	Class string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("transform %s has no parameter %q", e.Class, e.Name)
}

// An InvalidValueError reports a parameter value that failed its
// validator or could not be parsed as the declared type.
type InvalidValueError struct {
	Field string
	Value string
	Class string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %q for parameter %q of transform %s", e.Value, e.Field, e.Class)
}

// A NotRegisteredError reports a recipe naming an unknown transform
// class.
type NotRegisteredError struct {
	Class string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("transform %q is not registered", e.Class)
}

// An IncompatibleFormatError reports an edge for which no format
// converter exists.
type IncompatibleFormatError struct {
	Src, Dst string
	Class    string // the transform that needed the conversion
}

func (e *IncompatibleFormatError) Error() string {
	return fmt.Sprintf("no converter from %s to %s (needed by %s)", e.Src, e.Dst, e.Class)
}

// A DuplicateFeatureError reports AddFeature with a name that is
// already present.
type DuplicateFeatureError struct {
	Name string
}

func (e *DuplicateFeatureError) Error() string {
	return fmt.Sprintf("feature %q was already added", e.Name)
}

// A ChainCollisionError reports two features whose recipes are
// transform-for-transform identical.
type ChainCollisionError struct {
	Existing, Added string
}

func (e *ChainCollisionError) Error() string {
	return fmt.Sprintf("feature %q is identical to already added %q", e.Added, e.Existing)
}

// An InvalidInputError reports a root waveform that fails root-format
// validation.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input waveform: %s", e.Reason)
}

// An InvalidOutputError reports a transform that produced NaN, Inf or
// all zeros where not allowed. Raised only when validation is enabled.
type InvalidOutputError struct {
	Class   string
	Message string
}

func (e *InvalidOutputError) Error() string {
	return fmt.Sprintf("transform %s produced invalid output: %s", e.Class, e.Message)
}

// An AllocationFailedError reports that the backing block could not be
// obtained from the host allocator.
type AllocationFailedError struct {
	Bytes int
	Err   error
}

func (e *AllocationFailedError) Error() string {
	return fmt.Sprintf("allocating %d-byte backing block: %v", e.Bytes, e.Err)
}

func (e *AllocationFailedError) Unwrap() error { return e.Err }

// Category returns the taxonomy name for err, or "Unknown".
func Category(err error) string {
	switch {
	case errors.Is(err, ErrTreeIsFrozen):
		return "TreeIsFrozen"
	case errors.Is(err, ErrTreeNotFrozen):
		return "TreeNotFrozen"
	case errors.Is(err, ErrEmptyTree):
		return "EmptyTree"
	}
	var (
		syn  *SyntaxError
		unk  *UnknownParameterError
		val  *InvalidValueError
		reg  *NotRegisteredError
		inc  *IncompatibleFormatError
		dup  *DuplicateFeatureError
		col  *ChainCollisionError
		iin  *InvalidInputError
		iout *InvalidOutputError
		all  *AllocationFailedError
	)
	switch {
	case errors.As(err, &syn):
		return "SyntaxError"
	case errors.As(err, &unk):
		return "UnknownParameter"
	case errors.As(err, &val):
		return "InvalidValue"
	case errors.As(err, &reg):
		return "TransformNotRegistered"
	case errors.As(err, &inc):
		return "IncompatibleFormat"
	case errors.As(err, &dup):
		return "DuplicateFeatureName"
	case errors.As(err, &col):
		return "ChainCollision"
	case errors.As(err, &iin):
		return "InvalidInput"
	case errors.As(err, &iout):
		return "InvalidOutput"
	case errors.As(err, &all):
		return "AllocationFailed"
	}
	return "Unknown"
}
