// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// A Descriptor declares one parameter of a transform class: its name, a
// human description and the default, kept as a string exactly like the
// per-instance values. Typed accessors parse on read and fall back to
// the default when the instance has no explicit value.
type Descriptor struct {
	Name        string
	Description string
	Default     string
}

// A Validator vets a raw parameter value before it is stored. It
// returns a plain error; the caller wraps it into an
// InvalidValueError with the field and class attached.
type Validator func(value string) error

// ParseRawParameters parses the textual parameter body of a recipe
// entry, e.g. "length=400, step=160". Pieces are split on ',' and then
// on '=', with surrounding whitespace trimmed. Empty input yields an
// empty map. A piece without '=' is a syntax error carrying the column
// of the piece.
func ParseRawParameters(raw string) (map[string]string, error) {
	params := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return params, nil
	}
	col := 0
	for _, piece := range strings.Split(raw, ",") {
		eq := strings.IndexByte(piece, '=')
		if eq < 0 {
			return nil, &SyntaxError{Index: -1, Column: col, Text: raw}
		}
		name := strings.TrimSpace(piece[:eq])
		value := strings.TrimSpace(piece[eq+1:])
		if name == "" {
			return nil, &SyntaxError{Index: -1, Column: col, Text: raw}
		}
		// Duplicate assignments resolve to the last one seen.
		params[name] = value
		col += len(piece) + 1
	}
	return params, nil
}

// Typed parse helpers. These are used by transforms to read stored
// values; validation happened when the value was set, so a parse
// failure here is a programming error (a bad default) and panics.

func mustInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		panic(fmt.Sprintf("parameter value %q is not an int", s))
	}
	return v
}

func mustFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		panic(fmt.Sprintf("parameter value %q is not a float", s))
	}
	return v
}

func mustBool(s string) bool {
	switch s {
	case "true", "1":
		return true
	case "false", "0":
		return false
	}
	panic(fmt.Sprintf("parameter value %q is not a bool", s))
}

func mustIntList(s string) []int {
	fields := strings.Fields(s)
	list := make([]int, len(fields))
	for i, f := range fields {
		list[i] = mustInt(f)
	}
	return list
}

// Common validators.

// ValidInt accepts any integer satisfying ok (nil means any integer).
func ValidInt(ok func(int) bool) Validator {
	return func(value string) error {
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		if ok != nil && !ok(v) {
			return fmt.Errorf("%d is out of range", v)
		}
		return nil
	}
}

// ValidFloat accepts any float satisfying ok.
func ValidFloat(ok func(float64) bool) Validator {
	return func(value string) error {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if ok != nil && !ok(v) {
			return fmt.Errorf("%g is out of range", v)
		}
		return nil
	}
}

// ValidBool accepts "true", "false", "1" and "0".
func ValidBool() Validator {
	return func(value string) error {
		switch value {
		case "true", "false", "1", "0":
			return nil
		}
		return fmt.Errorf("%q is not a boolean", value)
	}
}

// ValidEnum accepts exactly the listed values.
func ValidEnum(values ...string) Validator {
	return func(value string) error {
		for _, v := range values {
			if value == v {
				return nil
			}
		}
		return fmt.Errorf("%q is not one of %s", value, strings.Join(values, ", "))
	}
}

// ValidIntList accepts a space-separated list of integers satisfying
// ok, used for wavelet tree fingerprints and band boundaries.
func ValidIntList(ok func(int) bool) Validator {
	return func(value string) error {
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return fmt.Errorf("empty list")
		}
		for _, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return err
			}
			if ok != nil && !ok(v) {
				return fmt.Errorf("%d is out of range", v)
			}
		}
		return nil
	}
}

// fingerprint builds the deduplication key for a transform: the class
// name followed by the sorted parameter pairs.
func fingerprint(class string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString(class)
	for _, k := range keys {
		sb.WriteByte(0)
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}
	return sb.String()
}

// paramsEqual reports a full parameter comparison: equal size and every
// key/value pair matching.
func paramsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
