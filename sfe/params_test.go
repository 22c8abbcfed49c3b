// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawParameters(t *testing.T) {
	m, err := ParseRawParameters("length=400, step=160,type = hamming")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"length": "400",
		"step":   "160",
		"type":   "hamming",
	}, m)

	m, err = ParseRawParameters("")
	require.NoError(t, err)
	assert.Empty(t, m)

	m, err = ParseRawParameters("  \t ")
	require.NoError(t, err)
	assert.Empty(t, m)

	// Last assignment wins.
	m, err = ParseRawParameters("a=1,a=2")
	require.NoError(t, err)
	assert.Equal(t, "2", m["a"])
}

func TestParseRawParametersErrors(t *testing.T) {
	_, err := ParseRawParameters("length")
	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.Equal(t, 0, syn.Column)

	_, err = ParseRawParameters("a=1,bogus")
	require.ErrorAs(t, err, &syn)
	assert.Equal(t, 4, syn.Column)

	_, err = ParseRawParameters("=5")
	require.Error(t, err)
}

type paramProbe struct {
	TransformBase
}

func (p *paramProbe) SetInputFormat(f *Format, n int) (int, error) { return n, nil }
func (p *paramProbe) Do(in, out *BufferSet) error                  { return nil }

func newParamProbe() *paramProbe {
	p := &paramProbe{}
	p.TransformName = "Probe"
	p.Declare(Descriptor{Name: "n", Description: "a count", Default: "5"},
		ValidInt(func(v int) bool { return v > 0 }))
	p.Declare(Descriptor{Name: "kind", Description: "a kind", Default: "fast"},
		ValidEnum("fast", "slow"))
	p.Declare(Descriptor{Name: "list", Description: "some ints", Default: "1 2 3"},
		ValidIntList(nil))
	return p
}

func TestParameterStore(t *testing.T) {
	p := newParamProbe()

	// Defaults are visible before any set.
	assert.Equal(t, 5, p.IntParam("n"))
	assert.Equal(t, "fast", p.StringParam("kind"))
	assert.Equal(t, []int{1, 2, 3}, p.IntListParam("list"))

	require.NoError(t, p.SetParameter("n", "7"))
	assert.Equal(t, 7, p.IntParam("n"))

	err := p.SetParameter("bogus", "1")
	var unk *UnknownParameterError
	require.ErrorAs(t, err, &unk)
	assert.Equal(t, "Probe", unk.Class)

	err = p.SetParameter("n", "-1")
	var inv *InvalidValueError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "n", inv.Field)
	assert.Equal(t, "-1", inv.Value)

	err = p.SetParameter("kind", "medium")
	require.ErrorAs(t, err, &inv)
}

func TestParametersIncludeDefaults(t *testing.T) {
	a, b := newParamProbe(), newParamProbe()
	require.NoError(t, b.SetParameter("n", "5")) // explicit default

	// Explicitly set defaults compare equal to untouched instances.
	assert.True(t, paramsEqual(a.Parameters(), b.Parameters()))
	assert.Equal(t, fingerprint("Probe", a.Parameters()), fingerprint("Probe", b.Parameters()))

	require.NoError(t, b.SetParameter("n", "9"))
	assert.False(t, paramsEqual(a.Parameters(), b.Parameters()))
}
