// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sfe extracts numerical features from audio by evaluating many
// named feature recipes over a common input waveform.
//
// A recipe is a named, ordered list of transforms, for example
//
//	MFCC[Window(length=400,step=160),RDFT,SpectralEnergy,FilterBank(number=40),Log,DCT,Selector(length=16)]
//
// Recipes frequently share prefixes. The engine merges all recipes into a
// single shared-prefix tree so that each shared prefix executes exactly
// once per input, then fans out. Buffers on the tree's edges are carved
// out of one contiguous backing block, with memory reused between edges
// whose lifetimes do not overlap.
//
// The typical call sequence is
//
//	e, _ := sfe.New(48000, 16000, nil)
//	e.AddFeatureText("Energy[Window(type=rectangular),Energy,Merge,Stats]")
//	e.Prepare()
//	results, _ := e.Execute(waveform)
//
// Transform classes register themselves in a process-wide registry at
// package init time; importing package transforms (usually for side
// effects) makes the standard set available.
package sfe
