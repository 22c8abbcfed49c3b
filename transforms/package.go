// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transforms provides the standard transform classes for the
// sfe engine: windowing, Fourier and cosine transforms, filter banks,
// spectral and statistical features, wavelets, IIR filters and the
// format converters the DAG builder interposes automatically.
//
// Importing the package (usually for side effects only) registers
// every class in the process-wide registry:
//
//	import _ "github.com/aclements/go-soundfeat/transforms"
package transforms

import "github.com/aclements/go-soundfeat/sfe"

// placeholderRate is the sampling rate probe instances carry before
// the DAG builder assigns the real input format.
const placeholderRate = 16000

func threadsDescriptor() (sfe.Descriptor, sfe.Validator) {
	return sfe.Descriptor{
		Name:        "threads_num",
		Description: "Worker fan-out for buffer-parallel execution. 0 means the engine-wide maximum, 1 disables parallelism.",
		Default:     "0",
	}, sfe.ValidInt(func(v int) bool { return v >= 0 })
}
