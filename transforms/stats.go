// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transforms

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/aclements/go-soundfeat/sfe"
)

// Statistical transforms: Energy, Mean and Stats.

// energy reduces each buffer to its mean square.
type energy struct {
	sfe.TransformBase
}

func newEnergy() *energy {
	t := &energy{}
	t.TransformName = "Energy"
	t.TransformDescription = "Calculates the buffer energy, the mean of the squared values."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	t.Declare(threadsDescriptor())
	return t
}

func (t *energy) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	t.In = f
	t.Out = sfe.SingleFloat32(f.SamplingRate())
	return buffersIn, nil
}

func (t *energy) SliceSafe() bool { return true }

func (t *energy) Do(in, out *sfe.BufferSet) error {
	size := float64(t.In.Size())
	return sfe.ForEachBuffer(in.Count(), t.IntParam("threads_num"), func(i int) error {
		var sum float64
		for _, v := range in.Float32s(i) {
			sum += float64(v) * float64(v)
		}
		out.Float32s(i)[0] = float32(sum / size)
		return nil
	})
}

// mean computes the arithmetic and/or geometric mean of each buffer
// into a fixed two-element vector (arithmetic at 0, geometric at 1;
// unrequested kinds are zero).
type mean struct {
	sfe.TransformBase
}

func newMean() *mean {
	t := &mean{}
	t.TransformName = "Mean"
	t.TransformDescription = "Calculates the arithmetic and geometric means of each buffer."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	t.Declare(sfe.Descriptor{
		Name:        "types",
		Description: "Space-separated mean kinds: \"arithmetic\", \"geometric\" or \"all\".",
		Default:     "arithmetic",
	}, validWordList("arithmetic", "geometric", "all"))
	return t
}

func (t *mean) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	t.In = f
	t.Out = sfe.ArrayFloat32(2, f.SamplingRate())
	return buffersIn, nil
}

func (t *mean) SliceSafe() bool { return true }

func (t *mean) Do(in, out *sfe.BufferSet) error {
	kinds := wordSet(t.StringParam("types"), "arithmetic", "geometric")
	for i := 0; i < in.Count(); i++ {
		src, dst := in.Float32s(i), out.Float32s(i)
		dst[0], dst[1] = 0, 0
		if kinds["arithmetic"] {
			var sum float64
			for _, v := range src {
				sum += float64(v)
			}
			dst[0] = float32(sum / float64(len(src)))
		}
		if kinds["geometric"] {
			var logSum float64
			ok := true
			for _, v := range src {
				if v <= 0 {
					ok = false
					break
				}
				logSum += math.Log(float64(v))
			}
			if ok {
				dst[1] = float32(math.Exp(logSum / float64(len(src))))
			}
		}
	}
	return nil
}

// stats computes the first four standardized moments of each buffer,
// either over the whole vector or per "interval" chunk. The output
// packs 4 values per chunk: average, standard deviation, skewness and
// kurtosis excess, with unrequested kinds zeroed.
type stats struct {
	sfe.TransformBase
}

const statsSlots = 4

var statsIndex = map[string]int{
	"average":  0,
	"stddev":   1,
	"skewness": 2,
	"kurtosis": 3,
}

func newStats() *stats {
	t := &stats{}
	t.TransformName = "Stats"
	t.TransformDescription = "Calculates the first four standardized statistical moments."
	t.In = sfe.ArrayFloat32(0, placeholderRate)
	t.Declare(sfe.Descriptor{
		Name:        "types",
		Description: "Space-separated moments: \"average\", \"stddev\", \"skewness\", \"kurtosis\" or \"all\".",
		Default:     "average stddev skewness kurtosis",
	}, validWordList("average", "stddev", "skewness", "kurtosis", "all"))
	t.Declare(sfe.Descriptor{
		Name:        "interval",
		Description: "The chunk width the moments are calculated over. 0 means the whole buffer.",
		Default:     "0",
	}, sfe.ValidInt(func(v int) bool { return v == 0 || v >= 2 }))
	return t
}

func (t *stats) SetInputFormat(f *sfe.Format, buffersIn int) (int, error) {
	t.In = f
	chunks := 1
	if interval := t.IntParam("interval"); interval != 0 {
		chunks = (f.Size() + interval - 1) / interval
	}
	t.Out = sfe.ArrayFloat32(statsSlots*chunks, f.SamplingRate())
	return buffersIn, nil
}

func (t *stats) SliceSafe() bool { return true }

func (t *stats) Do(in, out *sfe.BufferSet) error {
	kinds := wordSet(t.StringParam("types"),
		"average", "stddev", "skewness", "kurtosis")
	interval := t.IntParam("interval")
	size := t.In.Size()
	for i := 0; i < in.Count(); i++ {
		src, dst := in.Float32s(i), out.Float32s(i)
		if interval == 0 {
			writeMoments(src, dst[:statsSlots], kinds)
			continue
		}
		chunk := 0
		for start := 0; start < size; start += interval {
			end := start + interval
			if end > size {
				end = size
			}
			writeMoments(src[start:end], dst[chunk*statsSlots:(chunk+1)*statsSlots], kinds)
			chunk++
		}
	}
	return nil
}

// writeMoments standardizes the population central moments of src.
// stat.Skew and stat.ExKurtosis carry sample-bias corrections, so the
// moments come from stat.Moment directly.
func writeMoments(src []float32, dst []float32, kinds map[string]bool) {
	xs := make([]float64, len(src))
	for i, v := range src {
		xs[i] = float64(v)
	}
	mean := stat.Mean(xs, nil)
	variance := stat.Moment(2, xs, nil)
	if variance < 0 {
		variance = 0
	}
	sigma := math.Sqrt(variance)

	for i := range dst[:statsSlots] {
		dst[i] = 0
	}
	if kinds["average"] {
		dst[statsIndex["average"]] = float32(mean)
	}
	if kinds["stddev"] {
		dst[statsIndex["stddev"]] = float32(sigma)
	}
	if sigma > 0 {
		if kinds["skewness"] {
			dst[statsIndex["skewness"]] = float32(stat.Moment(3, xs, nil) / (sigma * sigma * sigma))
		}
		if kinds["kurtosis"] {
			dst[statsIndex["kurtosis"]] = float32(stat.Moment(4, xs, nil)/(variance*variance) - 3)
		}
	}
}

// validWordList accepts a non-empty space-separated list drawn from
// words.
func validWordList(words ...string) sfe.Validator {
	allowed := make(map[string]bool, len(words))
	for _, w := range words {
		allowed[w] = true
	}
	return func(value string) error {
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return errEmptyList
		}
		for _, f := range fields {
			if !allowed[f] {
				return errUnknownWord(f)
			}
		}
		return nil
	}
}

type wordError string

func (e wordError) Error() string { return "unknown kind " + string(e) }

func errUnknownWord(w string) error { return wordError(w) }

var errEmptyList = wordError("(empty)")

// wordSet expands a validated word list, with "all" selecting every
// kind.
func wordSet(value string, all ...string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.Fields(value) {
		if f == "all" {
			for _, w := range all {
				set[w] = true
			}
		} else {
			set[f] = true
		}
	}
	return set
}

func init() {
	sfe.Register(func() sfe.Transform { return newEnergy() })
	sfe.Register(func() sfe.Transform { return newMean() })
	sfe.Register(func() sfe.Transform { return newStats() })
}
