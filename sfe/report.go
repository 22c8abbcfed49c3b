// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

import (
	"time"

	"github.com/aclements/go-moremath/stats"
)

// TimeReport returns the fraction of execution time spent in each
// transform class, accumulated over every Execute so far. Two
// synthetic entries accompany the classes: "Total" holds the absolute
// elapsed time in nanoseconds, and "Other" the residual fraction not
// attributed to any class (walk overhead, validation, dumping).
func (e *Engine) TimeReport() map[string]float64 {
	report := make(map[string]float64, len(e.classTimes)+2)
	if e.totalTime == 0 {
		return report
	}
	var attributed time.Duration
	for class, d := range e.classTimes {
		report[class] = float64(d) / float64(e.totalTime)
		attributed += d
	}
	report["Total"] = float64(e.totalTime.Nanoseconds())
	report["Other"] = float64(e.totalTime-attributed) / float64(e.totalTime)
	return report
}

// LogTimingSummary logs the distribution of per-node execution times
// from the most recent Execute: mean, median and the 95th percentile,
// plus the slowest transform class.
func (e *Engine) LogTimingSummary() {
	if !e.frozen || e.totalTime == 0 {
		return
	}
	xs := make([]float64, 0, len(e.order)-1)
	slowest, slowestClass := time.Duration(0), ""
	for _, n := range e.order[1:] {
		xs = append(xs, float64(n.elapsed))
		if n.elapsed > slowest {
			slowest, slowestClass = n.elapsed, n.tfm.Name()
		}
	}
	if len(xs) == 0 {
		return
	}
	s := stats.Sample{Xs: xs}
	e.logger.Info("execution timing",
		"total", e.totalTime,
		"nodes", len(xs),
		"mean", time.Duration(s.Mean()),
		"p50", time.Duration(s.Quantile(0.5)),
		"p95", time.Duration(s.Quantile(0.95)),
		"slowest", slowestClass)
}
