// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"os"
)

// DumpDot writes the transform tree as a DOT graph. After an Execute,
// nodes whose class consumed a noticeable share of the run are shaded
// red, darker for hotter.
func (e *Engine) DumpDot(w io.Writer) error {
	const redThreshold = 0.25
	const initialLight = 0x30

	report := e.TimeReport()
	maxRatio := 0.0
	for class, r := range report {
		if class != "Total" && r > maxRatio {
			maxRatio = r
		}
	}
	redShift := redThreshold * maxRatio

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph TransformsTree {")
	ids := make(map[*node]string)
	counters := make(map[string]int)
	e.root.walk(func(n *node) {
		class := n.tfm.Name()
		id := fmt.Sprintf("%s%d", fileClassName(class), counters[class])
		counters[class]++
		ids[n] = id

		fmt.Fprintf(bw, "\t%s [", id)
		if ratio := report[class]; maxRatio > redShift && ratio > redShift {
			light := 255 - int((ratio-redShift)/(maxRatio-redShift)*float64(255-initialLight))
			fmt.Fprintf(bw, "style=\"filled\", fillcolor=\"#ff%02x%02x\", ", light, light)
		}
		fmt.Fprintf(bw, "label=<%s", html.EscapeString(class))
		if n.feature != "" {
			fmt.Fprintf(bw, "<br/><b>%s</b>", html.EscapeString(n.feature))
		}
		if e.totalTime > 0 && n != e.root {
			fmt.Fprintf(bw, "<br/><font point-size=\"10\">%d%% (%d%%)</font>",
				int(float64(n.elapsed)*100/float64(e.totalTime)),
				int(report[class]*100))
		}
		params := n.tfm.Parameters()
		if len(params) > 0 {
			fmt.Fprintf(bw, "<br/><font point-size=\"10\">")
			defaults := n.tfm.SupportedParameters()
			for _, name := range sortedKeys(params) {
				v := params[name]
				if defaults[name].Default == v {
					fmt.Fprintf(bw, "<font color=\"gray\">%s = %s</font><br/>",
						html.EscapeString(name), html.EscapeString(v))
				} else {
					fmt.Fprintf(bw, "%s = %s<br/>", html.EscapeString(name), html.EscapeString(v))
				}
			}
			fmt.Fprintf(bw, "</font>")
		}
		fmt.Fprintln(bw, ">]")
	})
	fmt.Fprintln(bw)
	e.root.walk(func(n *node) {
		for _, c := range n.children {
			fmt.Fprintf(bw, "\t%s -> %s\n", ids[n], ids[c])
		}
	})
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// DumpDotFile writes the DOT graph to path.
func (e *Engine) DumpDotFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := e.DumpDot(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
