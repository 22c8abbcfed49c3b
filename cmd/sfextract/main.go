// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Sfextract evaluates feature recipes over an audio file and prints
// the resulting feature vectors.
//
// Usage:
//
//	sfextract -f 'Energy[Window(type=rectangular),Energy,Merge,Stats]' speech.wav
//
// The input is a mono 16-bit PCM WAV file, or raw little-endian s16le
// samples when -raw-rate is given. Each -f flag adds one recipe; the
// output lists every feature's buffers. The exit status is non-zero on
// any failure, with the failure category on the error stream.
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/go-audio/wav"
	"github.com/spf13/cobra"

	"github.com/aclements/go-soundfeat/sfe"
	_ "github.com/aclements/go-soundfeat/transforms"
)

var flags struct {
	features []string
	rawRate  int
	dotPath  string
	report   bool
	validate bool
	protect  bool
	budget   int
	dumpDir  string
	verbose  bool
}

func main() {
	cmd := &cobra.Command{
		Use:           "sfextract [flags] <input>",
		Short:         "extract sound features from an audio file",
		Args:          cobra.ExactArgs(1),
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringArrayVarP(&flags.features, "feature", "f", nil,
		"feature recipe, e.g. 'MFCC[Window,RDFT,...]' (repeatable)")
	cmd.Flags().IntVar(&flags.rawRate, "raw-rate", 0,
		"treat the input as raw s16le PCM at this sampling rate")
	cmd.Flags().StringVar(&flags.dotPath, "dot", "",
		"write the transform tree as a DOT graph to this file")
	cmd.Flags().BoolVar(&flags.report, "report", false,
		"print the per-transform execution time report")
	cmd.Flags().BoolVar(&flags.validate, "validate", false,
		"validate the input and every transform output")
	cmd.Flags().BoolVar(&flags.protect, "protect", false,
		"write-protect finished buffers (linux only)")
	cmd.Flags().IntVar(&flags.budget, "budget", 0,
		"memory budget in bytes, 0 for unlimited")
	cmd.Flags().StringVar(&flags.dumpDir, "dump-dir", "",
		"directory for per-transform buffer dumps")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"log engine progress")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", sfe.Category(err), err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if len(flags.features) == 0 {
		return fmt.Errorf("at least one -f recipe is required")
	}

	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	samples, rate, err := loadSamples(args[0])
	if err != nil {
		return err
	}

	e, err := sfe.New(len(samples), rate, &sfe.Options{
		Validate:      flags.validate,
		ProtectMemory: flags.protect,
		MemoryBudget:  flags.budget,
		DumpDir:       flags.dumpDir,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer e.Close()

	for _, recipe := range flags.features {
		if err := e.AddFeatureText(recipe); err != nil {
			return err
		}
	}
	if err := e.Prepare(); err != nil {
		return err
	}
	results, err := e.Execute(samples)
	if err != nil {
		return err
	}
	if flags.verbose {
		e.LogTimingSummary()
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for _, name := range e.Features() {
		printFeature(w, name, results[name])
	}
	if flags.report {
		printReport(w, e.TimeReport())
	}
	if flags.dotPath != "" {
		if err := e.DumpDotFile(flags.dotPath); err != nil {
			return err
		}
	}
	return nil
}

// loadSamples reads a mono 16-bit WAV file, or raw s16le samples when
// -raw-rate is set.
func loadSamples(path string) ([]int16, int, error) {
	if flags.rawRate != 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, 0, err
		}
		samples := make([]int16, len(data)/2)
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
		}
		return samples, flags.rawRate, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding %s: %w", path, err)
	}
	if dec.NumChans != 1 {
		return nil, 0, fmt.Errorf("%s: expected mono audio, got %d channels", path, dec.NumChans)
	}
	if dec.BitDepth != 16 {
		return nil, 0, fmt.Errorf("%s: expected 16-bit samples, got %d", path, dec.BitDepth)
	}
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return samples, buf.Format.SampleRate, nil
}

func printFeature(w *bufio.Writer, name string, set *sfe.BufferSet) {
	fmt.Fprintf(w, "%s: %d buffers of %s\n", name, set.Count(), set.Format())
	for i := 0; i < set.Count(); i++ {
		fmt.Fprintf(w, "  [%d]", i)
		switch set.Format().Kind() {
		case sfe.KindFloat32:
			for _, v := range set.Float32s(i) {
				fmt.Fprintf(w, " %g", v)
			}
		case sfe.KindInt32:
			for _, v := range set.Int32s(i) {
				fmt.Fprintf(w, " %d", v)
			}
		case sfe.KindInt16:
			for _, v := range set.Int16s(i) {
				fmt.Fprintf(w, " %d", v)
			}
		}
		fmt.Fprintln(w)
	}
}

func printReport(w *bufio.Writer, report map[string]float64) {
	classes := make([]string, 0, len(report))
	for class := range report {
		if class != "Total" {
			classes = append(classes, class)
		}
	}
	sort.Slice(classes, func(i, j int) bool { return report[classes[i]] > report[classes[j]] })
	fmt.Fprintf(w, "total: %.3fms\n", report["Total"]/1e6)
	for _, class := range classes {
		fmt.Fprintf(w, "  %-24s %5.1f%%\n", class, report[class]*100)
	}
}
