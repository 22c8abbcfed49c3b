// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Execute runs every prepared recipe over waveform and returns the
// named result buffers. The walk is strictly topological: for every
// edge the producer's Do returns before the consumer's Do is called,
// and a shared prefix executes exactly once. On error the partial
// result map is discarded.
//
// The returned buffer sets point into the engine's backing block and
// stay valid until the next Execute or Close.
func (e *Engine) Execute(waveform []int16) (map[string]*BufferSet, error) {
	if !e.frozen {
		return nil, ErrTreeNotFrozen
	}
	if len(e.features) == 0 {
		return nil, ErrEmptyTree
	}
	root := e.order[0]
	rootFormat := root.tfm.OutputFormat()
	if len(waveform) != rootFormat.Size() {
		return nil, &InvalidInputError{
			Reason: fmt.Sprintf("got %d samples, the engine was created for %d",
				len(waveform), rootFormat.Size()),
		}
	}

	e.blk.unprotect(root.offset, root.bytes)
	copy(root.buffers.Int16s(0), waveform)
	if e.opts.Validate {
		if err := rootFormat.Validate(root.buffers); err != nil {
			return nil, &InvalidInputError{Reason: err.Error()}
		}
	}

	start := time.Now()
	for n := root.next; n != nil; n = n.next {
		if err := e.executeNode(n); err != nil {
			return nil, err
		}
	}
	e.totalTime += time.Since(start)

	if e.opts.ProtectMemory {
		e.blk.unprotect(0, len(e.blk.data))
	}

	results := make(map[string]*BufferSet, len(e.features))
	for name, n := range e.features {
		results[name] = n.buffers
	}
	return results, nil
}

func (e *Engine) executeNode(n *node) error {
	in, out := n.parent.buffers, n.buffers
	class := n.tfm.Name()

	if e.opts.ProtectMemory {
		e.blk.unprotect(n.offset, n.bytes)
	}

	t0 := time.Now()
	if len(n.slices) > 0 {
		for _, s := range n.slices {
			if err := n.tfm.Do(in.Slice(s.inStart, s.inCount), out.Slice(s.outStart, s.outCount)); err != nil {
				return fmt.Errorf("transform %s: %w", class, err)
			}
		}
	} else {
		if err := n.tfm.Do(in, out); err != nil {
			return fmt.Errorf("transform %s: %w", class, err)
		}
	}
	elapsed := time.Since(t0)
	n.elapsed = elapsed
	e.classTimes[class] += elapsed

	if e.opts.ProtectMemory {
		e.blk.protect(n.offset, n.bytes)
	}

	if e.opts.Validate {
		if err := n.tfm.OutputFormat().Validate(out); err != nil {
			return &InvalidOutputError{Class: class, Message: err.Error()}
		}
	}

	if e.dumpRequested(class) {
		if err := e.dumpBuffers(class, out); err != nil {
			e.logger.Warn("buffer dump failed", "transform", class, "err", err)
		}
	}
	return nil
}

// dumpRequested consults <prefix>_<CLASS>, e.g. SFE_DUMP_RDFT.
func (e *Engine) dumpRequested(class string) bool {
	prefix := e.opts.DumpPrefix
	if prefix == "" {
		prefix = "SFE_DUMP"
	}
	return os.Getenv(prefix+"_"+envClassName(class)) != ""
}

func envClassName(class string) string {
	var sb strings.Builder
	for i := 0; i < len(class); i++ {
		c := class[i]
		switch {
		case 'a' <= c && c <= 'z':
			sb.WriteByte(c - 'a' + 'A')
		case ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9'):
			sb.WriteByte(c)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// dumpBuffers writes the raw payload of every slot to
// <dir>/<class>.bin, slots in order, unaligned payload only.
func (e *Engine) dumpBuffers(class string, set *BufferSet) error {
	dir := e.opts.DumpDir
	if dir == "" {
		dir = "."
	}
	name := filepath.Join(dir, fileClassName(class)+".bin")
	var data []byte
	for i := 0; i < set.Count(); i++ {
		data = append(data, set.raw(i)...)
	}
	return os.WriteFile(name, data, 0666)
}

func fileClassName(class string) string {
	var sb strings.Builder
	for i := 0; i < len(class); i++ {
		c := class[i]
		if isIdentByte(c) {
			sb.WriteByte(c)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
