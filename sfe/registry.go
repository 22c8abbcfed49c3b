// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

import (
	"sort"
	"sync"
)

// A Factory produces a fresh transform instance with default
// parameters.
type Factory func() Transform

// The process-wide transform registry maps a class name to the
// factories registered for it, one per supported input format.
// Registration happens from init functions in the transforms package;
// after program start the registry is read-mostly and concurrent
// lookups are safe.
type registration struct {
	formatID string
	factory  Factory
}

var registry = struct {
	sync.RWMutex
	classes map[string][]registration
}{classes: make(map[string][]registration)}

// Register adds factory to the registry. The class name and input
// format id are read off a probe instance, so a transform registers
// itself with
//
//	func init() { sfe.Register(func() sfe.Transform { return newWindow() }) }
//
// One class may be registered several times with different input
// formats; the first registration is the fallback the DAG builder picks
// when no exact format match exists (signalling that a format converter
// must be interposed).
func Register(factory Factory) {
	probe := factory()
	class := probe.Name()
	formatID := probe.InputFormat().ID()

	registry.Lock()
	defer registry.Unlock()
	registry.classes[class] = append(registry.classes[class],
		registration{formatID: formatID, factory: factory})
}

// lookupTransform resolves (class, desired input format id). exact
// reports whether the returned factory matches the format; when false
// the caller must interpose a converter.
func lookupTransform(class, formatID string) (f Factory, exact, found bool) {
	registry.RLock()
	defer registry.RUnlock()
	regs := registry.classes[class]
	if len(regs) == 0 {
		return nil, false, false
	}
	for _, r := range regs {
		if r.formatID == formatID || r.formatID == IDIdentity {
			return r.factory, true, true
		}
	}
	return regs[0].factory, false, true
}

// Classes returns the sorted names of all registered transform classes.
// The set is stable between program start and exit.
func Classes() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.classes))
	for name := range registry.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClassDescription returns the description of a registered class, or
// "" if unknown.
func ClassDescription(class string) string {
	registry.RLock()
	regs := registry.classes[class]
	registry.RUnlock()
	if len(regs) == 0 {
		return ""
	}
	return regs[0].factory().Description()
}

// ConverterName is the canonical class name of the format converter
// bridging src to dst.
func ConverterName(src, dst *Format) string {
	return src.ID() + " -> " + dst.ID()
}
