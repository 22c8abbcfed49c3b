// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Options configures an engine. The zero value is a good default:
// validation off, no memory protection, unlimited memory budget,
// worker pool sized to the host.
type Options struct {
	// Validate enables root-input and per-transform output validation.
	Validate bool

	// ProtectMemory write-protects finished buffers between their
	// writer and their last consumer. Needs page protection support
	// (linux); elsewhere New clears it and protection is a no-op.
	ProtectMemory bool

	// MemoryBudget caps the backing block, in bytes. When the planned
	// peak exceeds it, slice-safe transforms are invoked over
	// contiguous sub-ranges of their buffers. 0 means unlimited.
	MemoryBudget int

	// MaxThreads is stored with the options but the engine does not
	// read it: each transform's fan-out comes from its threads_num
	// parameter, capped by MaxWorkers.
	MaxThreads int

	// DumpPrefix is the environment variable prefix consulted for
	// per-class buffer dumps ("SFE_DUMP" by default, so e.g.
	// SFE_DUMP_RDFT=1 dumps the RDFT output).
	DumpPrefix string

	// DumpDir is where dump artifacts are written ("." by default).
	DumpDir string

	// Logger receives structured progress and warning messages.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// A node of the transform tree. Children are owned; the parent link is
// a non-owning back-reference.
type node struct {
	parent   *node
	tfm      Transform
	children []*node

	feature  string   // non-empty only on a leaf terminating a recipe
	features []string // every feature whose recipe passes through here

	count   int        // buffers on this edge
	buffers *BufferSet // planner-assigned view into the backing block

	next      *node // linear execution order
	execIndex int

	// Planner results.
	aliased bool // shares the parent's memory
	offset  int  // byte offset into the backing block
	bytes   int  // extent size
	slices  []sliceRange

	elapsed time.Duration
}

type sliceRange struct {
	inStart, inCount   int
	outStart, outCount int
}

func (n *node) stride() int { return n.tfm.OutputFormat().AlignedByteSize() }

func (n *node) walk(fn func(*node)) {
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}

// An Engine merges feature recipes into a shared-prefix transform tree
// and executes it over int16 waveforms. See the package documentation
// for the lifecycle.
type Engine struct {
	opts   Options
	logger *slog.Logger

	root         *node
	features     map[string]*node
	featureOrder []string

	// cache deduplicates observationally equivalent transform
	// instances across branches, keyed by class + sorted parameters.
	cache map[string][]Transform

	order  []*node // execution order, root first; set by Prepare
	frozen bool

	blk  *block
	peak int // planned backing-block size in bytes

	classTimes map[string]time.Duration
	totalTime  time.Duration
}

// New creates an engine for waveforms of sourceSize samples at
// samplingRate Hz. opts may be nil for defaults.
func New(sourceSize, samplingRate int, opts *Options) (*Engine, error) {
	if sourceSize <= 0 {
		return nil, fmt.Errorf("source buffer size must be positive, got %d", sourceSize)
	}
	rootFormat := &Format{id: IDArrayInt16, kind: KindInt16, size: sourceSize}
	if err := rootFormat.SetSamplingRate(samplingRate); err != nil {
		return nil, err
	}
	e := &Engine{
		features:   make(map[string]*node),
		cache:      make(map[string][]Transform),
		classTimes: make(map[string]time.Duration),
	}
	if opts != nil {
		e.opts = *opts
	}
	if !protectionSupported {
		// Page protection is a no-op where the platform cannot do it.
		e.opts.ProtectMemory = false
	}
	e.logger = e.opts.Logger
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.root = &node{tfm: newRootTransform(rootFormat), count: 1}
	return e, nil
}

// SourceFormat returns the root waveform format.
func (e *Engine) SourceFormat() *Format { return e.root.tfm.OutputFormat() }

// BackingBytes returns the planned size of the shared backing block.
// Valid after Prepare.
func (e *Engine) BackingBytes() int { return e.peak }

// Features returns the added feature names in insertion order.
func (e *Engine) Features() []string {
	names := make([]string, len(e.featureOrder))
	copy(names, e.featureOrder)
	return names
}

// AddFeatureText parses line as a recipe and adds it.
func (e *Engine) AddFeatureText(line string) error {
	r, err := ParseFeature(line, 0)
	if err != nil {
		return err
	}
	return e.AddFeature(r.Name, r.Steps)
}

// AddFeature inserts a named recipe into the tree, sharing every
// already present prefix and interposing format converters where a
// transform's input format differs from its parent's output format.
// On error the tree is left exactly as it was before the call.
func (e *Engine) AddFeature(name string, steps []RecipeStep) error {
	if e.frozen {
		return ErrTreeIsFrozen
	}
	if _, ok := e.features[name]; ok {
		return &DuplicateFeatureError{Name: name}
	}
	if len(steps) == 0 {
		return &SyntaxError{Index: -1, Column: 0, Text: "empty recipe"}
	}

	var ins insertion
	cursor := e.root
	for _, step := range steps {
		next, err := e.addTransform(cursor, step.Class, step.RawParams, &ins)
		if err != nil {
			ins.rollback(e)
			return err
		}
		cursor = next
	}
	if cursor.feature != "" {
		ins.rollback(e)
		return &ChainCollisionError{Existing: cursor.feature, Added: name}
	}
	cursor.feature = name
	e.features[name] = cursor
	e.featureOrder = append(e.featureOrder, name)
	for n := cursor; n != nil; n = n.parent {
		n.features = append(n.features, name)
	}
	return nil
}

// insertion tracks what one AddFeature call created, for rollback.
type insertion struct {
	firstNew  *node
	cacheAdds []string
}

func (ins *insertion) rollback(e *Engine) {
	if ins.firstNew != nil {
		p := ins.firstNew.parent
		for i, c := range p.children {
			if c == ins.firstNew {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	for _, key := range ins.cacheAdds {
		insts := e.cache[key]
		if len(insts) <= 1 {
			delete(e.cache, key)
		} else {
			e.cache[key] = insts[:len(insts)-1]
		}
	}
}

// addTransform resolves, configures and attaches one transform under
// cursor, reusing an identical child when the prefix is shared and
// reusing a cached equivalent instance otherwise. It returns the node
// the cursor advances to.
func (e *Engine) addTransform(cursor *node, class, rawParams string, ins *insertion) (*node, error) {
	factory, _, found := lookupTransform(class, cursor.tfm.OutputFormat().ID())
	if !found {
		return nil, &NotRegisteredError{Class: class}
	}
	t := factory()
	params, err := ParseRawParameters(rawParams)
	if err != nil {
		return nil, err
	}
	for k, v := range params {
		if err := t.SetParameter(k, v); err != nil {
			return nil, err
		}
	}

	// Interpose a format converter when the resolved transform cannot
	// consume the cursor's output directly.
	if !t.InputFormat().Equal(cursor.tfm.OutputFormat()) {
		src, dst := cursor.tfm.OutputFormat(), t.InputFormat()
		conv, err := e.addTransform(cursor, ConverterName(src, dst), "", ins)
		if err != nil {
			var nr *NotRegisteredError
			if errors.As(err, &nr) {
				return nil, &IncompatibleFormatError{Src: src.ID(), Dst: dst.ID(), Class: class}
			}
			return nil, err
		}
		cursor = conv
	}

	// Shared prefix: an identical child means the cursor just advances.
	for _, c := range cursor.children {
		if c.tfm.Name() == class && paramsEqual(c.tfm.Parameters(), t.Parameters()) {
			return c, nil
		}
	}

	// Engine-wide deduplication of equivalent instances on the same
	// input format. The shape must match exactly, not just the format
	// id: a shared instance also shares its derived output format.
	fp := fingerprint(class, t.Parameters())
	inst := Transform(nil)
	for _, cand := range e.cache[fp] {
		in, of := cand.InputFormat(), cursor.tfm.OutputFormat()
		if in.Equal(of) && in.Size() == of.Size() && in.SamplingRate() == of.SamplingRate() {
			inst = cand
			break
		}
	}
	if inst == nil {
		inst = t
		e.cache[fp] = append(e.cache[fp], inst)
		ins.cacheAdds = append(ins.cacheAdds, fp)
	}
	outCount, err := inst.SetInputFormat(cursor.tfm.OutputFormat().Clone(), cursor.count)
	if err != nil {
		return nil, err
	}

	child := &node{parent: cursor, tfm: inst, count: outCount}
	cursor.children = append(cursor.children, child)
	if ins.firstNew == nil {
		ins.firstNew = child
	}
	return child, nil
}

// Prepare freezes the tree, initializes every distinct transform
// instance once, builds the linear execution order and plans the
// backing-block allocation. After Prepare no feature may be added.
// On error the engine stays unfrozen.
func (e *Engine) Prepare() error {
	if e.frozen {
		return ErrTreeIsFrozen
	}
	if len(e.features) == 0 {
		return ErrEmptyTree
	}

	initialized := make(map[Transform]bool)
	var initErr error
	e.root.walk(func(n *node) {
		if initErr != nil || n == e.root || initialized[n.tfm] {
			return
		}
		initialized[n.tfm] = true
		if err := n.tfm.Initialize(); err != nil {
			initErr = fmt.Errorf("initializing %s: %w", n.tfm.Name(), err)
		}
	})
	if initErr != nil {
		return initErr
	}

	// DFS preorder, siblings in insertion order, parent before
	// children: topological and cache friendly.
	e.order = e.order[:0]
	e.root.walk(func(n *node) {
		n.execIndex = len(e.order)
		e.order = append(e.order, n)
	})
	for i := 0; i < len(e.order)-1; i++ {
		e.order[i].next = e.order[i+1]
	}
	e.order[len(e.order)-1].next = nil

	if err := e.plan(); err != nil {
		return err
	}
	e.frozen = true
	e.logger.Debug("engine prepared",
		"nodes", len(e.order)-1,
		"features", len(e.features),
		"backing_bytes", e.peak)
	return nil
}

// Close releases the backing block. The engine must not be executed
// afterwards.
func (e *Engine) Close() {
	if e.blk != nil {
		e.blk.unprotect(0, len(e.blk.data))
		e.blk.free()
		e.blk = nil
	}
}
