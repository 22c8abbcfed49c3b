// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfe

// The recipe parser. Grammar, informally:
//
//	recipe := ident "[" tfm ("," tfm)* "]"
//	tfm    := ident ("(" body ")")?
//
// where body is the raw parameters string handed to
// ParseRawParameters later. Whitespace around tokens is insignificant.

// A RecipeStep names one transform of a recipe together with its raw,
// not yet parsed parameter text.
type RecipeStep struct {
	Class     string
	RawParams string
}

// A Recipe is a parsed feature description: a name and the ordered
// transform list.
type Recipe struct {
	Name  string
	Steps []RecipeStep
}

type recipeLexer struct {
	src   string
	pos   int
	index int // recipe index, for errors
}

func (l *recipeLexer) errorf() error {
	return &SyntaxError{Index: l.index, Column: l.pos, Text: l.src}
}

func (l *recipeLexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func (l *recipeLexer) ident() (string, error) {
	l.skipSpace()
	start := l.pos
	for l.pos < len(l.src) && isIdentByte(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == start {
		return "", l.errorf()
	}
	return l.src[start:l.pos], nil
}

// expect consumes c, returning false if the next non-space byte
// differs.
func (l *recipeLexer) expect(c byte) bool {
	l.skipSpace()
	if l.pos < len(l.src) && l.src[l.pos] == c {
		l.pos++
		return true
	}
	return false
}

func (l *recipeLexer) peek() (byte, bool) {
	l.skipSpace()
	if l.pos < len(l.src) {
		return l.src[l.pos], true
	}
	return 0, false
}

// body consumes everything up to the closing ')'.
func (l *recipeLexer) body() (string, error) {
	start := l.pos
	for l.pos < len(l.src) {
		if l.src[l.pos] == ')' {
			body := l.src[start:l.pos]
			l.pos++
			return body, nil
		}
		l.pos++
	}
	return "", l.errorf()
}

func (l *recipeLexer) step() (RecipeStep, error) {
	name, err := l.ident()
	if err != nil {
		return RecipeStep{}, err
	}
	step := RecipeStep{Class: name}
	if c, ok := l.peek(); ok && c == '(' {
		l.pos++
		if step.RawParams, err = l.body(); err != nil {
			return RecipeStep{}, err
		}
	}
	return step, nil
}

// ParseFeature parses a single recipe line such as
// "MFCC[Window(length=400),RDFT]". index is the recipe's position in
// its batch and is reported in syntax errors.
func ParseFeature(line string, index int) (Recipe, error) {
	l := &recipeLexer{src: line, index: index}
	name, err := l.ident()
	if err != nil {
		return Recipe{}, err
	}
	if !l.expect('[') {
		return Recipe{}, l.errorf()
	}
	r := Recipe{Name: name}
	for {
		step, err := l.step()
		if err != nil {
			return Recipe{}, err
		}
		r.Steps = append(r.Steps, step)
		c, ok := l.peek()
		if !ok {
			return Recipe{}, l.errorf()
		}
		switch c {
		case ',':
			l.pos++
		case ']':
			l.pos++
			l.skipSpace()
			if l.pos != len(l.src) {
				return Recipe{}, l.errorf()
			}
			return r, nil
		default:
			return Recipe{}, l.errorf()
		}
	}
}

// ParseFeatures parses a batch of recipe lines into an ordered recipe
// list. The recipe index inside a SyntaxError refers to the position in
// lines.
func ParseFeatures(lines []string) ([]Recipe, error) {
	recipes := make([]Recipe, 0, len(lines))
	for i, line := range lines {
		r, err := ParseFeature(line, i)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}
