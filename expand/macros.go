// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines macros.  Builtin macros are callables; user macros are
// data: pattern branches matched against resolved arguments.  Two branches
// of the same macro must not overlap, and the conflict check produces a
// counterexample argument list when they do.

package expand

import (
	"strings"

	"github.com/qter-project/qter/diag"
	"github.com/qter-project/qter/span"
)

// MacroArgTy types one pattern slot of a user macro.
type MacroArgTy int

const (
	ArgInt MacroArgTy = iota
	ArgReg
	ArgBlock
	ArgIdent
)

// A PatternComponent is one element of a macro branch pattern: a literal
// word that must match exactly, or a typed argument slot.
type PatternComponent struct {
	// Word is set for literal components.
	Word string
	// ArgName and Ty describe an argument slot when Word is empty.
	ArgName string
	Ty      MacroArgTy
	Pos     span.Span
}

// IsWord reports whether the component is a literal word.
func (c *PatternComponent) IsWord() bool { return c.Word != "" }

// conflictsWith returns a counterexample string matched by both components,
// or "" when the components cannot both match any argument.
func (c *PatternComponent) conflictsWith(other *PatternComponent) (string, bool) {
	switch {
	case !c.IsWord() && !other.IsWord():
		switch {
		case c.Ty == ArgInt && other.Ty == ArgInt:
			return "123", true
		case (c.Ty == ArgReg || c.Ty == ArgIdent) && (other.Ty == ArgReg || other.Ty == ArgIdent):
			return "a", true
		case c.Ty == ArgBlock && other.Ty == ArgBlock:
			return "{ }", true
		default:
			return "", false
		}
	case c.IsWord() && other.IsWord():
		if c.Word == other.Word {
			return c.Word, true
		}
		return "", false
	default:
		word, slot := c, other
		if !c.IsWord() {
			word, slot = other, c
		}
		if slot.Ty == ArgIdent || slot.Ty == ArgReg {
			return word.Word, true
		}
		return "", false
	}
}

// matches reports whether the component accepts the resolved value.
func (c *PatternComponent) matches(value *ResolvedValue) bool {
	if c.IsWord() {
		return value.Kind == IdentValue && value.Ident == c.Word
	}
	switch c.Ty {
	case ArgInt:
		return value.Kind == IntValue
	case ArgReg, ArgIdent:
		return value.Kind == IdentValue
	case ArgBlock:
		return value.Kind == BlockValue
	}
	return false
}

// A MacroPattern is the full argument pattern of one branch.
type MacroPattern struct {
	Components []PatternComponent
	Pos        span.Span
}

// ConflictsWith returns a counterexample argument list matching both
// patterns, or "" if no argument list can match both.  The check is
// symmetric.
func (p *MacroPattern) ConflictsWith(macroName string, other *MacroPattern) (string, bool) {
	if len(p.Components) != len(other.Components) {
		return "", false
	}

	var sb strings.Builder
	sb.WriteString(macroName)
	for i := range p.Components {
		example, ok := p.Components[i].conflictsWith(&other.Components[i])
		if !ok {
			return "", false
		}
		sb.WriteByte(' ')
		sb.WriteString(example)
	}
	return sb.String(), true
}

// Matches tries the pattern against resolved arguments.  On success it
// returns the defines to seed the branch's scope with (literal words bind
// nothing).
func (p *MacroPattern) Matches(args []ResolvedValue, argPos []span.Span) ([]ResolvedDefine, bool) {
	if len(args) != len(p.Components) {
		return nil, false
	}
	for i := range args {
		if !p.Components[i].matches(&args[i]) {
			return nil, false
		}
	}

	var defines []ResolvedDefine
	for i := range args {
		if p.Components[i].IsWord() {
			continue
		}
		defines = append(defines, ResolvedDefine{
			Name:  p.Components[i].ArgName,
			Value: args[i],
			Pos:   argPos[i],
		})
	}
	return defines, true
}

// A MacroBranch pairs a pattern with the code it expands to.
type MacroBranch struct {
	Pattern MacroPattern
	Body    []TaggedInstruction
}

// A BuiltinFn expands a builtin macro call into instructions.
type BuiltinFn func(info *Info, args []Value, argsPos span.Span, block BlockID) ([]Instruction, *diag.Log)

// A Macro is a builtin callable or user-defined branches.
type Macro struct {
	Builtin  BuiltinFn
	Branches []MacroBranch
	Pos      span.Span
}

// A macroKey addresses a macro by the file its definition is visible in and
// its name.
type macroKey struct {
	File *span.File
	Name string
}
