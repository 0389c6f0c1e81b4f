// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the syntax the parser hands to the macro expander:
// instructions tagged with lexical blocks, values that may still be constant
// references, register references, and the register declarations of a
// program.

// Package expand resolves constants and labels, expands user and builtin
// macros to register-machine primitives, and tracks the lexical block tree
// of a QAT program.
package expand

import (
	"math/big"
	"strings"

	"github.com/qter-project/qter/arch"
	"github.com/qter-project/qter/span"
)

// A BlockID is an opaque handle to a lexical scope.  Block 0 is the root
// scope; NoBlock marks instructions not yet stamped by the expander.
type BlockID int

// NoBlock is the tag of an instruction that has not been assigned a scope.
const NoBlock BlockID = -1

// A TaggedInstruction is an instruction plus the block it belongs to.
type TaggedInstruction struct {
	Instr Instruction
	Block BlockID
	Pos   span.Span
}

// An Instruction is one entry of the pre-expansion instruction stream.
type Instruction interface {
	isInstruction()
}

// A LabelInstr declares a label at this point of the stream.
type LabelInstr struct {
	Label Label
}

// A CodeInstr is either a primitive or a macro call.
type CodeInstr struct {
	// Exactly one of Prim, Macro is set.
	Prim  Primitive
	Macro *MacroCall
}

// A DefineInstr binds a name in the enclosing scope.
type DefineInstr struct {
	Name    string
	NamePos span.Span
	Value   DefineValue
}

// A ConstantInstr splices the block bound to a name ($name as a statement).
type ConstantInstr struct {
	Name string
}

// A ScriptCallInstr invokes the file's script backend as a statement.
type ScriptCallInstr struct {
	Fn    string
	FnPos span.Span
	Args  []Value
}

func (LabelInstr) isInstruction() {}

func (CodeInstr) isInstruction() {}

func (DefineInstr) isInstruction() {}

func (ConstantInstr) isInstruction() {}

func (ScriptCallInstr) isInstruction() {}

// A Label is a jump target.  Labels are stamped with their block on the
// first expansion pass that sees them; AvailableIn restricts which scopes
// may resolve to the label (nil means any).
type Label struct {
	Name        string
	Block       BlockID
	Stamped     bool
	AvailableIn []BlockID
	Pos         span.Span
}

// A LabelReference names a label from a referring scope; resolution walks
// outward from Block.
type LabelReference struct {
	Name  string
	Block BlockID
	Pos   span.Span
}

// A RegisterRef is a register argument, possibly carrying an explicit
// modulus written as "name%mod".
type RegisterRef struct {
	Name    string
	Modulus *big.Int
	Pos     span.Span
}

// ParseRegisterRef splits a "name%mod" register argument.  A missing or
// malformed modulus suffix leaves the name untouched.
func ParseRegisterRef(name string, pos span.Span) RegisterRef {
	if idx := strings.LastIndexByte(name, '%'); idx >= 0 {
		if mod, ok := new(big.Int).SetString(name[idx+1:], 10); ok && mod.Sign() > 0 {
			return RegisterRef{Name: name[:idx], Modulus: mod, Pos: pos}
		}
	}
	return RegisterRef{Name: name, Pos: pos}
}

// A Primitive is a register-machine instruction surviving expansion.
type Primitive interface {
	isPrimitive()
}

// AddPrim steps a register by a constant amount.
type AddPrim struct {
	Reg RegisterRef
	Amt *big.Int
}

// GotoPrim jumps unconditionally to a label.
type GotoPrim struct {
	Label LabelReference
}

// SolvedGotoPrim jumps when the register is zero.
type SolvedGotoPrim struct {
	Reg   RegisterRef
	Label LabelReference
}

// InputPrim pauses for input into the register.
type InputPrim struct {
	Reg     RegisterRef
	Message string
}

// HaltPrim stops the program, optionally printing a register.
type HaltPrim struct {
	Message string
	Reg     *RegisterRef
}

// PrintPrim prints a message, optionally with a register value.
type PrintPrim struct {
	Message string
	Reg     *RegisterRef
}

func (AddPrim) isPrimitive() {}

func (GotoPrim) isPrimitive() {}

func (SolvedGotoPrim) isPrimitive() {}

func (InputPrim) isPrimitive() {}

func (HaltPrim) isPrimitive() {}

func (PrintPrim) isPrimitive() {}

// A MacroCall invokes a user or builtin macro by name.
type MacroCall struct {
	Name    string
	NamePos span.Span
	Args    []Value
	ArgsPos span.Span
}

// A Value is an argument or define right-hand side: either already resolved
// or a reference to a constant in scope.
type Value struct {
	Resolved *ResolvedValue // nil when Constant is set
	Constant string
	Pos      span.Span
}

// ValueKind discriminates ResolvedValue.
type ValueKind int

const (
	IntValue ValueKind = iota
	IdentValue
	BlockValue
)

// A ResolvedValue is a fully resolved value: an unbounded nonnegative
// integer, an identifier, or a code block.
type ResolvedValue struct {
	Kind  ValueKind
	Int   *big.Int
	Ident string
	Block *Block
}

// A Block is a brace-delimited instruction list used as a value.
type Block struct {
	Code []TaggedInstruction
}

// A DefineValue is the right-hand side of a define: a value or a script
// call evaluated at expansion time.
type DefineValue struct {
	Value  *Value
	Script *ScriptCallInstr
	Pos    span.Span
}

// A ResolvedDefine is a binding in a block's scope.
type ResolvedDefine struct {
	Name  string
	Value ResolvedValue
	Pos   span.Span
}

// A RegistersDecl lists the declared puzzles of a program.
type RegistersDecl struct {
	Puzzles []Puzzle
	Pos     span.Span
}

// A Puzzle is one declared register carrier.
type Puzzle interface {
	isPuzzle()
}

// A TheoreticalPuzzle is a register of a given order with no physical
// puzzle behind it.
type TheoreticalPuzzle struct {
	Name  string
	Order *big.Int
	Pos   span.Span
}

// A RealPuzzle carries registers on an architecture of a physical puzzle.
type RealPuzzle struct {
	// Register names, parallel to the architecture's registers.
	Names      []string
	Arch       *arch.Architecture
	PuzzleName string
	Pos        span.Span
}

func (TheoreticalPuzzle) isPuzzle() {}

func (RealPuzzle) isPuzzle() {}

// FindRegister locates the puzzle declaring the named register.
func (r *RegistersDecl) FindRegister(ref RegisterRef) (Puzzle, bool) {
	if r == nil {
		return nil, false
	}
	for _, puzzle := range r.Puzzles {
		switch p := puzzle.(type) {
		case TheoreticalPuzzle:
			if p.Name == ref.Name {
				return p, true
			}
		case RealPuzzle:
			for _, name := range p.Names {
				if name == ref.Name {
					return p, true
				}
			}
		}
	}
	return nil, false
}
