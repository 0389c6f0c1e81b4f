// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the builtin macros: add, goto, solved-goto, input,
// halt, and print.  Each one resolves its arguments against the calling
// scope and produces a single primitive.

package expand

import (
	"math/big"
	"strings"

	"github.com/qter-project/qter/diag"
	"github.com/qter-project/qter/span"
)

// PreludeFile is the pseudo-file builtin macros are defined in; every parsed
// file can see it.
var PreludeFile = span.NewFile("<prelude>", "")

// Builtins returns the builtin macro table.
func Builtins() map[macroKey]*Macro {
	macros := make(map[macroKey]*Macro)

	add := func(name string, fn BuiltinFn) {
		macros[macroKey{PreludeFile, name}] = &Macro{Builtin: fn}
	}

	add("add", func(info *Info, args []Value, argsPos span.Span, block BlockID) ([]Instruction, *diag.Log) {
		log := diag.NewLog()
		if len(args) != 2 {
			log.Errorf(argsPos, "Expected two arguments, found %d", len(args))
			return nil, log
		}

		reg, ok := info.expectReg(&args[0], block, log)
		if !ok {
			return nil, log
		}
		amt, ok := info.expectInt(&args[1], block, log)
		if !ok {
			return nil, log
		}

		return []Instruction{CodeInstr{Prim: AddPrim{Reg: reg, Amt: amt}}}, log
	})

	add("goto", func(info *Info, args []Value, argsPos span.Span, block BlockID) ([]Instruction, *diag.Log) {
		log := diag.NewLog()
		if len(args) != 1 {
			log.Errorf(argsPos, "Expected one argument, found %d", len(args))
			return nil, log
		}

		label, ok := info.expectLabel(&args[0], block, log)
		if !ok {
			return nil, log
		}

		return []Instruction{CodeInstr{Prim: GotoPrim{Label: label}}}, log
	})

	add("solved-goto", func(info *Info, args []Value, argsPos span.Span, block BlockID) ([]Instruction, *diag.Log) {
		log := diag.NewLog()
		if len(args) != 2 {
			log.Errorf(argsPos, "Expected two arguments, found %d", len(args))
			return nil, log
		}

		reg, ok := info.expectReg(&args[0], block, log)
		if !ok {
			return nil, log
		}
		label, ok := info.expectLabel(&args[1], block, log)
		if !ok {
			return nil, log
		}

		return []Instruction{CodeInstr{Prim: SolvedGotoPrim{Reg: reg, Label: label}}}, log
	})

	add("input", func(info *Info, args []Value, argsPos span.Span, block BlockID) ([]Instruction, *diag.Log) {
		log := diag.NewLog()
		if len(args) != 2 {
			log.Errorf(argsPos, "Expected two arguments, found %d", len(args))
			return nil, log
		}

		message, ok := info.expectMessage(&args[0], block, log)
		if !ok {
			return nil, log
		}
		reg, ok := info.expectReg(&args[1], block, log)
		if !ok {
			return nil, log
		}

		return []Instruction{CodeInstr{Prim: InputPrim{Reg: reg, Message: message}}}, log
	})

	add("halt", func(info *Info, args []Value, argsPos span.Span, block BlockID) ([]Instruction, *diag.Log) {
		log := diag.NewLog()
		message, reg, ok := info.printLike(args, argsPos, block, log)
		if !ok {
			return nil, log
		}
		return []Instruction{CodeInstr{Prim: HaltPrim{Message: message, Reg: reg}}}, log
	})

	add("print", func(info *Info, args []Value, argsPos span.Span, block BlockID) ([]Instruction, *diag.Log) {
		log := diag.NewLog()
		message, reg, ok := info.printLike(args, argsPos, block, log)
		if !ok {
			return nil, log
		}
		return []Instruction{CodeInstr{Prim: PrintPrim{Message: message, Reg: reg}}}, log
	})

	return macros
}

// printLike parses the `message [register]` argument shape shared by halt
// and print.
func (info *Info) printLike(args []Value, argsPos span.Span, block BlockID, log *diag.Log) (string, *RegisterRef, bool) {
	if len(args) == 0 || len(args) > 2 {
		log.Errorf(argsPos, "Expected one or two arguments, found %d", len(args))
		return "", nil, false
	}

	var reg *RegisterRef
	if len(args) == 2 {
		r, ok := info.expectReg(&args[1], block, log)
		if !ok {
			return "", nil, false
		}
		reg = &r
	}

	message, ok := info.expectMessage(&args[0], block, log)
	if !ok {
		return "", nil, false
	}

	return message, reg, true
}

func (info *Info) expectReg(value *Value, block BlockID, log *diag.Log) (RegisterRef, bool) {
	resolved, ok := info.Blocks.Resolve(block, *value)
	if !ok {
		log.Errorf(value.Pos, "Constant not found in this scope")
		return RegisterRef{}, false
	}
	if resolved.Kind != IdentValue {
		log.Errorf(value.Pos, "Expected a register")
		return RegisterRef{}, false
	}

	ref := ParseRegisterRef(resolved.Ident, value.Pos)
	if _, found := info.Registers.FindRegister(ref); !found {
		log.Errorf(value.Pos, "The register %s does not exist", resolved.Ident)
		return RegisterRef{}, false
	}
	return ref, true
}

func (info *Info) expectLabel(value *Value, block BlockID, log *diag.Log) (LabelReference, bool) {
	resolved, ok := info.Blocks.Resolve(block, *value)
	if !ok {
		log.Errorf(value.Pos, "Constant not found in this scope")
		return LabelReference{}, false
	}
	if resolved.Kind != IdentValue {
		log.Errorf(value.Pos, "Expected a label")
		return LabelReference{}, false
	}
	return LabelReference{Name: resolved.Ident, Block: block, Pos: value.Pos}, true
}

func (info *Info) expectInt(value *Value, block BlockID, log *diag.Log) (*big.Int, bool) {
	resolved, ok := info.Blocks.Resolve(block, *value)
	if !ok {
		log.Errorf(value.Pos, "Constant not found in this scope")
		return nil, false
	}
	if resolved.Kind != IntValue {
		log.Errorf(value.Pos, "Expected a number")
		return nil, false
	}
	return resolved.Int, true
}

func (info *Info) expectMessage(value *Value, block BlockID, log *diag.Log) (string, bool) {
	resolved, ok := info.Blocks.Resolve(block, *value)
	if !ok {
		log.Errorf(value.Pos, "Constant not found in this scope")
		return "", false
	}
	if resolved.Kind != IdentValue {
		log.Errorf(value.Pos, "Expected a message")
		return "", false
	}
	return strings.Trim(resolved.Ident, `"`), true
}
