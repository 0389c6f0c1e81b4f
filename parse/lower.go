// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file lowers the parse tree into the expander's instruction stream:
// registers declarations become architectures, macro definitions are
// registered (with conflict checking), and statements become tagged
// instructions ready for expansion.

package parse

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/qter-project/qter/arch"
	"github.com/qter-project/qter/diag"
	"github.com/qter-project/qter/expand"
	"github.com/qter-project/qter/puzzles"
	"github.com/qter-project/qter/span"
)

// Options configures parsing.
type Options struct {
	// FindImport loads the source of an imported file.  nil forbids
	// imports.
	FindImport func(path string) (*span.File, error)
	// NewScriptBackend creates the script backend of a file containing
	// .script directives.  nil forbids scripting.
	NewScriptBackend func() expand.ScriptBackend
}

// Parse lexes, parses, and lowers a QAT file.
func Parse(file *span.File, opts Options) (*expand.Parsed, *diag.Log) {
	l := &lowerer{
		opts:     opts,
		info:     expand.NewInfo(file),
		log:      diag.NewLog(),
		imported: map[string]bool{},
	}

	code := l.lowerFile(file, true)
	if l.log.ContainsErrors() {
		return nil, l.log
	}

	return &expand.Parsed{Info: l.info, Code: code}, l.log
}

type lowerer struct {
	opts     Options
	info     *expand.Info
	log      *diag.Log
	imported map[string]bool
}

func (l *lowerer) lowerFile(file *span.File, allowCode bool) []expand.TaggedInstruction {
	tree, err := qatParser.ParseString(file.Name(), file.Contents())
	if err != nil {
		l.log.Errorf(errSpan(file, err), "%s", err)
		return nil
	}
	return l.lowerItems(file, tree.Items, allowCode)
}

func errSpan(file *span.File, err error) span.Span {
	var perr participle.Error
	if ok := errorsAs(err, &perr); ok {
		pos := perr.Position()
		return span.New(file, pos.Offset, 1)
	}
	return span.New(file, 0, 0)
}

func errorsAs(err error, target *participle.Error) bool {
	if perr, ok := err.(participle.Error); ok {
		*target = perr
		return true
	}
	return false
}

func (l *lowerer) spanOf(file *span.File, pos, end lexer.Position) span.Span {
	length := end.Offset - pos.Offset
	if length < 0 {
		length = 0
	}
	return span.New(file, pos.Offset, length)
}

func (l *lowerer) lowerItems(file *span.File, items []item, allowCode bool) []expand.TaggedInstruction {
	var out []expand.TaggedInstruction

	appendInstr := func(instr expand.Instruction, at span.Span) {
		out = append(out, expand.TaggedInstruction{Instr: instr, Block: expand.NoBlock, Pos: at})
	}

	for _, it := range items {
		if !allowCode {
			switch {
			case it.MacroDef != nil, it.Script != nil, it.Import != nil:
				// Definitions are what imports are for.
			default:
				l.log.Errorf(span.New(file, 0, 0),
					"Imported files may only define macros and script code")
				continue
			}
		}

		switch {
		case it.Registers != nil:
			l.lowerRegisters(file, it.Registers)

		case it.Define != nil:
			d := it.Define
			at := l.spanOf(file, d.Pos, d.EndPos)
			namePos := span.New(file, d.Pos.Offset+len(".define "), len(d.Name))
			value, ok := l.lowerDefineValue(file, d.Value)
			if !ok {
				continue
			}
			appendInstr(expand.DefineInstr{Name: d.Name, NamePos: namePos, Value: value}, at)

		case it.MacroDef != nil:
			l.lowerMacro(file, it.MacroDef)

		case it.Import != nil:
			l.lowerImport(file, it.Import)

		case it.Script != nil:
			l.lowerScript(file, it.Script)

		case it.ScriptCall != nil:
			call, ok := l.lowerScriptCall(file, it.ScriptCall)
			if !ok {
				continue
			}
			appendInstr(call, l.spanOf(file, it.ScriptCall.Pos, it.ScriptCall.EndPos))

		case it.Splice != nil:
			at := l.spanOf(file, it.Splice.Pos, it.Splice.EndPos)
			appendInstr(expand.ConstantInstr{Name: it.Splice.Name}, at)

		case it.Label != nil:
			at := l.spanOf(file, it.Label.Pos, it.Label.EndPos)
			appendInstr(expand.LabelInstr{Label: expand.Label{
				Name:  it.Label.Name,
				Block: expand.NoBlock,
				Pos:   at,
			}}, at)

		case it.Call != nil:
			c := it.Call
			at := l.spanOf(file, c.Pos, c.EndPos)
			namePos := span.New(file, c.Pos.Offset, len(c.Name))
			args := make([]expand.Value, 0, len(c.Args))
			for i := range c.Args {
				args = append(args, l.lowerArg(file, &c.Args[i]))
			}
			appendInstr(expand.CodeInstr{Macro: &expand.MacroCall{
				Name:    c.Name,
				NamePos: namePos,
				Args:    args,
				ArgsPos: at,
			}}, at)
		}
	}

	return out
}

func (l *lowerer) lowerArg(file *span.File, a *arg) expand.Value {
	at := l.spanOf(file, a.Pos, a.EndPos)
	switch {
	case a.Int != nil:
		v, _ := new(big.Int).SetString(*a.Int, 10)
		return expand.Value{Resolved: &expand.ResolvedValue{Kind: expand.IntValue, Int: v}, Pos: at}
	case a.Str != nil:
		return expand.Value{Resolved: &expand.ResolvedValue{Kind: expand.IdentValue, Ident: *a.Str}, Pos: at}
	case a.Const != nil:
		return expand.Value{Constant: *a.Const, Pos: at}
	case a.Block != nil:
		code := l.lowerItems(file, a.Block.Items, true)
		return expand.Value{
			Resolved: &expand.ResolvedValue{Kind: expand.BlockValue, Block: &expand.Block{Code: code}},
			Pos:      at,
		}
	default:
		return expand.Value{Resolved: &expand.ResolvedValue{Kind: expand.IdentValue, Ident: *a.Ident}, Pos: at}
	}
}

func (l *lowerer) lowerDefineValue(file *span.File, v *valueExpr) (expand.DefineValue, bool) {
	at := l.spanOf(file, v.Pos, v.EndPos)
	switch {
	case v.ScriptCall != nil:
		call, ok := l.lowerScriptCall(file, v.ScriptCall)
		if !ok {
			return expand.DefineValue{}, false
		}
		return expand.DefineValue{Script: &call, Pos: at}, true
	case v.Int != nil:
		value, _ := new(big.Int).SetString(*v.Int, 10)
		return expand.DefineValue{Value: &expand.Value{
			Resolved: &expand.ResolvedValue{Kind: expand.IntValue, Int: value},
			Pos:      at,
		}, Pos: at}, true
	case v.Str != nil:
		return expand.DefineValue{Value: &expand.Value{
			Resolved: &expand.ResolvedValue{Kind: expand.IdentValue, Ident: *v.Str},
			Pos:      at,
		}, Pos: at}, true
	case v.Const != nil:
		return expand.DefineValue{Value: &expand.Value{Constant: *v.Const, Pos: at}, Pos: at}, true
	case v.Block != nil:
		code := l.lowerItems(file, v.Block.Items, true)
		return expand.DefineValue{Value: &expand.Value{
			Resolved: &expand.ResolvedValue{Kind: expand.BlockValue, Block: &expand.Block{Code: code}},
			Pos:      at,
		}, Pos: at}, true
	default:
		return expand.DefineValue{Value: &expand.Value{
			Resolved: &expand.ResolvedValue{Kind: expand.IdentValue, Ident: *v.Ident},
			Pos:      at,
		}, Pos: at}, true
	}
}

func (l *lowerer) lowerScriptCall(file *span.File, c *scriptCallExpr) (expand.ScriptCallInstr, bool) {
	fnPos := span.New(file, c.Pos.Offset+1, len(c.Fn))
	args := make([]expand.Value, 0, len(c.Args))
	for i := range c.Args {
		args = append(args, l.lowerArg(file, &c.Args[i]))
	}
	return expand.ScriptCallInstr{Fn: c.Fn, FnPos: fnPos, Args: args}, true
}

func (l *lowerer) lowerRegisters(file *span.File, decl *registersDecl) {
	at := l.spanOf(file, decl.Pos, decl.EndPos)
	if l.info.Registers != nil {
		l.log.Errorf(at, "Only one `.registers` declaration is allowed")
		return
	}

	registers := &expand.RegistersDecl{Pos: at}

	for i := range decl.Decls {
		d := &decl.Decls[i]
		declAt := l.spanOf(file, d.Pos, d.EndPos)

		switch {
		case d.Theoretical != nil:
			if len(d.Names) != 1 {
				l.log.Errorf(declAt, "A theoretical register is declared with exactly one name")
				continue
			}
			order, ok := new(big.Int).SetString(d.Theoretical.Order, 10)
			if !ok || order.Sign() <= 0 {
				l.log.Errorf(declAt, "Malformed theoretical order %q", d.Theoretical.Order)
				continue
			}
			registers.Puzzles = append(registers.Puzzles, expand.TheoreticalPuzzle{
				Name:  d.Names[0],
				Order: order,
				Pos:   declAt,
			})

		case d.Real != nil:
			group, ok := puzzles.Get(d.Real.Puzzle)
			if !ok {
				l.log.Errorf(declAt, "Unknown puzzle %q", d.Real.Puzzle)
				continue
			}

			var a *arch.Architecture
			if d.Real.Builtin != nil {
				orders := make([]*big.Int, 0, len(d.Real.Builtin.Orders))
				for _, s := range d.Real.Builtin.Orders {
					order, ok := new(big.Int).SetString(s, 10)
					if !ok {
						l.log.Errorf(declAt, "Malformed order %q", s)
						continue
					}
					orders = append(orders, order)
				}

				def, err := arch.WithPresets(group)
				if err != nil {
					l.log.Errorf(declAt, "Loading presets: %s", err)
					continue
				}
				a = def.GetPreset(orders)
				if a == nil {
					l.log.Errorf(declAt, "No preset of %s has the cycle structure %v",
						d.Real.Puzzle, d.Real.Builtin.Orders)
					continue
				}
			} else {
				algs := make([][]string, len(d.Real.Algs.Algs))
				for i, moveSeq := range d.Real.Algs.Algs {
					algs[i] = moveSeq.Moves
				}
				var err error
				a, err = arch.New(group, algs)
				if err != nil {
					l.log.Errorf(declAt, "Invalid architecture: %s", err)
					continue
				}
			}

			if len(d.Names) != len(a.Registers()) {
				l.log.Errorf(declAt, "Declared %d register names for %d registers",
					len(d.Names), len(a.Registers()))
				continue
			}

			registers.Puzzles = append(registers.Puzzles, expand.RealPuzzle{
				Names:      d.Names,
				Arch:       a,
				PuzzleName: d.Real.Puzzle,
				Pos:        declAt,
			})
		}
	}

	l.info.Registers = registers
}

var patternTypes = map[string]expand.MacroArgTy{
	"int":   expand.ArgInt,
	"reg":   expand.ArgReg,
	"block": expand.ArgBlock,
	"ident": expand.ArgIdent,
}

func (l *lowerer) lowerMacro(file *span.File, decl *macroDecl) {
	macro := &expand.Macro{Pos: l.spanOf(file, decl.Pos, decl.EndPos)}

	for i := range decl.Branches {
		b := &decl.Branches[i]
		branchAt := l.spanOf(file, b.Pos, b.EndPos)

		pattern := expand.MacroPattern{Pos: branchAt}
		bad := false
		for j := range b.Components {
			comp := &b.Components[j]
			compAt := l.spanOf(file, comp.Pos, comp.EndPos)
			if comp.Word != nil {
				pattern.Components = append(pattern.Components, expand.PatternComponent{
					Word: *comp.Word,
					Pos:  compAt,
				})
				continue
			}
			ty, ok := patternTypes[comp.Arg.Type]
			if !ok {
				l.log.Errorf(compAt, "Unknown argument type %q; use int, reg, block, or ident",
					comp.Arg.Type)
				bad = true
				continue
			}
			pattern.Components = append(pattern.Components, expand.PatternComponent{
				ArgName: comp.Arg.Name,
				Ty:      ty,
				Pos:     compAt,
			})
		}
		if bad {
			continue
		}

		macro.Branches = append(macro.Branches, expand.MacroBranch{
			Pattern: pattern,
			Body:    l.lowerItems(file, b.Body.Items, true),
		})
	}

	l.log.Append(l.info.DefineMacro(file, decl.Name, macro))
}

func (l *lowerer) lowerImport(file *span.File, decl *importDecl) {
	at := l.spanOf(file, decl.Pos, decl.EndPos)
	path, err := unquote(decl.Path)
	if err != nil {
		l.log.Errorf(at, "Malformed import path: %s", err)
		return
	}

	if l.opts.FindImport == nil {
		l.log.Errorf(at, "Imports are not allowed here")
		return
	}
	if l.imported[path] {
		return
	}
	l.imported[path] = true

	imported, err := l.opts.FindImport(path)
	if err != nil {
		l.log.Errorf(at, "Cannot import %q: %s", path, err)
		return
	}

	l.info.ExposeBuiltins(imported)
	l.lowerFile(imported, false)

	// Everything the import defined becomes visible to the importing file.
	for _, name := range l.info.MacroNamesIn(imported) {
		l.info.ExposeMacro(file, name, imported)
	}
}

func (l *lowerer) lowerScript(file *span.File, decl *scriptDecl) {
	at := l.spanOf(file, decl.Pos, decl.EndPos)
	code, err := unquote(decl.Code)
	if err != nil {
		l.log.Errorf(at, "Malformed script literal: %s", err)
		return
	}

	backend, ok := l.info.Scripts[file]
	if !ok {
		if l.opts.NewScriptBackend == nil {
			l.log.Errorf(at, "Scripting is not enabled")
			return
		}
		backend = l.opts.NewScriptBackend()
		l.info.SetScriptBackend(file, backend)
	}

	if err := backend.AddCode(code); err != nil {
		l.log.Errorf(at, "Script error: %s", err)
	}
}

func unquote(s string) (string, error) {
	if !strings.HasPrefix(s, `"`) {
		return s, nil
	}
	out, err := strconv.Unquote(s)
	if err != nil {
		return "", fmt.Errorf("invalid string literal %s", s)
	}
	return out, nil
}
