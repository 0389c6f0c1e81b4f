// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file runs macro expansion to a fixpoint: each pass stamps untagged
// instructions with their scope, binds defines, splices constants, and
// expands macro calls, until a pass changes nothing.  A program that keeps
// changing for RecursionLimit passes is diagnosed at the span that changed
// most recently.

package expand

import (
	"github.com/qter-project/qter/diag"
	"github.com/qter-project/qter/span"
)

// RecursionLimit bounds the number of expansion passes.
const RecursionLimit = 100

// Info is the state threaded through expansion.
type Info struct {
	Registers *RegistersDecl
	Blocks    *Tracker
	// Macros maps (defining file, name) to the macro.
	Macros map[macroKey]*Macro
	// AvailableMacros maps (calling file, name) to the defining file.
	AvailableMacros map[macroKey]*span.File
	// Scripts holds one script backend per file.
	Scripts map[*span.File]ScriptBackend
}

// NewInfo creates expansion state preloaded with the builtin macros, which
// are visible from the given files.
func NewInfo(files ...*span.File) *Info {
	info := &Info{
		Blocks:          NewTracker(),
		Macros:          Builtins(),
		AvailableMacros: make(map[macroKey]*span.File),
		Scripts:         make(map[*span.File]ScriptBackend),
	}
	for _, file := range files {
		info.ExposeBuiltins(file)
	}
	return info
}

// ExposeBuiltins makes the builtin macros callable from a file.
func (info *Info) ExposeBuiltins(file *span.File) {
	for key := range info.Macros {
		if key.File == PreludeFile {
			info.AvailableMacros[macroKey{file, key.Name}] = PreludeFile
		}
	}
}

// MacroNamesIn lists the names of the macros defined in a file.
func (info *Info) MacroNamesIn(file *span.File) []string {
	var names []string
	for key := range info.Macros {
		if key.File == file {
			names = append(names, key.Name)
		}
	}
	return names
}

// ExposeMacro makes a macro defined in defFile visible to callers in file.
func (info *Info) ExposeMacro(file *span.File, name string, defFile *span.File) {
	info.AvailableMacros[macroKey{file, name}] = defFile
}

// DefineMacro registers a user macro and checks its branches for pattern
// conflicts.
func (info *Info) DefineMacro(file *span.File, name string, macro *Macro) *diag.Log {
	log := diag.NewLog()
	for i := range macro.Branches {
		for j := i + 1; j < len(macro.Branches); j++ {
			if example, conflict := macro.Branches[i].Pattern.ConflictsWith(
				name, &macro.Branches[j].Pattern); conflict {
				log.Errorf(macro.Branches[j].Pattern.Pos,
					"Two branches of this macro can match the same arguments, for example `%s`", example)
			}
		}
	}
	if log.ContainsErrors() {
		return log
	}

	info.Macros[macroKey{file, name}] = macro
	info.ExposeMacro(file, name, file)
	return log
}

// Parsed is what the parser hands to Expand.
type Parsed struct {
	Info *Info
	Code []TaggedInstruction
}

// A Component is one entry of the expanded stream: a label or a primitive,
// in its block.
type Component struct {
	// Exactly one of Label, Prim is set.
	Label *Label
	Prim  Primitive
	Block BlockID
	Pos   span.Span
}

// Expanded is the result of macro expansion.
type Expanded struct {
	Registers  *RegistersDecl
	Blocks     *Tracker
	Components []Component
}

// Expand runs the fixpoint loop and converts the surviving instruction
// stream into components.
func Expand(parsed *Parsed) (*Expanded, *diag.Log) {
	log := diag.NewLog()
	info := parsed.Info
	code := parsed.Code

	limit := RecursionLimit
	for {
		next, changedAt, changed := expandPass(info, code, log)
		code = next
		if !changed {
			break
		}
		limit--
		if limit == 0 {
			log.Fatalf(changedAt, "Recursion limit reached during macro expansion")
			return nil, log
		}
	}

	if log.ContainsErrors() {
		return nil, log
	}

	out := &Expanded{
		Registers: info.Registers,
		Blocks:    info.Blocks,
	}
	for _, tagged := range code {
		switch instr := tagged.Instr.(type) {
		case LabelInstr:
			label := instr.Label
			out.Components = append(out.Components, Component{
				Label: &label,
				Block: tagged.Block,
				Pos:   tagged.Pos,
			})
		case CodeInstr:
			if instr.Prim == nil {
				log.Errorf(tagged.Pos, "Macro call survived expansion")
				continue
			}
			out.Components = append(out.Components, Component{
				Prim:  instr.Prim,
				Block: tagged.Block,
				Pos:   tagged.Pos,
			})
		default:
			log.Errorf(tagged.Pos, "Instruction survived expansion")
		}
	}

	if log.ContainsErrors() {
		return nil, log
	}
	return out, log
}

// expandPass walks the instruction list once.  It reports the span of the
// last change it made, if any; errors accumulate in log but do not stop the
// pass.
func expandPass(info *Info, code []TaggedInstruction, log *diag.Log) (out []TaggedInstruction, changedAt span.Span, changed bool) {
	noteChange := func(at span.Span) {
		changed = true
		changedAt = at
	}

	for _, tagged := range code {
		if tagged.Block == NoBlock {
			tagged.Block = info.Blocks.Root()
			noteChange(tagged.Pos)
		}

		switch instr := tagged.Instr.(type) {
		case LabelInstr:
			if !instr.Label.Stamped {
				instr.Label.Stamped = true
				instr.Label.Block = tagged.Block
				tagged.Instr = instr
				info.Blocks.RecordLabel(instr.Label)
				noteChange(tagged.Pos)
			}
			out = append(out, tagged)

		case DefineInstr:
			block := info.Blocks.Block(tagged.Block)
			if _, exists := block.Defines[instr.Name]; exists {
				log.Errorf(instr.NamePos, "Cannot shadow a `.define` in the same scope!")
				continue
			}

			resolved, ok := info.resolveDefineValue(instr.Value, tagged.Block, log)
			if !ok {
				continue
			}

			block.Defines[instr.Name] = ResolvedDefine{
				Name:  instr.Name,
				Value: resolved,
				Pos:   instr.NamePos,
			}
			noteChange(tagged.Pos)

		case ConstantInstr:
			def, ok := info.Blocks.GetDefine(tagged.Block, instr.Name)
			if !ok {
				log.Errorf(tagged.Pos, "`%s` was not found in this scope", instr.Name)
				continue
			}
			switch def.Value.Kind {
			case IntValue:
				log.Errorf(tagged.Pos, "Expected a code block, found an integer")
			case IdentValue:
				log.Errorf(tagged.Pos, "Expected a code block, found an identifier")
			case BlockValue:
				noteChange(tagged.Pos)
				newBlock := info.Blocks.NewBlock(tagged.Block)
				out = append(out, retag(def.Value.Block.Code, newBlock)...)
			}

		case CodeInstr:
			if instr.Prim != nil {
				out = append(out, tagged)
				continue
			}
			expanded, ok := info.expandMacroCall(instr.Macro, tagged, log)
			if !ok {
				continue
			}
			noteChange(instr.Macro.NamePos)
			out = append(out, expanded...)

		case ScriptCallInstr:
			// A statement-position script call runs for its side effects.
			if _, ok := info.callScript(&instr, tagged.Block, tagged.Pos, log); !ok {
				continue
			}
			noteChange(tagged.Pos)

		default:
			log.Errorf(tagged.Pos, "Unexpected instruction during expansion")
		}
	}

	return out, changedAt, changed
}

// retag clones a block body with a fresh scope tag.
func retag(code []TaggedInstruction, block BlockID) []TaggedInstruction {
	out := make([]TaggedInstruction, len(code))
	for i, tagged := range code {
		tagged.Block = block
		out[i] = tagged
	}
	return out
}

func (info *Info) resolveDefineValue(value DefineValue, block BlockID, log *diag.Log) (ResolvedValue, bool) {
	if value.Script != nil {
		result, ok := info.callScript(value.Script, block, value.Pos, log)
		if !ok {
			return ResolvedValue{}, false
		}
		return result, true
	}

	resolved, ok := info.Blocks.Resolve(block, *value.Value)
	if !ok {
		log.Errorf(value.Value.Pos, "Constant not found in this scope")
		return ResolvedValue{}, false
	}
	return resolved, true
}

func (info *Info) expandMacroCall(call *MacroCall, tagged TaggedInstruction, log *diag.Log) ([]TaggedInstruction, bool) {
	defFile, ok := info.AvailableMacros[macroKey{call.NamePos.File(), call.Name}]
	if !ok {
		log.Errorf(call.NamePos, "Macro was not found in this scope")
		return nil, false
	}
	macro := info.Macros[macroKey{defFile, call.Name}]
	if macro == nil {
		log.Errorf(call.NamePos, "Macro was not found in this scope")
		return nil, false
	}

	if macro.Builtin != nil {
		instrs, callLog := macro.Builtin(info, call.Args, call.ArgsPos, tagged.Block)
		failed := callLog.ContainsErrors()
		log.Append(callLog)
		if failed {
			return nil, false
		}
		out := make([]TaggedInstruction, len(instrs))
		for i, instr := range instrs {
			out[i] = TaggedInstruction{Instr: instr, Block: tagged.Block, Pos: tagged.Pos}
		}
		return out, true
	}

	// User macro: resolve the arguments, then take the first branch whose
	// pattern matches.
	args := make([]ResolvedValue, len(call.Args))
	argPos := make([]span.Span, len(call.Args))
	for i, arg := range call.Args {
		resolved, ok := info.Blocks.Resolve(tagged.Block, arg)
		if !ok {
			log.Errorf(arg.Pos, "Constant not found in this scope")
			return nil, false
		}
		args[i] = resolved
		argPos[i] = arg.Pos
	}

	for i := range macro.Branches {
		branch := &macro.Branches[i]
		defines, matched := branch.Pattern.Matches(args, argPos)
		if !matched {
			continue
		}

		newBlock := info.Blocks.NewBlock(tagged.Block)
		blockInfo := info.Blocks.Block(newBlock)
		for _, define := range defines {
			blockInfo.Defines[define.Name] = define
		}
		return retag(branch.Body, newBlock), true
	}

	log.Errorf(call.ArgsPos, "No branch of `%s` matches these arguments", call.Name)
	return nil, false
}
