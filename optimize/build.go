// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file turns expanded code into the optimizer's component stream and
// assembles the optimized stream into a final program: label references are
// resolved to their defining blocks up front, and to instruction indices at
// the end.

package optimize

import (
	"math/big"

	"github.com/qter-project/qter/arch"
	"github.com/qter-project/qter/diag"
	"github.com/qter-project/qter/expand"
	"github.com/qter-project/qter/number"
	"github.com/qter-project/qter/prog"
)

// BuildProgram optimizes expanded code and assembles the final program.
func BuildProgram(expanded *expand.Expanded) (*prog.Program, *diag.Log) {
	log := diag.NewLog()
	regs := NewGlobalRegs(expanded.Registers)

	components := strip(expanded, regs, log)
	if log.ContainsErrors() {
		return nil, log
	}

	components = Run(components, regs, Passes())

	program := assemble(components, regs, log)
	if log.ContainsErrors() {
		return nil, log
	}
	return program, log
}

// strip converts expanded components into optimizing components, resolving
// every register to its puzzle or theoretical index and every label
// reference to the block that declares the label.
func strip(expanded *expand.Expanded, regs *GlobalRegs, log *diag.Log) []Component {
	var out []Component

	resolveLabel := func(ref expand.LabelReference) (expand.LabelReference, bool) {
		resolved, ok := expanded.Blocks.ResolveLabel(ref)
		if !ok {
			log.Errorf(ref.Pos, "Label `%s` is not defined in this scope", ref.Name)
			return ref, false
		}
		resolved.Pos = ref.Pos
		return resolved, true
	}

	lookupReg := func(ref expand.RegisterRef) (RegInfo, bool) {
		info, ok := regs.Get(ref)
		if !ok {
			log.Errorf(ref.Pos, "The register %s does not exist", ref.Name)
		}
		return info, ok
	}

	for _, comp := range expanded.Components {
		if comp.Label != nil {
			out = append(out, Component{Label: comp.Label, Block: comp.Block, Pos: comp.Pos})
			continue
		}

		switch prim := comp.Prim.(type) {
		case expand.AddPrim:
			info, ok := lookupReg(prim.Reg)
			if !ok {
				continue
			}
			if info.Theoretical {
				out = append(out, Component{
					Instr: AddTheoretical{
						Theoretical: info.TheoreticalIdx,
						Order:       info.Order,
						Amt:         number.Mod(prim.Amt, info.Order),
					},
					Block: comp.Block,
					Pos:   comp.Pos,
				})
			} else {
				out = append(out, Component{
					Instr: AddPuzzle{
						Puzzle: info.PuzzleIdx,
						Arch:   info.Arch,
						Amts:   []RegAmount{{Reg: info.RegIdx, Amt: number.Mod(prim.Amt, info.Order)}},
					},
					Block: comp.Block,
					Pos:   comp.Pos,
				})
			}

		case expand.GotoPrim:
			resolved, ok := resolveLabel(prim.Label)
			if !ok {
				continue
			}
			out = append(out, Component{Instr: Goto{Label: resolved}, Block: comp.Block, Pos: comp.Pos})

		case expand.SolvedGotoPrim:
			resolved, ok := resolveLabel(prim.Label)
			if !ok {
				continue
			}
			if _, found := lookupReg(prim.Reg); !found {
				continue
			}
			out = append(out, Component{
				Instr: SolvedGoto{Label: resolved, Reg: prim.Reg},
				Block: comp.Block,
				Pos:   comp.Pos,
			})

		case expand.InputPrim:
			if _, found := lookupReg(prim.Reg); !found {
				continue
			}
			out = append(out, Component{
				Instr: Input{Reg: prim.Reg, Message: prim.Message},
				Block: comp.Block,
				Pos:   comp.Pos,
			})

		case expand.HaltPrim:
			if prim.Reg != nil {
				if _, found := lookupReg(*prim.Reg); !found {
					continue
				}
			}
			out = append(out, Component{
				Instr: Halt{Message: prim.Message, Reg: prim.Reg},
				Block: comp.Block,
				Pos:   comp.Pos,
			})

		case expand.PrintPrim:
			if prim.Reg != nil {
				if _, found := lookupReg(*prim.Reg); !found {
					continue
				}
			}
			out = append(out, Component{
				Instr: Print{Message: prim.Message, Reg: prim.Reg},
				Block: comp.Block,
				Pos:   comp.Pos,
			})
		}
	}

	return out
}

// labelKey addresses a resolved label.
type labelKey struct {
	name  string
	block expand.BlockID
}

// assemble indexes labels, then emits one program instruction per
// component.
func assemble(components []Component, regs *GlobalRegs, log *diag.Log) *prog.Program {
	indexes := make(map[labelKey]int)
	idx := 0
	for _, comp := range components {
		if comp.Label != nil {
			indexes[labelKey{comp.Label.Name, comp.Label.Block}] = idx
			continue
		}
		idx++
	}

	program := &prog.Program{
		Theoretical: regs.TheoreticalOrders,
		PuzzleNames: regs.PuzzleNames,
	}
	for _, a := range regs.PuzzleArchs {
		program.Puzzles = append(program.Puzzles, a.Group())
	}

	labelIndex := func(ref expand.LabelReference) (int, bool) {
		target, ok := indexes[labelKey{ref.Name, ref.Block}]
		if !ok {
			log.Errorf(ref.Pos, "Label `%s` is not defined in this scope", ref.Name)
		}
		return target, ok
	}

	for _, comp := range components {
		if comp.Label != nil {
			continue
		}
		pos := prog.Pos{At: comp.Pos}

		switch instr := comp.Instr.(type) {
		case AddTheoretical:
			program.Instructions = append(program.Instructions, prog.AddTheoretical{
				Pos: pos, Theoretical: instr.Theoretical, Order: instr.Order, Amt: instr.Amt,
			})

		case AddPuzzle:
			alg, err := instr.Arch.NewFromEffect(regAmounts(instr))
			if err != nil {
				log.Errorf(comp.Pos, "Cannot synthesize the effect: %s", err)
				continue
			}
			program.Instructions = append(program.Instructions, prog.PerformAlgorithm{
				Pos: pos, Puzzle: instr.Puzzle, Alg: alg,
			})

		case Goto:
			target, ok := labelIndex(instr.Label)
			if !ok {
				continue
			}
			program.Instructions = append(program.Instructions, prog.Goto{Pos: pos, Idx: target})

		case SolvedGoto:
			target, ok := labelIndex(instr.Label)
			if !ok {
				continue
			}
			regTarget, ok := registerTarget(regs, instr.Reg, log)
			if !ok {
				continue
			}
			program.Instructions = append(program.Instructions, prog.SolvedGoto{
				Pos: pos, Target: regTarget, Idx: target,
			})

		case RepeatUntil:
			info, _ := regs.Get(instr.Reg)
			facelets, ok := registerFacelets(info, instr.Reg, log)
			if !ok {
				continue
			}
			alg, err := instr.Arch.NewFromEffect(regAmountsOf(instr.Amts))
			if err != nil {
				log.Errorf(comp.Pos, "Cannot synthesize the effect: %s", err)
				continue
			}
			program.Instructions = append(program.Instructions, prog.RepeatUntil{
				Pos: pos, Puzzle: instr.Puzzle, Facelets: facelets, Alg: alg,
			})

		case SolvePuzzle:
			program.Instructions = append(program.Instructions, prog.Solve{
				Pos: pos, Puzzle: instr.Puzzle,
			})

		case Input:
			regTarget, ok := registerTarget(regs, instr.Reg, log)
			if !ok {
				continue
			}
			program.Instructions = append(program.Instructions, prog.Input{
				Pos: pos, Message: instr.Message, Target: regTarget,
				MaxInput: maxInput(regTarget),
			})

		case Halt:
			regTarget, ok := optionalTarget(regs, instr.Reg, log)
			if !ok {
				continue
			}
			program.Instructions = append(program.Instructions, prog.Halt{
				Pos: pos, Message: instr.Message, Target: regTarget,
			})

		case Print:
			regTarget, ok := optionalTarget(regs, instr.Reg, log)
			if !ok {
				continue
			}
			program.Instructions = append(program.Instructions, prog.Print{
				Pos: pos, Message: instr.Message, Target: regTarget,
			})
		}
	}

	return program
}

func regAmounts(instr AddPuzzle) []arch.RegisterAmount {
	return regAmountsOf(instr.Amts)
}

func regAmountsOf(amts []RegAmount) []arch.RegisterAmount {
	out := make([]arch.RegisterAmount, len(amts))
	for i, a := range amts {
		out[i] = arch.RegisterAmount{Register: a.Reg, Amount: a.Amt}
	}
	return out
}

// registerTarget builds the program-level target of a register reference.
func registerTarget(regs *GlobalRegs, ref expand.RegisterRef, log *diag.Log) (prog.Target, bool) {
	info, ok := regs.Get(ref)
	if !ok {
		log.Errorf(ref.Pos, "The register %s does not exist", ref.Name)
		return nil, false
	}

	if info.Theoretical {
		return prog.TheoreticalTarget{Theoretical: info.TheoreticalIdx, Order: info.Order}, true
	}

	facelets, ok := registerFacelets(info, ref, log)
	if !ok {
		return nil, false
	}
	return prog.PuzzleTarget{
		Puzzle:    info.PuzzleIdx,
		Facelets:  facelets,
		Generator: info.Arch.Registers()[info.RegIdx].Algorithm(),
	}, true
}

func optionalTarget(regs *GlobalRegs, ref *expand.RegisterRef, log *diag.Log) (prog.Target, bool) {
	if ref == nil {
		return nil, true
	}
	return registerTarget(regs, *ref, log)
}

func registerFacelets(info RegInfo, ref expand.RegisterRef, log *diag.Log) (*arch.Facelets, bool) {
	register := info.Arch.Registers()[info.RegIdx]
	if ref.Modulus == nil {
		return register.SignatureFacelets(), true
	}
	facelets := register.SignatureFaceletsMod(ref.Modulus)
	if facelets == nil {
		log.Errorf(ref.Pos, "The modulus %s cannot be decoded from register %s",
			ref.Modulus, ref.Name)
		return nil, false
	}
	return facelets, true
}

func maxInput(target prog.Target) *big.Int {
	switch t := target.(type) {
	case prog.TheoreticalTarget:
		return new(big.Int).Sub(t.Order, big.NewInt(1))
	case prog.PuzzleTarget:
		return new(big.Int).Sub(t.Facelets.Order(), big.NewInt(1))
	}
	return big.NewInt(0)
}
