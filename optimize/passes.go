// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file implements the optimization passes: dead code removal, jump
// elision, add coalescing, the three repeat-until recognizers, repeat-until
// vectorization over subcycles, and solve promotion.

package optimize

import (
	"math/big"

	"github.com/qter-project/qter/expand"
	"github.com/qter-project/qter/number"
)

// RemoveUnreachableCode drops non-label instructions that follow an
// unconditional goto or halt: nothing can reach them before the next label.
type RemoveUnreachableCode struct {
	diverging *Component
}

// Rewrite implements Rewriter.
func (r *RemoveUnreachableCode) Rewrite(c Component, _ *GlobalRegs) []Component {
	if r.diverging != nil {
		if c.Label != nil {
			out := []Component{*r.diverging, c}
			r.diverging = nil
			return out
		}
		// Unreachable: throw the instruction out.
		return nil
	}

	switch c.Instr.(type) {
	case Goto, Halt:
		r.diverging = &c
		return nil
	}
	return []Component{c}
}

// EOF implements Rewriter.
func (r *RemoveUnreachableCode) EOF(_ *GlobalRegs) []Component {
	if r.diverging != nil {
		out := []Component{*r.diverging}
		r.diverging = nil
		return out
	}
	return nil
}

// RemoveUselessJumps elides a goto or solved-goto targeting the label
// immediately after it.
type RemoveUselessJumps struct{}

// MaxWindow implements PeepholeRewriter.
func (RemoveUselessJumps) MaxWindow() int { return 2 }

// TryMatch implements PeepholeRewriter.
func (RemoveUselessJumps) TryMatch(w *Window, _ *GlobalRegs) bool {
	second := w.Get(1)
	if second == nil || second.Label == nil {
		return false
	}

	var jumpsTo expand.LabelReference
	switch instr := w.Get(0).Instr.(type) {
	case Goto:
		jumpsTo = instr.Label
	case SolvedGoto:
		jumpsTo = instr.Label
	default:
		return false
	}

	if jumpsTo.Name != second.Label.Name || jumpsTo.Block != second.Label.Block {
		return false
	}

	w.PopFront()
	return true
}

// CoalesceAdds folds runs of consecutive adds into at most one add per
// theoretical register and one per puzzle, merging puzzle effects by
// register index.
type CoalesceAdds struct {
	block        expand.BlockID
	theoreticals []Component
	puzzles      []Component
}

// Rewrite implements Rewriter.
func (r *CoalesceAdds) Rewrite(c Component, _ *GlobalRegs) []Component {
	switch instr := c.Instr.(type) {
	case AddTheoretical:
		r.block = c.Block
		for i := range r.theoreticals {
			held := r.theoreticals[i].Instr.(AddTheoretical)
			if held.Theoretical == instr.Theoretical {
				held.Amt = new(big.Int).Add(held.Amt, instr.Amt)
				r.theoreticals[i].Instr = held
				return nil
			}
		}
		r.theoreticals = append(r.theoreticals, c)
		return nil

	case AddPuzzle:
		r.block = c.Block
		for i := range r.puzzles {
			held := r.puzzles[i].Instr.(AddPuzzle)
			if held.Puzzle == instr.Puzzle {
				held.Amts = mergeEffects(held.Amts, instr.Amts)
				r.puzzles[i].Instr = held
				return nil
			}
		}
		c.Instr = AddPuzzle{Puzzle: instr.Puzzle, Arch: instr.Arch, Amts: cloneAmts(instr.Amts)}
		r.puzzles = append(r.puzzles, c)
		return nil

	default:
		return append(r.dump(), c)
	}
}

// EOF implements Rewriter.
func (r *CoalesceAdds) EOF(_ *GlobalRegs) []Component {
	return r.dump()
}

func (r *CoalesceAdds) dump() []Component {
	out := append(r.theoreticals, r.puzzles...)
	r.theoreticals = nil
	r.puzzles = nil
	return out
}

// mergeEffects sums effect2 into effect1 by register index.
func mergeEffects(effect1, effect2 []RegAmount) []RegAmount {
nextEffect:
	for _, newEffect := range effect2 {
		for i := range effect1 {
			if effect1[i].Reg == newEffect.Reg {
				effect1[i].Amt = new(big.Int).Add(effect1[i].Amt, newEffect.Amt)
				continue nextEffect
			}
		}
		effect1 = append(effect1, RegAmount{Reg: newEffect.Reg, Amt: new(big.Int).Set(newEffect.Amt)})
	}
	return effect1
}

func cloneAmts(amts []RegAmount) []RegAmount {
	out := make([]RegAmount, len(amts))
	for i, a := range amts {
		out[i] = RegAmount{Reg: a.Reg, Amt: new(big.Int).Set(a.Amt)}
	}
	return out
}

// regBelongsToPuzzle checks that the tested register lives on the given
// puzzle.
func regBelongsToPuzzle(regs *GlobalRegs, ref expand.RegisterRef, puzzle int) bool {
	info, ok := regs.Get(ref)
	return ok && !info.Theoretical && info.PuzzleIdx == puzzle
}

// RepeatUntil1 rewrites
//
//	spot1:
//	    solved-goto <positions> wherever
//	    <algorithm>
//	    goto spot1
//
// into
//
//	spot1:
//	    repeat until <positions> solved <algorithm>
//	    goto wherever
type RepeatUntil1 struct{}

// MaxWindow implements PeepholeRewriter.
func (RepeatUntil1) MaxWindow() int { return 5 }

// TryMatch implements PeepholeRewriter.
func (RepeatUntil1) TryMatch(w *Window, regs *GlobalRegs) bool {
	first := w.Get(0)
	if first == nil || first.Label == nil {
		return false
	}
	spot1 := first.Label

	c1, c2, c3 := w.Get(1), w.Get(2), w.Get(3)
	if c1 == nil || c2 == nil || c3 == nil {
		return false
	}

	solvedGoto, ok := c1.Instr.(SolvedGoto)
	if !ok {
		return false
	}
	add, ok := c2.Instr.(AddPuzzle)
	if !ok {
		return false
	}
	if !regBelongsToPuzzle(regs, solvedGoto.Reg, add.Puzzle) {
		return false
	}
	loop, ok := c3.Instr.(Goto)
	if !ok || loop.Label.Name != spot1.Name || loop.Label.Block != spot1.Block {
		return false
	}

	span := c1.Pos.Merge(c2.Pos).Merge(c3.Pos)
	repeat := Component{
		Instr: RepeatUntil{Puzzle: add.Puzzle, Arch: add.Arch, Amts: add.Amts, Reg: solvedGoto.Reg},
		Block: solvedGoto.Label.Block,
		Pos:   span,
	}
	exit := Component{
		Instr: Goto{Label: solvedGoto.Label},
		Block: solvedGoto.Label.Block,
		Pos:   span,
	}

	head := w.PopFront()
	w.Drain(3)
	w.PushFront(head, repeat, exit)
	return true
}

// RepeatUntil2 rewrites
//
//	spot1:
//	    <algorithm>
//	<optional label>:
//	    solved-goto <positions> wherever
//	    goto spot1
//
// keeping the leading algorithm and folding the loop into a repeat-until.
type RepeatUntil2 struct{}

// MaxWindow implements PeepholeRewriter.
func (RepeatUntil2) MaxWindow() int { return 6 }

// TryMatch implements PeepholeRewriter.
func (RepeatUntil2) TryMatch(w *Window, regs *GlobalRegs) bool {
	first := w.Get(0)
	if first == nil || first.Label == nil {
		return false
	}
	spot1 := first.Label

	c1 := w.Get(1)
	if c1 == nil {
		return false
	}
	add, ok := c1.Instr.(AddPuzzle)
	if !ok {
		return false
	}

	optionalLabel := 0
	if c := w.Get(2); c != nil && c.Label != nil {
		optionalLabel = 1
	}

	cSolved := w.Get(2 + optionalLabel)
	if cSolved == nil {
		return false
	}
	solvedGoto, ok := cSolved.Instr.(SolvedGoto)
	if !ok {
		return false
	}
	if !regBelongsToPuzzle(regs, solvedGoto.Reg, add.Puzzle) {
		return false
	}

	cLoop := w.Get(3 + optionalLabel)
	if cLoop == nil {
		return false
	}
	loop, ok := cLoop.Instr.(Goto)
	if !ok || loop.Label.Name != spot1.Name || loop.Label.Block != spot1.Block {
		return false
	}

	span := cSolved.Pos.Merge(cLoop.Pos)
	repeat := Component{
		Instr: RepeatUntil{Puzzle: add.Puzzle, Arch: add.Arch, Amts: add.Amts, Reg: solvedGoto.Reg},
		Block: solvedGoto.Label.Block,
		Pos:   span,
	}
	exit := Component{
		Instr: Goto{Label: solvedGoto.Label},
		Block: solvedGoto.Label.Block,
		Pos:   span,
	}

	kept := w.Drain(2 + optionalLabel)
	w.Drain(2)
	w.PushFront(append(kept, repeat, exit)...)
	return true
}

// RepeatUntil3 rewrites
//
//	spot1:
//	    <algorithm>
//	<optional label>:
//	    solved-goto <positions> wherever
//	    <optional algorithm>
//	    goto spot1
//
// merging the optional trailing algorithm into the repeat-until body.
type RepeatUntil3 struct{}

// MaxWindow implements PeepholeRewriter.
func (RepeatUntil3) MaxWindow() int { return 7 }

// TryMatch implements PeepholeRewriter.
func (RepeatUntil3) TryMatch(w *Window, regs *GlobalRegs) bool {
	first := w.Get(0)
	if first == nil || first.Label == nil {
		return false
	}
	spot1 := first.Label

	c1 := w.Get(1)
	if c1 == nil {
		return false
	}
	add, ok := c1.Instr.(AddPuzzle)
	if !ok {
		return false
	}

	optionalLabel := 0
	if c := w.Get(2); c != nil && c.Label != nil {
		optionalLabel = 1
	}

	cSolved := w.Get(2 + optionalLabel)
	if cSolved == nil {
		return false
	}
	solvedGoto, ok := cSolved.Instr.(SolvedGoto)
	if !ok {
		return false
	}
	if !regBelongsToPuzzle(regs, solvedGoto.Reg, add.Puzzle) {
		return false
	}

	var body2 *AddPuzzle
	cMaybe := w.Get(3 + optionalLabel)
	if cMaybe == nil {
		return false
	}
	if second, isAdd := cMaybe.Instr.(AddPuzzle); isAdd {
		if second.Puzzle != add.Puzzle {
			return false
		}
		body2 = &second
	}

	hasBody2 := 0
	if body2 != nil {
		hasBody2 = 1
	}

	cLoop := w.Get(3 + optionalLabel + hasBody2)
	if cLoop == nil {
		return false
	}
	loop, ok := cLoop.Instr.(Goto)
	if !ok || loop.Label.Name != spot1.Name || loop.Label.Block != spot1.Block {
		return false
	}

	amts := cloneAmts(add.Amts)
	if body2 != nil {
		amts = mergeEffects(amts, body2.Amts)
	}

	span := cSolved.Pos.Merge(cLoop.Pos)
	repeat := Component{
		Instr: RepeatUntil{Puzzle: add.Puzzle, Arch: add.Arch, Amts: amts, Reg: solvedGoto.Reg},
		Block: loop.Label.Block,
		Pos:   span,
	}
	exit := Component{
		Instr: Goto{Label: solvedGoto.Label},
		Block: loop.Label.Block,
		Pos:   span,
	}

	kept := w.Drain(2 + optionalLabel)
	w.Drain(2 + hasBody2)
	w.PushFront(append(kept, repeat, exit)...)
	return true
}

// VectorizeRepeatUntil splits one repeat-until into two: a fast loop tested
// on a single subcycle of the register, then a wide-stepping loop cleaning
// up the remaining subcycles.  The subcycle chosen minimizes the step of the
// second loop.
type VectorizeRepeatUntil struct{}

// MaxWindow implements PeepholeRewriter.
func (VectorizeRepeatUntil) MaxWindow() int { return 1 }

// TryMatch implements PeepholeRewriter.
func (VectorizeRepeatUntil) TryMatch(w *Window, regs *GlobalRegs) bool {
	front := w.Get(0)
	if front == nil {
		return false
	}
	repeat, ok := front.Instr.(RepeatUntil)
	if !ok {
		return false
	}

	info, found := regs.Get(repeat.Reg)
	if !found || info.Theoretical {
		return false
	}

	var amt *big.Int
	for _, a := range repeat.Amts {
		if a.Reg == info.RegIdx {
			amt = a.Amt
			break
		}
	}
	if amt == nil || amt.Sign() == 0 {
		return false
	}

	register := info.Arch.Registers()[info.RegIdx]
	modulus := repeat.Reg.Modulus
	if modulus == nil {
		modulus = register.Order()
	}

	// Pick the subcycle minimizing lcm(chromatic order, step).
	var cycleOrder, newAmt *big.Int
	for _, cycle := range register.UnsharedCycles() {
		v := cycle.ChromaticOrder()
		if modulus.Cmp(v) == 0 || !number.Divides(v, modulus) || number.Divides(v, amt) {
			continue
		}
		l := number.Lcm(v, amt)
		if newAmt == nil || l.Cmp(newAmt) < 0 {
			cycleOrder, newAmt = v, l
		}
	}
	if cycleOrder == nil {
		return false
	}

	// First loop: test only the chosen subcycle.
	repeat.Reg.Modulus = cycleOrder
	front.Instr = repeat

	// Second loop: step scaled so the chosen subcycle stays fixed, testing
	// the subcycles the first loop left behind.
	scale := new(big.Int).Div(newAmt, amt)

	followMod := number.One()
	for _, cycle := range register.UnsharedCycles() {
		v := cycle.ChromaticOrder()
		if number.Divides(v, modulus) && !number.Divides(v, cycleOrder) {
			followMod = number.Lcm(followMod, v)
		}
	}

	follow := RepeatUntil{
		Puzzle: repeat.Puzzle,
		Arch:   repeat.Arch,
		Amts:   cloneAmts(repeat.Amts),
		Reg:    repeat.Reg,
	}
	follow.Reg.Modulus = followMod
	for i := range follow.Amts {
		scaled := new(big.Int).Mul(follow.Amts[i].Amt, scale)
		order := repeat.Arch.Registers()[follow.Amts[i].Reg].Order()
		follow.Amts[i].Amt = scaled.Mod(scaled, order)
	}

	w.PushBack(Component{Instr: follow, Block: front.Block, Pos: front.Pos})
	return true
}

// TransformSolve collapses a run of repeat-untils that provably zeroes every
// register of a puzzle into a single solve.  Per register it tracks the
// modulus the run is guaranteed to have zeroed; once every register is
// zeroed modulo its full order, the buffered loops become one Solve.
type TransformSolve struct {
	instrs    []solveEntry
	puzzle    int
	hasPuzzle bool
	zeroed    map[int]*big.Int
}

type solveEntry struct {
	comp    Component
	regIdx  int
	modulus *big.Int
}

// Rewrite implements Rewriter.
func (t *TransformSolve) Rewrite(c Component, regs *GlobalRegs) []Component {
	repeat, ok := c.Instr.(RepeatUntil)
	if !ok {
		return t.dumpWith(c)
	}

	var dumped []Component
	if t.hasPuzzle && t.puzzle != repeat.Puzzle {
		dumped = append(dumped, t.dump()...)
	}
	t.puzzle = repeat.Puzzle
	t.hasPuzzle = true

	info, found := regs.Get(repeat.Reg)
	if !found || info.Theoretical {
		return append(dumped, t.dumpWith(c)...)
	}

	// Registers stepped besides the tested one are no longer guaranteed
	// zeroed.
	broken := make(map[int]bool)
	for _, a := range repeat.Amts {
		if a.Reg != info.RegIdx {
			broken[a.Reg] = true
		}
	}

	for i := len(t.instrs) - 1; i >= 0; i-- {
		if broken[t.instrs[i].regIdx] {
			dumped = append(dumped, drainEntries(&t.instrs, i)...)
			break
		}
	}
	if t.zeroed == nil {
		t.zeroed = make(map[int]*big.Int)
	}
	for reg := range broken {
		delete(t.zeroed, reg)
	}

	modulus := repeat.Reg.Modulus
	if modulus == nil {
		modulus = info.Arch.Registers()[info.RegIdx].Order()
	}

	if prev, ok := t.zeroed[info.RegIdx]; ok {
		t.zeroed[info.RegIdx] = number.Lcm(prev, modulus)
	} else {
		t.zeroed[info.RegIdx] = modulus
	}

	registers := info.Arch.Registers()
	complete := len(t.zeroed) == len(registers)
	if complete {
		for idx, mod := range t.zeroed {
			if registers[idx].Order().Cmp(mod) != 0 {
				complete = false
				break
			}
		}
	}

	if complete {
		pos := c.Pos
		for _, entry := range t.instrs {
			pos = pos.Merge(entry.comp.Pos)
		}
		t.instrs = nil
		t.zeroed = make(map[int]*big.Int)
		dumped = append(dumped, Component{
			Instr: SolvePuzzle{Puzzle: t.puzzle},
			Block: c.Block,
			Pos:   pos,
		})
		return dumped
	}

	t.instrs = append(t.instrs, solveEntry{comp: c, regIdx: info.RegIdx, modulus: modulus})
	return dumped
}

// EOF implements Rewriter.
func (t *TransformSolve) EOF(_ *GlobalRegs) []Component {
	return t.dump()
}

func (t *TransformSolve) dump() []Component {
	t.zeroed = make(map[int]*big.Int)
	out := make([]Component, 0, len(t.instrs))
	for _, entry := range t.instrs {
		out = append(out, entry.comp)
	}
	t.instrs = nil
	return out
}

func (t *TransformSolve) dumpWith(c Component) []Component {
	return append(t.dump(), c)
}

// drainEntries removes entries[0:i] and returns their components.
func drainEntries(entries *[]solveEntry, i int) []Component {
	out := make([]Component, 0, i)
	for _, entry := range (*entries)[:i] {
		out = append(out, entry.comp)
	}
	*entries = (*entries)[i:]
	return out
}
