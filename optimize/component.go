// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the component stream the optimizer rewrites: labels and
// register-resolved primitives, plus the register catalogue every pass can
// consult.

// Package optimize rewrites expanded instruction streams: it removes
// unreachable code and useless jumps, coalesces adds, recognizes
// repeat-until loops, splits them across subcycles, promotes full zeroing
// to solves, and assembles the final program.
package optimize

import (
	"math/big"

	"github.com/qter-project/qter/arch"
	"github.com/qter-project/qter/expand"
	"github.com/qter-project/qter/span"
)

// A Component is one element of the stream under optimization: a label or an
// instruction, tagged with its block.
type Component struct {
	// Exactly one of Label, Instr is set.
	Label *expand.Label
	Instr Instr
	Block expand.BlockID
	Pos   span.Span
}

// An Instr is a register-resolved optimizing primitive.
type Instr interface {
	isInstr()
}

// A RegAmount is one register's share of a puzzle effect.
type RegAmount struct {
	Reg int
	Amt *big.Int
}

// AddTheoretical steps a theoretical register.
type AddTheoretical struct {
	Theoretical int
	Order       *big.Int
	Amt         *big.Int
}

// AddPuzzle applies an effect to one or more registers of a puzzle.
type AddPuzzle struct {
	Puzzle int
	Arch   *arch.Architecture
	Amts   []RegAmount
}

// Goto jumps to a label; the reference has been resolved to the label's
// defining block.
type Goto struct {
	Label expand.LabelReference
}

// SolvedGoto jumps when the register reads zero.
type SolvedGoto struct {
	Label expand.LabelReference
	Reg   expand.RegisterRef
}

// RepeatUntil repeats an effect until the tested register reads zero.
type RepeatUntil struct {
	Puzzle int
	Arch   *arch.Architecture
	Amts   []RegAmount
	Reg    expand.RegisterRef
}

// SolvePuzzle resets a puzzle to the solved state.
type SolvePuzzle struct {
	Puzzle int
}

// Input pauses for input into a register.
type Input struct {
	Reg     expand.RegisterRef
	Message string
}

// Halt stops the program, optionally reading a register.
type Halt struct {
	Message string
	Reg     *expand.RegisterRef
}

// Print appends a message, optionally with a register value.
type Print struct {
	Message string
	Reg     *expand.RegisterRef
}

func (AddTheoretical) isInstr() {}

func (AddPuzzle) isInstr() {}

func (Goto) isInstr() {}

func (SolvedGoto) isInstr() {}

func (RepeatUntil) isInstr() {}

func (SolvePuzzle) isInstr() {}

func (Input) isInstr() {}

func (Halt) isInstr() {}

func (Print) isInstr() {}

// RegInfo is the resolved identity of a register name.
type RegInfo struct {
	Theoretical bool
	// Set for theoretical registers.
	TheoreticalIdx int
	Order          *big.Int
	// Set for puzzle registers.
	PuzzleIdx int
	RegIdx    int
	Arch      *arch.Architecture
}

// GlobalRegs is the catalogue of declared registers shared by all passes.
type GlobalRegs struct {
	byName map[string]RegInfo
	// Orders of theoretical registers, in declaration order.
	TheoreticalOrders []*big.Int
	// One architecture per declared puzzle.
	PuzzleArchs []*arch.Architecture
	// Declared names of the puzzles, e.g. "3x3".
	PuzzleNames []string
}

// NewGlobalRegs indexes a registers declaration.
func NewGlobalRegs(decl *expand.RegistersDecl) *GlobalRegs {
	g := &GlobalRegs{byName: make(map[string]RegInfo)}
	if decl == nil {
		return g
	}

	for _, puzzle := range decl.Puzzles {
		switch p := puzzle.(type) {
		case expand.TheoreticalPuzzle:
			g.byName[p.Name] = RegInfo{
				Theoretical:    true,
				TheoreticalIdx: len(g.TheoreticalOrders),
				Order:          p.Order,
			}
			g.TheoreticalOrders = append(g.TheoreticalOrders, p.Order)
		case expand.RealPuzzle:
			puzzleIdx := len(g.PuzzleArchs)
			for i, name := range p.Names {
				g.byName[name] = RegInfo{
					PuzzleIdx: puzzleIdx,
					RegIdx:    i,
					Order:     p.Arch.Registers()[i].Order(),
					Arch:      p.Arch,
				}
			}
			g.PuzzleArchs = append(g.PuzzleArchs, p.Arch)
			g.PuzzleNames = append(g.PuzzleNames, p.PuzzleName)
		}
	}

	return g
}

// Get resolves a register reference.
func (g *GlobalRegs) Get(ref expand.RegisterRef) (RegInfo, bool) {
	info, ok := g.byName[ref.Name]
	return info, ok
}
