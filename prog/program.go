// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the final, immutable Program produced by the compiler:
// a flat instruction list indexed by integer program counter, plus the
// declared puzzles and theoretical register orders.  Every operation either
// targets a theoretical register (pure big-int arithmetic) or a puzzle
// (facelets plus a generator algorithm).

// Package prog defines compiled qter programs.
package prog

import (
	"math/big"

	"github.com/qter-project/qter/arch"
	"github.com/qter-project/qter/perms"
	"github.com/qter-project/qter/span"
)

// A Program is the unit of execution: instructions indexed by program
// counter, with Goto targets referring to instruction indices.
type Program struct {
	// Orders of the declared theoretical registers.
	Theoretical []*big.Int
	// Groups of the declared puzzles.
	Puzzles []*perms.Group
	// Puzzle names as declared, e.g. "3x3"; parallel to Puzzles.
	PuzzleNames  []string
	Instructions []Instruction
}

// A Target identifies the register an instruction reads: either a
// theoretical register or a facelet set of a puzzle.
type Target interface {
	isTarget()
}

// A TheoreticalTarget addresses a theoretical register by index.
type TheoreticalTarget struct {
	Theoretical int
	// Order of the register, for max-input and modular arithmetic.
	Order *big.Int
}

// A PuzzleTarget addresses a register of a puzzle: the facelets to decode
// or test, and the generator stepping the register.
type PuzzleTarget struct {
	Puzzle    int
	Facelets  *arch.Facelets
	Generator *perms.Algorithm
}

func (TheoreticalTarget) isTarget() {}

func (PuzzleTarget) isTarget() {}

// An Instruction is one executable step.  Every instruction carries the
// source span it was compiled from.
type Instruction interface {
	Span() span.Span
	isInstruction()
}

// Pos is embedded by every instruction to carry its source span.
type Pos struct {
	At span.Span
}

// Span returns the source span the instruction was compiled from.
func (p Pos) Span() span.Span { return p.At }

// Goto jumps unconditionally to an instruction index.
type Goto struct {
	Pos
	Idx int
}

// SolvedGoto jumps to Idx when the target register is zero (its facelets are
// solved).
type SolvedGoto struct {
	Pos
	Target Target
	Idx    int
}

// AddTheoretical adds to a theoretical register modulo its order.
type AddTheoretical struct {
	Pos
	Theoretical int
	Order       *big.Int
	Amt         *big.Int
}

// PerformAlgorithm composes an algorithm into a puzzle's state.
type PerformAlgorithm struct {
	Pos
	Puzzle int
	Alg    *perms.Algorithm
}

// RepeatUntil repeats the algorithm until the facelets become solved.
type RepeatUntil struct {
	Pos
	Puzzle   int
	Facelets *arch.Facelets
	Alg      *perms.Algorithm
}

// Solve brings a puzzle to the solved state.
type Solve struct {
	Pos
	Puzzle int
}

// ZeroTheoretical resets a theoretical register to zero.
type ZeroTheoretical struct {
	Pos
	Theoretical int
}

// Input pauses for a user-supplied value, which is added to the target
// register on resume.  Values above MaxInput are rejected.
type Input struct {
	Pos
	Message  string
	Target   Target
	MaxInput *big.Int
}

// Halt decodes the target register (if any), appends the message, and stops
// the program.  The register is not restored.
type Halt struct {
	Pos
	Message string
	// Target may be nil: a bare halt with a message.
	Target Target
}

// Print decodes the target register (if any), appends the message, and
// continues.  On a physical puzzle the state is restored after decoding.
type Print struct {
	Pos
	Message string
	// Target may be nil: print a bare message.
	Target Target
}

func (Goto) isInstruction() {}

func (SolvedGoto) isInstruction() {}

func (AddTheoretical) isInstruction() {}

func (PerformAlgorithm) isInstruction() {}

func (RepeatUntil) isInstruction() {}

func (Solve) isInstruction() {}

func (ZeroTheoretical) isInstruction() {}

func (Input) isInstruction() {}

func (Halt) isInstruction() {}

func (Print) isInstruction() {}
