// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the interpreter: a step machine over a compiled program
// and a set of puzzle backends.  The program counter only advances after the
// backend acknowledges an operation, so a cancelled step can safely be
// retried from the same instruction.

package interp

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/qter-project/qter/logger"
	"github.com/qter-project/qter/perms"
	"github.com/qter-project/qter/prog"
	"github.com/rs/zerolog"
)

// ErrNotRunning is returned by Step when the program is paused or stopped.
var ErrNotRunning = errors.New("program is not running")

// ExecutionState describes what the interpreter is doing.
type ExecutionState int

const (
	// Running means Step will execute the next instruction.
	Running ExecutionState = iota
	// PausedInput means the program waits for GiveInput.
	PausedInput
	// PausedHalt means the program stopped at a halt instruction.
	PausedHalt
	// Panicked means execution failed, e.g. an undecodable register.
	Panicked
)

// An Interpreter executes one program.
type Interpreter struct {
	program      *prog.Program
	pc           int
	messages     []string
	state        ExecutionState
	panicMessage string

	// Pending input bounds, set while state is PausedInput.
	inputTarget prog.Target
	inputMax    *big.Int

	theoreticals []*TheoreticalState
	puzzles      []PuzzleState
	log          zerolog.Logger
}

// New creates an interpreter, initializing one backend per declared puzzle
// via newPuzzle.
func New(ctx context.Context, program *prog.Program, newPuzzle func(ctx context.Context, group *perms.Group) (PuzzleState, error)) (*Interpreter, error) {
	in := &Interpreter{
		program: program,
		log:     logger.Logger().With().Str("component", "interpreter").Logger(),
	}

	for _, order := range program.Theoretical {
		in.theoreticals = append(in.theoreticals, NewTheoreticalState(order))
	}
	for _, group := range program.Puzzles {
		state, err := newPuzzle(ctx, group)
		if err != nil {
			return nil, err
		}
		in.puzzles = append(in.puzzles, state)
	}

	return in, nil
}

// NewSimulated creates an interpreter backed by in-memory puzzles.
func NewSimulated(program *prog.Program) *Interpreter {
	in, err := New(context.Background(), program,
		func(_ context.Context, group *perms.Group) (PuzzleState, error) {
			return NewSimulatedPuzzle(group), nil
		})
	if err != nil {
		// The simulated constructor cannot fail.
		panic(err)
	}
	return in
}

// State returns the execution state.
func (in *Interpreter) State() ExecutionState { return in.state }

// PanicMessage returns the failure description after Panicked.
func (in *Interpreter) PanicMessage() string { return in.panicMessage }

// PC returns the current program counter.
func (in *Interpreter) PC() int { return in.pc }

// Messages returns everything printed so far.
func (in *Interpreter) Messages() []string { return in.messages }

// MaxInput returns the bound of the pending input request.
func (in *Interpreter) MaxInput() *big.Int { return in.inputMax }

// Puzzle returns the backend of the i-th declared puzzle.
func (in *Interpreter) Puzzle(i int) PuzzleState { return in.puzzles[i] }

// Theoretical returns the state of the i-th theoretical register.
func (in *Interpreter) Theoretical(i int) *TheoreticalState { return in.theoreticals[i] }

// Step executes the instruction at the program counter.  Backend failures
// are returned as errors with the program counter unchanged; decode
// failures transition to Panicked.
func (in *Interpreter) Step(ctx context.Context) error {
	if in.state != Running {
		return ErrNotRunning
	}

	if in.pc >= len(in.program.Instructions) {
		in.state = PausedHalt
		return nil
	}

	instr := in.program.Instructions[in.pc]
	in.log.Debug().Int("pc", in.pc).Type("instr", instr).Msg("step")

	switch v := instr.(type) {
	case prog.Goto:
		in.pc = v.Idx

	case prog.SolvedGoto:
		solved, err := in.targetSolved(ctx, v.Target)
		if err != nil {
			return err
		}
		if solved {
			in.pc = v.Idx
		} else {
			in.pc++
		}

	case prog.AddTheoretical:
		in.theoreticals[v.Theoretical].Add(v.Amt)
		in.pc++

	case prog.PerformAlgorithm:
		if err := in.puzzles[v.Puzzle].ComposeInto(ctx, v.Alg); err != nil {
			return err
		}
		in.pc++

	case prog.RepeatUntil:
		ok, err := in.puzzles[v.Puzzle].RepeatUntil(ctx, v.Facelets.Facelets(), v.Alg)
		if err != nil {
			return err
		}
		if !ok {
			in.panic("the repeated algorithm cannot solve the tested facelets")
			return nil
		}
		in.pc++

	case prog.Solve:
		if err := in.puzzles[v.Puzzle].Solve(ctx); err != nil {
			return err
		}
		in.pc++

	case prog.ZeroTheoretical:
		in.theoreticals[v.Theoretical].Zero()
		in.pc++

	case prog.Input:
		in.inputTarget = v.Target
		in.inputMax = v.MaxInput
		in.messages = append(in.messages, v.Message)
		in.state = PausedInput

	case prog.Halt:
		if v.Target == nil {
			in.messages = append(in.messages, v.Message)
			in.state = PausedHalt
			return nil
		}
		value, err := in.decodeTarget(ctx, v.Target, false)
		if err != nil {
			return err
		}
		if value == nil {
			in.panic("the puzzle state is not decodable")
			return nil
		}
		in.messages = append(in.messages, fmt.Sprintf("%s %v", v.Message, value))
		in.state = PausedHalt

	case prog.Print:
		if v.Target == nil {
			in.messages = append(in.messages, v.Message)
			in.pc++
			return nil
		}
		value, err := in.decodeTarget(ctx, v.Target, true)
		if err != nil {
			return err
		}
		if value == nil {
			in.panic("the puzzle state is not decodable")
			return nil
		}
		in.messages = append(in.messages, fmt.Sprintf("%s %v", v.Message, value))
		in.pc++

	default:
		in.panic(fmt.Sprintf("unknown instruction %T", instr))
	}

	return nil
}

// Run steps until the program pauses or the context is cancelled.
func (in *Interpreter) Run(ctx context.Context) error {
	for in.state == Running {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := in.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// GiveInput resumes a program paused at an input instruction, stepping the
// target register by value.
func (in *Interpreter) GiveInput(ctx context.Context, value *big.Int) error {
	if in.state != PausedInput {
		return fmt.Errorf("program is not waiting for input")
	}
	if value.Sign() < 0 || value.Cmp(in.inputMax) > 0 {
		return fmt.Errorf("input %v is out of range [0, %v]", value, in.inputMax)
	}

	switch t := in.inputTarget.(type) {
	case prog.TheoreticalTarget:
		in.theoreticals[t.Theoretical].Add(value)
	case prog.PuzzleTarget:
		// Adding k applies the inverse generator k times.
		alg := t.Generator.Exp(new(big.Int).Neg(value))
		if err := in.puzzles[t.Puzzle].ComposeInto(ctx, alg); err != nil {
			return err
		}
	}

	in.inputTarget = nil
	in.inputMax = nil
	in.pc++
	in.state = Running
	return nil
}

func (in *Interpreter) targetSolved(ctx context.Context, target prog.Target) (bool, error) {
	switch t := target.(type) {
	case prog.TheoreticalTarget:
		return in.theoreticals[t.Theoretical].Value().Sign() == 0, nil
	case prog.PuzzleTarget:
		return in.puzzles[t.Puzzle].FaceletsSolved(ctx, t.Facelets.Facelets())
	}
	return false, fmt.Errorf("unknown target %T", target)
}

func (in *Interpreter) decodeTarget(ctx context.Context, target prog.Target, restore bool) (*big.Int, error) {
	switch t := target.(type) {
	case prog.TheoreticalTarget:
		return in.theoreticals[t.Theoretical].Value(), nil
	case prog.PuzzleTarget:
		if restore {
			return in.puzzles[t.Puzzle].Print(ctx, t.Facelets.Facelets(), t.Generator)
		}
		return in.puzzles[t.Puzzle].Halt(ctx, t.Facelets.Facelets(), t.Generator)
	}
	return nil, fmt.Errorf("unknown target %T", target)
}

func (in *Interpreter) panic(message string) {
	in.log.Error().Str("reason", message).Int("pc", in.pc).Msg("program panicked")
	in.state = Panicked
	in.panicMessage = message
}
