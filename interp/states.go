// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the puzzle backend capability sets and the two stock
// implementations: the in-memory simulated puzzle, and the adapter exposing
// any robot-like backend (which can only turn faces and photograph itself)
// as a full puzzle state.

// Package interp executes compiled programs against puzzle backends.  All
// backend operations take a context: they are the interpreter's suspension
// points, and cancelling the context aborts the in-flight operation without
// advancing the program counter.
package interp

import (
	"context"
	"math/big"

	"github.com/qter-project/qter/arch"
	"github.com/qter-project/qter/number"
	"github.com/qter-project/qter/perms"
)

// PuzzleState is the capability set the interpreter drives.  Print must not
// alter the observable state unless it fails to decode; Halt may leave the
// register disturbed.
type PuzzleState interface {
	// ComposeInto performs an algorithm on the puzzle.
	ComposeInto(ctx context.Context, alg *perms.Algorithm) error
	// FaceletsSolved reports whether every given facelet shows its solved
	// color.
	FaceletsSolved(ctx context.Context, facelets []int) (bool, error)
	// Print decodes the register and restores the state; nil means the
	// state is not decodable.
	Print(ctx context.Context, facelets []int, generator *perms.Algorithm) (*big.Int, error)
	// Halt decodes the register without restoring the state.
	Halt(ctx context.Context, facelets []int, generator *perms.Algorithm) (*big.Int, error)
	// RepeatUntil repeats the algorithm until the facelets are solved;
	// false means the facelets cannot be solved this way.
	RepeatUntil(ctx context.Context, facelets []int, generator *perms.Algorithm) (bool, error)
	// Solve brings the puzzle to the solved state.
	Solve(ctx context.Context) error
}

// RobotLike is the minimal capability set of a physical puzzle: it can turn
// faces, photograph itself, and be solved.
type RobotLike interface {
	ComposeInto(ctx context.Context, alg *perms.Algorithm) error
	// TakePicture returns the current state as a permutation.  The result
	// is valid until the next call.
	TakePicture(ctx context.Context) (*perms.Permutation, error)
	Solve(ctx context.Context) error
}

// A SimulatedPuzzle tracks the puzzle state as a permutation in memory.
type SimulatedPuzzle struct {
	group *perms.Group
	state *perms.Permutation
}

// NewSimulatedPuzzle creates a solved simulated puzzle.
func NewSimulatedPuzzle(group *perms.Group) *SimulatedPuzzle {
	return &SimulatedPuzzle{group: group, state: perms.Identity()}
}

// State returns the underlying permutation.
func (s *SimulatedPuzzle) State() *perms.Permutation { return s.state }

// ComposeInto implements PuzzleState and RobotLike.
func (s *SimulatedPuzzle) ComposeInto(_ context.Context, alg *perms.Algorithm) error {
	s.state.ComposeInto(alg.Permutation())
	return nil
}

// FaceletsSolved implements PuzzleState.
func (s *SimulatedPuzzle) FaceletsSolved(_ context.Context, facelets []int) (bool, error) {
	return faceletsSolved(s.group, s.state, facelets), nil
}

// Print implements PuzzleState.
func (s *SimulatedPuzzle) Print(_ context.Context, facelets []int, generator *perms.Algorithm) (*big.Int, error) {
	return arch.Decode(s.state, facelets, generator), nil
}

// Halt implements PuzzleState.
func (s *SimulatedPuzzle) Halt(ctx context.Context, facelets []int, generator *perms.Algorithm) (*big.Int, error) {
	return s.Print(ctx, facelets, generator)
}

// RepeatUntil implements PuzzleState.  A simulated puzzle can skip the
// repetition: decoding tells it how many applications remain.
func (s *SimulatedPuzzle) RepeatUntil(ctx context.Context, facelets []int, generator *perms.Algorithm) (bool, error) {
	v := arch.Decode(s.state, facelets, generator)
	if v == nil {
		return false, nil
	}
	return true, s.ComposeInto(ctx, generator.Exp(v))
}

// Solve implements PuzzleState and RobotLike.
func (s *SimulatedPuzzle) Solve(context.Context) error {
	s.state = perms.Identity()
	return nil
}

// TakePicture implements RobotLike.
func (s *SimulatedPuzzle) TakePicture(context.Context) (*perms.Permutation, error) {
	return s.state, nil
}

// A RobotState adapts a RobotLike backend to the full PuzzleState surface
// by re-deriving decode, halt, and repeat-until from pictures and face
// turns.
type RobotState struct {
	robot RobotLike
	group *perms.Group
}

// NewRobotState wraps a robot.
func NewRobotState(robot RobotLike, group *perms.Group) *RobotState {
	return &RobotState{robot: robot, group: group}
}

// ComposeInto implements PuzzleState.
func (r *RobotState) ComposeInto(ctx context.Context, alg *perms.Algorithm) error {
	return r.robot.ComposeInto(ctx, alg)
}

// FaceletsSolved implements PuzzleState.
func (r *RobotState) FaceletsSolved(ctx context.Context, facelets []int) (bool, error) {
	state, err := r.robot.TakePicture(ctx)
	if err != nil {
		return false, err
	}
	return faceletsSolved(r.group, state, facelets), nil
}

// Halt implements PuzzleState: it composes the generator until the facelets
// become solved, counting the applications.  The count is the register
// value; reaching the facelets' full period without solving is a decode
// failure.
func (r *RobotState) Halt(ctx context.Context, facelets []int, generator *perms.Algorithm) (*big.Int, error) {
	chromaticOrders := perms.ChromaticOrders(generator)
	orders := make([]*big.Int, len(facelets))
	for i, facelet := range facelets {
		orders[i] = chromaticOrders[facelet]
	}
	order := number.LcmAll(orders...)

	sum := number.Zero()
	one := number.One()
	for {
		solved, err := r.FaceletsSolved(ctx, facelets)
		if err != nil {
			return nil, err
		}
		if solved {
			return sum, nil
		}

		sum.Add(sum, one)
		if sum.Cmp(order) >= 0 {
			// Performed as many cycles as the size of the register.
			return nil, nil
		}

		if err := r.robot.ComposeInto(ctx, generator); err != nil {
			return nil, err
		}
	}
}

// Print implements PuzzleState: it decodes like Halt, undoes the counting,
// and verifies that the puzzle really returned to where it started.
func (r *RobotState) Print(ctx context.Context, facelets []int, generator *perms.Algorithm) (*big.Int, error) {
	picture, err := r.robot.TakePicture(ctx)
	if err != nil {
		return nil, err
	}
	before := picture.Clone()

	c, err := r.Halt(ctx, facelets, generator)
	if err != nil || c == nil {
		return nil, err
	}

	restore := generator.Exp(new(big.Int).Neg(c))
	if err := r.robot.ComposeInto(ctx, restore); err != nil {
		return nil, err
	}

	after, err := r.robot.TakePicture(ctx)
	if err != nil {
		return nil, err
	}
	if !before.Equal(after) {
		// Printing did not return the puzzle to its original state.
		return nil, nil
	}
	return c, nil
}

// RepeatUntil implements PuzzleState.  Halting has the same behavior:
// compose until solved.
func (r *RobotState) RepeatUntil(ctx context.Context, facelets []int, generator *perms.Algorithm) (bool, error) {
	v, err := r.Halt(ctx, facelets, generator)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// Solve implements PuzzleState.
func (r *RobotState) Solve(ctx context.Context) error {
	return r.robot.Solve(ctx)
}

// faceletsSolved checks that each facelet's sticker sits on a position of
// its own color.
func faceletsSolved(group *perms.Group, state *perms.Permutation, facelets []int) bool {
	colors := group.FaceletColors()
	for _, facelet := range facelets {
		if colors[state.Image(facelet)] != colors[facelet] {
			return false
		}
	}
	return true
}

// A TheoreticalState is a register with no puzzle behind it: a value
// reduced modulo its order.
type TheoreticalState struct {
	value *big.Int
	order *big.Int
}

// NewTheoreticalState creates a zeroed register of the given order.
func NewTheoreticalState(order *big.Int) *TheoreticalState {
	return &TheoreticalState{value: number.Zero(), order: order}
}

// Add steps the register by amt modulo its order.
func (t *TheoreticalState) Add(amt *big.Int) {
	t.value.Add(t.value, amt)
	t.value.Mod(t.value, t.order)
}

// Zero resets the register.
func (t *TheoreticalState) Zero() {
	t.value = number.Zero()
}

// Value returns the current value.
func (t *TheoreticalState) Value() *big.Int { return t.value }

// Order returns the register order.
func (t *TheoreticalState) Order() *big.Int { return t.order }
