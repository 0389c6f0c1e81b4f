// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

import (
	"context"
	"math/big"
	"os"
	"testing"

	"github.com/qter-project/qter/arch"
	"github.com/qter-project/qter/logger"
	"github.com/qter-project/qter/perms"
	"github.com/qter-project/qter/prog"
	"github.com/qter-project/qter/puzzles"
)

func TestMain(m *testing.M) {
	logger.Disable()
	os.Exit(m.Run())
}

func cubeRegister(t *testing.T) (*perms.Group, *arch.Architecture, prog.PuzzleTarget) {
	t.Helper()
	group := puzzles.Cube3()
	a, err := arch.New(group, [][]string{{"U"}})
	if err != nil {
		t.Fatal(err)
	}
	reg := a.Registers()[0]
	target := prog.PuzzleTarget{
		Puzzle:    0,
		Facelets:  reg.SignatureFacelets(),
		Generator: reg.Algorithm(),
	}
	return group, a, target
}

func addAlg(t *testing.T, a *arch.Architecture, amt int64) *perms.Algorithm {
	t.Helper()
	alg, err := a.NewFromEffect([]arch.RegisterAmount{{Register: 0, Amount: big.NewInt(amt)}})
	if err != nil {
		t.Fatal(err)
	}
	return alg
}

func TestTheoreticalProgram(t *testing.T) {
	// x = 3; while x != 0 { x += 1 }; halt "done" x  -- wraps mod 5.
	order := big.NewInt(5)
	target := prog.TheoreticalTarget{Theoretical: 0, Order: order}
	program := &prog.Program{
		Theoretical: []*big.Int{order},
		Instructions: []prog.Instruction{
			prog.AddTheoretical{Theoretical: 0, Order: order, Amt: big.NewInt(3)},
			prog.SolvedGoto{Target: target, Idx: 4},
			prog.AddTheoretical{Theoretical: 0, Order: order, Amt: big.NewInt(1)},
			prog.Goto{Idx: 1},
			prog.Halt{Message: "done", Target: target},
		},
	}

	in := NewSimulated(program)
	ctx := context.Background()
	if err := in.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if in.State() != PausedHalt {
		t.Fatalf("expected a halt, got state %v", in.State())
	}
	msgs := in.Messages()
	if len(msgs) != 1 || msgs[0] != "done 0" {
		t.Fatalf("expected [done 0], got %v", msgs)
	}
}

func TestPuzzleProgram(t *testing.T) {
	_, a, target := cubeRegister(t)

	program := &prog.Program{
		Puzzles:     []*perms.Group{a.Group()},
		PuzzleNames: []string{"3x3"},
		Instructions: []prog.Instruction{
			prog.PerformAlgorithm{Puzzle: 0, Alg: addAlg(t, a, 3)},
			prog.Print{Message: "now", Target: target},
			prog.RepeatUntil{Puzzle: 0, Facelets: target.Facelets, Alg: addAlg(t, a, 1)},
			prog.SolvedGoto{Target: target, Idx: 5},
			prog.Halt{Message: "not zeroed"},
			prog.Halt{Message: "value", Target: target},
		},
	}

	in := NewSimulated(program)
	ctx := context.Background()
	if err := in.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if in.State() != PausedHalt {
		t.Fatalf("expected a halt, got state %v (panic: %s)", in.State(), in.PanicMessage())
	}
	msgs := in.Messages()
	if len(msgs) != 2 || msgs[0] != "now 3" || msgs[1] != "value 0" {
		t.Fatalf("unexpected messages %v", msgs)
	}

	// Print must have restored the state before the repeat-until ran.
	sim := in.Puzzle(0).(*SimulatedPuzzle)
	if !sim.State().IsIdentity() {
		t.Fatalf("the repeat-until should end on the solved state, got %v", sim.State())
	}
}

func TestInput(t *testing.T) {
	_, a, target := cubeRegister(t)

	program := &prog.Program{
		Puzzles:     []*perms.Group{a.Group()},
		PuzzleNames: []string{"3x3"},
		Instructions: []prog.Instruction{
			prog.Input{Message: "how many?", Target: target, MaxInput: big.NewInt(3)},
			prog.Halt{Message: "got", Target: target},
		},
	}

	in := NewSimulated(program)
	ctx := context.Background()
	if err := in.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if in.State() != PausedInput {
		t.Fatalf("expected the program to wait for input, got %v", in.State())
	}
	if in.MaxInput().Int64() != 3 {
		t.Fatalf("expected max input 3, got %v", in.MaxInput())
	}

	if err := in.GiveInput(ctx, big.NewInt(7)); err == nil {
		t.Fatalf("an out-of-range input must be rejected")
	}
	if err := in.GiveInput(ctx, big.NewInt(2)); err != nil {
		t.Fatal(err)
	}
	if err := in.Run(ctx); err != nil {
		t.Fatal(err)
	}

	msgs := in.Messages()
	if len(msgs) != 2 || msgs[1] != "got 2" {
		t.Fatalf("unexpected messages %v", msgs)
	}
}

func TestDecodeFailurePanics(t *testing.T) {
	group, a, target := cubeRegister(t)

	scramble, err := perms.ParseAlgorithm(group, "R F L")
	if err != nil {
		t.Fatal(err)
	}

	program := &prog.Program{
		Puzzles:     []*perms.Group{a.Group()},
		PuzzleNames: []string{"3x3"},
		Instructions: []prog.Instruction{
			prog.PerformAlgorithm{Puzzle: 0, Alg: scramble},
			prog.Halt{Message: "value", Target: target},
		},
	}

	in := NewSimulated(program)
	if err := in.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if in.State() != Panicked {
		t.Fatalf("expected a panic on an undecodable state, got %v", in.State())
	}
}

func TestRobotStateAdapter(t *testing.T) {
	group, a, target := cubeRegister(t)
	ctx := context.Background()

	sim := NewSimulatedPuzzle(group)
	adapter := NewRobotState(sim, group)

	// Set the register to 2.
	if err := adapter.ComposeInto(ctx, addAlg(t, a, 2)); err != nil {
		t.Fatal(err)
	}

	before := sim.State().Clone()
	v, err := adapter.Print(ctx, target.Facelets.Facelets(), target.Generator)
	if err != nil {
		t.Fatal(err)
	}
	if v == nil || v.Int64() != 2 {
		t.Fatalf("expected to decode 2, got %v", v)
	}
	if !sim.State().Equal(before) {
		t.Fatalf("print must restore the state")
	}

	v, err = adapter.Halt(ctx, target.Facelets.Facelets(), target.Generator)
	if err != nil {
		t.Fatal(err)
	}
	if v == nil || v.Int64() != 2 {
		t.Fatalf("expected halt to count 2, got %v", v)
	}
	// Halt leaves the register zeroed rather than restoring it.
	solved, err := adapter.FaceletsSolved(ctx, target.Facelets.Facelets())
	if err != nil || !solved {
		t.Fatalf("after halt the facelets should be solved: %v %v", solved, err)
	}
}

func TestRobotStateDecodeFailure(t *testing.T) {
	group, _, target := cubeRegister(t)
	ctx := context.Background()

	sim := NewSimulatedPuzzle(group)
	adapter := NewRobotState(sim, group)

	scramble, err := perms.ParseAlgorithm(group, "R F L")
	if err != nil {
		t.Fatal(err)
	}
	if err := adapter.ComposeInto(ctx, scramble); err != nil {
		t.Fatal(err)
	}

	v, err := adapter.Halt(ctx, target.Facelets.Facelets(), target.Generator)
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Fatalf("an unreachable state must fail to decode, got %v", v)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	order := big.NewInt(3)
	program := &prog.Program{
		Theoretical: []*big.Int{order},
		Instructions: []prog.Instruction{
			prog.AddTheoretical{Theoretical: 0, Order: order, Amt: big.NewInt(1)},
			prog.Goto{Idx: 0},
		},
	}

	in := NewSimulated(program)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := in.Run(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if in.PC() != 0 {
		t.Fatalf("a cancelled run must not advance the program counter, got %d", in.PC())
	}
}
