// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prog

import (
	"math/big"
	"testing"

	"github.com/qter-project/qter/arch"
	"github.com/qter-project/qter/perms"
	"github.com/qter-project/qter/puzzles"
)

func TestProgramRoundTrip(t *testing.T) {
	group := puzzles.Cube3()
	a, err := arch.New(group, [][]string{{"U"}})
	if err != nil {
		t.Fatal(err)
	}
	reg := a.Registers()[0]
	sig := reg.SignatureFacelets()

	alg, err := perms.ParseAlgorithm(group, "U'")
	if err != nil {
		t.Fatal(err)
	}

	program := &Program{
		Theoretical: []*big.Int{big.NewInt(30)},
		Puzzles:     []*perms.Group{group},
		PuzzleNames: []string{"3x3"},
		Instructions: []Instruction{
			PerformAlgorithm{Puzzle: 0, Alg: alg},
			SolvedGoto{
				Idx:    3,
				Target: PuzzleTarget{Puzzle: 0, Facelets: sig, Generator: reg.Algorithm()},
			},
			Goto{Idx: 0},
			AddTheoretical{Theoretical: 0, Order: big.NewInt(30), Amt: big.NewInt(7)},
			Print{Message: "value", Target: TheoreticalTarget{Theoretical: 0, Order: big.NewInt(30)}},
			Halt{Message: "done"},
		},
	}

	data, err := program.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	back, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}

	if len(back.Instructions) != len(program.Instructions) {
		t.Fatalf("expected %d instructions, got %d",
			len(program.Instructions), len(back.Instructions))
	}
	if back.Theoretical[0].Int64() != 30 {
		t.Fatalf("theoretical order: expected 30, got %v", back.Theoretical[0])
	}
	if back.PuzzleNames[0] != "3x3" {
		t.Fatalf("puzzle name lost: %v", back.PuzzleNames)
	}

	perform, ok := back.Instructions[0].(PerformAlgorithm)
	if !ok {
		t.Fatalf("instruction 0: expected PerformAlgorithm, got %T", back.Instructions[0])
	}
	if perform.Alg.String() != "U'" {
		t.Fatalf("algorithm: expected U', got %q", perform.Alg.String())
	}
	if !perform.Alg.Permutation().Equal(alg.Permutation()) {
		t.Fatalf("algorithm permutation changed across serialization")
	}

	solvedGoto, ok := back.Instructions[1].(SolvedGoto)
	if !ok {
		t.Fatalf("instruction 1: expected SolvedGoto, got %T", back.Instructions[1])
	}
	target, ok := solvedGoto.Target.(PuzzleTarget)
	if !ok {
		t.Fatalf("expected a puzzle target, got %T", solvedGoto.Target)
	}
	if target.Facelets.Order().Int64() != 4 {
		t.Fatalf("facelets order: expected 4, got %v", target.Facelets.Order())
	}

	halt, ok := back.Instructions[5].(Halt)
	if !ok || halt.Target != nil {
		t.Fatalf("instruction 5: expected bare Halt, got %#v", back.Instructions[5])
	}
}
