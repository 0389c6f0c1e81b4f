// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file serializes programs.  The wire schema is CBOR: big integers
// travel as decimal strings, algorithms as move lists resolved against the
// program's own puzzle declarations, and source spans are dropped (a loaded
// program has no source file).

package prog

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"github.com/qter-project/qter/arch"
	"github.com/qter-project/qter/perms"
)

type wireProgram struct {
	Theoretical  []string          `cbor:"theoretical"`
	Puzzles      []cbor.RawMessage `cbor:"puzzles"`
	PuzzleNames  []string          `cbor:"puzzleNames"`
	Instructions []wireInstruction `cbor:"instructions"`
}

type wireInstruction struct {
	Kind     string       `cbor:"kind"`
	Idx      int          `cbor:"idx,omitempty"`
	Puzzle   int          `cbor:"puzzle,omitempty"`
	Amt      string       `cbor:"amt,omitempty"`
	Order    string       `cbor:"order,omitempty"`
	Moves    []string     `cbor:"moves,omitempty"`
	Message  string       `cbor:"message,omitempty"`
	MaxInput string       `cbor:"maxInput,omitempty"`
	Target   *wireTarget  `cbor:"target,omitempty"`
	Facelets *wireFacelet `cbor:"facelets,omitempty"`
}

type wireTarget struct {
	Kind        string       `cbor:"kind"`
	Theoretical int          `cbor:"theoretical,omitempty"`
	Order       string       `cbor:"order,omitempty"`
	Puzzle      int          `cbor:"puzzle,omitempty"`
	Facelets    *wireFacelet `cbor:"facelets,omitempty"`
	Generator   []string     `cbor:"generator,omitempty"`
}

type wireFacelet struct {
	Facelets []int    `cbor:"facelets"`
	Pieces   []string `cbor:"pieces"`
	Order    string   `cbor:"order"`
}

// Marshal serializes the program.
func (p *Program) Marshal() ([]byte, error) {
	out := wireProgram{PuzzleNames: p.PuzzleNames}

	for _, order := range p.Theoretical {
		out.Theoretical = append(out.Theoretical, order.String())
	}
	for _, group := range p.Puzzles {
		encoded, err := group.MarshalJSON()
		if err != nil {
			return nil, err
		}
		out.Puzzles = append(out.Puzzles, cbor.RawMessage(mustCBORBytes(encoded)))
	}
	for _, instr := range p.Instructions {
		wi, err := marshalInstruction(instr)
		if err != nil {
			return nil, err
		}
		out.Instructions = append(out.Instructions, wi)
	}

	return cbor.Marshal(out)
}

func mustCBORBytes(b []byte) []byte {
	out, err := cbor.Marshal(b)
	if err != nil {
		panic(err)
	}
	return out
}

func marshalInstruction(instr Instruction) (wireInstruction, error) {
	switch v := instr.(type) {
	case Goto:
		return wireInstruction{Kind: "goto", Idx: v.Idx}, nil
	case SolvedGoto:
		return wireInstruction{Kind: "solved-goto", Idx: v.Idx, Target: marshalTarget(v.Target)}, nil
	case AddTheoretical:
		return wireInstruction{
			Kind: "add-theoretical", Idx: v.Theoretical,
			Amt: v.Amt.String(), Order: v.Order.String(),
		}, nil
	case PerformAlgorithm:
		return wireInstruction{Kind: "algorithm", Puzzle: v.Puzzle, Moves: v.Alg.Moves()}, nil
	case RepeatUntil:
		return wireInstruction{
			Kind: "repeat-until", Puzzle: v.Puzzle,
			Moves: v.Alg.Moves(), Facelets: marshalFacelets(v.Facelets),
		}, nil
	case Solve:
		return wireInstruction{Kind: "solve", Puzzle: v.Puzzle}, nil
	case ZeroTheoretical:
		return wireInstruction{Kind: "zero-theoretical", Idx: v.Theoretical}, nil
	case Input:
		return wireInstruction{
			Kind: "input", Message: v.Message,
			MaxInput: v.MaxInput.String(), Target: marshalTarget(v.Target),
		}, nil
	case Halt:
		return wireInstruction{Kind: "halt", Message: v.Message, Target: marshalTarget(v.Target)}, nil
	case Print:
		return wireInstruction{Kind: "print", Message: v.Message, Target: marshalTarget(v.Target)}, nil
	default:
		return wireInstruction{}, fmt.Errorf("unknown instruction %T", instr)
	}
}

func marshalTarget(t Target) *wireTarget {
	switch v := t.(type) {
	case TheoreticalTarget:
		return &wireTarget{Kind: "theoretical", Theoretical: v.Theoretical, Order: v.Order.String()}
	case PuzzleTarget:
		return &wireTarget{
			Kind:      "puzzle",
			Puzzle:    v.Puzzle,
			Facelets:  marshalFacelets(v.Facelets),
			Generator: v.Generator.Moves(),
		}
	default:
		return nil
	}
}

func marshalFacelets(f *arch.Facelets) *wireFacelet {
	return &wireFacelet{
		Facelets: f.Facelets(),
		Pieces:   f.Pieces(),
		Order:    f.Order().String(),
	}
}

// Unmarshal deserializes a program produced by Marshal.
func Unmarshal(data []byte) (*Program, error) {
	var in wireProgram
	if err := cbor.Unmarshal(data, &in); err != nil {
		return nil, err
	}

	p := &Program{PuzzleNames: in.PuzzleNames}

	for _, s := range in.Theoretical {
		order, err := parseBig(s)
		if err != nil {
			return nil, err
		}
		p.Theoretical = append(p.Theoretical, order)
	}

	for _, raw := range in.Puzzles {
		var jsonBytes []byte
		if err := cbor.Unmarshal(raw, &jsonBytes); err != nil {
			return nil, err
		}
		var group perms.Group
		if err := group.UnmarshalJSON(jsonBytes); err != nil {
			return nil, err
		}
		p.Puzzles = append(p.Puzzles, &group)
	}

	for _, wi := range in.Instructions {
		instr, err := p.unmarshalInstruction(wi)
		if err != nil {
			return nil, err
		}
		p.Instructions = append(p.Instructions, instr)
	}

	return p, nil
}

func (p *Program) unmarshalInstruction(wi wireInstruction) (Instruction, error) {
	switch wi.Kind {
	case "goto":
		return Goto{Idx: wi.Idx}, nil
	case "solved-goto":
		target, err := p.unmarshalTarget(wi.Target)
		if err != nil {
			return nil, err
		}
		return SolvedGoto{Idx: wi.Idx, Target: target}, nil
	case "add-theoretical":
		amt, err := parseBig(wi.Amt)
		if err != nil {
			return nil, err
		}
		order, err := parseBig(wi.Order)
		if err != nil {
			return nil, err
		}
		return AddTheoretical{Theoretical: wi.Idx, Amt: amt, Order: order}, nil
	case "algorithm":
		alg, err := p.algorithm(wi.Puzzle, wi.Moves)
		if err != nil {
			return nil, err
		}
		return PerformAlgorithm{Puzzle: wi.Puzzle, Alg: alg}, nil
	case "repeat-until":
		alg, err := p.algorithm(wi.Puzzle, wi.Moves)
		if err != nil {
			return nil, err
		}
		facelets, err := unmarshalFacelets(wi.Facelets)
		if err != nil {
			return nil, err
		}
		return RepeatUntil{Puzzle: wi.Puzzle, Alg: alg, Facelets: facelets}, nil
	case "solve":
		return Solve{Puzzle: wi.Puzzle}, nil
	case "zero-theoretical":
		return ZeroTheoretical{Theoretical: wi.Idx}, nil
	case "input":
		target, err := p.unmarshalTarget(wi.Target)
		if err != nil {
			return nil, err
		}
		maxInput, err := parseBig(wi.MaxInput)
		if err != nil {
			return nil, err
		}
		return Input{Message: wi.Message, Target: target, MaxInput: maxInput}, nil
	case "halt":
		target, err := p.unmarshalTarget(wi.Target)
		if err != nil {
			return nil, err
		}
		return Halt{Message: wi.Message, Target: target}, nil
	case "print":
		target, err := p.unmarshalTarget(wi.Target)
		if err != nil {
			return nil, err
		}
		return Print{Message: wi.Message, Target: target}, nil
	default:
		return nil, fmt.Errorf("unknown instruction kind %q", wi.Kind)
	}
}

func (p *Program) unmarshalTarget(wt *wireTarget) (Target, error) {
	if wt == nil {
		return nil, nil
	}
	switch wt.Kind {
	case "theoretical":
		order, err := parseBig(wt.Order)
		if err != nil {
			return nil, err
		}
		return TheoreticalTarget{Theoretical: wt.Theoretical, Order: order}, nil
	case "puzzle":
		facelets, err := unmarshalFacelets(wt.Facelets)
		if err != nil {
			return nil, err
		}
		generator, err := p.algorithm(wt.Puzzle, wt.Generator)
		if err != nil {
			return nil, err
		}
		return PuzzleTarget{Puzzle: wt.Puzzle, Facelets: facelets, Generator: generator}, nil
	default:
		return nil, fmt.Errorf("unknown target kind %q", wt.Kind)
	}
}

func unmarshalFacelets(wf *wireFacelet) (*arch.Facelets, error) {
	if wf == nil {
		return nil, fmt.Errorf("missing facelets")
	}
	order, err := parseBig(wf.Order)
	if err != nil {
		return nil, err
	}
	return arch.NewFacelets(wf.Facelets, wf.Pieces, order), nil
}

func (p *Program) algorithm(puzzle int, moves []string) (*perms.Algorithm, error) {
	if puzzle < 0 || puzzle >= len(p.Puzzles) {
		return nil, fmt.Errorf("puzzle index %d out of range", puzzle)
	}
	return perms.NewAlgorithm(p.Puzzles[puzzle], moves)
}

func parseBig(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("malformed integer %q", s)
	}
	return v, nil
}
