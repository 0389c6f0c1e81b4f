// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines Group: the named generators of a puzzle, the
// color of every facelet, and the partition of facelets into pieces.  Groups
// are built once when a puzzle is loaded and shared by reference afterwards.

package perms

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownMove is wrapped when a move name is not a generator of the group.
var ErrUnknownMove = errors.New("unknown move")

// A Generator is one named move of a puzzle together with its effect and the
// name of its inverse move.
type Generator struct {
	Name        string
	Permutation *Permutation
	InverseName string
}

// A Group holds the generators of a puzzle, the per-facelet color
// assignment, and the per-facelet piece assignment.  Two facelets on the same
// piece always move together; every generator must preserve that partition.
type Group struct {
	name           string
	faceletColors  []string
	pieces         []string
	generatorOrder []string
	generators     map[string]Generator
}

// NewGroup validates the generators against the piece partition and builds a
// group.  colors[i] and pieces[i] describe facelet i.
func NewGroup(name string, colors, pieces []string, generators []Generator) (*Group, error) {
	if len(colors) != len(pieces) {
		return nil, fmt.Errorf("group %s: %d colors but %d piece assignments",
			name, len(colors), len(pieces))
	}

	g := &Group{
		name:          name,
		faceletColors: colors,
		pieces:        pieces,
		generators:    make(map[string]Generator, len(generators)),
	}

	for _, gen := range generators {
		if gen.Permutation.Size() > len(colors) {
			return nil, fmt.Errorf("group %s: generator %s moves facelet %d beyond the puzzle",
				name, gen.Name, gen.Permutation.Size()-1)
		}
		if err := g.checkPiecePartition(gen); err != nil {
			return nil, err
		}
		g.generators[gen.Name] = gen
		g.generatorOrder = append(g.generatorOrder, gen.Name)
	}

	for _, gen := range generators {
		if _, ok := g.generators[gen.InverseName]; !ok {
			return nil, fmt.Errorf("group %s: generator %s names inverse %s which does not exist",
				name, gen.Name, gen.InverseName)
		}
	}

	return g, nil
}

// checkPiecePartition verifies that the generator maps whole pieces to whole
// pieces: facelets sharing a piece must have images sharing a piece.
func (g *Group) checkPiecePartition(gen Generator) error {
	imagePiece := make(map[string]string)
	for i := range g.pieces {
		from := g.pieces[i]
		to := g.pieces[gen.Permutation.Image(i)]
		if prev, ok := imagePiece[from]; ok && prev != to {
			return fmt.Errorf("group %s: generator %s tears piece %s apart",
				g.name, gen.Name, from)
		}
		imagePiece[from] = to
	}
	return nil
}

// Name returns the puzzle name, e.g. "3x3".
func (g *Group) Name() string { return g.name }

// FaceletCount returns the number of facelets the group acts on.
func (g *Group) FaceletCount() int { return len(g.faceletColors) }

// FaceletColors returns the color of every facelet.
func (g *Group) FaceletColors() []string { return g.faceletColors }

// PieceAssignments returns the piece every facelet belongs to.
func (g *Group) PieceAssignments() []string { return g.pieces }

// GeneratorNames returns the generator names in declaration order.
func (g *Group) GeneratorNames() []string { return g.generatorOrder }

// Move returns the permutation of the named generator.
func (g *Group) Move(name string) (*Permutation, error) {
	gen, ok := g.generators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMove, name)
	}
	return gen.Permutation, nil
}

// InverseMove returns the name of the move undoing the named generator.
func (g *Group) InverseMove(name string) (string, error) {
	gen, ok := g.generators[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMove, name)
	}
	return gen.InverseName, nil
}

// InvertMoveSeq replaces moves with the reversed sequence of inverse moves.
func (g *Group) InvertMoveSeq(moves []string) ([]string, error) {
	out := make([]string, len(moves))
	for i, move := range moves {
		inv, err := g.InverseMove(move)
		if err != nil {
			return nil, err
		}
		out[len(moves)-1-i] = inv
	}
	return out, nil
}

// The wire form of a group, used by the robot protocol handshake.
type jsonGroup struct {
	Name       string          `json:"name"`
	Colors     []string        `json:"colors"`
	Pieces     []string        `json:"pieces"`
	Generators []jsonGenerator `json:"generators"`
}

type jsonGenerator struct {
	Name    string `json:"name"`
	Mapping []int  `json:"mapping"`
	Inverse string `json:"inverse"`
}

// MarshalJSON serializes the group for the robot handshake.
func (g *Group) MarshalJSON() ([]byte, error) {
	out := jsonGroup{
		Name:   g.name,
		Colors: g.faceletColors,
		Pieces: g.pieces,
	}
	for _, name := range g.generatorOrder {
		gen := g.generators[name]
		mapping := make([]int, gen.Permutation.Size())
		for i := range mapping {
			mapping[i] = gen.Permutation.Image(i)
		}
		out.Generators = append(out.Generators, jsonGenerator{
			Name:    gen.Name,
			Mapping: mapping,
			Inverse: gen.InverseName,
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON deserializes a group sent by a client, re-running all
// construction-time validation.
func (g *Group) UnmarshalJSON(data []byte) error {
	var in jsonGroup
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	generators := make([]Generator, 0, len(in.Generators))
	for _, gen := range in.Generators {
		perm, err := FromMapping(gen.Mapping)
		if err != nil {
			return fmt.Errorf("generator %s: %w", gen.Name, err)
		}
		generators = append(generators, Generator{
			Name:        gen.Name,
			Permutation: perm,
			InverseName: gen.Inverse,
		})
	}
	built, err := NewGroup(in.Name, in.Colors, in.Pieces, generators)
	if err != nil {
		return err
	}
	*g = *built
	return nil
}
