// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines Algorithm: an ordered move sequence belonging to a group,
// with its composed permutation cached alongside.

package perms

import (
	"math/big"
	"strings"
)

// An Algorithm is a sequence of generator names of a group along with the
// composed permutation of the whole sequence.
type Algorithm struct {
	group *Group
	moves []string
	perm  *Permutation
}

// NewAlgorithm builds an algorithm from a move sequence, composing the
// generator permutations in order.  Unknown moves wrap ErrUnknownMove.
func NewAlgorithm(group *Group, moves []string) (*Algorithm, error) {
	perm := Identity()
	for _, move := range moves {
		p, err := group.Move(move)
		if err != nil {
			return nil, err
		}
		perm.ComposeInto(p)
	}
	return &Algorithm{
		group: group,
		moves: append([]string(nil), moves...),
		perm:  perm,
	}, nil
}

// ParseAlgorithm parses a whitespace-separated move string like "U D U2".
func ParseAlgorithm(group *Group, s string) (*Algorithm, error) {
	return NewAlgorithm(group, strings.Fields(s))
}

// Group returns the group the algorithm belongs to.
func (a *Algorithm) Group() *Group { return a.group }

// Moves returns the move sequence.  Callers must not modify it.
func (a *Algorithm) Moves() []string { return a.moves }

// Permutation returns the cached composition of the whole move sequence.
func (a *Algorithm) Permutation() *Permutation { return a.perm }

// String renders the move sequence separated by spaces.
func (a *Algorithm) String() string { return strings.Join(a.moves, " ") }

// Equal reports whether two algorithms have the same move sequence.
func (a *Algorithm) Equal(b *Algorithm) bool {
	if len(a.moves) != len(b.moves) {
		return false
	}
	for i, m := range a.moves {
		if b.moves[i] != m {
			return false
		}
	}
	return true
}

// Concat returns the algorithm performing a and then b.  Both must belong to
// the same group.
func (a *Algorithm) Concat(b *Algorithm) *Algorithm {
	return &Algorithm{
		group: a.group,
		moves: append(append([]string(nil), a.moves...), b.moves...),
		perm:  Compose(a.perm, b.perm),
	}
}

// Inverse returns the algorithm undoing a: the reversed sequence of inverse
// moves.
func (a *Algorithm) Inverse() *Algorithm {
	moves, err := a.group.InvertMoveSeq(a.moves)
	if err != nil {
		// Construction validated every move; an unknown inverse here is a
		// corrupted group.
		panic(err)
	}
	return &Algorithm{group: a.group, moves: moves, perm: a.perm.Inverse()}
}

// Exp returns the algorithm repeated k times; a negative k repeats the
// inverse.  The move sequence is materialized, so callers should keep k
// within the register orders they work with.
func (a *Algorithm) Exp(k *big.Int) *Algorithm {
	base := a
	times := new(big.Int).Abs(k)
	if k.Sign() < 0 {
		base = a.Inverse()
	}

	n := int(times.Int64())
	moves := make([]string, 0, n*len(base.moves))
	for i := 0; i < n; i++ {
		moves = append(moves, base.moves...)
	}
	return &Algorithm{group: a.group, moves: moves, perm: base.perm.Exp(times)}
}
