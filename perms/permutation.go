// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the Permutation type: a finite bijection on [0..N) with
// composition, inversion, exponentiation, cycle decomposition, and cycle
// notation.  Permutations of different sizes compose freely; indices past the
// end of the mapping are fixed points.

// Package perms implements the permutation algebra underlying twisty-puzzle
// registers: permutations, named generators grouped into permutation groups,
// and move-sequence algorithms.
package perms

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// ErrParse is wrapped by every cycle-notation parse failure.
var ErrParse = errors.New("malformed cycle notation")

// A Permutation is a bijection on [0..N).  The zero value is the identity.
type Permutation struct {
	// mapping[i] is the position the facelet at position i moves to.
	mapping []int
}

// Identity returns the identity permutation.
func Identity() *Permutation {
	return &Permutation{}
}

// FromMapping creates a permutation from an explicit mapping.  The mapping
// must be a bijection on its own indices.
func FromMapping(mapping []int) (*Permutation, error) {
	seen := bitset.New(uint(len(mapping)))
	for i, v := range mapping {
		if v < 0 || v >= len(mapping) {
			return nil, fmt.Errorf("mapping sends %d out of range to %d", i, v)
		}
		if seen.Test(uint(v)) {
			return nil, fmt.Errorf("mapping is not a bijection: %d is hit twice", v)
		}
		seen.Set(uint(v))
	}
	p := &Permutation{mapping: append([]int(nil), mapping...)}
	p.trim()
	return p, nil
}

// FromCycles creates a permutation from a list of disjoint cycles.
func FromCycles(cycles [][]int) *Permutation {
	size := 0
	for _, cycle := range cycles {
		for _, v := range cycle {
			if v+1 > size {
				size = v + 1
			}
		}
	}
	p := &Permutation{mapping: identityMapping(size)}
	for _, cycle := range cycles {
		for i, v := range cycle {
			p.mapping[v] = cycle[(i+1)%len(cycle)]
		}
	}
	p.trim()
	return p
}

func identityMapping(size int) []int {
	mapping := make([]int, size)
	for i := range mapping {
		mapping[i] = i
	}
	return mapping
}

// trim drops trailing fixed points so that equal permutations have equal
// mappings.
func (p *Permutation) trim() {
	n := len(p.mapping)
	for n > 0 && p.mapping[n-1] == n-1 {
		n--
	}
	p.mapping = p.mapping[:n]
}

// Image returns the position facelet i moves to.
func (p *Permutation) Image(i int) int {
	if i < len(p.mapping) {
		return p.mapping[i]
	}
	return i
}

// Size returns the smallest N such that the permutation fixes everything at
// or beyond N.
func (p *Permutation) Size() int { return len(p.mapping) }

// IsIdentity reports whether the permutation fixes every point.
func (p *Permutation) IsIdentity() bool { return len(p.mapping) == 0 }

// Equal reports whether two permutations agree as functions.
func (p *Permutation) Equal(q *Permutation) bool {
	if len(p.mapping) != len(q.mapping) {
		return false
	}
	for i, v := range p.mapping {
		if q.mapping[i] != v {
			return false
		}
	}
	return true
}

// Clone returns a copy of the permutation.
func (p *Permutation) Clone() *Permutation {
	return &Permutation{mapping: append([]int(nil), p.mapping...)}
}

// ComposeInto applies q after p, in place: the result sends i to
// q(p(i)).  Applying a move to a puzzle state is state.ComposeInto(move).
func (p *Permutation) ComposeInto(q *Permutation) {
	size := max(len(p.mapping), len(q.mapping))
	mapping := make([]int, size)
	for i := range mapping {
		mapping[i] = q.Image(p.Image(i))
	}
	p.mapping = mapping
	p.trim()
}

// Compose returns the permutation that applies p first and then q.
func Compose(p, q *Permutation) *Permutation {
	out := p.Clone()
	out.ComposeInto(q)
	return out
}

// Inverse returns the inverse permutation.
func (p *Permutation) Inverse() *Permutation {
	mapping := make([]int, len(p.mapping))
	for i, v := range p.mapping {
		mapping[v] = i
	}
	return &Permutation{mapping: mapping}
}

// Exp returns p raised to the given (possibly negative) power.
func (p *Permutation) Exp(k *big.Int) *Permutation {
	base := p
	exp := new(big.Int).Set(k)
	if exp.Sign() < 0 {
		base = p.Inverse()
		exp.Neg(exp)
	}

	out := Identity()
	sq := base.Clone()
	for exp.Sign() > 0 {
		if exp.Bit(0) == 1 {
			out.ComposeInto(sq)
		}
		sq = Compose(sq, sq)
		exp.Rsh(exp, 1)
	}
	return out
}

// Cycles returns the cycles of length at least two, each cycle beginning with
// its smallest element, ordered by that element.  The cycles partition the
// non-fixed support; within each cycle, successors come from the permutation
// mapping.
func (p *Permutation) Cycles() [][]int {
	var cycles [][]int
	visited := bitset.New(uint(len(p.mapping)))

	for start := range p.mapping {
		if visited.Test(uint(start)) || p.mapping[start] == start {
			continue
		}
		var cycle []int
		for at := start; !visited.Test(uint(at)); at = p.mapping[at] {
			visited.Set(uint(at))
			cycle = append(cycle, at)
		}
		cycles = append(cycles, cycle)
	}

	return cycles
}

// String renders the permutation in cycle notation, e.g. "(0, 1)(2, 4, 3)".
// The identity renders as "()".
func (p *Permutation) String() string {
	cycles := p.Cycles()
	if len(cycles) == 0 {
		return "()"
	}
	var sb strings.Builder
	for _, cycle := range cycles {
		sb.WriteByte('(')
		for i, v := range cycle {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Itoa(v))
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// ParsePermutation parses cycle notation as printed by String.  Whitespace
// between elements is optional and cycles may start at any of their
// elements.
func ParsePermutation(s string) (*Permutation, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "()" {
		return Identity(), nil
	}

	var cycles [][]int
	rest := s
	for rest != "" {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			break
		}
		if rest[0] != '(' {
			return nil, fmt.Errorf("%w: expected '(' at %q", ErrParse, rest)
		}
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return nil, fmt.Errorf("%w: missing ')' in %q", ErrParse, s)
		}
		body := rest[1:end]
		rest = rest[end+1:]

		if strings.TrimSpace(body) == "" {
			continue
		}
		var cycle []int
		for _, field := range strings.Split(body, ",") {
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil || v < 0 {
				return nil, fmt.Errorf("%w: bad element %q", ErrParse, field)
			}
			cycle = append(cycle, v)
		}
		cycles = append(cycles, cycle)
	}

	// Reject overlapping cycles; FromCycles would silently overwrite.
	seen := make(map[int]bool)
	for _, cycle := range cycles {
		for _, v := range cycle {
			if seen[v] {
				return nil, fmt.Errorf("%w: element %d appears twice", ErrParse, v)
			}
			seen[v] = true
		}
	}

	return FromCycles(cycles), nil
}
