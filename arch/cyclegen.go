// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines CycleGenerator, the generator of one register in an
// architecture, and the selection of signature facelets: the smallest facelet
// set that still decodes a requested modulus of the register.

package arch

import (
	"math/big"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/qter-project/qter/number"
	"github.com/qter-project/qter/perms"
)

// A Subcycle is one cycle of a register generator: the facelet sequence and
// its chromatic order.
type Subcycle struct {
	faceletCycle   []int
	chromaticOrder *big.Int
}

// FaceletCycle returns the cycle of facelets.
func (c *Subcycle) FaceletCycle() []int { return c.faceletCycle }

// ChromaticOrder returns the order of the cycle after accounting for colors.
func (c *Subcycle) ChromaticOrder() *big.Int { return c.chromaticOrder }

// A CycleGenerator is the generator of a register: an algorithm, the cycles
// of it not shared with any other register of the architecture, and the
// register order (the LCM of the unshared cycles' chromatic orders).
type CycleGenerator struct {
	algorithm      *perms.Algorithm
	unsharedCycles []*Subcycle
	order          *big.Int
}

func newCycleGenerator(algorithm *perms.Algorithm, unsharedCycles []*Subcycle) *CycleGenerator {
	order := number.One()
	for _, cycle := range unsharedCycles {
		order = number.Lcm(order, cycle.chromaticOrder)
	}
	return &CycleGenerator{
		algorithm:      algorithm,
		unsharedCycles: unsharedCycles,
		order:          order,
	}
}

// Algorithm returns the generator algorithm.
func (c *CycleGenerator) Algorithm() *perms.Algorithm { return c.algorithm }

// UnsharedCycles returns the cycles unshared with the architecture's other
// registers.
func (c *CycleGenerator) UnsharedCycles() []*Subcycle { return c.unsharedCycles }

// Order returns the order of the register.
func (c *CycleGenerator) Order() *big.Int { return c.order }

// SignatureFacelets finds a collection of facelets that decodes the register
// and determines whether it is solved.
func (c *CycleGenerator) SignatureFacelets() *Facelets {
	// Never nil when the modulus is the full order.
	return c.SignatureFaceletsMod(c.order)
}

// SignatureFaceletsMod finds facelets that decode the register modulo the
// given divisor of its order.  Some registers allow decoding individual
// cycles to read the register modulo a smaller number.  Returns nil if the
// modulus cannot be picked out of the register's subcycles.
func (c *CycleGenerator) SignatureFaceletsMod(remainderMod *big.Int) *Facelets {
	// All cycles whose chromatic order contributes to the modulus.
	var candidates []sigCandidate
	for i, cycle := range c.unsharedCycles {
		if cycle.chromaticOrder.Cmp(number.One()) != 0 &&
			number.Divides(cycle.chromaticOrder, remainderMod) {
			candidates = append(candidates, sigCandidate{cycle.chromaticOrder, i})
		}
	}

	lcm := number.One()
	for _, cand := range candidates {
		lcm = number.Lcm(lcm, cand.order)
	}
	if lcm.Cmp(remainderMod) != 0 {
		// The modulus cannot be picked out of the register.
		return nil
	}

	// Drop cycles that don't contribute to the modulus, smallest first.
	sortCandidates(candidates)
	var kept []sigCandidate
	for i, cand := range candidates {
		without := number.One()
		for _, k := range kept {
			without = number.Lcm(without, k.order)
		}
		for _, later := range candidates[i+1:] {
			without = number.Lcm(without, later.order)
		}
		if without.Cmp(remainderMod) != 0 {
			kept = append(kept, cand)
		}
	}

	// Since all stickers of a piece move together, promoting a kept facelet
	// to the whole piece doesn't change the order of anything, but promoted
	// facelets whose color varies along their cycle can't be used and are
	// dropped.
	group := c.algorithm.Group()
	colors := group.FaceletColors()
	pieceOf := group.PieceAssignments()

	membership := treemap.NewWithIntComparator()
	for _, cand := range kept {
		for _, facelet := range c.unsharedCycles[cand.idx].faceletCycle {
			membership.Put(facelet, cand.idx)
		}
	}

	var facelets []int
	var pieces []string

	for !membership.Empty() {
		stickerKey, _ := membership.Min()
		sticker := stickerKey.(int)
		piece := pieceOf[sticker]
		pieces = append(pieces, piece)

		// Include every other sticker of the same piece that is still
		// under consideration.
		type included struct {
			sticker, cycle int
		}
		var rest []included
		for i, p := range pieceOf {
			if p != piece {
				continue
			}
			if cycleIdx, found := membership.Get(i); found {
				membership.Remove(i)
				rest = append(rest, included{i, cycleIdx.(int)})
			}
		}

		for _, inc := range rest {
			facelets = append(facelets, inc.sticker)

			color := colors[inc.sticker]
			for _, member := range c.unsharedCycles[inc.cycle].faceletCycle {
				if colors[member] != color {
					membership.Remove(member)
				}
			}
		}
	}

	return NewFacelets(facelets, pieces, new(big.Int).Set(remainderMod))
}

type sigCandidate struct {
	order *big.Int
	idx   int
}

func sortCandidates(candidates []sigCandidate) {
	// Stable insertion by ascending order; candidate lists are tiny.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].order.Cmp(candidates[j-1].order) < 0; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
}
