// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file detects facelets shared between the registers of an
// architecture.  A cycle of one register's generator that moves any facelet
// another register also moves cannot be decoded without disturbing the other
// register, so only unshared cycles contribute to a register's order.

package arch

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/bits-and-blooms/bitset"
	"github.com/qter-project/qter/perms"
)

// ErrNoUnsharedCycles is wrapped when a register would have no cycles of its
// own to decode from.
var ErrNoUnsharedCycles = errors.New("register has no unshared cycles")

// algorithmsToCycleGenerators turns the user algorithms into registers,
// splitting every generator's cycles into unshared cycles and shared
// facelets.
func algorithmsToCycleGenerators(group *perms.Group, algorithms [][]string) ([]*CycleGenerator, []int, error) {
	algs := make([]*perms.Algorithm, len(algorithms))
	supports := make([]*bitset.BitSet, len(algorithms))

	for i, moves := range algorithms {
		alg, err := perms.NewAlgorithm(group, moves)
		if err != nil {
			return nil, nil, fmt.Errorf("register %d: %w", i, err)
		}
		algs[i] = alg

		support := bitset.New(uint(group.FaceletCount()))
		for _, cycle := range alg.Permutation().Cycles() {
			for _, facelet := range cycle {
				support.Set(uint(facelet))
			}
		}
		supports[i] = support
	}

	// A facelet is shared if at least two registers move it.
	sharedSet := bitset.New(uint(group.FaceletCount()))
	for i := range supports {
		for j := i + 1; j < len(supports); j++ {
			sharedSet.InPlaceUnion(supports[i].Intersection(supports[j]))
		}
	}

	var shared []int
	for facelet, ok := sharedSet.NextSet(0); ok; facelet, ok = sharedSet.NextSet(facelet + 1) {
		shared = append(shared, int(facelet))
	}

	registers := make([]*CycleGenerator, len(algs))
	for i, alg := range algs {
		orders := perms.ChromaticOrders(alg)

		var unshared []*Subcycle
		for _, cycle := range alg.Permutation().Cycles() {
			touched := false
			for _, facelet := range cycle {
				if sharedSet.Test(uint(facelet)) {
					touched = true
					break
				}
			}
			if touched {
				continue
			}
			unshared = append(unshared, &Subcycle{
				faceletCycle:   cycle,
				chromaticOrder: new(big.Int).Set(orders[cycle[0]]),
			})
		}

		if len(unshared) == 0 {
			return nil, nil, fmt.Errorf("register %d (%s): %w", i, alg, ErrNoUnsharedCycles)
		}

		registers[i] = newCycleGenerator(alg, unshared)
	}

	return registers, shared, nil
}
