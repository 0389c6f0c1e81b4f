// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file computes chromatic orders: the number of times a register
// generator must be applied before every facelet of a cycle sees its
// original color again.

package perms

import "math/big"

// RepetendLength returns the length of the shortest prefix that the word is
// a whole number of repeated copies of:
//
//	[a a a a]   -> 1
//	[a b a b]   -> 2
//	[a b c a]   -> 4
//	[a b a b a] -> 5
//
// Each element is treated as a unit, so [Yellow Green Yellow Green] is 2.
func RepetendLength(word []string) int {
	n := len(word)
	for d := 1; d < n; d++ {
		if n%d != 0 {
			continue
		}
		repeats := true
		for i := d; i < n; i++ {
			if word[i] != word[i-d] {
				repeats = false
				break
			}
		}
		if repeats {
			return d
		}
	}
	return max(n, 1)
}

// ChromaticOrders returns, for every facelet of the group, the chromatic
// order of the cycle of alg containing it.  Facelets not moved by alg have
// chromatic order 1.
func ChromaticOrders(alg *Algorithm) []*big.Int {
	colors := alg.Group().FaceletColors()
	out := make([]*big.Int, alg.Group().FaceletCount())
	for i := range out {
		out[i] = big.NewInt(1)
	}

	for _, cycle := range alg.Permutation().Cycles() {
		word := make([]string, len(cycle))
		for i, facelet := range cycle {
			word[i] = colors[facelet]
		}
		order := big.NewInt(int64(RepetendLength(word)))
		for _, facelet := range cycle {
			out[facelet] = order
		}
	}

	return out
}
