// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file decodes a register value from a permutation.  A register holding
// v has had the inverse of its generator applied v times, so decoding walks
// each chosen facelet's generator cycle to find how far the facelet has
// traveled, reduces modulo the cycle's chromatic order, and combines the
// per-facelet residues with the Chinese remainder theorem.

package arch

import (
	"math/big"

	"github.com/qter-project/qter/number"
	"github.com/qter-project/qter/perms"
)

// Decode reads the register value encoded in the permutation using the given
// facelets of the register generator.  An arbitrary scramble is in general
// not decodable; Decode returns nil in that case.
func Decode(state *perms.Permutation, facelets []int, generator *perms.Algorithm) *big.Int {
	return decodeWithOrders(state, facelets, generator, perms.ChromaticOrders(generator))
}

func decodeWithOrders(state *perms.Permutation, facelets []int, generator *perms.Algorithm, chromaticOrders []*big.Int) *big.Int {
	gen := generator.Permutation()

	var residues []number.Residue
	for _, facelet := range facelets {
		mapsTo := state.Image(facelet)
		chromaticOrder := chromaticOrders[facelet]

		if mapsTo == facelet {
			residues = append(residues, number.Residue{
				Value:   number.Zero(),
				Modulus: chromaticOrder,
			})
			continue
		}

		// Find how many forward generator steps reach the image; the value
		// is the same number of inverse steps, i.e. the cycle length minus
		// the step count, reduced modulo the chromatic order.
		steps := 0
		length := 0
		found := false
		for at := gen.Image(facelet); ; at = gen.Image(at) {
			length++
			if at == mapsTo {
				steps = length
				found = true
			}
			if at == facelet {
				break
			}
		}
		if !found {
			// The image is not on the generator's cycle at all.
			return nil
		}

		value := big.NewInt(int64(length - steps))
		residues = append(residues, number.Residue{
			Value:   value.Mod(value, chromaticOrder),
			Modulus: chromaticOrder,
		})
	}

	value, _, ok := number.CRT(residues)
	if !ok {
		return nil
	}
	return value
}
