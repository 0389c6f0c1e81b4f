// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines Facelets: the chosen decoding-and-solvedness facelet set
// of a register, together with the piece names the facelets sit on and the
// modulus the set decodes.

package arch

import "math/big"

// Facelets identifies the stickers used to decode a register and decide its
// solvedness.  Order is the modulus the facelet set can decode: the full
// register order for signature facelets, or a divisor of it for partial
// decodes.
type Facelets struct {
	facelets []int
	pieces   []string
	order    *big.Int
}

// NewFacelets builds a facelet set.
func NewFacelets(facelets []int, pieces []string, order *big.Int) *Facelets {
	return &Facelets{facelets: facelets, pieces: pieces, order: order}
}

// Facelets returns the facelet indices.
func (f *Facelets) Facelets() []int { return f.facelets }

// Pieces returns the names of the pieces the facelets sit on.
func (f *Facelets) Pieces() []string { return f.pieces }

// Order returns the modulus this facelet set decodes.
func (f *Facelets) Order() *big.Int { return f.order }
