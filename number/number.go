// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the arbitrary-precision helpers used throughout the
// toolchain.  Register orders and values are unbounded, so everything is
// math/big; the helpers here cover the number theory the puzzle algebra
// needs: LCM, CRT over possibly non-coprime moduli, and torus distance.

// Package number provides big-integer number theory helpers for register
// arithmetic.
package number

import "math/big"

// Zero returns a fresh big integer holding 0.
func Zero() *big.Int { return new(big.Int) }

// One returns a fresh big integer holding 1.
func One() *big.Int { return big.NewInt(1) }

// IsZero reports whether v is zero.
func IsZero(v *big.Int) bool { return v.Sign() == 0 }

// Lcm returns the least common multiple of a and b.  The LCM of anything
// with zero is zero.
func Lcm(a, b *big.Int) *big.Int {
	if a.Sign() == 0 || b.Sign() == 0 {
		return Zero()
	}
	g := new(big.Int).GCD(nil, nil, a, b)
	out := new(big.Int).Div(a, g)
	return out.Mul(out, b)
}

// LcmAll returns the least common multiple of all values, or 1 for an empty
// list.
func LcmAll(values ...*big.Int) *big.Int {
	out := One()
	for _, v := range values {
		out = Lcm(out, v)
	}
	return out
}

// Mod returns v mod m normalized into [0, m).  m must be positive.
func Mod(v, m *big.Int) *big.Int {
	return new(big.Int).Mod(v, m)
}

// Residue is one congruence in a Chinese-remainder system.
type Residue struct {
	Value   *big.Int
	Modulus *big.Int
}

// CRT combines the residues into a single value modulo the LCM of all the
// moduli.  The moduli need not be pairwise coprime; if the congruences are
// inconsistent, ok is false.  An empty system yields (0, 1).
func CRT(residues []Residue) (value, modulus *big.Int, ok bool) {
	value, modulus = Zero(), One()

	for _, r := range residues {
		v, m, good := crtPair(value, modulus, Mod(r.Value, r.Modulus), r.Modulus)
		if !good {
			return nil, nil, false
		}
		value, modulus = v, m
	}

	return value, modulus, true
}

// crtPair merges x ≡ a (mod m) with x ≡ b (mod n).
func crtPair(a, m, b, n *big.Int) (*big.Int, *big.Int, bool) {
	g, p, _ := new(big.Int), new(big.Int), new(big.Int)
	g.GCD(p, nil, m, n)

	diff := new(big.Int).Sub(b, a)
	rem := new(big.Int)
	if rem.Mod(diff, g).Sign() != 0 {
		return nil, nil, false
	}

	l := Lcm(m, n)
	// x = a + m * (diff/g * p mod n/g)
	step := new(big.Int).Div(diff, g)
	step.Mul(step, p)
	ng := new(big.Int).Div(n, g)
	step.Mod(step, ng)
	x := new(big.Int).Mul(step, m)
	x.Add(x, a)
	x.Mod(x, l)

	return x, l, true
}

// TorusDistance returns min(|a-b|, order-|a-b|): the distance between two
// register offsets on a cycle of the given order.
func TorusDistance(a, b, order *big.Int) *big.Int {
	d := new(big.Int).Sub(a, b)
	d.Abs(d)
	other := new(big.Int).Sub(order, d)
	if other.Cmp(d) < 0 {
		return other
	}
	return d
}

// Divides reports whether a divides b.  Zero divides only zero.
func Divides(a, b *big.Int) bool {
	if a.Sign() == 0 {
		return b.Sign() == 0
	}
	return new(big.Int).Mod(b, a).Sign() == 0
}

// Cmp is a lexicographic comparison of two offset tuples, used to keep
// decoding tables sorted.
func Cmp(a, b []*big.Int) int {
	for i := range a {
		if i >= len(b) {
			return 1
		}
		if c := a[i].Cmp(b[i]); c != 0 {
			return c
		}
	}
	if len(a) < len(b) {
		return -1
	}
	return 0
}
