// Copyright 2010 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gf256 implements arithmetic over the Galois Field GF(256)
// and a systematic Reed-Solomon encoder over it.
package gf256 // import "github.com/unixdj/iec16022/gf256"

import "strconv"

// A Field represents an instance of GF(256) defined by a specific
// polynomial.  A Field is immutable after NewField returns and may be
// shared by any number of goroutines.
type Field struct {
	log [256]byte // log[0] is unused
	exp [510]byte
}

// NewField returns a new field corresponding to the polynomial poly
// and generator α.  The ECC200 field is NewField(0x12d, 2).
//
// The choice of generator α only matters for its use as the base of
// the exponent and logarithm tables.
func NewField(poly, α int) *Field {
	if poly < 0x100 || poly >= 0x200 || reducible(poly) {
		panic("gf256: invalid polynomial: " + strconv.Itoa(poly))
	}

	var f Field
	x := 1
	for i := 0; i < 255; i++ {
		if x == 1 && i != 0 {
			panic("gf256: invalid generator " + strconv.Itoa(α) +
				" for polynomial " + strconv.Itoa(poly))
		}
		f.exp[i] = byte(x)
		f.exp[i+255] = byte(x)
		f.log[x] = byte(i)
		x = mul(x, α, poly)
	}
	f.log[0] = 255
	return &f
}

// nbit returns the number of significant bits in p.
func nbit(p int) uint {
	n := uint(0)
	for ; p > 0; p >>= 1 {
		n++
	}
	return n
}

// polyDiv divides the polynomial p by q and returns the remainder.
func polyDiv(p, q int) int {
	np := nbit(p)
	nq := nbit(q)
	for ; np >= nq; np-- {
		if p&(1<<(np-1)) != 0 {
			p ^= q << (np - nq)
		}
	}
	return p
}

// mul returns the product x*y mod poly, a GF(256) multiplication.
func mul(x, y, poly int) int {
	z := 0
	for x > 0 {
		if x&1 != 0 {
			z ^= y
		}
		x >>= 1
		y <<= 1
		if y&0x100 != 0 {
			y ^= poly
		}
	}
	return z
}

// reducible reports whether p is reducible.
func reducible(p int) bool {
	// Multiplying n-bit * n-bit produces (2n-1)-bit,
	// so if p is reducible, one of its factors must be
	// of np/2+1 bits or fewer.
	np := nbit(p)
	for q := 2; q < 1<<(np/2+1); q++ {
		if polyDiv(p, q) == 0 {
			return true
		}
	}
	return false
}

// Add returns the sum of x and y in the field.
func (f *Field) Add(x, y byte) byte {
	return x ^ y
}

// Exp returns the base-α exponential of e in the field.
// If e < 0, Exp returns 0.
func (f *Field) Exp(e int) byte {
	if e < 0 {
		return 0
	}
	return f.exp[e%255]
}

// Log returns the base-α logarithm of x in the field.
// If x == 0, Log returns -1.
func (f *Field) Log(x byte) int {
	if x == 0 {
		return -1
	}
	return int(f.log[x])
}

// Inv returns the multiplicative inverse of x in the field.
// If x == 0, Inv returns 0.
func (f *Field) Inv(x byte) byte {
	if x == 0 {
		return 0
	}
	return f.exp[255-f.log[x]]
}

// Mul returns the product of x and y in the field.
func (f *Field) Mul(x, y byte) byte {
	if x == 0 || y == 0 {
		return 0
	}
	return f.exp[int(f.log[x])+int(f.log[y])]
}

// An RSEncoder implements Reed-Solomon encoding
// over a given field using a given number of error correction bytes.
// An RSEncoder holds no scratch state and is safe for concurrent use.
type RSEncoder struct {
	f    *Field
	c    int
	gen  []byte
	lgen []byte
}

// gen returns the generator polynomial with roots α^base to
// α^(base+e-1) and its logarithms.  The most significant coefficient
// is first.  Log 0 is stored as 255.
func (f *Field) gen(base, e int) (gen, lgen []byte) {
	// p = 1
	p := make([]byte, e+1)
	p[e] = 1

	for i := 0; i < e; i++ {
		// p *= (x + Exp(base+i))
		// p[j] = p[j]*Exp(base+i) + p[j+1].
		c := f.Exp(base + i)
		for j := 0; j < e; j++ {
			p[j] = f.Mul(p[j], c) ^ p[j+1]
		}
		p[e] = f.Mul(p[e], c)
	}

	// lp = log p.
	lp := make([]byte, e+1)
	for i, c := range p {
		if c == 0 {
			lp[i] = 255
		} else {
			lp[i] = byte(f.Log(c))
		}
	}

	return p, lp
}

// NewRSEncoder returns a new Reed-Solomon encoder over the given
// field producing c check bytes, with the generator polynomial roots
// starting at α^base.  DataMatrix uses base 1, QR base 0.
func NewRSEncoder(f *Field, base, c int) *RSEncoder {
	gen, lgen := f.gen(base, c)
	return &RSEncoder{f: f, c: c, gen: gen, lgen: lgen}
}

// Check returns the number of check bytes rs produces.
func (rs *RSEncoder) Check() int { return rs.c }

// Gen returns a copy of the generator polynomial of rs, most
// significant coefficient first.
func (rs *RSEncoder) Gen() []byte { return append([]byte(nil), rs.gen...) }

// ECC writes to check the error correcting code bytes
// for data using the given Reed-Solomon parameters.
func (rs *RSEncoder) ECC(data []byte, check []byte) {
	if len(check) < rs.c {
		panic("gf256: invalid check byte length")
	}
	if rs.c == 0 {
		return
	}

	// The check bytes are the remainder after dividing
	// data padded with c zeros by the generator polynomial.
	// The remainder register starts at zero and each data byte
	// is fed into its head.  To avoid repeated work, generator
	// coefficients are kept as logarithms.
	f := rs.f
	lgen := rs.lgen[1:]
	r := check[:rs.c]
	for i := range r {
		r[i] = 0
	}
	for _, d := range data {
		c := d ^ r[0]
		copy(r, r[1:])
		r[len(r)-1] = 0
		if c == 0 {
			continue
		}
		exp := f.exp[f.log[c]:]
		for j, lg := range lgen {
			if lg != 255 { // lgen uses 255 for log 0
				r[j] ^= exp[lg]
			}
		}
	}
}
