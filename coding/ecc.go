// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"sync"

	"github.com/unixdj/iec16022/gf256"
)

// Field is the field for ECC200 error correction.
var Field = gf256.NewField(0x12d, 2)

// Pad codewords.
const (
	PadWord = 129 // first pad codeword
)

// Reed-Solomon encoders by number of check codewords per block.
// An encoder is created the first time a block size is used.
var encoders [69]struct {
	once sync.Once
	rs   *gf256.RSEncoder
}

func rsEncoder(n int) *gf256.RSEncoder {
	e := &encoders[n]
	e.once.Do(func() {
		e.rs = gf256.NewRSEncoder(Field, 1, n)
	})
	return e.rs
}

// Randomise253 returns the pad codeword for 1-based codeword position
// pos.  Only the first pad codeword is not randomised.
func Randomise253(pos int) byte {
	v := PadWord + 149*pos%253 + 1
	if v > 254 {
		v -= 254
	}
	return byte(v)
}

// Pad appends padding to data up to the data capacity of s.
func Pad(data []byte, s *Symbol) ([]byte, error) {
	if len(data) > s.DataWords {
		return data, ErrCapacity
	}
	if len(data) < s.DataWords {
		data = append(data, PadWord)
	}
	for len(data) < s.DataWords {
		data = append(data, Randomise253(len(data)+1))
	}
	return data, nil
}

// checkColumn returns the position of the first check codeword of
// block b among the first s.Blocks check codewords.  In 144x144, whose
// last two blocks hold one data codeword less, the check codewords
// continue the interleave where the data left off, so block 8 comes
// first.
func checkColumn(s *Symbol, b int) int {
	if s.Width == 144 {
		return (b + 2) % s.Blocks
	}
	return b
}

// AddCheckBytes returns data followed by its check codewords for
// symbol s.  Data codeword i belongs to block i%s.Blocks; check
// codewords are interleaved the same way, see checkColumn.  data must
// hold exactly s.DataWords codewords.
func AddCheckBytes(s *Symbol, data []byte) ([]byte, error) {
	if len(data) != s.DataWords {
		return nil, ErrLength
	}
	nb := s.Blocks
	out := make([]byte, s.Words())
	copy(out, data)
	rs := rsEncoder(s.BlockECC)
	block := make([]byte, 0, s.BlockData)
	check := make([]byte, s.BlockECC)
	for b := 0; b < nb; b++ {
		block = block[:0]
		for i := b; i < len(data); i += nb {
			block = append(block, data[i])
		}
		rs.ECC(block, check)
		ecc := out[s.DataWords+checkColumn(s, b):]
		for j, v := range check {
			ecc[j*nb] = v
		}
	}
	return out, nil
}
