// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iec16022

import (
	"bufio"
	"encoding/binary"
	"io"
	"strconv"
)

// A rowPacker renders rows of modules as packed rows of pixels,
// MSB first, with the quiet zone on both sides.
type rowPacker struct {
	c      *Code
	scale  int
	border int
	white  byte   // 0, or 0xff for 1 as white
	row    []byte // pixel row
}

// packer returns a rowPacker.  If invert is true, set bits are white.
func (c *Code) packer(scale, border int, invert bool) *rowPacker {
	p := &rowPacker{
		c:      c,
		scale:  scale,
		border: border,
		row:    make([]byte, (scale*(c.Width+2*border)+7)/8),
	}
	if invert {
		p.white = 0xff
	}
	return p
}

// pack returns pixel row of module row y.  Rows outside the grid
// belong to the quiet zone.  The returned slice is reused by the
// next call.
func (p *rowPacker) pack(y int) []byte {
	c := p.c
	for i := range p.row {
		p.row[i] = p.white
	}
	if y < 0 || y >= c.Height {
		return p.row
	}
	srow := c.Bitmap[y*c.Stride : y*c.Stride+(c.Width+7)/8]
	switch {
	case p.scale == 8:
		pbmRow8(p.row[p.border:p.border+c.Width], srow, p.white)
	case p.scale == 1 && p.border&7 == 0 && p.white == 0:
		copy(p.row[p.border/8:], srow)
	default:
		for x := 0; x < c.Width; x++ {
			if c.Black(x, y) {
				flipBits(p.row, (p.border+x)*p.scale, p.scale)
			}
		}
	}
	return p.row
}

// pbmRow8 packs a row of modules at scale 8, one byte per module.
func pbmRow8(row, srow []byte, white byte) {
	var b uint64
	for _, v := range srow {
		v ^= white
		for i := 0; i < 8; i++ {
			b = b<<8 | uint64(-(v & 1))
			v >>= 1
		}
		if len(row) < 8 {
			break
		}
		binary.LittleEndian.PutUint64(row, b)
		row = row[8:]
	}
	for i := range row {
		row[i] = byte(b)
		b >>= 8
	}
}

// flipBits inverts n bits of b starting at bit start, MSB first.
func flipBits(b []byte, start, n int) {
	for n > 0 {
		s := start & 7
		k := min(8-s, n)
		m := byte(0xff) >> s
		m &^= byte(0xff) >> (s + k)
		b[start>>3] ^= m
		start += k
		n -= k
	}
}

// EncodePBM writes a Portable Bit Map image displaying the code to w,
// for use with netpbm.  EncodePBM disregards c.Palette, as other PNM
// formats are not supported.
func (c *Code) EncodePBM(w io.Writer) error {
	if !c.isValid() {
		return ErrArgs
	}
	b := bufio.NewWriter(w)
	width, height := c.size()
	if _, err := b.WriteString("P4\n" + strconv.Itoa(width) + " " +
		strconv.Itoa(height) + "\n"); err != nil {
		return err
	}
	p := c.packer(c.Scale, c.Border, c.Reverse)
	for y := -c.Border; y < c.Height+c.Border; y++ {
		row := p.pack(y)
		for i := 0; i < c.Scale; i++ {
			if _, err := b.Write(row); err != nil {
				return err
			}
		}
	}
	return b.Flush()
}
