// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import "sync"

// A Code is a rectangular pixel grid.
type Code struct {
	Bitmap []byte // 1 is black, 0 is white
	Width  int    // number of pixels across
	Height int    // number of pixels down
	Stride int    // number of bytes per row
}

// Black returns true if the pixel at (x,y) is black.
func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Width && 0 <= y && y < c.Height &&
		c.Bitmap[y*c.Stride+x/8]&(1<<uint(7&^x)) != 0
}

// A Plan describes how to construct a DataMatrix symbol of a
// specific size.  Plans are shared and must not be modified.
type Plan struct {
	*Symbol

	Stride  int      // number of bytes per bitmap row
	Map     []uint16 // bitmap bit offset for each codeword bit, MSB first
	Pattern []byte   // finder patterns and fixed corner modules

	corners uint8 // corner patterns used, bit i for corner i
}

// Pre-allocated Plans.  A Plan is created the first time a symbol
// size is used.
var plans [len(symbols)]struct {
	once sync.Once
	p    *Plan
}

// PlanFor returns the Plan for symbol s.
func PlanFor(s *Symbol) (*Plan, error) {
	if s == nil || s.index >= len(symbols) || s != &symbols[s.index] {
		if s == nil {
			return nil, ErrGeometry
		}
		var err error
		if s, err = Lookup(s.Width, s.Height); err != nil {
			return nil, err
		}
	}
	p := &plans[s.index]
	p.once.Do(func() { p.p = makePlan(s) })
	return p.p, nil
}

// A cell is a position in the mapping matrix.  Negative coordinates
// count from the bottom or right edge.
type cell struct{ r, c int8 }

// utah is the regular codeword shape, relative to its bottom right
// module, from bit 7 to bit 0.
var utah = [8]cell{
	{-2, -2}, {-2, -1}, {-1, -2}, {-1, -1}, {-1, 0}, {0, -2}, {0, -1}, {0, 0},
}

// corners lists the four special corner shapes and the traversal
// positions where each is placed.
var corners = [4]struct {
	at   func(r, c, nr, nc int) bool
	bits [8]cell
}{
	{
		func(r, c, nr, nc int) bool { return r == nr && c == 0 },
		[8]cell{{-1, 0}, {-1, 1}, {-1, 2}, {0, -2}, {0, -1}, {1, -1}, {2, -1}, {3, -1}},
	},
	{
		func(r, c, nr, nc int) bool { return r == nr-2 && c == 0 && nc%4 != 0 },
		[8]cell{{-3, 0}, {-2, 0}, {-1, 0}, {0, -4}, {0, -3}, {0, -2}, {0, -1}, {1, -1}},
	},
	{
		func(r, c, nr, nc int) bool { return r == nr-2 && c == 0 && nc%8 == 4 },
		[8]cell{{-3, 0}, {-2, 0}, {-1, 0}, {0, -2}, {0, -1}, {1, -1}, {2, -1}, {3, -1}},
	},
	{
		func(r, c, nr, nc int) bool { return r == nr+4 && c == 2 && nc%8 == 0 },
		[8]cell{{-1, 0}, {-1, -1}, {0, -3}, {0, -2}, {0, -1}, {1, -3}, {1, -2}, {1, -1}},
	},
}

// A placer fills the mapping matrix.  Each entry is pos<<3|bit for
// bit of 1-based codeword pos, 1 for a fixed black module and 0 for
// an unfilled one.
type placer struct {
	nr, nc  int
	m       []int32
	pos     int
	corners uint8
}

func (p *placer) module(r, c, bit int) {
	if r < 0 {
		r += p.nr
		c += 4 - (p.nr+4)%8
	}
	if c < 0 {
		c += p.nc
		r += 4 - (p.nc+4)%8
	}
	p.m[r*p.nc+c] = int32(p.pos<<3 | bit)
}

func (p *placer) utah(r, c int) {
	p.pos++
	for i, v := range utah {
		p.module(r+int(v.r), c+int(v.c), 7-i)
	}
}

func (p *placer) corner(n int) {
	p.pos++
	p.corners |= 1 << n
	for i, v := range corners[n].bits {
		r, c := int(v.r), int(v.c)
		if r < 0 {
			r += p.nr
		}
		if c < 0 {
			c += p.nc
		}
		p.module(r, c, 7-i)
	}
}

func (p *placer) free(r, c int) bool {
	return 0 <= r && r < p.nr && 0 <= c && c < p.nc && p.m[r*p.nc+c] == 0
}

// place runs the diagonal placement over an nr by nc mapping matrix.
func place(nr, nc int) *placer {
	p := &placer{nr: nr, nc: nc, m: make([]int32, nr*nc)}
	r, c := 4, 0
	for r < nr || c < nc {
		for i := range corners {
			if corners[i].at(r, c, nr, nc) {
				p.corner(i)
			}
		}
		// Sweep up and right.
		for {
			if p.free(r, c) {
				p.utah(r, c)
			}
			r -= 2
			c += 2
			if r < 0 || c >= nc {
				break
			}
		}
		r++
		c += 3
		// Sweep down and left.
		for {
			if p.free(r, c) {
				p.utah(r, c)
			}
			r += 2
			c -= 2
			if r >= nr || c < 0 {
				break
			}
		}
		r += 3
		c++
	}
	// Unfilled bottom right corner.
	if p.m[nr*nc-1] == 0 {
		p.m[nr*nc-1] = 1
		p.m[nr*nc-nc-2] = 1
	}
	return p
}

func makePlan(s *Symbol) *Plan {
	nc, nr := s.MappingSize()
	stride := (s.Width + 7) >> 3
	p := &Plan{
		Symbol:  s,
		Stride:  stride,
		Map:     make([]uint16, s.Words()*8),
		Pattern: make([]byte, stride*s.Height),
	}
	finder(p)

	pl := place(nr, nc)
	p.corners = pl.corners
	dh, dw := s.RegionHeight-2, s.RegionWidth-2
	n := 0
	for r := 0; r < nr; r++ {
		y := r/dh*s.RegionHeight + 1 + r%dh
		for c := 0; c < nc; c++ {
			x := c/dw*s.RegionWidth + 1 + c%dw
			off := y*stride*8 + x
			switch v := pl.m[r*nc+c]; {
			case v == 1:
				p.Pattern[off>>3] |= 0x80 >> (off & 7)
			case v >= 8:
				p.Map[int(v>>3-1)*8+7-int(v&7)] = uint16(off)
				n++
			}
		}
	}
	if n != len(p.Map) {
		panic("iec16022: internal error: placement")
	}
	return p
}

// finder draws the finder and clock patterns of each data region:
// solid lines on the left and bottom, alternating modules on the top
// and right, starting black at the top left and bottom right.
func finder(p *Plan) {
	set := func(x, y int) {
		p.Pattern[y*p.Stride+x>>3] |= 0x80 >> (x & 7)
	}
	for y := 0; y < p.Height; y += p.RegionHeight {
		for x := 0; x < p.Width; x++ {
			if x&1 == 0 {
				set(x, y)
			}
			set(x, y+p.RegionHeight-1)
		}
	}
	for x := 0; x < p.Width; x += p.RegionWidth {
		for y := 0; y < p.Height; y++ {
			set(x, y)
			if y&1 != 0 {
				set(x+p.RegionWidth-1, y)
			}
		}
	}
}

// Place returns a new Code holding the codewords cw, which must be
// the data and check codewords of p's symbol.
func (p *Plan) Place(cw []byte) (*Code, error) {
	if len(cw) != p.Words() {
		return nil, ErrLength
	}
	c := &Code{
		Bitmap: append([]byte(nil), p.Pattern...),
		Width:  p.Width,
		Height: p.Height,
		Stride: p.Stride,
	}
	for i, off := range p.Map {
		if cw[i>>3]&(0x80>>(i&7)) != 0 {
			c.Bitmap[off>>3] |= 0x80 >> (off & 7)
		}
	}
	return c, nil
}

// Encode pads data, adds check codewords and places them into a new
// Code for symbol s.  data is not modified.
func Encode(s *Symbol, data []byte) (*Code, error) {
	p, err := PlanFor(s)
	if err != nil {
		return nil, err
	}
	data, err = Pad(append(make([]byte, 0, s.DataWords), data...), p.Symbol)
	if err != nil {
		return nil, err
	}
	cw, err := AddCheckBytes(p.Symbol, data)
	if err != nil {
		return nil, err
	}
	return p.Place(cw)
}
