// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coding implements low-level DataMatrix ECC200 coding
// details: the symbol table, Reed-Solomon blocks, module placement
// and finder patterns.
package coding // import "github.com/unixdj/iec16022/coding"

import (
	"errors"
	"strconv"
)

var (
	ErrGeometry = errors.New("iec16022: invalid symbol size")
	ErrCapacity = errors.New("iec16022: data too long for symbol")
	ErrLevel    = errors.New("iec16022: invalid error correction level")
	ErrLength   = errors.New("iec16022: wrong number of codewords")
)

// A Level denotes a DataMatrix error correction level.  Only ECC200
// is supported; the older ECC000-140 levels are obsolete.
type Level int

const ECC200 Level = 200

func (l Level) String() string {
	return "ECC" + strconv.Itoa(int(l))
}

// A Shape restricts automatic symbol selection.
type Shape int

const (
	AnyShape  Shape = iota // square or rectangular
	Square                 // square symbols only
	Rectangle              // rectangular symbols only
)

func (s Shape) String() string {
	switch s {
	case AnyShape:
		return "any"
	case Square:
		return "square"
	case Rectangle:
		return "rectangle"
	}
	return "Shape(" + strconv.Itoa(int(s)) + ")"
}

func (s Shape) allows(sym *Symbol) bool {
	switch s {
	case Square:
		return !sym.Rectangular()
	case Rectangle:
		return sym.Rectangular()
	}
	return true
}

// A Symbol describes an ECC200 symbol size.  Symbols are only
// obtained from the fixed table and must not be modified.
type Symbol struct {
	Width, Height int // modules, including finder patterns
	RegionWidth   int // modules per data region, including its border
	RegionHeight  int
	DataWords     int // data codewords
	BlockData     int // data codewords in the first interleaved block
	BlockECC      int // check codewords per block
	Blocks        int // number of interleaved blocks
	index         int // position in symbols
}

// symbols lists all ECC200 symbols in order of data capacity, as
// given by ISO/IEC 16022 table 7.
var symbols = [...]Symbol{
	{10, 10, 10, 10, 3, 3, 5, 1, 0},
	{12, 12, 12, 12, 5, 5, 7, 1, 1},
	{18, 8, 18, 8, 5, 5, 7, 1, 2},
	{14, 14, 14, 14, 8, 8, 10, 1, 3},
	{32, 8, 16, 8, 10, 10, 11, 1, 4},
	{16, 16, 16, 16, 12, 12, 12, 1, 5},
	{26, 12, 26, 12, 16, 16, 14, 1, 6},
	{18, 18, 18, 18, 18, 18, 14, 1, 7},
	{20, 20, 20, 20, 22, 22, 18, 1, 8},
	{36, 12, 18, 12, 22, 22, 18, 1, 9},
	{22, 22, 22, 22, 30, 30, 20, 1, 10},
	{36, 16, 18, 16, 32, 32, 24, 1, 11},
	{24, 24, 24, 24, 36, 36, 24, 1, 12},
	{26, 26, 26, 26, 44, 44, 28, 1, 13},
	{48, 16, 24, 16, 49, 49, 28, 1, 14},
	{32, 32, 16, 16, 62, 62, 36, 1, 15},
	{36, 36, 18, 18, 86, 86, 42, 1, 16},
	{40, 40, 20, 20, 114, 114, 48, 1, 17},
	{44, 44, 22, 22, 144, 144, 56, 1, 18},
	{48, 48, 24, 24, 174, 174, 68, 1, 19},
	{52, 52, 26, 26, 204, 102, 42, 2, 20},
	{64, 64, 16, 16, 280, 140, 56, 2, 21},
	{72, 72, 18, 18, 368, 92, 36, 4, 22},
	{80, 80, 20, 20, 456, 114, 48, 4, 23},
	{88, 88, 22, 22, 576, 144, 56, 4, 24},
	{96, 96, 24, 24, 696, 174, 68, 4, 25},
	{104, 104, 26, 26, 816, 136, 56, 6, 26},
	{120, 120, 20, 20, 1050, 175, 68, 6, 27},
	{132, 132, 22, 22, 1304, 163, 62, 8, 28},
	{144, 144, 24, 24, 1558, 156, 62, 10, 29}, // 8*156 + 2*155
}

// Symbols returns all ECC200 symbols in order of data capacity.
func Symbols() []*Symbol {
	s := make([]*Symbol, len(symbols))
	for i := range symbols {
		s[i] = &symbols[i]
	}
	return s
}

// Lookup returns the symbol of the given width and height in modules.
func Lookup(width, height int) (*Symbol, error) {
	for i := range symbols {
		if s := &symbols[i]; s.Width == width && s.Height == height {
			return s, nil
		}
	}
	return nil, ErrGeometry
}

// Fit returns the smallest symbol of the given shape holding n data
// codewords.
func Fit(n int, shape Shape) (*Symbol, error) {
	for i := range symbols {
		if s := &symbols[i]; n <= s.DataWords && shape.allows(s) {
			return s, nil
		}
	}
	return nil, ErrCapacity
}

// Largest returns the largest symbol of the given shape.
func Largest(shape Shape) *Symbol {
	for i := len(symbols) - 1; i > 0; i-- {
		if s := &symbols[i]; shape.allows(s) {
			return s
		}
	}
	return &symbols[0]
}

func (s *Symbol) String() string {
	return strconv.Itoa(s.Width) + "x" + strconv.Itoa(s.Height)
}

// Rectangular reports whether s is not square.
func (s *Symbol) Rectangular() bool { return s.Width != s.Height }

// ECCWords returns the number of check codewords in s.
func (s *Symbol) ECCWords() int { return s.Blocks * s.BlockECC }

// Words returns the total number of codewords in s.
func (s *Symbol) Words() int { return s.DataWords + s.ECCWords() }

// Regions returns the number of data regions across and down.
func (s *Symbol) Regions() (x, y int) {
	return s.Width / s.RegionWidth, s.Height / s.RegionHeight
}

// MappingSize returns the size of the mapping matrix, which is the
// symbol with the finder pattern of each data region removed.
func (s *Symbol) MappingSize() (cols, rows int) {
	rx, ry := s.Regions()
	return s.Width - 2*rx, s.Height - 2*ry
}
