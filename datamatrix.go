// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package iec16022 encodes DataMatrix ECC200 symbols, as specified by
ISO/IEC 16022.

Encode converts text to a Code, a grid of black and white modules.
The Code can be rendered as an image.Image, or written in one of
several formats: PNG, GIF, BMP and PBM images, EPS, and the text, hex
and binary dumps listed in Formats.
*/
package iec16022 // import "github.com/unixdj/iec16022"

import (
	"errors"
	"image"
	"image/color"

	"github.com/unixdj/iec16022/coding"
	"github.com/unixdj/iec16022/encodation"
)

// A Level denotes an error correction level.
type Level = coding.Level

// ECC200 is the only supported level.
const ECC200 = coding.ECC200

// A Shape restricts automatic symbol selection.
type Shape = coding.Shape

const (
	AnyShape  = coding.AnyShape
	Square    = coding.Square
	Rectangle = coding.Rectangle
)

var (
	ErrGeometry = coding.ErrGeometry
	ErrCapacity = coding.ErrCapacity
	ErrLevel    = coding.ErrLevel
	ErrArgs     = errors.New("iec16022: invalid arguments")
)

// Default rendering parameters.
const (
	DefaultScale  = 4 // image pixels per module
	DefaultBorder = 1 // quiet zone in modules
)

// Options control encoding.  A nil *Options selects the defaults.
type Options struct {
	Shape  Shape              // shape for automatic size selection
	GS1    bool               // GS1 data, FNC1 in first position
	Append *encodation.Append // structured append, if not nil
}

// Encode returns an encoding of text at the given error correction
// level in a symbol of width×height modules.  If width and height are
// both 0, the smallest symbol holding text is chosen.  Level 0 means
// ECC200.
//
// Encode returns ErrGeometry if no symbol has the requested size,
// ErrCapacity if text does not fit and ErrLevel for levels other than
// ECC200.
func Encode(text string, width, height int, level Level, opt *Options) (*Code, error) {
	if level != 0 && level != ECC200 {
		return nil, ErrLevel
	}
	if opt == nil {
		opt = &Options{}
	}
	eo := &encodation.Options{
		Shape:  opt.Shape,
		GS1:    opt.GS1,
		Append: opt.Append,
	}
	if width != 0 || height != 0 {
		s, err := coding.Lookup(width, height)
		if err != nil {
			return nil, err
		}
		eo.Symbol = s
	}
	m, err := encodation.Encode([]byte(text), eo)
	if err != nil {
		return nil, err
	}
	cc, err := coding.Encode(m.Symbol, m.Codewords)
	if err != nil {
		return nil, err
	}
	return &Code{
		Bitmap:   cc.Bitmap,
		Width:    cc.Width,
		Height:   cc.Height,
		Stride:   cc.Stride,
		Scale:    DefaultScale,
		Border:   DefaultBorder,
		Encoded:  m.Len,
		Capacity: m.Symbol.DataWords,
		ECC:      m.Symbol.ECCWords(),
		Symbol:   m.Symbol,
	}, nil
}

// A Code is a rectangular grid of modules, with parameters for
// rendering it.
type Code struct {
	Bitmap []byte // 1 is black, 0 is white
	Width  int    // number of modules across
	Height int    // number of modules down
	Stride int    // number of bytes per row

	Scale   int             // number of image pixels per module
	Border  int             // quiet zone width in modules
	Palette *[2]color.Color // background and foreground, nil for white and black
	Reverse bool            // swap background and foreground

	Encoded  int            // data codewords used, before padding
	Capacity int            // data codewords in the symbol
	ECC      int            // error correction codewords
	Symbol   *coding.Symbol // symbol size, nil if unknown
}

// Black returns true if the module at (x,y) is black.  Modules outside
// the grid are white.
func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Width && 0 <= y && y < c.Height &&
		c.Bitmap[y*c.Stride+x/8]&(1<<uint(7&^x)) != 0
}

// Module reports whether the module at the given row and column is
// black.  Row 0 is the top row.
func (c *Code) Module(row, col int) bool { return c.Black(col, row) }

func (c *Code) isValid() bool {
	return c != nil && c.Width > 0 && c.Height > 0 &&
		c.Stride >= (c.Width+7)/8 && len(c.Bitmap) >= c.Stride*c.Height &&
		c.Scale > 0 && c.Border >= 0
}

var defaultPalette = [2]color.Color{color.White, color.Black}

// colors returns the background and foreground colours.
func (c *Code) colors() color.Palette {
	pal := defaultPalette
	if c.Palette != nil {
		pal = *c.Palette
	}
	if c.Reverse {
		pal[0], pal[1] = pal[1], pal[0]
	}
	return color.Palette{pal[0], pal[1]}
}

// size returns the image size in pixels.
func (c *Code) size() (w, h int) {
	return (c.Width + 2*c.Border) * c.Scale, (c.Height + 2*c.Border) * c.Scale
}

// Image returns an Image displaying the code with its quiet zone.
func (c *Code) Image() image.Image {
	return &codeImage{c, c.colors()}
}

// codeImage implements image.Image.
type codeImage struct {
	*Code
	pal color.Palette
}

func (c *codeImage) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Pt(c.size())}
}

func (c *codeImage) At(x, y int) color.Color {
	if x < 0 || y < 0 {
		return c.pal[0]
	}
	if c.Black(x/c.Scale-c.Border, y/c.Scale-c.Border) {
		return c.pal[1]
	}
	return c.pal[0]
}

func (c *codeImage) ColorModel() color.Model {
	return c.pal
}

// Paletted returns the code rendered with its quiet zone as a
// two-colour image.  Index 0 is the background.
func (c *Code) Paletted() (*image.Paletted, error) {
	if !c.isValid() {
		return nil, ErrArgs
	}
	w, h := c.size()
	m := image.NewPaletted(image.Rect(0, 0, w, h), c.colors())
	line := make([]byte, w)
	top := c.Border * c.Scale
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			var v byte
			if c.Black(x, y) {
				v = 1
			}
			p := line[(x+c.Border)*c.Scale:][:c.Scale]
			for i := range p {
				p[i] = v
			}
		}
		for i := 0; i < c.Scale; i++ {
			copy(m.Pix[(top+y*c.Scale+i)*m.Stride:], line)
		}
	}
	return m, nil
}
