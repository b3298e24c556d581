// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package raster writes palette-indexed images in PNG and GIF
// formats.
//
// The writers are tailored to images with few colours and long runs,
// like barcodes.  Palette entries that are not opaque are transparent:
// PNG keeps their alpha, GIF marks the first one with alpha below
// one half as its transparent colour.
package raster // import "github.com/unixdj/iec16022/raster"

import (
	"errors"
	"image"
	"image/color"
	"strconv"
)

var (
	ErrImage      = errors.New("raster: invalid image")
	ErrLargeImage = errors.New("raster: image too large")
)

// Compression selects the PNG compressor.
type Compression int

const (
	Deflate Compression = iota // general purpose deflate
	Huffman                    // runs and row repeats, one dynamic Huffman block
	Stored                     // no compression
)

var compressionNames = [...]string{"deflate", "huffman", "stored"}

func (c Compression) String() string {
	if c >= 0 && int(c) < len(compressionNames) {
		return compressionNames[c]
	}
	return "Compression(" + strconv.Itoa(int(c)) + ")"
}

// ParseCompression returns the Compression named s.
func ParseCompression(s string) (Compression, error) {
	for i, v := range compressionNames {
		if s == v {
			return Compression(i), nil
		}
	}
	return 0, errors.New("raster: unknown compression " + strconv.Quote(s))
}

// Options control image writing.  A nil *Options is valid and
// selects the defaults.
type Options struct {
	Background  int         // background palette index
	Comment     string      // comment, Latin-1 for PNG
	Interlace   bool        // GIF interlacing
	Compression Compression // PNG compression
}

// check returns the image size and validates m.
func check(m *image.Paletted, max int) (w, h int, err error) {
	if m == nil {
		return 0, 0, ErrImage
	}
	b := m.Bounds()
	if b.Empty() || len(m.Palette) == 0 || len(m.Palette) > 256 {
		return 0, 0, ErrImage
	}
	if w, h = b.Dx(), b.Dy(); w > max || h > max {
		return 0, 0, ErrLargeImage
	}
	return w, h, nil
}

// row returns the pixels of row y, counting from the top of m.
func row(m *image.Paletted, y int) []byte {
	b := m.Bounds()
	i := m.PixOffset(b.Min.X, b.Min.Y+y)
	return m.Pix[i : i+b.Dx()]
}

func nrgba(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}
