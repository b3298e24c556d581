// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iec16022

import (
	"io"

	"github.com/unixdj/iec16022/raster"

	"golang.org/x/image/bmp"
)

// EncodePNG writes a PNG image displaying the code to w.  The palette
// has two entries, background first; a background with alpha below
// 0xff is written to the tRNS chunk.  o may be nil.
func (c *Code) EncodePNG(w io.Writer, o *raster.Options) error {
	m, err := c.Paletted()
	if err != nil {
		return err
	}
	return raster.WritePNG(w, m, o)
}

// EncodeGIF writes a GIF image displaying the code to w.  A
// transparent background becomes the GIF transparent colour.  o may
// be nil.
func (c *Code) EncodeGIF(w io.Writer, o *raster.Options) error {
	m, err := c.Paletted()
	if err != nil {
		return err
	}
	return raster.WriteGIF(w, m, o)
}

// EncodeBMP writes a Windows bitmap displaying the code to w.
func (c *Code) EncodeBMP(w io.Writer) error {
	m, err := c.Paletted()
	if err != nil {
		return err
	}
	return bmp.Encode(w, m)
}
